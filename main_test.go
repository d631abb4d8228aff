package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/giygas/pediatric-drug-calculator/catalog"
	"github.com/giygas/pediatric-drug-calculator/config"
	"github.com/giygas/pediatric-drug-calculator/dosage"
	"github.com/giygas/pediatric-drug-calculator/entities"
	"github.com/giygas/pediatric-drug-calculator/history"
	"github.com/giygas/pediatric-drug-calculator/lookup"
	"github.com/giygas/pediatric-drug-calculator/notify"
	"github.com/giygas/pediatric-drug-calculator/shell"
)

func newTestProgram(t *testing.T, out *bytes.Buffer) (*shell.Program, *history.History) {
	t.Helper()
	ctx := context.Background()

	store := catalog.NewMemoryStore()
	if err := store.Reset(ctx, []entities.MedicalSystem{{ID: "2", Name: "Respiratory System"}}); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	_, _, err := store.CreateDrug(ctx, entities.Drug{Name: "Amoxicillin", MedicalSystemID: "2"}, []entities.DosageBand{
		{AgeGroup: entities.AgeGroupChild, WeightRange: "10-40 kg", Dose: "40-90 mg/kg/day", Route: "PO"},
	})
	if err != nil {
		t.Fatalf("CreateDrug returned error: %v", err)
	}

	hist := history.New(history.NewFileStore(filepath.Join(t.TempDir(), "history.json")))
	p := shell.NewProgram(lookup.NewService(store), hist, notify.Noop{}, func(_ context.Context, text string) error {
		out.WriteString(text + "\n")
		return nil
	})
	return p, hist
}

func TestRunCalculation(t *testing.T) {
	var out bytes.Buffer
	p, hist := newTestProgram(t, &out)

	err := runCalculation(context.Background(), p, &out, calcInput{SystemID: "2", Drug: "amoxicillin", Weight: "15", Share: true})
	if err != nil {
		t.Fatalf("runCalculation returned error: %v", err)
	}

	if !strings.Contains(out.String(), "Calculated dose: 600.0 - 1350.0 mg/day for 15kg patient") {
		t.Errorf("Expected share text in output, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "600.0 - 1350.0 mg/day") {
		t.Errorf("Expected computed dose in output, got:\n%s", out.String())
	}

	records, _ := hist.List(context.Background())
	if len(records) != 1 || records[0].DrugName != "Amoxicillin" || records[0].SystemName != "Respiratory System" {
		t.Errorf("Expected one recorded calculation, got %+v", records)
	}
}

func TestRunCalculationErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    calcInput
		expected error
	}{
		{"unknown drug", calcInput{SystemID: "2", Drug: "Ibuprofen", Weight: "15"}, errDrugNotFound},
		{"invalid weight", calcInput{SystemID: "2", Drug: "Amoxicillin", Weight: "-1"}, dosage.ErrInvalidWeight},
		{"no band", calcInput{SystemID: "2", Drug: "Amoxicillin", Weight: "45"}, dosage.ErrNoBandFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p, hist := newTestProgram(t, &out)

			err := runCalculation(context.Background(), p, &out, tt.input)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}

			records, _ := hist.List(context.Background())
			if len(records) != 0 {
				t.Errorf("Failed calculations must not be recorded, got %d", len(records))
			}
		})
	}
}

func TestResolveDrug(t *testing.T) {
	s := shell.NewState()
	s.Drugs = []entities.Drug{
		{ID: "d1", Name: "Amoxicillin"},
		{ID: "d2", Name: "Prednisone"},
	}

	tests := []struct {
		input    string
		expected string
		found    bool
	}{
		{"d2", "d2", true},
		{"amoxicillin", "d1", true},
		{"  PREDNISONE ", "d2", true},
		{"Ibuprofen", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		id, ok := resolveDrug(s, tt.input)
		if id != tt.expected || ok != tt.found {
			t.Errorf("resolveDrug(%q) = %q, %v; expected %q, %v", tt.input, id, ok, tt.expected, tt.found)
		}
	}
}

func TestFormatWeight(t *testing.T) {
	tests := map[float64]string{15: "15", 7.5: "7.5", 12.25: "12.25", 3.10: "3.1"}
	for in, expected := range tests {
		if got := formatWeight(in); got != expected {
			t.Errorf("formatWeight(%v) = %s, expected %s", in, got, expected)
		}
	}
}

func TestStoreAndHistorySelection(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{HistoryFile: filepath.Join(t.TempDir(), "history.json")}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		t.Fatalf("openStore returned error: %v", err)
	}
	defer closeStore()
	if _, ok := store.(*catalog.MemoryStore); !ok {
		t.Errorf("Expected the in-memory catalog without DATABASE_URL, got %T", store)
	}

	local, closeLocal, err := openLocalCatalog(ctx, cfg)
	if err != nil {
		t.Fatalf("openLocalCatalog returned error: %v", err)
	}
	defer closeLocal()
	stats, _ := local.Stats(ctx)
	if stats.Systems != 18 || stats.Drugs == 0 {
		t.Errorf("Expected the bundled catalog, got %+v", stats)
	}

	if _, _, err := openHistory(ctx, &config.Config{RedisURL: "not a url"}); err == nil {
		t.Error("Expected an error for an invalid REDIS_URL")
	}

	if _, ok := newNotifier(cfg).(notify.Noop); !ok {
		t.Error("Expected the no-op notifier without NOTIFY_WEBHOOK_URL")
	}
	cfg.NotifyWebhookURL = "http://localhost:9/hook"
	if _, ok := newNotifier(cfg).(*notify.Webhook); !ok {
		t.Error("Expected the webhook notifier")
	}
}

func setTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, key := range config.GetEnvVars() {
		t.Setenv(key, "")
	}
	t.Setenv("ENV", "test")
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("HISTORY_FILE", filepath.Join(dir, "history.json"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCalcAndHistoryCommands(t *testing.T) {
	setTestEnv(t)

	out, err := execute(t, "calc", "--system", "2", "--drug", "Amoxicillin", "--weight", "15")
	if err != nil {
		t.Fatalf("calc returned error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "600.0 - 1350.0 mg/day") {
		t.Errorf("Expected computed dose, got:\n%s", out)
	}

	out, err = execute(t, "history", "--json")
	if err != nil {
		t.Fatalf("history returned error: %v", err)
	}
	var records []entities.CalculationRecord
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("history output is not JSON: %v\n%s", err, out)
	}
	if len(records) != 1 || records[0].Dose != "600.0 - 1350.0 mg/day" || records[0].Weight != 15 {
		t.Errorf("Unexpected history %+v", records)
	}
}

func TestCalcCommandRequiresFlags(t *testing.T) {
	setTestEnv(t)

	if _, err := execute(t, "calc", "--system", "2"); err == nil {
		t.Error("Expected an error when --drug and --weight are missing")
	}
}

func TestAuditCommand(t *testing.T) {
	setTestEnv(t)

	out, err := execute(t, "audit")
	if err != nil {
		t.Fatalf("audit returned error: %v", err)
	}

	var report struct {
		Drugs           int `json:"drugs"`
		Bands           int `json:"bands"`
		ComputableBands int `json:"computableBands"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("audit output is not JSON: %v\n%s", err, out)
	}
	if report.Drugs == 0 || report.Bands < report.Drugs || report.ComputableBands == 0 {
		t.Errorf("Unexpected audit report %+v", report)
	}
}

func TestInvalidConfigurationFails(t *testing.T) {
	setTestEnv(t)
	t.Setenv("ENV", "moon")

	if _, err := execute(t, "history"); err == nil {
		t.Error("Expected an invalid ENV to fail")
	}
}
