package health

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/giygas/pediatric-drug-calculator/catalog"
	"github.com/giygas/pediatric-drug-calculator/entities"
	"github.com/giygas/pediatric-drug-calculator/interfaces"
)

// brokenStore fails every ping
type brokenStore struct {
	*catalog.MemoryStore
}

func (b brokenStore) Ping(context.Context) error {
	return errors.New("dial tcp: connection refused")
}

type fixedAudits struct {
	report *interfaces.CatalogAuditReport
}

func (f fixedAudits) LastReport() *interfaces.CatalogAuditReport { return f.report }

func newStore(t *testing.T, withDrug bool) *catalog.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := catalog.NewMemoryStore()
	if err := store.Reset(ctx, []entities.MedicalSystem{{ID: "1", Name: "Neurology"}}); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if withDrug {
		_, _, err := store.CreateDrug(ctx, entities.Drug{Name: "Phenobarbital", MedicalSystemID: "1"},
			[]entities.DosageBand{{AgeGroup: entities.AgeGroupNeonate, WeightRange: "2-4 kg", Dose: "3-5 mg/kg/day"}})
		if err != nil {
			t.Fatalf("CreateDrug returned error: %v", err)
		}
	}
	return store
}

func TestNewHealthChecker(t *testing.T) {
	healthChecker := NewHealthChecker(catalog.NewMemoryStore(), nil, time.Hour)

	if healthChecker == nil {
		t.Fatal("NewHealthChecker returned nil")
	}
	if _, ok := healthChecker.(*HealthCheckerImpl); !ok {
		t.Error("NewHealthChecker should return *HealthCheckerImpl")
	}
}

func TestHealthCheck(t *testing.T) {
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	recent := &interfaces.CatalogAuditReport{GeneratedAt: now.Add(-30 * time.Minute)}
	old := &interfaces.CatalogAuditReport{GeneratedAt: now.Add(-3 * time.Hour)}

	testCases := []struct {
		name       string
		store      interfaces.ReferenceStore
		audits     interfaces.AuditSource
		wantStatus string
		wantCode   int
	}{
		{"healthy", newStore(t, true), fixedAudits{recent}, "healthy", http.StatusOK},
		{"healthy without scheduler", newStore(t, true), nil, "healthy", http.StatusOK},
		{"healthy before first audit", newStore(t, true), fixedAudits{}, "healthy", http.StatusOK},
		{"not seeded", catalog.NewMemoryStore(), nil, "unhealthy", http.StatusServiceUnavailable},
		{"systems only", newStore(t, false), nil, "degraded", http.StatusServiceUnavailable},
		{"stale audit", newStore(t, true), fixedAudits{old}, "degraded", http.StatusServiceUnavailable},
		{"store down", brokenStore{newStore(t, true)}, nil, "unhealthy", http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthChecker(tc.store, tc.audits, time.Hour).(*HealthCheckerImpl)
			h.now = func() time.Time { return now }

			status, details, code := h.HealthCheck(context.Background())
			if status != tc.wantStatus {
				t.Errorf("Expected status '%s', got '%s'", tc.wantStatus, status)
			}
			if code != tc.wantCode {
				t.Errorf("Expected HTTP %d, got %d", tc.wantCode, code)
			}
			if _, ok := details["uptime_hours"]; !ok {
				t.Error("Details should contain 'uptime_hours'")
			}
		})
	}
}

func TestHealthCheckDetails(t *testing.T) {
	now := time.Now()
	report := &interfaces.CatalogAuditReport{
		GeneratedAt:     now.Add(-6 * time.Minute),
		ComputableBands: 1,
		Issues:          []interfaces.AuditIssue{{Kind: "weight_coverage_gap"}, {Kind: "weight_coverage_gap"}},
	}
	h := NewHealthChecker(newStore(t, true), fixedAudits{report}, time.Hour)

	_, details, _ := h.HealthCheck(context.Background())

	data, ok := details["data"].(map[string]any)
	if !ok {
		t.Fatalf("Details should contain 'data', got %+v", details)
	}
	if data["systems"] != 1 || data["drugs"] != 1 || data["dosages"] != 1 {
		t.Errorf("Unexpected data counts %+v", data)
	}

	audit, ok := details["audit"].(map[string]any)
	if !ok {
		t.Fatalf("Details should contain 'audit', got %+v", details)
	}
	if audit["age_hours"] != 0.1 {
		t.Errorf("Expected audit age 0.1h, got %v", audit["age_hours"])
	}
	issues := audit["issues"].(map[string]int)
	if issues["weight_coverage_gap"] != 2 {
		t.Errorf("Expected 2 gap issues, got %v", issues)
	}
}

func BenchmarkHealthCheck(b *testing.B) {
	store := catalog.NewMemoryStore()
	_ = store.Reset(context.Background(), []entities.MedicalSystem{{ID: "1"}})
	h := NewHealthChecker(store, nil, time.Hour)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.HealthCheck(ctx)
	}
}
