package validation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/giygas/pediatric-drug-calculator/catalog"
	"github.com/giygas/pediatric-drug-calculator/entities"
	"github.com/giygas/pediatric-drug-calculator/interfaces"
	"github.com/giygas/pediatric-drug-calculator/seed"
)

func TestValidateID(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"numeric system id", "3", false},
		{"uuid", "0b9f7c2e-5d4a-4b8e-9a1f-2c3d4e5f6a7b", false},
		{"underscore", "drug_42", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"sql injection", "1' OR '1'='1", true},
		{"path traversal", "../etc/passwd", true},
		{"too long", strings.Repeat("a", 65), true},
		{"max length", strings.Repeat("a", 64), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateID(tc.input)
			if tc.wantErr && err == nil {
				t.Errorf("Expected error for %q", tc.input)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Expected no error for %q, got %v", tc.input, err)
			}
		})
	}
}

func kinds(report *interfaces.CatalogAuditReport) map[string]int {
	return report.CountByKind()
}

func TestAuditCatalogCleanDrug(t *testing.T) {
	cat := interfaces.Catalog{
		Systems: []entities.MedicalSystem{{ID: "2", Name: "Respiratory System"}},
		Drugs:   []entities.Drug{{ID: "d1", Name: "Amoxicillin", MedicalSystemID: "2"}},
		Dosages: []entities.DosageBand{
			{ID: "b1", DrugID: "d1", AgeGroup: entities.AgeGroupInfant, WeightRange: "5-10 kg", Dose: "20-40 mg/kg/day"},
			{ID: "b2", DrugID: "d1", AgeGroup: entities.AgeGroupChild, WeightRange: "10-40 kg", Dose: "40-90 mg/kg/day"},
			{ID: "b3", DrugID: "d1", AgeGroup: entities.AgeGroupAdolescent, WeightRange: ">40 kg", Dose: "500 mg q8h"},
		},
	}

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	report := AuditCatalog(cat, now)

	if len(report.Issues) != 0 {
		t.Errorf("Expected no issues (shared boundaries are allowed), got %+v", report.Issues)
	}
	if report.ComputableBands != 2 {
		t.Errorf("Expected 2 computable bands, got %d", report.ComputableBands)
	}
	if !report.GeneratedAt.Equal(now) || report.Drugs != 1 || report.Bands != 3 {
		t.Errorf("Unexpected report header %+v", report)
	}
}

func TestAuditCatalogFindsProblems(t *testing.T) {
	cat := interfaces.Catalog{
		Systems: []entities.MedicalSystem{{ID: "1", Name: "Neurology"}},
		Drugs: []entities.Drug{
			{ID: "d1", Name: "Phenytoin", MedicalSystemID: "1"},
			{ID: "d2", Name: "Levetiracetam", MedicalSystemID: "1"},
			{ID: "d3", Name: "Orphan System Drug", MedicalSystemID: "99"},
		},
		Dosages: []entities.DosageBand{
			{ID: "b1", DrugID: "d1", AgeGroup: entities.AgeGroupNeonate, WeightRange: "2-4 kg", Dose: "5-8 mg/kg/day"},
			{ID: "b2", DrugID: "d1", AgeGroup: entities.AgeGroupInfant, WeightRange: "5-10 kg", Dose: "5-8 mg/kg/day"},
			{ID: "b3", DrugID: "d1", AgeGroup: entities.AgeGroupChild, WeightRange: "8-40 kg", Dose: "4-7 mg/kg/day"},
			{ID: "b4", DrugID: "d1", AgeGroup: entities.AgeGroupAdolescent, Dose: "300 mg/day"},
			{ID: "b5", DrugID: "d1", AgeGroup: entities.AgeGroupAdolescent, WeightRange: "heavy", Dose: "300 mg/day"},
			{ID: "b6", DrugID: "d1", AgeGroup: entities.AgeGroupChild, WeightRange: "40-10 kg", Dose: "300 mg/day"},
			{ID: "b7", DrugID: "gone", AgeGroup: entities.AgeGroupChild, WeightRange: "10-40 kg", Dose: "1 mg"},
		},
	}

	report := AuditCatalog(cat, time.Now())
	got := kinds(report)

	expected := map[string]int{
		KindGap:              1, // 4 to 5 kg
		KindOverlap:          1, // 5-10 and 8-40
		KindMissingRange:     1,
		KindUnparseableRange: 1,
		KindInvertedRange:    1,
		KindOrphanBand:       1,
		KindDrugWithoutBands: 2, // Levetiracetam and the orphan system drug
		KindUnknownSystem:    1,
	}
	for kind, want := range expected {
		if got[kind] != want {
			t.Errorf("Expected %d %s issues, got %d (%+v)", want, kind, got[kind], report.Issues)
		}
	}

	if len(report.DrugsWithoutBands) != 2 || report.DrugsWithoutBands[0] != "Levetiracetam" {
		t.Errorf("Unexpected drugs without bands %v", report.DrugsWithoutBands)
	}

	for _, issue := range report.Issues {
		if issue.Kind == KindOverlap {
			if len(issue.BandIDs) != 2 || issue.BandIDs[0] != "b2" || issue.BandIDs[1] != "b3" {
				t.Errorf("Expected overlap between b2 and b3, got %v", issue.BandIDs)
			}
			if !strings.Contains(issue.Detail, "the Infant band is selected") {
				t.Errorf("Expected first-match note in detail, got %q", issue.Detail)
			}
		}
	}
}

func TestAuditCatalogDuplicateIDs(t *testing.T) {
	cat := interfaces.Catalog{
		Systems: []entities.MedicalSystem{{ID: "1"}, {ID: "1"}},
		Drugs: []entities.Drug{
			{ID: "d1", Name: "A", MedicalSystemID: "1"},
			{ID: "d1", Name: "B", MedicalSystemID: "1"},
		},
		Dosages: []entities.DosageBand{{ID: "b1", DrugID: "d1", WeightRange: "2-4 kg", Dose: "1 mg"}},
	}

	if got := kinds(AuditCatalog(cat, time.Now()))[KindDuplicateID]; got != 2 {
		t.Errorf("Expected 2 duplicate id issues, got %d", got)
	}
}

func TestAuditSeededCatalog(t *testing.T) {
	ctx := context.Background()
	store := catalog.NewMemoryStore()
	if _, err := seed.NewSeeder(store).SeedAll(ctx); err != nil {
		t.Fatalf("SeedAll returned error: %v", err)
	}

	snapshot, _ := store.Snapshot(ctx)
	report := AuditCatalog(snapshot, time.Now())

	if report.Drugs != 103 || report.Bands != 275 {
		t.Errorf("Expected 103 drugs and 275 bands, got %d and %d", report.Drugs, report.Bands)
	}
	if report.ComputableBands == 0 {
		t.Error("Expected some computable bands in the seeded catalog")
	}

	got := kinds(report)
	for _, kind := range []string{KindUnparseableRange, KindMissingRange, KindOrphanBand, KindUnknownSystem, KindDuplicateID, KindOverlap} {
		if got[kind] != 0 {
			t.Errorf("Expected no %s issues in seeded catalog, got %d", kind, got[kind])
		}
	}
}
