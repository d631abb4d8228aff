package interfaces

import (
	"testing"
)

func TestCountByKind(t *testing.T) {
	tests := []struct {
		name     string
		issues   []AuditIssue
		expected map[string]int
	}{
		{"no issues", nil, map[string]int{}},
		{
			"grouped by kind",
			[]AuditIssue{
				{Kind: "overlap", DrugName: "Amoxicillin"},
				{Kind: "gap", DrugName: "Amoxicillin"},
				{Kind: "overlap", DrugName: "Ibuprofen"},
			},
			map[string]int{"overlap": 2, "gap": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &CatalogAuditReport{Issues: tt.issues}
			got := report.CountByKind()

			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d kinds, got %d: %v", len(tt.expected), len(got), got)
			}
			for kind, n := range tt.expected {
				if got[kind] != n {
					t.Errorf("Expected %d %s issues, got %d", n, kind, got[kind])
				}
			}
		})
	}
}
