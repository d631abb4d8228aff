// Package validation checks request input and audits the authored dosage
// catalog for problems that make band selection ambiguous or impossible.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/giygas/pediatric-drug-calculator/dosage"
	"github.com/giygas/pediatric-drug-calculator/entities"
	"github.com/giygas/pediatric-drug-calculator/interfaces"
)

// Pre-compiled patterns, compiled once at package initialization
var idRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

const maxIDLength = 64

// ValidateID checks a system or drug id taken from a query string
func ValidateID(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if len(trimmed) > maxIDLength {
		return fmt.Errorf("input too long: maximum %d characters", maxIDLength)
	}

	if !idRegex.MatchString(trimmed) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, hyphens and underscores are allowed")
	}

	return nil
}

// Audit issue kinds
const (
	KindMissingRange     = "missing_weight_range"
	KindUnparseableRange = "unparseable_weight_range"
	KindInvertedRange    = "inverted_weight_range"
	KindOverlap          = "overlapping_weight_ranges"
	KindGap              = "weight_coverage_gap"
	KindDrugWithoutBands = "drug_without_bands"
	KindOrphanBand       = "orphan_band"
	KindUnknownSystem    = "unknown_medical_system"
	KindDuplicateID      = "duplicate_id"
)

// IssueKinds lists every kind the audit can report
var IssueKinds = []string{
	KindMissingRange,
	KindUnparseableRange,
	KindInvertedRange,
	KindOverlap,
	KindGap,
	KindDrugWithoutBands,
	KindOrphanBand,
	KindUnknownSystem,
	KindDuplicateID,
}

type parsedBand struct {
	band  entities.DosageBand
	rng   dosage.WeightRange
	upper float64
}

// AuditCatalog reports authoring problems in the catalog. It never changes
// the data: overlapping bands are reported, not resolved, because band
// selection is first-match-wins in authored order.
func AuditCatalog(catalog interfaces.Catalog, now time.Time) *interfaces.CatalogAuditReport {
	report := &interfaces.CatalogAuditReport{
		GeneratedAt:       now,
		Drugs:             len(catalog.Drugs),
		Bands:             len(catalog.Dosages),
		DrugsWithoutBands: []string{},
		Issues:            []interfaces.AuditIssue{},
	}

	// Check 1: referential integrity and duplicate ids
	systems := make(map[string]bool, len(catalog.Systems))
	for _, m := range catalog.Systems {
		if systems[m.ID] {
			report.Issues = append(report.Issues, interfaces.AuditIssue{
				Kind:   KindDuplicateID,
				Detail: fmt.Sprintf("medical system id %q is used more than once", m.ID),
			})
		}
		systems[m.ID] = true
	}

	drugs := make(map[string]entities.Drug, len(catalog.Drugs))
	for _, d := range catalog.Drugs {
		if _, dup := drugs[d.ID]; dup {
			report.Issues = append(report.Issues, interfaces.AuditIssue{
				Kind: KindDuplicateID, DrugID: d.ID, DrugName: d.Name,
				Detail: fmt.Sprintf("drug id %q is used more than once", d.ID),
			})
		}
		drugs[d.ID] = d
		if !systems[d.MedicalSystemID] {
			report.Issues = append(report.Issues, interfaces.AuditIssue{
				Kind: KindUnknownSystem, DrugID: d.ID, DrugName: d.Name,
				Detail: fmt.Sprintf("medical system %q does not exist", d.MedicalSystemID),
			})
		}
	}

	// Check 2: per band range parsing, grouped by drug in authored order
	byDrug := make(map[string][]parsedBand)
	for _, b := range catalog.Dosages {
		if _, err := dosage.ComputeDose(1, b.Dose); err == nil {
			report.ComputableBands++
		}

		d, ok := drugs[b.DrugID]
		if !ok {
			report.Issues = append(report.Issues, interfaces.AuditIssue{
				Kind: KindOrphanBand, DrugID: b.DrugID, BandIDs: []string{b.ID},
				Detail: "dosage band references a missing drug",
			})
			continue
		}

		if strings.TrimSpace(b.WeightRange) == "" {
			report.Issues = append(report.Issues, interfaces.AuditIssue{
				Kind: KindMissingRange, DrugID: d.ID, DrugName: d.Name, BandIDs: []string{b.ID},
				Detail: fmt.Sprintf("%s band has no weight range and can never be selected", b.AgeGroup),
			})
			continue
		}

		rng, ok := dosage.ParseWeightRange(b.WeightRange)
		if !ok {
			report.Issues = append(report.Issues, interfaces.AuditIssue{
				Kind: KindUnparseableRange, DrugID: d.ID, DrugName: d.Name, BandIDs: []string{b.ID},
				Detail: fmt.Sprintf("weight range %q is not recognized", b.WeightRange),
			})
			continue
		}

		if !rng.OpenEnded && rng.Min > rng.Max {
			report.Issues = append(report.Issues, interfaces.AuditIssue{
				Kind: KindInvertedRange, DrugID: d.ID, DrugName: d.Name, BandIDs: []string{b.ID},
				Detail: fmt.Sprintf("weight range %q has min above max", b.WeightRange),
			})
			continue
		}

		upper := rng.Max
		if rng.OpenEnded {
			upper = math.Inf(1)
		}
		byDrug[d.ID] = append(byDrug[d.ID], parsedBand{band: b, rng: rng, upper: upper})
	}

	// Check 3: drugs without bands, overlaps and gaps
	for _, d := range catalog.Drugs {
		bands := byDrug[d.ID]
		if len(bands) == 0 {
			if !hasAnyBand(catalog.Dosages, d.ID) {
				report.DrugsWithoutBands = append(report.DrugsWithoutBands, d.Name)
				report.Issues = append(report.Issues, interfaces.AuditIssue{
					Kind: KindDrugWithoutBands, DrugID: d.ID, DrugName: d.Name,
					Detail: "drug has no dosage bands",
				})
			}
			continue
		}
		report.Issues = append(report.Issues, overlapIssues(d, bands)...)
		report.Issues = append(report.Issues, gapIssues(d, bands)...)
	}

	return report
}

// overlapIssues reports pairs of bands sharing more than a boundary point
func overlapIssues(d entities.Drug, bands []parsedBand) []interfaces.AuditIssue {
	var issues []interfaces.AuditIssue
	for i := 0; i < len(bands); i++ {
		for j := i + 1; j < len(bands); j++ {
			a, b := bands[i], bands[j]
			low := math.Max(a.rng.Min, b.rng.Min)
			high := math.Min(a.upper, b.upper)
			if low >= high {
				continue
			}
			issues = append(issues, interfaces.AuditIssue{
				Kind:     KindOverlap,
				DrugID:   d.ID,
				DrugName: d.Name,
				BandIDs:  []string{a.band.ID, b.band.ID},
				Detail: fmt.Sprintf("%s (%s) and %s (%s) overlap; the %s band is selected",
					a.band.AgeGroup, a.band.WeightRange, b.band.AgeGroup, b.band.WeightRange, a.band.AgeGroup),
			})
		}
	}
	return issues
}

// gapIssues reports weights between the lowest and highest authored bound
// that no band covers
func gapIssues(d entities.Drug, bands []parsedBand) []interfaces.AuditIssue {
	sorted := make([]parsedBand, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].rng.Min < sorted[j].rng.Min })

	var issues []interfaces.AuditIssue
	covered := sorted[0].upper
	for _, b := range sorted[1:] {
		if b.rng.Min > covered {
			issues = append(issues, interfaces.AuditIssue{
				Kind:     KindGap,
				DrugID:   d.ID,
				DrugName: d.Name,
				Detail: fmt.Sprintf("no band covers weights between %s and %s kg",
					trimNumber(covered), trimNumber(b.rng.Min)),
			})
		}
		covered = math.Max(covered, b.upper)
	}
	return issues
}

func hasAnyBand(bands []entities.DosageBand, drugID string) bool {
	for _, b := range bands {
		if b.DrugID == drugID {
			return true
		}
	}
	return false
}

func trimNumber(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
