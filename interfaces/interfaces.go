// Package interfaces defines core abstractions for the pediatric drug calculator
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/pediatric-drug-calculator/entities"
)

// Catalog is a full copy of the reference data at one point in time.
type Catalog struct {
	Systems []entities.MedicalSystem
	Drugs   []entities.Drug
	Dosages []entities.DosageBand
}

// StoreStats holds row counts of the reference data store
type StoreStats struct {
	Systems      int `json:"systems"`
	Drugs        int `json:"drugs"`
	Dosages      int `json:"dosages"`
	Calculations int `json:"calculations"`
}

// ReferenceStore defines the contract for the relational reference data store.
// Medical systems, drugs and dosage bands are only created by seeding; there
// is no update or delete path besides Reset.
type ReferenceStore interface {
	// Read side
	ListSystems(ctx context.Context) ([]entities.MedicalSystem, error)
	ListDrugsBySystem(ctx context.Context, systemID string) ([]entities.Drug, error)
	ListDosagesByDrug(ctx context.Context, drugID string) ([]entities.DosageBand, error)
	Snapshot(ctx context.Context) (Catalog, error)
	Stats(ctx context.Context) (StoreStats, error)
	Ping(ctx context.Context) error

	// Seeding
	Reset(ctx context.Context, systems []entities.MedicalSystem) error
	CreateDrug(ctx context.Context, drug entities.Drug, dosages []entities.DosageBand) (entities.Drug, []entities.DosageBand, error)
}

// CalculationHistory defines the contract for the capped, most-recent-first
// log of successful calculations.
type CalculationHistory interface {
	Record(ctx context.Context, entry entities.CalculationRecord) (entities.CalculationRecord, error)
	List(ctx context.Context) ([]entities.CalculationRecord, error)
}

// Notification is a short message pushed to the user after a calculation.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
}

// Notifier sends user notifications. Implementations may be no-ops.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// AuditIssue is a single authoring problem found in the catalog
type AuditIssue struct {
	Kind     string   `json:"kind"`
	DrugID   string   `json:"drugId"`
	DrugName string   `json:"drugName"`
	BandIDs  []string `json:"bandIds,omitempty"`
	Detail   string   `json:"detail"`
}

// CatalogAuditReport provides a summary of dosage band authoring issues
type CatalogAuditReport struct {
	GeneratedAt       time.Time    `json:"generatedAt"`
	Drugs             int          `json:"drugs"`
	Bands             int          `json:"bands"`
	ComputableBands   int          `json:"computableBands"` // dose text matches "<a>-<b> mg/kg/day"
	DrugsWithoutBands []string     `json:"drugsWithoutBands"`
	Issues            []AuditIssue `json:"issues"`
}

// CountByKind groups the issues of the report by kind
func (r *CatalogAuditReport) CountByKind() map[string]int {
	counts := make(map[string]int)
	for _, issue := range r.Issues {
		counts[issue.Kind]++
	}
	return counts
}

// Scheduler defines the contract for job scheduling and health monitoring.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// AuditSource exposes the most recent catalog audit
type AuditSource interface {
	LastReport() *CatalogAuditReport
}

// HealthChecker defines the contract for health check functionality.
// It provides system health monitoring and reporting.
type HealthChecker interface {
	// HealthCheck returns current system health status, response data and HTTP status
	HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int)
}

// HTTPHandler defines the contract for the HTTP endpoints of the calculator
type HTTPHandler interface {
	// Lookup
	ServeSystems(w http.ResponseWriter, r *http.Request)
	ServeDrugs(w http.ResponseWriter, r *http.Request)
	ServeDosages(w http.ResponseWriter, r *http.Request)

	// Calculation
	Calculate(w http.ResponseWriter, r *http.Request)

	// Seeding
	SeedSystems(w http.ResponseWriter, r *http.Request)
	SeedBodySystem(w http.ResponseWriter, r *http.Request)

	ExportCatalog(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}
