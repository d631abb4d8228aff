// Package catalog provides the reference data stores for medical systems,
// drugs and dosage bands. MemoryStore keeps everything in process with
// atomic snapshot swaps; PostgresStore persists to a relational database.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/pediatric-drug-calculator/entities"
	"github.com/giygas/pediatric-drug-calculator/interfaces"
	"github.com/giygas/pediatric-drug-calculator/logging"
	"github.com/google/uuid"
)

// Compile-time check to ensure MemoryStore implements ReferenceStore
var _ interfaces.ReferenceStore = (*MemoryStore)(nil)

var (
	// ErrUnknownSystem is returned when a drug references a medical system that was never seeded
	ErrUnknownSystem = errors.New("unknown medical system")
	// ErrInvalidRecord is returned for records missing required fields
	ErrInvalidRecord = errors.New("invalid record")
)

// snapshot is never modified once stored
type snapshot struct {
	systems      []entities.MedicalSystem
	drugs        []entities.Drug
	dosages      []entities.DosageBand
	calculations int
}

// MemoryStore holds the catalog with an atomic pointer for zero-downtime updates.
// Readers never block; writers are serialized and publish a new snapshot.
type MemoryStore struct {
	current     atomic.Value // *snapshot
	writeMu     sync.Mutex
	lastUpdated atomic.Value // time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{}
	ms.current.Store(&snapshot{})
	ms.lastUpdated.Store(time.Time{})
	return ms
}

func (ms *MemoryStore) load() *snapshot {
	if v := ms.current.Load(); v != nil {
		if snap, ok := v.(*snapshot); ok {
			return snap
		}
	}

	logging.Warn("Catalog snapshot is empty or invalid")
	return &snapshot{}
}

// LastUpdated returns the time of the last write
func (ms *MemoryStore) LastUpdated() time.Time {
	if v, ok := ms.lastUpdated.Load().(time.Time); ok {
		return v
	}
	return time.Time{}
}

// ListSystems returns the medical systems in insertion order
func (ms *MemoryStore) ListSystems(ctx context.Context) ([]entities.MedicalSystem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := ms.load()
	out := make([]entities.MedicalSystem, len(snap.systems))
	copy(out, snap.systems)
	return out, nil
}

// ListDrugsBySystem returns the drugs of one system in insertion order
func (ms *MemoryStore) ListDrugsBySystem(ctx context.Context, systemID string) ([]entities.Drug, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]entities.Drug, 0)
	for _, d := range ms.load().drugs {
		if d.MedicalSystemID == systemID {
			out = append(out, d)
		}
	}
	return out, nil
}

// ListDosagesByDrug returns the dosage bands of one drug in insertion order
func (ms *MemoryStore) ListDosagesByDrug(ctx context.Context, drugID string) ([]entities.DosageBand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]entities.DosageBand, 0)
	for _, b := range ms.load().dosages {
		if b.DrugID == drugID {
			out = append(out, b)
		}
	}
	return out, nil
}

// Snapshot returns a copy of the whole catalog
func (ms *MemoryStore) Snapshot(ctx context.Context) (interfaces.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return interfaces.Catalog{}, err
	}
	snap := ms.load()
	return interfaces.Catalog{
		Systems: append([]entities.MedicalSystem(nil), snap.systems...),
		Drugs:   append([]entities.Drug(nil), snap.drugs...),
		Dosages: append([]entities.DosageBand(nil), snap.dosages...),
	}, nil
}

// Stats returns row counts
func (ms *MemoryStore) Stats(ctx context.Context) (interfaces.StoreStats, error) {
	if err := ctx.Err(); err != nil {
		return interfaces.StoreStats{}, err
	}
	snap := ms.load()
	return interfaces.StoreStats{
		Systems:      len(snap.systems),
		Drugs:        len(snap.drugs),
		Dosages:      len(snap.dosages),
		Calculations: snap.calculations,
	}, nil
}

// Ping always succeeds for the in-memory store
func (ms *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Reset drops every drug, dosage band and calculation and replaces the
// medical systems.
func (ms *MemoryStore) Reset(ctx context.Context, systems []entities.MedicalSystem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, s := range systems {
		if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: medical system requires id and name", ErrInvalidRecord)
		}
	}

	ms.writeMu.Lock()
	defer ms.writeMu.Unlock()

	ms.current.Store(&snapshot{
		systems: append([]entities.MedicalSystem(nil), systems...),
	})
	ms.lastUpdated.Store(time.Now())
	return nil
}

// CreateDrug inserts a drug and its dosage bands, assigning fresh ids.
func (ms *MemoryStore) CreateDrug(ctx context.Context, drug entities.Drug, dosages []entities.DosageBand) (entities.Drug, []entities.DosageBand, error) {
	if err := ctx.Err(); err != nil {
		return entities.Drug{}, nil, err
	}
	if err := validateDrug(drug, dosages); err != nil {
		return entities.Drug{}, nil, err
	}

	ms.writeMu.Lock()
	defer ms.writeMu.Unlock()

	prev := ms.load()
	if !hasSystem(prev.systems, drug.MedicalSystemID) {
		return entities.Drug{}, nil, fmt.Errorf("%w: %q", ErrUnknownSystem, drug.MedicalSystemID)
	}

	drug.ID = uuid.NewString()
	bands := make([]entities.DosageBand, len(dosages))
	for i, b := range dosages {
		b.ID = uuid.NewString()
		b.DrugID = drug.ID
		bands[i] = b
	}

	next := &snapshot{
		systems:      prev.systems,
		drugs:        make([]entities.Drug, 0, len(prev.drugs)+1),
		dosages:      make([]entities.DosageBand, 0, len(prev.dosages)+len(bands)),
		calculations: prev.calculations,
	}
	next.drugs = append(append(next.drugs, prev.drugs...), drug)
	next.dosages = append(append(next.dosages, prev.dosages...), bands...)

	// Atomic swap
	ms.current.Store(next)
	ms.lastUpdated.Store(time.Now())

	out := make([]entities.DosageBand, len(bands))
	copy(out, bands)
	return drug, out, nil
}

func hasSystem(systems []entities.MedicalSystem, id string) bool {
	for _, s := range systems {
		if s.ID == id {
			return true
		}
	}
	return false
}

func validateDrug(drug entities.Drug, dosages []entities.DosageBand) error {
	if strings.TrimSpace(drug.Name) == "" {
		return fmt.Errorf("%w: drug name is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(drug.MedicalSystemID) == "" {
		return fmt.Errorf("%w: drug %q has no medical system", ErrInvalidRecord, drug.Name)
	}
	for i, b := range dosages {
		if b.AgeGroup == "" || strings.TrimSpace(b.Dose) == "" {
			return fmt.Errorf("%w: dosage %d of %q requires age group and dose", ErrInvalidRecord, i, drug.Name)
		}
	}
	return nil
}
