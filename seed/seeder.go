// Package seed loads the literal reference data (medical systems and the
// drugs of five body systems with their dosage bands) into a ReferenceStore.
package seed

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/giygas/pediatric-drug-calculator/entities"
	"github.com/giygas/pediatric-drug-calculator/interfaces"
	"github.com/giygas/pediatric-drug-calculator/logging"
	"github.com/giygas/pediatric-drug-calculator/metrics"
)

//go:embed data/*.json
var dataFS embed.FS

// ErrUnknownBodySystem is returned for a body system without seed data
var ErrUnknownBodySystem = errors.New("unknown body system")

// SystemsMessage is reported after the medical systems are reloaded
const SystemsMessage = "Medical systems seeded successfully"

// DrugSeed is one literal drug with its dosage bands
type DrugSeed struct {
	entities.Drug
	Dosages []entities.DosageBand `json:"dosages"`
}

// Result summarizes one body system seed
type Result struct {
	BodySystem     string `json:"-"`
	Message        string `json:"message"`
	DrugsCreated   int    `json:"drugsCreated"`
	DosagesCreated int    `json:"dosagesCreated"`
}

// Seeder writes the literal data into a store
type Seeder struct {
	store interfaces.ReferenceStore
}

// NewSeeder creates a seeder for store
func NewSeeder(store interfaces.ReferenceStore) *Seeder {
	return &Seeder{store: store}
}

// LoadBodySystem decodes the embedded drugs of a body system
func LoadBodySystem(name string) ([]DrugSeed, error) {
	bs, ok := LookupBodySystem(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBodySystem, name)
	}

	raw, err := dataFS.ReadFile(bs.File)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", bs.File, err)
	}

	var drugs []DrugSeed
	if err := json.Unmarshal(raw, &drugs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", bs.File, err)
	}
	return drugs, nil
}

// SeedSystems clears drugs, dosages, calculations and medical systems and
// reloads the 18 medical systems. It returns the number of systems inserted.
func (s *Seeder) SeedSystems(ctx context.Context) (int, error) {
	if err := s.store.Reset(ctx, MedicalSystems); err != nil {
		logging.Error("Error seeding medical systems", "error", err)
		return 0, fmt.Errorf("failed to seed medical systems: %w", err)
	}

	metrics.SeedRowsInserted.WithLabelValues("systems", "medical_systems").Add(float64(len(MedicalSystems)))
	logging.Info(SystemsMessage, "count", len(MedicalSystems))
	return len(MedicalSystems), nil
}

// SeedBodySystem inserts every drug of the named body system with its bands.
// It is not idempotent: running it twice duplicates the drugs. Each drug is
// written atomically with its bands; on failure the counts of what was
// already written are returned with the error.
func (s *Seeder) SeedBodySystem(ctx context.Context, name string) (Result, error) {
	bs, ok := LookupBodySystem(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownBodySystem, name)
	}

	drugs, err := LoadBodySystem(name)
	if err != nil {
		return Result{}, err
	}

	res := Result{BodySystem: bs.Name, Message: bs.Message}
	for _, d := range drugs {
		_, bands, err := s.store.CreateDrug(ctx, d.Drug, d.Dosages)
		if err != nil {
			logging.Error("Error seeding "+bs.Label+" drugs", "drug", d.Name, "error", err)
			s.record(res)
			return res, fmt.Errorf("failed to seed %s drugs: %w", bs.Label, err)
		}
		res.DrugsCreated++
		res.DosagesCreated += len(bands)
	}

	s.record(res)
	logging.Info(bs.Message, "drugs_created", res.DrugsCreated, "dosages_created", res.DosagesCreated)
	return res, nil
}

// SeedAll reloads the medical systems and then every body system
func (s *Seeder) SeedAll(ctx context.Context) ([]Result, error) {
	if _, err := s.SeedSystems(ctx); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(BodySystems))
	for _, bs := range BodySystems {
		res, err := s.SeedBodySystem(ctx, bs.Name)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// SeedIfEmpty runs SeedAll when the store holds no medical systems.
// It reports whether seeding happened.
func (s *Seeder) SeedIfEmpty(ctx context.Context) (bool, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read store stats: %w", err)
	}
	if stats.Systems > 0 {
		logging.Debug("Catalog already seeded", "systems", stats.Systems)
		return false, nil
	}

	if _, err := s.SeedAll(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Seeder) record(res Result) {
	metrics.SeedRowsInserted.WithLabelValues(res.BodySystem, "drugs").Add(float64(res.DrugsCreated))
	metrics.SeedRowsInserted.WithLabelValues(res.BodySystem, "dosages").Add(float64(res.DosagesCreated))
}
