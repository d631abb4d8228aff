// Package lookup answers the read-side questions of the calculator: which
// medical systems exist, which drugs belong to a system and which dosage
// bands belong to a drug.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/giygas/pediatric-drug-calculator/entities"
	"github.com/giygas/pediatric-drug-calculator/interfaces"
	"github.com/giygas/pediatric-drug-calculator/logging"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	// ErrInvalidArgument is returned for a missing or blank id
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStorageUnavailable hides the underlying store failure from callers
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Service filters the reference store by foreign key and applies display ordering
type Service struct {
	store interfaces.ReferenceStore
}

// NewService creates a lookup service over store
func NewService(store interfaces.ReferenceStore) *Service {
	return &Service{store: store}
}

// DosageBands returns the bands of a drug ordered Neonate, Infant, Child,
// Adolescent. Bands of the same age group keep their store order.
func (s *Service) DosageBands(ctx context.Context, drugID string) ([]entities.DosageBand, error) {
	drugID = strings.TrimSpace(drugID)
	if drugID == "" {
		return nil, fmt.Errorf("%w: Drug ID is required", ErrInvalidArgument)
	}

	bands, err := s.store.ListDosagesByDrug(ctx, drugID)
	if err != nil {
		logging.Error("Failed to fetch dosages", "drug_id", drugID, "error", err)
		return nil, fmt.Errorf("%w: Failed to fetch dosages", ErrStorageUnavailable)
	}

	sort.SliceStable(bands, func(i, j int) bool {
		return bands[i].AgeGroup.Rank() < bands[j].AgeGroup.Rank()
	})
	return bands, nil
}

// Drugs returns the drugs of a medical system ordered by name,
// case-insensitively.
func (s *Service) Drugs(ctx context.Context, systemID string) ([]entities.Drug, error) {
	systemID = strings.TrimSpace(systemID)
	if systemID == "" {
		return nil, fmt.Errorf("%w: System ID is required", ErrInvalidArgument)
	}

	drugs, err := s.store.ListDrugsBySystem(ctx, systemID)
	if err != nil {
		logging.Error("Failed to fetch drugs", "system_id", systemID, "error", err)
		return nil, fmt.Errorf("%w: Failed to fetch drugs", ErrStorageUnavailable)
	}

	SortDrugsByName(drugs)
	return drugs, nil
}

// Systems returns every medical system ordered by numeric id
func (s *Service) Systems(ctx context.Context) ([]entities.MedicalSystem, error) {
	systems, err := s.store.ListSystems(ctx)
	if err != nil {
		logging.Error("Failed to fetch medical systems", "error", err)
		return nil, fmt.Errorf("%w: Failed to fetch medical systems", ErrStorageUnavailable)
	}

	sort.SliceStable(systems, func(i, j int) bool {
		return systemOrder(systems[i].ID, systems[j].ID)
	})
	return systems, nil
}

// Drug finds a drug of the given system by id
func (s *Service) Drug(ctx context.Context, systemID, drugID string) (entities.Drug, bool, error) {
	drugs, err := s.Drugs(ctx, systemID)
	if err != nil {
		return entities.Drug{}, false, err
	}
	for _, d := range drugs {
		if d.ID == drugID {
			return d, true, nil
		}
	}
	return entities.Drug{}, false, nil
}

// SortDrugsByName sorts in place with an English case-insensitive collator.
// A collator is not safe for concurrent use, so one is built per call.
func SortDrugsByName(drugs []entities.Drug) {
	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(drugs, func(i, j int) bool {
		return c.CompareString(drugs[i].Name, drugs[j].Name) < 0
	})
}

// numeric ids first, in numeric order, then everything else lexically
func systemOrder(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
