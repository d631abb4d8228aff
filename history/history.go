// Package history keeps the capped, newest-first log of successful dose
// calculations. The log holds at most MaxEntries records; older entries are
// evicted in FIFO order and identical calculations are not deduplicated.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giygas/pediatric-drug-calculator/entities"
	"github.com/giygas/pediatric-drug-calculator/interfaces"
	"github.com/giygas/pediatric-drug-calculator/logging"
	"github.com/google/uuid"
)

// Compile-time check to ensure History implements CalculationHistory
var _ interfaces.CalculationHistory = (*History)(nil)

const (
	// MaxEntries is the number of calculations retained
	MaxEntries = 10
	// StorageKey is the key the log is persisted under
	StorageKey = "recentCalculations"
)

// ErrPersistenceUnavailable means the backing storage could not be read or written.
// Callers treat it as non-fatal.
var ErrPersistenceUnavailable = errors.New("calculation history persistence unavailable")

// Backend persists the ordered log
type Backend interface {
	// Prepend stores rec as the newest entry and keeps at most limit entries
	Prepend(ctx context.Context, rec entities.CalculationRecord, limit int) error
	// Load returns the entries newest first
	Load(ctx context.Context) ([]entities.CalculationRecord, error)
}

// History stamps records and hands them to a Backend
type History struct {
	backend Backend
	now     func() time.Time
	newID   func() (string, error)
}

// Option customizes a History
type Option func(*History)

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(h *History) { h.now = now }
}

// WithIDGenerator overrides the id source
func WithIDGenerator(newID func() (string, error)) Option {
	return func(h *History) { h.newID = newID }
}

// New creates a History over backend. Ids are UUIDv7, so they sort by
// creation time.
func New(backend Backend, opts ...Option) *History {
	h := &History{
		backend: backend,
		now:     time.Now,
		newID: func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Record stamps entry with an id and the current time and prepends it to the
// log. The stamped record is returned even when persisting fails.
func (h *History) Record(ctx context.Context, entry entities.CalculationRecord) (entities.CalculationRecord, error) {
	id, err := h.newID()
	if err != nil {
		return entities.CalculationRecord{}, fmt.Errorf("failed to generate calculation id: %w", err)
	}
	entry.ID = id
	entry.Timestamp = h.now().UTC()

	if err := h.backend.Prepend(ctx, entry, MaxEntries); err != nil {
		logging.Warn("Failed to persist calculation", "drug", entry.DrugName, "error", err)
		return entry, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	return entry, nil
}

// List returns the retained calculations, newest first
func (h *History) List(ctx context.Context) ([]entities.CalculationRecord, error) {
	records, err := h.backend.Load(ctx)
	if err != nil {
		logging.Warn("Failed to load calculation history", "error", err)
		return []entities.CalculationRecord{}, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	if records == nil {
		records = []entities.CalculationRecord{}
	}
	if len(records) > MaxEntries {
		records = records[:MaxEntries]
	}
	return records, nil
}

// prepend returns a new slice with rec first and at most limit entries
func prepend(records []entities.CalculationRecord, rec entities.CalculationRecord, limit int) []entities.CalculationRecord {
	out := make([]entities.CalculationRecord, 0, limit)
	out = append(out, rec)
	for _, r := range records {
		if len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out
}
