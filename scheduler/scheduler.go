// Package scheduler runs the periodic dosage catalog audit. It snapshots the
// reference store, reports authoring problems through the logs and the
// catalog_audit_issues gauges, and keeps the last report for /health.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/pediatric-drug-calculator/interfaces"
	"github.com/giygas/pediatric-drug-calculator/logging"
	"github.com/giygas/pediatric-drug-calculator/metrics"
	"github.com/giygas/pediatric-drug-calculator/validation"
	"github.com/go-co-op/gocron"
)

// Compile-time checks
var (
	_ interfaces.Scheduler   = (*Scheduler)(nil)
	_ interfaces.AuditSource = (*Scheduler)(nil)
)

const (
	DefaultInterval = 6 * time.Hour
	auditTimeout    = 30 * time.Second
)

// Scheduler audits the catalog on a fixed interval
type Scheduler struct {
	store     interfaces.ReferenceStore
	interval  time.Duration
	scheduler *gocron.Scheduler
	job       *gocron.Job
	now       func() time.Time

	mu      sync.RWMutex
	last    *interfaces.CatalogAuditReport
	running atomic.Bool
	stop    chan struct{}
}

// NewScheduler creates a scheduler auditing store every interval.
// A non-positive interval falls back to DefaultInterval.
func NewScheduler(store interfaces.ReferenceStore, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		store:     store,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.Local),
		now:       time.Now,
		stop:      make(chan struct{}),
	}
}

// Start runs a first audit and schedules the following ones
func (s *Scheduler) Start() error {
	// A failed first audit is not fatal: the store may still be empty or
	// warming up and the next run will retry.
	if _, err := s.RunAudit(context.Background()); err != nil {
		logging.Error("Initial catalog audit failed", "error", err)
	}

	job, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		if _, err := s.RunAudit(context.Background()); err != nil {
			logging.Error("Catalog audit failed", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule catalog audit", "error", err)
		return fmt.Errorf("failed to schedule catalog audit: %w", err)
	}
	s.job = job

	s.scheduler.StartAsync()
	s.startStalenessWatch()

	logging.Info("Catalog audit scheduled", "interval", s.interval.String())
	return nil
}

// Stop stops the scheduled audits and the staleness watch
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

// LastReport returns the most recent audit, or nil before the first one
func (s *Scheduler) LastReport() *interfaces.CatalogAuditReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// NextRun returns the time of the next scheduled audit, zero when not started
func (s *Scheduler) NextRun() time.Time {
	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}

// RunAudit audits the current catalog once. Concurrent calls are skipped and
// return the previous report.
func (s *Scheduler) RunAudit(ctx context.Context) (*interfaces.CatalogAuditReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		logging.Info("Catalog audit already in progress, skipping...")
		return s.LastReport(), nil
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, auditTimeout)
	defer cancel()

	start := time.Now()
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot catalog: %w", err)
	}

	report := validation.AuditCatalog(snapshot, s.now())
	counts := report.CountByKind()

	for _, kind := range validation.IssueKinds {
		if counts[kind] == 0 {
			continue
		}
		var drugs []string
		for _, issue := range report.Issues {
			if issue.Kind == kind && issue.DrugName != "" {
				drugs = append(drugs, issue.DrugName)
			}
		}
		logging.Warn("Catalog audit issue", "kind", kind, "count", counts[kind], "drugs", drugs)
	}

	metrics.ObserveAudit(counts, validation.IssueKinds, float64(report.GeneratedAt.Unix()))

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	logging.Info("Catalog audit completed",
		"duration", time.Since(start).String(),
		"drugs", report.Drugs,
		"bands", report.Bands,
		"computable_bands", report.ComputableBands,
		"issues", len(report.Issues),
	)
	return report, nil
}

// startStalenessWatch warns when no audit completed for two intervals
func (s *Scheduler) startStalenessWatch() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				last := s.LastReport()
				if last == nil || s.now().Sub(last.GeneratedAt) > 2*s.interval {
					logging.Warn("Catalog has not been audited recently", "interval", s.interval.String())
				}
			}
		}
	}()
}
