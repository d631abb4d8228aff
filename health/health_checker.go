// Package health reports the state of the reference store and the last
// catalog audit for the /health endpoint.
package health

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/giygas/pediatric-drug-calculator/interfaces"
	"github.com/giygas/pediatric-drug-calculator/logging"
)

const pingTimeout = 2 * time.Second

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store         interfaces.ReferenceStore
	audits        interfaces.AuditSource
	auditInterval time.Duration
	startedAt     time.Time
	now           func() time.Time
}

// NewHealthChecker creates a health checker. audits may be nil when no
// scheduler runs; auditInterval bounds how old the last audit may get.
func NewHealthChecker(store interfaces.ReferenceStore, audits interfaces.AuditSource, auditInterval time.Duration) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		store:         store,
		audits:        audits,
		auditInterval: auditInterval,
		startedAt:     time.Now(),
		now:           time.Now,
	}
}

// HealthCheck returns the health status, response data and HTTP status
func (h *HealthCheckerImpl) HealthCheck(ctx context.Context) (status string, data map[string]any, httpStatus int) {
	now := h.now()
	data = map[string]any{
		"uptime_hours": math.Round(now.Sub(h.startedAt).Hours()*10) / 10,
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logging.Error("Health check: store ping failed", "error", err)
		data["store"] = "unreachable"
		return "unhealthy", data, http.StatusServiceUnavailable
	}
	data["store"] = "ok"

	stats, err := h.store.Stats(ctx)
	if err != nil {
		logging.Error("Health check: store stats failed", "error", err)
		data["store"] = "unreachable"
		return "unhealthy", data, http.StatusServiceUnavailable
	}
	data["data"] = map[string]any{
		"systems":      stats.Systems,
		"drugs":        stats.Drugs,
		"dosages":      stats.Dosages,
		"calculations": stats.Calculations,
	}

	auditStale := false
	if h.audits != nil {
		if report := h.audits.LastReport(); report != nil {
			age := now.Sub(report.GeneratedAt)
			data["audit"] = map[string]any{
				"last_run":         report.GeneratedAt.Format(time.RFC3339),
				"age_hours":        math.Round(age.Hours()*10) / 10,
				"issues":           report.CountByKind(),
				"computable_bands": report.ComputableBands,
			}
			auditStale = h.auditInterval > 0 && age > 2*h.auditInterval
		} else {
			data["audit"] = nil
		}
	}

	switch {
	case stats.Systems == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case stats.Drugs == 0 || stats.Dosages == 0:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case auditStale:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return status, data, httpStatus
}
