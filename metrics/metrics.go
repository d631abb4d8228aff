// Package metrics provides Prometheus metrics for the calculator API.
// HTTP traffic:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Domain:
//   - dose_calculations_total: Counter by outcome (computed, unparsed, no_band, invalid_weight)
//   - catalog_audit_issues: Gauge by issue kind, refreshed by the scheduled audit
//   - seed_rows_inserted_total: Counter by body system and table
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	DoseCalculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dose_calculations_total",
			Help: "Dose calculations by outcome",
		},
		[]string{"outcome"},
	)

	CatalogAuditIssues = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_audit_issues",
			Help: "Dosage catalog authoring issues found by the last audit",
		},
		[]string{"kind"},
	)

	CatalogAuditLastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_audit_last_run_timestamp_seconds",
			Help: "Unix time of the last completed catalog audit",
		},
	)

	SeedRowsInserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seed_rows_inserted_total",
			Help: "Reference rows inserted by seeding",
		},
		[]string{"body_system", "table"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(DoseCalculations)
	prometheus.MustRegister(CatalogAuditIssues)
	prometheus.MustRegister(CatalogAuditLastRun)
	prometheus.MustRegister(SeedRowsInserted)
}

// ObserveAudit replaces the audit gauges with the given per-kind counts.
// Kinds missing from counts are reset to zero.
func ObserveAudit(counts map[string]int, kinds []string, ranAt float64) {
	for _, kind := range kinds {
		CatalogAuditIssues.WithLabelValues(kind).Set(float64(counts[kind]))
	}
	CatalogAuditLastRun.Set(ranAt)
}
