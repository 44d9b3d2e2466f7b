// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Collection metrics
	TokensCollected prometheus.Counter
	TokensSkipped   *prometheus.CounterVec

	// Fetch metrics
	FetchLatency *prometheus.HistogramVec
	FetchErrors  *prometheus.CounterVec

	// Scoring metrics
	TokensScored      *prometheus.CounterVec
	ScoreDistribution *prometheus.HistogramVec
	ImminentTokens    *prometheus.GaugeVec

	// Pipeline metrics
	BatchRunsTotal *prometheus.CounterVec
	BatchDuration  *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulScan prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "graduation_lab"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		TokensCollected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "tokens_collected_total",
			Help:      "Total number of token snapshots collected inside the window",
		}),
		TokensSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "tokens_skipped_total",
			Help:      "Total number of tokens skipped during a scan by reason",
		}, []string{"reason"}),

		FetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "latency_seconds",
			Help:      "Market data request latency including retries",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "errors_total",
			Help:      "Total number of failed market data requests",
		}, []string{"endpoint"}),

		TokensScored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "tokens_scored_total",
			Help:      "Total number of score records produced by variant",
		}, []string{"variant"}),
		ScoreDistribution: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "total_score",
			Help:      "Distribution of total scores by variant",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}, []string{"variant"}),
		ImminentTokens: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "imminent_tokens",
			Help:      "Number of imminent-graduation alerts in the last batch",
		}, []string{"variant"}),

		BatchRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "batch_runs_total",
			Help:      "Total number of batch runs by phase and status",
		}, []string{"phase", "status"}),
		BatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "batch_duration_seconds",
			Help:      "Batch run duration by phase",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"phase"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database write duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulScan: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scan_timestamp",
			Help:      "Unix timestamp of last successful scan",
		}),
	}
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveFetch records one market data request.
func (m *Metrics) ObserveFetch(endpoint string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.FetchLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	if err != nil {
		m.FetchErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordCollected adds collected snapshots.
func (m *Metrics) RecordCollected(n int) {
	if m == nil {
		return
	}
	m.TokensCollected.Add(float64(n))
}

// RecordSkipped counts a token dropped from a scan.
func (m *Metrics) RecordSkipped(reason string) {
	if m == nil {
		return
	}
	m.TokensSkipped.WithLabelValues(reason).Inc()
}

// RecordScore records one score record.
func (m *Metrics) RecordScore(variant string, total float64) {
	if m == nil {
		return
	}
	m.TokensScored.WithLabelValues(variant).Inc()
	m.ScoreDistribution.WithLabelValues(variant).Observe(total)
}

// SetImminent sets the imminent alert count for a variant.
func (m *Metrics) SetImminent(variant string, n int) {
	if m == nil {
		return
	}
	m.ImminentTokens.WithLabelValues(variant).Set(float64(n))
}

// RecordBatch records a batch run.
func (m *Metrics) RecordBatch(phase, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BatchRunsTotal.WithLabelValues(phase, status).Inc()
	m.BatchDuration.WithLabelValues(phase).Observe(elapsed.Seconds())
	if status == "success" {
		m.LastSuccessfulScan.SetToCurrentTime()
	}
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(elapsed.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
