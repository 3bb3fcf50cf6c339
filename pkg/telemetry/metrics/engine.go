package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"nutrition-hq/dietapi/pkg/config"
)

// lockWaitBuckets cover the time a statement spends queued behind the
// session lock.
var lockWaitBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// EngineMetrics tracks data engine statements and handle checkouts.
//
// Metrics:
//   - dietapi_engine_statements_total: statements by kind and result
//   - dietapi_engine_statement_duration_seconds: send+fetch time by kind
//   - dietapi_engine_lock_wait_seconds: time blocked on the session lock
//   - dietapi_engine_acquires_total: pool checkouts by result
//   - dietapi_engine_acquire_wait_seconds: time blocked waiting for a handle
type EngineMetrics struct {
	statements        *prometheus.CounterVec
	statementDuration *prometheus.HistogramVec
	lockWait          *prometheus.HistogramVec
	acquires          *prometheus.CounterVec
	acquireWait       prometheus.Histogram
}

// NewEngineMetrics creates and registers data engine metrics with the provided registry.
func NewEngineMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EngineMetrics {
	em := &EngineMetrics{
		statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "statements_total",
				Help:      "Total number of data engine statements by kind and result",
			},
			[]string{"kind", "result"},
		),

		statementDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "statement_duration_seconds",
				Help:      "Time spent sending a statement and fetching its result",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"kind"},
		),

		lockWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "lock_wait_seconds",
				Help:      "Time statements spent waiting for the session lock",
				Buckets:   lockWaitBuckets,
			},
			[]string{"kind"},
		),

		acquires: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "acquires_total",
				Help:      "Total number of pool checkouts by result",
			},
			[]string{"result"},
		),

		acquireWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "acquire_wait_seconds",
				Help:      "Time spent waiting for a free pooled handle",
				Buckets:   lockWaitBuckets,
			},
		),
	}

	registry.MustRegister(
		em.statements,
		em.statementDuration,
		em.lockWait,
		em.acquires,
		em.acquireWait,
	)

	return em
}

// RecordStatement records one statement.
func (em *EngineMetrics) RecordStatement(kind, result string, wait, duration time.Duration) {
	em.statements.WithLabelValues(kind, result).Inc()
	em.lockWait.WithLabelValues(kind).Observe(wait.Seconds())
	if duration > 0 {
		em.statementDuration.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

// RecordAcquire records one pool checkout.
func (em *EngineMetrics) RecordAcquire(result string, wait time.Duration) {
	em.acquires.WithLabelValues(result).Inc()
	em.acquireWait.Observe(wait.Seconds())
}
