package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"nutrition-hq/dietapi/pkg/config"
)

// DomainMetrics tracks bulk inserts and template aggregation.
//
// Metrics:
//   - dietapi_bulk_items_total: bulk items by result (inserted, failed)
//   - dietapi_template_builds_total: aggregations by strategy and result
//   - dietapi_template_build_duration_seconds: aggregation latency
//   - dietapi_template_truncations_total: trees cut at the configured bounds
type DomainMetrics struct {
	bulkItems     *prometheus.CounterVec
	builds        *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec
	truncations   *prometheus.CounterVec
}

// NewDomainMetrics creates and registers domain metrics with the provided registry.
func NewDomainMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DomainMetrics {
	dm := &DomainMetrics{
		bulkItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "bulk_items_total",
				Help:      "Total number of bulk-insert items by result",
			},
			[]string{"result"},
		),

		builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "template_builds_total",
				Help:      "Total number of template aggregations by strategy and result",
			},
			[]string{"strategy", "result"},
		),

		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "template_build_duration_seconds",
				Help:      "Duration of template aggregation in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"strategy"},
		),

		truncations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "template_truncations_total",
				Help:      "Total number of template trees truncated at the configured bounds",
			},
			[]string{"strategy"},
		),
	}

	registry.MustRegister(
		dm.bulkItems,
		dm.builds,
		dm.buildDuration,
		dm.truncations,
	)

	return dm
}

// RecordBulkInsert records the items of one batch.
func (dm *DomainMetrics) RecordBulkInsert(requested, inserted int) {
	if inserted > 0 {
		dm.bulkItems.WithLabelValues("inserted").Add(float64(inserted))
	}
	if failed := requested - inserted; failed > 0 {
		dm.bulkItems.WithLabelValues("failed").Add(float64(failed))
	}
}

// RecordTemplateBuild records one aggregation.
func (dm *DomainMetrics) RecordTemplateBuild(strategy, result string, duration time.Duration, truncated bool) {
	dm.builds.WithLabelValues(strategy, result).Inc()
	dm.buildDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if truncated {
		dm.truncations.WithLabelValues(strategy).Inc()
	}
}
