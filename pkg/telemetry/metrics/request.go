package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"nutrition-hq/dietapi/pkg/config"
)

// RequestMetrics tracks HTTP request handling.
//
// Metrics:
//   - dietapi_http_requests_total: requests by method, route and status
//   - dietapi_http_request_duration_seconds: latency by method and route
//   - dietapi_http_requests_in_flight: requests currently being served
//   - dietapi_http_request_body_bytes: collected body sizes by route
//   - dietapi_http_body_rejections_total: bodies refused for size
//   - dietapi_http_admission_rejections_total: requests refused by the
//     rate or in-flight limit
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	bodySize        *prometheus.HistogramVec
	bodyRejections  prometheus.Counter
	admissions      *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"method", "route", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"method", "route"},
		),

		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),

		bodySize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "request_body_bytes",
				Help:      "Size of collected request bodies in bytes",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 8), // 64B to 1MB
			},
			[]string{"route"},
		),

		bodyRejections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "body_rejections_total",
				Help:      "Total number of request bodies rejected for exceeding the size limit",
			},
		),

		admissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "admission_rejections_total",
				Help:      "Total number of requests refused by the admission limits",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.inFlight,
		rm.bodySize,
		rm.bodyRejections,
		rm.admissions,
	)

	return rm
}

// RecordRequest records a completed request.
func (rm *RequestMetrics) RecordRequest(method, route, status string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(method, route, status).Inc()
	rm.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordBodySize records the size of a collected body.
func (rm *RequestMetrics) RecordBodySize(route string, size int) {
	rm.bodySize.WithLabelValues(route).Observe(float64(size))
}
