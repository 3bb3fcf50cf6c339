package metrics

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"nutrition-hq/dietapi/pkg/config"
	"nutrition-hq/dietapi/pkg/dataengine"
)

// overflowRoute replaces route labels once the cardinality limit is reached.
const overflowRoute = "other"

// Collector owns every Prometheus metric the service exports and the
// registry they live in. It implements dataengine.Observer so the data
// engine reports statement timing directly.
//
// Recording methods are no-ops when metrics are disabled.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics *RequestMetrics
	engineMetrics  *EngineMetrics
	domainMetrics  *DomainMetrics

	cardinalityLimiter *CardinalityLimiter
}

var _ dataengine.Observer = (*Collector)(nil)

// NewCollector creates a collector and registers its metrics. A nil
// registry gets a fresh one.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "dietapi"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = config.DefaultRequestDurationBuckets
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.engineMetrics = NewEngineMetrics(cfg, registry)
	c.domainMetrics = NewDomainMetrics(cfg, registry)

	return c
}

// Enabled reports whether recording is switched on.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// RecordRequest records a completed HTTP request. route is the router's
// name for the matched route, not the raw path.
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	if !c.cardinalityLimiter.Allow(method + " " + route) {
		route = overflowRoute
	}

	c.requestMetrics.RecordRequest(method, route, strconv.Itoa(status), duration)
}

// RequestStarted increments the in-flight gauge. Pair every call with
// RequestFinished.
func (c *Collector) RequestStarted() {
	if !c.config.Enabled {
		return
	}
	c.requestMetrics.inFlight.Inc()
}

// RequestFinished decrements the in-flight gauge.
func (c *Collector) RequestFinished() {
	if !c.config.Enabled {
		return
	}
	c.requestMetrics.inFlight.Dec()
}

// RecordBodySize records the size of a fully collected request body.
func (c *Collector) RecordBodySize(route string, size int) {
	if !c.config.Enabled {
		return
	}
	c.requestMetrics.RecordBodySize(route, size)
}

// RecordBodyRejected counts a request body refused for exceeding the cap.
func (c *Collector) RecordBodyRejected() {
	if !c.config.Enabled {
		return
	}
	c.requestMetrics.bodyRejections.Inc()
}

// RecordRejection counts a request refused by the admission limiter.
func (c *Collector) RecordRejection(reason string) {
	if !c.config.Enabled {
		return
	}
	c.requestMetrics.admissions.WithLabelValues(reason).Inc()
}

// ObserveStatement implements dataengine.Observer.
func (c *Collector) ObserveStatement(kind string, wait, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}
	c.engineMetrics.RecordStatement(kind, resultLabel(err), wait, duration)
}

// ObserveAcquire implements dataengine.Observer.
func (c *Collector) ObserveAcquire(wait time.Duration, err error) {
	if !c.config.Enabled {
		return
	}

	result := resultLabel(err)
	if errors.Is(err, dataengine.ErrAcquireTimeout) {
		result = "timeout"
	}
	c.engineMetrics.RecordAcquire(result, wait)
}

// RecordBulkInsert records the outcome of one bulk-insert batch.
func (c *Collector) RecordBulkInsert(requested, inserted int) {
	if !c.config.Enabled {
		return
	}
	c.domainMetrics.RecordBulkInsert(requested, inserted)
}

// RecordTemplateBuild records one template aggregation.
func (c *Collector) RecordTemplateBuild(strategy string, duration time.Duration, truncated bool, err error) {
	if !c.config.Enabled {
		return
	}
	c.domainMetrics.RecordTemplateBuild(strategy, resultLabel(err), duration, truncated)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// CardinalityLimiter bounds the number of distinct label sets a metric may
// grow to.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter allowing maxCardinality label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already known or still fits under the
// limit, remembering it in the latter case.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
