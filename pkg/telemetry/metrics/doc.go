// Package metrics provides the Prometheus metrics of the diet API.
//
// A single Collector owns the registry and three groups of metrics:
//
//   - HTTP: request count, latency, in-flight requests and body sizes,
//     labelled by route name rather than raw path
//   - Data engine: statement count, duration and session-lock wait, plus
//     pool checkout waits and timeouts; the Collector implements
//     dataengine.Observer
//   - Domain: bulk-insert item outcomes and template aggregation results,
//     including truncated trees
//
// Usage:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	pool := dataengine.NewPool(dataengine.PoolConfig{
//		HandleConfig: dataengine.HandleConfig{Observer: collector},
//	})
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Route labels pass through a CardinalityLimiter; label sets beyond the
// limit are folded into the "other" route.
package metrics
