// Package tracing provides OpenTelemetry distributed tracing for the diet
// API.
//
// Tracing is off by default. When telemetry.tracing.enabled is set, New
// installs a tracer provider that exports spans over OTLP gRPC and the W3C
// trace context propagator. The rest of the module creates spans through
// the package-level Start, which is a noop until then:
//
//	ctx, span := tracing.Start(ctx, "bulk.apply")
//	defer span.End()
//
// # Spans
//
//   - one server span per HTTP request, named after the route
//   - one span per data engine statement (db.query, db.execute, db.ping)
//   - templates.build around a nested template read
//   - bulk.apply around a bulk insert
//
// # Sampling
//
// The sampler is "always", "never" or "ratio" (telemetry.tracing.sampler and
// sample_ratio), wrapped in ParentBased so that an incoming traceparent
// decides for requests that are already part of a trace.
package tracing
