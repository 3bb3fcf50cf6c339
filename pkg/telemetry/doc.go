// Package telemetry groups the observability packages of the diet API.
//
//   - logging: slog setup, request context fields and secret redaction
//   - metrics: Prometheus collectors for HTTP, the data engine, template
//     builds and bulk inserts
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: liveness and readiness checks
//
// cmd/dietapi wires them together; package server mounts the metrics
// endpoint and the request middleware that feeds them.
package telemetry
