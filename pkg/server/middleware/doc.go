// Package middleware provides the HTTP middleware wrapped around the API.
//
// # Middleware Chain
//
// Listed outermost first:
//
//	Recovery → Logging → RequestID → Tracing → Metrics → CORS → Admission → Compression → api.API
//
// Recovery is outermost so a panic anywhere still produces a 500 envelope.
// CORS runs inside Recovery and Logging but before the handler writes, so
// every response carries the CORS headers, 404, 413 and 500 included.
//
// # Request ID
//
// RequestIDMiddleware propagates the client's X-Request-ID or generates a
// UUID v4. The ID is stored with logging.WithRequestID, so any record logged
// with the request context carries it.
//
// # Tracing
//
// TracingMiddleware is mounted only when tracing is enabled. It continues
// an incoming W3C traceparent, names the span after the route and returns
// the trace id in X-Trace-ID.
//
// # Admission
//
// AdmissionMiddleware is mounted only when server.limits sets a rate or an
// in-flight cap. Refusals use the API's error envelope: 429 with
// Retry-After for the rate, 503 for the in-flight cap. The health probes
// and the metrics endpoint are exempt.
//
// # Metrics
//
// MetricsMiddleware labels requests with the router's route name, keeping
// label cardinality bounded by the route table.
package middleware
