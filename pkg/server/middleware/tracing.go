package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"nutrition-hq/dietapi/pkg/telemetry/logging"
	"nutrition-hq/dietapi/pkg/telemetry/tracing"
)

// TraceIDHeader carries the trace id of a recorded request back to the
// client.
const TraceIDHeader = "X-Trace-ID"

// TracingMiddleware starts a server span per request, continuing any trace
// context the client sent. It must run inside RequestIDMiddleware so the
// span can carry the request id.
func TracingMiddleware(routeName RouteNamer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routeName(r)

			ctx := tracing.Extract(r.Context(), r.Header)
			ctx, span := tracing.StartServer(ctx, r.Method+" "+route,
				attribute.String(tracing.AttrRequestID, logging.GetRequestID(ctx)),
			)
			defer span.End()

			if id := tracing.TraceID(ctx); id != "" {
				w.Header().Set(TraceIDHeader, id)
			}

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			tracing.SetHTTPAttributes(span, r.Method, route, r.URL.Path, rw.statusCode)
		})
	}
}
