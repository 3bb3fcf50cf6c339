package middleware

import (
	"net/http"
	"time"
)

// RequestRecorder receives one observation per served request. The
// metrics collector implements it.
type RequestRecorder interface {
	RequestStarted()
	RequestFinished()
	RecordRequest(method, route string, status int, duration time.Duration)
}

// RouteNamer maps a request to the name of the route it reaches.
type RouteNamer func(r *http.Request) string

// MetricsMiddleware records request count, latency and in-flight requests,
// labelled with the route name rather than the raw path.
func MetricsMiddleware(rec RequestRecorder, routeName RouteNamer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec.RequestStarted()
			defer rec.RequestFinished()

			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			rec.RecordRequest(r.Method, routeName(r), rw.statusCode, time.Since(start))
		})
	}
}
