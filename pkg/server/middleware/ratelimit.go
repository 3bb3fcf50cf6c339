package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"nutrition-hq/dietapi/pkg/api"
	"nutrition-hq/dietapi/pkg/limits/ratelimit"
)

// RejectionRecorder counts refused requests by reason. The metrics
// collector implements it.
type RejectionRecorder interface {
	RecordRejection(reason string)
}

// AdmissionConfig configures AdmissionMiddleware.
type AdmissionConfig struct {
	Limiter *ratelimit.Limiter

	// Recorder may be nil.
	Recorder RejectionRecorder

	// Exempt reports requests that bypass the limits, such as probes.
	Exempt func(r *http.Request) bool
}

// AdmissionMiddleware refuses requests over the configured limits with an
// error envelope: 429 and Retry-After when the rate is exceeded, 503 when
// too many requests are in flight.
func AdmissionMiddleware(cfg AdmissionConfig) func(http.Handler) http.Handler {
	logger := slog.Default().With("component", "admission")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Exempt != nil && cfg.Exempt(r) {
				next.ServeHTTP(w, r)
				return
			}

			d := cfg.Limiter.Admit()
			if d.Allowed {
				defer cfg.Limiter.Release()
				next.ServeHTTP(w, r)
				return
			}

			if cfg.Recorder != nil {
				cfg.Recorder.RecordRejection(string(d.Reason))
			}
			logger.DebugContext(r.Context(), "request refused", "reason", d.Reason, "path", r.URL.Path)

			switch d.Reason {
			case ratelimit.ReasonRate:
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(d)))
				api.Write(w, api.Error(http.StatusTooManyRequests, "Too many requests"))
			default:
				api.Write(w, api.Error(http.StatusServiceUnavailable, "Server busy"))
			}
		})
	}
}

// retryAfterSeconds rounds up, and never advertises less than a second.
func retryAfterSeconds(d ratelimit.Decision) int {
	return max(int(math.Ceil(d.RetryAfter.Seconds())), 1)
}
