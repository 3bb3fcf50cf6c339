package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"nutrition-hq/dietapi/pkg/api"
)

// RecoveryMiddleware recovers from panics in handlers and answers with the
// 500 error envelope. The panic and stack are logged; nothing internal is
// sent to the client.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}

				slog.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", w.Header().Get(RequestIDHeader),
					"stack", string(debug.Stack()),
				)

				api.Write(w, api.Error(http.StatusInternalServerError, "Internal server error"))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
