package middleware

import (
	"net/http"
	"strings"

	"nutrition-hq/dietapi/pkg/config"
)

// CORSConfig contains configuration for CORS middleware.
type CORSConfig struct {
	// Enabled controls whether CORS headers are written.
	Enabled bool

	// AllowedOrigin is sent as Access-Control-Allow-Origin.
	AllowedOrigin string

	// AllowedMethods is sent as Access-Control-Allow-Methods.
	AllowedMethods []string

	// AllowedHeaders is sent as Access-Control-Allow-Headers.
	AllowedHeaders []string
}

// CORSFromConfig converts the server's CORS section.
func CORSFromConfig(cfg config.CORSConfig) *CORSConfig {
	return &CORSConfig{
		Enabled:        cfg.Enabled,
		AllowedOrigin:  cfg.AllowedOrigin,
		AllowedMethods: cfg.AllowedMethods,
		AllowedHeaders: cfg.AllowedHeaders,
	}
}

// DefaultCORSConfig returns the headers every response carried historically.
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		Enabled:        true,
		AllowedOrigin:  config.DefaultCORSAllowedOrigin,
		AllowedMethods: config.DefaultCORSAllowedMethods,
		AllowedHeaders: config.DefaultCORSAllowedHeaders,
	}
}

// CORSMiddleware sets the same CORS headers on every response, errors and
// preflights included. Preflight requests are passed on; the router answers
// them.
func CORSMiddleware(cfg *CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", cfg.AllowedOrigin)
			if methods != "" {
				h.Set("Access-Control-Allow-Methods", methods)
			}
			if headers != "" {
				h.Set("Access-Control-Allow-Headers", headers)
			}
			next.ServeHTTP(w, r)
		})
	}
}
