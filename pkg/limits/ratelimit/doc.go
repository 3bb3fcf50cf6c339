// Package ratelimit implements request admission for the HTTP server.
//
// Two independent limits are supported:
//
//   - a token bucket over the request rate across all clients
//     (server.limits.requests_per_second and burst)
//   - a cap on requests being served at once (server.limits.max_in_flight)
//
// Every route shares one data engine session or pool, so the limits
// protect the engine rather than individual clients. Limits are global,
// not keyed by client address.
//
// # Usage
//
//	limiter := ratelimit.NewLimiter(cfg.Server.Limits)
//	if d := limiter.Admit(); !d.Allowed {
//	    // reject with 429 or 503
//	}
//	defer limiter.Release()
package ratelimit
