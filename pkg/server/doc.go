// Package server runs the diet API over HTTP.
//
// The server mounts the API router at "/" and, when metrics are enabled,
// the Prometheus endpoint at telemetry.metrics.path. Both share the
// middleware chain described in package middleware.
//
// # Basic Usage
//
//	cfg := config.GetConfig()
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	srv := server.NewServer(cfg, api.New(services, api.Config{
//	    MaxBodyBytes: cfg.Server.MaxBodyBytes,
//	}), collector)
//
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until ctx is cancelled, SIGINT or SIGTERM is received, or
// Stop is called, then drains in-flight requests for up to
// server.shutdown_timeout.
//
// # Testing
//
// Handler returns the wrapped handler for use with httptest, and Serve
// accepts a pre-bound listener such as one on "127.0.0.1:0".
package server
