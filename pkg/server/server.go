// Package server provides the HTTP server for the diet API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"nutrition-hq/dietapi/pkg/api"
	"nutrition-hq/dietapi/pkg/config"
	"nutrition-hq/dietapi/pkg/limits/ratelimit"
	"nutrition-hq/dietapi/pkg/server/middleware"
	"nutrition-hq/dietapi/pkg/telemetry/metrics"
)

// Server is the HTTP server fronting the API and the metrics endpoint.
type Server struct {
	config       *config.ServerConfig
	metricsCfg   *config.MetricsConfig
	tracing      bool
	limiter      *ratelimit.Limiter
	api          *api.API
	collector    *metrics.Collector
	logger       *slog.Logger
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	stopOnce     sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
}

// NewServer creates a new server. collector may be nil, in which case no
// request metrics are recorded and no metrics endpoint is mounted.
func NewServer(cfg *config.Config, a *api.API, collector *metrics.Collector) *Server {
	return &Server{
		config:       &cfg.Server,
		metricsCfg:   &cfg.Telemetry.Metrics,
		tracing:      cfg.Telemetry.Tracing.Enabled,
		limiter:      ratelimit.NewLimiter(cfg.Server.Limits),
		api:          a,
		collector:    collector,
		logger:       slog.Default().With("component", "server"),
		shutdownChan: make(chan struct{}),
	}
}

// Start listens on the configured address and blocks until ctx is
// cancelled, a SIGINT or SIGTERM arrives, Stop is called, or the listener
// fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		ln.Close()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.addr = ln.Addr()
	s.mu.Unlock()

	handler, err := s.setupRoutes()
	if err != nil {
		ln.Close()
		s.setStopped()
		return err
	}

	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:        handler,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting diet API server",
			"address", ln.Addr().String(),
			"compression", s.config.Compression,
			"metrics_path", s.metricsPath(),
		)

		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.setStopped()
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Stop asks a running Start or Serve to shut down and return.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.shutdownChan) })
}

// Shutdown gracefully shuts down the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		httpServer := s.httpServer
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if httpServer != nil {
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.setStopped()
		s.logger.Info("diet API server stopped")
	})

	return shutdownErr
}

func (s *Server) setStopped() {
	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
}

// setupRoutes mounts the metrics endpoint and the API, then wraps them in
// the middleware chain.
func (s *Server) setupRoutes() (http.Handler, error) {
	// The API router owns every path except the metrics endpoint. A
	// ServeMux here would redirect unclean paths before the router saw them.
	var handler http.Handler = s.api
	if path := s.metricsPath(); path != "" {
		metricsHandler := s.collector.Handler()
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == path {
				metricsHandler.ServeHTTP(w, r)
				return
			}
			s.api.ServeHTTP(w, r)
		})
	}

	if s.config.Compression {
		compress, err := middleware.CompressionMiddleware()
		if err != nil {
			return nil, err
		}
		handler = compress(handler)
	}

	if s.limiter.Enabled() {
		handler = middleware.AdmissionMiddleware(s.admissionConfig())(handler)
	}

	handler = middleware.CORSMiddleware(middleware.CORSFromConfig(s.config.CORS))(handler)

	if s.collector != nil && s.collector.Enabled() {
		handler = middleware.MetricsMiddleware(s.collector, s.routeName)(handler)
	}

	if s.tracing {
		handler = middleware.TracingMiddleware(s.routeName)(handler)
	}

	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.LoggingMiddleware(s.logger)(handler)

	// Recovery middleware (outermost)
	handler = middleware.RecoveryMiddleware(handler)

	return handler, nil
}

func (s *Server) metricsPath() string {
	if s.collector == nil || !s.collector.Enabled() {
		return ""
	}
	return s.metricsCfg.Path
}

func (s *Server) routeName(r *http.Request) string {
	if path := s.metricsPath(); path != "" && r.URL.Path == path {
		return "metrics"
	}
	return s.api.RouteName(r)
}

// admissionConfig exempts the probes, CORS preflights and the metrics
// endpoint from the request limits.
func (s *Server) admissionConfig() middleware.AdmissionConfig {
	cfg := middleware.AdmissionConfig{
		Limiter: s.limiter,
		Exempt: func(r *http.Request) bool {
			switch s.routeName(r) {
			case "health", "ready", "metrics", api.RoutePreflight:
				return true
			}
			return false
		},
	}
	if s.collector != nil {
		cfg.Recorder = s.collector
	}
	return cfg
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the address the server is listening on, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Handler returns the configured HTTP handler with the full middleware chain.
func (s *Server) Handler() (http.Handler, error) {
	return s.setupRoutes()
}
