package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"nutrition-hq/dietapi/pkg/api"
	"nutrition-hq/dietapi/pkg/bulk"
	"nutrition-hq/dietapi/pkg/catalog"
	"nutrition-hq/dietapi/pkg/cli"
	"nutrition-hq/dietapi/pkg/config"
	"nutrition-hq/dietapi/pkg/dataengine"
	"nutrition-hq/dietapi/pkg/server"
	"nutrition-hq/dietapi/pkg/telemetry/health"
	"nutrition-hq/dietapi/pkg/telemetry/logging"
	"nutrition-hq/dietapi/pkg/telemetry/metrics"
	"nutrition-hq/dietapi/pkg/telemetry/tracing"
	"nutrition-hq/dietapi/pkg/templates"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watch         bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the diet API server",
	Long: `Start the diet API server with the specified configuration.

If the data engine cannot be reached at startup the server still starts and
answers data requests with a database error until the keepalive reconnects,
unless database.require_connection is set.

Examples:
  # Start with dietapi.yaml from the working directory, if any
  dietapi run

  # Start with custom config
  dietapi run --config /etc/dietapi/dietapi.yaml

  # Override listen address
  dietapi run --listen 0.0.0.0:9090

  # Validate config without starting server
  dietapi run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", true, "reload the log level when the config file changes")
}

// loadConfig loads the configuration and applies the global and run flag
// overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Initialize(cfgFile)
	if err != nil {
		return nil, cli.WrapConfigError(err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	switch {
	case runFlags.logLevel != "":
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	case verbose:
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// setupLogging installs the configured logger as the slog default.
func setupLogging(cfg *config.Config) (*logging.Logger, error) {
	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger.Install()
	return logger, nil
}

// application is the wired service: engine, API and HTTP server.
type application struct {
	cfg       *config.Config
	engine    engine
	collector *metrics.Collector
	checker   *health.Checker
	server    *server.Server
	keepalive *dataengine.Keepalive
}

// newApplication connects the data engine and wires every component. The
// registry receives the service metrics; nil creates a fresh one.
func newApplication(ctx context.Context, cfg *config.Config, registry *prometheus.Registry) (*application, error) {
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, registry)
	if collector.Enabled() {
		if err := collector.RegisterRuntimeCollectors(); err != nil {
			return nil, fmt.Errorf("register runtime metrics: %w", err)
		}
	}

	e := newEngine(&cfg.Database, collector)
	if err := connect(ctx, e, &cfg.Database); err != nil {
		_ = e.Close()
		return nil, err
	}

	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
	checker.RegisterCheck("database", e.Ping)

	builder := templates.NewBuilder(e, templates.Config{
		Strategy:       templates.Strategy(cfg.Aggregate.Strategy),
		MaxDays:        cfg.Aggregate.MaxDays,
		MaxMealsPerDay: cfg.Aggregate.MaxMealsPerDay,
	})

	a := api.New(api.Services{
		Catalog:   catalog.NewStore(e),
		Templates: builder,
		Bulk:      bulk.NewWriter(e),
		Health:    checker,
		Recorder:  collector,
	}, api.Config{MaxBodyBytes: cfg.Server.MaxBodyBytes})

	app := &application{
		cfg:       cfg,
		engine:    e,
		collector: collector,
		checker:   checker,
		server:    server.NewServer(cfg, a, collector),
	}

	if schedule := cfg.Database.KeepaliveSchedule; schedule != "" {
		k, err := dataengine.NewKeepalive(e, schedule, cfg.Database.ConnectTimeout)
		if err != nil {
			_ = e.Close()
			return nil, cli.NewConfigError("database.keepalive_schedule", err.Error())
		}
		app.keepalive = k
	}

	return app, nil
}

// Close stops the keepalive and closes the engine.
func (a *application) Close() error {
	if a.keepalive != nil {
		a.keepalive.Stop()
	}
	return a.engine.Close()
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	slog.Info("starting dietapi",
		"version", Version,
		"config_file", configPath(),
		"driver", cfg.Database.Driver,
		"aggregate_strategy", cfg.Aggregate.Strategy,
		"tracing", cfg.Telemetry.Tracing.Enabled,
	)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer shutdownTracer(tracer)

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	app, err := newApplication(ctx, cfg, nil)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer app.Close()

	if app.keepalive != nil {
		app.keepalive.Start()
	}

	if runFlags.watch {
		startWatcher(ctx, logger)
	}

	if err := app.server.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// shutdownTracer flushes buffered spans, giving the collector a few
// seconds to accept them.
func shutdownTracer(t *tracing.Tracer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.Shutdown(ctx); err != nil {
		slog.Warn("failed to flush traces", "error", err)
	}
}

// configPath returns the file the configuration was read from, or "" when
// running on defaults and the environment.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if _, err := os.Stat(config.DefaultConfigFile); err == nil {
		return config.DefaultConfigFile
	}
	return ""
}

// startWatcher reloads the log level when the config file changes. A log
// level given on the command line is not overridden.
func startWatcher(ctx context.Context, logger *logging.Logger) {
	path := configPath()
	if path == "" {
		return
	}

	w, err := config.NewWatcher(path, 0)
	if err != nil {
		slog.Warn("configuration watcher disabled", "error", err)
		return
	}
	w.OnReload(func(cfg *config.Config) {
		if runFlags.logLevel != "" || verbose {
			return
		}
		if err := logger.SetLevel(cfg.Telemetry.Logging.Level); err != nil {
			slog.Warn("ignoring reloaded log level", "error", err)
			return
		}
		slog.Info("log level updated", "level", cfg.Telemetry.Logging.Level)
	})

	go func() {
		if err := w.Run(ctx); err != nil {
			slog.Error("configuration watcher stopped", "error", err)
		}
	}()
}
