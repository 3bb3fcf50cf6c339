package config

import (
	"math"
	"slices"
	"time"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "0.0.0.0:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxBodyBytes    = 1048576 // 1MB
	DefaultCompression     = true

	// CORS defaults
	DefaultCORSEnabled       = true
	DefaultCORSAllowedOrigin = "*"

	// Database defaults
	DefaultDatabaseDriver    = "mysql"
	DefaultDatabaseHost      = "localhost"
	DefaultMySQLPort         = 3306
	DefaultPostgresPort      = 5432
	DefaultDatabaseUser      = "root"
	DefaultDatabaseName      = "diet_api"
	DefaultDatabasePath      = "data/diet_api.db"
	DefaultPoolSize          = 1
	DefaultAcquireTimeout    = 5 * time.Second
	DefaultConnectTimeout    = 10 * time.Second
	DefaultKeepaliveSchedule = "@every 30s"

	// Aggregate defaults
	DefaultAggregateStrategy = "staged"
	DefaultMaxDays           = 100
	DefaultMaxMealsPerDay    = 50

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultRedactSecrets      = true
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "dietapi"
	DefaultHealthCheckTimeout = 2 * time.Second

	// Tracing defaults
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingService     = "dietapi"
	DefaultTracingInsecure    = true
	DefaultTracingTimeout     = 10 * time.Second
)

var (
	DefaultCORSAllowedMethods     = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	DefaultCORSAllowedHeaders     = []string{"Content-Type"}
	DefaultRequestDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := base()
	ApplyDefaults(cfg)
	return cfg
}

// base holds the defaults that cannot be told apart from an explicit zero
// value. Configuration files are decoded over it, so a boolean absent from
// the file keeps its default instead of becoming false.
func base() *Config {
	return &Config{
		Server: ServerConfig{
			Compression: DefaultCompression,
			CORS: CORSConfig{
				Enabled: DefaultCORSEnabled,
			},
		},
		Database: DatabaseConfig{
			KeepaliveSchedule: DefaultKeepaliveSchedule,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				RedactSecrets: DefaultRedactSecrets,
			},
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
			Tracing: TracingConfig{
				Insecure: DefaultTracingInsecure,
			},
		},
	}
}

// ApplyDefaults sets defaults for fields that have zero values. It is
// idempotent.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	if cfg.Server.Limits.RequestsPerSecond > 0 && cfg.Server.Limits.Burst == 0 {
		cfg.Server.Limits.Burst = int(math.Ceil(cfg.Server.Limits.RequestsPerSecond))
	}

	// CORS defaults
	if cfg.Server.CORS.AllowedOrigin == "" {
		cfg.Server.CORS.AllowedOrigin = DefaultCORSAllowedOrigin
	}
	if len(cfg.Server.CORS.AllowedMethods) == 0 {
		cfg.Server.CORS.AllowedMethods = slices.Clone(DefaultCORSAllowedMethods)
	}
	if len(cfg.Server.CORS.AllowedHeaders) == 0 {
		cfg.Server.CORS.AllowedHeaders = slices.Clone(DefaultCORSAllowedHeaders)
	}

	// Database defaults
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDatabaseDriver
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDatabaseHost
	}
	if cfg.Database.Port == 0 {
		switch cfg.Database.Driver {
		case "postgres", "postgresql", "pgx":
			cfg.Database.Port = DefaultPostgresPort
		case "mysql", "mariadb":
			cfg.Database.Port = DefaultMySQLPort
		}
	}
	if cfg.Database.User == "" {
		cfg.Database.User = DefaultDatabaseUser
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = DefaultDatabaseName
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDatabasePath
	}
	if cfg.Database.PoolSize == 0 {
		cfg.Database.PoolSize = DefaultPoolSize
	}
	if cfg.Database.AcquireTimeout == 0 {
		cfg.Database.AcquireTimeout = DefaultAcquireTimeout
	}
	if cfg.Database.ConnectTimeout == 0 {
		cfg.Database.ConnectTimeout = DefaultConnectTimeout
	}

	// Aggregate defaults
	if cfg.Aggregate.Strategy == "" {
		cfg.Aggregate.Strategy = DefaultAggregateStrategy
	}
	if cfg.Aggregate.MaxDays == 0 {
		cfg.Aggregate.MaxDays = DefaultMaxDays
	}
	if cfg.Aggregate.MaxMealsPerDay == 0 {
		cfg.Aggregate.MaxMealsPerDay = DefaultMaxMealsPerDay
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = slices.Clone(DefaultRequestDurationBuckets)
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}

	// Tracing defaults
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingService
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}
