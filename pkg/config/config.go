package config

import "time"

// Config is the root configuration of the diet API service.
type Config struct {
	// Server contains the HTTP listener, timeouts and CORS settings.
	Server ServerConfig `yaml:"server"`

	// Database selects the data engine driver and how the service connects
	// to it.
	Database DatabaseConfig `yaml:"database"`

	// Aggregate bounds the nested template resource.
	Aggregate AggregateConfig `yaml:"aggregate"`

	// Telemetry contains logging, metrics and health check settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the host:port to listen on.
	// Default: "0.0.0.0:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes caps the request body accepted by write endpoints.
	// Default: 1048576 (1MB)
	MaxBodyBytes int `yaml:"max_body_bytes"`

	// Compression enables gzip for clients that accept it.
	// Default: true
	Compression bool `yaml:"compression"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`

	// Limits bounds the request rate and concurrency the server admits.
	Limits LimitsConfig `yaml:"limits"`
}

// LimitsConfig controls admission of requests. Zero values disable a limit,
// and both are disabled by default.
type LimitsConfig struct {
	// RequestsPerSecond is the sustained request rate across all clients.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is how many requests may arrive at once above the sustained
	// rate. Defaults to the rate rounded up.
	Burst int `yaml:"burst"`

	// MaxInFlight caps requests being served at the same time.
	MaxInFlight int `yaml:"max_in_flight"`
}

// CORSConfig contains the CORS headers written on every response.
type CORSConfig struct {
	// Enabled controls whether CORS headers are written.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigin is the Access-Control-Allow-Origin value.
	// Default: "*"
	AllowedOrigin string `yaml:"allowed_origin"`

	// AllowedMethods is joined into Access-Control-Allow-Methods.
	// Default: ["GET", "POST", "PUT", "DELETE", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is joined into Access-Control-Allow-Headers.
	// Default: ["Content-Type"]
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// DatabaseConfig contains data engine configuration.
type DatabaseConfig struct {
	// Driver selects the SQL driver.
	// Options: "mysql", "postgres", "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "mysql"
	Driver string `yaml:"driver"`

	// Host is the server host for mysql and postgres.
	// Default: "localhost"
	Host string `yaml:"host"`

	// Port is the server port. Zero uses the driver's standard port.
	// Default: 3306 for mysql, 5432 for postgres
	Port int `yaml:"port"`

	// User is the login name.
	// Default: "root"
	User string `yaml:"user"`

	// Password is the login password. Never logged.
	Password string `yaml:"password"`

	// Name is the database (schema) name.
	// Default: "diet_api"
	Name string `yaml:"name"`

	// Path is the database file for the sqlite drivers.
	// Default: "data/diet_api.db"
	Path string `yaml:"path"`

	// Params are extra DSN parameters passed to the driver.
	Params map[string]string `yaml:"params"`

	// PoolSize is the number of independent sessions. One keeps every
	// statement serialized on a single session.
	// Default: 1
	PoolSize int `yaml:"pool_size"`

	// AcquireTimeout bounds how long a statement waits for a free session
	// when PoolSize is above one.
	// Default: 5s
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`

	// QueryTimeout bounds each statement. Zero means no timeout.
	// Default: 0
	QueryTimeout time.Duration `yaml:"query_timeout"`

	// ConnectTimeout bounds the initial connect and each reconnect.
	// Default: 10s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// KeepaliveSchedule is a cron spec for pinging and reconnecting the
	// session. Empty disables the keepalive.
	// Default: "@every 30s"
	KeepaliveSchedule string `yaml:"keepalive_schedule"`

	// RequireConnection makes a failed initial connect fatal instead of
	// starting degraded.
	// Default: false
	RequireConnection bool `yaml:"require_connection"`
}

// AggregateConfig configures the nested template builder.
type AggregateConfig struct {
	// Strategy selects how the tree is read.
	// Options: "staged" (one query per level), "joined" (single query)
	// Default: "staged"
	Strategy string `yaml:"strategy"`

	// MaxDays caps the days returned for one template.
	// Default: 100
	MaxDays int `yaml:"max_days"`

	// MaxMealsPerDay caps the meals returned for one day.
	// Default: 50
	MaxMealsPerDay int `yaml:"max_meals_per_day"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Health  HealthConfig  `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks password and DSN attributes.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "dietapi"
	Namespace string `yaml:"namespace"`

	// RequestDurationBuckets are the HTTP latency histogram buckets in
	// seconds.
	// Default: [0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are recorded and exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "dietapi"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the collector connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains readiness check configuration.
type HealthConfig struct {
	// CheckTimeout bounds each readiness check.
	// Default: 2s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
