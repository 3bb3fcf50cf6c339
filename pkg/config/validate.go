package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"nutrition-hq/dietapi/pkg/dataengine"
	"nutrition-hq/dietapi/pkg/templates"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the whole configuration and returns a ValidationError
// holding every failed rule, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateAggregate(&cfg.Aggregate)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	} else if _, port, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: fmt.Sprintf("invalid listen address: %v", err)})
	} else if !validPort(port) {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: fmt.Sprintf("invalid port %q", port)})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must not be negative"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.idle_timeout", Message: "idle timeout must not be negative"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "shutdown timeout must not be negative"})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_header_bytes", Message: "max header bytes must be non-negative"})
	}
	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{Field: "server.max_body_bytes", Message: "max body bytes must be positive"})
	}
	if cfg.Limits.RequestsPerSecond < 0 {
		errs = append(errs, FieldError{Field: "server.limits.requests_per_second", Message: "rate must not be negative"})
	}
	if cfg.Limits.Burst < 0 {
		errs = append(errs, FieldError{Field: "server.limits.burst", Message: "burst must not be negative"})
	}
	if cfg.Limits.MaxInFlight < 0 {
		errs = append(errs, FieldError{Field: "server.limits.max_in_flight", Message: "max in flight must not be negative"})
	}

	return errs
}

func validPort(port string) bool {
	n, err := strconv.Atoi(port)
	return err == nil && n >= 0 && n <= 65535
}

func validateDatabase(cfg *DatabaseConfig) []FieldError {
	var errs []FieldError

	dialect, err := dataengine.DialectFor(cfg.Driver)
	if err != nil {
		errs = append(errs, FieldError{Field: "database.driver", Message: err.Error()})
	}

	switch dialect.Name {
	case dataengine.SQLite.Name, dataengine.SQLite3.Name:
		if cfg.Path == "" {
			errs = append(errs, FieldError{Field: "database.path", Message: "path is required for sqlite drivers"})
		}
	default:
		if cfg.Host == "" {
			errs = append(errs, FieldError{Field: "database.host", Message: "host is required"})
		}
		if cfg.Name == "" {
			errs = append(errs, FieldError{Field: "database.name", Message: "database name is required"})
		}
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		errs = append(errs, FieldError{Field: "database.port", Message: "port must be between 0 and 65535"})
	}
	if cfg.PoolSize < 1 {
		errs = append(errs, FieldError{Field: "database.pool_size", Message: "pool size must be at least 1"})
	}
	if cfg.AcquireTimeout < 0 {
		errs = append(errs, FieldError{Field: "database.acquire_timeout", Message: "acquire timeout must not be negative"})
	}
	if cfg.QueryTimeout < 0 {
		errs = append(errs, FieldError{Field: "database.query_timeout", Message: "query timeout must not be negative"})
	}
	if cfg.ConnectTimeout < 0 {
		errs = append(errs, FieldError{Field: "database.connect_timeout", Message: "connect timeout must not be negative"})
	}
	if cfg.KeepaliveSchedule != "" {
		if _, err := cron.ParseStandard(cfg.KeepaliveSchedule); err != nil {
			errs = append(errs, FieldError{Field: "database.keepalive_schedule", Message: fmt.Sprintf("invalid schedule: %v", err)})
		}
	}

	return errs
}

func validateAggregate(cfg *AggregateConfig) []FieldError {
	var errs []FieldError

	if _, err := templates.ParseStrategy(cfg.Strategy); err != nil {
		errs = append(errs, FieldError{Field: "aggregate.strategy", Message: err.Error()})
	}
	if cfg.MaxDays < 1 {
		errs = append(errs, FieldError{Field: "aggregate.max_days", Message: "max days must be at least 1"})
	}
	if cfg.MaxMealsPerDay < 1 {
		errs = append(errs, FieldError{Field: "aggregate.max_meals_per_day", Message: "max meals per day must be at least 1"})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn or error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "metrics path must start with /"})
	}
	for i := 1; i < len(cfg.Metrics.RequestDurationBuckets); i++ {
		if cfg.Metrics.RequestDurationBuckets[i] <= cfg.Metrics.RequestDurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.request_duration_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q (must be always, never or ratio)", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "sample ratio must be between 0.0 and 1.0"})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "endpoint is required when tracing is enabled"})
	}

	if cfg.Health.CheckTimeout < 0 {
		errs = append(errs, FieldError{Field: "telemetry.health.check_timeout", Message: "check timeout must not be negative"})
	}

	return errs
}
