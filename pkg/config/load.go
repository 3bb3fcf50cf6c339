package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when no path is given. Its absence is not an
// error.
const DefaultConfigFile = "dietapi.yaml"

// EnvPrefix prefixes every structured environment override.
const EnvPrefix = "DIETAPI_"

// LoadConfig reads the YAML file at path over the built-in defaults and
// validates the result. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
//
// An empty path reads DefaultConfigFile if it exists and otherwise starts
// from defaults alone. A non-empty path must exist.
func LoadConfig(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration and applies environment
// variable overrides. The loading sequence is:
//
//  1. Decode the YAML file over the boolean defaults
//  2. Apply environment variable overrides
//  3. Apply default values to fields still unset
//  4. Validate the final configuration
//
// Overrides are applied before defaults so that a driver chosen through the
// environment still gets its own default port.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg, os.LookupEnv)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	optional := path == ""
	if optional {
		path = DefaultConfigFile
	}

	cfg := base()

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

// applyEnvOverrides applies the unprefixed variables understood by earlier
// deployments (DB_HOST, DB_USER, DB_PASSWORD, DB_NAME, DB_PORT, PORT) and
// then the DIETAPI_SECTION_FIELD variables, which win when both are set.
func applyEnvOverrides(cfg *Config, lookup lookupFunc) {
	get := func(key string) (string, bool) {
		val, ok := lookup(key)
		return val, ok && val != ""
	}

	// Legacy overrides
	if val, ok := get("DB_HOST"); ok {
		cfg.Database.Host = val
	}
	if val, ok := get("DB_USER"); ok {
		cfg.Database.User = val
	}
	// An empty DB_PASSWORD is a valid password.
	if val, ok := lookup("DB_PASSWORD"); ok {
		cfg.Database.Password = val
	}
	if val, ok := get("DB_NAME"); ok {
		cfg.Database.Name = val
	}
	if val, ok := get("DB_PORT"); ok {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Database.Port = i
		}
	}
	if val, ok := get("PORT"); ok {
		cfg.Server.ListenAddress = withPort(cfg.Server.ListenAddress, val)
	}

	// Server overrides
	if val, ok := get(EnvPrefix + "SERVER_LISTEN_ADDRESS"); ok {
		cfg.Server.ListenAddress = val
	}
	setDuration(get, EnvPrefix+"SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration(get, EnvPrefix+"SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	setDuration(get, EnvPrefix+"SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	setDuration(get, EnvPrefix+"SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	setInt(get, EnvPrefix+"SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)
	setInt(get, EnvPrefix+"SERVER_MAX_BODY_BYTES", &cfg.Server.MaxBodyBytes)
	setBool(get, EnvPrefix+"SERVER_COMPRESSION", &cfg.Server.Compression)
	setBool(get, EnvPrefix+"SERVER_CORS_ENABLED", &cfg.Server.CORS.Enabled)
	setFloat(get, EnvPrefix+"SERVER_LIMITS_REQUESTS_PER_SECOND", &cfg.Server.Limits.RequestsPerSecond)
	setInt(get, EnvPrefix+"SERVER_LIMITS_BURST", &cfg.Server.Limits.Burst)
	setInt(get, EnvPrefix+"SERVER_LIMITS_MAX_IN_FLIGHT", &cfg.Server.Limits.MaxInFlight)

	// Database overrides
	if val, ok := get(EnvPrefix + "DATABASE_DRIVER"); ok {
		cfg.Database.Driver = val
	}
	if val, ok := get(EnvPrefix + "DATABASE_HOST"); ok {
		cfg.Database.Host = val
	}
	setInt(get, EnvPrefix+"DATABASE_PORT", &cfg.Database.Port)
	if val, ok := get(EnvPrefix + "DATABASE_USER"); ok {
		cfg.Database.User = val
	}
	if val, ok := lookup(EnvPrefix + "DATABASE_PASSWORD"); ok {
		cfg.Database.Password = val
	}
	if val, ok := get(EnvPrefix + "DATABASE_NAME"); ok {
		cfg.Database.Name = val
	}
	if val, ok := get(EnvPrefix + "DATABASE_PATH"); ok {
		cfg.Database.Path = val
	}
	setInt(get, EnvPrefix+"DATABASE_POOL_SIZE", &cfg.Database.PoolSize)
	setDuration(get, EnvPrefix+"DATABASE_ACQUIRE_TIMEOUT", &cfg.Database.AcquireTimeout)
	setDuration(get, EnvPrefix+"DATABASE_QUERY_TIMEOUT", &cfg.Database.QueryTimeout)
	setDuration(get, EnvPrefix+"DATABASE_CONNECT_TIMEOUT", &cfg.Database.ConnectTimeout)
	if val, ok := lookup(EnvPrefix + "DATABASE_KEEPALIVE_SCHEDULE"); ok {
		cfg.Database.KeepaliveSchedule = val
	}
	setBool(get, EnvPrefix+"DATABASE_REQUIRE_CONNECTION", &cfg.Database.RequireConnection)

	// Aggregate overrides
	if val, ok := get(EnvPrefix + "AGGREGATE_STRATEGY"); ok {
		cfg.Aggregate.Strategy = val
	}
	setInt(get, EnvPrefix+"AGGREGATE_MAX_DAYS", &cfg.Aggregate.MaxDays)
	setInt(get, EnvPrefix+"AGGREGATE_MAX_MEALS_PER_DAY", &cfg.Aggregate.MaxMealsPerDay)

	// Telemetry overrides
	if val, ok := get(EnvPrefix + "TELEMETRY_LOGGING_LEVEL"); ok {
		cfg.Telemetry.Logging.Level = val
	}
	if val, ok := get(EnvPrefix + "TELEMETRY_LOGGING_FORMAT"); ok {
		cfg.Telemetry.Logging.Format = val
	}
	setBool(get, EnvPrefix+"TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	if val, ok := get(EnvPrefix + "TELEMETRY_METRICS_PATH"); ok {
		cfg.Telemetry.Metrics.Path = val
	}
	setBool(get, EnvPrefix+"TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	if val, ok := get(EnvPrefix + "TELEMETRY_TRACING_ENDPOINT"); ok {
		cfg.Telemetry.Tracing.Endpoint = val
	}
}

func setDuration(get lookupFunc, key string, dst *time.Duration) {
	if val, ok := get(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func setInt(get lookupFunc, key string, dst *int) {
	if val, ok := get(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setFloat(get lookupFunc, key string, dst *float64) {
	if val, ok := get(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(get lookupFunc, key string, dst *bool) {
	if val, ok := get(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

// withPort replaces the port of a listen address, keeping its host.
func withPort(addr, port string) string {
	host := ""
	if addr != "" {
		if h, _, err := net.SplitHostPort(addr); err == nil {
			host = h
		}
	}
	if host == "" {
		host = "0.0.0.0"
	}
	return net.JoinHostPort(host, port)
}
