// Package config loads, validates and hot-reloads the service configuration.
//
// # Configuration Loading
//
// Configuration comes from an optional YAML file:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("dietapi.yaml")
//
// An empty path reads dietapi.yaml from the working directory when present
// and otherwise starts from defaults, so the service runs with no file at
// all.
//
// # Environment Variable Overrides
//
// Structured overrides follow DIETAPI_SECTION_FIELD:
//
//   - DIETAPI_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - DIETAPI_DATABASE_DRIVER overrides database.driver
//   - DIETAPI_AGGREGATE_STRATEGY overrides aggregate.strategy
//   - DIETAPI_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//   - DIETAPI_TELEMETRY_TRACING_ENABLED overrides telemetry.tracing.enabled
//   - DIETAPI_SERVER_LIMITS_MAX_IN_FLIGHT overrides server.limits.max_in_flight
//
// The unprefixed DB_HOST, DB_USER, DB_PASSWORD, DB_NAME, DB_PORT and PORT
// are honored as well; a prefixed variable wins over its unprefixed
// counterpart.
//
// # Configuration Precedence
//
//  1. Values from the YAML file
//  2. Environment variable overrides
//  3. Default values (defined in defaults.go) for anything still unset
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// Watcher observes the file with fsnotify and passes each valid reloaded
// configuration to registered callbacks. The run command uses it to change
// the log level without a restart.
package config
