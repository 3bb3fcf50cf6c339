package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dietapi.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:9090"
  read_timeout: "60s"
  compression: false

database:
  driver: postgres
  host: db.internal
  user: diet
  name: nutrition
  pool_size: 4

aggregate:
  strategy: joined
  max_days: 7

telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9090" {
		t.Errorf("expected listen address %q, got %q", "127.0.0.1:9090", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Server.Compression {
		t.Error("expected compression to stay disabled")
	}
	if !cfg.Server.CORS.Enabled {
		t.Error("expected CORS to keep its default when absent from the file")
	}
	if cfg.Database.Port != DefaultPostgresPort {
		t.Errorf("expected postgres default port, got %d", cfg.Database.Port)
	}
	if cfg.Database.PoolSize != 4 {
		t.Errorf("expected pool size 4, got %d", cfg.Database.PoolSize)
	}
	if cfg.Aggregate.Strategy != "joined" || cfg.Aggregate.MaxDays != 7 {
		t.Errorf("unexpected aggregate config %+v", cfg.Aggregate)
	}
	if cfg.Aggregate.MaxMealsPerDay != DefaultMaxMealsPerDay {
		t.Errorf("expected default max meals, got %d", cfg.Aggregate.MaxMealsPerDay)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected defaults without a config file, got %v", err)
	}

	want := Default()
	if cfg.Server.ListenAddress != want.Server.ListenAddress || cfg.Database.Driver != DefaultDatabaseDriver {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if cfg.Database.Port != DefaultMySQLPort {
		t.Errorf("expected mysql port %d, got %d", DefaultMySQLPort, cfg.Database.Port)
	}
	if cfg.Database.KeepaliveSchedule != DefaultKeepaliveSchedule {
		t.Errorf("expected default keepalive schedule, got %q", cfg.Database.KeepaliveSchedule)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: oracle
aggregate:
  strategy: parallel
`)

	_, err := LoadConfig(path)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(verr.Errors), verr)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "legacy database variables",
			env: map[string]string{
				"DB_HOST":     "mysql.local",
				"DB_USER":     "diet",
				"DB_PASSWORD": "s3cret",
				"DB_NAME":     "diet_prod",
				"DB_PORT":     "3307",
			},
			check: func(t *testing.T, cfg *Config) {
				db := cfg.Database
				if db.Host != "mysql.local" || db.User != "diet" || db.Password != "s3cret" || db.Name != "diet_prod" || db.Port != 3307 {
					t.Errorf("unexpected database config %+v", db)
				}
			},
		},
		{
			name: "legacy port keeps the host",
			env:  map[string]string{"PORT": "9000"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.ListenAddress != "0.0.0.0:9000" {
					t.Errorf("expected 0.0.0.0:9000, got %q", cfg.Server.ListenAddress)
				}
			},
		},
		{
			name: "prefixed variable wins",
			env: map[string]string{
				"DB_HOST":               "legacy",
				"DIETAPI_DATABASE_HOST": "modern",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Database.Host != "modern" {
					t.Errorf("expected modern, got %q", cfg.Database.Host)
				}
			},
		},
		{
			name: "empty password is honored",
			env:  map[string]string{"DB_PASSWORD": ""},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Database.Password != "" {
					t.Errorf("expected empty password, got %q", cfg.Database.Password)
				}
			},
		},
		{
			name: "typed values",
			env: map[string]string{
				"DIETAPI_DATABASE_POOL_SIZE":          "8",
				"DIETAPI_DATABASE_QUERY_TIMEOUT":      "2s",
				"DIETAPI_DATABASE_REQUIRE_CONNECTION": "true",
				"DIETAPI_SERVER_COMPRESSION":          "false",
				"DIETAPI_AGGREGATE_MAX_MEALS_PER_DAY": "10",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Database.PoolSize != 8 || cfg.Database.QueryTimeout != 2*time.Second || !cfg.Database.RequireConnection {
					t.Errorf("unexpected database config %+v", cfg.Database)
				}
				if cfg.Server.Compression {
					t.Error("expected compression disabled")
				}
				if cfg.Aggregate.MaxMealsPerDay != 10 {
					t.Errorf("expected 10 meals per day, got %d", cfg.Aggregate.MaxMealsPerDay)
				}
			},
		},
		{
			name: "admission limits",
			env: map[string]string{
				"DIETAPI_SERVER_LIMITS_REQUESTS_PER_SECOND": "12.5",
				"DIETAPI_SERVER_LIMITS_BURST":               "20",
				"DIETAPI_SERVER_LIMITS_MAX_IN_FLIGHT":       "4",
			},
			check: func(t *testing.T, cfg *Config) {
				want := LimitsConfig{RequestsPerSecond: 12.5, Burst: 20, MaxInFlight: 4}
				if cfg.Server.Limits != want {
					t.Errorf("limits = %+v, want %+v", cfg.Server.Limits, want)
				}
			},
		},
		{
			name: "unparsable values are ignored",
			env:  map[string]string{"DIETAPI_DATABASE_POOL_SIZE": "many"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Database.PoolSize != DefaultPoolSize {
					t.Errorf("expected default pool size, got %d", cfg.Database.PoolSize)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Database.Password = "from-file"
			applyEnvOverrides(cfg, func(key string) (string, bool) {
				val, ok := tt.env[key]
				return val, ok
			})
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  host: from-file
`)
	t.Setenv("DB_HOST", "from-env")
	t.Setenv("DIETAPI_DATABASE_DRIVER", "postgres")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides: %v", err)
	}
	if cfg.Database.Host != "from-env" {
		t.Errorf("expected env host, got %q", cfg.Database.Host)
	}
	if cfg.Database.Port != DefaultPostgresPort {
		t.Errorf("expected the default port of the env-selected driver, got %d", cfg.Database.Port)
	}
}

func TestWithPort(t *testing.T) {
	tests := []struct {
		addr, port, want string
	}{
		{"127.0.0.1:8080", "9000", "127.0.0.1:9000"},
		{":8080", "9000", "0.0.0.0:9000"},
		{"", "9000", "0.0.0.0:9000"},
		{"[::1]:8080", "9000", "[::1]:9000"},
	}
	for _, tt := range tests {
		if got := withPort(tt.addr, tt.port); got != tt.want {
			t.Errorf("withPort(%q, %q) = %q, want %q", tt.addr, tt.port, got, tt.want)
		}
	}
}

func TestSingleton(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	path := writeConfig(t, "aggregate:\n  max_days: 3\n")
	cfg, err := Initialize(path)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if GetConfig() != cfg {
		t.Error("GetConfig did not return the initialized configuration")
	}

	if err := os.WriteFile(path, []byte("aggregate:\n  strategy: nope\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReloadConfig(path); err == nil {
		t.Fatal("expected reload of an invalid file to fail")
	}
	if GetConfig() != cfg {
		t.Error("failed reload replaced the configuration")
	}
}
