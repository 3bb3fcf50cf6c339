package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"nutrition-hq/dietapi/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid JSON config",
			config: Config{Level: "info", Format: "json", RedactSecrets: true},
		},
		{
			name:   "valid text config",
			config: Config{Level: "debug", Format: "text"},
		},
		{
			name:   "defaults",
			config: Config{},
		},
		{
			name:   "case insensitive",
			config: Config{Level: "WARNING", Format: "TEXT"},
		},
		{
			name:    "invalid log level",
			config:  Config{Level: "invalid", Format: "json"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "info", Format: "console"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}

			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Fatal("expected non-nil logger")
			}
		})
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.LoggingConfig{Level: "warn", Format: "text", AddSource: true, RedactSecrets: true})
	if cfg.Level != "warn" || cfg.Format != "text" || !cfg.AddSource || !cfg.RedactSecrets {
		t.Errorf("unexpected conversion %+v", cfg)
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		records = append(records, rec)
	}
	return records
}

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.With("component", "catalog").Info("foods listed", "count", 3)

	records := decodeLines(t, buf)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec["msg"] != "foods listed" || rec["component"] != "catalog" || rec["count"] != float64(3) {
		t.Errorf("unexpected record %v", rec)
	}
	if rec["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", rec["level"])
	}
}

func TestLogger_TextOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "text", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Slog().Info("server started", "addr", ":8080")

	out := buf.String()
	if !strings.Contains(out, `msg="server started"`) || !strings.Contains(out, "addr=:8080") {
		t.Errorf("unexpected text output %q", out)
	}
}

func TestLogger_SetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "warn", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}
	child := logger.With("component", "pool")

	child.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}

	if err := logger.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	if logger.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want debug", logger.Level())
	}

	child.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("derived logger did not pick up the new level")
	}

	if err := logger.SetLevel("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
	if logger.Level() != slog.LevelDebug {
		t.Error("failed SetLevel changed the level")
	}
}

func TestLogger_AddSource(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{AddSource: true, Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Slog().Info("with source")

	records := decodeLines(t, buf)
	if _, ok := records[0][slog.SourceKey]; !ok {
		t.Errorf("expected a %q field, got %v", slog.SourceKey, records[0])
	}
}

func TestLogger_Install(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	buf := &bytes.Buffer{}
	logger, err := New(Config{Writer: buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Install()

	Component("bulk").Info("batch applied")

	records := decodeLines(t, buf)
	if len(records) != 1 || records[0]["component"] != "bulk" {
		t.Errorf("unexpected records %v", records)
	}
}

func TestLogger_ContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithRoute(WithRequestID(context.Background(), "req-123"), "foods")
	logger.With("component", "api").InfoContext(ctx, "handled")
	logger.Slog().Info("no context")

	records := decodeLines(t, buf)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["request_id"] != "req-123" || records[0]["route"] != "foods" {
		t.Errorf("context fields missing: %v", records[0])
	}
	if _, ok := records[1]["request_id"]; ok {
		t.Errorf("unexpected request_id without context: %v", records[1])
	}
}

func TestLogger_TraceID(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x0a, 0x0b, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14},
		SpanID:     trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	logger.Slog().InfoContext(ctx, "traced")

	records := decodeLines(t, buf)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if got, want := records[0]["trace_id"], sc.TraceID().String(); got != want {
		t.Errorf("trace_id = %v, want %s", got, want)
	}
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" || GetRoute(ctx) != "" {
		t.Error("expected empty values from a bare context")
	}

	ctx = WithRequestID(ctx, "a")
	ctx = WithRequestID(ctx, "b")
	if got := GetRequestID(ctx); got != "b" {
		t.Errorf("request id = %q, want b", got)
	}
}

func BenchmarkLogger_Filtered(b *testing.B) {
	logger, _ := New(Config{Level: "error", Writer: &bytes.Buffer{}})
	log := logger.Slog()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		log.Debug("filtered", "i", i)
	}
}
