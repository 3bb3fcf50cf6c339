package dataengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName matches the instrumentation name used by package tracing.
const tracerName = "nutrition-hq/dietapi"

// Engine is the statement interface handlers depend on.
type Engine interface {
	// Query runs a statement and returns its fully fetched result.
	Query(ctx context.Context, query string, args ...any) (*Cursor, error)

	// Execute runs a statement and returns the affected row count.
	Execute(ctx context.Context, query string, args ...any) (int64, error)

	// Ping verifies the session is alive.
	Ping(ctx context.Context) error

	// Dialect returns the SQL dialect of the connected driver.
	Dialect() Dialect

	Close() error
}

// Observer receives timing for every statement. The metrics collector
// implements it.
type Observer interface {
	// ObserveStatement is called once per statement. wait is the time spent
	// blocked on the session lock; duration covers send and fetch.
	ObserveStatement(kind string, wait, duration time.Duration, err error)

	// ObserveAcquire is called once per pooled checkout.
	ObserveAcquire(wait time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveStatement(string, time.Duration, time.Duration, error) {}
func (nopObserver) ObserveAcquire(time.Duration, error)                          {}

// HandleConfig configures a Handle.
type HandleConfig struct {
	// QueryTimeout bounds each statement. Zero means no timeout: a statement
	// blocks its caller until the engine answers.
	QueryTimeout time.Duration

	// Observer receives per-statement timing. Optional.
	Observer Observer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Handle owns exactly one live session with the data engine. All statements
// issued through it are mutually exclusive.
type Handle struct {
	mu      sync.Mutex
	db      *sql.DB
	conn    *sql.Conn
	dialect Dialect
	creds   Credentials
	closed  bool

	queryTimeout time.Duration
	observer     Observer
	logger       *slog.Logger
}

var _ Engine = (*Handle)(nil)

// NewHandle creates an unconnected handle.
func NewHandle(cfg HandleConfig) *Handle {
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{
		dialect:      MySQL,
		queryTimeout: cfg.QueryTimeout,
		observer:     observer,
		logger:       logger.With("component", "dataengine"),
	}
}

// Connect opens the session. On failure the handle stays usable in a
// degraded state where every statement returns ErrNotConnected, and the
// credentials are kept for Reconnect.
func (h *Handle) Connect(ctx context.Context, creds Credentials) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	dialect, err := DialectFor(creds.Driver)
	if err != nil {
		return &ConnectError{Driver: creds.Driver, Address: creds.Address(), Err: err}
	}
	h.dialect = dialect
	h.creds = creds
	h.closed = false

	return h.connectLocked(ctx)
}

// Reconnect drops the current session, if any, and opens a new one with the
// credentials of the last Connect call.
func (h *Handle) Reconnect(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrNotConnected
	}
	h.disconnectLocked()
	return h.connectLocked(ctx)
}

func (h *Handle) connectLocked(ctx context.Context) error {
	if h.conn != nil {
		return nil
	}

	db, err := sql.Open(h.dialect.DriverName, h.dialect.DSN(h.creds))
	if err != nil {
		return &ConnectError{Driver: h.dialect.Name, Address: h.creds.Address(), Err: err}
	}
	// One session only; the pool of database/sql is not used.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	conn, err := db.Conn(ctx)
	if err == nil {
		err = conn.PingContext(ctx)
		if err != nil {
			_ = conn.Close()
		}
	}
	if err != nil {
		_ = db.Close()
		return &ConnectError{Driver: h.dialect.Name, Address: h.creds.Address(), Err: err}
	}

	h.db = db
	h.conn = conn
	h.logger.Info("connected to data engine",
		"driver", h.dialect.Name,
		"address", h.creds.Address(),
	)
	return nil
}

func (h *Handle) disconnectLocked() {
	if h.conn != nil {
		_ = h.conn.Close()
		h.conn = nil
	}
	if h.db != nil {
		_ = h.db.Close()
		h.db = nil
	}
}

// Connected reports whether a session is open.
func (h *Handle) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn != nil
}

// Dialect returns the dialect selected by Connect.
func (h *Handle) Dialect() Dialect {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dialect
}

// Query sends the statement and fetches every row while holding the session.
func (h *Handle) Query(ctx context.Context, query string, args ...any) (*Cursor, error) {
	var cur *Cursor
	err := h.run(ctx, "query", func(ctx context.Context, conn *sql.Conn, q string) error {
		var err error
		cur, err = fetchAll(ctx, conn, q, args)
		return err
	}, query)
	if err != nil {
		return nil, err
	}
	return cur, nil
}

// Execute runs a write statement and returns the affected row count.
func (h *Handle) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	var affected int64
	err := h.run(ctx, "execute", func(ctx context.Context, conn *sql.Conn, q string) error {
		res, err := conn.ExecContext(ctx, q, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	}, query)
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// Ping checks the session under the same lock as statements.
func (h *Handle) Ping(ctx context.Context) error {
	return h.run(ctx, "ping", func(ctx context.Context, conn *sql.Conn, _ string) error {
		return conn.PingContext(ctx)
	}, "")
}

func (h *Handle) run(ctx context.Context, kind string, fn func(context.Context, *sql.Conn, string) error, query string) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+kind, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()
	h.mu.Lock()
	defer h.mu.Unlock()
	wait := time.Since(start)

	if h.conn == nil {
		h.observer.ObserveStatement(kind, wait, 0, ErrNotConnected)
		return ErrNotConnected
	}

	rebound := h.dialect.Rebind(query)
	span.SetAttributes(
		attribute.String("db.system", h.dialect.Name),
		attribute.String("db.operation.name", kind),
		attribute.Int64("db.session.wait_us", wait.Microseconds()),
	)
	if rebound != "" {
		span.SetAttributes(attribute.String("db.query.text", rebound))
	}

	if h.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.queryTimeout)
		defer cancel()
	}

	began := time.Now()
	err = fn(ctx, h.conn, rebound)
	h.observer.ObserveStatement(kind, wait, time.Since(began), err)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", kind, err)
		}
		h.logger.Warn("statement failed", "kind", kind, "error", err)
		return newQueryError(err)
	}
	return nil
}

// Close ends the session. Later statements return ErrNotConnected.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	if h.conn != nil {
		h.logger.Info("data engine connection closed")
	}
	h.disconnectLocked()
	return nil
}
