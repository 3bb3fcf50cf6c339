package dataengine

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotConnected is returned by statements issued before Connect
	// succeeds or after Close.
	ErrNotConnected = errors.New("data engine not connected")

	// ErrAcquireTimeout is returned when no pooled handle became free within
	// the acquire timeout.
	ErrAcquireTimeout = errors.New("timed out waiting for a data engine handle")
)

// ConnectError reports a failure to establish the session.
type ConnectError struct {
	Driver  string
	Address string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s %s: %v", e.Driver, e.Address, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// QueryError carries the backend's diagnostic for a failed statement.
type QueryError struct {
	// Code is the engine specific error code (MySQL error number or
	// Postgres SQLSTATE). Empty when the driver does not expose one.
	Code string

	// Message is the engine's diagnostic text.
	Message string

	Err error
}

func (e *QueryError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("query failed (%s): %s", e.Code, e.Message)
	}
	return "query failed: " + e.Message
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// newQueryError normalizes driver errors into a QueryError. Context errors
// and ErrNotConnected are returned unchanged.
func newQueryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotConnected) {
		return err
	}

	qe := &QueryError{Message: err.Error(), Err: err}

	var mysqlErr *mysql.MySQLError
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &mysqlErr):
		qe.Code = strconv.Itoa(int(mysqlErr.Number))
		qe.Message = mysqlErr.Message
	case errors.As(err, &pgErr):
		qe.Code = pgErr.Code
		qe.Message = pgErr.Message
	}
	return qe
}

// Diagnostic returns the text that may be shown to clients for err: the
// engine's own message for query failures, the error text otherwise.
func Diagnostic(err error) string {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Message
	}
	return err.Error()
}
