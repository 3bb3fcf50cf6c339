package dataengine

import (
	"context"
	"database/sql"
	"math"
	"strconv"
	"strings"
)

// Row is one result row of nullable, string typed cells.
type Row []sql.NullString

// Valid reports whether column i is present and not NULL.
func (r Row) Valid(i int) bool {
	return i >= 0 && i < len(r) && r[i].Valid
}

// String returns column i, or "" for NULL.
func (r Row) String(i int) string {
	if !r.Valid(i) {
		return ""
	}
	return r[i].String
}

// Int returns column i as an integer. NULL and unparsable cells yield 0.
// Decimal text is truncated toward zero.
func (r Row) Int(i int) int {
	if !r.Valid(i) {
		return 0
	}
	s := strings.TrimSpace(r[i].String)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0
	}
	return int(f)
}

// Float returns column i as a float64. NULL and unparsable cells yield 0.
func (r Row) Float(i int) float64 {
	if !r.Valid(i) {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(r[i].String), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Cursor is a forward-only view over a fully fetched result set.
// It must be closed exactly once after its rows are consumed.
type Cursor struct {
	columns []string
	rows    []Row
	pos     int
	closed  bool
}

// NewCursor builds a cursor over already materialized rows. It is mostly
// useful to fake engines in tests.
func NewCursor(columns []string, rows []Row) *Cursor {
	return &Cursor{columns: columns, rows: rows, pos: -1}
}

// Columns returns the result column names.
func (c *Cursor) Columns() []string {
	return c.columns
}

// Len returns the total number of rows in the result.
func (c *Cursor) Len() int {
	return len(c.rows)
}

// Next advances to the next row.
func (c *Cursor) Next() bool {
	if c.closed || c.pos+1 >= len(c.rows) {
		return false
	}
	c.pos++
	return true
}

// Row returns the current row. It is only valid after Next returned true.
func (c *Cursor) Row() Row {
	if c.closed || c.pos < 0 || c.pos >= len(c.rows) {
		return nil
	}
	return c.rows[c.pos]
}

// Close releases the rows. Closing an already closed cursor does nothing.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.rows = nil
	return nil
}

// Closed reports whether Close has been called.
func (c *Cursor) Closed() bool {
	return c.closed
}

// fetchAll sends the statement and reads every row before returning, so the
// caller may release the session as soon as fetchAll returns.
func fetchAll(ctx context.Context, conn *sql.Conn, query string, args []any) (*Cursor, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []Row
	for rows.Next() {
		row := make(Row, len(columns))
		dest := make([]any, len(columns))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return NewCursor(columns, result), nil
}
