// Package schema embeds the table definitions the service reads from, one
// file per dialect. The service never changes the schema on its own; Apply is
// used by the migrate command and by tests.
package schema

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"nutrition-hq/dietapi/pkg/dataengine"
)

var (
	//go:embed mysql.sql
	mysqlDDL string

	//go:embed postgres.sql
	postgresDDL string

	//go:embed sqlite.sql
	sqliteDDL string
)

// DDL returns the schema script for a dialect.
func DDL(d dataengine.Dialect) string {
	switch d.Name {
	case dataengine.Postgres.Name:
		return postgresDDL
	case dataengine.SQLite.Name, dataengine.SQLite3.Name:
		return sqliteDDL
	default:
		return mysqlDDL
	}
}

// Statements splits a script on semicolons that end a line.
func Statements(script string) []string {
	var stmts []string
	var cur strings.Builder
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSuffix(strings.TrimSpace(cur.String()), ";")
			stmts = append(stmts, stmt)
			cur.Reset()
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}

// Apply executes every statement of the dialect's script.
func Apply(ctx context.Context, engine dataengine.Engine) (int, error) {
	stmts := Statements(DDL(engine.Dialect()))
	for i, stmt := range stmts {
		if _, err := engine.Execute(ctx, stmt); err != nil {
			return i, fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return len(stmts), nil
}
