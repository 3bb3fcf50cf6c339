// Package dataengine owns the connection to the backing relational store.
//
// # Overview
//
// A Handle wraps exactly one live database session and serializes every
// statement issued through it. The lock is held for the whole round trip:
// the statement is sent, every result row is fetched into a Cursor, and only
// then is the session released to the next caller. Two statements are never
// in flight on the same session.
//
// A Pool holds N independent handles behind a bounded checkout. Acquiring a
// handle blocks until one is free or the configured acquire timeout elapses.
// A pool of size one behaves exactly like a single Handle.
//
// # Usage
//
//	h := dataengine.NewHandle(dataengine.HandleConfig{})
//	if err := h.Connect(ctx, creds); err != nil {
//	    // degraded: every statement now returns ErrNotConnected
//	}
//	defer h.Close()
//
//	cur, err := h.Query(ctx, "SELECT id, name FROM food_categories WHERE id = ?", 3)
//	if err != nil {
//	    return err
//	}
//	defer cur.Close()
//	for cur.Next() {
//	    row := cur.Row()
//	    fmt.Println(row.Int(0), row.String(1))
//	}
//
// # Drivers
//
// Statements are written with "?" placeholders. The Dialect rebinds them for
// drivers that use numbered placeholders. Supported drivers are mysql
// (default), postgres (pgx), sqlite (modernc, pure Go) and sqlite3 (mattn,
// requires cgo).
package dataengine
