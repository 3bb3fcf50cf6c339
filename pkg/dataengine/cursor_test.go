package dataengine

import (
	"database/sql"
	"testing"
)

func cell(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

var null = sql.NullString{}

func TestRowCoercion(t *testing.T) {
	row := Row{cell("42"), null, cell("3.75"), cell("abc"), cell(" 7 "), cell("-12.9")}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"int cell", row.Int(0), 42},
		{"null int is zero", row.Int(1), 0},
		{"decimal int truncates", row.Int(2), 3},
		{"garbage int is zero", row.Int(3), 0},
		{"padded int", row.Int(4), 7},
		{"negative decimal truncates toward zero", row.Int(5), -12},
		{"out of range column", row.Int(10), 0},
		{"float cell", row.Float(2), 3.75},
		{"null float is zero", row.Float(1), 0.0},
		{"garbage float is zero", row.Float(3), 0.0},
		{"string cell", row.String(3), "abc"},
		{"null string is empty", row.String(1), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestCursor(t *testing.T) {
	t.Run("iterates rows in order", func(t *testing.T) {
		cur := NewCursor([]string{"id"}, []Row{{cell("1")}, {cell("2")}, {cell("3")}})
		defer cur.Close()

		var ids []int
		for cur.Next() {
			ids = append(ids, cur.Row().Int(0))
		}
		if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
			t.Errorf("ids = %v, want [1 2 3]", ids)
		}
	})

	t.Run("row before next is nil", func(t *testing.T) {
		cur := NewCursor([]string{"id"}, []Row{{cell("1")}})
		if cur.Row() != nil {
			t.Error("expected nil row before Next")
		}
		_ = cur.Close()
	})

	t.Run("second close is a no-op", func(t *testing.T) {
		cur := NewCursor(nil, nil)
		if err := cur.Close(); err != nil {
			t.Fatalf("first Close: %v", err)
		}
		if !cur.Closed() {
			t.Error("Closed() = false after Close")
		}
		if err := cur.Close(); err != nil {
			t.Errorf("second Close error = %v, want nil", err)
		}
		if !cur.Closed() {
			t.Error("Closed() = false after second Close")
		}
		if cur.Next() {
			t.Error("Next() after Close should be false")
		}
	})
}
