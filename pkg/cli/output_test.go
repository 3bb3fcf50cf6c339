package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

type latencyTable struct{}

func (latencyTable) Header() []string { return []string{"target", "p50_ms", "p99_ms"} }
func (latencyTable) Rows() [][]string {
	return [][]string{
		{"categories", "1.2", "4.0"},
		{"template_full", "3.5", "12.1"},
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"junit", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTextFormatter(t *testing.T) {
	t.Run("plain value", func(t *testing.T) {
		buf := &bytes.Buffer{}
		if err := (&TextFormatter{}).FormatTo(buf, "applied 4 statements"); err != nil {
			t.Fatalf("FormatTo() error = %v", err)
		}
		if buf.String() != "applied 4 statements\n" {
			t.Errorf("FormatTo() = %q", buf.String())
		}
	})

	t.Run("table", func(t *testing.T) {
		buf := &bytes.Buffer{}
		if err := (&TextFormatter{}).FormatTo(buf, latencyTable{}); err != nil {
			t.Fatalf("FormatTo() error = %v", err)
		}
		want := "target         p50_ms  p99_ms\n" +
			"categories     1.2     4.0\n" +
			"template_full  3.5     12.1\n"
		if buf.String() != want {
			t.Errorf("FormatTo() =\n%s\nwant\n%s", buf.String(), want)
		}
	})
}

func TestJSONFormatter(t *testing.T) {
	data := map[string]int{"total": 30, "failed": 0}

	for _, indent := range []bool{false, true} {
		buf := &bytes.Buffer{}
		if err := (&JSONFormatter{Indent: indent}).FormatTo(buf, data); err != nil {
			t.Fatalf("FormatTo() error = %v", err)
		}

		var got map[string]int
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if got["total"] != 30 {
			t.Errorf("total = %d", got["total"])
		}
		if indent != strings.Contains(buf.String(), "\n  ") {
			t.Errorf("indent = %v but output is %q", indent, buf.String())
		}
	}
}

func TestCSVFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&CSVFormatter{}).FormatTo(buf, latencyTable{}); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	want := "target,p50_ms,p99_ms\ncategories,1.2,4.0\ntemplate_full,3.5,12.1\n"
	if buf.String() != want {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), want)
	}

	if err := (&CSVFormatter{}).FormatTo(buf, "not a table"); err == nil {
		t.Error("expected error for non-tabular data")
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, "*cli.TextFormatter"},
		{FormatJSON, "*cli.JSONFormatter"},
		{FormatCSV, "*cli.CSVFormatter"},
		{"", "*cli.TextFormatter"},
	}

	for _, tt := range tests {
		got := NewFormatter(tt.format)
		if name := typeName(got); name != tt.want {
			t.Errorf("NewFormatter(%q) = %s, want %s", tt.format, name, tt.want)
		}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *TextFormatter:
		return "*cli.TextFormatter"
	case *JSONFormatter:
		return "*cli.JSONFormatter"
	case *CSVFormatter:
		return "*cli.CSVFormatter"
	}
	return "unknown"
}
