package output

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriterJQStringsPrintRaw(t *testing.T) {
	code, err := CompileJQ(".data[].title")
	if err != nil {
		t.Fatalf("CompileJQ: %v", err)
	}

	var buf bytes.Buffer
	w := New(Options{Format: FormatStyled, JQ: code, Writer: &buf})
	if err := w.OK([]map[string]any{{"id": 603, "title": "The Matrix"}, {"id": 949, "title": "Heat"}}); err != nil {
		t.Fatalf("OK: %v", err)
	}
	if got := buf.String(); got != "The Matrix\nHeat\n" {
		t.Errorf("jq output = %q", got)
	}
}

func TestWriterJQNonStringResults(t *testing.T) {
	code, err := CompileJQ("[.data[].id] | length")
	if err != nil {
		t.Fatalf("CompileJQ: %v", err)
	}

	var buf bytes.Buffer
	w := New(Options{JQ: code, Writer: &buf})
	if err := w.OK([]map[string]any{{"id": 1}, {"id": 2}}); err != nil {
		t.Fatalf("OK: %v", err)
	}
	if got := buf.String(); got != "2\n" {
		t.Errorf("jq output = %q", got)
	}
}

func TestWriterJQAppliesToErrors(t *testing.T) {
	code, err := CompileJQ(".code")
	if err != nil {
		t.Fatalf("CompileJQ: %v", err)
	}

	var buf bytes.Buffer
	w := New(Options{JQ: code, Writer: &buf})
	if err := w.Err(ErrAuth("No TMDB API token configured")); err != nil {
		t.Fatalf("Err: %v", err)
	}
	if got := buf.String(); got != CodeAuth+"\n" {
		t.Errorf("jq output = %q", got)
	}
}

func TestCompileJQInvalid(t *testing.T) {
	_, err := CompileJQ(".data[")
	var e *Error
	if !errors.As(err, &e) || e.Code != CodeUsage {
		t.Fatalf("CompileJQ error = %v, want usage error", err)
	}
}

func TestWriterJQRuntimeError(t *testing.T) {
	code, err := CompileJQ(".data | keys")
	if err != nil {
		t.Fatalf("CompileJQ: %v", err)
	}

	var buf bytes.Buffer
	w := New(Options{JQ: code, Writer: &buf})
	if err := w.OK("not an object"); err == nil {
		t.Error("expected a jq runtime error")
	}
}
