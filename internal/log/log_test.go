package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentImport, Format: "json", Output: &buf})
	logger.Info("batch done", FieldCreatedCount, 2)

	out := buf.String()
	if !strings.Contains(out, `"component":"import"`) {
		t.Errorf("missing component in %s", out)
	}
	if !strings.Contains(out, `"created_count":2`) {
		t.Errorf("missing field in %s", out)
	}
}

func TestLogFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentTransaction).
		WithTransaction(5, 1, 2, 3, "12.5").
		WithOperation(OpCreate)
	if f[FieldTransactionID] != int64(5) || f[FieldAmount] != "12.5" || f[FieldOperation] != OpCreate {
		t.Errorf("unexpected fields %v", f)
	}
	if len(f.ToSlice()) != len(f)*2 {
		t.Errorf("ToSlice length mismatch")
	}
	if _, ok := NewFields().WithError(nil)[FieldError]; ok {
		t.Errorf("nil error must not add a field")
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Output: &buf})

	var got *Logger
	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
			got.Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("logger not propagated: %+v", got)
	}
	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Errorf("request id missing from %q", buf.String())
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Errorf("expected fallback logger")
	}
}

func TestLogFieldsSkipEmptyStrings(t *testing.T) {
	f := NewFields().WithHTTPRequest(http.MethodGet, "/categories", "", "", "")
	if len(f) != 2 {
		t.Errorf("expected only method and path, got %v", f)
	}
}

func TestLogRequestFailed(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Format: "json", Output: &buf})
	r := httptest.NewRequest(http.MethodPost, "/transactions", nil)

	NewStructuredLogger(logger).LogRequestFailed(context.Background(), r, http.StatusInternalServerError, errors.New("disk full"))

	out := buf.String()
	for _, want := range []string{`"level":"ERROR"`, `"status_code":500`, `"error":"disk full"`, `"error_type":"internal_error"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}
