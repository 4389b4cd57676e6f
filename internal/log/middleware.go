package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ctxKey struct{}

// IntoContext returns ctx carrying logger.
func IntoContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored by IntoContext, or a logger over
// slog.Default tagged with component "unknown".
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return logger
	}
	return newLogger(slog.Default(), "unknown")
}

// Middleware stores logger in every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(IntoContext(r.Context(), logger)))
		})
	}
}

// RequestIDMiddleware tags the request logger with the id returned by
// extractRequestID. It must run inside Middleware.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if id := extractRequestID(r); id != "" {
				ctx = IntoContext(ctx, FromContext(ctx).With(FieldRequestID, id))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StructuredLogger emits the fixed-shape records shared by the HTTP layer
// and the services: request start and end, transaction writes, import
// batches and failed requests.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.emit(ctx, slog.LevelDebug, "HTTP request started", fields)
}

// LogHTTPEnd logs at Info for 2xx/3xx, Warn for 4xx and Error for 5xx.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.emit(ctx, level, "HTTP request completed", fields)
}

func (sl *StructuredLogger) LogTransactionWritten(ctx context.Context, op string, id, ownerID, categoryID, typeID int64, amount string) {
	fields := NewFields().
		WithTransaction(id, ownerID, categoryID, typeID, amount).
		WithOperation(op).
		WithComponent(ComponentTransaction)

	sl.emit(ctx, slog.LevelInfo, "Transaction "+op+" succeeded", fields)
}

func (sl *StructuredLogger) LogImportCompleted(ctx context.Context, ownerID int64, batchID string, created, skipped int) {
	fields := NewFields().
		WithImport(batchID, created, skipped).
		WithOperation(OpImport).
		WithComponent(ComponentImport)
	fields[FieldUserID] = ownerID

	sl.emit(ctx, slog.LevelInfo, "CSV import completed", fields)
}

// LogRequestFailed records a request that ended in a server-side error.
func (sl *StructuredLogger) LogRequestFailed(ctx context.Context, r *http.Request, statusCode int, err error) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, "", "", "").
		WithErrorType(ErrorTypeInternal).
		WithError(err).
		WithComponent(ComponentHTTP)
	fields[FieldStatusCode] = statusCode

	sl.emit(ctx, slog.LevelError, "Request failed", fields)
}

// emit logs fields at level, moving a component field onto the logger.
func (sl *StructuredLogger) emit(ctx context.Context, level slog.Level, msg string, fields LogFields) {
	logger := sl.logger
	if c, ok := fields[FieldComponent].(string); ok {
		logger = logger.WithComponent(c)
		delete(fields, FieldComponent)
	}
	logger.Log(ctx, level, msg, fields.ToSlice()...)
}
