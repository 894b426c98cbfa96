package logger

import (
	"context"
	"log/slog"
)

// contextKey is an unexported type for context keys defined by this package
// to avoid collisions with keys defined elsewhere.
type contextKey int

// loggerKey is the context key under which the request-scoped logger is stored.
const loggerKey contextKey = iota

// WithLogger returns a copy of ctx carrying the given logger. Middleware uses
// this to attach a request-scoped logger (with trace_id and similar fields)
// that downstream code retrieves with FromContext.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger stored in ctx. If no logger is present it
// returns slog.Default, so callers can use the result unconditionally.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// FromContextOrDefault retrieves the logger stored in ctx, falling back to
// the provided default logger (rather than slog.Default) when absent. Stores
// and services pass their component logger as the fallback so log lines keep
// their component attribution outside of request handling.
func FromContextOrDefault(ctx context.Context, def *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	if def != nil {
		return def
	}
	return slog.Default()
}
