package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// TraceIDKey is the attribute name under which request trace IDs are logged.
const TraceIDKey = "trace_id"

// WithLogger returns a copy of ctx carrying the given logger.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// WithTraceID derives a logger tagged with traceID from whatever logger ctx
// already carries and stores it back into the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	l := FromContext(ctx).With(slog.String(TraceIDKey, traceID))
	return WithLogger(ctx, l)
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// FromContextOrDefault returns the logger stored in ctx, falling back to the
// supplied component logger rather than the process default.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
