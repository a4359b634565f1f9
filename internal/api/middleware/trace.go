package middleware

import (
	"log/slog"
	"net/http"

	"github.com/smartlearn/smartlearn-api/internal/api/shared"
	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
)

// TraceHeader echoes the request's trace ID back to the client.
const TraceHeader = "X-Trace-ID"

// TraceMiddleware gives each request a trace ID and a logger tagged with it.
// Apply it before any middleware that logs or writes errors.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		traceID := shared.GetTraceID(ctx)
		ctx = logger.WithTraceID(ctx, traceID)

		w.Header().Set(TraceHeader, traceID)
		logger.FromContext(ctx).Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
