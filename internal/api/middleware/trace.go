package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
)

// TraceMiddleware assigns a trace ID to every request and stores a
// trace-scoped logger in the request context so downstream log entries
// can be correlated with error responses.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())

		traceID := shared.GetTraceID(ctx)
		reqLogger := logger.FromContext(ctx).With(
			slog.String("trace_id", traceID),
		)
		ctx = logger.WithLogger(ctx, reqLogger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
