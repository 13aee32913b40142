package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/casetrack/pkg/logger"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
)

const TraceHeader = "X-Trace-ID"

// TraceID propagates the caller's X-Trace-ID, or mints one, and binds it to
// the request logger together with chi's request id.
func TraceID(fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceHeader)
			if traceID == "" {
				traceID = uuid.NewString()
			}

			fields := []any{"trace_id", traceID}
			if reqID := middleware.GetReqID(r.Context()); reqID != "" {
				fields = append(fields, "request_id", reqID)
			}
			ctx := logger.With(r.Context(), fallback, fields...)

			w.Header().Set(TraceHeader, traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
