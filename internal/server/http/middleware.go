package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helixir/pubmed-mcp/internal/observability"
)

// CorrelationIDHeader carries the request correlation ID in both directions.
const CorrelationIDHeader = "X-Correlation-ID"

// correlationIDMiddleware ensures every request has a correlation ID.
func correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		w.Header().Set(CorrelationIDHeader, correlationID)
		ctx := observability.WithRequestID(r.Context(), correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogMiddleware writes one log line per request.
func requestLogMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			level := zerolog.InfoLevel
			if r.URL.Path == HealthPath {
				level = zerolog.DebugLevel
			}
			reqLogger := observability.WithRequestContext(r.Context(), logger)
			reqLogger.WithLevel(level).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("ip", r.RemoteAddr).
				Int("response_bytes", ww.BytesWritten()).
				Msg("http request")
		})
	}
}
