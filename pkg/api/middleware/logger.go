package middleware

import (
	"net/http"
	"time"

	"github.com/cardforge/cardforge/pkg/logger"
)

// Logger returns a middleware that writes one access log line per request.
// Server errors log at ERROR, client errors at WARN.
func Logger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"route", routePattern(r),
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"size", rec.size,
				"request_id", GetRequestID(r.Context()),
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			}

			ctx := r.Context()
			switch {
			case rec.status >= http.StatusInternalServerError:
				log.ErrorContext(ctx, "HTTP request", args...)
			case rec.status >= http.StatusBadRequest:
				log.WarnContext(ctx, "HTTP request", args...)
			default:
				log.InfoContext(ctx, "HTTP request", args...)
			}
		})
	}
}
