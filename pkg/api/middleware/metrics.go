package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MetricsRecorder defines the interface for recording HTTP metrics.
type MetricsRecorder interface {
	RecordHTTPRequestContext(ctx context.Context, method, path, status string, duration time.Duration)
	IncActiveConnections()
	DecActiveConnections()
}

// Metrics returns a middleware that records HTTP metrics. Paths are
// labelled with the chi route pattern to keep cardinality bounded.
func Metrics(recorder MetricsRecorder, metricsPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metricsPath != "" && r.URL.Path == metricsPath {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			recorder.IncActiveConnections()
			defer recorder.DecActiveConnections()

			rec := newStatusRecorder(w)
			record := func(status int) {
				recorder.RecordHTTPRequestContext(r.Context(), r.Method, routeLabel(r), strconv.Itoa(status), time.Since(start))
			}

			defer func() {
				if rv := recover(); rv != nil {
					record(http.StatusInternalServerError)
					panic(rv)
				}
			}()

			next.ServeHTTP(rec, r)
			record(rec.status)
		})
	}
}

func routeLabel(r *http.Request) string {
	if route := routePattern(r); route != r.URL.Path {
		return route
	}
	return normalizePath(r.URL.Path)
}

// normalizePath replaces UUIDs and numeric segments with ":id" for
// requests that did not match a route.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if len(part) == 36 && strings.Count(part, "-") == 4 {
			parts[i] = ":id"
			continue
		}
		if _, err := strconv.Atoi(part); err == nil && part != "" {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
