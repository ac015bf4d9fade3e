package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/cardforge/cardforge/pkg/api/response"
)

// readinessTimeout bounds each dependency check.
const readinessTimeout = 2 * time.Second

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	service     string
	environment string
	version     string
	checks      map[string]ReadinessCheck
	now         func() time.Time
}

// NewHealthHandler creates a new health handler. checks may be nil.
func NewHealthHandler(service, environment, version string, checks map[string]ReadinessCheck) *HealthHandler {
	return &HealthHandler{
		service:     service,
		environment: environment,
		version:     version,
		checks:      checks,
		now:         time.Now,
	}
}

// Health handles the /health endpoint (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"service":     h.service,
		"timestamp":   h.now().UTC().Format(time.RFC3339),
		"environment": h.environment,
		"version":     h.version,
	})
}

// Ready handles the /ready endpoint (readiness probe).
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ready := true
	results := make(map[string]string, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			ready = false
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, map[string]any{
		"ready":  ready,
		"checks": results,
	})
}
