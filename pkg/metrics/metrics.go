// Package metrics provides Prometheus metrics instrumentation for cardforge.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for cardforge.
type Manager struct {
	registry *prometheus.Registry
	enabled  bool

	// Workflow metrics
	workflowRuns     *prometheus.CounterVec
	workflowDuration *prometheus.HistogramVec
	stageDuration    *prometheus.HistogramVec
	workflowActive   prometheus.Gauge

	// Generation gateway metrics
	genaiRequests *prometheus.CounterVec
	genaiDuration *prometheus.HistogramVec

	// Messaging metrics
	smsMessages    *prometheus.CounterVec
	smsRateLimited prometheus.Counter

	// Gift card metrics
	giftcardsIssued *prometheus.CounterVec

	// Lane metrics
	laneQueueDepth   *prometheus.GaugeVec
	laneWaitDuration *prometheus.HistogramVec
	laneThroughput   *prometheus.CounterVec
	laneDropped      *prometheus.CounterVec

	// HTTP metrics
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpConnections prometheus.Gauge
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool
	Port    int
	Path    string

	// Histogram bucket configurations
	WorkflowDurationBuckets []float64
	StageDurationBuckets    []float64
	GenAIDurationBuckets    []float64
	HTTPDurationBuckets     []float64
	LaneWaitBuckets         []float64
}

// DefaultConfig returns default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:                 true,
		Port:                    0,
		Path:                    "/metrics",
		WorkflowDurationBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30},
		StageDurationBuckets:    []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		GenAIDurationBuckets:    []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		HTTPDurationBuckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		LaneWaitBuckets:         []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}
}

// NewManager creates a new metrics manager.
func NewManager(cfg Config) *Manager {
	if !cfg.Enabled {
		return &Manager{enabled: false}
	}

	registry := prometheus.NewRegistry()

	// Register Go runtime metrics
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Manager{
		registry: registry,
		enabled:  true,
	}

	m.initWorkflowMetrics(cfg)
	m.initGenAIMetrics(cfg)
	m.initSMSMetrics()
	m.initGiftCardMetrics()
	m.initHTTPMetrics(cfg)
	m.initLaneMetrics(cfg)

	return m
}

// Enabled returns whether metrics collection is enabled.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Manager) Handler() http.Handler {
	if !m.enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// StartServer serves the metrics endpoint on its own port until ctx is done.
func (m *Manager) StartServer(ctx context.Context, port int, path string) error {
	if !m.enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	return server.ListenAndServe()
}

// NoOpManager returns a no-op metrics manager for when metrics are disabled.
func NoOpManager() *Manager {
	return &Manager{enabled: false}
}
