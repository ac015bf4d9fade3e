package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func (m *Manager) initGenAIMetrics(cfg Config) {
	m.genaiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_requests_total",
			Help: "Generation gateway calls by operation and whether the result was parsed or a fallback",
		},
		[]string{"operation", "outcome"},
	)

	m.genaiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genai_request_duration_seconds",
			Help:    "Generation gateway call latency in seconds",
			Buckets: cfg.GenAIDurationBuckets,
		},
		[]string{"operation"},
	)

	m.registry.MustRegister(m.genaiRequests)
	m.registry.MustRegister(m.genaiDuration)
}

// RecordGeneration records one gateway operation.
func (m *Manager) RecordGeneration(operation, outcome string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.genaiRequests.WithLabelValues(operation, outcome).Inc()
	m.genaiDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
