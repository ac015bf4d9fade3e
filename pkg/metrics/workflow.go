package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// initWorkflowMetrics initializes card-generation workflow metrics.
func (m *Manager) initWorkflowMetrics(cfg Config) {
	m.workflowRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_runs_total",
			Help: "Total number of card workflow runs by final step",
		},
		[]string{"result"},
	)

	m.workflowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workflow_duration_seconds",
			Help:    "Card workflow duration in seconds",
			Buckets: cfg.WorkflowDurationBuckets,
		},
		[]string{"result"},
	)

	m.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workflow_stage_duration_seconds",
			Help:    "Duration of individual workflow stages in seconds",
			Buckets: cfg.StageDurationBuckets,
		},
		[]string{"stage", "outcome"},
	)

	m.workflowActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "workflow_active_count",
			Help: "Current number of running card workflows",
		},
	)

	m.registry.MustRegister(m.workflowRuns)
	m.registry.MustRegister(m.workflowDuration)
	m.registry.MustRegister(m.stageDuration)
	m.registry.MustRegister(m.workflowActive)
}

// RecordWorkflowRun records a finished run and its duration.
func (m *Manager) RecordWorkflowRun(result string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.workflowRuns.WithLabelValues(result).Inc()
	m.workflowDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordStageDuration records one stage execution. outcome is ok, soft_fail or failed.
func (m *Manager) RecordStageDuration(stage, outcome string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.stageDuration.WithLabelValues(stage, outcome).Observe(duration.Seconds())
}

// IncActiveWorkflows increments the running workflow gauge.
func (m *Manager) IncActiveWorkflows() {
	if !m.enabled {
		return
	}
	m.workflowActive.Inc()
}

// DecActiveWorkflows decrements the running workflow gauge.
func (m *Manager) DecActiveWorkflows() {
	if !m.enabled {
		return
	}
	m.workflowActive.Dec()
}
