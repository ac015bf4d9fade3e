package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func (m *Manager) initLaneMetrics(cfg Config) {
	m.laneQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lane_queue_depth",
			Help: "Calls waiting for a worker slot in a lane",
		},
		[]string{"lane_name"},
	)

	m.laneWaitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lane_wait_duration_seconds",
			Help:    "Time calls spend waiting before they start",
			Buckets: cfg.LaneWaitBuckets,
		},
		[]string{"lane_name"},
	)

	m.laneThroughput = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lane_throughput_total",
			Help: "Total number of calls executed by a lane",
		},
		[]string{"lane_name"},
	)

	m.laneDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lane_dropped_total",
			Help: "Calls rejected because the lane queue was full",
		},
		[]string{"lane_name"},
	)

	m.registry.MustRegister(m.laneQueueDepth)
	m.registry.MustRegister(m.laneWaitDuration)
	m.registry.MustRegister(m.laneThroughput)
	m.registry.MustRegister(m.laneDropped)
}

// IncQueueDepth increments the queue depth for a lane.
func (m *Manager) IncQueueDepth(laneName string) {
	if !m.enabled {
		return
	}
	m.laneQueueDepth.WithLabelValues(laneName).Inc()
}

// DecQueueDepth decrements the queue depth for a lane.
func (m *Manager) DecQueueDepth(laneName string) {
	if !m.enabled {
		return
	}
	m.laneQueueDepth.WithLabelValues(laneName).Dec()
}

// RecordWaitDuration records the time a call spent waiting in a lane.
func (m *Manager) RecordWaitDuration(laneName string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.laneWaitDuration.WithLabelValues(laneName).Observe(duration.Seconds())
}

// RecordThroughput records a call executed by a lane.
func (m *Manager) RecordThroughput(laneName string) {
	if !m.enabled {
		return
	}
	m.laneThroughput.WithLabelValues(laneName).Inc()
}

// RecordDropped records a call rejected by a full lane.
func (m *Manager) RecordDropped(laneName string) {
	if !m.enabled {
		return
	}
	m.laneDropped.WithLabelValues(laneName).Inc()
}
