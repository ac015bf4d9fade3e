package metrics

import "github.com/prometheus/client_golang/prometheus"

func (m *Manager) initSMSMetrics() {
	m.smsMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_messages_total",
			Help: "SMS send attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	m.smsRateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sms_rate_limited_total",
			Help: "SMS sends rejected by the per-destination rate limiter",
		},
	)

	m.registry.MustRegister(m.smsMessages)
	m.registry.MustRegister(m.smsRateLimited)
}

// RecordSMS records one send attempt.
func (m *Manager) RecordSMS(provider, outcome string) {
	if !m.enabled {
		return
	}
	m.smsMessages.WithLabelValues(provider, outcome).Inc()
}

// RecordSMSRateLimited records a send rejected by the rate limiter.
func (m *Manager) RecordSMSRateLimited() {
	if !m.enabled {
		return
	}
	m.smsRateLimited.Inc()
}
