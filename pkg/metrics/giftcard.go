package metrics

import "github.com/prometheus/client_golang/prometheus"

func (m *Manager) initGiftCardMetrics() {
	m.giftcardsIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftcards_issued_total",
			Help: "Gift cards issued by merchant and kind (standard, product)",
		},
		[]string{"merchant", "kind"},
	)

	m.registry.MustRegister(m.giftcardsIssued)
}

// RecordGiftCardIssued records one issued gift card.
func (m *Manager) RecordGiftCardIssued(merchant, kind string) {
	if !m.enabled {
		return
	}
	m.giftcardsIssued.WithLabelValues(merchant, kind).Inc()
}
