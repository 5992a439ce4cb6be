package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultRecorded  = "recorded"
	resultDuplicate = "duplicate"
	resultMalformed = "malformed"
	resultError     = "error"
)

type Metrics struct {
	Consumed *prometheus.CounterVec
	Lag      prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Consumed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "patientcore_analytics_events_consumed_total",
			Help: "Patient events consumed by event type and result",
		}, []string{"event_type", "result"}),
		Lag: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "patientcore_analytics_event_lag_seconds",
			Help:    "Delay between event occurrence and consumption",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 30, 120},
		}),
	}
}

func (m *Metrics) observe(eventType, result string) {
	if m == nil {
		return
	}
	m.Consumed.WithLabelValues(eventType, result).Inc()
}

func (m *Metrics) observeLag(seconds float64) {
	if m == nil || seconds < 0 {
		return
	}
	m.Lag.Observe(seconds)
}
