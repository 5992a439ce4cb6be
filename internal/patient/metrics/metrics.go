package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the patient workflows, the billing call
// and event delivery. All methods are safe on a nil receiver.
type Metrics struct {
	// Terminal workflow states by operation (create, update, delete).
	WorkflowOutcome *prometheus.CounterVec
	WorkflowLatency *prometheus.HistogramVec

	// Billing calls by outcome: provisioned, unavailable, rejected.
	BillingCalls    *prometheus.CounterVec
	BillingDuration prometheus.Histogram

	PublishAttempts  prometheus.Counter
	PublishAcked     *prometheus.CounterVec
	PublishFailed    *prometheus.CounterVec
	PublishQueueSize prometheus.Gauge
}

// New registers the metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		WorkflowOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "patient_workflow_outcomes_total",
			Help: "Patient workflows by operation and terminal state",
		}, []string{"operation", "state"}),
		WorkflowLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "patient_workflow_duration_seconds",
			Help:    "Duration of the synchronous part of a patient workflow",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		BillingCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "patient_billing_calls_total",
			Help: "Billing account creation calls by outcome",
		}, []string{"outcome"}),
		BillingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "patient_billing_call_duration_seconds",
			Help:    "Duration of billing account creation calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		PublishAttempts: f.NewCounter(prometheus.CounterOpts{
			Name: "patient_event_publish_attempts_total",
			Help: "Event delivery attempts including retries",
		}),
		PublishAcked: f.NewCounterVec(prometheus.CounterOpts{
			Name: "patient_events_acked_total",
			Help: "Events acknowledged by the broker by event type",
		}, []string{"event_type"}),
		PublishFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "patient_events_failed_total",
			Help: "Events dead-lettered by event type and reason",
		}, []string{"event_type", "reason"}),
		PublishQueueSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "patient_event_queue_depth",
			Help: "Events accepted but not yet delivered",
		}),
	}
}

func (m *Metrics) ObserveWorkflow(operation, state string, d time.Duration) {
	if m == nil {
		return
	}
	m.WorkflowOutcome.WithLabelValues(operation, state).Inc()
	m.WorkflowLatency.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) ObserveBillingCall(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.BillingCalls.WithLabelValues(outcome).Inc()
	m.BillingDuration.Observe(d.Seconds())
}

func (m *Metrics) IncPublishAttempt() {
	if m != nil {
		m.PublishAttempts.Inc()
	}
}

func (m *Metrics) IncPublishAcked(eventType string) {
	if m != nil {
		m.PublishAcked.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) IncPublishFailed(eventType, reason string) {
	if m != nil {
		m.PublishFailed.WithLabelValues(eventType, reason).Inc()
	}
}

// AddQueued moves the queue depth gauge by delta.
func (m *Metrics) AddQueued(delta int) {
	if m != nil {
		m.PublishQueueSize.Add(float64(delta))
	}
}
