package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP holds the request metrics shared by every router.
type HTTP struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewHTTP creates and registers HTTP metrics on reg.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	f := promauto.With(reg)
	return &HTTP{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "patientcore_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
		Latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "patientcore_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "patientcore_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		}),
	}
}

// ObserveRequest records one finished request. Safe on a nil receiver.
func (m *HTTP) ObserveRequest(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.Latency.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *HTTP) TrackInFlight(delta float64) {
	if m == nil {
		return
	}
	m.InFlight.Add(delta)
}
