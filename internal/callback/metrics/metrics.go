package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	URLOpensTotal            prometheus.Counter
	ValidationFailuresTotal  *prometheus.CounterVec
	SessionsEstablishedTotal *prometheus.CounterVec
	ProviderFailuresTotal    prometheus.Counter
	HandleDurationSeconds    prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		URLOpensTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkgate_callback_url_opens_total",
			Help: "Total number of deep-link URL open events received",
		}),
		ValidationFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "linkgate_callback_validation_failures_total",
			Help: "Total number of rejected deep links by reason code",
		}, []string{"reason"}),
		SessionsEstablishedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "linkgate_callback_sessions_established_total",
			Help: "Total number of sessions established through validated deep links, by flow",
		}, []string{"flow"}),
		ProviderFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkgate_callback_provider_failures_total",
			Help: "Total number of session handoffs rejected by the identity provider",
		}),
		HandleDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "linkgate_callback_handle_duration_seconds",
			Help: "Duration of one pass through the callback state machine",
		}),
	}
}

func (m *Metrics) IncrementURLOpens() {
	m.URLOpensTotal.Inc()
}

func (m *Metrics) IncrementValidationFailures(reason string) {
	m.ValidationFailuresTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementSessionsEstablished(flow string) {
	m.SessionsEstablishedTotal.WithLabelValues(flow).Inc()
}

func (m *Metrics) IncrementProviderFailures() {
	m.ProviderFailuresTotal.Inc()
}

func (m *Metrics) ObserveHandleDuration(seconds float64) {
	m.HandleDurationSeconds.Observe(seconds)
}
