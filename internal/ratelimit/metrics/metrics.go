package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AuthFailuresTotal      prometheus.Counter
	AuthLockoutsTotal      prometheus.Counter
	CleanupRemovedTotal    prometheus.Counter
	CleanupRunsTotal       *prometheus.CounterVec
	CleanupDurationSeconds prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		AuthFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkgate_ratelimit_auth_failures_total",
			Help: "Total number of failed authentication attempts recorded",
		}),
		AuthLockoutsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkgate_ratelimit_auth_lockouts_total",
			Help: "Total number of identifiers blocked for exceeding the attempt limit",
		}),
		CleanupRemovedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkgate_ratelimit_cleanup_removed_total",
			Help: "Total number of stale attempt records removed by the cleanup worker",
		}),
		CleanupRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "linkgate_ratelimit_cleanup_runs_total",
			Help: "Total number of cleanup runs",
		}, []string{"status"}),
		CleanupDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "linkgate_ratelimit_cleanup_duration_seconds",
			Help: "Duration of cleanup runs in seconds",
		}),
	}
}

func (m *Metrics) IncrementFailures() {
	m.AuthFailuresTotal.Inc()
}

func (m *Metrics) IncrementLockouts() {
	m.AuthLockoutsTotal.Inc()
}

func (m *Metrics) IncrementCleanupRemoved(count int) {
	m.CleanupRemovedTotal.Add(float64(count))
}

func (m *Metrics) IncrementCleanupRuns(status string) {
	m.CleanupRunsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveCleanupDuration(durationSeconds float64) {
	m.CleanupDurationSeconds.Observe(durationSeconds)
}
