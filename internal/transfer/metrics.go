package transfer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records transfer outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	outcomes *prometheus.CounterVec
	retries  prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics registers the transfer collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gemwallet",
			Subsystem: "transfer",
			Name:      "outcomes_total",
			Help:      "Transfers by final outcome.",
		}, []string{"outcome"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gemwallet",
			Subsystem: "transfer",
			Name:      "lock_retries_total",
			Help:      "Transfer attempts retried after a wallet lock conflict.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gemwallet",
			Subsystem: "transfer",
			Name:      "duration_seconds",
			Help:      "Wall time of a transfer including retries.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.outcomes, m.retries, m.duration)
	return m
}

func (m *Metrics) observe(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String()
	}
	m.outcomes.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) retried() {
	if m == nil {
		return
	}
	m.retries.Inc()
}
