package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReactorMetrics holds Prometheus metrics for the event loop.
type ReactorMetrics struct {
	Clients      prometheus.Gauge
	Channels     prometheus.Gauge
	PingTimeouts prometheus.Counter
	TickDuration prometheus.Histogram
}

// NewReactorMetrics creates and registers event loop metrics on the given registry.
func NewReactorMetrics(reg prometheus.Registerer) *ReactorMetrics {
	m := &ReactorMetrics{
		Clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "clients",
			Help:      "Number of clients in the index, registered or not.",
		}),
		Channels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "channels",
			Help:      "Number of live channels.",
		}),
		PingTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "ping_timeouts_total",
			Help:      "Total number of clients dropped for unanswered PINGs.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "tick_duration_seconds",
			Help:      "Time spent handling events and housekeeping per loop tick.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
	}

	reg.MustRegister(m.Clients, m.Channels, m.PingTimeouts, m.TickDuration)
	return m
}

func (m *ReactorMetrics) Observe(clients, channels int, tick time.Duration) {
	if m == nil {
		return
	}
	m.Clients.Set(float64(clients))
	m.Channels.Set(float64(channels))
	m.TickDuration.Observe(tick.Seconds())
}

func (m *ReactorMetrics) PingTimedOut() {
	if m == nil {
		return
	}
	m.PingTimeouts.Inc()
}
