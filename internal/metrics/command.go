package metrics

import "github.com/prometheus/client_golang/prometheus"

// CommandMetrics holds Prometheus metrics for the command pipeline.
type CommandMetrics struct {
	Processed *prometheus.CounterVec
	Rejected  *prometheus.CounterVec
}

// NewCommandMetrics creates and registers command metrics on the given registry.
func NewCommandMetrics(reg prometheus.Registerer) *CommandMetrics {
	m := &CommandMetrics{
		Processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "processed_total",
			Help:      "Total number of dispatched commands by name.",
		}, []string{"command"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "rejected_total",
			Help:      "Total number of numeric error replies by code.",
		}, []string{"numeric"}),
	}

	reg.MustRegister(m.Processed, m.Rejected)
	return m
}

func (m *CommandMetrics) Dispatched(command string) {
	if m == nil {
		return
	}
	m.Processed.WithLabelValues(command).Inc()
}

func (m *CommandMetrics) Failed(numeric string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(numeric).Inc()
}
