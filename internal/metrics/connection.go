package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// ConnectionMetrics holds Prometheus metrics for client sockets.
// A nil *ConnectionMetrics records nothing.
type ConnectionMetrics struct {
	Active         prometheus.Gauge
	Accepted       prometheus.Counter
	Disconnects    *prometheus.CounterVec
	TruncatedLines prometheus.Counter
	BytesRead      prometheus.Counter
	BytesWritten   prometheus.Counter
}

// NewConnectionMetrics creates and registers connection metrics on the given registry.
func NewConnectionMetrics(reg prometheus.Registerer) *ConnectionMetrics {
	m := &ConnectionMetrics{
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "active",
			Help:      "Number of open client connections.",
		}),
		Accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "accepted_total",
			Help:      "Total number of accepted client connections.",
		}),
		Disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "disconnects_total",
			Help:      "Total number of swept connections by reason.",
		}, []string{"reason"}),
		TruncatedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "truncated_lines_total",
			Help:      "Total number of inbound lines cut at the length limit.",
		}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "read_bytes_total",
			Help:      "Total bytes read from clients.",
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "written_bytes_total",
			Help:      "Total bytes written to clients.",
		}),
	}

	reg.MustRegister(m.Active, m.Accepted, m.Disconnects, m.TruncatedLines, m.BytesRead, m.BytesWritten)
	return m
}

func (m *ConnectionMetrics) Opened() {
	if m == nil {
		return
	}
	m.Accepted.Inc()
	m.Active.Inc()
}

func (m *ConnectionMetrics) Closed(reason string) {
	if m == nil {
		return
	}
	m.Active.Dec()
	m.Disconnects.WithLabelValues(ReasonLabel(reason)).Inc()
}

func (m *ConnectionMetrics) Truncated() {
	if m == nil {
		return
	}
	m.TruncatedLines.Inc()
}

func (m *ConnectionMetrics) Read(n int) {
	if m == nil {
		return
	}
	m.BytesRead.Add(float64(n))
}

func (m *ConnectionMetrics) Written(n int) {
	if m == nil {
		return
	}
	m.BytesWritten.Add(float64(n))
}

// ReasonLabel maps a free-form disconnect reason onto a bounded label set.
func ReasonLabel(reason string) string {
	switch {
	case strings.HasPrefix(reason, "Quit"):
		return "quit"
	case strings.HasPrefix(reason, "Ping timeout"):
		return "ping_timeout"
	case strings.HasPrefix(reason, "SendQ"):
		return "sendq"
	case strings.HasPrefix(reason, "Read error"), strings.HasPrefix(reason, "Write error"):
		return "io_error"
	case strings.HasPrefix(reason, "Server shutting down"):
		return "shutdown"
	case reason == "Connection closed":
		return "closed"
	}
	return "other"
}
