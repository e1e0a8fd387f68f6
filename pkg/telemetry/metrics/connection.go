package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ConnectionMetrics tracks the listener side.
//
// Metrics:
//   - wsrelay_connections_accepted_total: Accepted TCP connections
//   - wsrelay_socket_option_failures_total: Socket options that could not be applied, by option
//   - wsrelay_upgrade_failures_total: Failed WebSocket upgrades
type ConnectionMetrics struct {
	acceptedTotal       prometheus.Counter
	optionFailuresTotal *prometheus.CounterVec
	upgradeFailures     prometheus.Counter
}

// NewConnectionMetrics creates and registers connection metrics with the provided registry.
func NewConnectionMetrics(namespace string, registry *prometheus.Registry) *ConnectionMetrics {
	cm := &ConnectionMetrics{
		acceptedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connections_accepted_total",
				Help:      "Total number of accepted TCP connections",
			},
		),

		optionFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "socket_option_failures_total",
				Help:      "Total number of socket options that could not be applied",
			},
			[]string{"option"},
		),

		upgradeFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upgrade_failures_total",
				Help:      "Total number of failed WebSocket upgrades",
			},
		),
	}

	registry.MustRegister(
		cm.acceptedTotal,
		cm.optionFailuresTotal,
		cm.upgradeFailures,
	)

	return cm
}
