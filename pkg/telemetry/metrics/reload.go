package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ReloadMetrics tracks configuration reloads.
//
// Metrics:
//   - wsrelay_config_reloads_total: Reload attempts by result
//   - wsrelay_config_users: Users in the active configuration
type ReloadMetrics struct {
	reloadsTotal *prometheus.CounterVec
	users        prometheus.Gauge
}

// NewReloadMetrics creates and registers reload metrics with the provided registry.
func NewReloadMetrics(namespace string, registry *prometheus.Registry) *ReloadMetrics {
	rm := &ReloadMetrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of configuration reload attempts by result",
			},
			[]string{"result"},
		),

		users: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_users",
				Help:      "Number of users in the active configuration",
			},
		),
	}

	registry.MustRegister(rm.reloadsTotal, rm.users)

	return rm
}
