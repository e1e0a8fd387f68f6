package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Direction labels for frame and byte counters.
const (
	DirectionClientToTarget = "client_to_target"
	DirectionTargetToClient = "target_to_client"
)

// SessionMetrics tracks relay sessions.
//
// Metrics:
//   - wsrelay_sessions_active: Sessions between upgrade and close
//   - wsrelay_sessions_total: Finished sessions by outcome
//   - wsrelay_relay_duration_seconds: Time spent relaying
//   - wsrelay_relay_frames_total: Relayed data frames by direction
//   - wsrelay_relay_bytes_total: Relayed payload bytes by direction
type SessionMetrics struct {
	active        prometheus.Gauge
	sessionsTotal *prometheus.CounterVec
	duration      prometheus.Histogram
	framesTotal   *prometheus.CounterVec
	bytesTotal    *prometheus.CounterVec
}

// NewSessionMetrics creates and registers session metrics with the provided registry.
func NewSessionMetrics(namespace string, buckets []float64, registry *prometheus.Registry) *SessionMetrics {
	sm := &SessionMetrics{
		active: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Number of sessions currently in progress",
			},
		),

		sessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_total",
				Help:      "Total number of finished sessions by outcome",
			},
			[]string{"outcome"},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "relay_duration_seconds",
				Help:      "Duration of the relay phase in seconds",
				Buckets:   buckets,
			},
		),

		framesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "relay_frames_total",
				Help:      "Total number of relayed data frames",
			},
			[]string{"direction"},
		),

		bytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "relay_bytes_total",
				Help:      "Total number of relayed payload bytes",
			},
			[]string{"direction"},
		),
	}

	registry.MustRegister(
		sm.active,
		sm.sessionsTotal,
		sm.duration,
		sm.framesTotal,
		sm.bytesTotal,
	)

	return sm
}
