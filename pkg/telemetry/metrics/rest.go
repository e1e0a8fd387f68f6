package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RESTMetrics tracks the one-shot REST forwarding path.
//
// Metrics:
//   - wsrelay_rest_requests_total: Forwarded requests by response status code
//   - wsrelay_rest_request_duration_seconds: Time to complete a forwarded request
type RESTMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
}

// NewRESTMetrics creates and registers REST metrics with the provided registry.
func NewRESTMetrics(namespace string, registry *prometheus.Registry) *RESTMetrics {
	rm := &RESTMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rest_requests_total",
				Help:      "Total number of REST forwarding requests by status code",
			},
			[]string{"status"},
		),

		requestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rest_request_duration_seconds",
				Help:      "Duration of REST forwarding requests in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
	}

	registry.MustRegister(rm.requestsTotal, rm.requestDuration)

	return rm
}
