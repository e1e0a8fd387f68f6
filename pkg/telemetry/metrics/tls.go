package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SessionCacheStats is the snapshot read by the TLS cache collectors on
// every scrape.
type SessionCacheStats struct {
	Size   int
	Hits   uint64
	Misses uint64
}

// RegisterTLSSessionCache exposes a TLS session cache through function
// collectors.
//
// Metrics:
//   - wsrelay_tls_session_cache_entries: Entries currently cached
//   - wsrelay_tls_session_cache_hits_total: Resumptions served from the cache
//   - wsrelay_tls_session_cache_misses_total: Resumption attempts that missed
func RegisterTLSSessionCache(namespace string, registry *prometheus.Registry, stats func() SessionCacheStats) {
	registry.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tls_session_cache_entries",
				Help:      "Number of TLS sessions in the resumption cache",
			},
			func() float64 { return float64(stats().Size) },
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tls_session_cache_hits_total",
				Help:      "Total number of TLS resumptions served from the cache",
			},
			func() float64 { return float64(stats().Hits) },
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tls_session_cache_misses_total",
				Help:      "Total number of TLS resumption attempts not found in the cache",
			},
			func() float64 { return float64(stats().Misses) },
		),
	)
}
