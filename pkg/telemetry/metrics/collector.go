package metrics

import (
	"strconv"
	"time"

	"mercator-hq/wsrelay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// DefaultRelayDurationBuckets spans short probes to hour-long relays.
var DefaultRelayDurationBuckets = []float64{1, 5, 15, 60, 300, 900, 1800, 3600, 14400}

// Collector owns the relay's Prometheus registry and every metric family.
// All methods are safe on a nil *Collector, which records nothing.
type Collector struct {
	namespace string
	registry  *prometheus.Registry

	connectionMetrics *ConnectionMetrics
	sessionMetrics    *SessionMetrics
	reloadMetrics     *ReloadMetrics
	restMetrics       *RESTMetrics

	journalDropped prometheus.Counter
}

// NewCollector creates a collector registered on registry. If registry is
// nil a fresh one is created.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Admin, nil)
//	mux.Handle(cfg.Admin.MetricsPath, collector.Handler(logger))
func NewCollector(cfg *config.AdminConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = config.DefaultMetricsNamespace
	}

	c := &Collector{
		namespace: namespace,
		registry:  registry,
	}

	c.connectionMetrics = NewConnectionMetrics(namespace, registry)
	c.sessionMetrics = NewSessionMetrics(namespace, DefaultRelayDurationBuckets, registry)
	c.reloadMetrics = NewReloadMetrics(namespace, registry)
	c.restMetrics = NewRESTMetrics(namespace, registry)

	c.journalDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "journal_dropped_total",
		Help:      "Total number of session records dropped because the journal buffer was full",
	})
	registry.MustRegister(
		c.journalDropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
	)

	return c
}

// RecordAccepted counts an accepted TCP connection.
func (c *Collector) RecordAccepted() {
	if c == nil {
		return
	}
	c.connectionMetrics.acceptedTotal.Inc()
}

// RecordSocketOptionFailure counts a socket option that could not be set.
func (c *Collector) RecordSocketOptionFailure(option string) {
	if c == nil {
		return
	}
	c.connectionMetrics.optionFailuresTotal.WithLabelValues(option).Inc()
}

// RecordUpgradeFailure counts a failed WebSocket upgrade.
func (c *Collector) RecordUpgradeFailure() {
	if c == nil {
		return
	}
	c.connectionMetrics.upgradeFailures.Inc()
}

// SessionStarted marks a session as active.
func (c *Collector) SessionStarted() {
	if c == nil {
		return
	}
	c.sessionMetrics.active.Inc()
}

// SessionFinished records the outcome of a session and releases its active
// slot. relayed is the time spent in the relay phase; zero means the
// session never reached it.
//
// Parameters:
//   - outcome: "completed", "idle_timeout", "auth_timeout", "client_closed",
//     "auth_failed", "malformed_auth", "dial_failed", "relay_error" or
//     "shutdown"
//   - relayed: relay phase duration
func (c *Collector) SessionFinished(outcome string, relayed time.Duration) {
	if c == nil {
		return
	}
	c.sessionMetrics.active.Dec()
	c.sessionMetrics.sessionsTotal.WithLabelValues(outcome).Inc()
	if relayed > 0 {
		c.sessionMetrics.duration.Observe(relayed.Seconds())
	}
}

// RecordFrame counts one relayed data frame of size bytes.
func (c *Collector) RecordFrame(direction string, size int) {
	if c == nil {
		return
	}
	c.sessionMetrics.framesTotal.WithLabelValues(direction).Inc()
	c.sessionMetrics.bytesTotal.WithLabelValues(direction).Add(float64(size))
}

// RecordReload records a configuration reload attempt. users is the user
// count of the active snapshot after the attempt.
func (c *Collector) RecordReload(success bool, users int) {
	if c == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	c.reloadMetrics.reloadsTotal.WithLabelValues(result).Inc()
	c.reloadMetrics.users.Set(float64(users))
}

// SetUsers sets the user count gauge.
func (c *Collector) SetUsers(users int) {
	if c == nil {
		return
	}
	c.reloadMetrics.users.Set(float64(users))
}

// RecordREST records a completed REST forwarding request.
func (c *Collector) RecordREST(status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.restMetrics.requestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	c.restMetrics.requestDuration.Observe(duration.Seconds())
}

// RecordJournalDrop counts a session record the journal could not accept.
func (c *Collector) RecordJournalDrop() {
	if c == nil {
		return
	}
	c.journalDropped.Inc()
}

// RegisterTLSSessionCache exposes a TLS session cache on this collector's
// registry.
func (c *Collector) RegisterTLSSessionCache(stats func() SessionCacheStats) {
	if c == nil {
		return
	}
	RegisterTLSSessionCache(c.namespace, c.registry, stats)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
