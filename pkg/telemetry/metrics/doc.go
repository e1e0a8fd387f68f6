// Package metrics provides Prometheus metrics for the relay.
//
// # Metrics Categories
//
//   - Connection Metrics: accepted connections, socket option failures,
//     failed upgrades
//   - Session Metrics: active sessions, outcomes, relay duration, frames
//     and bytes per direction
//   - Reload Metrics: reload attempts by result, configured users
//   - REST Metrics: forwarded requests by status, request duration
//   - TLS Metrics: session cache entries, hits and misses
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Admin, nil)
//	collector.SessionStarted()
//	defer collector.SessionFinished("completed", elapsed)
//
//	mux.Handle(cfg.Admin.MetricsPath, collector.Handler(logger))
//
// A nil *Collector is valid and records nothing, so components can be
// built without an admin server.
package metrics
