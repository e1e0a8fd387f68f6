// Package telemetry groups the relay's observability packages.
//
// # Components
//
//   - logging: slog process logger, rotating file sink, session context
//   - metrics: Prometheus collector served on the admin listener
//   - tracing: one OpenTelemetry span per relay session
//   - health: liveness, readiness and version endpoints
package telemetry
