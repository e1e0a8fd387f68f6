// Package tracing exports one OpenTelemetry span per relay session.
//
// The span starts when the WebSocket upgrade begins and ends when the
// session closes. Each handshake phase is an event on the span, and the
// final outcome and frame counters are attributes. Spans are exported over
// OTLP gRPC; with tracing disabled a noop tracer is used.
//
//	tracer, err := tracing.New(&cfg.Tracing, version)
//	ctx, span := tracer.Start(ctx, "relay.session")
//	defer span.End()
//	tracing.AddPhaseEvent(span, tracing.EventAuthenticated)
package tracing
