package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys. Relay-specific keys use the "wsrelay." namespace.
const (
	AttrSessionID  = "wsrelay.session_id"
	AttrUser       = "wsrelay.user"
	AttrTarget     = "wsrelay.target"
	AttrRemoteAddr = "wsrelay.remote_addr"
	AttrOutcome    = "wsrelay.outcome"
	AttrTLS        = "wsrelay.tls"

	AttrFramesIn  = "wsrelay.frames.client_to_target"
	AttrFramesOut = "wsrelay.frames.target_to_client"
	AttrBytesIn   = "wsrelay.bytes.client_to_target"
	AttrBytesOut  = "wsrelay.bytes.target_to_client"
)

// Phase event names recorded on a session span.
const (
	EventUpgraded        = "upgraded"
	EventAuthenticated   = "authenticated"
	EventTargetConnected = "target_connected"
	EventRelayEnded      = "relay_ended"
)

// SessionStartOptions returns the attributes known when a session span
// starts.
func SessionStartOptions(sessionID, remoteAddr string, tls bool) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String(AttrSessionID, sessionID),
		attribute.String(AttrRemoteAddr, remoteAddr),
		attribute.Bool(AttrTLS, tls),
	)
}

// SetAuthAttributes records the authenticated user and the requested target.
func SetAuthAttributes(span trace.Span, user, target string) {
	span.SetAttributes(
		attribute.String(AttrUser, user),
		attribute.String(AttrTarget, target),
	)
}

// SetRelayAttributes records the final counters and outcome of a session.
func SetRelayAttributes(span trace.Span, outcome string, framesIn, framesOut, bytesIn, bytesOut int64) {
	span.SetAttributes(
		attribute.String(AttrOutcome, outcome),
		attribute.Int64(AttrFramesIn, framesIn),
		attribute.Int64(AttrFramesOut, framesOut),
		attribute.Int64(AttrBytesIn, bytesIn),
		attribute.Int64(AttrBytesOut, bytesOut),
	)
}

// AddPhaseEvent marks a session phase transition.
func AddPhaseEvent(span trace.Span, phase string, attrs ...attribute.KeyValue) {
	span.AddEvent(phase, trace.WithAttributes(attrs...))
}
