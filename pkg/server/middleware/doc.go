// Package middleware provides the HTTP middleware wrapped around the relay
// listener.
//
// The chain, innermost to outermost:
//
//	handler = Recovery(Logging(RequestID(handler)))
//
// Every wrapper preserves http.Hijacker so WebSocket upgrades pass through
// unchanged. Requests that are hijacked are logged as upgrades with status
// 101; the session itself is logged by the relay engine.
package middleware
