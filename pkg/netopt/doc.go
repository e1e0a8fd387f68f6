// Package netopt applies OS-level socket options to the relay listener and
// to every accepted connection.
//
// TCP_NODELAY is mandatory for accepted connections: a connection on which
// it cannot be set is closed. Every other option (fast open, quick ack,
// priority, buffer sizes, accept queue depth, address reuse) is best effort;
// a failure is logged and reported through Tuner.OnFailure but never stops
// the listener.
package netopt
