// Package server runs the relay listener and the admin endpoint.
//
// # Relay listener
//
// Server binds one TCP listener through a netopt.Tuner, so every accepted
// socket has TCP_NODELAY and the configured optional options applied before
// any byte is read. When TLS is enabled the tuned listener is wrapped by the
// acceptor built from server.tls_cert and server.tls_key; the TLS context is
// built once and reloads never touch it.
//
// Requests under rest.path go to the REST forwarder. Every other request is
// a WebSocket session handled by the relay engine:
//
//	srv, err := server.New(server.Options{
//	    Store:  store,
//	    Engine: engine,
//	    REST:   forwarder,
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
//
// # Graceful shutdown
//
// Cancelling the context passed to Start stops the listener and waits up to
// server.shutdown_timeout_secs for REST requests and relay sessions. Sessions
// still running after that are closed with 1001 "server shutting down".
//
// # Admin endpoint
//
// AdminServer serves Prometheus metrics and the health, readiness and
// version handlers on a separate plain HTTP address.
package server
