// Package security groups the relay's credential and transport packages.
//
//   - tls: the listener's TLS acceptor with session resumption, and the
//     connector used when dialing wss targets
//   - auth: token extraction and user lookup against the active
//     configuration
package security
