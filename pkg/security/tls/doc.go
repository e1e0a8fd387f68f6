/*
Package tls builds the TLS contexts used by the relay.

# Acceptor

The acceptor terminates client TLS. It is built once at startup from the
configured key pair and is never rebuilt on configuration reload:

	acc, err := tls.NewAcceptor(cfg.Server.TLSCert, cfg.Server.TLSKey, tls.AcceptorOptions{
		MinVersion:       "1.2",
		SessionCacheSize: 1024,
		SessionTickets:   true,
	})
	ln = cryptotls.NewListener(ln, acc.Config)

Session resumption uses a SessionCache: each session ticket carries an
opaque handle into a bounded LRU. When a handle cannot be issued the
session falls back to a self-contained encrypted ticket.

# Connector

The connector supplies client configuration for wss:// targets. Standard
verification is the default; skip-verify must be requested per dial and is
logged as degraded security every time it is used.
*/
package tls
