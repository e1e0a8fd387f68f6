package tls

import (
	"crypto/rand"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
)

// AcceptorOptions tune the server-side TLS context beyond the key pair.
type AcceptorOptions struct {
	// MinVersion is the minimum TLS version to accept ("1.2" or "1.3").
	// Default: "1.2"
	MinVersion string

	// SessionCacheSize bounds the server-side session cache. Zero disables
	// the cache and leaves resumption to encrypted tickets.
	SessionCacheSize int

	// SessionTickets enables ticket-based resumption.
	SessionTickets bool

	// Logger receives diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// Acceptor is the server-side TLS context. It is built once at startup and
// shared by every accepted connection.
type Acceptor struct {
	// Config is the crypto/tls configuration handed to the listener.
	Config *tls.Config

	// Cache is the session cache, or nil when it is disabled.
	Cache *SessionCache

	// Tickets reports whether encrypted session tickets are available.
	Tickets bool
}

// NewAcceptor loads the key pair at certFile and keyFile and builds a TLS
// server context with session resumption enabled. Errors name the missing or
// invalid file.
//
// Resumption uses a bounded in-memory session cache plus ticket support.
// If ticket keys cannot be generated the acceptor is still built and a
// warning is logged; only the resumption fallback is lost.
func NewAcceptor(certFile, keyFile string, opts AcceptorOptions) (*Acceptor, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "tls.acceptor")

	if certFile == "" {
		return nil, fmt.Errorf("tls_cert is required when TLS is enabled")
	}
	if keyFile == "" {
		return nil, fmt.Errorf("tls_key is required when TLS is enabled")
	}
	if _, err := os.Stat(certFile); err != nil {
		return nil, fmt.Errorf("certificate file not found: %s: %w", certFile, err)
	}
	if _, err := os.Stat(keyFile); err != nil {
		return nil, fmt.Errorf("key file not found: %s: %w", keyFile, err)
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load key pair %s / %s: %w", certFile, keyFile, err)
	}
	if err := ValidateCertificate(&cert); err != nil {
		return nil, fmt.Errorf("certificate %s is invalid: %w", certFile, err)
	}
	if cert.Leaf != nil {
		days, warning := CheckCertificateExpiration(cert.Leaf)
		if warning != "" {
			logger.Warn("certificate expiring soon", "file", certFile, "days_until_expiry", days, "warning", warning)
		}
		logger.Info("certificate loaded",
			"subject", cert.Leaf.Subject.String(),
			"not_after", cert.Leaf.NotAfter,
		)
	}

	minVersion, err := ParseTLSVersion(opts.MinVersion)
	if err != nil {
		return nil, err
	}

	// #nosec G402 - MinVersion is validated (TLS 1.0/1.1 rejected)
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
		// WebSocket upgrades need HTTP/1.1.
		NextProtos: []string{"http/1.1"},
	}

	a := &Acceptor{Config: cfg}

	if opts.SessionTickets {
		keys, err := newTicketKeys()
		if err != nil {
			logger.Warn("session tickets unavailable, continuing without them", "error", err)
		} else {
			cfg.SetSessionTicketKeys(keys)
			a.Tickets = true
		}
	}

	if opts.SessionCacheSize > 0 {
		a.Cache = NewSessionCache(opts.SessionCacheSize)
		a.Cache.install(cfg, a.Tickets)
	}

	if a.Cache == nil && !a.Tickets {
		cfg.SessionTicketsDisabled = true
		logger.Warn("session resumption disabled")
	}

	logger.Info("tls acceptor ready",
		"min_version", opts.MinVersion,
		"session_cache_size", opts.SessionCacheSize,
		"session_tickets", a.Tickets,
	)

	return a, nil
}

// ParseTLSVersion converts "1.2" or "1.3" to a crypto/tls version constant.
// An empty string selects TLS 1.2.
func ParseTLSVersion(v string) (uint16, error) {
	switch v {
	case "1.2", "":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q", v)
	}
}

func newTicketKeys() ([][32]byte, error) {
	var key [32]byte
	if _, err := rand.Read(key[:]); err != nil {
		return nil, fmt.Errorf("failed to generate ticket key: %w", err)
	}
	return [][32]byte{key}, nil
}
