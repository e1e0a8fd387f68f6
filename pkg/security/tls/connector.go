package tls

import (
	"crypto/tls"
	"log/slog"
)

// Connector builds client-side TLS contexts for dialing wss:// targets.
// The insecure context is built once and shared; the verifying path uses
// the dialer's default configuration.
type Connector struct {
	insecure *tls.Config
}

// NewConnector creates a target-side connector.
func NewConnector() *Connector {
	return &Connector{
		// #nosec G402 - only selected when insecure_skip_verify is set
		insecure: &tls.Config{InsecureSkipVerify: true},
	}
}

// ClientConfig returns the TLS configuration for one target dial. With
// skipVerify false it returns nil, meaning standard certificate and hostname
// verification. With skipVerify true it returns a context that disables both
// and logs the dial as degraded.
func (c *Connector) ClientConfig(skipVerify bool, logger *slog.Logger) *tls.Config {
	if !skipVerify {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("target certificate verification disabled",
		"security", "degraded",
		"setting", "insecure_skip_verify",
	)
	return c.insecure.Clone()
}
