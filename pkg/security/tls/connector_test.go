package tls

import "testing"

func TestConnector_ClientConfig(t *testing.T) {
	c := NewConnector()

	if cfg := c.ClientConfig(false, nil); cfg != nil {
		t.Errorf("expected nil config for verified dials, got %+v", cfg)
	}

	cfg := c.ClientConfig(true, nil)
	if cfg == nil || !cfg.InsecureSkipVerify {
		t.Fatal("expected skip-verify config")
	}

	// Each dial gets its own copy.
	cfg.ServerName = "mutated"
	if again := c.ClientConfig(true, nil); again.ServerName != "" {
		t.Error("expected shared insecure config to be unaffected by callers")
	}
}
