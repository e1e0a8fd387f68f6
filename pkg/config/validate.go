package config

import (
	"fmt"
	"net"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.port").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateUsers(cfg.Users)...)
	errs = append(errs, validateAdmin(&cfg.Admin)...)
	errs = append(errs, validateREST(&cfg.REST)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateTracing(&cfg.Tracing)...)

	if cfg.Reload.Debounce < 0 {
		errs = append(errs, FieldError{Field: "reload.debounce", Message: "debounce must not be negative"})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "server.port",
			Message: fmt.Sprintf("port %d out of range 1-65535", cfg.Port),
		})
	}

	// Presence only; the TLS builder checks that the files load.
	if cfg.EnableTLS {
		if cfg.TLSCert == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls_cert",
				Message: "tls_cert is required when enable_tls is true",
			})
		}
		if cfg.TLSKey == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls_key",
				Message: "tls_key is required when enable_tls is true",
			})
		}
	}

	nonNegative := []struct {
		field string
		value int
	}{
		{"server.auth_timeout_secs", cfg.AuthTimeoutSecs},
		{"server.idle_timeout_secs", cfg.IdleTimeoutSecs},
		{"server.dial_timeout_secs", cfg.DialTimeoutSecs},
		{"server.handshake_timeout_secs", cfg.HandshakeTimeoutSecs},
		{"server.shutdown_timeout_secs", cfg.ShutdownTimeoutSecs},
		{"server.read_buffer_size", cfg.ReadBufferSize},
		{"server.write_buffer_size", cfg.WriteBufferSize},
		{"server.tls.session_cache_size", cfg.TLS.SessionCacheSize},
		{"server.socket.fast_open_queue", cfg.Socket.FastOpenQueue},
		{"server.socket.priority", cfg.Socket.Priority},
		{"server.socket.send_buffer", cfg.Socket.SendBuffer},
		{"server.socket.recv_buffer", cfg.Socket.RecvBuffer},
		{"server.socket.backlog", cfg.Socket.Backlog},
	}
	for _, nn := range nonNegative {
		if nn.value < 0 {
			errs = append(errs, FieldError{
				Field:   nn.field,
				Message: "value must not be negative",
			})
		}
	}

	if cfg.MaxMessageBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_message_bytes",
			Message: "value must not be negative",
		})
	}

	switch cfg.TLS.MinVersion {
	case "1.2", "1.3":
	default:
		errs = append(errs, FieldError{
			Field:   "server.tls.min_version",
			Message: fmt.Sprintf("unsupported TLS version %q (must be 1.2 or 1.3)", cfg.TLS.MinVersion),
		})
	}

	return errs
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn or error)", cfg.Level),
		})
	}

	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json or text)", cfg.Format),
		})
	}

	switch strings.ToLower(cfg.Rotation) {
	case "daily", "hourly", "never":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.rotation",
			Message: fmt.Sprintf("invalid rotation %q (must be daily, hourly or never)", cfg.Rotation),
		})
	}

	if cfg.Directory == "" && !cfg.ConsoleOutput {
		errs = append(errs, FieldError{
			Field:   "logging",
			Message: "no log sink: set directory or enable console_output",
		})
	}

	return errs
}

// validateUsers enforces a non-empty user list with non-blank names and
// tokens, and token uniqueness across all users.
func validateUsers(users []User) []FieldError {
	var errs []FieldError

	if len(users) == 0 {
		return append(errs, FieldError{
			Field:   "users",
			Message: "at least one user must be configured",
		})
	}

	seen := make(map[string]int, len(users))
	for i, u := range users {
		field := fmt.Sprintf("users[%d]", i)
		if strings.TrimSpace(u.Name) == "" {
			errs = append(errs, FieldError{
				Field:   field + ".name",
				Message: "name must not be blank",
			})
		}
		if strings.TrimSpace(u.Token) == "" {
			errs = append(errs, FieldError{
				Field:   field + ".token",
				Message: "token must not be blank",
			})
			continue
		}
		if first, dup := seen[u.Token]; dup {
			errs = append(errs, FieldError{
				Field:   field + ".token",
				Message: fmt.Sprintf("duplicate token (also used by users[%d] %q)", first, users[first].Name),
			})
			continue
		}
		seen[u.Token] = i
	}

	return errs
}

func validateAdmin(cfg *AdminConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress != "" {
		if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "admin.listen_address",
				Message: fmt.Sprintf("invalid address: %v", err),
			})
		}
	}
	if !strings.HasPrefix(cfg.MetricsPath, "/") {
		errs = append(errs, FieldError{
			Field:   "admin.metrics_path",
			Message: "path must start with /",
		})
	}

	return errs
}

func validateREST(cfg *RESTConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}
	if !strings.HasPrefix(cfg.Path, "/") || cfg.Path == "/" {
		errs = append(errs, FieldError{
			Field:   "rest.path",
			Message: "path must start with / and must not be the root",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "rest.max_body_bytes",
			Message: "value must not be negative",
		})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "rest.timeout",
			Message: "timeout must not be negative",
		})
	}

	return errs
}

func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "journal.sqlite.path",
				Message: "path is required for the sqlite backend",
			})
		}
		if cfg.SQLite.Driver != "sqlite" && cfg.SQLite.Driver != "sqlite3" {
			errs = append(errs, FieldError{
				Field:   "journal.sqlite.driver",
				Message: fmt.Sprintf("unsupported driver %q (must be sqlite or sqlite3)", cfg.SQLite.Driver),
			})
		}
	case "redis":
		if cfg.Redis.Address == "" {
			errs = append(errs, FieldError{
				Field:   "journal.redis.address",
				Message: "address is required for the redis backend",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "journal.backend",
			Message: fmt.Sprintf("unsupported backend %q (must be memory, sqlite or redis)", cfg.Backend),
		})
	}

	if cfg.AsyncBuffer < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.async_buffer",
			Message: "value must not be negative",
		})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.retention.days",
			Message: "value must not be negative",
		})
	}

	return errs
}

func validateTracing(cfg *TracingConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Sampler {
	case "always", "never":
	case "ratio":
		if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "tracing.sample_ratio",
				Message: fmt.Sprintf("sample ratio must be between 0.0 and 1.0, got %g", cfg.SampleRatio),
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "tracing.sampler",
			Message: fmt.Sprintf("unknown sampler %q (must be always, never or ratio)", cfg.Sampler),
		})
	}
	if cfg.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}

	return errs
}
