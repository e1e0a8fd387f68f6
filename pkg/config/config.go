package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root configuration structure for wsrelay.
// A Config is an immutable snapshot: once it has been handed to a Store it is
// never mutated in place. Reloading produces a new Config that replaces the
// old one wholesale.
type Config struct {
	// Server contains listener, TLS, handshake and relay settings.
	Server ServerConfig `yaml:"server" toml:"server"`

	// Logging contains log level, format and sink settings.
	Logging LoggingConfig `yaml:"logging" toml:"logging"`

	// Users is the ordered list of authorized users. It must be non-empty,
	// and every token must be unique.
	Users []User `yaml:"users" toml:"users"`

	// Admin contains the metrics and health endpoint settings.
	Admin AdminConfig `yaml:"admin" toml:"admin"`

	// REST contains settings for the one-shot HTTP forwarding path.
	REST RESTConfig `yaml:"rest" toml:"rest"`

	// Journal contains settings for the session audit journal.
	Journal JournalConfig `yaml:"journal" toml:"journal"`

	// Reload contains hot-reload trigger settings.
	Reload ReloadConfig `yaml:"reload" toml:"reload"`

	// Tracing contains OpenTelemetry span export settings.
	Tracing TracingConfig `yaml:"tracing" toml:"tracing"`

	// tokens maps each user token to its index in Users.
	tokens map[string]int
}

// ServerConfig contains settings for the relay listener.
type ServerConfig struct {
	// Host is the address to bind.
	// Default: "0.0.0.0"
	Host string `yaml:"host" toml:"host"`

	// Port is the TCP port to bind.
	// Default: 443
	Port int `yaml:"port" toml:"port"`

	// EnableTLS terminates TLS on the listener. Disable it when TLS is
	// terminated upstream.
	// Default: true
	EnableTLS bool `yaml:"enable_tls" toml:"enable_tls"`

	// TLSCert is the path to the PEM certificate chain. Required when
	// EnableTLS is set.
	TLSCert string `yaml:"tls_cert" toml:"tls_cert"`

	// TLSKey is the path to the PEM private key. Required when EnableTLS
	// is set.
	TLSKey string `yaml:"tls_key" toml:"tls_key"`

	// AuthTimeoutSecs bounds the wait for the first client message after
	// the WebSocket upgrade.
	// Default: 10
	AuthTimeoutSecs int `yaml:"auth_timeout_secs" toml:"auth_timeout_secs"`

	// IdleTimeoutSecs bounds the whole relay duration. Zero disables it.
	// Default: 0
	IdleTimeoutSecs int `yaml:"idle_timeout_secs" toml:"idle_timeout_secs"`

	// InsecureSkipVerify disables certificate and hostname verification
	// when dialing wss:// targets.
	// Default: false
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" toml:"insecure_skip_verify"`

	// DialTimeoutSecs bounds the target TCP, TLS and WebSocket handshake.
	// Zero leaves the dial unbounded.
	// Default: 0
	DialTimeoutSecs int `yaml:"dial_timeout_secs" toml:"dial_timeout_secs"`

	// HandshakeTimeoutSecs bounds the client TLS handshake and upgrade
	// request. Zero leaves it unbounded.
	// Default: 0
	HandshakeTimeoutSecs int `yaml:"handshake_timeout_secs" toml:"handshake_timeout_secs"`

	// ShutdownTimeoutSecs is how long a graceful shutdown waits for
	// in-flight sessions before cancelling them.
	// Default: 30
	ShutdownTimeoutSecs int `yaml:"shutdown_timeout_secs" toml:"shutdown_timeout_secs"`

	// PIDFile is where the running process records its id so that
	// "wsrelay reload" can find it. Empty disables the marker.
	// Default: "wsrelay.pid"
	PIDFile string `yaml:"pid_file" toml:"pid_file"`

	// MaxMessageBytes limits the size of a single relayed message.
	// Zero means unlimited.
	// Default: 0
	MaxMessageBytes int64 `yaml:"max_message_bytes" toml:"max_message_bytes"`

	// ReadBufferSize and WriteBufferSize size the WebSocket I/O buffers.
	// Default: 32768
	ReadBufferSize  int `yaml:"read_buffer_size" toml:"read_buffer_size"`
	WriteBufferSize int `yaml:"write_buffer_size" toml:"write_buffer_size"`

	// TLS contains acceptor tuning.
	TLS TLSConfig `yaml:"tls" toml:"tls"`

	// Socket contains OS-level socket tuning.
	Socket SocketConfig `yaml:"socket" toml:"socket"`
}

// TLSConfig contains TLS acceptor settings beyond the key pair.
type TLSConfig struct {
	// MinVersion is the minimum accepted TLS version.
	// Options: "1.2", "1.3"
	// Default: "1.2"
	MinVersion string `yaml:"min_version" toml:"min_version"`

	// SessionCacheSize is the capacity of the server-side session cache.
	// Zero disables the cache; tickets are then used alone.
	// Default: 1024
	SessionCacheSize int `yaml:"session_cache_size" toml:"session_cache_size"`

	// SessionTickets enables ticket-based resumption.
	// Default: true
	SessionTickets bool `yaml:"session_tickets" toml:"session_tickets"`
}

// SocketConfig contains socket options applied by the tuner.
type SocketConfig struct {
	// FastOpenQueue is the TCP_FASTOPEN queue length on the listener.
	// Zero disables fast open.
	// Default: 128
	FastOpenQueue int `yaml:"fast_open_queue" toml:"fast_open_queue"`

	// Priority is the SO_PRIORITY of accepted sockets. Zero leaves it unset.
	// Default: 6
	Priority int `yaml:"priority" toml:"priority"`

	// SendBuffer and RecvBuffer are SO_SNDBUF and SO_RCVBUF in bytes.
	// Default: 262144
	SendBuffer int `yaml:"send_buffer" toml:"send_buffer"`
	RecvBuffer int `yaml:"recv_buffer" toml:"recv_buffer"`

	// Backlog is the accept queue depth.
	// Default: 128
	Backlog int `yaml:"backlog" toml:"backlog"`

	// ReuseAddress sets SO_REUSEADDR on the listener.
	// Default: true
	ReuseAddress bool `yaml:"reuse_address" toml:"reuse_address"`

	// QuickAck sets TCP_QUICKACK on accepted sockets.
	// Default: true
	QuickAck bool `yaml:"quick_ack" toml:"quick_ack"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level" toml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format" toml:"format"`

	// Directory receives rotated log files. Empty disables the file sink.
	Directory string `yaml:"directory" toml:"directory"`

	// FilePrefix names the log files in Directory.
	// Default: "wsrelay"
	FilePrefix string `yaml:"file_prefix" toml:"file_prefix"`

	// Rotation is the file rotation period.
	// Options: "daily", "hourly", "never"
	// Default: "daily"
	Rotation string `yaml:"rotation" toml:"rotation"`

	// ConsoleOutput also writes logs to stdout.
	// Default: true
	ConsoleOutput bool `yaml:"console_output" toml:"console_output"`
}

// User is an authorized client identity.
type User struct {
	// Name is a display name used in logs and the session journal.
	Name string `yaml:"name" toml:"name"`

	// Token is the opaque bearer token presented in the auth handshake.
	Token string `yaml:"token" toml:"token"`
}

// AdminConfig contains the metrics and health endpoint settings.
type AdminConfig struct {
	// ListenAddress is the plain HTTP address for /metrics, /health,
	// /ready and /version. Empty disables the admin server.
	ListenAddress string `yaml:"listen_address" toml:"listen_address"`

	// MetricsPath is the path of the Prometheus endpoint.
	// Default: "/metrics"
	MetricsPath string `yaml:"metrics_path" toml:"metrics_path"`

	// Namespace prefixes every metric name.
	// Default: "wsrelay"
	Namespace string `yaml:"namespace" toml:"namespace"`
}

// RESTConfig contains settings for the one-shot HTTP forwarding path.
type RESTConfig struct {
	// Enabled mounts the forwarding handler on the relay listener.
	// Default: true
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Path is where the handler is mounted.
	// Default: "/rest"
	Path string `yaml:"path" toml:"path"`

	// MaxBodyBytes caps the forwarded request body.
	// Default: 10485760 (10 MiB)
	MaxBodyBytes int64 `yaml:"max_body_bytes" toml:"max_body_bytes"`

	// MaxIdleConnsPerHost sizes the pooled client.
	// Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host" toml:"max_idle_conns_per_host"`

	// Timeout bounds one upstream round trip.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// JournalConfig contains settings for the session audit journal.
type JournalConfig struct {
	// Enabled turns on session recording.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Backend selects the storage backend.
	// Options: "memory", "sqlite", "redis"
	// Default: "sqlite"
	Backend string `yaml:"backend" toml:"backend"`

	// SQLite contains SQLite backend settings.
	SQLite SQLiteConfig `yaml:"sqlite" toml:"sqlite"`

	// Redis contains Redis backend settings.
	Redis RedisConfig `yaml:"redis" toml:"redis"`

	// AsyncBuffer is the capacity of the recorder queue.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer" toml:"async_buffer"`

	// WriteTimeout bounds a single storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout" toml:"write_timeout"`

	// Retention contains pruning settings.
	Retention RetentionConfig `yaml:"retention" toml:"retention"`
}

// SQLiteConfig contains SQLite journal settings.
type SQLiteConfig struct {
	// Path is the database file.
	// Default: "data/sessions.db"
	Path string `yaml:"path" toml:"path"`

	// Driver selects the database/sql driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver" toml:"driver"`

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout" toml:"busy_timeout"`
}

// RedisConfig contains Redis journal settings.
type RedisConfig struct {
	// Address is the host:port of the Redis server.
	// Default: "127.0.0.1:6379"
	Address string `yaml:"address" toml:"address"`

	// Password authenticates to Redis.
	Password string `yaml:"password" toml:"password"`

	// DB selects the logical database.
	DB int `yaml:"db" toml:"db"`

	// Key is the sorted set holding session records.
	// Default: "wsrelay:sessions"
	Key string `yaml:"key" toml:"key"`
}

// RetentionConfig contains journal pruning settings.
type RetentionConfig struct {
	// Days is how long records are kept. Zero keeps them forever.
	// Default: 30
	Days int `yaml:"days" toml:"days"`

	// Schedule is a standard cron expression for pruning runs.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule" toml:"schedule"`
}

// ReloadConfig contains hot-reload trigger settings.
type ReloadConfig struct {
	// WatchFile also reloads when the configuration file changes on disk.
	// SIGHUP is always honoured.
	// Default: false
	WatchFile bool `yaml:"watch_file" toml:"watch_file"`

	// Debounce collapses bursts of file events into one reload.
	// Default: 500ms
	Debounce time.Duration `yaml:"debounce" toml:"debounce"`
}

// TracingConfig contains OpenTelemetry settings. Each session becomes one
// span with an event per handshake phase.
type TracingConfig struct {
	// Enabled turns on span export.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint" toml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure" toml:"insecure"`

	// ServiceName is reported as service.name.
	// Default: "wsrelay"
	ServiceName string `yaml:"service_name" toml:"service_name"`

	// Sampler is "always", "never" or "ratio".
	// Default: "always"
	Sampler string `yaml:"sampler" toml:"sampler"`

	// SampleRatio is used by the "ratio" sampler (0.0 to 1.0).
	SampleRatio float64 `yaml:"sample_ratio" toml:"sample_ratio"`

	// Timeout bounds each export call.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// ListenAddress returns the host:port the relay binds.
func (s ServerConfig) ListenAddress() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// AuthTimeout returns AuthTimeoutSecs as a duration.
func (s ServerConfig) AuthTimeout() time.Duration {
	return time.Duration(s.AuthTimeoutSecs) * time.Second
}

// IdleTimeout returns IdleTimeoutSecs as a duration. Zero means disabled.
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSecs) * time.Second
}

// DialTimeout returns DialTimeoutSecs as a duration. Zero means unbounded.
func (s ServerConfig) DialTimeout() time.Duration {
	return time.Duration(s.DialTimeoutSecs) * time.Second
}

// HandshakeTimeout returns HandshakeTimeoutSecs as a duration.
func (s ServerConfig) HandshakeTimeout() time.Duration {
	return time.Duration(s.HandshakeTimeoutSecs) * time.Second
}

// ShutdownTimeout returns ShutdownTimeoutSecs as a duration.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSecs) * time.Second
}

// LookupToken returns the user holding token. The match is exact.
func (c *Config) LookupToken(token string) (User, bool) {
	if c.tokens != nil {
		i, ok := c.tokens[token]
		if !ok {
			return User{}, false
		}
		return c.Users[i], true
	}
	for _, u := range c.Users {
		if u.Token == token {
			return u, true
		}
	}
	return User{}, false
}

// UserCount returns the number of authorized users.
func (c *Config) UserCount() int {
	return len(c.Users)
}

// buildIndex populates the token index. It must run before the Config is
// shared.
func (c *Config) buildIndex() {
	c.tokens = make(map[string]int, len(c.Users))
	for i, u := range c.Users {
		c.tokens[u.Token] = i
	}
}
