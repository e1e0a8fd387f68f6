package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultHost                 = "0.0.0.0"
	DefaultPort                 = 443
	DefaultEnableTLS            = true
	DefaultAuthTimeoutSecs      = 10
	DefaultIdleTimeoutSecs      = 0
	DefaultDialTimeoutSecs      = 0
	DefaultHandshakeTimeoutSecs = 0
	DefaultShutdownTimeoutSecs  = 30
	DefaultPIDFile              = "wsrelay.pid"
	DefaultBufferSize           = 32 * 1024

	// TLS defaults
	DefaultTLSMinVersion       = "1.2"
	DefaultTLSSessionCacheSize = 1024
	DefaultTLSSessionTickets   = true

	// Socket defaults
	DefaultFastOpenQueue = 128
	DefaultPriority      = 6
	DefaultSocketBuffer  = 256 * 1024
	DefaultBacklog       = 128

	// Logging defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"
	DefaultFilePrefix    = "wsrelay"
	DefaultRotation      = "daily"
	DefaultConsoleOutput = true

	// Admin defaults
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "wsrelay"

	// REST defaults
	DefaultRESTEnabled             = true
	DefaultRESTPath                = "/rest"
	DefaultRESTMaxBodyBytes        = int64(10 * 1024 * 1024)
	DefaultRESTMaxIdleConnsPerHost = 10
	DefaultRESTTimeout             = 30 * time.Second

	// Journal defaults
	DefaultJournalBackend       = "sqlite"
	DefaultJournalSQLitePath    = "data/sessions.db"
	DefaultJournalSQLiteDriver  = "sqlite"
	DefaultJournalBusyTimeout   = 5 * time.Second
	DefaultJournalRedisAddress  = "127.0.0.1:6379"
	DefaultJournalRedisKey      = "wsrelay:sessions"
	DefaultJournalAsyncBuffer   = 1000
	DefaultJournalWriteTimeout  = 5 * time.Second
	DefaultJournalRetentionDays = 30
	DefaultJournalSchedule      = "0 3 * * *"

	// Reload defaults
	DefaultReloadDebounce = 500 * time.Millisecond

	// Tracing defaults
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingServiceName = "wsrelay"
	DefaultTracingSampler     = "always"
	DefaultTracingTimeout     = 10 * time.Second
)

// DefaultConfig returns a Config with every documented default set and no
// users. Decoding a file on top of it leaves unspecified fields at their
// defaults, including booleans whose default is true.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                 DefaultHost,
			Port:                 DefaultPort,
			EnableTLS:            DefaultEnableTLS,
			AuthTimeoutSecs:      DefaultAuthTimeoutSecs,
			IdleTimeoutSecs:      DefaultIdleTimeoutSecs,
			DialTimeoutSecs:      DefaultDialTimeoutSecs,
			HandshakeTimeoutSecs: DefaultHandshakeTimeoutSecs,
			ShutdownTimeoutSecs:  DefaultShutdownTimeoutSecs,
			PIDFile:              DefaultPIDFile,
			ReadBufferSize:       DefaultBufferSize,
			WriteBufferSize:      DefaultBufferSize,
			TLS: TLSConfig{
				MinVersion:       DefaultTLSMinVersion,
				SessionCacheSize: DefaultTLSSessionCacheSize,
				SessionTickets:   DefaultTLSSessionTickets,
			},
			Socket: SocketConfig{
				FastOpenQueue: DefaultFastOpenQueue,
				Priority:      DefaultPriority,
				SendBuffer:    DefaultSocketBuffer,
				RecvBuffer:    DefaultSocketBuffer,
				Backlog:       DefaultBacklog,
				ReuseAddress:  true,
				QuickAck:      true,
			},
		},
		Logging: LoggingConfig{
			Level:         DefaultLoggingLevel,
			Format:        DefaultLoggingFormat,
			FilePrefix:    DefaultFilePrefix,
			Rotation:      DefaultRotation,
			ConsoleOutput: DefaultConsoleOutput,
		},
		Admin: AdminConfig{
			MetricsPath: DefaultMetricsPath,
			Namespace:   DefaultMetricsNamespace,
		},
		REST: RESTConfig{
			Enabled:             DefaultRESTEnabled,
			Path:                DefaultRESTPath,
			MaxBodyBytes:        DefaultRESTMaxBodyBytes,
			MaxIdleConnsPerHost: DefaultRESTMaxIdleConnsPerHost,
			Timeout:             DefaultRESTTimeout,
		},
		Journal: JournalConfig{
			Backend: DefaultJournalBackend,
			SQLite: SQLiteConfig{
				Path:        DefaultJournalSQLitePath,
				Driver:      DefaultJournalSQLiteDriver,
				BusyTimeout: DefaultJournalBusyTimeout,
			},
			Redis: RedisConfig{
				Address: DefaultJournalRedisAddress,
				Key:     DefaultJournalRedisKey,
			},
			AsyncBuffer:  DefaultJournalAsyncBuffer,
			WriteTimeout: DefaultJournalWriteTimeout,
			Retention: RetentionConfig{
				Days:     DefaultJournalRetentionDays,
				Schedule: DefaultJournalSchedule,
			},
		},
		Reload: ReloadConfig{
			Debounce: DefaultReloadDebounce,
		},
		Tracing: TracingConfig{
			Endpoint:    DefaultTracingEndpoint,
			ServiceName: DefaultTracingServiceName,
			Sampler:     DefaultTracingSampler,
			Timeout:     DefaultTracingTimeout,
		},
	}
}

// ApplyDefaults fills fields that were explicitly emptied in the file and
// have no meaningful zero value. Fields where zero is meaningful (idle
// timeout, cache size, socket options) are left alone.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.AuthTimeoutSecs == 0 {
		cfg.Server.AuthTimeoutSecs = DefaultAuthTimeoutSecs
	}
	if cfg.Server.ShutdownTimeoutSecs == 0 {
		cfg.Server.ShutdownTimeoutSecs = DefaultShutdownTimeoutSecs
	}
	if cfg.Server.ReadBufferSize == 0 {
		cfg.Server.ReadBufferSize = DefaultBufferSize
	}
	if cfg.Server.WriteBufferSize == 0 {
		cfg.Server.WriteBufferSize = DefaultBufferSize
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Logging.FilePrefix == "" {
		cfg.Logging.FilePrefix = DefaultFilePrefix
	}
	if cfg.Logging.Rotation == "" {
		cfg.Logging.Rotation = DefaultRotation
	}

	if cfg.Admin.MetricsPath == "" {
		cfg.Admin.MetricsPath = DefaultMetricsPath
	}
	if cfg.Admin.Namespace == "" {
		cfg.Admin.Namespace = DefaultMetricsNamespace
	}

	if cfg.REST.Path == "" {
		cfg.REST.Path = DefaultRESTPath
	}
	if cfg.REST.MaxBodyBytes == 0 {
		cfg.REST.MaxBodyBytes = DefaultRESTMaxBodyBytes
	}
	if cfg.REST.MaxIdleConnsPerHost == 0 {
		cfg.REST.MaxIdleConnsPerHost = DefaultRESTMaxIdleConnsPerHost
	}
	if cfg.REST.Timeout == 0 {
		cfg.REST.Timeout = DefaultRESTTimeout
	}

	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = DefaultJournalBackend
	}
	if cfg.Journal.SQLite.Path == "" {
		cfg.Journal.SQLite.Path = DefaultJournalSQLitePath
	}
	if cfg.Journal.SQLite.Driver == "" {
		cfg.Journal.SQLite.Driver = DefaultJournalSQLiteDriver
	}
	if cfg.Journal.SQLite.BusyTimeout == 0 {
		cfg.Journal.SQLite.BusyTimeout = DefaultJournalBusyTimeout
	}
	if cfg.Journal.Redis.Address == "" {
		cfg.Journal.Redis.Address = DefaultJournalRedisAddress
	}
	if cfg.Journal.Redis.Key == "" {
		cfg.Journal.Redis.Key = DefaultJournalRedisKey
	}
	if cfg.Journal.AsyncBuffer == 0 {
		cfg.Journal.AsyncBuffer = DefaultJournalAsyncBuffer
	}
	if cfg.Journal.WriteTimeout == 0 {
		cfg.Journal.WriteTimeout = DefaultJournalWriteTimeout
	}
	if cfg.Journal.Retention.Schedule == "" {
		cfg.Journal.Retention.Schedule = DefaultJournalSchedule
	}

	if cfg.Reload.Debounce == 0 {
		cfg.Reload.Debounce = DefaultReloadDebounce
	}

	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.Timeout == 0 {
		cfg.Tracing.Timeout = DefaultTracingTimeout
	}
}
