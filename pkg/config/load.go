package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WSRELAY_"

// LoadConfig loads configuration from the file at path. Files ending in
// .toml are decoded as TOML; everything else is decoded as YAML. Defaults are
// applied before and after decoding, then the result is validated. The
// configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	return load(path, false)
}

// LoadConfigWithEnvOverrides loads configuration like LoadConfig and applies
// environment variable overrides before validation. Environment variables
// follow the naming convention WSRELAY_SECTION_FIELD (for example
// WSRELAY_SERVER_PORT) and always take precedence over the file.
//
// The loading sequence is:
//  1. Start from DefaultConfig
//  2. Decode the file on top
//  3. Apply ApplyDefaults for explicitly emptied fields
//  4. Apply environment variable overrides
//  5. Validate
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	return load(path, true)
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables that are already set are not overwritten.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load environment file %q: %w", path, err)
	}
	return nil
}

func load(path string, withEnv bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if withEnv {
		if err := applyEnvOverrides(cfg); err != nil {
			return nil, err
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	cfg.buildIndex()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. A value that cannot be parsed for its field is an error
// rather than being silently ignored.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"SERVER_HOST":            &cfg.Server.Host,
		"SERVER_TLS_CERT":        &cfg.Server.TLSCert,
		"SERVER_TLS_KEY":         &cfg.Server.TLSKey,
		"SERVER_PID_FILE":        &cfg.Server.PIDFile,
		"LOGGING_LEVEL":          &cfg.Logging.Level,
		"LOGGING_FORMAT":         &cfg.Logging.Format,
		"LOGGING_DIRECTORY":      &cfg.Logging.Directory,
		"ADMIN_LISTEN_ADDRESS":   &cfg.Admin.ListenAddress,
		"JOURNAL_BACKEND":        &cfg.Journal.Backend,
		"JOURNAL_SQLITE_PATH":    &cfg.Journal.SQLite.Path,
		"JOURNAL_REDIS_ADDRESS":  &cfg.Journal.Redis.Address,
		"JOURNAL_REDIS_PASSWORD": &cfg.Journal.Redis.Password,
		"TRACING_ENDPOINT":       &cfg.Tracing.Endpoint,
	}
	for key, dst := range strs {
		if val, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = val
		}
	}

	ints := map[string]*int{
		"SERVER_PORT":              &cfg.Server.Port,
		"SERVER_AUTH_TIMEOUT_SECS": &cfg.Server.AuthTimeoutSecs,
		"SERVER_IDLE_TIMEOUT_SECS": &cfg.Server.IdleTimeoutSecs,
		"SERVER_DIAL_TIMEOUT_SECS": &cfg.Server.DialTimeoutSecs,
	}
	for key, dst := range ints {
		val, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid value for %s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"SERVER_ENABLE_TLS":           &cfg.Server.EnableTLS,
		"SERVER_INSECURE_SKIP_VERIFY": &cfg.Server.InsecureSkipVerify,
		"LOGGING_CONSOLE_OUTPUT":      &cfg.Logging.ConsoleOutput,
		"JOURNAL_ENABLED":             &cfg.Journal.Enabled,
		"TRACING_ENABLED":             &cfg.Tracing.Enabled,
	}
	for key, dst := range bools {
		val, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid value for %s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
	}

	return nil
}
