// Package config provides configuration management for wsrelay.
//
// This package loads, validates and serves the relay configuration. Files
// are YAML by default; a path ending in .toml is decoded as TOML so that
// existing deployments can keep their configuration files.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("wsrelay.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("wsrelay.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention WSRELAY_SECTION_FIELD:
//
//   - WSRELAY_SERVER_PORT overrides server.port
//   - WSRELAY_SERVER_INSECURE_SKIP_VERIFY overrides server.insecure_skip_verify
//   - WSRELAY_LOGGING_LEVEL overrides logging.level
//
// LoadEnvFile loads a dotenv file into the environment beforehand.
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the file
//  3. Environment variable overrides
//  4. Validation (fails the whole load if anything is invalid)
//
// # Store
//
// A Store holds the active snapshot. Every session reads it through
// Current; the reload watcher replaces it through Reload. A failed reload
// leaves the previous snapshot in place.
//
//	store, err := config.Open("wsrelay.yaml")
//	user, ok := store.Current().LookupToken(token)
package config
