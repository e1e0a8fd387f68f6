package config

import (
	"fmt"
	"sync"
)

// Store holds the active configuration snapshot shared by every session.
//
// Readers call Current and keep the returned pointer only for as long as
// they need it; the lock is held just long enough to copy the pointer, so a
// session never holds it across network I/O. Writers replace the snapshot
// wholesale. A reader therefore sees either the old or the new
// configuration in full, never a mix.
type Store struct {
	mu   sync.RWMutex
	cfg  *Config
	path string
}

// NewStore creates a Store serving cfg. Path is the file Reload reads from;
// it may be empty when the store is built in code.
func NewStore(cfg *Config, path string) *Store {
	if cfg != nil && cfg.tokens == nil {
		cfg.buildIndex()
	}
	return &Store{cfg: cfg, path: path}
}

// Open loads the configuration at path with environment overrides and
// returns a Store serving it.
func Open(path string) (*Store, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}
	return NewStore(cfg, path), nil
}

// Current returns the active snapshot. It is safe for concurrent use.
func (s *Store) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Replace atomically swaps in cfg. A nil cfg is ignored.
func (s *Store) Replace(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.tokens == nil {
		cfg.buildIndex()
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// Path returns the file the store reloads from.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the configuration from the store's path and swaps it in.
// If loading or validation fails the active snapshot is left untouched and
// the error is returned.
func (s *Store) Reload() (*Config, error) {
	if s.path == "" {
		return nil, fmt.Errorf("failed to reload configuration: store has no source path")
	}

	cfg, err := LoadConfigWithEnvOverrides(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	s.Replace(cfg)
	return cfg, nil
}
