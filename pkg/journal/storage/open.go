package storage

import (
	"context"
	"fmt"

	"mercator-hq/wsrelay/pkg/config"
	"mercator-hq/wsrelay/pkg/journal"
)

// Open builds the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg *config.JournalConfig) (journal.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite":
		return NewSQLiteStorage(&SQLiteConfig{
			Path:         cfg.SQLite.Path,
			Driver:       cfg.SQLite.Driver,
			MaxOpenConns: 4,
			WALMode:      true,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
	case "redis":
		return NewRedisStorage(ctx, &RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		})
	default:
		return nil, fmt.Errorf("unsupported journal backend %q", cfg.Backend)
	}
}
