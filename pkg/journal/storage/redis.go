package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"mercator-hq/wsrelay/pkg/journal"
)

// RedisConfig contains configuration for the Redis storage backend.
type RedisConfig struct {
	Address  string
	Password string
	DB       int

	// Key names the sorted set indexing records by start time. Record
	// bodies live in the hash Key + ":records".
	Key string

	// DialTimeout bounds connection setup.
	// Default: 5 seconds
	DialTimeout time.Duration
}

// RedisStorage implements journal.Storage on a Redis sorted set plus a
// hash of JSON-encoded records. Time range filters run in Redis; the other
// filters are applied client side.
type RedisStorage struct {
	client  *redis.Client
	index   string
	records string
	logger  *slog.Logger
}

// NewRedisStorage connects to Redis and verifies the connection.
func NewRedisStorage(ctx context.Context, config *RedisConfig) (*RedisStorage, error) {
	dialTimeout := config.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        config.Address,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: dialTimeout,
	})

	s := &RedisStorage{
		client:  client,
		index:   config.Key,
		records: config.Key + ":records",
		logger:  slog.Default().With("component", "journal.storage.redis"),
	}

	if err := s.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}

	s.logger.Info("Redis journal initialized",
		"address", config.Address,
		"key", config.Key,
	)
	return s, nil
}

// Store writes the record body and its index entry in one transaction.
func (s *RedisStorage) Store(ctx context.Context, record *journal.SessionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return journal.NewStorageError("redis", "store", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.records, record.ID, data)
		pipe.ZAdd(ctx, s.index, redis.Z{
			Score:  float64(record.StartedAt.UnixMilli()),
			Member: record.ID,
		})
		return nil
	})
	if err != nil {
		return journal.NewStorageError("redis", "store", err)
	}
	return nil
}

// Query returns matching records, newest first.
func (s *RedisStorage) Query(ctx context.Context, query *journal.Query) ([]*journal.SessionRecord, error) {
	matched, err := s.scan(ctx, query)
	if err != nil {
		return nil, journal.NewStorageError("redis", "query", err)
	}

	limit, offset := journal.DefaultQueryLimit, 0
	if query != nil {
		if query.Limit > 0 {
			limit = query.Limit
		}
		offset = query.Offset
	}
	if offset >= len(matched) {
		return []*journal.SessionRecord{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// Count returns the number of matching records.
func (s *RedisStorage) Count(ctx context.Context, query *journal.Query) (int64, error) {
	matched, err := s.scan(ctx, query)
	if err != nil {
		return 0, journal.NewStorageError("redis", "count", err)
	}
	return int64(len(matched)), nil
}

// Delete removes matching records from both the index and the hash.
func (s *RedisStorage) Delete(ctx context.Context, query *journal.Query) (int64, error) {
	matched, err := s.scan(ctx, query)
	if err != nil {
		return 0, journal.NewStorageError("redis", "delete", err)
	}
	if len(matched) == 0 {
		return 0, nil
	}

	ids := make([]string, len(matched))
	members := make([]any, len(matched))
	for i, record := range matched {
		ids[i] = record.ID
		members[i] = record.ID
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, s.index, members...)
		pipe.HDel(ctx, s.records, ids...)
		return nil
	})
	if err != nil {
		return 0, journal.NewStorageError("redis", "delete", err)
	}
	return int64(len(matched)), nil
}

// Ping checks the Redis connection.
func (s *RedisStorage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return journal.NewStorageError("redis", "ping", err)
	}
	return nil
}

// Close closes the client.
func (s *RedisStorage) Close() error {
	if err := s.client.Close(); err != nil {
		return journal.NewStorageError("redis", "close", err)
	}
	return nil
}

// scan loads every record in the query's time range, newest first, and
// applies the remaining filters.
func (s *RedisStorage) scan(ctx context.Context, query *journal.Query) ([]*journal.SessionRecord, error) {
	rangeBy := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if query != nil && query.StartTime != nil {
		rangeBy.Min = strconv.FormatInt(query.StartTime.UnixMilli(), 10)
	}
	if query != nil && query.EndTime != nil {
		rangeBy.Max = strconv.FormatInt(query.EndTime.UnixMilli(), 10)
	}

	ids, err := s.client.ZRevRangeByScore(ctx, s.index, rangeBy).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*journal.SessionRecord{}, nil
	}

	values, err := s.client.HMGet(ctx, s.records, ids...).Result()
	if err != nil {
		return nil, err
	}

	matched := make([]*journal.SessionRecord, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Index entry without a body; a concurrent delete won the race.
			continue
		}
		var record journal.SessionRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", ids[i], err)
		}
		if query.Matches(&record) {
			matched = append(matched, &record)
		}
	}
	return matched, nil
}
