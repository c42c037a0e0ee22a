// Package kvredis provides a Redis-backed key-value store, an alternative to
// the local SQLite file for keeping the progress record off the host.
//
// The engine caches the record in memory and writes it back without reading
// first, so exactly one citadel process may own a key prefix. The process
// lock in CITADEL_HOME only guards one host: processes on different hosts
// sharing a prefix overwrite each other's updates.
package kvredis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/citadel-app/citadel/internal/domain"
)

// Compile-time check that Store satisfies the key-value provider contract.
var _ domain.KVStore = (*Store)(nil)

// Store keeps every record under prefix+key.
type Store struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// Open parses a redis:// URL, connects, and verifies the server with PING.
func Open(ctx context.Context, url, prefix string, logger *zap.Logger) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, prefix, logger), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, prefix: prefix, logger: logger.Named("RedisKV")}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// Key returns the namespaced Redis key for a record.
func (s *Store) Key(key string) string {
	return s.prefix + key
}

// Get returns the value and whether it exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		s.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		return "", false, err
	}
	return v, true, nil
}

// Set stores a single value without expiry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.Key(key), value, 0).Err()
}

// SetMany writes all pairs in one MULTI/EXEC transaction.
func (s *Store) SetMany(ctx context.Context, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range pairs {
			pipe.Set(ctx, s.Key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("redis batch write failed", zap.Int("keys", len(pairs)), zap.Error(err))
	}
	return err
}

// Remove deletes a key.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.Key(key)).Err()
}

// Ping checks that the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
