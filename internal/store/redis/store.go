// Package redis provides a Redis-backed key-value store for settings,
// conversation tags and cached model lists.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/shopscribe/internal/observability"
)

// Config contains Redis connection settings. An empty Addr disables Redis.
type Config struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"     envDefault:"0"`
	Prefix   string `env:"REDIS_PREFIX" envDefault:"shopscribe:"`
}

// Store implements domain.KVStore on plain Redis strings.
type Store struct {
	client *redis.Client
	prefix string
}

// NewClient opens a client and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// NewStore wraps an existing client.
func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{
		client: client,
		prefix: prefix,
	}
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		observability.FromContext(ctx).Error("redis get failed",
			observability.String("key", key),
			observability.Error(err))
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return value, true, nil
}

// Set stores value under key without expiry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		observability.FromContext(ctx).Error("redis set failed",
			observability.String("key", key),
			observability.Error(err))
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	return nil
}
