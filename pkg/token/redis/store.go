// Package redis backs the token store with a Redis instance, for
// deployments where several vault nodes must agree on ticket state. Redis
// SET with expiry and single-key DEL give the same TTL and atomic
// consumption guarantees the embedded backend provides locally.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hubvault/hubvault/pkg/token"
)

// Config holds the Redis backend configuration.
type Config struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Password is optional.
	Password string

	// DB selects the logical database.
	DB int
}

// TokenStore implements token.Store on Redis.
type TokenStore struct {
	client *redis.Client
}

var _ token.Store = (*TokenStore)(nil)

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, cfg Config) (*TokenStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis token store: addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return &TokenStore{client: client}, nil
}

// Put stores value under key with the given expiry.
func (s *TokenStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Get returns the value stored under key.
func (s *TokenStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, token.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Del removes key. DEL executes atomically on the server and returns the
// number of keys removed, so exactly one of any set of racing callers sees
// a nonzero count.
func (s *TokenStore) Del(ctx context.Context, key string) (bool, error) {
	removed, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

// Close closes the client connection pool.
func (s *TokenStore) Close() error {
	return s.client.Close()
}
