package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	scanCount    = 500
	deleteChunks = 500
)

// RedisStore implements Store on a shared Redis server, so every instance
// behind a load balancer sees one voting state.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
	closed atomic.Bool
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(cfg RedisConfig, logger *slog.Logger) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: addr is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
		PoolSize:    cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}

	logger.Info("redis store connected", "addr", cfg.Addr, "db", cfg.DB)
	return &RedisStore{client: client, logger: logger}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, logger: logger}
}

// Get retrieves the value at key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.wrap(err)
	}
	return v, true, nil
}

// Set stores value at key without expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.wrap(s.client.Set(ctx, key, value, 0).Err())
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.wrap(s.client.Del(ctx, key).Err())
}

// DeleteMany removes keys with DEL in bounded chunks.
func (s *RedisStore) DeleteMany(ctx context.Context, keys []string) error {
	for len(keys) > 0 {
		n := len(keys)
		if n > deleteChunks {
			n = deleteChunks
		}
		if err := s.client.Del(ctx, keys[:n]...).Err(); err != nil {
			return s.wrap(err)
		}
		keys = keys[n:]
	}
	return nil
}

// IncrementAndGet runs INCR, which Redis executes atomically.
func (s *RedisStore) IncrementAndGet(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, s.wrap(err)
	}
	return n, nil
}

// SetIfAbsent runs SETNX.
func (s *RedisStore) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return false, s.wrap(err)
	}
	return ok, nil
}

// ListKeys walks the keyspace with SCAN MATCH instead of KEYS, so large
// keyspaces do not block the server.
func (s *RedisStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	seen := make(map[string]struct{})

	it := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", scanCount).Iterator()
	for it.Next(ctx) {
		// SCAN may return a key more than once.
		k := it.Val()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := it.Err(); err != nil {
		return nil, s.wrap(err)
	}
	return keys, nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.wrap(s.client.Ping(ctx).Err())
}

// Close closes the client pool.
func (s *RedisStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("redis: close: %w", err)
	}
	s.logger.Info("redis store closed")
	return nil
}

func (s *RedisStore) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.ErrClosed) || s.closed.Load() {
		return fmt.Errorf("redis: %w", ErrClosed)
	}
	return fmt.Errorf("redis: %w", err)
}

// escapeGlob quotes the glob metacharacters understood by SCAN MATCH.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^', '-':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
