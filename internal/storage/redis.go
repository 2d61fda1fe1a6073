package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/IshaanNene/EcoCheck/internal/types"
)

const scanCount = 100

// RedisKV stores each key as a Redis string under a common prefix.
type RedisKV struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisKV connects to addr and verifies the connection.
func NewRedisKV(addr, prefix string, logger *slog.Logger) (*RedisKV, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, &types.StorageError{Backend: "redis", Op: "connect", Err: fmt.Errorf("redis ping %s: %w", addr, err)}
	}

	return newRedisKV(client, prefix, logger), nil
}

func newRedisKV(client *redis.Client, prefix string, logger *slog.Logger) *RedisKV {
	return &RedisKV{
		client: client,
		prefix: prefix,
		logger: logger.With("component", "redis_storage"),
	}
}

func (s *RedisKV) Name() string { return "redis" }

func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, &types.StorageError{Backend: "redis", Op: "get", Err: err}
	}
	return val, nil
}

func (s *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return &types.StorageError{Backend: "redis", Op: "set", Err: err}
	}
	return nil
}

func (s *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return &types.StorageError{Backend: "redis", Op: "delete", Err: err}
	}
	return nil
}

// Keys lists keys under the prefix with the prefix removed. It walks the
// keyspace with SCAN so a large database is never blocked.
func (s *RedisKV) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, &types.StorageError{Backend: "redis", Op: "scan", Err: err}
	}
	return keys, nil
}

func (s *RedisKV) Close() error {
	s.logger.Debug("redis storage closing")
	return s.client.Close()
}
