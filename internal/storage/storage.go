// Package storage persists the API credential and the last analysis on a
// pluggable key/value backend.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/EcoCheck/internal/config"
)

// KV is the interface for all key/value backends. Values are JSON
// documents. Get returns types.ErrNotFound for a missing key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)

	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Keys lists every stored key.
	Keys(ctx context.Context) ([]string, error)

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the backend identifier.
	Name() string
}

// NewKV creates the backend selected by cfg.Type.
func NewKV(cfg config.StorageConfig, logger *slog.Logger) (KV, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryKV(), nil
	case "file":
		return NewFileKV(cfg.Path, logger)
	case "redis":
		return NewRedisKV(cfg.RedisAddr, cfg.RedisPrefix, logger)
	case "mongo":
		return NewMongoKV(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
