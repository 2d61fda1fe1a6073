package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/IshaanNene/EcoCheck/internal/types"
)

// FileKV keeps every key in a single JSON object on disk. The whole file
// is rewritten on each change.
type FileKV struct {
	path   string
	data   map[string]json.RawMessage
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileKV opens (or creates) the store file at path.
func NewFileKV(path string, logger *slog.Logger) (*FileKV, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, &types.StorageError{Backend: "file", Op: "open", Err: fmt.Errorf("create store dir: %w", err)}
	}

	s := &FileKV{
		path:   path,
		data:   make(map[string]json.RawMessage),
		logger: logger.With("component", "file_storage"),
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, &types.StorageError{Backend: "file", Op: "open", Err: err}
	case len(raw) > 0:
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, &types.StorageError{Backend: "file", Op: "open", Err: fmt.Errorf("decode %s: %w", path, err)}
		}
	}

	s.logger.Debug("file store opened", "path", path, "keys", len(s.data))
	return s, nil
}

func (s *FileKV) Name() string { return "file" }

func (s *FileKV) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[key]
	if !ok {
		return nil, types.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *FileKV) Set(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return &types.StorageError{Backend: "file", Op: "set", Err: fmt.Errorf("value for %q is not JSON", key)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append(json.RawMessage(nil), value...)
	return s.flush()
}

func (s *FileKV) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, k := range keys {
		if _, ok := s.data[k]; ok {
			delete(s.data, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.flush()
}

func (s *FileKV) Keys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileKV) Close() error {
	s.logger.Debug("file store closed", "path", s.path, "keys", len(s.data))
	return nil
}

// flush writes the map to a temp file and renames it over the store.
// Callers hold s.mu.
func (s *FileKV) flush() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ecocheck-*.json")
	if err != nil {
		return &types.StorageError{Backend: "file", Op: "write", Err: err}
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.data); err != nil {
		tmp.Close()
		return &types.StorageError{Backend: "file", Op: "write", Err: fmt.Errorf("encode JSON: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return &types.StorageError{Backend: "file", Op: "write", Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return &types.StorageError{Backend: "file", Op: "write", Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return &types.StorageError{Backend: "file", Op: "write", Err: err}
	}
	return nil
}
