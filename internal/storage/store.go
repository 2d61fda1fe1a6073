package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/IshaanNene/EcoCheck/internal/config"
	"github.com/IshaanNene/EcoCheck/internal/report"
	"github.com/IshaanNene/EcoCheck/internal/types"
)

// Well-known keys.
const (
	CredentialKey     = "geminiApiKey"
	LastAnalysisKey   = "lastAnalysis"
	HistoryKey        = "analysisHistory"
	AnalysisKeyPrefix = "analysis_"
)

// Store applies the credential and analysis rules on top of a KV backend.
// Every call is bounded by the configured operation timeout.
type Store struct {
	kv     KV
	cfg    config.StorageConfig
	now    func() time.Time
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces the time source used for freshness checks.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore wraps kv.
func NewStore(kv KV, cfg config.StorageConfig, logger *slog.Logger, opts ...StoreOption) *Store {
	s := &Store{
		kv:     kv,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With("component", "store", "backend", kv.Name()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates the configured backend and wraps it in a Store.
func Open(cfg config.StorageConfig, logger *slog.Logger) (*Store, error) {
	kv, err := NewKV(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewStore(kv, cfg, logger), nil
}

func (s *Store) Name() string { return s.kv.Name() }

func (s *Store) Close() error { return s.kv.Close() }

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OpTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.OpTimeout)
}

// GetCredential returns the stored API key, or ErrCredentialMissing.
func (s *Store) GetCredential(ctx context.Context) (string, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	raw, err := s.kv.Get(ctx, CredentialKey)
	if errors.Is(err, types.ErrNotFound) {
		return "", types.ErrCredentialMissing
	}
	if err != nil {
		return "", err
	}

	var key string
	if err := json.Unmarshal(raw, &key); err != nil || key == "" {
		return "", types.ErrCredentialMissing
	}
	return key, nil
}

// SaveCredential trims and stores key. Empty keys and keys over the
// configured length are rejected.
func (s *Store) SaveCredential(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return types.ErrInvalidCredential
	}
	if utf8.RuneCountInString(key) > s.cfg.MaxCredentialLen {
		return types.ErrCredentialTooLong
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	raw, _ := json.Marshal(key)
	if err := s.kv.Set(ctx, CredentialKey, raw); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	s.logger.Info("API key saved")
	return nil
}

// SaveLastAnalysis replaces the stored analysis. Results whose encoding
// exceeds the size cap are rejected with ErrAnalysisTooLarge.
func (s *Store) SaveLastAnalysis(ctx context.Context, r *types.AnalysisResult) error {
	if r == nil {
		return types.ErrInvalidAnalysis
	}
	raw, err := types.EncodeJSON(r)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	if len(raw) > s.cfg.MaxAnalysisBytes {
		s.logger.Warn("analysis too large to save", "size", len(raw), "limit", s.cfg.MaxAnalysisBytes)
		return types.ErrAnalysisTooLarge
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.kv.Set(ctx, LastAnalysisKey, raw); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	s.logger.Debug("analysis saved", "size", len(raw))
	return nil
}

// LoadLastAnalysis returns the stored analysis if it is valid and fresher
// than the configured window. A stale analysis is removed and reported
// as ErrNotFound wrapping ErrStale.
func (s *Store) LoadLastAnalysis(ctx context.Context) (*types.AnalysisResult, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	raw, err := s.kv.Get(ctx, LastAnalysisKey)
	if err != nil {
		return nil, err
	}
	if !report.ValidateJSON(raw) {
		return nil, types.ErrInvalidAnalysis
	}

	var r types.AnalysisResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, types.ErrInvalidAnalysis
	}

	if age := r.Age(s.now()); age >= s.cfg.Freshness {
		if err := s.kv.Delete(ctx, LastAnalysisKey); err != nil {
			s.logger.Warn("failed to remove stale analysis", "error", err)
		}
		s.logger.Debug("stale analysis removed", "timestamp", r.Timestamp)
		return nil, fmt.Errorf("%w: %w", types.ErrNotFound, types.ErrStale)
	}
	return &r, nil
}

// ClearOldAnalyses removes every analysis_* key and an analysisHistory
// holding more than one entry. It returns the number of keys removed.
func (s *Store) ClearOldAnalyses(ctx context.Context) (int, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return 0, err
	}

	var remove []string
	for _, k := range keys {
		switch {
		case strings.HasPrefix(k, AnalysisKeyPrefix):
			remove = append(remove, k)
		case k == HistoryKey:
			if s.historyOverflows(ctx) {
				remove = append(remove, k)
			}
		}
	}
	if len(remove) == 0 {
		return 0, nil
	}

	if err := s.kv.Delete(ctx, remove...); err != nil {
		return 0, err
	}
	s.logger.Info("old analyses cleared", "removed", len(remove))
	return len(remove), nil
}

func (s *Store) historyOverflows(ctx context.Context) bool {
	raw, err := s.kv.Get(ctx, HistoryKey)
	if err != nil {
		return false
	}
	var history []json.RawMessage
	if err := json.Unmarshal(raw, &history); err != nil {
		return false
	}
	return len(history) > 1
}
