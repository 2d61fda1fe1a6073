// Package fetcher acquires the HTML document a check runs against.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/EcoCheck/internal/config"
	"github.com/IshaanNene/EcoCheck/internal/detector"
	"github.com/IshaanNene/EcoCheck/internal/types"
)

// Fetcher is the interface for all page fetcher implementations.
type Fetcher interface {
	// Fetch retrieves the document at target.
	Fetch(ctx context.Context, target string) (*types.Page, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// LiveDocument is a document that keeps changing after it is opened. It
// feeds a detector session and yields a page snapshot for extraction.
type LiveDocument interface {
	detector.DocumentSource

	// Snapshot returns the document as it is now.
	Snapshot(ctx context.Context) (*types.Page, error)

	Close() error
}

// Watcher is implemented by fetchers that can keep a page open.
type Watcher interface {
	Watch(ctx context.Context, target string) (LiveDocument, error)
}

// New creates the fetcher selected by cfg.Type.
func New(cfg config.FetcherConfig, logger *slog.Logger) (Fetcher, error) {
	switch cfg.Type {
	case "http":
		return NewHTTPFetcher(cfg, logger)
	case "browser":
		return NewBrowserFetcher(cfg, logger)
	case "file":
		return NewFileFetcher(cfg.MaxBodySize, logger), nil
	default:
		return nil, fmt.Errorf("unsupported fetcher type: %s", cfg.Type)
	}
}
