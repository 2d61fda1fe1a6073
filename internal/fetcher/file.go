package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/IshaanNene/EcoCheck/internal/types"
)

// FileFetcher reads saved HTML from the local filesystem. Targets may be
// plain paths or file:// URLs.
type FileFetcher struct {
	maxBodySize int64
	logger      *slog.Logger
}

// NewFileFetcher creates a fetcher for local files.
func NewFileFetcher(maxBodySize int64, logger *slog.Logger) *FileFetcher {
	return &FileFetcher{
		maxBodySize: maxBodySize,
		logger:      logger.With("component", "file_fetcher"),
	}
}

func (f *FileFetcher) Fetch(ctx context.Context, target string) (*types.Page, error) {
	path := target
	if strings.HasPrefix(target, "file://") {
		u, err := url.Parse(target)
		if err != nil {
			return nil, &types.FetchError{URL: target, Err: fmt.Errorf("%w: %v", types.ErrInvalidURL, err)}
		}
		path = u.Path
	}

	start := time.Now()
	file, err := os.Open(path)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err}
	}
	defer file.Close()

	var reader io.Reader = file
	if f.maxBodySize > 0 {
		reader = io.LimitReader(reader, f.maxBodySize)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err}
	}

	abs, _ := filepath.Abs(path)
	page := types.NewPage("file://"+filepath.ToSlash(abs), f.Type(), body)
	page.FetchDuration = time.Since(start)
	page.Challenge = DetectChallenge(body)

	f.logger.Debug("file read", "path", path, "size", len(body))
	return page, nil
}

func (f *FileFetcher) Close() error { return nil }

func (f *FileFetcher) Type() string { return "file" }
