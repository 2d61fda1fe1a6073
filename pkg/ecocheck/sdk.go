// Package ecocheck provides a public SDK for embedding EcoCheck as a library.
//
// Example usage:
//
//	c, err := ecocheck.New(
//	    ecocheck.WithProvider("gemini", "gemini-pro"),
//	    ecocheck.WithAPIKey(os.Getenv("GEMINI_API_KEY")),
//	    ecocheck.WithStorage("memory", ""),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	rep, err := c.Check(ctx, "https://shop.example/product/42")
//	if err != nil {
//	    log.Fatal(ecocheck.Message(err))
//	}
//	fmt.Println(rep.Analysis.Label, rep.Analysis.Confidence)
package ecocheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/EcoCheck/internal/ai"
	"github.com/IshaanNene/EcoCheck/internal/checker"
	"github.com/IshaanNene/EcoCheck/internal/config"
	"github.com/IshaanNene/EcoCheck/internal/fetcher"
	"github.com/IshaanNene/EcoCheck/internal/observability"
	"github.com/IshaanNene/EcoCheck/internal/scraper"
	"github.com/IshaanNene/EcoCheck/internal/storage"
	"github.com/IshaanNene/EcoCheck/internal/types"
)

type (
	// Result is an environmental analysis.
	Result = types.AnalysisResult
	// ScrapeResult is the extracted product record and its cleaned text.
	ScrapeResult = types.ScrapeResult
	// Inspection is what was learned about a page before analysis.
	Inspection = checker.Inspection
	// Report is the outcome of a full check.
	Report = checker.Report
)

// Checker is the high-level API for using EcoCheck as a library.
type Checker struct {
	cfg     *config.Config
	logger  *slog.Logger
	fetcher fetcher.Fetcher
	store   *storage.Store
	checker *checker.Checker
}

// Option configures a Checker.
type Option func(*config.Config)

// WithProvider selects the LLM provider and model.
func WithProvider(provider, model string) Option {
	return func(c *config.Config) {
		c.AI.Provider = provider
		if model != "" {
			c.AI.Model = model
		}
	}
}

// WithEndpoint overrides the provider base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *config.Config) { c.AI.Endpoint = endpoint }
}

// WithAPIKey sets the credential used when none is stored.
func WithAPIKey(key string) Option {
	return func(c *config.Config) { c.AI.APIKey = key }
}

// WithFetcher selects how pages are read: "http", "browser" or "file".
func WithFetcher(kind string) Option {
	return func(c *config.Config) { c.Fetcher.Type = kind }
}

// WithWait makes the browser fetcher watch the page until product content
// shows up.
func WithWait(wait bool) Option {
	return func(c *config.Config) { c.Detector.Wait = wait }
}

// WithStorage selects the storage backend. path is only used by the file
// backend.
func WithStorage(kind, path string) Option {
	return func(c *config.Config) {
		c.Storage.Type = kind
		if path != "" {
			c.Storage.Path = path
		}
	}
}

// WithTimeouts sets the analysis and overall check timeouts.
func WithTimeouts(analysis, check time.Duration) Option {
	return func(c *config.Config) {
		c.AI.AnalysisTimeout = analysis
		c.AI.CheckTimeout = check
	}
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// WithConfig replaces the whole configuration. Later options still apply.
func WithConfig(cfg *config.Config) Option {
	return func(c *config.Config) { *c = *cfg }
}

// New creates a Checker with the given options.
func New(opts ...Option) (*Checker, error) {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store, err := storage.Open(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	f, err := fetcher.New(cfg.Fetcher, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	analyzer := ai.NewClient(cfg.AI, logger)
	metrics := observability.NewMetrics(logger)

	return &Checker{
		cfg:     cfg,
		logger:  logger,
		fetcher: f,
		store:   store,
		checker: checker.New(cfg, f, analyzer, store, logger, checker.WithMetrics(metrics)),
	}, nil
}

// Check fetches, scrapes and analyzes the product page at target.
func (c *Checker) Check(ctx context.Context, target string) (*Report, error) {
	return c.checker.Check(ctx, target)
}

// Scrape fetches target and extracts the product signals without
// analysis.
func (c *Checker) Scrape(ctx context.Context, target string) (*Inspection, error) {
	return c.checker.Inspect(ctx, target)
}

// Analyze rates product text directly.
func (c *Checker) Analyze(ctx context.Context, text string) (*Result, error) {
	return c.checker.Analyze(ctx, text)
}

// SetAPIKey stores the LLM credential.
func (c *Checker) SetAPIKey(ctx context.Context, key string) error {
	return c.store.SaveCredential(ctx, key)
}

// LastAnalysis returns the most recent analysis while it is fresh.
func (c *Checker) LastAnalysis(ctx context.Context) (*Result, error) {
	return c.store.LoadLastAnalysis(ctx)
}

// Metrics returns a snapshot of the check counters.
func (c *Checker) Metrics() map[string]int64 {
	return c.checker.Metrics().Snapshot()
}

// Close releases the fetcher and storage.
func (c *Checker) Close() error {
	ferr := c.fetcher.Close()
	if err := c.store.Close(); err != nil {
		return err
	}
	return ferr
}

// ScrapeHTML extracts the product signals from an HTML document without
// fetching anything. pageURL is recorded on the result and may be empty.
func ScrapeHTML(r io.Reader, pageURL string) (*ScrapeResult, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := scraper.New(config.DefaultConfig().Scraper, logger)
	return s.Scrape(types.NewPage(pageURL, "sdk", body))
}

// Message returns the human-readable text for an error from this package.
func Message(err error) string {
	return types.UserMessage(err)
}
