// Package checker runs a full product check: acquire the page, detect and
// extract the product signals, analyze them and keep the result.
package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/EcoCheck/internal/ai"
	"github.com/IshaanNene/EcoCheck/internal/config"
	"github.com/IshaanNene/EcoCheck/internal/detector"
	"github.com/IshaanNene/EcoCheck/internal/fetcher"
	"github.com/IshaanNene/EcoCheck/internal/observability"
	"github.com/IshaanNene/EcoCheck/internal/report"
	"github.com/IshaanNene/EcoCheck/internal/scraper"
	"github.com/IshaanNene/EcoCheck/internal/types"
)

// Store is the persistence the checker needs.
type Store interface {
	GetCredential(ctx context.Context) (string, error)
	SaveLastAnalysis(ctx context.Context, r *types.AnalysisResult) error
}

// Inspection is what was learned about a page without analyzing it.
type Inspection struct {
	URL         string              `json:"url"`
	ProductPage bool                `json:"productPage"`
	Matched     string              `json:"matched,omitempty"`
	Challenge   string              `json:"challenge,omitempty"`
	Scrape      *types.ScrapeResult `json:"scrape,omitempty"`
}

// Report is the outcome of a full check.
type Report struct {
	Inspection
	Analysis *types.AnalysisResult `json:"analysis"`
	Saved    bool                  `json:"saved"`
	Duration time.Duration         `json:"duration"`
}

// Checker coordinates a single product check at a time.
type Checker struct {
	cfg      *config.Config
	fetcher  fetcher.Fetcher
	detector *detector.Detector
	scraper  *scraper.Scraper
	analyzer ai.Analyzer
	store    Store
	metrics  *observability.Metrics
	busy     atomic.Bool
	now      func() time.Time
	base     *slog.Logger
	logger   *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithMetrics records counters into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Checker) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithScraper replaces the extractor.
func WithScraper(s *scraper.Scraper) Option {
	return func(c *Checker) { c.scraper = s }
}

// WithDetector replaces the page-readiness detector.
func WithDetector(d *detector.Detector) Option {
	return func(c *Checker) { c.detector = d }
}

// WithClock replaces the time source used to stamp analyses.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

// New creates a Checker.
func New(cfg *config.Config, f fetcher.Fetcher, analyzer ai.Analyzer, store Store, logger *slog.Logger, opts ...Option) *Checker {
	c := &Checker{
		cfg:      cfg,
		fetcher:  f,
		detector: detector.New(logger),
		scraper:  scraper.New(cfg.Scraper, logger),
		analyzer: analyzer,
		store:    store,
		metrics:  observability.NewMetrics(logger),
		now:      time.Now,
		base:     logger,
		logger:   logger.With("component", "checker"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Metrics returns the counters the checker records into.
func (c *Checker) Metrics() *observability.Metrics {
	return c.metrics
}

// CheckPayload rejects extraction results whose JSON encoding exceeds
// the payload cap.
func (c *Checker) CheckPayload(result *types.ScrapeResult) error {
	size, err := result.PayloadSize()
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if size > c.cfg.Scraper.MaxPayloadBytes {
		c.metrics.PayloadRejected.Add(1)
		c.logger.Warn("payload too large", "size", size, "limit", c.cfg.Scraper.MaxPayloadBytes)
		return types.ErrPayloadTooLarge
	}
	return nil
}

// Inspect fetches target, runs the detector and extracts the product
// signals. A page the detector does not recognise is still extracted.
// The returned Inspection is populated as far as the work got, even
// alongside an error.
func (c *Checker) Inspect(ctx context.Context, target string) (*Inspection, error) {
	insp := &Inspection{URL: target}

	page, err := c.acquire(ctx, insp)
	if err != nil {
		c.metrics.FetchesFailed.Add(1)
		return insp, err
	}
	insp.URL = page.EffectiveURL()
	insp.Challenge = page.Challenge
	c.metrics.BytesDownloaded.Add(int64(len(page.Body)))

	if insp.ProductPage {
		c.metrics.ProductPages.Add(1)
	} else {
		c.metrics.NonProductPages.Add(1)
	}

	c.metrics.ScrapesTotal.Add(1)
	result, err := c.scraper.Scrape(page)
	insp.Scrape = result
	if errors.Is(err, types.ErrNoProductInfo) {
		c.metrics.ScrapesEmpty.Add(1)
	}
	if err != nil {
		return insp, err
	}
	return insp, nil
}

// acquire obtains the page and fills in the detection fields of insp.
// When the fetcher can keep a page open and waiting is enabled, the
// detector watches the live document until it matches or its budget
// runs out; otherwise it checks the fetched snapshot once.
func (c *Checker) acquire(ctx context.Context, insp *Inspection) (*types.Page, error) {
	c.metrics.FetchesTotal.Add(1)

	if w, ok := c.fetcher.(fetcher.Watcher); ok && c.cfg.Detector.Wait {
		live, err := w.Watch(ctx, insp.URL)
		if err != nil {
			return nil, err
		}
		defer live.Close()

		c.detect(ctx, live, insp, true)
		return live.Snapshot(ctx)
	}

	page, err := c.fetcher.Fetch(ctx, insp.URL)
	if err != nil {
		return nil, err
	}
	if !page.IsSuccess() {
		c.logger.Warn("page returned an error status", "url", insp.URL, "status", page.StatusCode)
	}
	doc, err := page.Document()
	if err != nil {
		return nil, &types.ParseError{Field: "document", Err: err}
	}
	c.detect(ctx, detector.NewStaticSource(doc), insp, false)
	return page, nil
}

func (c *Checker) detect(ctx context.Context, src detector.DocumentSource, insp *Inspection, wait bool) {
	session := detector.NewSession(c.detector, src, c.base, detector.WithBudget(c.cfg.Detector.ObserveBudget))
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		c.logger.Debug("detector session not started", "error", err)
		return
	}
	if wait {
		if _, err := session.Wait(ctx); err != nil {
			c.logger.Debug("detector wait interrupted", "error", err)
		}
	}
	insp.ProductPage = session.IsProductPage()
	insp.Matched = session.Matched()

	c.logger.Debug("detection complete", "url", insp.URL, "product", insp.ProductPage, "matched", insp.Matched, "checks", session.Checks())
}

// Check runs the whole flow for target. Only one check or analysis runs
// at a time; a concurrent call fails with ErrBusy. The flow is bounded by
// the configured check timeout.
func (c *Checker) Check(ctx context.Context, target string) (*Report, error) {
	if !c.busy.CompareAndSwap(false, true) {
		c.metrics.ChecksRejected.Add(1)
		return nil, types.ErrBusy
	}
	defer c.busy.Store(false)

	c.metrics.ChecksTotal.Add(1)
	c.metrics.ActiveChecks.Add(1)
	defer c.metrics.ActiveChecks.Add(-1)

	start := time.Now()
	checkCtx, cancel := c.withCheckTimeout(ctx)
	defer cancel()

	rep := &Report{}
	err := c.check(checkCtx, target, rep)
	rep.Duration = time.Since(start)
	if err != nil {
		c.metrics.ChecksFailed.Add(1)
		err = c.timeoutError(ctx, checkCtx, err)
		c.logger.Warn("check failed", "url", target, "error", err)
		return rep, err
	}

	c.logger.Info("check complete",
		"url", rep.URL,
		"label", rep.Analysis.Label,
		"confidence", rep.Analysis.Confidence,
		"saved", rep.Saved,
		"duration", rep.Duration.Round(time.Millisecond),
	)
	return rep, nil
}

func (c *Checker) check(ctx context.Context, target string, rep *Report) error {
	insp, err := c.Inspect(ctx, target)
	if insp != nil {
		rep.Inspection = *insp
	}
	if err != nil {
		return err
	}

	if err := c.CheckPayload(insp.Scrape); err != nil {
		return err
	}

	analysis, saved, err := c.analyze(ctx, insp.Scrape.CleanedText)
	if err != nil {
		return err
	}
	rep.Analysis = analysis
	rep.Saved = saved
	return nil
}

// Analyze assesses already extracted text using the stored credential.
// It shares the single in-flight guard with Check.
func (c *Checker) Analyze(ctx context.Context, cleanedText string) (*types.AnalysisResult, error) {
	if !c.busy.CompareAndSwap(false, true) {
		c.metrics.ChecksRejected.Add(1)
		return nil, types.ErrBusy
	}
	defer c.busy.Store(false)

	checkCtx, cancel := c.withCheckTimeout(ctx)
	defer cancel()

	result, _, err := c.analyze(checkCtx, cleanedText)
	if err != nil {
		return nil, c.timeoutError(ctx, checkCtx, err)
	}
	return result, nil
}

// analyze fetches the credential (falling back to ai.api_key), calls the analyzer, validates and
// stamps the result, then saves it. A failed save is logged and reported
// through the saved flag only.
func (c *Checker) analyze(ctx context.Context, cleanedText string) (*types.AnalysisResult, bool, error) {
	credential, err := c.store.GetCredential(ctx)
	if err != nil && !errors.Is(err, types.ErrCredentialMissing) {
		c.metrics.StorageErrors.Add(1)
		return nil, false, err
	}
	if credential == "" {
		credential = c.cfg.AI.APIKey
	}

	c.metrics.AnalysesTotal.Add(1)
	result, err := c.analyzer.Analyze(ctx, cleanedText, credential)
	if err != nil {
		c.metrics.AnalysesFailed.Add(1)
		if errors.Is(err, types.ErrAnalysisTimeout) {
			c.metrics.AnalysesTimedOut.Add(1)
		}
		return nil, false, err
	}
	if !report.ValidateResult(result) {
		c.metrics.AnalysesFailed.Add(1)
		return nil, false, types.ErrInvalidAnalysis
	}
	c.metrics.RecordLabel(result.Label)

	result.Stamp(c.now())

	if err := c.store.SaveLastAnalysis(ctx, result); err != nil {
		c.metrics.StorageErrors.Add(1)
		c.logger.Warn("analysis not saved", "error", err)
		return result, false, nil
	}
	c.metrics.AnalysesSaved.Add(1)
	return result, true, nil
}

func (c *Checker) withCheckTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.AI.CheckTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.AI.CheckTimeout)
}

// timeoutError reports ErrCheckTimeout when the check deadline, rather
// than the caller or the analysis deadline, ended the work.
func (c *Checker) timeoutError(parent, checkCtx context.Context, err error) error {
	if errors.Is(err, types.ErrAnalysisTimeout) || parent.Err() != nil {
		return err
	}
	if errors.Is(checkCtx.Err(), context.DeadlineExceeded) {
		return types.ErrCheckTimeout
	}
	return err
}
