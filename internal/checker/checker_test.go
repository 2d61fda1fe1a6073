package checker

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/EcoCheck/internal/config"
	"github.com/IshaanNene/EcoCheck/internal/detector"
	"github.com/IshaanNene/EcoCheck/internal/fetcher"
	"github.com/IshaanNene/EcoCheck/internal/storage"
	"github.com/IshaanNene/EcoCheck/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const productHTML = `<html><body>
<h1 class="product-title">Bamboo Toothbrush</h1>
<div class="product-description">A compostable toothbrush with a bamboo handle.</div>
<p>Packaging: recycled cardboard box</p>
</body></html>`

const plainHTML = `<html><body><div itemprop="description">Recycled cotton tote bag.</div></body></html>`

// fakeFetcher serves fixed HTML per URL.
type fakeFetcher struct {
	pages map[string]string
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, target string) (*types.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	html, ok := f.pages[target]
	if !ok {
		return nil, &types.FetchError{URL: target, StatusCode: 404, Err: errors.New("not found")}
	}
	p := types.NewPage(target, "test", []byte(html))
	p.StatusCode = 200
	return p, nil
}

func (f *fakeFetcher) Close() error { return nil }
func (f *fakeFetcher) Type() string { return "test" }

// fakeAnalyzer returns a canned result or error and records its input.
type fakeAnalyzer struct {
	mu         sync.Mutex
	result     *types.AnalysisResult
	err        error
	calls      int
	text       string
	credential string
	entered    chan struct{}
	release    chan struct{}
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, cleanedText, credential string) (*types.AnalysisResult, error) {
	a.mu.Lock()
	a.calls++
	a.text = cleanedText
	a.credential = credential
	a.mu.Unlock()

	if a.entered != nil {
		close(a.entered)
	}
	if a.release != nil {
		select {
		case <-a.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.err != nil {
		return nil, a.err
	}
	if credential == "" {
		return nil, types.ErrCredentialMissing
	}
	r := *a.result
	return &r, nil
}

func goodResult() *types.AnalysisResult {
	return &types.AnalysisResult{
		Label:      types.LabelEcoFriendly,
		Confidence: 88,
		Summary:    "Compostable handle.",
		Explanation: types.Explanation{
			CarbonFootprint:     "Low",
			Recyclability:       "Compostable",
			Toxicity:            "None",
			Durability:          "3 months",
			CertificationsFound: []string{},
			GreenwashingRisk:    "Low",
		},
	}
}

type fixture struct {
	cfg      *config.Config
	fetcher  *fakeFetcher
	analyzer *fakeAnalyzer
	store    *storage.Store
	checker  *Checker
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	f := &fixture{
		cfg: cfg,
		fetcher: &fakeFetcher{pages: map[string]string{
			"https://shop.test/p/1":     productHTML,
			"https://shop.test/plain":   plainHTML,
			"https://shop.test/empty":   `<html><body></body></html>`,
			"https://shop.test/toolong": `<html><body><div class="product-description">` + strings.Repeat("long text ", 1200) + `</div></body></html>`,
		}},
		analyzer: &fakeAnalyzer{result: goodResult()},
		store:    storage.NewStore(storage.NewMemoryKV(), cfg.Storage, testLogger),
	}
	f.checker = New(cfg, f.fetcher, f.analyzer, f.store, testLogger)
	return f
}

func (f *fixture) saveKey(t *testing.T) {
	t.Helper()
	if err := f.store.SaveCredential(context.Background(), "test-key"); err != nil {
		t.Fatalf("SaveCredential: %v", err)
	}
}

func TestCheckSuccess(t *testing.T) {
	f := newFixture(t, nil)
	f.saveKey(t)

	rep, err := f.checker.Check(context.Background(), "https://shop.test/p/1")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if !rep.ProductPage || rep.Matched != ".product-title" {
		t.Errorf("expected product page via .product-title, got %v/%q", rep.ProductPage, rep.Matched)
	}
	if rep.Scrape == nil || rep.Scrape.Raw.Title != "Bamboo Toothbrush" {
		t.Fatalf("unexpected scrape %+v", rep.Scrape)
	}
	if rep.Analysis.Label != types.LabelEcoFriendly || rep.Analysis.Timestamp == 0 {
		t.Errorf("expected stamped analysis, got %+v", rep.Analysis)
	}
	if !rep.Saved {
		t.Error("expected analysis to be saved")
	}

	if f.analyzer.credential != "test-key" {
		t.Errorf("analyzer got credential %q", f.analyzer.credential)
	}
	if !strings.HasPrefix(f.analyzer.text, "Title: Bamboo Toothbrush") {
		t.Errorf("analyzer got unexpected text %q", f.analyzer.text)
	}

	loaded, err := f.store.LoadLastAnalysis(context.Background())
	if err != nil {
		t.Fatalf("LoadLastAnalysis: %v", err)
	}
	if loaded.Timestamp != rep.Analysis.Timestamp {
		t.Error("stored analysis differs from returned one")
	}

	snap := f.checker.Metrics().Snapshot()
	if snap["checks_total"] != 1 || snap["analyses_saved"] != 1 || snap["label_eco_friendly"] != 1 {
		t.Errorf("unexpected metrics %v", snap)
	}
}

func TestCheckNonProductPageStillAnalyzed(t *testing.T) {
	f := newFixture(t, nil)
	f.saveKey(t)

	rep, err := f.checker.Check(context.Background(), "https://shop.test/plain")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if rep.ProductPage {
		t.Error("plain page should not be detected as a product page")
	}
	if f.analyzer.calls != 1 {
		t.Errorf("expected one analysis, got %d", f.analyzer.calls)
	}
}

func TestCheckNoProductInfo(t *testing.T) {
	f := newFixture(t, nil)
	f.saveKey(t)

	_, err := f.checker.Check(context.Background(), "https://shop.test/empty")
	if !errors.Is(err, types.ErrNoProductInfo) {
		t.Fatalf("expected ErrNoProductInfo, got %v", err)
	}
	if f.analyzer.calls != 0 {
		t.Error("analyzer should not be called without product text")
	}
}

func TestCheckPayloadTooLarge(t *testing.T) {
	f := newFixture(t, nil)
	f.saveKey(t)

	_, err := f.checker.Check(context.Background(), "https://shop.test/toolong")
	if !errors.Is(err, types.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if f.analyzer.calls != 0 {
		t.Error("analyzer should not be called for oversized payloads")
	}
}

func TestCheckPayloadBoundary(t *testing.T) {
	f := newFixture(t, nil)
	res := &types.ScrapeResult{}
	size, _ := res.PayloadSize()
	res.CleanedText = strings.Repeat("a", 10240-size)

	if err := f.checker.CheckPayload(res); err != nil {
		t.Errorf("payload of exactly 10240 bytes should pass: %v", err)
	}
	res.CleanedText += "a"
	if err := f.checker.CheckPayload(res); !errors.Is(err, types.ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge at 10241 bytes, got %v", err)
	}
}

func TestCheckPayloadCountsHTMLCharactersOnce(t *testing.T) {
	f := newFixture(t, nil)
	desc := strings.Repeat("Bath & Body <Care> ", 170)
	res := &types.ScrapeResult{
		Raw:         types.RawProductRecord{Description: desc},
		CleanedText: "Description: " + desc,
	}
	size, _ := res.PayloadSize()
	if size > 10240 {
		t.Fatalf("payload measured at %d bytes, expected under the cap", size)
	}
	if err := f.checker.CheckPayload(res); err != nil {
		t.Errorf("payload with & < > under the cap should pass: %v", err)
	}

	res.CleanedText += strings.Repeat("&", 10240-size)
	if err := f.checker.CheckPayload(res); err != nil {
		t.Errorf("payload of exactly 10240 bytes should pass: %v", err)
	}
	res.CleanedText += "<"
	if err := f.checker.CheckPayload(res); !errors.Is(err, types.ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge at 10241 bytes, got %v", err)
	}
}

func TestCheckCredentialMissing(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.checker.Check(context.Background(), "https://shop.test/p/1")
	if !errors.Is(err, types.ErrCredentialMissing) {
		t.Fatalf("expected ErrCredentialMissing, got %v", err)
	}
}

func TestCheckUsesConfiguredKey(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) { cfg.AI.APIKey = "from-config" })

	if _, err := f.checker.Check(context.Background(), "https://shop.test/p/1"); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if f.analyzer.credential != "from-config" {
		t.Errorf("credential = %q, want from-config", f.analyzer.credential)
	}

	f.saveKey(t)
	if _, err := f.checker.Check(context.Background(), "https://shop.test/p/1"); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if f.analyzer.credential != "test-key" {
		t.Errorf("stored key should win, got %q", f.analyzer.credential)
	}
}

func TestCheckInvalidAnalysis(t *testing.T) {
	f := newFixture(t, nil)
	f.saveKey(t)
	f.analyzer.result = &types.AnalysisResult{Confidence: 50}

	_, err := f.checker.Check(context.Background(), "https://shop.test/p/1")
	if !errors.Is(err, types.ErrInvalidAnalysis) {
		t.Fatalf("expected ErrInvalidAnalysis, got %v", err)
	}
	if _, err := f.store.LoadLastAnalysis(context.Background()); !errors.Is(err, types.ErrNotFound) {
		t.Error("invalid analysis should not be stored")
	}
}

func TestCheckSaveFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, nil)
	f.saveKey(t)
	big := goodResult()
	big.Summary = strings.Repeat("s", 60000)
	f.analyzer.result = big

	rep, err := f.checker.Check(context.Background(), "https://shop.test/p/1")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if rep.Saved {
		t.Error("oversized analysis should not be reported as saved")
	}
	if rep.Analysis == nil {
		t.Error("analysis should still be returned")
	}
}

func TestCheckFetchError(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.checker.Check(context.Background(), "https://shop.test/missing")
	var ferr *types.FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if f.checker.Metrics().FetchesFailed.Load() != 1 {
		t.Error("expected a failed fetch to be counted")
	}
}

func TestCheckBusy(t *testing.T) {
	f := newFixture(t, nil)
	f.saveKey(t)
	f.analyzer.entered = make(chan struct{})
	f.analyzer.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.checker.Check(context.Background(), "https://shop.test/p/1")
		done <- err
	}()

	<-f.analyzer.entered
	if _, err := f.checker.Check(context.Background(), "https://shop.test/p/1"); !errors.Is(err, types.ErrBusy) {
		t.Errorf("expected ErrBusy for concurrent check, got %v", err)
	}
	if _, err := f.checker.Analyze(context.Background(), "Title: x"); !errors.Is(err, types.ErrBusy) {
		t.Errorf("expected ErrBusy for concurrent analysis, got %v", err)
	}

	close(f.analyzer.release)
	if err := <-done; err != nil {
		t.Fatalf("first check failed: %v", err)
	}
	if f.checker.Metrics().ChecksRejected.Load() != 2 {
		t.Errorf("expected 2 rejected calls, got %d", f.checker.Metrics().ChecksRejected.Load())
	}
}

func TestCheckTimeout(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.AI.CheckTimeout = 50 * time.Millisecond })
	f.saveKey(t)
	f.analyzer.release = make(chan struct{})

	_, err := f.checker.Check(context.Background(), "https://shop.test/p/1")
	if !errors.Is(err, types.ErrCheckTimeout) {
		t.Fatalf("expected ErrCheckTimeout, got %v", err)
	}
}

func TestAnalysisTimeoutPassesThrough(t *testing.T) {
	f := newFixture(t, nil)
	f.saveKey(t)
	f.analyzer.err = types.ErrAnalysisTimeout

	_, err := f.checker.Check(context.Background(), "https://shop.test/p/1")
	if !errors.Is(err, types.ErrAnalysisTimeout) {
		t.Fatalf("expected ErrAnalysisTimeout, got %v", err)
	}
	if f.checker.Metrics().AnalysesTimedOut.Load() != 1 {
		t.Error("expected timed out analysis to be counted")
	}
}

func TestAnalyzeText(t *testing.T) {
	now := time.Now()
	f := newFixture(t, nil)
	f.checker = New(f.cfg, f.fetcher, f.analyzer, f.store, testLogger, WithClock(func() time.Time { return now }))
	f.saveKey(t)

	res, err := f.checker.Analyze(context.Background(), "Title: Steel Bottle")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Timestamp != now.UnixMilli() {
		t.Errorf("expected timestamp %d, got %d", now.UnixMilli(), res.Timestamp)
	}
	if f.analyzer.text != "Title: Steel Bottle" {
		t.Errorf("unexpected analyzer input %q", f.analyzer.text)
	}
}

// liveFetcher hands out a changing document through the Watcher path.
type liveFetcher struct {
	fakeFetcher
	live *fakeLive
}

func (l *liveFetcher) Watch(ctx context.Context, target string) (fetcher.LiveDocument, error) {
	return l.live, nil
}

type fakeLive struct {
	*detector.MutableSource
	mu     sync.Mutex
	html   string
	closed bool
}

func newFakeLive(t *testing.T, html string) *fakeLive {
	return &fakeLive{MutableSource: detector.NewMutableSource(parse(t, html)), html: html}
}

func (l *fakeLive) set(t *testing.T, html string) {
	l.mu.Lock()
	l.html = html
	l.mu.Unlock()
	l.Update(parse(t, html))
}

func (l *fakeLive) Snapshot(ctx context.Context) (*types.Page, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return types.NewPage("https://shop.test/live", "test", []byte(l.html)), nil
}

func (l *fakeLive) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return nil
}

func parse(t *testing.T, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestInspectWaitsForLiveDocument(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Detector.Wait = true
	cfg.Detector.ObserveBudget = 2 * time.Second

	live := newFakeLive(t, `<html><body><div id="app">Loading…</div></body></html>`)
	lf := &liveFetcher{live: live}
	c := New(cfg, lf, &fakeAnalyzer{result: goodResult()}, storage.NewStore(storage.NewMemoryKV(), cfg.Storage, testLogger), testLogger)

	go func() {
		time.Sleep(20 * time.Millisecond)
		live.set(t, productHTML)
	}()

	insp, err := c.Inspect(context.Background(), "https://shop.test/live")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !insp.ProductPage || insp.Matched != ".product-title" {
		t.Errorf("expected product page after update, got %v/%q", insp.ProductPage, insp.Matched)
	}
	if insp.Scrape.Raw.Title != "Bamboo Toothbrush" {
		t.Errorf("expected extraction from updated document, got %q", insp.Scrape.Raw.Title)
	}
	live.mu.Lock()
	closed := live.closed
	live.mu.Unlock()
	if !closed {
		t.Error("live document should be closed after inspection")
	}
}
