package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/EcoCheck/internal/config"
	"github.com/IshaanNene/EcoCheck/internal/types"
)

// BrowserFetcher implements Fetcher using a headless browser via Rod, so
// client-rendered product pages are seen as a shopper sees them.
type BrowserFetcher struct {
	browser *rod.Browser
	cfg     config.FetcherConfig
	logger  *slog.Logger
	uaIndex int
	mu      sync.Mutex
}

// NewBrowserFetcher launches a headless browser.
func NewBrowserFetcher(cfg config.FetcherConfig, logger *slog.Logger) (*BrowserFetcher, error) {
	bf := &BrowserFetcher{
		cfg:    cfg,
		logger: logger.With("component", "browser_fetcher"),
	}

	launchURL, err := bf.launchBrowser()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	bf.browser = browser

	bf.logger.Info("browser fetcher ready", "stealth", cfg.Stealth)
	return bf, nil
}

// launchBrowser starts a Chromium instance with appropriate flags.
func (bf *BrowserFetcher) launchBrowser() (string, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	if bf.cfg.BrowserBin != "" {
		l = l.Bin(bf.cfg.BrowserBin)
	}
	return l.Launch()
}

// openPage creates a tab, navigates it to target and waits for load.
func (bf *BrowserFetcher) openPage(target string) (*rod.Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if bf.cfg.Stealth {
		page, err = stealth.Page(bf.browser)
	} else {
		page, err = bf.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	if ua := bf.nextUserAgent(); ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}

	if err := page.Timeout(bf.cfg.RequestTimeout).Navigate(target); err != nil {
		page.Close()
		return nil, err
	}
	if err := page.Timeout(bf.cfg.RequestTimeout).WaitLoad(); err != nil {
		bf.logger.Warn("page load timeout, continuing", "url", target, "error", err)
	}
	return page, nil
}

// Fetch navigates to target and returns the rendered page once the DOM
// has settled.
func (bf *BrowserFetcher) Fetch(ctx context.Context, target string) (*types.Page, error) {
	if err := config.ValidateURL(target); err != nil {
		return nil, &types.FetchError{URL: target, Err: fmt.Errorf("%w: %v", types.ErrInvalidURL, err)}
	}
	start := time.Now()

	page, err := bf.openPage(target)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err}
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.Timeout(bf.cfg.RequestTimeout).WaitStable(300 * time.Millisecond); err != nil {
		bf.logger.Warn("page stability timeout, continuing", "url", target, "error", err)
	}

	p, err := snapshot(page, target)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err}
	}
	p.FetchDuration = time.Since(start)

	bf.logger.Debug("browser fetch complete",
		"url", target,
		"final_url", p.FinalURL,
		"size", len(p.Body),
		"duration", p.FetchDuration,
	)
	return p, nil
}

// Watch opens target and keeps it open, reporting DOM mutations until the
// returned document is closed or ctx ends.
func (bf *BrowserFetcher) Watch(ctx context.Context, target string) (LiveDocument, error) {
	if err := config.ValidateURL(target); err != nil {
		return nil, &types.FetchError{URL: target, Err: fmt.Errorf("%w: %v", types.ErrInvalidURL, err)}
	}

	page, err := bf.openPage(target)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err}
	}

	watchCtx, cancel := context.WithCancel(ctx)
	ld := &liveDocument{
		root:    page,
		page:    page.Context(watchCtx),
		target:  target,
		changes: make(chan struct{}, 1),
		cancel:  cancel,
	}

	wait := ld.page.EachEvent(
		func(*proto.DOMChildNodeInserted) { ld.tick() },
		func(*proto.DOMChildNodeRemoved) { ld.tick() },
		func(*proto.DOMDocumentUpdated) { ld.tick() },
	)

	// Child-node events only fire for nodes the client has requested.
	depth := -1
	if err := (proto.DOMEnable{}).Call(ld.page); err != nil {
		ld.Close()
		return nil, &types.FetchError{URL: target, Err: fmt.Errorf("enable DOM events: %w", err)}
	}
	if _, err := (proto.DOMGetDocument{Depth: &depth}).Call(ld.page); err != nil {
		ld.Close()
		return nil, &types.FetchError{URL: target, Err: fmt.Errorf("request DOM: %w", err)}
	}
	go wait()

	bf.logger.Debug("watching page", "url", target)
	return ld, nil
}

// Close shuts down the browser and releases resources.
func (bf *BrowserFetcher) Close() error {
	if bf.browser != nil {
		return bf.browser.Close()
	}
	return nil
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}

func (bf *BrowserFetcher) nextUserAgent() string {
	if len(bf.cfg.UserAgents) == 0 {
		return ""
	}
	bf.mu.Lock()
	defer bf.mu.Unlock()
	bf.uaIndex = (bf.uaIndex + 1) % len(bf.cfg.UserAgents)
	return bf.cfg.UserAgents[bf.uaIndex]
}

// liveDocument is an open browser tab.
type liveDocument struct {
	root    *rod.Page
	page    *rod.Page
	target  string
	changes chan struct{}
	cancel  context.CancelFunc
	once    sync.Once
}

func (d *liveDocument) tick() {
	select {
	case d.changes <- struct{}{}:
	default:
	}
}

func (d *liveDocument) Changes() <-chan struct{} { return d.changes }

func (d *liveDocument) Document(ctx context.Context) (*goquery.Document, error) {
	html, err := d.page.Context(ctx).HTML()
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (d *liveDocument) Snapshot(ctx context.Context) (*types.Page, error) {
	return snapshot(d.page.Context(ctx), d.target)
}

func (d *liveDocument) Close() error {
	var err error
	d.once.Do(func() {
		d.cancel()
		err = d.root.Close()
	})
	return err
}

// snapshot captures the rendered HTML and final URL of page.
func snapshot(page *rod.Page, target string) (*types.Page, error) {
	html, err := page.HTML()
	if err != nil {
		return nil, err
	}

	p := types.NewPage(target, "browser", []byte(html))
	if info, err := page.Info(); err == nil && info != nil {
		p.FinalURL = info.URL
	}
	p.Challenge = DetectChallenge(p.Body)
	return p, nil
}
