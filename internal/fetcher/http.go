package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync/atomic"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/EcoCheck/internal/config"
	"github.com/IshaanNene/EcoCheck/internal/types"
)

// HTTPFetcher implements Fetcher using net/http. It sees the server's
// HTML only; client-rendered content needs the browser fetcher.
type HTTPFetcher struct {
	client     *http.Client
	cfg        config.FetcherConfig
	logger     *slog.Logger
	userAgents []string
	uaIndex    atomic.Int64
}

// NewHTTPFetcher creates a new HTTP fetcher.
func NewHTTPFetcher(cfg config.FetcherConfig, logger *slog.Logger) (*HTTPFetcher, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns / 2,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.TLSInsecure,
		},
		DisableCompression: true, // decompression (including brotli) is done in Fetch
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !cfg.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= cfg.MaxRedirects {
			return fmt.Errorf("max redirects (%d) reached", cfg.MaxRedirects)
		}
		return nil
	}

	return &HTTPFetcher{
		client: &http.Client{
			Transport:     transport,
			Jar:           jar,
			Timeout:       cfg.RequestTimeout,
			CheckRedirect: redirectPolicy,
		},
		cfg:        cfg,
		logger:     logger.With("component", "http_fetcher"),
		userAgents: cfg.UserAgents,
	}, nil
}

// Fetch downloads target and returns it as a Page. Server errors and
// rate limiting are returned as *types.FetchError; other statuses yield
// a Page whose IsSuccess reports false.
func (f *HTTPFetcher) Fetch(ctx context.Context, target string) (*types.Page, error) {
	if err := config.ValidateURL(target); err != nil {
		return nil, &types.FetchError{URL: target, Err: fmt.Errorf("%w: %v", types.ErrInvalidURL, err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err}
	}

	httpReq.Header.Set("User-Agent", f.nextUserAgent())
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")

	start := time.Now()
	httpResp, err := f.client.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, &types.FetchError{
			URL:        target,
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var reader io.Reader = httpResp.Body
	if f.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, f.cfg.MaxBodySize)
	}

	reader, err = decompressReader(httpResp, reader)
	if err != nil {
		return nil, &types.FetchError{URL: target, StatusCode: httpResp.StatusCode, Err: err}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &types.FetchError{URL: target, StatusCode: httpResp.StatusCode, Err: err}
	}

	page := types.NewPage(target, f.Type(), body)
	page.FinalURL = httpResp.Request.URL.String()
	page.StatusCode = httpResp.StatusCode
	page.ContentType = httpResp.Header.Get("Content-Type")
	page.FetchDuration = duration
	page.Challenge = DetectChallenge(body)

	f.logger.Debug("fetch complete",
		"url", target,
		"status", page.StatusCode,
		"size", len(body),
		"duration", duration,
	)
	if page.Challenge != "" {
		f.logger.Warn("bot challenge detected", "url", target, "challenge", page.Challenge)
	}

	return page, nil
}

// Close releases resources.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// Type returns the fetcher type identifier.
func (f *HTTPFetcher) Type() string {
	return "http"
}

// nextUserAgent returns the next User-Agent in rotation.
func (f *HTTPFetcher) nextUserAgent() string {
	if len(f.userAgents) == 0 {
		return "EcoCheck/" + config.Version
	}
	idx := f.uaIndex.Add(1) % int64(len(f.userAgents))
	return f.userAgents[idx]
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
