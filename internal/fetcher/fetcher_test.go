package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/EcoCheck/internal/config"
	"github.com/IshaanNene/EcoCheck/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const productHTML = `<html><body><h1 class="product-title">Bamboo Toothbrush</h1></body></html>`

func newTestHTTPFetcher(t *testing.T, mutate func(*config.FetcherConfig)) *HTTPFetcher {
	t.Helper()
	cfg := config.DefaultConfig().Fetcher
	if mutate != nil {
		mutate(&cfg)
	}
	f, err := NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Encoding") != "gzip, deflate, br" {
			t.Errorf("unexpected Accept-Encoding %q", r.Header.Get("Accept-Encoding"))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, productHTML)
	}))
	defer srv.Close()

	f := newTestHTTPFetcher(t, nil)
	page, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(page.Body) != productHTML {
		t.Errorf("unexpected body %q", page.Body)
	}
	if page.StatusCode != 200 || !page.IsSuccess() || page.Source != "http" {
		t.Errorf("unexpected page metadata %+v", page)
	}
	if !strings.HasPrefix(page.ContentType, "text/html") {
		t.Errorf("unexpected content type %q", page.ContentType)
	}
}

func TestHTTPFetchDecompression(t *testing.T) {
	tests := []struct {
		encoding string
		encode   func([]byte) []byte
	}{
		{"gzip", func(b []byte) []byte {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			zw.Write(b)
			zw.Close()
			return buf.Bytes()
		}},
		{"br", func(b []byte) []byte {
			var buf bytes.Buffer
			bw := brotli.NewWriter(&buf)
			bw.Write(b)
			bw.Close()
			return buf.Bytes()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.encoding, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", tt.encoding)
				w.Write(tt.encode([]byte(productHTML)))
			}))
			defer srv.Close()

			f := newTestHTTPFetcher(t, nil)
			page, err := f.Fetch(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if string(page.Body) != productHTML {
				t.Errorf("body not decompressed: %q", page.Body)
			}
		})
	}
}

func TestHTTPFetchStatuses(t *testing.T) {
	tests := []struct {
		status  int
		wantErr bool
	}{
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, "<html><body>nope</body></html>")
			}))
			defer srv.Close()

			f := newTestHTTPFetcher(t, nil)
			page, err := f.Fetch(context.Background(), srv.URL)
			if tt.wantErr {
				var ferr *types.FetchError
				if !errors.As(err, &ferr) || ferr.StatusCode != tt.status {
					t.Fatalf("expected FetchError with status %d, got %v", tt.status, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if page.IsSuccess() {
				t.Error("expected IsSuccess to be false")
			}
		})
	}
}

func TestHTTPFetchRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/p/1", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/product/bamboo", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/product/bamboo", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, productHTML)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := newTestHTTPFetcher(t, nil)
	page, err := f.Fetch(context.Background(), srv.URL+"/p/1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if page.URL != srv.URL+"/p/1" || page.EffectiveURL() != srv.URL+"/product/bamboo" {
		t.Errorf("unexpected URLs %q -> %q", page.URL, page.EffectiveURL())
	}

	noFollow := newTestHTTPFetcher(t, func(c *config.FetcherConfig) { c.FollowRedirects = false })
	page, err = noFollow.Fetch(context.Background(), srv.URL+"/p/1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if page.StatusCode != http.StatusMovedPermanently {
		t.Errorf("expected 301 without following, got %d", page.StatusCode)
	}
}

func TestHTTPFetchBodyLimitAndUserAgents(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.UserAgent())
		io.WriteString(w, strings.Repeat("a", 100))
	}))
	defer srv.Close()

	f := newTestHTTPFetcher(t, func(c *config.FetcherConfig) {
		c.MaxBodySize = 10
		c.UserAgents = []string{"ua-1", "ua-2"}
	})
	for i := 0; i < 2; i++ {
		page, err := f.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if len(page.Body) != 10 {
			t.Errorf("expected body capped at 10 bytes, got %d", len(page.Body))
		}
	}
	if len(seen) != 2 || seen[0] == seen[1] {
		t.Errorf("expected rotating user agents, got %v", seen)
	}
}

func TestHTTPFetchInvalidURL(t *testing.T) {
	f := newTestHTTPFetcher(t, nil)
	for _, target := range []string{"ftp://example.com", "not a url", "http://"} {
		if _, err := f.Fetch(context.Background(), target); !errors.Is(err, types.ErrInvalidURL) {
			t.Errorf("%q: expected ErrInvalidURL, got %v", target, err)
		}
	}
}

func TestFileFetch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "product.html")
	os.WriteFile(path, []byte(productHTML), 0o644)

	f := NewFileFetcher(0, testLogger)
	for _, target := range []string{path, "file://" + filepath.ToSlash(path)} {
		page, err := f.Fetch(context.Background(), target)
		if err != nil {
			t.Fatalf("Fetch(%q): %v", target, err)
		}
		if string(page.Body) != productHTML || page.Source != "file" || !page.IsSuccess() {
			t.Errorf("unexpected page %+v", page)
		}
		if !strings.HasPrefix(page.URL, "file://") {
			t.Errorf("expected file:// URL, got %q", page.URL)
		}
	}

	var ferr *types.FetchError
	if _, err := f.Fetch(context.Background(), filepath.Join(dir, "missing.html")); !errors.As(err, &ferr) {
		t.Errorf("expected FetchError for missing file, got %v", err)
	}
}

func TestDetectChallenge(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"recaptcha", `<div class="g-recaptcha" data-sitekey="abc"></div>`, ChallengeReCaptcha},
		{"hcaptcha", `<div class="h-captcha" data-sitekey="abc"></div>`, ChallengeHCaptcha},
		{"turnstile", `<div class="cf-turnstile" data-sitekey="abc"></div>`, ChallengeTurnstile},
		{"script only", `<script src="https://www.google.com/recaptcha/api.js"></script>`, ""},
		{"product page", productHTML, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectChallenge([]byte(tt.html)); got != tt.want {
				t.Errorf("DetectChallenge = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewFetcher(t *testing.T) {
	cfg := config.DefaultConfig().Fetcher

	cfg.Type = "file"
	f, err := New(cfg, testLogger)
	if err != nil || f.Type() != "file" {
		t.Errorf("expected file fetcher, got %v (%v)", f, err)
	}

	cfg.Type = "http"
	f, err = New(cfg, testLogger)
	if err != nil || f.Type() != "http" {
		t.Errorf("expected http fetcher, got %v (%v)", f, err)
	}
	if _, ok := f.(Watcher); ok {
		t.Error("http fetcher should not be a Watcher")
	}

	cfg.Type = "ftp"
	if _, err := New(cfg, testLogger); err == nil {
		t.Error("expected error for unsupported type")
	}
}
