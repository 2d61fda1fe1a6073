// Package ai sends cleaned product text to an LLM for an environmental
// assessment and turns the reply into an AnalysisResult.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/IshaanNene/EcoCheck/internal/config"
	"github.com/IshaanNene/EcoCheck/internal/types"
)

// Provider specifies which LLM backend to use.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
)

// Default endpoints per provider.
const (
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com"
	DefaultOllamaEndpoint = "http://localhost:11434"
)

// Analyzer produces an assessment from cleaned product text.
type Analyzer interface {
	Analyze(ctx context.Context, cleanedText, credential string) (*types.AnalysisResult, error)
}

// Client is the LLM-backed Analyzer. Calls are single-shot; failures are
// returned to the caller without retrying.
type Client struct {
	cfg     config.AIConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a new LLM client.
func NewClient(cfg config.AIConfig, logger *slog.Logger, opts ...Option) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Every(cfg.RateLimit)
	}
	c := &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.With("component", "llm_client", "provider", cfg.Provider),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the configured backend.
func (c *Client) Provider() Provider {
	return Provider(c.cfg.Provider)
}

// Analyze sends text to the provider and parses the reply. A reply that is
// not a usable analysis yields DefaultErrorResult rather than an error.
// The call is bounded by the configured analysis timeout.
func (c *Client) Analyze(ctx context.Context, cleanedText, credential string) (*types.AnalysisResult, error) {
	if strings.TrimSpace(cleanedText) == "" {
		return nil, types.ErrNoProductText
	}
	if credential == "" && c.Provider() != ProviderOllama {
		return nil, types.ErrCredentialMissing
	}

	if c.cfg.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.AnalysisTimeout)
		defer cancel()
	}

	// Wait fails early when the next slot lies past the deadline.
	if err := c.limiter.Wait(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, types.ErrAnalysisTimeout
	}

	start := time.Now()
	text, err := c.Generate(ctx, BuildPrompt(cleanedText), credential)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, types.ErrAnalysisTimeout
		}
		return nil, err
	}

	result := ParseResponse(text)
	c.logger.Info("analysis complete",
		"label", result.Label,
		"confidence", result.Confidence,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return result, nil
}

// Generate sends a prompt to the LLM and returns the raw reply text.
func (c *Client) Generate(ctx context.Context, prompt, credential string) (string, error) {
	switch c.Provider() {
	case ProviderGemini:
		return c.generateGemini(ctx, prompt, credential)
	case ProviderOpenAI:
		return c.generateOpenAI(ctx, prompt, credential)
	case ProviderOllama:
		return c.generateOllama(ctx, prompt)
	default:
		return "", fmt.Errorf("unsupported LLM provider: %s", c.cfg.Provider)
	}
}

func (c *Client) generateOllama(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  c.cfg.Model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": c.cfg.Temperature,
			"top_k":       c.cfg.TopK,
			"top_p":       c.cfg.TopP,
			"num_predict": c.cfg.MaxTokens,
		},
	}

	endpoint := c.cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(endpoint, "/")+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", c.networkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.statusError(resp)
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", c.malformedError(err)
	}
	if result.Response == "" {
		return "", c.emptyError()
	}
	return result.Response, nil
}

// --- error classification ---

// classifyStatus maps an HTTP status to an error kind.
func classifyStatus(status int) types.AnalysisErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return types.KindAuth
	case status == http.StatusTooManyRequests:
		return types.KindRateLimit
	default:
		return types.KindAPI
	}
}

// statusError builds an AnalysisError from a non-2xx response, preferring
// the provider's own error message.
func (c *Client) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	msg := ""
	if json.Unmarshal(body, &payload) == nil && len(payload.Error) > 0 {
		var obj struct {
			Message string `json:"message"`
		}
		var str string
		switch {
		case json.Unmarshal(payload.Error, &obj) == nil && obj.Message != "":
			msg = obj.Message
		case json.Unmarshal(payload.Error, &str) == nil && str != "":
			msg = str
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("API Error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return &types.AnalysisError{
		Provider:   c.cfg.Provider,
		Kind:       classifyStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Err:        errors.New(msg),
	}
}

func (c *Client) networkError(err error) error {
	return &types.AnalysisError{Provider: c.cfg.Provider, Kind: types.KindNetwork, Err: err}
}

func (c *Client) malformedError(err error) error {
	return &types.AnalysisError{Provider: c.cfg.Provider, Kind: types.KindMalformed, Err: fmt.Errorf("decode response: %w", err)}
}

func (c *Client) emptyError() error {
	return &types.AnalysisError{Provider: c.cfg.Provider, Kind: types.KindEmptyResponse, Err: types.ErrEmptyResponse}
}
