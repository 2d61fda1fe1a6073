package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// geminiURL returns the generateContent URL. The key travels as a query
// parameter, so the URL must never be logged.
func (c *Client) geminiURL(credential string) string {
	endpoint := c.cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultGeminiEndpoint
	}
	model := c.cfg.Model
	if model == "" {
		model = "gemini-pro"
	}
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(endpoint, "/"), url.PathEscape(model), url.QueryEscape(credential))
}

func (c *Client) generateGemini(ctx context.Context, prompt, credential string) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     c.cfg.Temperature,
			TopK:            c.cfg.TopK,
			TopP:            c.cfg.TopP,
			MaxOutputTokens: c.cfg.MaxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.geminiURL(credential), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", c.networkError(redactKey(err, credential))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.statusError(resp)
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", c.malformedError(err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 ||
		result.Candidates[0].Content.Parts[0].Text == "" {
		return "", c.emptyError()
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// redactKey strips the credential from transport errors, which quote the URL.
func redactKey(err error, credential string) error {
	if credential == "" || !strings.Contains(err.Error(), url.QueryEscape(credential)) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), url.QueryEscape(credential), "REDACTED"))
}
