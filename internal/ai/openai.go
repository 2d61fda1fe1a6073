package ai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/IshaanNene/EcoCheck/internal/types"
)

func (c *Client) generateOpenAI(ctx context.Context, prompt, credential string) (string, error) {
	transportCfg := openai.DefaultConfig(credential)
	if c.cfg.Endpoint != "" {
		transportCfg.BaseURL = c.cfg.Endpoint
	}
	transportCfg.HTTPClient = c.client
	client := openai.NewClientWithConfig(transportCfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: float32(c.cfg.Temperature),
		TopP:        float32(c.cfg.TopP),
		N:           1,
	})
	if err != nil {
		return "", c.openAIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", c.emptyError()
	}
	return resp.Choices[0].Message.Content, nil
}

// openAIError classifies go-openai errors into AnalysisError kinds.
func (c *Client) openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &types.AnalysisError{
			Provider:   c.cfg.Provider,
			Kind:       classifyStatus(apiErr.HTTPStatusCode),
			StatusCode: apiErr.HTTPStatusCode,
			Err:        errors.New(apiErr.Message),
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &types.AnalysisError{
			Provider:   c.cfg.Provider,
			Kind:       classifyStatus(reqErr.HTTPStatusCode),
			StatusCode: reqErr.HTTPStatusCode,
			Err:        reqErr.Err,
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return c.networkError(err)
}
