package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openaiapi "github.com/sashabaranov/go-openai"

	"assistant-api/internal/config"
)

// openaiClient implements Client against the OpenAI chat completion API.
type openaiClient struct {
	api         *openaiapi.Client
	log         *slog.Logger
	model       string
	maxTokens   int
	temperature float32
	maxRetries  int
	retryDelay  time.Duration
}

func newOpenAIClient(cfg config.OpenAIConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	apiCfg := openaiapi.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	logger := log.With("component", "openai_client")
	logger.Info("OpenAI client initialized", "model", cfg.Model, "base_url", cfg.BaseURL)

	return &openaiClient{
		api:         openaiapi.NewClientWithConfig(apiCfg),
		log:         logger,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
	}, nil
}

func (c *openaiClient) Reply(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	req := openaiapi.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openaiapi.ChatCompletionMessage{
			{Role: openaiapi.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openaiapi.ChatMessageRoleUser, Content: userMessage},
		},
	}

	resp, err := c.completeWithRetries(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned an empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *openaiClient) HealthCheck(ctx context.Context) error {
	req := openaiapi.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: 5,
		Messages: []openaiapi.ChatCompletionMessage{
			{Role: openaiapi.ChatMessageRoleUser, Content: "test"},
		},
	}

	if _, err := c.api.CreateChatCompletion(ctx, req); err != nil {
		return fmt.Errorf("openai health check failed: %w", err)
	}
	return nil
}

func (c *openaiClient) completeWithRetries(ctx context.Context, req openaiapi.ChatCompletionRequest) (openaiapi.ChatCompletionResponse, error) {
	var resp openaiapi.ChatCompletionResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.api.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "OpenAI API call failed, checking for retry",
			"attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr *openaiapi.APIError
		if errors.As(err, &apiErr) && isRetriableStatus(apiErr.HTTPStatusCode) {
			if i < c.maxRetries {
				c.log.InfoContext(ctx, "Retrying OpenAI API call",
					"delay", c.retryDelay, "status", apiErr.HTTPStatusCode)
				select {
				case <-time.After(c.retryDelay):
					continue
				case <-ctx.Done():
					return resp, ctx.Err()
				}
			}
			c.log.ErrorContext(ctx, "OpenAI API call failed after max retries",
				"error", err, "status", apiErr.HTTPStatusCode)
			return resp, fmt.Errorf("openai API call failed after %d retries (status %d): %w",
				c.maxRetries, apiErr.HTTPStatusCode, err)
		}

		c.log.ErrorContext(ctx, "OpenAI API call failed with non-retriable error", "error", err)
		return resp, fmt.Errorf("openai API call failed: %w", err)
	}

	return resp, fmt.Errorf("openai API call failed: %w", err)
}

func isRetriableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable:
		return true
	default:
		return false
	}
}
