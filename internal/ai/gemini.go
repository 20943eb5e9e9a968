package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"assistant-api/internal/config"
)

// geminiClient implements Client against the Gemini API.
type geminiClient struct {
	genaiClient *genai.Client
	log         *slog.Logger
	model       string
	maxTokens   int32
	temperature float32
	maxRetries  int
	retryDelay  time.Duration
}

func newGeminiClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized", "model", cfg.Model)

	return &geminiClient{
		genaiClient: gi,
		log:         logger,
		model:       cfg.Model,
		maxTokens:   int32(cfg.MaxTokens),
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
	}, nil
}

func (c *geminiClient) Reply(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	temperature := c.temperature
	contentCfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: c.maxTokens,
	}
	if systemPrompt != "" {
		contentCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	resp, err := generateWithRetries(ctx, c.log, c.maxRetries, c.retryDelay, func() (*genai.GenerateContentResponse, error) {
		return c.genaiClient.Models.GenerateContent(ctx, c.model, genai.Text(userMessage), contentCfg)
	})
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}

func (c *geminiClient) HealthCheck(ctx context.Context) error {
	contentCfg := &genai.GenerateContentConfig{
		MaxOutputTokens: 5,
	}

	if _, err := c.genaiClient.Models.GenerateContent(ctx, c.model, genai.Text("test"), contentCfg); err != nil {
		return fmt.Errorf("gemini health check failed: %w", err)
	}
	return nil
}

// generateWithRetries retries content generation on transient Gemini API
// errors (codes 500 and 503), waiting retryDelay between attempts.
func generateWithRetries(
	ctx context.Context,
	log *slog.Logger,
	maxRetries int,
	retryDelay time.Duration,
	call func() (*genai.GenerateContentResponse, error),
) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= maxRetries; i++ {
		resp, err = call()
		if err == nil {
			return resp, nil
		}

		log.Warn("Gemini API call failed, checking for retry",
			"attempt", i+1, "max_retries", maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && isRetriableGeminiCode(apiErr.Code) {
			if i < maxRetries {
				log.Info("Retrying Gemini API call", "delay", retryDelay, "code", apiErr.Code)
				select {
				case <-time.After(retryDelay):
					continue
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			log.Error("Gemini API call failed after max retries",
				"error", err, "code", apiErr.Code)
			return nil, fmt.Errorf("gemini API call failed after %d retries (code %d): %w",
				maxRetries, apiErr.Code, err)
		}

		log.Error("Gemini API call failed with non-retriable error", "error", err)
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	return nil, fmt.Errorf("gemini API call failed: %w", err)
}

func isRetriableGeminiCode(code int) bool {
	return code == 500 || code == 503
}
