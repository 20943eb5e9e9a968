// Package ai integrates hosted language-model APIs behind a single Client
// interface, with providers for OpenAI and Gemini.
package ai

import (
	"context"
	"fmt"
	"log/slog"

	"assistant-api/internal/config"
)

// Client defines the interface for completion operations used by the
// assistant. Implementations wrap a specific hosted provider.
type Client interface {
	// Reply generates a completion for userMessage under systemPrompt.
	Reply(ctx context.Context, systemPrompt, userMessage string) (string, error)

	// HealthCheck verifies the provider is reachable with the configured
	// credentials by issuing a minimal completion.
	HealthCheck(ctx context.Context) error
}

// New creates the completion client selected by cfg.AI.Provider.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (Client, error) {
	switch cfg.AI.Provider {
	case "openai":
		return newOpenAIClient(cfg.OpenAI, log)
	case "gemini":
		return newGeminiClient(ctx, cfg.Gemini, log)
	default:
		return nil, fmt.Errorf("unknown ai provider: %q", cfg.AI.Provider)
	}
}
