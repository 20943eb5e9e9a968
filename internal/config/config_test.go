package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"assistant-api/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ASSISTANT_OPENAI_API_KEY", "sk-test")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}

	if cfg.Server.Addr != config.DefaultServerAddr {
		t.Errorf("server addr = %q, want %q", cfg.Server.Addr, config.DefaultServerAddr)
	}
	if cfg.OpenAI.Model != "gpt-3.5-turbo" {
		t.Errorf("openai model = %q, want gpt-3.5-turbo", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.MaxTokens != 250 {
		t.Errorf("max tokens = %d, want 250", cfg.OpenAI.MaxTokens)
	}
	if cfg.Memory.MaxConversations != 100 {
		t.Errorf("max conversations = %d, want 100", cfg.Memory.MaxConversations)
	}
	if cfg.RateLimit.RequestsPerMinute != 10 {
		t.Errorf("requests per minute = %d, want 10", cfg.RateLimit.RequestsPerMinute)
	}
	if !cfg.Features.EnableAnalytics || !cfg.Features.EnableExport {
		t.Error("analytics and export features should default to enabled")
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("ASSISTANT_OPENAI_API_KEY", "sk-test")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  addr: ":8080"
openai:
  model: gpt-4o-mini
  timeout: 45s
memory:
  max_conversations: 20
features:
  enable_export: false
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("server addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("openai model = %q, want gpt-4o-mini", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.Timeout != 45*time.Second {
		t.Errorf("openai timeout = %v, want 45s", cfg.OpenAI.Timeout)
	}
	if cfg.Memory.MaxConversations != 20 {
		t.Errorf("max conversations = %d, want 20", cfg.Memory.MaxConversations)
	}
	if cfg.Features.EnableExport {
		t.Error("enable_export should be false from file")
	}
	if !cfg.Features.EnableAnalytics {
		t.Error("enable_analytics should keep its default")
	}
}

func TestAPIKeyIgnoredFromFile(t *testing.T) {
	t.Setenv("ASSISTANT_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
openai:
  api_key: sk-from-file
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error: a file-supplied API key must not satisfy validation")
	}

	t.Setenv("ASSISTANT_OPENAI_API_KEY", "sk-from-env")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-from-env" {
		t.Errorf("api key = %q, want the environment value", cfg.OpenAI.APIKey)
	}
}

func TestValidateProviderKey(t *testing.T) {
	t.Setenv("ASSISTANT_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := config.Load(filepath.Join(t.TempDir(), "config.yaml")); err == nil {
		t.Fatal("expected error when openai provider has no API key")
	}

	t.Setenv("ASSISTANT_AI_PROVIDER", "gemini")
	t.Setenv("ASSISTANT_GEMINI_API_KEY", "g-test")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("gemini provider with key should load: %v", err)
	}
	if cfg.AI.Provider != "gemini" {
		t.Errorf("provider = %q, want gemini", cfg.AI.Provider)
	}
}
