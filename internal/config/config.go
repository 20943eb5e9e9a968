// Package config manages application configuration from a YAML file,
// ASSISTANT_* environment variables, and default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Default values for optional configuration parameters.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultServerAddr            = ":5000"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 60 * time.Second
	DefaultServerIdleTimeout     = 2 * time.Minute
	DefaultServerShutdownTimeout = 10 * time.Second

	DefaultAIProvider = "openai"

	DefaultOpenAIBaseURL     = "https://api.openai.com/v1"
	DefaultOpenAIModel       = "gpt-3.5-turbo"
	DefaultOpenAIMaxTokens   = 250
	DefaultOpenAITemperature = 0.7
	DefaultOpenAITimeout     = 30 * time.Second
	DefaultOpenAIMaxRetries  = 2
	DefaultOpenAIRetryDelay  = 2 * time.Second

	DefaultGeminiModel      = "gemini-2.0-flash"
	DefaultGeminiMaxRetries = 2
	DefaultGeminiRetryDelay = 2 * time.Second

	DefaultDBPath = "assistant.db"

	DefaultMemoryMaxConversations = 100
	DefaultMemoryRecentLimit      = 3
	DefaultMemoryRelevantLimit    = 2

	DefaultRateLimitPerMinute = 10
	DefaultRateLimitBurst     = 5

	DefaultMaintenanceCron = "0 4 * * *"
)

// Config defines the application configuration. Values can be set via
// environment variables prefixed with ASSISTANT_ (e.g. ASSISTANT_OPENAI_API_KEY)
// or through config.yaml.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	AI        AIConfig        `mapstructure:"ai"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Features  FeatureConfig   `mapstructure:"features"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"min=1s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"min=1s"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"     validate:"min=1s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
}

// AIConfig selects which completion provider backs the assistant.
type AIConfig struct {
	Provider string `mapstructure:"provider" validate:"required,oneof=openai gemini"`
}

// OpenAIConfig holds settings for the OpenAI chat completion API.
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"    validate:"required,url"`
	Model       string        `mapstructure:"model"       validate:"required"`
	MaxTokens   int           `mapstructure:"max_tokens"  validate:"min=1,max=4096"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" validate:"min=0"`
}

// GeminiConfig holds settings for the Gemini completion API.
type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"       validate:"required"`
	MaxTokens   int           `mapstructure:"max_tokens"  validate:"min=1,max=8192"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" validate:"min=0"`
}

// DatabaseConfig holds SQLite storage settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// MemoryConfig controls the conversation memory subsystem.
type MemoryConfig struct {
	MaxConversations int `mapstructure:"max_conversations" validate:"min=1,max=10000"`
	RecentLimit      int `mapstructure:"recent_limit"      validate:"min=1,max=50"`
	RelevantLimit    int `mapstructure:"relevant_limit"    validate:"min=1,max=50"`
}

// RateLimitConfig controls per-client API request throttling.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute" validate:"min=1"`
	Burst             int `mapstructure:"burst"               validate:"min=1"`
}

// FeatureConfig toggles optional API surfaces.
type FeatureConfig struct {
	EnableAnalytics bool `mapstructure:"enable_analytics"`
	EnableExport    bool `mapstructure:"enable_export"`
}

// SchedulerConfig holds cron expressions for background tasks.
type SchedulerConfig struct {
	MaintenanceCron string `mapstructure:"maintenance_cron" validate:"required"`
}

// Load loads and validates configuration from:
// 1. Default values
// 2. The YAML file at configPath (optional)
// 3. ASSISTANT_* environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("ASSISTANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults plus env cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// API keys never come from the config file, only from the environment
	// or the .env secret file loaded at startup. Anything the file supplied
	// for them is discarded here.
	cfg.OpenAI.APIKey = firstEnv("ASSISTANT_OPENAI_API_KEY", "OPENAI_API_KEY")
	cfg.Gemini.APIKey = firstEnv("ASSISTANT_GEMINI_API_KEY", "GEMINI_API_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration against struct-level validation rules
// plus cross-field requirements the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.AI.Provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai.api_key is required when ai.provider is openai")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("gemini.api_key is required when ai.provider is gemini")
		}
	}

	return nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	v.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	v.SetDefault("server.idle_timeout", DefaultServerIdleTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)

	v.SetDefault("ai.provider", DefaultAIProvider)

	v.SetDefault("openai.base_url", DefaultOpenAIBaseURL)
	v.SetDefault("openai.model", DefaultOpenAIModel)
	v.SetDefault("openai.max_tokens", DefaultOpenAIMaxTokens)
	v.SetDefault("openai.temperature", DefaultOpenAITemperature)
	v.SetDefault("openai.timeout", DefaultOpenAITimeout)
	v.SetDefault("openai.max_retries", DefaultOpenAIMaxRetries)
	v.SetDefault("openai.retry_delay", DefaultOpenAIRetryDelay)

	v.SetDefault("gemini.model", DefaultGeminiModel)
	v.SetDefault("gemini.max_tokens", DefaultOpenAIMaxTokens)
	v.SetDefault("gemini.temperature", DefaultOpenAITemperature)
	v.SetDefault("gemini.max_retries", DefaultGeminiMaxRetries)
	v.SetDefault("gemini.retry_delay", DefaultGeminiRetryDelay)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("memory.max_conversations", DefaultMemoryMaxConversations)
	v.SetDefault("memory.recent_limit", DefaultMemoryRecentLimit)
	v.SetDefault("memory.relevant_limit", DefaultMemoryRelevantLimit)

	v.SetDefault("rate_limit.requests_per_minute", DefaultRateLimitPerMinute)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)

	v.SetDefault("features.enable_analytics", true)
	v.SetDefault("features.enable_export", true)

	v.SetDefault("scheduler.maintenance_cron", DefaultMaintenanceCron)
}
