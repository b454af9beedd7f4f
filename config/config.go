// Package config loads and validates runtime settings from the environment
// (with optional .env support). The resulting Config is an immutable value
// constructed once at startup and passed into constructors; nothing reads
// the environment after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

// Provider names for the completion backend.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config contains all runtime settings.
type Config struct {
	// Completion backend
	Provider        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	ModelName       string
	Temperature     float64
	MaxTokens       int64

	// Short-term memory
	ConversationBufferSize int

	// Long-term memory
	LongTermMemory bool
	ChromaDBDir    string
	CollectionName string
	EmbeddingModel string
	RetrievalK     int
	MinSimilarity  float64

	// External call budget
	RequestTimeout time.Duration

	// Serving
	BindAddr         string
	MetricsNamespace string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads environment variables and applies the defaults. A .env file in
// the working directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Provider:         strings.ToLower(envOrDefault("LLM_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		AnthropicAPIKey:  strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		ModelName:        envOrDefault("MODEL_NAME", ""),
		ChromaDBDir:      envOrDefault("CHROMA_DB_DIR", "./chroma_db"),
		CollectionName:   envOrDefault("COLLECTION_NAME", "long_term_memory"),
		EmbeddingModel:   envOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
		BindAddr:         envOrDefault("BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("METRICS_NAMESPACE", "memchat"),
		LogLevel:         strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(envOrDefault("LOG_FORMAT", "text")),
	}

	var err error
	if cfg.Temperature, err = floatFromEnv("TEMPERATURE", 0.7); err != nil {
		return Config{}, err
	}
	if cfg.MaxTokens, err = int64FromEnv("MAX_TOKENS", 2000); err != nil {
		return Config{}, err
	}
	if cfg.ConversationBufferSize, err = intFromEnv("CONVERSATION_BUFFER_SIZE", 10); err != nil {
		return Config{}, err
	}
	if cfg.LongTermMemory, err = boolFromEnv("LONG_TERM_MEMORY", true); err != nil {
		return Config{}, err
	}
	if cfg.RetrievalK, err = intFromEnv("RETRIEVAL_K", 5); err != nil {
		return Config{}, err
	}
	if cfg.MinSimilarity, err = floatFromEnv("MIN_SIMILARITY", 0.3); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = durationFromEnv("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate fails fast with every configuration problem found, before any
// chat call is possible.
func (c Config) Validate() error {
	var result error

	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			result = multierror.Append(result, fmt.Errorf("OPENAI_API_KEY is not set; set it in the environment or a .env file"))
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			result = multierror.Append(result, fmt.Errorf("ANTHROPIC_API_KEY is not set; set it in the environment or a .env file"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderAnthropic, c.Provider))
	}

	// The embedding function is OpenAI-backed regardless of the completion
	// provider, so long-term memory needs that credential too.
	if c.LongTermMemory && c.OpenAIAPIKey == "" {
		result = multierror.Append(result, fmt.Errorf("long-term memory requires OPENAI_API_KEY for embeddings (or set LONG_TERM_MEMORY=false)"))
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		result = multierror.Append(result, fmt.Errorf("TEMPERATURE must be in [0, 2], got %g", c.Temperature))
	}
	if c.MaxTokens <= 0 {
		result = multierror.Append(result, fmt.Errorf("MAX_TOKENS must be greater than 0, got %d", c.MaxTokens))
	}
	if c.ConversationBufferSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("CONVERSATION_BUFFER_SIZE must be greater than 0, got %d", c.ConversationBufferSize))
	}
	if c.RetrievalK <= 0 {
		result = multierror.Append(result, fmt.Errorf("RETRIEVAL_K must be greater than 0, got %d", c.RetrievalK))
	}
	if c.MinSimilarity < 0 || c.MinSimilarity > 1 {
		result = multierror.Append(result, fmt.Errorf("MIN_SIMILARITY must be in [0, 1], got %g", c.MinSimilarity))
	}
	if c.RequestTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("REQUEST_TIMEOUT must be greater than 0"))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		result = multierror.Append(result, fmt.Errorf("LOG_FORMAT must be 'json' or 'text', got %q", c.LogFormat))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("LOG_LEVEL must be one of [debug, info, warn, error], got %q", c.LogLevel))
	}

	return result
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intFromEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func int64FromEnv(key string, def int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func floatFromEnv(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func boolFromEnv(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
