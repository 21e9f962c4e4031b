package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported generation providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderEcho      = "echo"
)

// Supported API types for the OpenAI-compatible provider.
const (
	APITypeChatCompletions = "chat_completions"
	APITypeCompletions     = "completions"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	LLMProvider  string
	LLMBaseURL   string
	LLMAPIKey    string
	LLMModelName string
	LLMAPIType   string
	LLMPreload   bool

	GenerationMaxLength int
	GenerationTimeout   time.Duration

	TranscriptDBPath string

	CORSAllowedOrigins []string
	RateLimitPerSec    float64
	RateLimitBurst     int
	ShutdownTimeout    time.Duration
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the result.
// If a .env file exists in the current directory or one of its parents, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI))

	cfg := &Config{
		APIPort:          getEnv("API_PORT", "7000"),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LLMProvider:      provider,
		LLMBaseURL:       getEnv("LLM_BASE_URL", defaultBaseURL(provider)),
		LLMAPIKey:        getEnv("LLM_API_KEY", defaultAPIKey(provider)),
		LLMModelName:     getEnv("LLM_MODEL", defaultModel(provider)),
		LLMAPIType:       strings.ToLower(getEnv("LLM_API_TYPE", APITypeChatCompletions)),
		TranscriptDBPath: getEnv("TRANSCRIPT_DB_PATH", ""),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	if cfg.LLMPreload, err = getBool("LLM_PRELOAD", false); err != nil {
		return nil, err
	}
	if cfg.GenerationMaxLength, err = getInt("GENERATION_MAX_LENGTH", 100); err != nil {
		return nil, err
	}
	if cfg.GenerationTimeout, err = getDuration("GENERATION_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerSec, err = getFloat("RATE_LIMIT_PER_SEC", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 0); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	cfg.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.TranscriptDBPath != "" && cfg.TranscriptDBPath != ":memory:" {
		dataDir := filepath.Dir(cfg.TranscriptDBPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// TranscriptEnabled reports whether exchanges should be recorded.
func (c *Config) TranscriptEnabled() bool {
	return c.TranscriptDBPath != ""
}

// RateLimitEnabled reports whether the global request limiter is active.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitPerSec > 0
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderEcho:
	case ProviderAnthropic, ProviderGemini:
		if c.LLMAPIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required for provider %s", c.LLMProvider)
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of openai, anthropic, gemini, echo, got %q", c.LLMProvider)
	}

	if c.LLMAPIType != APITypeChatCompletions && c.LLMAPIType != APITypeCompletions {
		return fmt.Errorf("LLM_API_TYPE must be chat_completions or completions, got %q", c.LLMAPIType)
	}
	if c.LLMPreload && c.LLMProvider != ProviderOpenAI {
		return fmt.Errorf("LLM_PRELOAD is only supported for provider openai")
	}
	if c.GenerationMaxLength <= 0 {
		return fmt.Errorf("GENERATION_MAX_LENGTH must be greater than 0")
	}
	if c.GenerationMaxLength > math.MaxInt32 {
		return fmt.Errorf("GENERATION_MAX_LENGTH must not exceed %d", math.MaxInt32)
	}
	if c.GenerationTimeout < 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must not be negative")
	}
	if c.RateLimitPerSec < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SEC must not be negative")
	}
	if c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must not be negative")
	}
	if c.RateLimitEnabled() && c.RateLimitBurst == 0 {
		// A zero burst would reject every request.
		c.RateLimitBurst = int(c.RateLimitPerSec*2) + 1
	}
	return nil
}

func defaultBaseURL(provider string) string {
	if provider == ProviderOpenAI {
		return "http://localhost:8080/v1"
	}
	return ""
}

func defaultAPIKey(provider string) string {
	if provider == ProviderOpenAI {
		// llama.cpp ignores the key but the client always sends one.
		return "dummy-key"
	}
	return ""
}

func defaultModel(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "claude-3-haiku-20240307"
	case ProviderGemini:
		return "gemini-1.5-flash"
	case ProviderEcho:
		return "echo"
	default:
		return "Llama-3.1-8B-Instruct"
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s: %w", key, err)
	}
	return v, nil
}

// splitList splits a comma separated value, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
