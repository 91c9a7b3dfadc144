package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/SampleBias/10x-prompt/internal/models"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string
	RedisURL    string
	JWTSecret   string

	// Per-call provider settings
	RequestTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Result cache for identical prompt+type pairs (in-memory, non-durable)
	CacheTTL time.Duration

	// Periodic provider re-probing; 0 disables the job
	HealthCheckInterval time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "5000"),
		Environment: strings.ToLower(getEnv("ENVIRONMENT", "development")),
		RedisURL:    getEnv("REDIS_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		RequestTimeout: time.Duration(getIntEnv("REQUEST_TIMEOUT_SECONDS", 45)) * time.Second,
		MaxRetries:     getIntEnv("MAX_RETRIES", 3),
		RetryDelay:     time.Duration(getIntEnv("RETRY_INITIAL_DELAY_MS", 1000)) * time.Millisecond,

		CacheTTL: time.Duration(getIntEnv("RESULT_CACHE_TTL_SECONDS", 300)) * time.Second,

		HealthCheckInterval: time.Duration(getIntEnv("HEALTH_CHECK_INTERVAL_MINUTES", 10)) * time.Minute,
	}
}

// Providers builds the static provider chain from environment variables.
// Order matters: Groq is primary, DeepSeek is the remote fallback. A missing
// API key does not remove the provider; the health registry reports it as
// permanently unhealthy instead.
func (c *Config) Providers() []models.ProviderConfig {
	return []models.ProviderConfig{
		{
			Name:       "Groq",
			BaseURL:    getEnv("GROQ_API_URL", "https://api.groq.com/openai/v1"),
			APIKey:     getEnv("GROQ_API_KEY", ""),
			Models:     getListEnv("GROQ_MODELS", "llama-3.1-8b-instant,llama-3.3-70b-versatile"),
			Timeout:    c.RequestTimeout,
			MaxRetries: c.MaxRetries,
			RetryDelay: c.RetryDelay,
			Priority:   20,
		},
		{
			Name:       "DeepSeek",
			BaseURL:    getEnv("DEEPSEEK_API_URL", "https://api.deepseek.com"),
			APIKey:     getEnv("DEEPSEEK_API_KEY", ""),
			Models:     getListEnv("DEEPSEEK_MODELS", "deepseek-chat"),
			Timeout:    c.RequestTimeout,
			MaxRetries: c.MaxRetries,
			RetryDelay: c.RetryDelay,
			Priority:   10,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getListEnv(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
