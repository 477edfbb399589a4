package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port string `json:"port"`
	Host string `json:"host"`

	// NewsAPI settings
	NewsAPIKey string `json:"-"` // Don't expose in JSON

	// LLM settings
	LLMProvider  string `json:"llm_provider"` // "openai" or "gemini"
	OpenAIAPIKey string `json:"-"`
	OpenAIModel  string `json:"openai_model"`
	GeminiAPIKey string `json:"-"`
	GeminiModel  string `json:"gemini_model"`

	// Slack settings
	SlackBotToken  string `json:"-"`
	SlackChannelID string `json:"slack_channel_id"`

	// Collection settings
	MaxArticlesPerSource int    `json:"max_articles_per_source"`
	MaxArticlesPerDigest int    `json:"max_articles_per_digest"`
	RSSSourcesFile       string `json:"rss_sources_file"`

	// Scheduling
	DigestSchedule string `json:"digest_schedule"` // cron expression

	// Digest history settings
	CacheType   string `json:"cache_type"` // "memory" or "gcs"
	CacheBucket string `json:"cache_bucket"`

	// Archive settings
	DatabasePath string `json:"database_path"` // empty disables the archive

	// Webhook settings
	WebhookAuthToken string `json:"-"` // empty disables token checks
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Host:                 getEnvOrDefault("HOST", "0.0.0.0"),
		NewsAPIKey:           getEnvOrDefault("NEWSAPI_KEY", ""),
		LLMProvider:          strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:         getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIModel:          getEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		GeminiAPIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		SlackBotToken:        getEnvOrDefault("SLACK_BOT_TOKEN", ""),
		SlackChannelID:       getEnvOrDefault("SLACK_CHANNEL_ID", ""),
		MaxArticlesPerSource: getEnvOrDefaultInt("MAX_ARTICLES_PER_SOURCE", 10),
		MaxArticlesPerDigest: getEnvOrDefaultInt("MAX_ARTICLES_PER_DIGEST", 20),
		RSSSourcesFile:       getEnvOrDefault("RSS_SOURCES_FILE", ""),
		DigestSchedule:       getEnvOrDefault("DIGEST_SCHEDULE", "0 9 * * *"),
		CacheType:            getEnvOrDefault("CACHE_TYPE", "memory"),
		CacheBucket:          getEnvOrDefault("CACHE_BUCKET", ""),
		DatabasePath:         getEnvOrDefault("DATABASE_PATH", ""),
		WebhookAuthToken:     getEnvOrDefault("WEBHOOK_AUTH_TOKEN", ""),
	}

	return config, config.validate()
}

// validate checks if required configuration values are present
func (c *Config) validate() error {
	if c.SlackBotToken == "" {
		return &ConfigError{Field: "SLACK_BOT_TOKEN", Message: "Slack bot token is required"}
	}
	if c.SlackChannelID == "" {
		return &ConfigError{Field: "SLACK_CHANNEL_ID", Message: "Slack channel ID is required"}
	}
	if c.LLMProvider != "openai" && c.LLMProvider != "gemini" {
		return &ConfigError{Field: "LLM_PROVIDER", Message: "LLM provider must be 'openai' or 'gemini'"}
	}
	if c.CacheType != "memory" && c.CacheType != "gcs" {
		return &ConfigError{Field: "CACHE_TYPE", Message: "cache type must be 'memory' or 'gcs'"}
	}
	if c.MaxArticlesPerDigest <= 0 {
		return &ConfigError{Field: "MAX_ARTICLES_PER_DIGEST", Message: "digest article limit must be positive"}
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
