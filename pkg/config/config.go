package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config holds all runtime settings. It is built once at startup and passed
// to every component constructor; nothing reads the environment after Load.
type Config struct {
	// Azure OpenAI
	AzureOpenAIKey        string
	AzureOpenAIEndpoint   string
	AzureOpenAIAPIVersion string
	AzureOpenAIDeployment string

	// Search
	MaxSearchResults int
	SearchTimeout    time.Duration

	// Scraping
	ScrapingTimeout  time.Duration
	RequestDelay     time.Duration
	MaxContentLength int
	MinContentLength int
	UserAgent        string

	// Summarization
	ChunkSize        int
	MaxSummaryLength int

	// Output
	OutputDir string

	// Server
	Port string
}

// Load builds the configuration from environment variables, applying defaults
// for everything except the Azure OpenAI credentials.
func Load() Config {
	return Config{
		AzureOpenAIKey:        getEnv("AZURE_OPENAI_API_KEY", ""),
		AzureOpenAIEndpoint:   getEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureOpenAIAPIVersion: getEnv("AZURE_OPENAI_API_VERSION", "2023-12-01-preview"),
		AzureOpenAIDeployment: getEnv("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-35-turbo"),

		MaxSearchResults: getEnvAsInt("MAX_SEARCH_RESULTS", 10),
		SearchTimeout:    getEnvAsDuration("SEARCH_TIMEOUT", 30*time.Second),

		ScrapingTimeout:  getEnvAsDuration("SCRAPING_TIMEOUT", 15*time.Second),
		RequestDelay:     getEnvAsDuration("REQUEST_DELAY", time.Second),
		MaxContentLength: getEnvAsInt("MAX_CONTENT_LENGTH", 10000),
		MinContentLength: getEnvAsInt("MIN_CONTENT_LENGTH", 200),
		UserAgent:        getEnv("USER_AGENT", defaultUserAgent),

		ChunkSize:        getEnvAsInt("CHUNK_SIZE", 4000),
		MaxSummaryLength: getEnvAsInt("MAX_SUMMARY_LENGTH", 500),

		OutputDir: getEnv("OUTPUT_DIR", "output"),

		Port: getEnv("PORT", "3000"),
	}
}

var (
	ErrMissingAPIKey   = errors.New("AZURE_OPENAI_API_KEY is not set")
	ErrMissingEndpoint = errors.New("AZURE_OPENAI_ENDPOINT is not set")
)

// Validate checks that the required inference credentials are present.
// It performs no network calls, so the status mode can use it offline.
func (c Config) Validate() error {
	if c.AzureOpenAIKey == "" {
		return ErrMissingAPIKey
	}
	if c.AzureOpenAIEndpoint == "" {
		return ErrMissingEndpoint
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		// Plain integers are treated as seconds, matching the older
		// SCRAPING_TIMEOUT=15 style of setting.
		if secs, convErr := strconv.Atoi(valueStr); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return defaultValue
	}
	return value
}
