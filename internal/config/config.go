package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"amlchat/internal/llm"
)

// Environment variables that locate the managed endpoint.
const (
	EndpointURIEnv = "AZURE_ML_MANAGED_ENDPOINT"
	APIKeyEnv      = "AZURE_ML_KEY"
)

// History backends.
const (
	BackendSQLite = "sqlite"
	BackendQdrant = "qdrant"
)

// Config holds all configuration for the application.
type Config struct {
	Normalizer           string
	Params               llm.GenerationParams
	MaxRequestsPerMinute int // 0 means unlimited
	RetryMaxAttempts     int
	RetryWaitMin         time.Duration
	RetryWaitMax         time.Duration
	HistoryBackend       string
	DBPath               string
	QdrantURL            string
	QdrantCollection     string
	APIPort              string
	LogLevel             slog.Level
	LogFormat            string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the values it finds.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
//
// The endpoint URI and key are not part of Config; see ResolveTarget.
func Load() (*Config, error) {
	loadDotEnv()
	return fromEnv()
}

// LoadFile is Load with an explicit .env file, which must exist.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return fromEnv()
}

func loadDotEnv() {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

func fromEnv() (*Config, error) {
	defaults := llm.DefaultGenerationParams()

	cfg := &Config{
		Normalizer:       getEnv("CHAT_NORMALIZER", "nop"),
		HistoryBackend:   strings.ToLower(getEnv("HISTORY_BACKEND", BackendSQLite)),
		DBPath:           getEnv("DB_PATH", "./data/amlchat.db"),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "chat_turns"),
		APIPort:          getEnv("API_PORT", "9000"),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	var err error
	if cfg.Params.MaxTokens, err = getEnvInt("MAX_TOKENS", defaults.MaxTokens); err != nil {
		return nil, err
	}
	if cfg.Params.Temperature, err = getEnvFloat("TEMPERATURE", defaults.Temperature); err != nil {
		return nil, err
	}
	if cfg.Params.TopP, err = getEnvFloat("TOP_P", defaults.TopP); err != nil {
		return nil, err
	}
	if cfg.Params.RepetitionPenalty, err = getEnvFloat("REPETITION_PENALTY", defaults.RepetitionPenalty); err != nil {
		return nil, err
	}
	if cfg.MaxRequestsPerMinute, err = getEnvInt("MAX_REQUESTS_PER_MINUTE", 0); err != nil {
		return nil, err
	}
	if cfg.RetryMaxAttempts, err = getEnvInt("RETRY_MAX_NUM_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	waitMin, err := getEnvInt("RETRY_WAIT_MIN_SECONDS", 5)
	if err != nil {
		return nil, err
	}
	waitMax, err := getEnvInt("RETRY_WAIT_MAX_SECONDS", 220)
	if err != nil {
		return nil, err
	}
	cfg.RetryWaitMin = time.Duration(waitMin) * time.Second
	cfg.RetryWaitMax = time.Duration(waitMax) * time.Second

	if cfg.LogLevel, err = ParseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.HistoryBackend == BackendSQLite {
		// Create the database directory if it doesn't exist
		dataDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := llm.NormalizerByName(c.Normalizer); err != nil {
		return fmt.Errorf("CHAT_NORMALIZER: %w", err)
	}
	if c.MaxRequestsPerMinute < 0 {
		return fmt.Errorf("MAX_REQUESTS_PER_MINUTE must not be negative")
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_NUM_ATTEMPTS must be at least 1")
	}
	if c.RetryWaitMin < 0 || c.RetryWaitMax < c.RetryWaitMin {
		return fmt.Errorf("RETRY_WAIT_MIN_SECONDS must be between 0 and RETRY_WAIT_MAX_SECONDS")
	}
	switch c.HistoryBackend {
	case BackendSQLite, BackendQdrant:
	default:
		return fmt.Errorf("HISTORY_BACKEND must be %q or %q, got %q", BackendSQLite, BackendQdrant, c.HistoryBackend)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// ParseLogLevel parses debug, info, warn or error (case-insensitive).
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return v, nil
}
