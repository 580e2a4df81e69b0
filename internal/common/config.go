package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database    DatabaseConfig
	Recognition RecognitionConfig
	Queue       QueueConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// RecognitionConfig holds the decision thresholds of the pipeline. The
// threshold defaults are tuned heuristics carried over from production, not
// derived values; treat them as configurable cutoffs.
type RecognitionConfig struct {
	AutoCreateThreshold   float64 // overall confidence needed to auto-create an expense
	ReviewThreshold       float64 // below this the response flags needs_review
	SuggestThreshold      float64 // above this the parse response suggests auto-create
	MinTextLength         int     // trimmed rune count below which input is rejected
	MerchantMinConfidence float64
	MerchantMaxResults    int
	UseTrigramMatcher     bool // prefer the Postgres trigram matcher when available
}

// QueueConfig holds worker queue settings for batch submissions.
type QueueConfig struct {
	Workers        int
	Size           int
	ProcessTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Recognition: RecognitionConfig{
			AutoCreateThreshold:   getEnvAsFloat64("OCR_AUTO_CREATE_THRESHOLD", 0.85),
			ReviewThreshold:       getEnvAsFloat64("OCR_REVIEW_THRESHOLD", 0.6),
			SuggestThreshold:      getEnvAsFloat64("OCR_SUGGEST_THRESHOLD", 0.8),
			MinTextLength:         getEnvAsInt("OCR_MIN_TEXT_LENGTH", 5),
			MerchantMinConfidence: getEnvAsFloat64("OCR_MERCHANT_MIN_CONFIDENCE", 0.3),
			MerchantMaxResults:    getEnvAsInt("OCR_MERCHANT_MAX_RESULTS", 5),
			UseTrigramMatcher:     getEnvAsBool("OCR_USE_TRIGRAM_MATCHER", true),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("QUEUE_WORKERS", 4),
			Size:           getEnvAsInt("QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("QUEUE_PROCESS_TIMEOUT", time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", nil)
	}
	if c.Recognition.AutoCreateThreshold < 0 || c.Recognition.AutoCreateThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "OCR_AUTO_CREATE_THRESHOLD must be within [0,1]", nil)
	}
	if c.Recognition.ReviewThreshold < 0 || c.Recognition.ReviewThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "OCR_REVIEW_THRESHOLD must be within [0,1]", nil)
	}
	if c.Recognition.MinTextLength <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_MIN_TEXT_LENGTH must be positive", nil)
	}
	return nil
}
