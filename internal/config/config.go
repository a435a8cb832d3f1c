// Package config provides configuration management for recall.
// It loads settings from environment variables with the RECALL_ prefix and
// provides sensible defaults for all configuration options.
package config

import (
	"os"
	"strconv"
)

// Config holds all configuration settings for the recall server.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Vector   VectorConfig
	Analyzer AnalyzerConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 7171)
	Host string // Server host (default: 127.0.0.1)
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	Backend     string // Storage backend: sqlite, postgres (default: sqlite)
	SQLitePath  string // Path to the SQLite database file (default: ./data/recall.db)
	PostgresDSN string // PostgreSQL connection string (used when Backend is postgres)
}

// VectorConfig contains similarity index configuration.
type VectorConfig struct {
	Backend            string  // Index backend: local, pgvector (default: local)
	Dimension          int     // Embedding dimension (default: 256)
	RatePerSecond      float64 // Index call rate limit, 0 disables (default: 0)
	BreakerMaxFailures int     // Consecutive failures before the circuit opens (default: 3)
}

// AnalyzerConfig contains content analysis configuration.
type AnalyzerConfig struct {
	MaxKeywords     int    // Keyword list cap (default: 10)
	EnableEntities  bool   // Enable entity extraction (default: true)
	EnableSentiment bool   // Enable sentiment scoring (default: true)
	LexiconPath     string // Optional YAML lexicon override file
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the RECALL_ prefix.
func LoadConfig() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("RECALL_PORT", 7171),
			Host: getEnv("RECALL_HOST", "127.0.0.1"),
		},
		Storage: StorageConfig{
			Backend:     getEnv("RECALL_STORAGE_BACKEND", "sqlite"),
			SQLitePath:  getEnv("RECALL_SQLITE_PATH", "./data/recall.db"),
			PostgresDSN: getEnv("RECALL_POSTGRES_DSN", ""),
		},
		Vector: VectorConfig{
			Backend:            getEnv("RECALL_VECTOR_BACKEND", "local"),
			Dimension:          getEnvInt("RECALL_VECTOR_DIMENSION", 256),
			RatePerSecond:      float64(getEnvInt("RECALL_VECTOR_RATE_LIMIT", 0)),
			BreakerMaxFailures: getEnvInt("RECALL_VECTOR_BREAKER_FAILURES", 3),
		},
		Analyzer: AnalyzerConfig{
			MaxKeywords:     getEnvInt("RECALL_MAX_KEYWORDS", 10),
			EnableEntities:  getEnvBool("RECALL_ENABLE_ENTITIES", true),
			EnableSentiment: getEnvBool("RECALL_ENABLE_SENTIMENT", true),
			LexiconPath:     getEnv("RECALL_LEXICON_PATH", ""),
		},
	}, nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. A set but unparseable value returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default
// value. It recognizes "true", "1", "yes" and "false", "0", "no"
// (case-insensitive). A set but unparseable value returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
