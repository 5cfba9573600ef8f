// Package config provides configuration management for the PGx server.
// This file contains the environment-only configuration used by the MCP
// server and CLI, which run without a config file.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It requires no external databases and uses sensible defaults.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for the profile database and exports

	// Engine data
	AnnotationTablePath string // Optional YAML annotation table; empty uses the built-in panel
	GuidelineDBPath     string // Optional drug_db.json; empty yields an empty store
	ClassifyCacheSize   int    // Maximum memoised classifications

	// Optional report cache
	RedisURL string

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".pharmaguard")

	return &LiteConfig{
		DataDir:           dataDir,
		ClassifyCacheSize: 1024,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("PHARMAGUARD_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	cfg.AnnotationTablePath = os.Getenv("PHARMAGUARD_ANNOTATION_TABLE")
	cfg.GuidelineDBPath = os.Getenv("PHARMAGUARD_GUIDELINE_DB")
	if v := os.Getenv("PHARMAGUARD_CLASSIFY_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ClassifyCacheSize = n
		}
	}

	cfg.RedisURL = os.Getenv("PHARMAGUARD_REDIS_URL")

	if v := os.Getenv("PHARMAGUARD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PHARMAGUARD_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// ProfileDBPath returns the path to the profile SQLite database.
func (c *LiteConfig) ProfileDBPath() string {
	return filepath.Join(c.DataDir, "profiles.db")
}

// ExportDir returns the directory for JSON exports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0755)
}

// Engine returns the engine section in the shape the full configuration uses.
func (c *LiteConfig) Engine() domain.EngineConfig {
	return domain.EngineConfig{
		AnnotationTablePath: c.AnnotationTablePath,
		GuidelineDBPath:     c.GuidelineDBPath,
		ClassifyCacheSize:   c.ClassifyCacheSize,
	}
}

// Logging returns the logging section; lite entry points always log to stderr.
func (c *LiteConfig) Logging() domain.LoggingConfig {
	return domain.LoggingConfig{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: "stderr",
	}
}
