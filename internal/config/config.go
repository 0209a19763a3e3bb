// Package config reads the command-line tool's environment configuration.
// Library behavior is configured per call through dscparser.Options; these
// values only steer the CLI.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the tool-level settings.
type Config struct {
	CatalogDSN   string
	LogLevel     string
	DBDebug      bool
	Workers      int
	MaxFileBytes int64
	DiffContext  int
}

// Load reads configuration from DSCPARSER_* environment variables, falling
// back to defaults for anything unset or unparsable.
func Load() *Config {
	cfg := &Config{
		CatalogDSN:   os.Getenv("DSCPARSER_CATALOG_DSN"),
		LogLevel:     os.Getenv("DSCPARSER_LOG_LEVEL"),
		Workers:      0, // 0 means one worker per CPU
		MaxFileBytes: 5 * 1024 * 1024,
		DiffContext:  3,
	}

	if cfg.CatalogDSN == "" {
		cfg.CatalogDSN = filepath.Join(".dscparser", "catalog.db")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if debugStr := os.Getenv("DSCPARSER_DB_DEBUG"); debugStr != "" {
		if debug, err := strconv.ParseBool(debugStr); err == nil {
			cfg.DBDebug = debug
		}
	}

	if workersStr := os.Getenv("DSCPARSER_WORKERS"); workersStr != "" {
		if workers, err := strconv.Atoi(workersStr); err == nil && workers >= 0 {
			cfg.Workers = workers
		}
	}

	if maxBytesStr := os.Getenv("DSCPARSER_MAX_FILE_BYTES"); maxBytesStr != "" {
		if maxBytes, err := strconv.ParseInt(maxBytesStr, 10, 64); err == nil && maxBytes > 0 {
			cfg.MaxFileBytes = maxBytes
		}
	}

	if contextStr := os.Getenv("DSCPARSER_DIFF_CONTEXT"); contextStr != "" {
		if diffContext, err := strconv.Atoi(contextStr); err == nil && diffContext >= 0 {
			cfg.DiffContext = diffContext
		}
	}

	return cfg
}

// SlogLevel maps the configured level name to a slog level. Unknown names
// mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
