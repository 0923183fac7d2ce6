// Package config loads Muninn configuration from an optional YAML file with
// MUNINN_* environment-variable overrides.
//
// Precedence, lowest to highest: built-in defaults, YAML file, environment.
//
// Example:
//
//	cfg, err := config.Load("muninn.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all Muninn settings.
type Config struct {
	Store StoreConfig `yaml:"store"`
	Batch BatchConfig `yaml:"batch"`
	Retry RetryConfig `yaml:"retry"`
	Cache CacheConfig `yaml:"cache"`
	WAL   WALConfig   `yaml:"wal"`
	Log   LogConfig   `yaml:"log"`
}

// StoreConfig selects and locates the backing store.
type StoreConfig struct {
	// Backend is "badger" or "memory".
	Backend string `yaml:"backend"`
	// DataDir is the BadgerDB directory.
	DataDir string `yaml:"data_dir"`
	// SyncWrites forces fsync per commit on the Badger backend.
	SyncWrites bool `yaml:"sync_writes"`
}

// BatchConfig seeds the client's adaptive batch sizing.
type BatchConfig struct {
	Size int `yaml:"size"`
}

// RetryConfig tunes bulk-insert retry.
type RetryConfig struct {
	MaxAttempts   int     `yaml:"max_attempts"`
	BackoffFactor float64 `yaml:"backoff_factor"`
}

// CacheConfig bounds the in-process caches.
type CacheConfig struct {
	// HashEntries caps the triple content-hash memo cache.
	HashEntries int `yaml:"hash_entries"`
	// DebugNames caps the diagnostic reverse-lookup cache.
	DebugNames int `yaml:"debug_names"`
}

// WALConfig locates the idempotency log.
type WALConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{Backend: "badger", DataDir: "./data/muninn"},
		Batch: BatchConfig{Size: 128},
		Retry: RetryConfig{MaxAttempts: 3, BackoffFactor: 2.0},
		Cache: CacheConfig{HashEntries: 16384, DebugNames: 4096},
		WAL:   WALConfig{Path: "./data/muninn/wal.jsonl"},
		Log:   LogConfig{Level: "info"},
	}
}

// Load builds a Config from defaults, an optional YAML file, and MUNINN_*
// environment overrides. A missing file is not an error; an unreadable or
// malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// defaults + env only
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// Validate checks for settings no component can act on.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "badger", "memory":
	default:
		return fmt.Errorf("unknown store backend %q (want badger or memory)", c.Store.Backend)
	}
	if c.Store.Backend == "badger" && c.Store.DataDir == "" {
		return fmt.Errorf("badger backend requires store.data_dir")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BackoffFactor <= 0 {
		return fmt.Errorf("retry.backoff_factor must be > 0, got %v", c.Retry.BackoffFactor)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Store.Backend = getEnv("MUNINN_STORE_BACKEND", c.Store.Backend)
	c.Store.DataDir = getEnv("MUNINN_DATA_DIR", c.Store.DataDir)
	c.Store.SyncWrites = getEnvBool("MUNINN_SYNC_WRITES", c.Store.SyncWrites)
	c.Batch.Size = getEnvInt("MUNINN_BATCH_SIZE", c.Batch.Size)
	c.Retry.MaxAttempts = getEnvInt("MUNINN_RETRY_MAX_ATTEMPTS", c.Retry.MaxAttempts)
	c.Retry.BackoffFactor = getEnvFloat("MUNINN_RETRY_BACKOFF_FACTOR", c.Retry.BackoffFactor)
	c.Cache.HashEntries = getEnvInt("MUNINN_HASH_CACHE_ENTRIES", c.Cache.HashEntries)
	c.Cache.DebugNames = getEnvInt("MUNINN_DEBUG_NAME_ENTRIES", c.Cache.DebugNames)
	c.WAL.Path = getEnv("MUNINN_WAL_PATH", c.WAL.Path)
	c.Log.Level = getEnv("MUNINN_LOG_LEVEL", c.Log.Level)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
