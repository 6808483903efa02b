// Package config loads execution-core configuration from environment
// variables and, optionally, a YAML file.
//
// Environment variables:
//   - GRAPHEXEC_DATA_DIR="./data"              live-graph BadgerDB directory
//   - GRAPHEXEC_CATALOG_DIR="./data/catalog"   projection catalog directory
//   - GRAPHEXEC_DATABASE="graphexec"           database name reported in summaries
//   - GRAPHEXEC_IN_MEMORY=false                run BadgerDB in memory
//   - GRAPHEXEC_SYNC_WRITES=false              fsync every BadgerDB write
//   - GRAPHEXEC_CATALOG_CONCURRENCY=true       default `concurrency` projection key
//   - GRAPHEXEC_CATALOG_READ_CONCURRENCY=4     default `readConcurrency` projection key
//   - GRAPHEXEC_CATALOG_VALIDATE_RELATIONSHIPS=true
//   - GRAPHEXEC_CATALOG_SEQUENTIAL_DELAY=10ms  pause taken when concurrency is false
//   - GRAPHEXEC_QUERY_CACHE_SIZE=1000          parsed queries kept by the compiler (0 disables)
//   - GRAPHEXEC_QUERY_CACHE_TTL=5m
//   - GRAPHEXEC_LOG_LEVEL="info"
//   - GRAPHEXEC_LOG_FORMAT="text" or "json"
//
// Example:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid config: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultDatabaseName is reported in catalog summaries when none is configured.
	DefaultDatabaseName = "graphexec"
	// DefaultReadConcurrency is the default `readConcurrency` projection key.
	DefaultReadConcurrency = 4
	// DefaultSequentialDelay is the pause taken by projections run with
	// `concurrency: false`.
	DefaultSequentialDelay = 10 * time.Millisecond

	DefaultQueryCacheSize = 1000
	DefaultQueryCacheTTL  = 5 * time.Minute
)

// Config holds all configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Query    QueryConfig    `yaml:"query"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig locates the live graph and the projection catalog.
type DatabaseConfig struct {
	DataDir    string `yaml:"data_dir"`
	CatalogDir string `yaml:"catalog_dir"`
	Name       string `yaml:"name"`
	InMemory   bool   `yaml:"in_memory"`
	SyncWrites bool   `yaml:"sync_writes"`
}

// CatalogConfig holds projection defaults. Concurrency and ReadConcurrency are
// accepted and reported but resolution is always single-threaded.
type CatalogConfig struct {
	Concurrency           bool          `yaml:"concurrency"`
	ReadConcurrency       int           `yaml:"read_concurrency"`
	ValidateRelationships bool          `yaml:"validate_relationships"`
	SequentialDelay       time.Duration `yaml:"sequential_delay"`
}

// QueryConfig tunes the query compiler.
type QueryConfig struct {
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// LoggingConfig selects logrus level and formatter.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultCatalogConfig returns the built-in projection defaults.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Concurrency:           true,
		ReadConcurrency:       DefaultReadConcurrency,
		ValidateRelationships: true,
		SequentialDelay:       DefaultSequentialDelay,
	}
}

// LoadFromEnv builds a Config from environment variables and defaults.
func LoadFromEnv() *Config {
	cfg := &Config{}

	cfg.Database.DataDir = getEnv("GRAPHEXEC_DATA_DIR", "./data")
	cfg.Database.CatalogDir = getEnv("GRAPHEXEC_CATALOG_DIR", filepath.Join(cfg.Database.DataDir, "catalog"))
	cfg.Database.Name = getEnv("GRAPHEXEC_DATABASE", DefaultDatabaseName)
	cfg.Database.InMemory = getEnvBool("GRAPHEXEC_IN_MEMORY", false)
	cfg.Database.SyncWrites = getEnvBool("GRAPHEXEC_SYNC_WRITES", false)

	defaults := DefaultCatalogConfig()
	cfg.Catalog.Concurrency = getEnvBool("GRAPHEXEC_CATALOG_CONCURRENCY", defaults.Concurrency)
	cfg.Catalog.ReadConcurrency = getEnvInt("GRAPHEXEC_CATALOG_READ_CONCURRENCY", defaults.ReadConcurrency)
	cfg.Catalog.ValidateRelationships = getEnvBool("GRAPHEXEC_CATALOG_VALIDATE_RELATIONSHIPS", defaults.ValidateRelationships)
	cfg.Catalog.SequentialDelay = getEnvDuration("GRAPHEXEC_CATALOG_SEQUENTIAL_DELAY", defaults.SequentialDelay)

	cfg.Query.CacheSize = getEnvInt("GRAPHEXEC_QUERY_CACHE_SIZE", DefaultQueryCacheSize)
	cfg.Query.CacheTTL = getEnvDuration("GRAPHEXEC_QUERY_CACHE_TTL", DefaultQueryCacheTTL)

	cfg.Logging.Level = getEnv("GRAPHEXEC_LOG_LEVEL", "info")
	cfg.Logging.Format = getEnv("GRAPHEXEC_LOG_FORMAT", "text")

	return cfg
}

// LoadFile reads a YAML file over the environment-derived configuration.
// Keys absent from the file keep their LoadFromEnv values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := LoadFromEnv()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the core cannot run with.
func (c *Config) Validate() error {
	if !c.Database.InMemory && c.Database.DataDir == "" {
		return fmt.Errorf("data directory is required unless running in memory")
	}
	if c.Database.CatalogDir == "" {
		return fmt.Errorf("catalog directory is required")
	}
	if c.Catalog.ReadConcurrency < 1 {
		return fmt.Errorf("invalid read concurrency: %d", c.Catalog.ReadConcurrency)
	}
	if c.Catalog.SequentialDelay < 0 {
		return fmt.Errorf("invalid sequential delay: %s", c.Catalog.SequentialDelay)
	}
	if c.Query.CacheSize < 0 {
		return fmt.Errorf("invalid query cache size: %d", c.Query.CacheSize)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}
	return nil
}

// NewLogger builds a logrus logger from the logging section.
func (l LoggingConfig) NewLogger() (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	if l.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

// String returns a representation suitable for logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{DataDir: %s, CatalogDir: %s, Database: %s, InMemory: %v, Log: %s/%s}",
		c.Database.DataDir, c.Database.CatalogDir, c.Database.Name,
		c.Database.InMemory, c.Logging.Level, c.Logging.Format,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		// Try parsing as milliseconds
		if ms, err := strconv.Atoi(val); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}
