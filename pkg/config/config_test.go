package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// LoadFromEnv Tests
// =============================================================================

func TestLoadFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"GRAPHEXEC_DATA_DIR", "GRAPHEXEC_CATALOG_DIR", "GRAPHEXEC_DATABASE",
		"GRAPHEXEC_IN_MEMORY", "GRAPHEXEC_CATALOG_CONCURRENCY",
		"GRAPHEXEC_CATALOG_VALIDATE_RELATIONSHIPS", "GRAPHEXEC_CATALOG_READ_CONCURRENCY", "GRAPHEXEC_CATALOG_SEQUENTIAL_DELAY",
		"GRAPHEXEC_QUERY_CACHE_SIZE", "GRAPHEXEC_QUERY_CACHE_TTL",
		"GRAPHEXEC_LOG_LEVEL", "GRAPHEXEC_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadFromEnv()
	if cfg.Database.DataDir != "./data" {
		t.Errorf("DataDir = %q, want ./data", cfg.Database.DataDir)
	}
	if want := filepath.Join("./data", "catalog"); cfg.Database.CatalogDir != want {
		t.Errorf("CatalogDir = %q, want %q", cfg.Database.CatalogDir, want)
	}
	if cfg.Database.Name != DefaultDatabaseName {
		t.Errorf("Name = %q, want %q", cfg.Database.Name, DefaultDatabaseName)
	}
	if cfg.Catalog != DefaultCatalogConfig() {
		t.Errorf("Catalog = %+v, want defaults", cfg.Catalog)
	}
	if cfg.Query.CacheSize != DefaultQueryCacheSize || cfg.Query.CacheTTL != DefaultQueryCacheTTL {
		t.Errorf("Query = %+v, want defaults", cfg.Query)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("GRAPHEXEC_DATA_DIR", "/tmp/graph")
	t.Setenv("GRAPHEXEC_CATALOG_DIR", "")
	t.Setenv("GRAPHEXEC_IN_MEMORY", "yes")
	t.Setenv("GRAPHEXEC_CATALOG_CONCURRENCY", "off")
	t.Setenv("GRAPHEXEC_CATALOG_READ_CONCURRENCY", "8")
	t.Setenv("GRAPHEXEC_CATALOG_VALIDATE_RELATIONSHIPS", "0")
	t.Setenv("GRAPHEXEC_CATALOG_SEQUENTIAL_DELAY", "250")
	t.Setenv("GRAPHEXEC_LOG_FORMAT", "json")

	cfg := LoadFromEnv()
	if cfg.Database.CatalogDir != filepath.Join("/tmp/graph", "catalog") {
		t.Errorf("catalog dir should follow the data dir, got %q", cfg.Database.CatalogDir)
	}
	if !cfg.Database.InMemory {
		t.Error("InMemory should be true")
	}
	if cfg.Catalog.Concurrency {
		t.Error("Concurrency should be false")
	}
	if cfg.Catalog.ReadConcurrency != 8 {
		t.Errorf("ReadConcurrency = %d, want 8", cfg.Catalog.ReadConcurrency)
	}
	if cfg.Catalog.ValidateRelationships {
		t.Error("ValidateRelationships should be false")
	}
	if cfg.Catalog.SequentialDelay != 250*time.Millisecond {
		t.Errorf("SequentialDelay = %s, want 250ms", cfg.Catalog.SequentialDelay)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Logging.Format)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("GRAPHEXEC_TEST_INT", "nope")
	if got := getEnvInt("GRAPHEXEC_TEST_INT", 3); got != 3 {
		t.Errorf("invalid int should fall back, got %d", got)
	}

	t.Setenv("GRAPHEXEC_TEST_BOOL", "maybe")
	if !getEnvBool("GRAPHEXEC_TEST_BOOL", true) {
		t.Error("invalid bool should fall back")
	}

	t.Setenv("GRAPHEXEC_TEST_DURATION", "1m")
	if got := getEnvDuration("GRAPHEXEC_TEST_DURATION", 0); got != time.Minute {
		t.Errorf("duration = %s, want 1m", got)
	}
	t.Setenv("GRAPHEXEC_TEST_DURATION", "soon")
	if got := getEnvDuration("GRAPHEXEC_TEST_DURATION", time.Second); got != time.Second {
		t.Errorf("invalid duration should fall back, got %s", got)
	}
}

// =============================================================================
// LoadFile Tests
// =============================================================================

func TestLoadFile(t *testing.T) {
	t.Setenv("GRAPHEXEC_DATABASE", "fromenv")
	path := filepath.Join(t.TempDir(), "graphexec.yaml")
	data := `
database:
  data_dir: /srv/graph
  in_memory: true
catalog:
  read_concurrency: 2
  sequential_delay: 5ms
query:
  cache_size: 16
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Database.DataDir != "/srv/graph" || !cfg.Database.InMemory {
		t.Errorf("database section not applied: %+v", cfg.Database)
	}
	if cfg.Database.Name != "fromenv" {
		t.Errorf("keys absent from the file keep env values, got %q", cfg.Database.Name)
	}
	if cfg.Catalog.ReadConcurrency != 2 || cfg.Catalog.SequentialDelay != 5*time.Millisecond {
		t.Errorf("catalog section not applied: %+v", cfg.Catalog)
	}
	if !cfg.Catalog.ValidateRelationships {
		t.Error("unset catalog keys keep their defaults")
	}
	if cfg.Query.CacheSize != 16 {
		t.Errorf("CacheSize = %d, want 16", cfg.Query.CacheSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("catalog: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("malformed yaml should fail")
	}
}

// =============================================================================
// Validate Tests
// =============================================================================

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{DataDir: "d", CatalogDir: "c", Name: "n"},
			Catalog:  DefaultCatalogConfig(),
			Logging:  LoggingConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"in memory without data dir", func(c *Config) { c.Database.InMemory = true; c.Database.DataDir = "" }, false},
		{"missing data dir", func(c *Config) { c.Database.DataDir = "" }, true},
		{"missing catalog dir", func(c *Config) { c.Database.CatalogDir = "" }, true},
		{"zero read concurrency", func(c *Config) { c.Catalog.ReadConcurrency = 0 }, true},
		{"negative delay", func(c *Config) { c.Catalog.SequentialDelay = -time.Millisecond }, true},
		{"disabled query cache", func(c *Config) { c.Query.CacheSize = 0 }, false},
		{"negative query cache", func(c *Config) { c.Query.CacheSize = -1 }, true},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := LoggingConfig{Level: "warn", Format: "json"}.NewLogger()
	if err != nil {
		t.Fatal(err)
	}
	if logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("level = %s, want warn", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter = %T, want JSON", logger.Formatter)
	}

	if _, err := (LoggingConfig{Level: "nope"}).NewLogger(); err == nil {
		t.Error("invalid level should fail")
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{DataDir: "d", CatalogDir: "c", Name: "n"}, Logging: LoggingConfig{Level: "info", Format: "text"}}
	want := "Config{DataDir: d, CatalogDir: c, Database: n, InMemory: false, Log: info/text}"
	if got := cfg.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
