// Package config loads and validates TickerFind configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete TickerFind configuration.
type Config struct {
	Version int          `yaml:"version" json:"version"`
	Paths   PathsConfig  `yaml:"paths" json:"paths"`
	Search  SearchConfig `yaml:"search" json:"search"`
	Server  ServerConfig `yaml:"server" json:"server"`
	Watch   WatchConfig  `yaml:"watch" json:"watch"`
}

// PathsConfig configures where catalog data and the index live.
type PathsConfig struct {
	// DataDir is the root data directory. Defaults to ~/.tickerfind.
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// Catalog is the JSON seed file with securities.
	// Defaults to <data_dir>/securities.json.
	Catalog string `yaml:"catalog" json:"catalog"`
	// CatalogDB is the SQLite catalog store.
	// Defaults to <data_dir>/catalog.db.
	CatalogDB string `yaml:"catalog_db" json:"catalog_db"`
	// Index is the bleve suggestion index directory.
	// Defaults to <data_dir>/suggest.bleve.
	Index string `yaml:"index" json:"index"`
}

// SearchConfig configures suggestion behavior.
type SearchConfig struct {
	// MinQueryLen is the minimum query length before a lookup fires.
	// Queries shorter than this never hit the index.
	MinQueryLen int `yaml:"min_query_len" json:"min_query_len"`

	// QuietPeriod is how long input must be idle before a lookup fires.
	// Parsed as a Go duration string (e.g. "300ms").
	QuietPeriod string `yaml:"quiet_period" json:"quiet_period"`

	// MaxResults caps the number of suggestions returned.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// CacheSize is the number of recent query results kept in the LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address for `tickerfind serve`.
	Addr string `yaml:"addr" json:"addr"`
	// CORSOrigins restricts cross-origin requests. Empty means allow all.
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// WatchConfig configures catalog file watching.
type WatchConfig struct {
	// Enabled turns on live reindexing when the catalog seed file changes.
	// A pointer so an explicit "enabled: false" in the file is
	// distinguishable from the key being absent.
	Enabled *bool `yaml:"enabled" json:"enabled"`
	// Debounce is the quiet window applied to file events before reindexing.
	Debounce string `yaml:"debounce" json:"debounce"`
}

// IsEnabled reports whether watching is on. Unset means enabled.
func (w WatchConfig) IsEnabled() bool {
	return w.Enabled == nil || *w.Enabled
}

func boolPtr(b bool) *bool { return &b }

// Defaults mirrored in NewConfig. The 3-character minimum and 300ms quiet
// period are the widget's contract; changing them changes when lookups fire.
const (
	DefaultMinQueryLen = 3
	DefaultQuietPeriod = 300 * time.Millisecond
	DefaultMaxResults  = 10
	DefaultCacheSize   = 256
	DefaultAddr        = "127.0.0.1:8754"
)

// NewConfig creates a Config with sensible defaults.
func NewConfig() *Config {
	dataDir := DefaultDataDir()
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir:   dataDir,
			Catalog:   filepath.Join(dataDir, "securities.json"),
			CatalogDB: filepath.Join(dataDir, "catalog.db"),
			Index:     filepath.Join(dataDir, "suggest.bleve"),
		},
		Search: SearchConfig{
			MinQueryLen: DefaultMinQueryLen,
			QuietPeriod: DefaultQuietPeriod.String(),
			MaxResults:  DefaultMaxResults,
			CacheSize:   DefaultCacheSize,
		},
		Server: ServerConfig{
			Addr:     DefaultAddr,
			LogLevel: "info",
		},
		Watch: WatchConfig{
			Enabled:  boolPtr(true),
			Debounce: "500ms",
		},
	}
}

// DefaultDataDir returns the default data directory (~/.tickerfind).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".tickerfind")
	}
	return filepath.Join(home, ".tickerfind")
}

// Load loads configuration from the given directory, applying in order of
// increasing precedence:
//  1. Hardcoded defaults
//  2. .tickerfind.yaml (or .yml) in dir
//  3. Environment variables (TICKERFIND_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load .tickerfind.yaml or .tickerfind.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".tickerfind.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".tickerfind.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Paths.DataDir != "" {
		c.Paths.DataDir = other.Paths.DataDir
		// Re-derive dependent paths unless explicitly set below
		c.Paths.Catalog = filepath.Join(other.Paths.DataDir, "securities.json")
		c.Paths.CatalogDB = filepath.Join(other.Paths.DataDir, "catalog.db")
		c.Paths.Index = filepath.Join(other.Paths.DataDir, "suggest.bleve")
	}
	if other.Paths.Catalog != "" {
		c.Paths.Catalog = other.Paths.Catalog
	}
	if other.Paths.CatalogDB != "" {
		c.Paths.CatalogDB = other.Paths.CatalogDB
	}
	if other.Paths.Index != "" {
		c.Paths.Index = other.Paths.Index
	}

	if other.Search.MinQueryLen != 0 {
		c.Search.MinQueryLen = other.Search.MinQueryLen
	}
	if other.Search.QuietPeriod != "" {
		c.Search.QuietPeriod = other.Search.QuietPeriod
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.CacheSize != 0 {
		c.Search.CacheSize = other.Search.CacheSize
	}

	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if len(other.Server.CORSOrigins) > 0 {
		c.Server.CORSOrigins = other.Server.CORSOrigins
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}

	if other.Watch.Enabled != nil {
		c.Watch.Enabled = other.Watch.Enabled
	}
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
}

// applyEnvOverrides applies TICKERFIND_* environment variables.
// Env vars have the highest precedence.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TICKERFIND_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TICKERFIND_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("TICKERFIND_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
		c.Paths.Catalog = filepath.Join(v, "securities.json")
		c.Paths.CatalogDB = filepath.Join(v, "catalog.db")
		c.Paths.Index = filepath.Join(v, "suggest.bleve")
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.MinQueryLen < 1 {
		return fmt.Errorf("search.min_query_len must be >= 1, got %d", c.Search.MinQueryLen)
	}
	if c.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results must be >= 1, got %d", c.Search.MaxResults)
	}
	if _, err := time.ParseDuration(c.Search.QuietPeriod); err != nil {
		return fmt.Errorf("search.quiet_period is not a valid duration: %w", err)
	}
	if c.Watch.Debounce != "" {
		if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
			return fmt.Errorf("watch.debounce is not a valid duration: %w", err)
		}
	}
	switch c.Server.LogLevel {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("server.log_level must be one of debug, info, warn, error; got %q", c.Server.LogLevel)
	}
	return nil
}

// QuietPeriodDuration returns the parsed quiet period.
// Falls back to the default when unset or unparseable.
func (c *Config) QuietPeriodDuration() time.Duration {
	d, err := time.ParseDuration(c.Search.QuietPeriod)
	if err != nil || d <= 0 {
		return DefaultQuietPeriod
	}
	return d
}

// WatchDebounceDuration returns the parsed watch debounce window.
func (c *Config) WatchDebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}
