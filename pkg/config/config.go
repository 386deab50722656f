// Package config loads and validates the settings that drive a style-search run.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the style-search engine configuration.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Search      SearchConfig      `yaml:"search"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Formatter   FormatterConfig   `yaml:"formatter"`
	Reporting   ReportingConfig   `yaml:"reporting"`
}

// LoggingConfig contains structured-logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SearchConfig contains search-engine tuning knobs.
type SearchConfig struct {
	Mode            string   `yaml:"mode"`
	MaxRounds       int      `yaml:"max_rounds"`
	AcceptFromRound int      `yaml:"accept_from_round"`
	IgnoreOptions   []string `yaml:"ignore_options"`
	Metric          string   `yaml:"metric"`
	SourceFactor    float64  `yaml:"source_factor"`
	VariantsFactor  float64  `yaml:"variants_factor"`
}

// CacheConfig selects and configures the content-addressed cache backend.
type CacheConfig struct {
	Backend string `yaml:"backend"` // "sqlite" or "directory"
	Path    string `yaml:"path"`
	Disable bool   `yaml:"disable"`
}

// ConcurrencyConfig controls the parallel dispatcher.
type ConcurrencyConfig struct {
	Mode               string `yaml:"mode"` // "off", "threads", "processes"
	MaxWorkers         int    `yaml:"max_workers"`
	LargeFileThreshold int    `yaml:"large_file_threshold_bytes"`
}

// FormatterConfig identifies the external formatter under test.
type FormatterConfig struct {
	Executable string `yaml:"executable"`
	Language   string `yaml:"language"`
}

// ReportingConfig controls where results and the metric sidecar are written.
type ReportingConfig struct {
	OutputStyle  string `yaml:"output_style"`
	MetricSidecar bool  `yaml:"metric_sidecar"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Search: SearchConfig{
			Mode:            "normal",
			MaxRounds:       -1,
			AcceptFromRound: 3,
			Metric:          "mindiff",
		},
		Cache: CacheConfig{
			Backend: "sqlite",
			Path:    defaultCachePath(),
		},
		Concurrency: ConcurrencyConfig{
			Mode:               "processes",
			LargeFileThreshold: 256 * 1024,
		},
		Reporting: ReportingConfig{
			OutputStyle: "style.cfg",
		},
	}
}

func defaultCachePath() string {
	dir := os.TempDir()
	return dir + string(os.PathSeparator) + "styleinfer-cache.sqlite"
}

// Load reads configuration from a YAML file, falling back to defaults when
// path is empty or the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects configurations the engine cannot act on.
func (c *Config) Validate() error {
	if c.Formatter.Executable == "" {
		return fmt.Errorf("formatter.executable is required")
	}

	if c.Search.AcceptFromRound < 0 {
		return fmt.Errorf("search.accept_from_round must be >= 0")
	}

	switch c.Cache.Backend {
	case "sqlite", "directory":
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got %q", "sqlite", "directory", c.Cache.Backend)
	}

	switch c.Concurrency.Mode {
	case "off", "threads", "processes":
	default:
		return fmt.Errorf("concurrency.mode must be one of off/threads/processes, got %q", c.Concurrency.Mode)
	}

	return nil
}
