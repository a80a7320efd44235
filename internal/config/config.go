// Package config defines the engine configuration surface.
//
// Cache settings, the metadata category vocabulary, and the log level are
// explicit configuration so multiple engines with different settings can
// coexist in one process.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/srwlli/coderef/internal/errors"
)

// CurrentVersion is the config schema version this build reads.
const CurrentVersion = 1

// Config is the complete engine configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Query    QueryConfig    `yaml:"query" json:"query"`
	Metadata MetadataConfig `yaml:"metadata" json:"metadata"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// QueryConfig configures the query engine's result cache.
type QueryConfig struct {
	// EnableCaching toggles the result cache.
	EnableCaching bool `yaml:"enable_caching" json:"enable_caching"`
	// CacheMaxSize is the maximum number of cached results.
	CacheMaxSize int `yaml:"cache_max_size" json:"cache_max_size"`
	// CacheTTL is how long a cached result stays fresh.
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

// MetadataConfig configures the metadata index vocabulary.
type MetadataConfig struct {
	// ExtraCategories extends the recognized category set at build time.
	// The standard seven categories and the custom fallback are always
	// present.
	ExtraCategories []string `yaml:"extra_categories" json:"extra_categories"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level"`
}

// Default returns the standard configuration.
func Default() Config {
	return Config{
		Version: CurrentVersion,
		Query: QueryConfig{
			EnableCaching: true,
			CacheMaxSize:  1000,
			CacheTTL:      60 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML config file. Missing fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.New(errors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file not found: %s", path), err)
		}
		return cfg, errors.ConfigError("failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.ConfigError("failed to parse config YAML", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOrDefault reads a YAML config file, falling back to defaults when
// the file is absent.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if ce, ok := err.(*errors.Error); ok && ce.Code == errors.ErrCodeConfigNotFound {
			return Default(), nil
		}
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c Config) Validate() error {
	if c.Version != CurrentVersion {
		return errors.ConfigError(
			fmt.Sprintf("unsupported config version %d (want %d)", c.Version, CurrentVersion), nil)
	}
	if c.Query.CacheMaxSize < 0 {
		return errors.New(errors.ErrCodeInvalidCacheConfig, "cache_max_size must not be negative", nil)
	}
	if c.Query.CacheTTL < 0 {
		return errors.New(errors.ErrCodeInvalidCacheConfig, "cache_ttl must not be negative", nil)
	}
	for _, cat := range c.Metadata.ExtraCategories {
		if cat == "" {
			return errors.ConfigError("extra_categories must not contain empty names", nil)
		}
	}
	return nil
}

// Save writes the configuration as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.ConfigError("failed to marshal config", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.ConfigError("failed to write config file", err)
	}
	return nil
}
