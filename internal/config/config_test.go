package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srwlli/coderef/internal/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.True(t, cfg.Query.EnableCaching)
	assert.Equal(t, 1000, cfg.Query.CacheMaxSize)
	assert.Equal(t, 60*time.Second, cfg.Query.CacheTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_RoundTrip(t *testing.T) {
	// Given: a config written to disk
	path := filepath.Join(t.TempDir(), "coderef.yaml")
	want := Default()
	want.Query.CacheMaxSize = 42
	want.Query.CacheTTL = 5 * time.Second
	want.Metadata.ExtraCategories = []string{"team"}
	want.Logging.Level = "debug"
	require.NoError(t, want.Save(path))

	// When: loading it back
	got, err := Load(path)
	require.NoError(t, err)

	// Then: all fields survive
	assert.Equal(t, want, got)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coderef.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\nquery:\n  cache_max_size: 7\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Query.CacheMaxSize)
	// Untouched fields keep their defaults.
	assert.Equal(t, 60*time.Second, cfg.Query.CacheTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigNotFound, errors.GetCode(err))
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("query: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfig, errors.GetCategory(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(c *Config) {}, false},
		{"wrong version", func(c *Config) { c.Version = 99 }, true},
		{"negative cache size", func(c *Config) { c.Query.CacheMaxSize = -1 }, true},
		{"negative ttl", func(c *Config) { c.Query.CacheTTL = -time.Second }, true},
		{"empty extra category", func(c *Config) { c.Metadata.ExtraCategories = []string{""} }, true},
		{"valid extra category", func(c *Config) { c.Metadata.ExtraCategories = []string{"team"} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
