package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Missing(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Dataset = "/srv/photos"
	cfg.TopK = 5
	cfg.Strategy = StrategyShared
	cfg.History.Enabled = false

	require.NoError(t, SaveTo(path, cfg))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFrom_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_k: 7\n"), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.TopK)
	assert.Equal(t, 500, cfg.Resolution)
	assert.Equal(t, "best_images.txt", cfg.Output)
	assert.Equal(t, DefaultDataset, cfg.Dataset)
	assert.True(t, cfg.History.Enabled)
}

func TestLoadFrom_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_k: [\n"), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"Default", func(c *Config) {}, true},
		{"ZeroK", func(c *Config) { c.TopK = 0 }, false},
		{"NoWorkers", func(c *Config) { c.Workers = 0 }, false},
		{"NoResolution", func(c *Config) { c.Resolution = 0 }, false},
		{"NoOutput", func(c *Config) { c.Output = "" }, false},
		{"BadStrategy", func(c *Config) { c.Strategy = "fastest" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestPathsHonourHomeEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)

	path, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), path)

	exists, err := Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, Save(Default()))
	exists, err = Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	cfg, err := Load()
	require.NoError(t, err)
	hist, err := cfg.HistoryPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, HistoryDBName), hist)
}
