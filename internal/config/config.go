package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/iishyfishyy/imgrank/internal/features"
	"github.com/iishyfishyy/imgrank/internal/output"
	"github.com/iishyfishyy/imgrank/internal/topk"
)

const (
	ConfigDirName  = ".imgrank"
	ConfigFileName = "config.yaml"
	HistoryDBName  = "history.db"

	// DefaultDataset is used when neither the command line nor the config
	// file names a dataset directory.
	DefaultDataset = "./dataset/images"

	// HomeEnv overrides the config directory.
	HomeEnv = "IMGRANK_HOME"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Strategy names accepted in the config file.
const (
	StrategyMerge  = "merge"
	StrategyShared = "shared"
)

// Config represents the application configuration
type Config struct {
	// Dataset is the default candidate directory.
	Dataset    string `yaml:"dataset,omitempty"`
	Output     string `yaml:"output"`
	TopK       int    `yaml:"top_k"`
	Workers    int    `yaml:"workers"`
	Resolution int    `yaml:"resolution"`
	Strategy   string `yaml:"strategy"`

	History History `yaml:"history"`
}

// History configures the run log.
type History struct {
	Enabled bool `yaml:"enabled"`
	// Path defaults to ~/.imgrank/history.db.
	Path string `yaml:"path,omitempty"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Dataset:    DefaultDataset,
		Output:     output.DefaultPath,
		TopK:       topk.DefaultK,
		Workers:    runtime.NumCPU(),
		Resolution: features.CanonicalSize,
		Strategy:   StrategyMerge,
		History:    History{Enabled: true},
	}
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	if c.Output == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalidConfig)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidConfig, c.TopK)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.Resolution <= 0 {
		return fmt.Errorf("%w: resolution must be positive, got %d", ErrInvalidConfig, c.Resolution)
	}
	if c.Strategy != StrategyMerge && c.Strategy != StrategyShared {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, c.Strategy)
	}
	return nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ConfigDirName), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// HistoryPath returns the run log location, honouring History.Path.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, HistoryDBName), nil
}

// Load reads the configuration from disk
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads the configuration at path. Missing keys keep their
// defaults. If the file doesn't exist, nil is returned without error.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to disk
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(configPath, cfg)
}

// SaveTo writes the configuration to path, creating its directory.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists checks if a configuration file exists
func Exists() (bool, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
