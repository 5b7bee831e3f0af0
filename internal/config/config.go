package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.parley/config.toml.
type Config struct {
	DefaultProfile string         `toml:"default_profile"`
	Store          StoreConfig    `toml:"store"`
	Provider       ProviderConfig `toml:"provider"`
}

// StoreConfig selects and configures the chat store backend.
type StoreConfig struct {
	// Backend is one of "sqlite", "firestore" or "memory".
	Backend string `toml:"backend"`
	// Project is the GCP project id for the firestore backend.
	Project string `toml:"project"`
}

// ProviderConfig configures the remote inference service.
type ProviderConfig struct {
	// Name is one of "cohere" or "openai".
	Name        string  `toml:"name"`
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	// TimeoutSeconds bounds a single inference call. Zero means 30s.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		DefaultProfile: "",
		Store:          StoreConfig{Backend: "sqlite"},
		Provider: ProviderConfig{
			Name:        "cohere",
			Model:       "command-light",
			MaxTokens:   100,
			Temperature: 0.5,
		},
	}
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadOrDefault reads config from path, falling back to defaults when the
// file does not exist.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return Default()
	}
	return cfg
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = "sqlite"
	}
	if c.Provider.Name == "" {
		c.Provider.Name = "cohere"
	}
	if c.Provider.Model == "" {
		switch c.Provider.Name {
		case "openai":
			c.Provider.Model = "gpt-4o-mini"
		default:
			c.Provider.Model = "command-light"
		}
	}
	if c.Provider.MaxTokens == 0 {
		c.Provider.MaxTokens = 100
	}
	if c.Provider.Temperature == 0 {
		c.Provider.Temperature = 0.5
	}
}

// ResolveAPIKey returns the configured API key, honoring the conventional
// environment variables when the config file leaves it empty.
func (p ProviderConfig) ResolveAPIKey() string {
	if p.APIKey != "" {
		return p.APIKey
	}
	switch p.Name {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return os.Getenv("COHERE_API_KEY")
	}
}

// Timeout returns the per-call inference timeout.
func (p ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}
