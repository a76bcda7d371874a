package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default values applied when the config file leaves a field unset.
const (
	DefaultHistoryLimit          = 50
	DefaultRetentionDays         = 30
	DefaultArtifactWindowSeconds = 1
	DefaultMaxTokens             = 4096
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Providers   map[string]ProviderConfig `json:"providers"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	DatabasePath  string `json:"database_path"`
	Provider      string `json:"provider"`
	LogLevel      string `json:"log_level"`
	// HistoryLimit caps the conversation listing.
	HistoryLimit int `json:"history_limit"`
	// RetentionDays is the default cleanup window for stale conversations.
	RetentionDays int `json:"retention_days"`
	// ArtifactWindowSeconds is the tolerance used to associate artifacts
	// with the nearest message by timestamp. Best-effort only.
	ArtifactWindowSeconds int `json:"artifact_window_seconds"`
	// MaxTokens bounds the model's reply length.
	MaxTokens int `json:"max_tokens"`
}

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.BasicConfig.DatabasePath == "" {
		return nil, fmt.Errorf("database_path must be configured")
	}

	if !filepath.IsAbs(cfg.BasicConfig.DatabasePath) {
		cfg.BasicConfig.DatabasePath = filepath.Join(filepath.Dir(absPath), cfg.BasicConfig.DatabasePath)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BasicConfig.Provider == "" {
		c.BasicConfig.Provider = "claude"
	}
	if c.BasicConfig.HistoryLimit <= 0 {
		c.BasicConfig.HistoryLimit = DefaultHistoryLimit
	}
	if c.BasicConfig.RetentionDays <= 0 {
		c.BasicConfig.RetentionDays = DefaultRetentionDays
	}
	if c.BasicConfig.ArtifactWindowSeconds <= 0 {
		c.BasicConfig.ArtifactWindowSeconds = DefaultArtifactWindowSeconds
	}
	if c.BasicConfig.MaxTokens <= 0 {
		c.BasicConfig.MaxTokens = DefaultMaxTokens
	}
}

// ProviderAPIKey resolves the API key for a provider, falling back to the
// conventional environment variable when the config omits it.
func (c *Config) ProviderAPIKey(provider string) string {
	if p, ok := c.Providers[provider]; ok && p.APIKey != "" {
		return p.APIKey
	}
	switch provider {
	case "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}
