package ai

import (
	"github.com/pkg/errors"

	"github.com/sentinelcare/sentinel/internal/profile"
)

// Config represents AI text generation configuration.
type Config struct {
	Enabled bool

	Provider    string // openai, ollama
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 1536
	Temperature float32 // default: 0.3
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.AIEnabled,
	}
	if !cfg.Enabled {
		return cfg
	}

	cfg.Provider = p.AIProvider
	cfg.Model = p.AIModel
	cfg.APIKey = p.AIAPIKey
	cfg.BaseURL = p.AIBaseURL
	cfg.MaxTokens = p.AIMaxTokens
	cfg.Temperature = float32(p.AITemperature)

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1536
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	return cfg
}

// Validate checks the configuration for completeness.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Model == "" {
		return errors.New("ai: model is required")
	}
	switch c.Provider {
	case "openai":
		if c.APIKey == "" {
			return errors.New("ai: openai provider requires an API key")
		}
	case "ollama":
		if c.BaseURL == "" {
			return errors.New("ai: ollama provider requires a base URL")
		}
	default:
		return errors.Errorf("ai: unsupported provider %q", c.Provider)
	}
	return nil
}
