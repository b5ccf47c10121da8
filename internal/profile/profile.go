package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the sentinel core.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Data is the data directory (graph store, rendered reports)
	Data string
	// Driver is the graph store driver (sqlite or postgres)
	Driver string
	// DSN points to where the graph store keeps its data.
	// For sqlite this is a file path; empty means <Data>/sentinel.db.
	DSN string
	// ReportDir is where rendered report artifacts are written.
	// Empty means <Data>/reports.
	ReportDir string
	// Version is the current version of the core
	Version string

	// AI configuration
	AIEnabled     bool          // SENTINEL_AI_ENABLED
	AIProvider    string        // SENTINEL_AI_PROVIDER (openai or ollama)
	AIModel       string        // SENTINEL_AI_MODEL
	AIAPIKey      string        // SENTINEL_AI_API_KEY
	AIBaseURL     string        // SENTINEL_AI_BASE_URL
	AIMaxTokens   int           // SENTINEL_AI_MAX_TOKENS (default 1536)
	AITemperature float64       // SENTINEL_AI_TEMPERATURE (default 0.3)
	AITimeout     time.Duration // SENTINEL_AI_TIMEOUT (default 60s)

	// Memory configuration
	RecentEventLimit int // SENTINEL_RECENT_EVENT_LIMIT (default 20)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and a provider endpoint is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && (p.AIAPIKey != "" || p.AIBaseURL != "")
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || strings.EqualFold(value, "true")
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// FromEnv loads configuration from SENTINEL_* environment variables.
func (p *Profile) FromEnv() {
	p.Mode = getEnvOrDefault("SENTINEL_MODE", p.Mode)
	p.Data = getEnvOrDefault("SENTINEL_DATA", p.Data)
	p.Driver = getEnvOrDefault("SENTINEL_DRIVER", p.Driver)
	p.DSN = getEnvOrDefault("SENTINEL_DSN", p.DSN)
	p.ReportDir = getEnvOrDefault("SENTINEL_REPORT_DIR", p.ReportDir)

	p.AIEnabled = getEnvBool("SENTINEL_AI_ENABLED", p.AIEnabled)
	p.AIProvider = getEnvOrDefault("SENTINEL_AI_PROVIDER", p.AIProvider)
	p.AIModel = getEnvOrDefault("SENTINEL_AI_MODEL", p.AIModel)
	p.AIAPIKey = getEnvOrDefault("SENTINEL_AI_API_KEY", p.AIAPIKey)
	p.AIBaseURL = getEnvOrDefault("SENTINEL_AI_BASE_URL", p.AIBaseURL)
	p.AIMaxTokens = getEnvInt("SENTINEL_AI_MAX_TOKENS", p.AIMaxTokens)
	if value := os.Getenv("SENTINEL_AI_TEMPERATURE"); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			p.AITemperature = f
		}
	}
	if value := os.Getenv("SENTINEL_AI_TIMEOUT"); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			p.AITimeout = d
		}
	}

	p.RecentEventLimit = getEnvInt("SENTINEL_RECENT_EVENT_LIMIT", p.RecentEventLimit)
}

// Validate normalizes the profile and fails on unusable configuration.
func (p *Profile) Validate() error {
	if p.Mode == "" {
		p.Mode = "dev"
	}
	if p.Data == "" {
		p.Data = "./data"
	}
	absData, err := filepath.Abs(p.Data)
	if err != nil {
		return errors.Wrapf(err, "invalid data directory %q", p.Data)
	}
	p.Data = absData
	if err := os.MkdirAll(p.Data, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create data directory %q", p.Data)
	}

	switch p.Driver {
	case "":
		p.Driver = "sqlite"
	case "sqlite", "postgres":
	default:
		return errors.Errorf("unknown store driver %q: only sqlite and postgres are supported", p.Driver)
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = filepath.Join(p.Data, "sentinel.db")
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires SENTINEL_DSN")
	}
	if p.ReportDir == "" {
		p.ReportDir = filepath.Join(p.Data, "reports")
	}

	if p.AIMaxTokens <= 0 {
		p.AIMaxTokens = 1536
	}
	if p.AITemperature <= 0 {
		p.AITemperature = 0.3
	}
	if p.AITimeout <= 0 {
		p.AITimeout = 60 * time.Second
	}
	if p.RecentEventLimit <= 0 {
		p.RecentEventLimit = 20
	}
	return nil
}

// Default returns a profile with defaults applied.
func Default() *Profile {
	p := &Profile{Version: "0.1.0"}
	if err := p.Validate(); err != nil {
		// Defaults only touch the local filesystem; surface loudly if even
		// that is broken.
		panic(fmt.Sprintf("default profile invalid: %v", err))
	}
	return p
}
