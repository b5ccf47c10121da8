package profile

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	p := &Profile{Data: t.TempDir()}
	require.NoError(t, p.Validate())

	assert.Equal(t, "dev", p.Mode)
	assert.True(t, p.IsDev())
	assert.Equal(t, "sqlite", p.Driver)
	assert.Equal(t, filepath.Join(p.Data, "sentinel.db"), p.DSN)
	assert.Equal(t, filepath.Join(p.Data, "reports"), p.ReportDir)
	assert.Equal(t, 1536, p.AIMaxTokens)
	assert.InDelta(t, 0.3, p.AITemperature, 0.001)
	assert.Equal(t, 60*time.Second, p.AITimeout)
	assert.Equal(t, 20, p.RecentEventLimit)
}

func TestValidatePostgresRequiresDSN(t *testing.T) {
	p := &Profile{Data: t.TempDir(), Driver: "postgres"}
	assert.Error(t, p.Validate())

	p.DSN = "postgres://localhost/sentinel"
	assert.NoError(t, p.Validate())
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	p := &Profile{Data: t.TempDir(), Driver: "mysql"}
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}

func TestFromEnv(t *testing.T) {
	t.Setenv("SENTINEL_MODE", "prod")
	t.Setenv("SENTINEL_DRIVER", "postgres")
	t.Setenv("SENTINEL_DSN", "postgres://localhost/sentinel")
	t.Setenv("SENTINEL_AI_ENABLED", "true")
	t.Setenv("SENTINEL_AI_PROVIDER", "ollama")
	t.Setenv("SENTINEL_AI_BASE_URL", "http://localhost:11434")
	t.Setenv("SENTINEL_AI_TEMPERATURE", "0.7")
	t.Setenv("SENTINEL_AI_TIMEOUT", "90s")
	t.Setenv("SENTINEL_RECENT_EVENT_LIMIT", "50")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "prod", p.Mode)
	assert.False(t, p.IsDev())
	assert.Equal(t, "postgres", p.Driver)
	assert.True(t, p.AIEnabled)
	assert.True(t, p.IsAIEnabled())
	assert.Equal(t, "ollama", p.AIProvider)
	assert.InDelta(t, 0.7, p.AITemperature, 0.001)
	assert.Equal(t, 90*time.Second, p.AITimeout)
	assert.Equal(t, 50, p.RecentEventLimit)
}
