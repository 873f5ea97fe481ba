package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 50, cfg.MaxToolRounds)
	assert.Equal(t, 10, cfg.LoopWindow)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.False(t, cfg.AutoConfirm)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.Equal(t, 1.0, cfg.Retry.BaseDelay)
	assert.Equal(t, 60.0, cfg.Retry.MaxDelay)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.MaxToolRounds)
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: anthropic
model: claude-sonnet-4-5
max_tool_rounds: 25
auto_confirm: true
retry:
  max_retries: 5
  base_delay: 0.5
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-sonnet-4-5", cfg.Model)
	assert.Equal(t, 25, cfg.MaxToolRounds)
	assert.True(t, cfg.AutoConfirm)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 0.5, cfg.Retry.BaseDelay)
	// Unset keys keep defaults.
	assert.Equal(t, 60.0, cfg.Retry.MaxDelay)
	assert.Equal(t, 10, cfg.LoopWindow)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: anthropic\n"), 0644))

	t.Setenv("GPTCODE_PROVIDER", "openai")
	t.Setenv("GPTCODE_MODEL", "gpt-4o")
	t.Setenv("GPTCODE_RETRY_MAX_RETRIES", "7")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 7, cfg.Retry.MaxRetries)
}
