package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "pagesmith.db", cfg.Database.Path)
	assert.Equal(t, 50, cfg.Generation.BatchSize)
	assert.Equal(t, 50000, cfg.Generation.MaxCombinations)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout.Std())
	assert.Equal(t, 300, cfg.Quality.MinWords)
	require.Len(t, cfg.AI.Providers, 3)
	assert.Equal(t, "openai", cfg.AI.Providers[0].Name)
	assert.Empty(t, cfg.AI.Providers[0].APIKey)
}

func TestLoadConfig_YAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagesmith.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: data/pages.db
generation:
  batch_size: 10
  rotation_strategy: weighted_random
ai:
  timeout: 5s
  providers:
    - name: anthropic
      model: claude-test
    - name: openai
      base_url: http://localhost:8080/v1
quality:
  hard_reject: true
`), 0644))

	t.Setenv("PAGESMITH_DB", "/tmp/override.db")
	t.Setenv("PAGESMITH_OPENAI_API_KEY", "sk-openai")
	t.Setenv("PAGESMITH_GEMINI_API_KEY", "gm-key")
	t.Setenv("PAGESMITH_REDIS_ADDR", "localhost:6379")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.Generation.BatchSize)
	assert.Equal(t, 4, cfg.Generation.Workers)
	assert.Equal(t, "weighted_random", cfg.Generation.Strategy)
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout.Std())
	assert.True(t, cfg.Quality.HardReject)
	assert.Equal(t, "redis", cfg.History.Backend)
	assert.Equal(t, "localhost:6379", cfg.History.RedisAddr)

	assert.Equal(t, []Provider{
		{Name: "anthropic", Model: "claude-test"},
		{Name: "openai", APIKey: "sk-openai", BaseURL: "http://localhost:8080/v1"},
		{Name: "gemini", APIKey: "gm-key"},
	}, cfg.AI.Providers)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai:\n  timeout: soon\n"), 0644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "invalid duration")
}
