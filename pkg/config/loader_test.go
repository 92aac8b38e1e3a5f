package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o600))
	return dir
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Initialize(ctx, t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, DefaultPort, cfg.Server.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "local", cfg.Blob.Driver)
		assert.Equal(t, DefaultModel, cfg.LLM.Model)
		assert.Equal(t, DefaultMaxToolIterations, cfg.Runtime.MaxToolIterations)
		assert.Equal(t, DefaultContextTokenBudgetFraction, cfg.Runtime.ContextTokenBudgetFraction)
	})

	t.Run("yaml values override defaults", func(t *testing.T) {
		dir := writeConfigFile(t, `
server:
  port: 9090
database:
  driver: memory
llm:
  backend: vertex
  model: gemini-2.5-pro
runtime:
  max_tool_iterations: 4
  history_window_pairs: 3
`)
		cfg, err := Initialize(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "memory", cfg.Database.Driver)
		assert.Equal(t, "vertex", cfg.LLM.Backend)
		assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
		assert.Equal(t, 4, cfg.Runtime.MaxToolIterations)
		assert.Equal(t, 3, cfg.Runtime.HistoryWindowPairs)
		// Unset values still come from defaults.
		assert.Equal(t, DefaultRequestTimeoutSeconds, cfg.Runtime.RequestTimeoutSeconds)
	})

	t.Run("environment overrides yaml", func(t *testing.T) {
		dir := writeConfigFile(t, `
database:
  driver: postgres
`)
		t.Setenv("LEXMIND_DB_DRIVER", "memory")
		cfg, err := Initialize(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.Database.Driver)
	})

	t.Run("grounded backend on gemini fails fast", func(t *testing.T) {
		dir := writeConfigFile(t, `
llm:
  backend: gemini
  use_grounded_backend: true
`)
		_, err := Initialize(ctx, dir)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("invalid yaml fails", func(t *testing.T) {
		dir := writeConfigFile(t, "server: [not a mapping")
		_, err := Initialize(ctx, dir)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidYAML)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		setting string
	}{
		{
			name:    "bad database driver",
			mutate:  func(c *Config) { c.Database.Driver = "sqlite" },
			setting: "database.driver",
		},
		{
			name:    "s3 without bucket",
			mutate:  func(c *Config) { c.Blob.Driver = "s3" },
			setting: "blob.s3_bucket",
		},
		{
			name:    "bad llm backend",
			mutate:  func(c *Config) { c.LLM.Backend = "openai" },
			setting: "llm.backend",
		},
		{
			name:    "zero iterations",
			mutate:  func(c *Config) { c.Runtime.MaxToolIterations = -1 },
			setting: "runtime.max_tool_iterations",
		},
		{
			name:    "request ceiling below agent timeout",
			mutate:  func(c *Config) { c.Runtime.RequestTimeoutSeconds = 10 },
			setting: "runtime.request_timeout_seconds",
		},
		{
			name:    "budget fraction above one",
			mutate:  func(c *Config) { c.Runtime.ContextTokenBudgetFraction = 1.5 },
			setting: "runtime.context_token_budget_fraction",
		},
		{
			name:    "negative retention",
			mutate:  func(c *Config) { c.Retention.SessionRetentionDays = -1 },
			setting: "retention.session_retention_days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.setting, verr.Setting)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}

	t.Run("defaults pass", func(t *testing.T) {
		require.NoError(t, Validate(valid()))
	})
}
