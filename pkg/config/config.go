// Package config loads and validates the lexmind.yaml configuration file.
// Settings resolve in three layers: built-in defaults, YAML values, then
// environment variable overrides. Validation fails fast at startup; a
// misconfigured deployment never serves traffic.
package config

import "time"

// Config is the umbrella configuration object returned by Initialize() and
// used throughout the application.
type Config struct {
	configDir string

	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Blob      BlobConfig      `yaml:"blob"`
	LLM       LLMConfig       `yaml:"llm"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
	Retention RetentionConfig `yaml:"retention"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig selects the persistence backend. Connection parameters come
// from DB_* environment variables, not YAML, so secrets stay out of files.
type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver string `yaml:"driver"`
}

// BlobConfig selects where uploaded contracts and generated documents live.
type BlobConfig struct {
	// Driver is "local" or "s3".
	Driver string `yaml:"driver"`

	// LocalDir is the root directory for the local driver.
	LocalDir string `yaml:"local_dir"`

	// S3 settings, required when Driver is "s3".
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
	S3Prefix string `yaml:"s3_prefix"`
}

// LLMConfig holds model provider settings.
type LLMConfig struct {
	// Backend is "gemini" (API key) or "vertex" (managed identity).
	Backend string `yaml:"backend"`

	// Model is the generation model name.
	Model string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the Gemini API key.
	APIKeyEnv string `yaml:"api_key_env"`

	// ProjectEnv/LocationEnv name the environment variables holding the
	// Vertex project and location.
	ProjectEnv  string `yaml:"project_env"`
	LocationEnv string `yaml:"location_env"`

	// UseGroundedBackend requires the Vertex backend so grounded search is
	// actually available to research agents. When true and Backend is not
	// "vertex", startup fails with a configuration error. There is no
	// silent fallback.
	UseGroundedBackend bool `yaml:"use_grounded_backend"`
}

// RuntimeConfig holds the orchestration limits. Zero values are replaced with
// defaults during loading.
type RuntimeConfig struct {
	// MaxToolIterations bounds the tool loop per agent run.
	MaxToolIterations int `yaml:"max_tool_iterations"`

	// ToolTimeoutSeconds bounds a single tool dispatch.
	ToolTimeoutSeconds int `yaml:"tool_timeout_seconds"`

	// AgentTurnTimeoutSeconds bounds one agent run inside a turn.
	AgentTurnTimeoutSeconds int `yaml:"agent_turn_timeout_seconds"`

	// RequestTimeoutSeconds bounds the whole chat turn.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`

	// HistoryWindowPairs is the number of recent user/assistant pairs
	// included in agent context.
	HistoryWindowPairs int `yaml:"history_window_pairs"`

	// ContextWindowTokens is the model context size used for budgeting.
	ContextWindowTokens int `yaml:"context_window_tokens"`

	// ContextTokenBudgetFraction is the share of the context window a
	// built prompt may occupy.
	ContextTokenBudgetFraction float64 `yaml:"context_token_budget_fraction"`
}

// RetentionConfig controls the background retention sweeper.
type RetentionConfig struct {
	// SessionRetentionDays is the age after which idle sessions and their
	// messages, logs and generated documents are deleted. Zero disables
	// the sweeper.
	SessionRetentionDays int `yaml:"session_retention_days"`

	// SweepIntervalMinutes is how often the sweeper runs.
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
}

// SweepInterval returns the sweep cadence as a duration.
func (r RetentionConfig) SweepInterval() time.Duration {
	return time.Duration(r.SweepIntervalMinutes) * time.Minute
}

// ToolTimeout returns the tool dispatch timeout as a duration.
func (r RuntimeConfig) ToolTimeout() time.Duration {
	return time.Duration(r.ToolTimeoutSeconds) * time.Second
}

// AgentTurnTimeout returns the per-agent timeout as a duration.
func (r RuntimeConfig) AgentTurnTimeout() time.Duration {
	return time.Duration(r.AgentTurnTimeoutSeconds) * time.Second
}

// RequestTimeout returns the whole-turn ceiling as a duration.
func (r RuntimeConfig) RequestTimeout() time.Duration {
	return time.Duration(r.RequestTimeoutSeconds) * time.Second
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}
