package config

// Built-in defaults applied to any value the YAML leaves unset.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 8080

	DefaultDatabaseDriver = "postgres"

	DefaultBlobDriver   = "local"
	DefaultBlobLocalDir = "data/blobs"

	DefaultLLMBackend  = "gemini"
	DefaultModel       = "gemini-2.0-flash"
	DefaultAPIKeyEnv   = "GOOGLE_API_KEY"
	DefaultProjectEnv  = "GOOGLE_CLOUD_PROJECT"
	DefaultLocationEnv = "GOOGLE_CLOUD_LOCATION"

	DefaultMaxToolIterations       = 6
	DefaultToolTimeoutSeconds      = 20
	DefaultAgentTurnTimeoutSeconds = 30
	DefaultRequestTimeoutSeconds   = 90
	DefaultHistoryWindowPairs      = 6
	DefaultContextWindowTokens     = 128000

	// Retention is off by default; deployments opt in.
	DefaultSweepIntervalMinutes = 60
)

// DefaultContextTokenBudgetFraction is the share of the context window a
// built prompt may occupy before history is trimmed.
const DefaultContextTokenBudgetFraction = 0.75

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDatabaseDriver
	}
	if cfg.Blob.Driver == "" {
		cfg.Blob.Driver = DefaultBlobDriver
	}
	if cfg.Blob.LocalDir == "" {
		cfg.Blob.LocalDir = DefaultBlobLocalDir
	}
	if cfg.LLM.Backend == "" {
		cfg.LLM.Backend = DefaultLLMBackend
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModel
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.LLM.ProjectEnv == "" {
		cfg.LLM.ProjectEnv = DefaultProjectEnv
	}
	if cfg.LLM.LocationEnv == "" {
		cfg.LLM.LocationEnv = DefaultLocationEnv
	}
	if cfg.Runtime.MaxToolIterations == 0 {
		cfg.Runtime.MaxToolIterations = DefaultMaxToolIterations
	}
	if cfg.Runtime.ToolTimeoutSeconds == 0 {
		cfg.Runtime.ToolTimeoutSeconds = DefaultToolTimeoutSeconds
	}
	if cfg.Runtime.AgentTurnTimeoutSeconds == 0 {
		cfg.Runtime.AgentTurnTimeoutSeconds = DefaultAgentTurnTimeoutSeconds
	}
	if cfg.Runtime.RequestTimeoutSeconds == 0 {
		cfg.Runtime.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
	if cfg.Runtime.HistoryWindowPairs == 0 {
		cfg.Runtime.HistoryWindowPairs = DefaultHistoryWindowPairs
	}
	if cfg.Runtime.ContextWindowTokens == 0 {
		cfg.Runtime.ContextWindowTokens = DefaultContextWindowTokens
	}
	if cfg.Runtime.ContextTokenBudgetFraction == 0 {
		cfg.Runtime.ContextTokenBudgetFraction = DefaultContextTokenBudgetFraction
	}
	if cfg.Retention.SweepIntervalMinutes == 0 {
		cfg.Retention.SweepIntervalMinutes = DefaultSweepIntervalMinutes
	}
}
