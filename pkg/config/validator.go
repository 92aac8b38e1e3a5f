package config

import "fmt"

// Validate checks the resolved configuration. All failures are configuration
// errors; the caller aborts startup on the first one.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return NewValidationError("server.port", fmt.Sprintf("must be 1-65535, got %d", cfg.Server.Port))
	}

	switch cfg.Database.Driver {
	case "postgres", "memory":
	default:
		return NewValidationError("database.driver", fmt.Sprintf("must be postgres or memory, got %q", cfg.Database.Driver))
	}

	switch cfg.Blob.Driver {
	case "local":
		if cfg.Blob.LocalDir == "" {
			return NewValidationError("blob.local_dir", "required for the local driver")
		}
	case "s3":
		if cfg.Blob.S3Bucket == "" {
			return NewValidationError("blob.s3_bucket", "required for the s3 driver")
		}
	default:
		return NewValidationError("blob.driver", fmt.Sprintf("must be local or s3, got %q", cfg.Blob.Driver))
	}

	switch cfg.LLM.Backend {
	case "gemini", "vertex":
	default:
		return NewValidationError("llm.backend", fmt.Sprintf("must be gemini or vertex, got %q", cfg.LLM.Backend))
	}
	if cfg.LLM.Model == "" {
		return NewValidationError("llm.model", "required")
	}

	// Grounded search is only available on Vertex. Refusing to start beats
	// agents silently losing their research capability.
	if cfg.LLM.UseGroundedBackend && cfg.LLM.Backend != "vertex" {
		return NewValidationError("llm.use_grounded_backend",
			fmt.Sprintf("requires llm.backend=vertex, got %q", cfg.LLM.Backend))
	}

	r := cfg.Runtime
	if r.MaxToolIterations < 1 {
		return NewValidationError("runtime.max_tool_iterations", "must be at least 1")
	}
	if r.ToolTimeoutSeconds < 1 {
		return NewValidationError("runtime.tool_timeout_seconds", "must be at least 1")
	}
	if r.AgentTurnTimeoutSeconds < 1 {
		return NewValidationError("runtime.agent_turn_timeout_seconds", "must be at least 1")
	}
	if r.RequestTimeoutSeconds < 1 {
		return NewValidationError("runtime.request_timeout_seconds", "must be at least 1")
	}
	if r.RequestTimeoutSeconds < r.AgentTurnTimeoutSeconds {
		return NewValidationError("runtime.request_timeout_seconds",
			"must be at least runtime.agent_turn_timeout_seconds")
	}
	if r.HistoryWindowPairs < 0 {
		return NewValidationError("runtime.history_window_pairs", "must not be negative")
	}
	if r.ContextWindowTokens < 1000 {
		return NewValidationError("runtime.context_window_tokens", "must be at least 1000")
	}
	if r.ContextTokenBudgetFraction <= 0 || r.ContextTokenBudgetFraction > 1 {
		return NewValidationError("runtime.context_token_budget_fraction", "must be in (0, 1]")
	}

	if cfg.Retention.SessionRetentionDays < 0 {
		return NewValidationError("retention.session_retention_days", "must not be negative")
	}
	if cfg.Retention.SweepIntervalMinutes < 1 {
		return NewValidationError("retention.sweep_interval_minutes", "must be at least 1")
	}
	return nil
}
