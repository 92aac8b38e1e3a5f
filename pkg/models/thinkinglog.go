package models

import "time"

// Stage identifies what a thinking-log entry records.
type Stage string

const (
	StageClassify    Stage = "classify"
	StageAgentStart  Stage = "agent_start"
	StageToolCall    Stage = "tool_call"
	StageToolResult  Stage = "tool_result"
	StageAgentOutput Stage = "agent_output"
	StageError       Stage = "error"
)

// ThinkingLog is one append-only trace record inside a turn. Sequence is
// strictly increasing within a turn, starting at 1.
type ThinkingLog struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"session_id"`
	TurnID     string         `json:"turn_id"`
	Sequence   int            `json:"sequence"`
	AgentName  string         `json:"agent_name"`
	Stage      Stage          `json:"stage"`
	Payload    map[string]any `json:"payload"`
	DurationMs int            `json:"duration_ms"`
	CreatedAt  time.Time      `json:"created_at"`
}

// CreateThinkingLogRequest contains fields for persisting one trace record.
type CreateThinkingLogRequest struct {
	SessionID  string         `json:"session_id"`
	TurnID     string         `json:"turn_id"`
	Sequence   int            `json:"sequence"`
	AgentName  string         `json:"agent_name"`
	Stage      Stage          `json:"stage"`
	Payload    map[string]any `json:"payload,omitempty"`
	DurationMs int            `json:"duration_ms"`
}
