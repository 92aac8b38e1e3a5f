package models

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Citation is a grounded-search source attached to an assistant message.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
	Start int    `json:"start,omitempty"`
	End   int    `json:"end,omitempty"`
}

// ToolCallSummary is the condensed record of one tool invocation kept on the
// assistant message for display. The full payloads live in the thinking logs.
type ToolCallSummary struct {
	Name       string `json:"name"`
	DurationMs int    `json:"duration_ms"`
	IsError    bool   `json:"is_error,omitempty"`
}

// Message is one turn entry in a session. Immutable once written; ordered by
// CreatedAt with ties broken by ID.
type Message struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	AgentName string            `json:"agent_name,omitempty"`
	Citations []Citation        `json:"citations"`
	ToolCalls []ToolCallSummary `json:"tool_calls_summary"`
	CreatedAt time.Time         `json:"created_at"`
}

// CreateMessageRequest contains fields for creating a message.
type CreateMessageRequest struct {
	SessionID string            `json:"session_id"`
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	AgentName string            `json:"agent_name,omitempty"`
	Citations []Citation        `json:"citations,omitempty"`
	ToolCalls []ToolCallSummary `json:"tool_calls_summary,omitempty"`
}
