// Package llm is the model adapter: it normalizes content generation, tool
// declarations, and grounded search behind the Client interface so the agent
// runtime never touches provider SDK types.
package llm

import (
	"context"

	"github.com/lexmind-ai/lexmind/pkg/models"
)

// Client is the LLM provider interface consumed by the agent runtime.
type Client interface {
	// Generate sends a full transcript to the model and returns one response.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// ContinueWithToolResults extends the transcript with the assistant's
	// tool-call turn and its results, then generates the next response.
	// The returned request is the extended transcript for further
	// continuation. Continuation is simulated by replaying the full
	// transcript.
	ContinueWithToolResults(ctx context.Context, req *Request, results []ToolResult) (*Request, *Response, error)

	// Close releases provider resources.
	Close() error
}

// Request is one generation call: system block, transcript, tool menu, and
// sampling options.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolDefinition
	Options  Options
}

// Options holds per-call sampling and capability settings.
type Options struct {
	Temperature     *float64
	TopP            *float64
	TopK            *int
	MaxOutputTokens int

	// GroundedSearch enables provider web grounding. Function tools and
	// grounded search are mutually exclusive on Gemini; grounded agents
	// carry no function tools.
	GroundedSearch bool

	// ResponseMIMEType forces structured output, e.g. "application/json".
	ResponseMIMEType string
}

// Transcript roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one transcript entry. Tool results are messages with Role
// "tool" carrying the call correlation ID and response payload.
type Message struct {
	Role    string // "user", "assistant", "tool"
	Content string

	// ToolCalls are set on assistant messages that requested tools.
	ToolCalls []ToolRequest

	// ToolCallID/ToolName/ToolResponse are set on tool result messages.
	ToolCallID   string
	ToolName     string
	ToolResponse map[string]any
}

// ToolDefinition describes one tool offered to the model.
type ToolDefinition struct {
	Name        string
	Description string

	// ParametersSchema is a JSON Schema document.
	ParametersSchema map[string]any
}

// ToolRequest is the model asking for one tool invocation.
type ToolRequest struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult pairs a tool request with its outcome payload.
type ToolResult struct {
	Request  ToolRequest
	Response map[string]any
	IsError  bool
}

// FinishReason tells why generation stopped.
type FinishReason string

const (
	FinishReasonStop   FinishReason = "stop"
	FinishReasonLength FinishReason = "length"
	FinishReasonSafety FinishReason = "safety"
)

// Usage reports token consumption for one call. Advisory only.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the normalized model output.
type Response struct {
	Text         string
	ToolRequests []ToolRequest
	Citations    []models.Citation
	FinishReason FinishReason
	Usage        Usage
}

// WithToolResults returns a copy of the request extended with the
// assistant's tool-call turn and the corresponding tool result messages.
func (r *Request) WithToolResults(results []ToolResult) *Request {
	calls := make([]ToolRequest, 0, len(results))
	for _, res := range results {
		calls = append(calls, res.Request)
	}

	messages := make([]Message, 0, len(r.Messages)+1+len(results))
	messages = append(messages, r.Messages...)
	messages = append(messages, Message{Role: "assistant", ToolCalls: calls})
	for _, res := range results {
		messages = append(messages, Message{
			Role:         "tool",
			ToolCallID:   res.Request.ID,
			ToolName:     res.Request.Name,
			ToolResponse: res.Response,
		})
	}

	return &Request{
		System:   r.System,
		Messages: messages,
		Tools:    r.Tools,
		Options:  r.Options,
	}
}
