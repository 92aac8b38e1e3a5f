package tools

import (
	"context"
	"fmt"

	"github.com/lexmind-ai/lexmind/pkg/models"
)

// ThoughtTool writes to the thinking log directly. The agent runner must not
// emit its own tool_call/tool_result events for it, or the trace would record
// the same call twice.
const ThoughtTool = "log_thought"

func registerLoggingTools(r *Registry, b Backends) error {
	return r.Register(Tool{
		Name: ThoughtTool,
		Description: "Record an internal reasoning note in the session's thinking " +
			"log. Not shown to the user; use for intermediate conclusions worth tracing.",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"thought": map[string]any{
					"type":      "string",
					"minLength": 1,
				},
				"payload": map[string]any{
					"type":        "object",
					"description": "Optional structured detail attached to the note.",
				},
			},
			"required":             []string{"thought"},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			if tc.Logger == nil {
				return nil, fmt.Errorf("no thinking log attached to this turn")
			}
			call := map[string]any{
				"tool":    ThoughtTool,
				"thought": stringArg(args, "thought"),
			}
			if detail := objectArg(args, "payload"); len(detail) > 0 {
				call["detail"] = detail
			}
			tc.Logger.Record(tc.AgentName, models.StageToolCall, call, 0)
			tc.Logger.Record(tc.AgentName, models.StageToolResult, map[string]any{
				"tool":   ThoughtTool,
				"logged": true,
			}, 0)
			return map[string]any{"logged": true}, nil
		},
	})
}
