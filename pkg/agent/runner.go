package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexmind-ai/lexmind/pkg/agent/prompt"
	"github.com/lexmind-ai/lexmind/pkg/llm"
	"github.com/lexmind-ai/lexmind/pkg/models"
	"github.com/lexmind-ai/lexmind/pkg/tools"
)

// FailureKind classifies why an agent turn ended without a normal answer.
type FailureKind string

const (
	FailureNone             FailureKind = ""
	FailureTimeout          FailureKind = "timeout"
	FailureToolLoopExceeded FailureKind = "tool_loop_exceeded"
	FailureModelError       FailureKind = "model_error"
	FailureContextError     FailureKind = "context_error"
)

// TimeoutMessage is what the user sees when an agent turn runs out of time.
const TimeoutMessage = "This request is taking longer than expected. Please try again, or ask for something more specific."

// Recorder receives trace events from the runner.
type Recorder interface {
	Record(agentName string, stage models.Stage, payload map[string]any, durationMs int)
}

// RunInput describes one agent turn.
type RunInput struct {
	Agent            *Definition
	SessionID        string
	TurnID           string
	UserMessage      string
	ActiveContractID string
	Recorder         Recorder
}

// RunResult is the terminal state of one agent turn. Failure is empty when
// the agent produced a normal answer.
type RunResult struct {
	AgentName string
	Content   string
	Citations []models.Citation
	ToolCalls []models.ToolCallSummary
	Failure   FailureKind
	Err       error
}

// OK reports whether the agent reached a normal answer.
func (r *RunResult) OK() bool { return r.Failure == FailureNone }

// Runner drives one agent through its tool loop: model call, tool dispatches,
// continuation, until the model answers without tools or a bound is hit.
type Runner struct {
	client      llm.Client
	registry    *tools.Registry
	builder     *prompt.Builder
	turnTimeout time.Duration
}

// NewRunner creates a Runner. turnTimeout bounds the whole agent turn.
func NewRunner(client llm.Client, registry *tools.Registry, builder *prompt.Builder, turnTimeout time.Duration) *Runner {
	return &Runner{
		client:      client,
		registry:    registry,
		builder:     builder,
		turnTimeout: turnTimeout,
	}
}

// Run executes one agent turn. It always returns a result; failures are data
// for the orchestrator, never panics or transport errors.
func (r *Runner) Run(ctx context.Context, in RunInput) *RunResult {
	runCtx, cancel := context.WithTimeout(ctx, r.turnTimeout)
	defer cancel()

	started := time.Now()
	logger := slog.With("agent", in.Agent.Name, "session_id", in.SessionID, "turn_id", in.TurnID)
	in.Recorder.Record(in.Agent.Name, models.StageAgentStart, map[string]any{
		"purpose": in.Agent.Purpose,
	}, 0)

	system, messages, err := r.builder.Build(runCtx, prompt.Input{
		SessionID:        in.SessionID,
		AgentName:        in.Agent.Name,
		Instructions:     in.Agent.Instructions,
		UserMessage:      in.UserMessage,
		ActiveContractID: in.ActiveContractID,
	})
	if err != nil {
		return r.fail(in, started, FailureContextError, err)
	}

	temperature := in.Agent.Temperature
	req := &llm.Request{
		System:   system,
		Messages: messages,
		Tools:    r.registry.Declarations(in.Agent.Tools...),
		Options: llm.Options{
			Temperature:     &temperature,
			MaxOutputTokens: in.Agent.MaxOutputTokens,
			GroundedSearch:  in.Agent.GroundedSearch,
		},
	}

	tc := tools.ToolContext{
		SessionID:        in.SessionID,
		TurnID:           in.TurnID,
		AgentName:        in.Agent.Name,
		ActiveContractID: in.ActiveContractID,
		Logger:           in.Recorder,
	}

	var summaries []models.ToolCallSummary
	var partial string

	resp, err := r.client.Generate(runCtx, req)
	for iteration := 0; ; iteration++ {
		if err != nil {
			if timedOut(runCtx, err) {
				return r.timeout(in, started, summaries)
			}
			return r.fail(in, started, FailureModelError, err)
		}
		if resp.Text != "" {
			partial = resp.Text
		}

		if len(resp.ToolRequests) == 0 {
			in.Recorder.Record(in.Agent.Name, models.StageAgentOutput, map[string]any{
				"chars":      len(resp.Text),
				"citations":  len(resp.Citations),
				"tool_calls": len(summaries),
			}, int(time.Since(started).Milliseconds()))
			return &RunResult{
				AgentName: in.Agent.Name,
				Content:   resp.Text,
				Citations: resp.Citations,
				ToolCalls: summaries,
			}
		}

		if iteration >= in.Agent.MaxToolIterations {
			logger.Warn("Agent exceeded its tool iteration bound",
				"iterations", iteration, "pending_tools", len(resp.ToolRequests))
			res := r.fail(in, started, FailureToolLoopExceeded,
				fmt.Errorf("agent requested tools after %d iterations", iteration))
			res.Content = partial
			res.ToolCalls = summaries
			return res
		}

		results := make([]llm.ToolResult, 0, len(resp.ToolRequests))
		for _, tr := range resp.ToolRequests {
			if runCtx.Err() != nil {
				return r.timeout(in, started, summaries)
			}

			traced := tr.Name != tools.ThoughtTool
			if traced {
				in.Recorder.Record(in.Agent.Name, models.StageToolCall, map[string]any{
					"tool": tr.Name,
					"args": tr.Arguments,
				}, 0)
			}

			dispatchStart := time.Now()
			out := r.registry.Dispatch(runCtx, tr.Name, tr.Arguments, tc)
			elapsed := int(time.Since(dispatchStart).Milliseconds())

			if traced {
				payload := map[string]any{"tool": tr.Name, "ok": out.OK}
				if !out.OK {
					payload["kind"] = string(out.Kind)
					payload["error"] = out.Message
				}
				in.Recorder.Record(in.Agent.Name, models.StageToolResult, payload, elapsed)
			}
			summaries = append(summaries, models.ToolCallSummary{
				Name:       tr.Name,
				DurationMs: elapsed,
				IsError:    !out.OK,
			})
			results = append(results, llm.ToolResult{
				Request:  tr,
				Response: out.Payload(),
				IsError:  !out.OK,
			})
		}

		req, resp, err = r.client.ContinueWithToolResults(runCtx, req, results)
	}
}

func (r *Runner) timeout(in RunInput, started time.Time, summaries []models.ToolCallSummary) *RunResult {
	slog.Warn("Agent turn timed out",
		"agent", in.Agent.Name, "session_id", in.SessionID, "budget", r.turnTimeout)
	in.Recorder.Record(in.Agent.Name, models.StageError, map[string]any{
		"reason": "timeout",
		"budget": r.turnTimeout.String(),
	}, int(time.Since(started).Milliseconds()))
	return &RunResult{
		AgentName: in.Agent.Name,
		Content:   TimeoutMessage,
		ToolCalls: summaries,
		Failure:   FailureTimeout,
	}
}

func (r *Runner) fail(in RunInput, started time.Time, kind FailureKind, err error) *RunResult {
	slog.Error("Agent turn failed",
		"agent", in.Agent.Name, "session_id", in.SessionID, "kind", string(kind), "error", err)
	in.Recorder.Record(in.Agent.Name, models.StageError, map[string]any{
		"reason": string(kind),
		"error":  err.Error(),
	}, int(time.Since(started).Milliseconds()))
	return &RunResult{AgentName: in.Agent.Name, Failure: kind, Err: err}
}

func timedOut(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
