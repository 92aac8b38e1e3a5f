package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexmind-ai/lexmind/pkg/models"
	"github.com/lexmind-ai/lexmind/pkg/store"
)

// FailureKind classifies why a dispatch failed.
type FailureKind string

const (
	FailureUnknownTool         FailureKind = "unknown_tool"
	FailureBadArguments        FailureKind = "bad_arguments"
	FailureHandlerError        FailureKind = "handler_error"
	FailureHandlerTimeout      FailureKind = "handler_timeout"
	FailureUpstreamUnavailable FailureKind = "upstream_unavailable"
)

// ErrUpstreamUnavailable marks handler errors caused by an unreachable
// backing service. Wrap it to produce an upstream_unavailable outcome.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Outcome is the result of one dispatch. Failures carry a kind and message;
// they are data, not Go errors, so the tool loop always continues.
type Outcome struct {
	OK      bool
	Value   map[string]any
	Kind    FailureKind
	Message string
}

// Success wraps a handler result. A nil value becomes an empty object.
func Success(value map[string]any) Outcome {
	if value == nil {
		value = map[string]any{}
	}
	return Outcome{OK: true, Value: value}
}

// Failure creates a failed outcome.
func Failure(kind FailureKind, message string) Outcome {
	return Outcome{OK: false, Kind: kind, Message: message}
}

// Payload is what goes back to the model as the tool result.
func (o Outcome) Payload() map[string]any {
	if o.OK {
		return o.Value
	}
	return map[string]any{
		"error": o.Message,
		"kind":  string(o.Kind),
	}
}

func failureFromError(name string, err error) Outcome {
	switch {
	case errors.Is(err, ErrUpstreamUnavailable):
		return Failure(FailureUpstreamUnavailable, fmt.Sprintf("tool %q: %v", name, err))
	case errors.Is(err, context.DeadlineExceeded):
		return Failure(FailureHandlerTimeout, fmt.Sprintf("tool %q timed out: %v", name, err))
	default:
		return Failure(FailureHandlerError, fmt.Sprintf("tool %q: %v", name, err))
	}
}

// ToolContext is the per-turn context passed to every handler.
type ToolContext struct {
	SessionID        string
	TurnID           string
	AgentName        string
	ActiveContractID string

	// Logger receives the agent's own reasoning notes via log_thought.
	Logger ThoughtRecorder
}

// ThoughtRecorder is the trace sink seen by tool handlers. Implemented by
// the thinking logger; kept as an interface so handlers never depend on the
// trace buffer directly.
type ThoughtRecorder interface {
	Record(agentName string, stage models.Stage, payload map[string]any, durationMs int)
}

// storeFailure maps store sentinel errors onto tool failure payloads with
// readable messages.
func storeFailure(err error, what, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s %q not found", what, id)
	}
	return err
}
