package agent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexmind-ai/lexmind/pkg/agent/prompt"
	"github.com/lexmind-ai/lexmind/pkg/config"
	"github.com/lexmind-ai/lexmind/pkg/llm"
	"github.com/lexmind-ai/lexmind/pkg/models"
	"github.com/lexmind-ai/lexmind/pkg/store"
	"github.com/lexmind-ai/lexmind/pkg/tools"
)

type recordedEvent struct {
	agentName string
	stage     models.Stage
	payload   map[string]any
}

type testRecorder struct {
	events []recordedEvent
}

func (r *testRecorder) Record(agentName string, stage models.Stage, payload map[string]any, durationMs int) {
	r.events = append(r.events, recordedEvent{agentName: agentName, stage: stage, payload: payload})
}

func (r *testRecorder) stages() []models.Stage {
	out := make([]models.Stage, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.stage)
	}
	return out
}

func testDefinition() *Definition {
	return &Definition{
		Name:              "TEST_AGENT",
		Instructions:      "You are a test agent.",
		Temperature:       0.4,
		MaxOutputTokens:   1024,
		Tools:             []string{"echo", "log_thought"},
		MaxToolIterations: 2,
	}
}

func newRunnerFixture(t *testing.T, client llm.Client, timeout time.Duration) (*Runner, *tools.Registry) {
	t.Helper()

	s := store.NewMemoryStore()
	registry := tools.NewRegistry(0)
	registry.MustRegister(tools.Tool{
		Name:        "echo",
		Description: "echoes its input",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"value": map[string]any{"type": "string"},
			},
			"required": []string{"value"},
		},
		Handler: func(ctx context.Context, args map[string]any, tc tools.ToolContext) (map[string]any, error) {
			return map[string]any{"value": args["value"]}, nil
		},
	})
	registry.MustRegister(tools.Tool{
		Name:        tools.ThoughtTool,
		Description: "records a reasoning note",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"thought": map[string]any{"type": "string"},
			},
			"required": []string{"thought"},
		},
		Handler: func(ctx context.Context, args map[string]any, tc tools.ToolContext) (map[string]any, error) {
			return map[string]any{"logged": true}, nil
		},
	})

	builder := prompt.NewBuilder(s, config.RuntimeConfig{
		HistoryWindowPairs:         6,
		ContextWindowTokens:        128000,
		ContextTokenBudgetFraction: 0.75,
	})
	return NewRunner(client, registry, builder, timeout), registry
}

func toolRequestResponse(id, name string, args map[string]any) *llm.Response {
	return &llm.Response{
		ToolRequests: []llm.ToolRequest{{ID: id, Name: name, Arguments: args}},
		FinishReason: llm.FinishReasonStop,
	}
}

func TestRunnerDirectAnswer(t *testing.T) {
	client := llm.NewStubClient(&llm.Response{
		Text:         "Hello, how can I help?",
		FinishReason: llm.FinishReasonStop,
	})
	runner, _ := newRunnerFixture(t, client, time.Minute)
	rec := &testRecorder{}

	res := runner.Run(context.Background(), RunInput{
		Agent:       testDefinition(),
		TurnID:      "turn-1",
		UserMessage: "hi",
		Recorder:    rec,
	})

	require.True(t, res.OK())
	assert.Equal(t, "Hello, how can I help?", res.Content)
	assert.Empty(t, res.ToolCalls)
	assert.Equal(t, []models.Stage{models.StageAgentStart, models.StageAgentOutput}, rec.stages())

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].System, "You are a test agent.")
	require.NotNil(t, reqs[0].Options.Temperature)
	assert.Equal(t, 0.4, *reqs[0].Options.Temperature)
	require.Len(t, reqs[0].Tools, 2)
}

func TestRunnerToolLoop(t *testing.T) {
	client := llm.NewStubClient(
		toolRequestResponse("call-1", "echo", map[string]any{"value": "ping"}),
		&llm.Response{Text: "The echo said ping.", FinishReason: llm.FinishReasonStop},
	)
	runner, _ := newRunnerFixture(t, client, time.Minute)
	rec := &testRecorder{}

	res := runner.Run(context.Background(), RunInput{
		Agent:       testDefinition(),
		TurnID:      "turn-1",
		UserMessage: "echo ping",
		Recorder:    rec,
	})

	require.True(t, res.OK())
	assert.Equal(t, "The echo said ping.", res.Content)
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "echo", res.ToolCalls[0].Name)
	assert.False(t, res.ToolCalls[0].IsError)

	assert.Equal(t, []models.Stage{
		models.StageAgentStart,
		models.StageToolCall,
		models.StageToolResult,
		models.StageAgentOutput,
	}, rec.stages())

	// The continuation request replays the transcript with the tool result.
	reqs := client.Requests()
	require.Len(t, reqs, 2)
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Equal(t, "echo", last.ToolName)
	assert.Equal(t, map[string]any{"value": "ping"}, last.ToolResponse)
}

func TestRunnerToolFailureIsRecoverable(t *testing.T) {
	client := llm.NewStubClient(
		toolRequestResponse("call-1", "no_such_tool", map[string]any{}),
		&llm.Response{Text: "I could not use that tool.", FinishReason: llm.FinishReasonStop},
	)
	runner, _ := newRunnerFixture(t, client, time.Minute)
	rec := &testRecorder{}

	res := runner.Run(context.Background(), RunInput{
		Agent:       testDefinition(),
		UserMessage: "do something",
		Recorder:    rec,
	})

	require.True(t, res.OK())
	require.Len(t, res.ToolCalls, 1)
	assert.True(t, res.ToolCalls[0].IsError)

	// The failure went back to the model as a payload, not an abort.
	reqs := client.Requests()
	require.Len(t, reqs, 2)
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	assert.Equal(t, "unknown_tool", last.ToolResponse["kind"])
}

func TestRunnerToolLoopExceeded(t *testing.T) {
	calls := 0
	client := &llm.StubClient{}
	client.GenerateFunc = func(ctx context.Context, req *llm.Request) (*llm.Response, error) {
		calls++
		return &llm.Response{
			Text:         fmt.Sprintf("working, step %d", calls),
			ToolRequests: []llm.ToolRequest{{ID: fmt.Sprint(calls), Name: "echo", Arguments: map[string]any{"value": "x"}}},
		}, nil
	}
	runner, _ := newRunnerFixture(t, client, time.Minute)
	rec := &testRecorder{}

	res := runner.Run(context.Background(), RunInput{
		Agent:       testDefinition(), // MaxToolIterations: 2
		UserMessage: "loop forever",
		Recorder:    rec,
	})

	require.False(t, res.OK())
	assert.Equal(t, FailureToolLoopExceeded, res.Failure)
	// Model calls are bounded by max_tool_iterations + 1.
	assert.Equal(t, 3, calls)
	// Partial content from the last model response survives.
	assert.Equal(t, "working, step 3", res.Content)
	assert.Len(t, res.ToolCalls, 2)
	assert.Equal(t, models.StageError, rec.stages()[len(rec.stages())-1])
}

func TestRunnerModelError(t *testing.T) {
	client := llm.NewStubClient()
	client.Err = fmt.Errorf("backend exploded")
	runner, _ := newRunnerFixture(t, client, time.Minute)
	rec := &testRecorder{}

	res := runner.Run(context.Background(), RunInput{
		Agent:       testDefinition(),
		UserMessage: "hi",
		Recorder:    rec,
	})

	require.False(t, res.OK())
	assert.Equal(t, FailureModelError, res.Failure)
	assert.ErrorContains(t, res.Err, "backend exploded")
	assert.Equal(t, models.StageError, rec.stages()[len(rec.stages())-1])
}

func TestRunnerTimeout(t *testing.T) {
	client := &llm.StubClient{}
	client.GenerateFunc = func(ctx context.Context, req *llm.Request) (*llm.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	runner, _ := newRunnerFixture(t, client, 50*time.Millisecond)
	rec := &testRecorder{}

	res := runner.Run(context.Background(), RunInput{
		Agent:       testDefinition(),
		UserMessage: "hi",
		Recorder:    rec,
	})

	require.False(t, res.OK())
	assert.Equal(t, FailureTimeout, res.Failure)
	assert.Equal(t, TimeoutMessage, res.Content)

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, models.StageError, last.stage)
	assert.Equal(t, "timeout", last.payload["reason"])
}
