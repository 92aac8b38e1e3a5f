package tools

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) Tool {
	return Tool{
		Name:        name,
		Description: "echoes its input",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"value": map[string]any{"type": "string"},
			},
			"required":             []string{"value"},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			return map[string]any{"value": args["value"]}, nil
		},
	}
}

func TestRegistryRegister(t *testing.T) {
	t.Run("duplicate names are rejected", func(t *testing.T) {
		r := NewRegistry(0)
		require.NoError(t, r.Register(echoTool("echo")))
		assert.Error(t, r.Register(echoTool("echo")))
	})

	t.Run("missing handler is rejected", func(t *testing.T) {
		r := NewRegistry(0)
		assert.Error(t, r.Register(Tool{Name: "broken"}))
	})

	t.Run("invalid schema is rejected", func(t *testing.T) {
		r := NewRegistry(0)
		err := r.Register(Tool{
			Name:            "broken",
			ParameterSchema: map[string]any{"type": "not-a-type"},
			Handler: func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
				return nil, nil
			},
		})
		assert.Error(t, err)
	})
}

func TestRegistryDeclarations(t *testing.T) {
	r := NewRegistry(0)
	require.NoError(t, r.Register(echoTool("beta")))
	require.NoError(t, r.Register(echoTool("alpha")))
	require.NoError(t, r.Register(echoTool("gamma")))

	t.Run("requested order is preserved and unknowns skipped", func(t *testing.T) {
		decls := r.Declarations("gamma", "missing", "alpha")
		require.Len(t, decls, 2)
		assert.Equal(t, "gamma", decls[0].Name)
		assert.Equal(t, "alpha", decls[1].Name)
	})

	t.Run("no names returns all sorted", func(t *testing.T) {
		decls := r.Declarations()
		require.Len(t, decls, 3)
		assert.Equal(t, "alpha", decls[0].Name)
		assert.Equal(t, "beta", decls[1].Name)
		assert.Equal(t, "gamma", decls[2].Name)
	})
}

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns the handler value", func(t *testing.T) {
		r := NewRegistry(0)
		require.NoError(t, r.Register(echoTool("echo")))

		out := r.Dispatch(ctx, "echo", map[string]any{"value": "hi"}, ToolContext{})
		require.True(t, out.OK)
		assert.Equal(t, "hi", out.Value["value"])
	})

	t.Run("unknown tool", func(t *testing.T) {
		r := NewRegistry(0)
		out := r.Dispatch(ctx, "nope", nil, ToolContext{})
		require.False(t, out.OK)
		assert.Equal(t, FailureUnknownTool, out.Kind)
	})

	t.Run("schema mismatch skips the handler", func(t *testing.T) {
		r := NewRegistry(0)
		called := false
		tool := echoTool("echo")
		tool.Handler = func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			called = true
			return nil, nil
		}
		require.NoError(t, r.Register(tool))

		out := r.Dispatch(ctx, "echo", map[string]any{"value": 42}, ToolContext{})
		require.False(t, out.OK)
		assert.Equal(t, FailureBadArguments, out.Kind)
		assert.Contains(t, out.Message, "/value")
		assert.False(t, called)
	})

	t.Run("missing required field", func(t *testing.T) {
		r := NewRegistry(0)
		require.NoError(t, r.Register(echoTool("echo")))

		out := r.Dispatch(ctx, "echo", map[string]any{}, ToolContext{})
		require.False(t, out.OK)
		assert.Equal(t, FailureBadArguments, out.Kind)
	})

	t.Run("handler error", func(t *testing.T) {
		r := NewRegistry(0)
		tool := echoTool("echo")
		tool.Handler = func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			return nil, fmt.Errorf("database on fire")
		}
		require.NoError(t, r.Register(tool))

		out := r.Dispatch(ctx, "echo", map[string]any{"value": "x"}, ToolContext{})
		require.False(t, out.OK)
		assert.Equal(t, FailureHandlerError, out.Kind)
		assert.Contains(t, out.Message, "database on fire")
	})

	t.Run("upstream unavailable is its own kind", func(t *testing.T) {
		r := NewRegistry(0)
		tool := echoTool("echo")
		tool.Handler = func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			return nil, fmt.Errorf("%w: s3 unreachable", ErrUpstreamUnavailable)
		}
		require.NoError(t, r.Register(tool))

		out := r.Dispatch(ctx, "echo", map[string]any{"value": "x"}, ToolContext{})
		require.False(t, out.OK)
		assert.Equal(t, FailureUpstreamUnavailable, out.Kind)
	})

	t.Run("hanging handler times out", func(t *testing.T) {
		r := NewRegistry(50 * time.Millisecond)
		tool := echoTool("echo")
		tool.Handler = func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		require.NoError(t, r.Register(tool))

		out := r.Dispatch(ctx, "echo", map[string]any{"value": "x"}, ToolContext{})
		require.False(t, out.OK)
		assert.Equal(t, FailureHandlerTimeout, out.Kind)
	})

	t.Run("caller cancellation is not a timeout", func(t *testing.T) {
		r := NewRegistry(time.Minute)
		tool := echoTool("echo")
		tool.Handler = func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		require.NoError(t, r.Register(tool))

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		out := r.Dispatch(cancelled, "echo", map[string]any{"value": "x"}, ToolContext{})
		require.False(t, out.OK)
		assert.Equal(t, FailureHandlerError, out.Kind)
	})
}

func TestOutcomePayload(t *testing.T) {
	t.Run("success payload is the value", func(t *testing.T) {
		out := Success(map[string]any{"a": 1})
		assert.Equal(t, map[string]any{"a": 1}, out.Payload())
	})

	t.Run("nil success value becomes empty object", func(t *testing.T) {
		assert.Equal(t, map[string]any{}, Success(nil).Payload())
	})

	t.Run("failure payload carries error and kind", func(t *testing.T) {
		out := Failure(FailureBadArguments, "field x missing")
		assert.Equal(t, map[string]any{
			"error": "field x missing",
			"kind":  "bad_arguments",
		}, out.Payload())
	})
}

func TestFailureFromError(t *testing.T) {
	out := failureFromError("t", errors.Join(context.DeadlineExceeded))
	assert.Equal(t, FailureHandlerTimeout, out.Kind)
}
