// Package tools is the single source of truth for every callable tool the
// model may invoke. The registry validates arguments against each tool's
// JSON Schema before dispatching, bounds handler execution with a timeout,
// and serializes every failure back to the model as a recoverable payload.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lexmind-ai/lexmind/pkg/llm"
)

// DefaultDispatchTimeout bounds a single handler invocation.
const DefaultDispatchTimeout = 20 * time.Second

// Handler executes one validated tool call. Arguments have already passed
// schema validation. Returning an error produces a handler_error outcome
// unless the error maps to a more specific failure kind.
type Handler func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error)

// Tool is one registered tool.
type Tool struct {
	Name            string
	Description     string
	ParameterSchema map[string]any
	Handler         Handler

	// SideEffecting marks tools that write state. Informational; the
	// registry treats all tools the same.
	SideEffecting bool

	compiled *jsonschema.Schema
}

// Registry holds all registered tools. Registration happens at startup;
// dispatch is concurrent.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]*Tool
	timeout time.Duration
}

// NewRegistry creates an empty registry with the given dispatch timeout.
// A zero timeout means DefaultDispatchTimeout.
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	return &Registry{
		tools:   make(map[string]*Tool),
		timeout: timeout,
	}
}

// Register adds a tool, compiling its parameter schema. Duplicate names and
// invalid schemas are programming errors surfaced at startup.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q: handler is required", t.Name)
	}

	compiled, err := compileSchema(t.Name, t.ParameterSchema)
	if err != nil {
		return fmt.Errorf("tool %q: invalid parameter schema: %w", t.Name, err)
	}
	t.compiled = compiled

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	r.tools[t.Name] = &t
	return nil
}

// MustRegister registers a tool and panics on error. For startup wiring
// where a failure means a broken build.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Declarations returns the tool menu for the given names, in the order
// requested, as definitions passed verbatim to the model. Unknown names are
// skipped. With no names it returns every tool sorted by name.
func (r *Registry) Declarations(names ...string) []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(names) == 0 {
		names = make([]string, 0, len(r.tools))
		for name := range r.tools {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	out := make([]llm.ToolDefinition, 0, len(names))
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			continue
		}
		out = append(out, llm.ToolDefinition{
			Name:             t.Name,
			Description:      t.Description,
			ParametersSchema: t.ParameterSchema,
		})
	}
	return out
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Dispatch validates raw arguments and runs the named tool. It never returns
// a Go error: every failure becomes an Outcome the model can recover from.
func (r *Registry) Dispatch(ctx context.Context, name string, rawArgs map[string]any, tc ToolContext) Outcome {
	r.mu.RLock()
	t, ok := r.tools[name]
	timeout := r.timeout
	r.mu.RUnlock()

	if !ok {
		return Failure(FailureUnknownTool, fmt.Sprintf("no tool named %q", name))
	}

	if rawArgs == nil {
		rawArgs = map[string]any{}
	}
	if err := t.compiled.Validate(normalizeArgs(rawArgs)); err != nil {
		return Failure(FailureBadArguments, validationMessage(err))
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value map[string]any
		err   error
	}
	done := make(chan result, 1)
	go func() {
		value, err := t.Handler(runCtx, rawArgs, tc)
		done <- result{value: value, err: err}
	}()

	select {
	case <-runCtx.Done():
		if ctx.Err() != nil {
			// Caller cancellation, not a tool timeout.
			return Failure(FailureHandlerError, fmt.Sprintf("tool %q cancelled: %v", name, ctx.Err()))
		}
		slog.Warn("Tool dispatch timed out", "tool", name, "timeout", timeout)
		return Failure(FailureHandlerTimeout, fmt.Sprintf("tool %q exceeded %s", name, timeout))
	case res := <-done:
		if res.err != nil {
			return failureFromError(name, res.err)
		}
		return Success(res.value)
	}
}

// normalizeArgs round-trips arguments through JSON so numeric types match
// what the schema validator expects.
func normalizeArgs(args map[string]any) any {
	data, err := json.Marshal(args)
	if err != nil {
		return args
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return args
	}
	return out
}

// validationMessage flattens schema validation causes into one field-level
// message.
func validationMessage(err error) string {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}

	leaves := collectLeaves(verr)
	if len(leaves) == 0 {
		return verr.Message
	}
	parts := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		loc := leaf.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", loc, leaf.Message))
	}
	return strings.Join(parts, "; ")
}

func collectLeaves(verr *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(verr.Causes) == 0 {
		return []*jsonschema.ValidationError{verr}
	}
	var leaves []*jsonschema.ValidationError
	for _, cause := range verr.Causes {
		leaves = append(leaves, collectLeaves(cause)...)
	}
	return leaves
}

func compileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	if schema == nil {
		schema = map[string]any{"type": "object"}
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	url := fmt.Sprintf("inmem://tools/%s.json", name)
	if err := compiler.AddResource(url, strings.NewReader(string(data))); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}
