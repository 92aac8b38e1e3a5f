// Package orchestrator drives one chat turn end to end: session resolution,
// classification, the sequential agent pipeline, citation merging, and
// persistence. It never raises agent failures to the transport; every turn
// produces a structured response.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lexmind-ai/lexmind/pkg/agent"
	"github.com/lexmind-ai/lexmind/pkg/classifier"
	"github.com/lexmind-ai/lexmind/pkg/metrics"
	"github.com/lexmind-ai/lexmind/pkg/models"
	"github.com/lexmind-ai/lexmind/pkg/store"
	"github.com/lexmind-ai/lexmind/pkg/trace"
)

// ErrInvalidRequest marks requests the transport should reject with 400.
var ErrInvalidRequest = errors.New("invalid request")

// MaxMessageChars caps the user message length.
const MaxMessageChars = 8000

// titleMaxChars caps the auto-generated session title.
const titleMaxChars = 80

// errPipelineAborted marks turns cut short by a failed prerequisite agent.
const errPipelineAborted = "pipeline_aborted"

// Request is one incoming chat turn.
type Request struct {
	Message    string
	SessionID  string
	ContractID string
}

// Response is the structured result of a turn. Message is the user-facing
// text field; that name is part of the wire contract.
type Response struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Agent     string            `json:"agent"`
	AgentID   string            `json:"agent_id"`
	Citations []models.Citation `json:"citations"`
	ToolsUsed []string          `json:"tools_used"`
	SessionID string            `json:"session_id"`
	Error     string            `json:"error,omitempty"`

	// toolSummaries backs the persisted assistant message; not serialized.
	toolSummaries []models.ToolCallSummary
	// timedOut distinguishes graceful timeouts in metrics.
	timedOut bool
}

// Orchestrator coordinates one turn at a time per session.
type Orchestrator struct {
	store          store.Store
	catalog        *agent.Catalog
	classifier     *classifier.Classifier
	runner         *agent.Runner
	metrics        *metrics.Metrics
	requestTimeout time.Duration
	locks          *sessionLocks
}

// New creates an Orchestrator. metrics may be nil.
func New(s store.Store, catalog *agent.Catalog, cls *classifier.Classifier, runner *agent.Runner, m *metrics.Metrics, requestTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		store:          s,
		catalog:        catalog,
		classifier:     cls,
		runner:         runner,
		metrics:        m,
		requestTimeout: requestTimeout,
		locks:          newSessionLocks(),
	}
}

// HandleTurn runs one chat turn. A returned error means the request itself
// was unusable; agent failures come back inside the Response.
func (o *Orchestrator) HandleTurn(ctx context.Context, req Request) (*Response, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}
	if utf8.RuneCountInString(req.Message) > MaxMessageChars {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidRequest, MaxMessageChars)
	}

	ctx, cancel := context.WithTimeout(ctx, o.requestTimeout)
	defer cancel()
	started := time.Now()

	session, err := o.resolveSession(ctx, req)
	if err != nil {
		return nil, err
	}

	release := o.locks.acquire(session.ID)
	defer release()

	// Re-read under the lock; a concurrent turn may have moved the session.
	session, err = o.store.GetSession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload session: %w", err)
	}
	session, err = o.prepareSession(ctx, session, req, message)
	if err != nil {
		return nil, err
	}

	// The user message lands before any agent runs so a crash mid-turn
	// leaves the conversation recoverable.
	if _, err := o.store.CreateMessage(ctx, models.CreateMessageRequest{
		SessionID: session.ID,
		Role:      models.RoleUser,
		Content:   req.Message,
	}); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	turnID := store.NewID()
	tracer := trace.NewLogger(o.store, session.ID, turnID)
	defer tracer.Flush(context.WithoutCancel(ctx))

	snap, err := o.snapshot(ctx, session)
	if err != nil {
		return nil, err
	}
	decision := o.classifier.Classify(ctx, message, snap)
	tracer.Record("", models.StageClassify, map[string]any{
		"query_type": string(decision.QueryType),
		"pipeline":   decision.Pipeline,
		"source":     decision.Source,
	}, 0)
	slog.Info("Classified turn",
		"session_id", session.ID,
		"turn_id", turnID,
		"query_type", decision.QueryType,
		"pipeline", decision.Pipeline)

	resp := o.runPipeline(ctx, session, req.Message, turnID, decision, tracer)
	resp.SessionID = session.ID

	if _, err := o.store.CreateMessage(ctx, models.CreateMessageRequest{
		SessionID: session.ID,
		Role:      models.RoleAssistant,
		Content:   resp.Message,
		AgentName: resp.AgentID,
		Citations: resp.Citations,
		ToolCalls: resp.toolSummaries,
	}); err != nil {
		return nil, fmt.Errorf("failed to persist assistant message: %w", err)
	}

	status := "success"
	if !resp.Success {
		status = "error"
	} else if resp.timedOut {
		status = "timeout"
	}
	o.metrics.ObserveTurn(string(decision.QueryType), status, time.Since(started).Seconds())
	return resp, nil
}

// resolveSession loads the session named by the request or creates a new one.
func (o *Orchestrator) resolveSession(ctx context.Context, req Request) (*models.Session, error) {
	if req.SessionID == "" {
		session, err := o.store.CreateSession(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		return session, nil
	}
	session, err := o.store.GetSession(ctx, req.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: session %q not found", ErrInvalidRequest, req.SessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

// prepareSession attaches the requested contract and titles brand-new
// sessions from their first message.
func (o *Orchestrator) prepareSession(ctx context.Context, session *models.Session, req Request, message string) (*models.Session, error) {
	var update models.UpdateSessionRequest

	if req.ContractID != "" {
		if _, err := o.store.GetContract(ctx, req.ContractID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: contract %q not found", ErrInvalidRequest, req.ContractID)
			}
			return nil, fmt.Errorf("failed to load contract: %w", err)
		}
		contractID := req.ContractID
		update.ActiveContractID = &contractID
	}

	if session.Title == nil && session.MessageCount == 0 {
		title := models.TruncateChars(message, titleMaxChars)
		update.Title = &title
	}

	if update.Title == nil && update.ActiveContractID == nil {
		return session, nil
	}
	updated, err := o.store.UpdateSession(ctx, session.ID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return updated, nil
}

func (o *Orchestrator) snapshot(ctx context.Context, session *models.Session) (classifier.Snapshot, error) {
	snap := classifier.Snapshot{MessageCount: session.MessageCount}
	if session.ActiveContractID == nil {
		return snap, nil
	}

	snap.HasActiveContract = true
	clauses, err := o.store.ListClauses(ctx, *session.ActiveContractID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return snap, fmt.Errorf("failed to inspect contract clauses: %w", err)
	}
	snap.ClausesExtracted = len(clauses) > 0
	return snap, nil
}

// runPipeline executes the agents in order and folds their outputs into one
// response. Every path through here yields a user-facing message.
func (o *Orchestrator) runPipeline(ctx context.Context, session *models.Session, userMessage, turnID string, decision *classifier.Result, tracer *trace.Logger) *Response {
	activeContractID := ""
	if session.ActiveContractID != nil {
		activeContractID = *session.ActiveContractID
	}

	var results []*agent.RunResult
	timedOut := false

	for i, name := range decision.Pipeline {
		def, err := o.catalog.Get(name)
		if err != nil {
			slog.Error("Classifier produced an unknown agent", "agent", name, "error", err)
			continue
		}

		agentStart := time.Now()
		res := o.runner.Run(ctx, agent.RunInput{
			Agent:            def,
			SessionID:        session.ID,
			TurnID:           turnID,
			UserMessage:      userMessage,
			ActiveContractID: activeContractID,
			Recorder:         tracer,
		})
		o.observeAgentRun(def.Name, res, time.Since(agentStart).Seconds())
		results = append(results, res)

		if res.OK() {
			continue
		}
		if res.Failure == agent.FailureTimeout {
			// The polite timeout message becomes the answer; nothing
			// after a timed-out agent is worth starting.
			timedOut = true
			break
		}
		if len(decision.Pipeline) == 1 {
			// A lone agent's failure is the answer.
			return o.failureResponse(def, res, results, string(res.Failure))
		}
		if remaining := len(decision.Pipeline) - i - 1; def.Name == agent.ContractParser && remaining > 0 {
			// A failed parser starves every later agent of clauses.
			return o.failureResponse(def, res, results, errPipelineAborted)
		}
		slog.Warn("Agent failed mid-pipeline, continuing",
			"agent", def.Name, "kind", string(res.Failure), "session_id", session.ID)
	}

	return o.successResponse(results, timedOut)
}

func (o *Orchestrator) observeAgentRun(name string, res *agent.RunResult, seconds float64) {
	status := "success"
	if !res.OK() {
		status = string(res.Failure)
	}
	o.metrics.ObserveAgentRun(name, status, seconds)
}

// successResponse picks the final content and merges citations and tool
// usage across the pipeline.
func (o *Orchestrator) successResponse(results []*agent.RunResult, timedOut bool) *Response {
	final := pickFinal(results)
	if final == nil {
		return &Response{
			Success: false,
			Message: "I was unable to process that request. Please try rephrasing it.",
			Error:   "pipeline_empty",
		}
	}

	resp := &Response{
		Success:       true,
		Message:       final.Content,
		AgentID:       final.AgentName,
		Citations:     mergeCitations(results),
		ToolsUsed:     mergeToolNames(results),
		toolSummaries: mergeToolSummaries(results),
		timedOut:      timedOut,
	}
	if def, err := o.catalog.Get(final.AgentName); err == nil {
		resp.Agent = def.DisplayName
	}
	return resp
}

func (o *Orchestrator) failureResponse(def *agent.Definition, failed *agent.RunResult, results []*agent.RunResult, kind string) *Response {
	message := failed.Content
	if message == "" {
		message = "I ran into a problem while working on that. Please try again."
	}
	return &Response{
		Success:       false,
		Message:       message,
		Agent:         def.DisplayName,
		AgentID:       def.Name,
		Citations:     mergeCitations(results),
		ToolsUsed:     mergeToolNames(results),
		toolSummaries: mergeToolSummaries(results),
		Error:         kind,
	}
}

// pickFinal selects the turn's answer: the designated synthesizer when it
// produced one, otherwise the last agent that answered.
func pickFinal(results []*agent.RunResult) *agent.RunResult {
	var last *agent.RunResult
	for _, res := range results {
		if res.Content == "" {
			continue
		}
		if res.AgentName == agent.LegalMemo && res.OK() {
			return res
		}
		last = res
	}
	return last
}

// mergeCitations deduplicates by URI, keeping first-appearance order.
func mergeCitations(results []*agent.RunResult) []models.Citation {
	seen := make(map[string]bool)
	out := []models.Citation{}
	for _, res := range results {
		for _, c := range res.Citations {
			if c.URI == "" || seen[c.URI] {
				continue
			}
			seen[c.URI] = true
			out = append(out, c)
		}
	}
	return out
}

func mergeToolNames(results []*agent.RunResult) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, res := range results {
		for _, tc := range res.ToolCalls {
			if seen[tc.Name] {
				continue
			}
			seen[tc.Name] = true
			out = append(out, tc.Name)
		}
	}
	return out
}

func mergeToolSummaries(results []*agent.RunResult) []models.ToolCallSummary {
	var out []models.ToolCallSummary
	for _, res := range results {
		out = append(out, res.ToolCalls...)
	}
	return out
}
