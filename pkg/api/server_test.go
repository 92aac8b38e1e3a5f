package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexmind-ai/lexmind/pkg/agent"
	"github.com/lexmind-ai/lexmind/pkg/agent/prompt"
	"github.com/lexmind-ai/lexmind/pkg/blob"
	"github.com/lexmind-ai/lexmind/pkg/classifier"
	"github.com/lexmind-ai/lexmind/pkg/config"
	"github.com/lexmind-ai/lexmind/pkg/docs"
	"github.com/lexmind-ai/lexmind/pkg/llm"
	"github.com/lexmind-ai/lexmind/pkg/models"
	"github.com/lexmind-ai/lexmind/pkg/orchestrator"
	"github.com/lexmind-ai/lexmind/pkg/store"
	"github.com/lexmind-ai/lexmind/pkg/tools"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiFixture struct {
	store  *store.MemoryStore
	blobs  blob.Store
	client *llm.StubClient
	router *gin.Engine
}

func newAPIFixture(t *testing.T, responses ...*llm.Response) *apiFixture {
	t.Helper()

	s := store.NewMemoryStore()
	blobs, err := blob.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	client := llm.NewStubClient(responses...)

	builder := prompt.NewBuilder(s, config.RuntimeConfig{
		HistoryWindowPairs:         6,
		ContextWindowTokens:        128000,
		ContextTokenBudgetFraction: 0.75,
	})
	catalog := agent.NewCatalog(6)
	runner := agent.NewRunner(client, tools.NewRegistry(0), builder, time.Minute)
	orch := orchestrator.New(s, catalog, classifier.New(nil), runner, nil, 5*time.Second)

	server := NewServer(s, blobs, orch, catalog, docs.NewExtractor(1))
	return &apiFixture{store: s, blobs: blobs, client: client, router: server.Routes()}
}

func (f *apiFixture) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/contracts", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestChatEndpoint(t *testing.T) {
	t.Run("successful turn", func(t *testing.T) {
		f := newAPIFixture(t, &llm.Response{Text: "Hello, how can I help?", FinishReason: llm.FinishReasonStop})

		rec, body := f.do(t, jsonRequest(t, http.MethodPost, "/api/chat", ChatRequest{Message: "hello!"}))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Hello, how can I help?", body["message"])
		assert.Equal(t, agent.Assistant, body["agent_id"])
		assert.NotEmpty(t, body["session_id"])
	})

	t.Run("empty message", func(t *testing.T) {
		f := newAPIFixture(t)

		rec, body := f.do(t, jsonRequest(t, http.MethodPost, "/api/chat", ChatRequest{Message: "   "}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "invalid_request", body["error"])
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newAPIFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rec, body := f.do(t, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", body["error"])
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newAPIFixture(t)

		rec, body := f.do(t, jsonRequest(t, http.MethodPost, "/api/chat",
			ChatRequest{Message: "hello!", SessionID: "missing"}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", body["error"])
	})
}

func TestContractUpload(t *testing.T) {
	ctx := context.Background()
	contractText := []byte("1. Definitions. Capitalized terms shall mean what this section says.")

	t.Run("text upload parses to ready", func(t *testing.T) {
		f := newAPIFixture(t)

		rec, body := f.do(t, uploadRequest(t, "msa.txt", contractText, map[string]string{
			"title":         "Master Services Agreement",
			"contract_type": "services",
			"parties":       `[{"name": "Acme Corp", "role": "customer"}, {"name": "Globex LLC", "role": "vendor"}]`,
			"notes":         "uploaded during onboarding",
		}))
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, string(models.ContractStatusParsing), body["status"])
		contractID, _ := body["contract_id"].(string)
		require.NotEmpty(t, contractID)

		require.Eventually(t, func() bool {
			contract, err := f.store.GetContract(ctx, contractID)
			return err == nil && contract.Status == models.ContractStatusReady
		}, 2*time.Second, 10*time.Millisecond)

		contract, err := f.store.GetContract(ctx, contractID)
		require.NoError(t, err)
		assert.Equal(t, "Master Services Agreement", contract.Title)
		assert.Equal(t, "services", contract.ContractType)
		assert.Equal(t, []string{"Acme Corp", "Globex LLC"}, models.PartyNames(contract.Parties))
		assert.Equal(t, "uploaded during onboarding", contract.Notes)

		stored, err := f.blobs.Get(ctx, contract.FileURI)
		require.NoError(t, err)
		assert.Equal(t, contractText, stored)
	})

	t.Run("title defaults to the filename", func(t *testing.T) {
		f := newAPIFixture(t)

		rec, body := f.do(t, uploadRequest(t, "employment-agreement.txt", contractText, nil))
		require.Equal(t, http.StatusAccepted, rec.Code)

		contract, err := f.store.GetContract(ctx, body["contract_id"].(string))
		require.NoError(t, err)
		assert.Equal(t, "employment-agreement", contract.Title)
	})

	t.Run("unparseable pdf ends up failed", func(t *testing.T) {
		f := newAPIFixture(t)

		rec, body := f.do(t, uploadRequest(t, "broken.pdf", []byte("not a real pdf"), nil))
		require.Equal(t, http.StatusAccepted, rec.Code)
		contractID := body["contract_id"].(string)

		require.Eventually(t, func() bool {
			contract, err := f.store.GetContract(ctx, contractID)
			return err == nil && contract.Status == models.ContractStatusFailed
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		f := newAPIFixture(t)

		rec, body := f.do(t, uploadRequest(t, "contract.exe", contractText, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", body["error"])
	})

	t.Run("malformed parties", func(t *testing.T) {
		f := newAPIFixture(t)

		rec, body := f.do(t, uploadRequest(t, "msa.txt", contractText, map[string]string{
			"parties": "Acme and Globex",
		}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", body["error"])
	})

	t.Run("missing file", func(t *testing.T) {
		f := newAPIFixture(t)

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		require.NoError(t, w.WriteField("title", "no file"))
		require.NoError(t, w.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/contracts", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())

		rec, body := f.do(t, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", body["error"])
	})

	t.Run("unknown contract lookup", func(t *testing.T) {
		f := newAPIFixture(t)

		rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/contracts/missing", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", body["error"])
	})
}

func TestSessionEndpoints(t *testing.T) {
	ctx := context.Background()
	f := newAPIFixture(t)

	session, err := f.store.CreateSession(ctx)
	require.NoError(t, err)
	_, err = f.store.CreateMessage(ctx, models.CreateMessageRequest{
		SessionID: session.ID, Role: models.RoleUser, Content: "what does clause 4 mean?",
	})
	require.NoError(t, err)
	_, err = f.store.CreateMessage(ctx, models.CreateMessageRequest{
		SessionID: session.ID, Role: models.RoleAssistant, Content: "Clause 4 covers termination.",
		AgentName: agent.Assistant,
	})
	require.NoError(t, err)
	require.NoError(t, f.store.AppendThinkingLogs(ctx, []models.CreateThinkingLogRequest{
		{SessionID: session.ID, TurnID: "turn-1", Sequence: 1, Stage: models.StageClassify,
			Payload: map[string]any{"query_type": "general_question"}},
	}))
	_, err = f.store.CreateDocument(ctx, models.CreateDocumentRequest{
		SessionID: session.ID, Kind: models.DocumentKindMemo, FileURI: "file:///documents/memo.docx",
	})
	require.NoError(t, err)

	t.Run("list sessions", func(t *testing.T) {
		rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, body["sessions"], 1)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions?limit=many", nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", body["error"])
	})

	t.Run("get session", func(t *testing.T) {
		rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+session.ID, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, session.ID, body["id"])
		assert.Equal(t, float64(2), body["message_count"])
	})

	t.Run("unknown session", func(t *testing.T) {
		rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", body["error"])
	})

	t.Run("list messages", func(t *testing.T) {
		rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+session.ID+"/messages", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		msgs, ok := body["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 2)
		first := msgs[0].(map[string]any)
		assert.Equal(t, string(models.RoleUser), first["role"])
	})

	t.Run("list thinking logs", func(t *testing.T) {
		rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+session.ID+"/thinking-logs", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		logs, ok := body["thinking_logs"].([]any)
		require.True(t, ok)
		require.Len(t, logs, 1)
		assert.Equal(t, string(models.StageClassify), logs[0].(map[string]any)["stage"])
	})

	t.Run("thinking logs filtered by turn", func(t *testing.T) {
		rec, body := f.do(t, httptest.NewRequest(http.MethodGet,
			"/api/sessions/"+session.ID+"/thinking-logs?turn_id=other-turn", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, body["thinking_logs"])
	})

	t.Run("list documents", func(t *testing.T) {
		rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+session.ID+"/documents", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		documents, ok := body["documents"].([]any)
		require.True(t, ok)
		require.Len(t, documents, 1)
	})
}

func TestAgentEndpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("list agents", func(t *testing.T) {
		f := newAPIFixture(t)

		rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/agents", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		agents, ok := body["agents"].([]any)
		require.True(t, ok)
		require.Len(t, agents, 6)
		first := agents[0].(map[string]any)
		assert.Equal(t, agent.Assistant, first["name"])
		assert.NotContains(t, first, "instructions")
	})

	t.Run("stats aggregate the session trace", func(t *testing.T) {
		f := newAPIFixture(t)
		session, err := f.store.CreateSession(ctx)
		require.NoError(t, err)
		require.NoError(t, f.store.AppendThinkingLogs(ctx, []models.CreateThinkingLogRequest{
			{SessionID: session.ID, TurnID: "t1", Sequence: 1, Stage: models.StageClassify},
			{SessionID: session.ID, TurnID: "t1", Sequence: 2, AgentName: agent.ContractParser, Stage: models.StageAgentStart},
			{SessionID: session.ID, TurnID: "t1", Sequence: 3, AgentName: agent.ContractParser, Stage: models.StageToolCall},
			{SessionID: session.ID, TurnID: "t1", Sequence: 4, AgentName: agent.ContractParser, Stage: models.StageToolResult},
			{SessionID: session.ID, TurnID: "t1", Sequence: 5, AgentName: agent.ContractParser, Stage: models.StageAgentOutput, DurationMs: 1200},
			{SessionID: session.ID, TurnID: "t2", Sequence: 1, AgentName: agent.ContractParser, Stage: models.StageAgentStart},
			{SessionID: session.ID, TurnID: "t2", Sequence: 2, AgentName: agent.ContractParser, Stage: models.StageAgentOutput, DurationMs: 800},
			{SessionID: session.ID, TurnID: "t2", Sequence: 3, AgentName: agent.RiskAssessor, Stage: models.StageAgentStart},
			{SessionID: session.ID, TurnID: "t2", Sequence: 4, AgentName: agent.RiskAssessor, Stage: models.StageError},
		}))

		rec, body := f.do(t, httptest.NewRequest(http.MethodGet,
			"/api/agents/stats?session_id="+session.ID, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		agents, ok := body["agents"].([]any)
		require.True(t, ok)
		require.Len(t, agents, 2)

		parser := agents[0].(map[string]any)
		assert.Equal(t, agent.ContractParser, parser["agent"])
		assert.Equal(t, float64(2), parser["runs"])
		assert.Equal(t, float64(1), parser["tool_calls"])
		assert.Equal(t, float64(0), parser["errors"])
		assert.Equal(t, float64(1000), parser["avg_run_ms"])

		risk := agents[1].(map[string]any)
		assert.Equal(t, agent.RiskAssessor, risk["agent"])
		assert.Equal(t, float64(1), risk["runs"])
		assert.Equal(t, float64(1), risk["errors"])
	})

	t.Run("stats require a session", func(t *testing.T) {
		f := newAPIFixture(t)

		rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/agents/stats", nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", body["error"])

		rec, body = f.do(t, httptest.NewRequest(http.MethodGet, "/api/agents/stats?session_id=missing", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", body["error"])
	})
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)

	rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
}
