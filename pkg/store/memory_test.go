package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/lexmind-ai/lexmind/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Sessions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	t.Run("creates session with defaults", func(t *testing.T) {
		sess, err := s.CreateSession(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, sess.ID)
		assert.Nil(t, sess.Title)
		assert.Nil(t, sess.ActiveContractID)
		assert.Equal(t, 0, sess.MessageCount)
		assert.False(t, sess.CreatedAt.IsZero())
	})

	t.Run("get returns a copy", func(t *testing.T) {
		sess, err := s.CreateSession(ctx)
		require.NoError(t, err)

		got, err := s.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		title := "mutated"
		got.Title = &title

		again, err := s.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Nil(t, again.Title)
	})

	t.Run("get unknown session returns not found", func(t *testing.T) {
		_, err := s.GetSession(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update sets only provided fields", func(t *testing.T) {
		sess, err := s.CreateSession(ctx)
		require.NoError(t, err)

		title := "NDA review"
		updated, err := s.UpdateSession(ctx, sess.ID, models.UpdateSessionRequest{Title: &title})
		require.NoError(t, err)
		require.NotNil(t, updated.Title)
		assert.Equal(t, "NDA review", *updated.Title)
		assert.Nil(t, updated.ActiveContractID)

		contractID := "contract-1"
		updated, err = s.UpdateSession(ctx, sess.ID, models.UpdateSessionRequest{ActiveContractID: &contractID})
		require.NoError(t, err)
		require.NotNil(t, updated.Title)
		assert.Equal(t, "NDA review", *updated.Title)
		require.NotNil(t, updated.ActiveContractID)
		assert.Equal(t, "contract-1", *updated.ActiveContractID)
	})

	t.Run("delete cascades to messages and logs", func(t *testing.T) {
		sess, err := s.CreateSession(ctx)
		require.NoError(t, err)

		_, err = s.CreateMessage(ctx, models.CreateMessageRequest{
			SessionID: sess.ID, Role: models.RoleUser, Content: "hello",
		})
		require.NoError(t, err)
		require.NoError(t, s.AppendThinkingLogs(ctx, []models.CreateThinkingLogRequest{
			{SessionID: sess.ID, TurnID: "turn-1", Sequence: 1, Stage: models.StageClassify},
		}))

		require.NoError(t, s.DeleteSession(ctx, sess.ID))

		_, err = s.GetSession(ctx, sess.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		msgs, err := s.ListMessages(ctx, sess.ID, 0, "")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, msgs)
	})

	t.Run("list orders newest first and paginates", func(t *testing.T) {
		fresh := NewMemoryStore()
		var ids []string
		for i := 0; i < 5; i++ {
			sess, err := fresh.CreateSession(ctx)
			require.NoError(t, err)
			ids = append(ids, sess.ID)
		}

		sessions, err := fresh.ListSessions(ctx, models.SessionFilters{Limit: 2})
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, ids[4], sessions[0].ID)
		assert.Equal(t, ids[3], sessions[1].ID)

		sessions, err = fresh.ListSessions(ctx, models.SessionFilters{Limit: 2, Offset: 4})
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, ids[0], sessions[0].ID)
	})
}

func TestMemoryStore_Messages(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	sess, err := s.CreateSession(ctx)
	require.NoError(t, err)

	t.Run("create bumps session message count", func(t *testing.T) {
		msg, err := s.CreateMessage(ctx, models.CreateMessageRequest{
			SessionID: sess.ID,
			Role:      models.RoleUser,
			Content:   "What does the indemnification clause mean?",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, msg.ID)
		assert.NotNil(t, msg.Citations)
		assert.NotNil(t, msg.ToolCalls)

		got, err := s.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.MessageCount)
	})

	t.Run("create for unknown session fails", func(t *testing.T) {
		_, err := s.CreateMessage(ctx, models.CreateMessageRequest{
			SessionID: "missing", Role: models.RoleUser, Content: "hi",
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list returns oldest first with limit keeping most recent", func(t *testing.T) {
		fresh := NewMemoryStore()
		sess, err := fresh.CreateSession(ctx)
		require.NoError(t, err)

		for i := 0; i < 4; i++ {
			_, err := fresh.CreateMessage(ctx, models.CreateMessageRequest{
				SessionID: sess.ID,
				Role:      models.RoleUser,
				Content:   fmt.Sprintf("message %d", i),
			})
			require.NoError(t, err)
		}

		msgs, err := fresh.ListMessages(ctx, sess.ID, 0, "")
		require.NoError(t, err)
		require.Len(t, msgs, 4)
		assert.Equal(t, "message 0", msgs[0].Content)
		assert.Equal(t, "message 3", msgs[3].Content)

		msgs, err = fresh.ListMessages(ctx, sess.ID, 2, "")
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "message 2", msgs[0].Content)
		assert.Equal(t, "message 3", msgs[1].Content)
	})

	t.Run("before cursor excludes newer messages", func(t *testing.T) {
		fresh := NewMemoryStore()
		sess, err := fresh.CreateSession(ctx)
		require.NoError(t, err)

		var ids []string
		for i := 0; i < 3; i++ {
			msg, err := fresh.CreateMessage(ctx, models.CreateMessageRequest{
				SessionID: sess.ID,
				Role:      models.RoleUser,
				Content:   fmt.Sprintf("message %d", i),
			})
			require.NoError(t, err)
			ids = append(ids, msg.ID)
		}

		msgs, err := fresh.ListMessages(ctx, sess.ID, 0, ids[2])
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, ids[0], msgs[0].ID)
		assert.Equal(t, ids[1], msgs[1].ID)
	})
}

func TestMemoryStore_Contracts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	t.Run("create sets lifecycle defaults", func(t *testing.T) {
		c, err := s.CreateContract(ctx, models.CreateContractRequest{
			Title:   "Master Services Agreement",
			FileURI: "local://contracts/msa.pdf",
			Parties: []models.Party{{Name: "Acme Corp", Role: "vendor"}},
		})
		require.NoError(t, err)
		assert.Equal(t, models.ContractStatusUploaded, c.Status)
		assert.Equal(t, models.ComplianceUnknown, c.ComplianceStatus)
		assert.Nil(t, c.OverallRiskScore)
		assert.Equal(t, []string{"Acme Corp"}, models.PartyNames(c.Parties))
	})

	t.Run("update leaves nil fields unchanged", func(t *testing.T) {
		c, err := s.CreateContract(ctx, models.CreateContractRequest{
			Title: "NDA", FileURI: "local://contracts/nda.pdf",
		})
		require.NoError(t, err)

		status := models.ContractStatusReady
		score := 42.5
		updated, err := s.UpdateContract(ctx, c.ID, models.UpdateContractRequest{
			Status:           &status,
			OverallRiskScore: &score,
		})
		require.NoError(t, err)
		assert.Equal(t, "NDA", updated.Title)
		assert.Equal(t, models.ContractStatusReady, updated.Status)
		require.NotNil(t, updated.OverallRiskScore)
		assert.Equal(t, 42.5, *updated.OverallRiskScore)
		assert.Equal(t, models.ComplianceUnknown, updated.ComplianceStatus)
	})

	t.Run("search matches title substring case-insensitively", func(t *testing.T) {
		fresh := NewMemoryStore()
		_, err := fresh.CreateContract(ctx, models.CreateContractRequest{
			Title: "Software License Agreement", ContractType: "license", FileURI: "local://a",
		})
		require.NoError(t, err)
		_, err = fresh.CreateContract(ctx, models.CreateContractRequest{
			Title: "Employment Agreement", ContractType: "employment", FileURI: "local://b",
		})
		require.NoError(t, err)

		results, err := fresh.SearchContracts(ctx, models.ContractFilters{Query: "license"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Software License Agreement", results[0].Title)

		results, err = fresh.SearchContracts(ctx, models.ContractFilters{ContractType: "employment"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Employment Agreement", results[0].Title)

		results, err = fresh.SearchContracts(ctx, models.ContractFilters{Query: "lease"})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("delete cascades to clauses", func(t *testing.T) {
		c, err := s.CreateContract(ctx, models.CreateContractRequest{
			Title: "Temp", FileURI: "local://tmp",
		})
		require.NoError(t, err)
		_, err = s.SaveClauses(ctx, c.ID, []models.CreateClauseRequest{
			{Index: 0, Type: "termination", Text: "Either party may terminate..."},
		})
		require.NoError(t, err)

		require.NoError(t, s.DeleteContract(ctx, c.ID))
		_, err = s.ListClauses(ctx, c.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore_Clauses(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c, err := s.CreateContract(ctx, models.CreateContractRequest{
		Title: "MSA", FileURI: "local://msa",
	})
	require.NoError(t, err)

	t.Run("save replaces the clause set", func(t *testing.T) {
		_, err := s.SaveClauses(ctx, c.ID, []models.CreateClauseRequest{
			{Index: 0, Type: "confidentiality", Text: "first pass"},
			{Index: 1, Type: "liability", Text: "first pass"},
		})
		require.NoError(t, err)

		clauses, err := s.SaveClauses(ctx, c.ID, []models.CreateClauseRequest{
			{Index: 0, Type: "termination", Text: "second pass"},
		})
		require.NoError(t, err)
		require.Len(t, clauses, 1)

		listed, err := s.ListClauses(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, "termination", listed[0].Type)
	})

	t.Run("list orders by clause index", func(t *testing.T) {
		_, err := s.SaveClauses(ctx, c.ID, []models.CreateClauseRequest{
			{Index: 2, Type: "liability", Text: "c"},
			{Index: 0, Type: "parties", Text: "a"},
			{Index: 1, Type: "term", Text: "b"},
		})
		require.NoError(t, err)

		listed, err := s.ListClauses(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, listed, 3)
		assert.Equal(t, 0, listed[0].Index)
		assert.Equal(t, 1, listed[1].Index)
		assert.Equal(t, 2, listed[2].Index)
	})

	t.Run("save for unknown contract fails", func(t *testing.T) {
		_, err := s.SaveClauses(ctx, "missing", nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore_ThinkingLogs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	sess, err := s.CreateSession(ctx)
	require.NoError(t, err)

	batch := []models.CreateThinkingLogRequest{
		{SessionID: sess.ID, TurnID: "turn-1", Sequence: 1, Stage: models.StageClassify,
			Payload: map[string]any{"query_type": "legal_question"}},
		{SessionID: sess.ID, TurnID: "turn-1", Sequence: 2, AgentName: "LEGAL_RESEARCH", Stage: models.StageAgentStart},
		{SessionID: sess.ID, TurnID: "turn-1", Sequence: 3, AgentName: "LEGAL_RESEARCH", Stage: models.StageAgentOutput},
	}
	require.NoError(t, s.AppendThinkingLogs(ctx, batch))
	require.NoError(t, s.AppendThinkingLogs(ctx, []models.CreateThinkingLogRequest{
		{SessionID: sess.ID, TurnID: "turn-2", Sequence: 1, Stage: models.StageClassify},
	}))

	t.Run("list by turn returns contiguous sequence", func(t *testing.T) {
		logs, err := s.ListThinkingLogs(ctx, sess.ID, "turn-1")
		require.NoError(t, err)
		require.Len(t, logs, 3)
		for i, l := range logs {
			assert.Equal(t, i+1, l.Sequence)
		}
		assert.Equal(t, models.StageClassify, logs[0].Stage)
		assert.Equal(t, "legal_question", logs[0].Payload["query_type"])
	})

	t.Run("list without turn filter returns all turns", func(t *testing.T) {
		logs, err := s.ListThinkingLogs(ctx, sess.ID, "")
		require.NoError(t, err)
		assert.Len(t, logs, 4)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		require.NoError(t, s.AppendThinkingLogs(ctx, nil))
	})
}

func TestMemoryStore_Documents(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	sess, err := s.CreateSession(ctx)
	require.NoError(t, err)

	doc, err := s.CreateDocument(ctx, models.CreateDocumentRequest{
		SessionID: sess.ID,
		Kind:      models.DocumentKindMemo,
		FileURI:   "local://documents/memo.docx",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)

	docs, err := s.ListDocuments(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, models.DocumentKindMemo, docs[0].Kind)
}
