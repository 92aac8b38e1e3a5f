package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lexmind-ai/lexmind/pkg/models"
)

// MemoryStore is an in-memory Store implementation. Used by tests and by dev
// mode when no database is configured. Safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*models.Session
	messages  map[string][]*models.Message // sessionID → ordered messages
	contracts map[string]*models.Contract
	clauses   map[string][]*models.Clause // contractID → ordered clauses
	logs      map[string][]*models.ThinkingLog
	documents map[string][]*models.GeneratedDocument
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]*models.Session),
		messages:  make(map[string][]*models.Message),
		contracts: make(map[string]*models.Contract),
		clauses:   make(map[string][]*models.Clause),
		logs:      make(map[string][]*models.ThinkingLog),
		documents: make(map[string][]*models.GeneratedDocument),
	}
}

func (s *MemoryStore) CreateSession(_ context.Context) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	sess := &models.Session{ID: NewID(), CreatedAt: now, UpdatedAt: now}
	s.sessions[sess.ID] = sess
	return cloneSession(sess), nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(sess), nil
}

func (s *MemoryStore) UpdateSession(_ context.Context, id string, req models.UpdateSessionRequest) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if req.Title != nil {
		sess.Title = req.Title
	}
	if req.ActiveContractID != nil {
		sess.ActiveContractID = req.ActiveContractID
	}
	sess.UpdatedAt = time.Now().UTC()
	return cloneSession(sess), nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	// Cascade: session owns its messages, logs and documents.
	delete(s.sessions, id)
	delete(s.messages, id)
	delete(s.logs, id)
	delete(s.documents, id)
	return nil
}

func (s *MemoryStore) ListSessions(_ context.Context, filters models.SessionFilters) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, cloneSession(sess))
	}
	// Newest first, matching the Postgres ORDER BY.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	if filters.Offset > 0 {
		if filters.Offset >= len(out) {
			return nil, nil
		}
		out = out[filters.Offset:]
	}
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (s *MemoryStore) CreateMessage(_ context.Context, req models.CreateMessageRequest) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[req.SessionID]
	if !ok {
		return nil, ErrNotFound
	}

	msg := &models.Message{
		ID:        NewID(),
		SessionID: req.SessionID,
		Role:      req.Role,
		Content:   req.Content,
		AgentName: req.AgentName,
		Citations: emptyIfNilCitations(append([]models.Citation(nil), req.Citations...)),
		ToolCalls: emptyIfNilToolCalls(append([]models.ToolCallSummary(nil), req.ToolCalls...)),
		CreatedAt: time.Now().UTC(),
	}
	s.messages[req.SessionID] = append(s.messages[req.SessionID], msg)
	sess.MessageCount++
	sess.UpdatedAt = msg.CreatedAt
	return cloneMessage(msg), nil
}

func (s *MemoryStore) ListMessages(_ context.Context, sessionID string, limit int, before string) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, ErrNotFound
	}

	msgs := s.messages[sessionID]
	out := make([]*models.Message, 0, len(msgs))
	for _, m := range msgs {
		if before != "" && m.ID >= before {
			continue
		}
		out = append(out, cloneMessage(m))
	}
	// Oldest first; creation order is insertion order, ties broken by ID.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *MemoryStore) CreateContract(_ context.Context, req models.CreateContractRequest) (*models.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &models.Contract{
		ID:               NewID(),
		Title:            req.Title,
		ContractType:     req.ContractType,
		Parties:          append([]models.Party(nil), req.Parties...),
		Notes:            req.Notes,
		UploadedAt:       time.Now().UTC(),
		FileURI:          req.FileURI,
		Status:           models.ContractStatusUploaded,
		ComplianceStatus: models.ComplianceUnknown,
	}
	s.contracts[c.ID] = c
	return cloneContract(c), nil
}

func (s *MemoryStore) GetContract(_ context.Context, id string) (*models.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contracts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneContract(c), nil
}

func (s *MemoryStore) UpdateContract(_ context.Context, id string, req models.UpdateContractRequest) (*models.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contracts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.ContractType != nil {
		c.ContractType = *req.ContractType
	}
	if req.Parties != nil {
		c.Parties = append([]models.Party(nil), req.Parties...)
	}
	if req.Status != nil {
		c.Status = *req.Status
	}
	if req.OverallRiskScore != nil {
		c.OverallRiskScore = req.OverallRiskScore
	}
	if req.ComplianceStatus != nil {
		c.ComplianceStatus = *req.ComplianceStatus
	}
	return cloneContract(c), nil
}

func (s *MemoryStore) DeleteContract(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contracts[id]; !ok {
		return ErrNotFound
	}
	// Cascade: contract owns its clauses.
	delete(s.contracts, id)
	delete(s.clauses, id)
	return nil
}

func (s *MemoryStore) SearchContracts(_ context.Context, filters models.ContractFilters) ([]*models.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(filters.Query)
	out := make([]*models.Contract, 0)
	for _, c := range s.contracts {
		if filters.ContractType != "" && !strings.EqualFold(c.ContractType, filters.ContractType) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(c.Title), query) {
			continue
		}
		out = append(out, cloneContract(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (s *MemoryStore) SaveClauses(_ context.Context, contractID string, reqs []models.CreateClauseRequest) ([]*models.Clause, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contracts[contractID]; !ok {
		return nil, ErrNotFound
	}

	saved := make([]*models.Clause, 0, len(reqs))
	for _, req := range reqs {
		saved = append(saved, &models.Clause{
			ID:         NewID(),
			ContractID: contractID,
			Index:      req.Index,
			Type:       req.Type,
			Text:       req.Text,
			RiskScore:  req.RiskScore,
			Notes:      req.Notes,
		})
	}
	s.clauses[contractID] = saved

	out := make([]*models.Clause, len(saved))
	for i, cl := range saved {
		out[i] = cloneClause(cl)
	}
	return out, nil
}

func (s *MemoryStore) ListClauses(_ context.Context, contractID string) ([]*models.Clause, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.contracts[contractID]; !ok {
		return nil, ErrNotFound
	}
	clauses := s.clauses[contractID]
	out := make([]*models.Clause, len(clauses))
	for i, cl := range clauses {
		out[i] = cloneClause(cl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (s *MemoryStore) AppendThinkingLogs(_ context.Context, reqs []models.CreateThinkingLogRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, req := range reqs {
		s.logs[req.SessionID] = append(s.logs[req.SessionID], &models.ThinkingLog{
			ID:         NewID(),
			SessionID:  req.SessionID,
			TurnID:     req.TurnID,
			Sequence:   req.Sequence,
			AgentName:  req.AgentName,
			Stage:      req.Stage,
			Payload:    req.Payload,
			DurationMs: req.DurationMs,
			CreatedAt:  now,
		})
	}
	return nil
}

func (s *MemoryStore) ListThinkingLogs(_ context.Context, sessionID string, turnID string) ([]*models.ThinkingLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ThinkingLog, 0)
	for _, l := range s.logs[sessionID] {
		if turnID != "" && l.TurnID != turnID {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TurnID != out[j].TurnID {
			return out[i].TurnID < out[j].TurnID
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

func (s *MemoryStore) CreateDocument(_ context.Context, req models.CreateDocumentRequest) (*models.GeneratedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &models.GeneratedDocument{
		ID:        NewID(),
		SessionID: req.SessionID,
		Kind:      req.Kind,
		FileURI:   req.FileURI,
		CreatedAt: time.Now().UTC(),
	}
	s.documents[req.SessionID] = append(s.documents[req.SessionID], doc)
	cp := *doc
	return &cp, nil
}

func (s *MemoryStore) ListDocuments(_ context.Context, sessionID string) ([]*models.GeneratedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.documents[sessionID]
	out := make([]*models.GeneratedDocument, len(docs))
	for i, d := range docs {
		cp := *d
		out[i] = &cp
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func cloneSession(in *models.Session) *models.Session {
	cp := *in
	return &cp
}

func cloneMessage(in *models.Message) *models.Message {
	cp := *in
	cp.Citations = emptyIfNilCitations(append([]models.Citation(nil), in.Citations...))
	cp.ToolCalls = emptyIfNilToolCalls(append([]models.ToolCallSummary(nil), in.ToolCalls...))
	return &cp
}

func cloneContract(in *models.Contract) *models.Contract {
	cp := *in
	cp.Parties = append([]models.Party(nil), in.Parties...)
	return &cp
}

func cloneClause(in *models.Clause) *models.Clause {
	cp := *in
	return &cp
}
