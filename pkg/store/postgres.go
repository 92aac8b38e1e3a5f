package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver for database/sql
	"github.com/lexmind-ai/lexmind/pkg/models"
)

//go:embed migrations
var migrationsFS embed.FS

// PostgresStore implements Store on PostgreSQL via the pgx driver.
// Migrations are embedded and applied on startup.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool, verifies connectivity, and runs
// pending migrations.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db, cfg.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// DB returns the underlying connection pool for health checks.
func (s *PostgresStore) DB() *sql.DB { return s.db }

func (s *PostgresStore) Close() error { return s.db.Close() }

// runMigrations applies embedded migrations with golang-migrate.
func runMigrations(db *sql.DB, database string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, database, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Close only the source driver; m.Close() would also close the shared *sql.DB.
	if err := sourceDriver.Close(); err != nil {
		return fmt.Errorf("failed to close migration source: %w", err)
	}
	return nil
}

// ────────────────────────────────────────────────────────────
// Sessions
// ────────────────────────────────────────────────────────────

func (s *PostgresStore) CreateSession(ctx context.Context) (*models.Session, error) {
	sess := &models.Session{ID: NewID(), CreatedAt: time.Now().UTC()}
	sess.UpdatedAt = sess.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at, updated_at) VALUES ($1, $2, $3)`,
		sess.ID, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, active_contract_id, message_count, created_at, updated_at
		 FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

func (s *PostgresStore) UpdateSession(ctx context.Context, id string, req models.UpdateSessionRequest) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE sessions
		 SET title = COALESCE($2, title),
		     active_contract_id = COALESCE($3, active_contract_id),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING id, title, active_contract_id, message_count, created_at, updated_at`,
		id, req.Title, req.ActiveContractID)
	return scanSession(row)
}

func (s *PostgresStore) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStore) ListSessions(ctx context.Context, filters models.SessionFilters) ([]*models.Session, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, active_contract_id, message_count, created_at, updated_at
		 FROM sessions ORDER BY id DESC LIMIT $1 OFFSET $2`,
		limit, filters.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []*models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// ────────────────────────────────────────────────────────────
// Messages
// ────────────────────────────────────────────────────────────

func (s *PostgresStore) CreateMessage(ctx context.Context, req models.CreateMessageRequest) (*models.Message, error) {
	citations, err := json.Marshal(emptyIfNilCitations(req.Citations))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal citations: %w", err)
	}
	toolCalls, err := json.Marshal(emptyIfNilToolCalls(req.ToolCalls))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool calls: %w", err)
	}

	msg := &models.Message{
		ID:        NewID(),
		SessionID: req.SessionID,
		Role:      req.Role,
		Content:   req.Content,
		AgentName: req.AgentName,
		Citations: emptyIfNilCitations(req.Citations),
		ToolCalls: emptyIfNilToolCalls(req.ToolCalls),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// Bump message_count first so a missing session fails before the insert.
	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET message_count = message_count + 1, updated_at = now() WHERE id = $1`,
		req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to update session counters: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, content, agent_name, citations, tool_calls, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		msg.ID, msg.SessionID, msg.Role, msg.Content, msg.AgentName, citations, toolCalls, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}
	return msg, nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, sessionID string, limit int, before string) ([]*models.Message, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, agent_name, citations, tool_calls, created_at
		 FROM messages
		 WHERE session_id = $1 AND ($2 = '' OR id < $2)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3`,
		sessionID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var newestFirst []*models.Message
	for rows.Next() {
		var (
			msg           models.Message
			citationsJSON []byte
			toolCallsJSON []byte
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content,
			&msg.AgentName, &citationsJSON, &toolCallsJSON, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if err := json.Unmarshal(citationsJSON, &msg.Citations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal citations: %w", err)
		}
		if err := json.Unmarshal(toolCallsJSON, &msg.ToolCalls); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tool calls: %w", err)
		}
		newestFirst = append(newestFirst, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to oldest-first for callers.
	out := make([]*models.Message, len(newestFirst))
	for i, m := range newestFirst {
		out[len(newestFirst)-1-i] = m
	}
	return out, nil
}

// ────────────────────────────────────────────────────────────
// Contracts
// ────────────────────────────────────────────────────────────

func (s *PostgresStore) CreateContract(ctx context.Context, req models.CreateContractRequest) (*models.Contract, error) {
	parties := req.Parties
	if parties == nil {
		parties = []models.Party{}
	}
	partiesJSON, err := json.Marshal(parties)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parties: %w", err)
	}

	c := &models.Contract{
		ID:               NewID(),
		Title:            req.Title,
		ContractType:     req.ContractType,
		Parties:          parties,
		Notes:            req.Notes,
		UploadedAt:       time.Now().UTC(),
		FileURI:          req.FileURI,
		Status:           models.ContractStatusUploaded,
		ComplianceStatus: models.ComplianceUnknown,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO contracts (id, title, contract_type, parties, notes, uploaded_at, file_uri, status, compliance_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Title, c.ContractType, partiesJSON, c.Notes, c.UploadedAt, c.FileURI, c.Status, c.ComplianceStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetContract(ctx context.Context, id string) (*models.Contract, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, contract_type, parties, notes, uploaded_at, file_uri, status, overall_risk_score, compliance_status
		 FROM contracts WHERE id = $1`, id)
	return scanContract(row)
}

func (s *PostgresStore) UpdateContract(ctx context.Context, id string, req models.UpdateContractRequest) (*models.Contract, error) {
	var partiesJSON []byte
	if req.Parties != nil {
		var err error
		partiesJSON, err = json.Marshal(req.Parties)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal parties: %w", err)
		}
	}

	row := s.db.QueryRowContext(ctx,
		`UPDATE contracts
		 SET title = COALESCE($2, title),
		     contract_type = COALESCE($3, contract_type),
		     parties = COALESCE($4, parties),
		     status = COALESCE($5, status),
		     overall_risk_score = COALESCE($6, overall_risk_score),
		     compliance_status = COALESCE($7, compliance_status)
		 WHERE id = $1
		 RETURNING id, title, contract_type, parties, notes, uploaded_at, file_uri, status, overall_risk_score, compliance_status`,
		id, req.Title, req.ContractType, partiesJSON, req.Status, req.OverallRiskScore, req.ComplianceStatus)
	return scanContract(row)
}

func (s *PostgresStore) DeleteContract(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStore) SearchContracts(ctx context.Context, filters models.ContractFilters) ([]*models.Contract, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, contract_type, parties, notes, uploaded_at, file_uri, status, overall_risk_score, compliance_status
		 FROM contracts
		 WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')
		   AND ($2 = '' OR lower(contract_type) = lower($2))
		 ORDER BY id DESC
		 LIMIT $3`,
		filters.Query, filters.ContractType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search contracts: %w", err)
	}
	defer rows.Close()

	var out []*models.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ────────────────────────────────────────────────────────────
// Clauses
// ────────────────────────────────────────────────────────────

func (s *PostgresStore) SaveClauses(ctx context.Context, contractID string, reqs []models.CreateClauseRequest) ([]*models.Clause, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM contracts WHERE id = $1)`, contractID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check contract: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	// Replace the clause set so repeated extraction stays idempotent.
	if _, err := tx.ExecContext(ctx, `DELETE FROM clauses WHERE contract_id = $1`, contractID); err != nil {
		return nil, fmt.Errorf("failed to clear clauses: %w", err)
	}

	out := make([]*models.Clause, 0, len(reqs))
	for _, req := range reqs {
		cl := &models.Clause{
			ID:         NewID(),
			ContractID: contractID,
			Index:      req.Index,
			Type:       req.Type,
			Text:       req.Text,
			RiskScore:  req.RiskScore,
			Notes:      req.Notes,
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO clauses (id, contract_id, clause_index, clause_type, clause_text, risk_score, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			cl.ID, cl.ContractID, cl.Index, cl.Type, cl.Text, cl.RiskScore, cl.Notes)
		if err != nil {
			return nil, fmt.Errorf("failed to insert clause: %w", err)
		}
		out = append(out, cl)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit clauses: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListClauses(ctx context.Context, contractID string) ([]*models.Clause, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM contracts WHERE id = $1)`, contractID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check contract: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, contract_id, clause_index, clause_type, clause_text, risk_score, notes
		 FROM clauses WHERE contract_id = $1 ORDER BY clause_index`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clauses: %w", err)
	}
	defer rows.Close()

	var out []*models.Clause
	for rows.Next() {
		var (
			cl   models.Clause
			risk sql.NullFloat64
		)
		if err := rows.Scan(&cl.ID, &cl.ContractID, &cl.Index, &cl.Type, &cl.Text, &risk, &cl.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan clause: %w", err)
		}
		if risk.Valid {
			cl.RiskScore = &risk.Float64
		}
		out = append(out, &cl)
	}
	return out, rows.Err()
}

// ────────────────────────────────────────────────────────────
// Thinking logs
// ────────────────────────────────────────────────────────────

func (s *PostgresStore) AppendThinkingLogs(ctx context.Context, reqs []models.CreateThinkingLogRequest) error {
	if len(reqs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, req := range reqs {
		payload := req.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		payloadJSON, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal log payload: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO thinking_logs (id, session_id, turn_id, sequence, agent_name, stage, payload, duration_ms, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			NewID(), req.SessionID, req.TurnID, req.Sequence, req.AgentName, req.Stage, payloadJSON, req.DurationMs, now)
		if err != nil {
			return fmt.Errorf("failed to insert thinking log: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit thinking logs: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListThinkingLogs(ctx context.Context, sessionID string, turnID string) ([]*models.ThinkingLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, turn_id, sequence, agent_name, stage, payload, duration_ms, created_at
		 FROM thinking_logs
		 WHERE session_id = $1 AND ($2 = '' OR turn_id = $2)
		 ORDER BY turn_id, sequence`,
		sessionID, turnID)
	if err != nil {
		return nil, fmt.Errorf("failed to list thinking logs: %w", err)
	}
	defer rows.Close()

	var out []*models.ThinkingLog
	for rows.Next() {
		var (
			l           models.ThinkingLog
			payloadJSON []byte
		)
		if err := rows.Scan(&l.ID, &l.SessionID, &l.TurnID, &l.Sequence,
			&l.AgentName, &l.Stage, &payloadJSON, &l.DurationMs, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan thinking log: %w", err)
		}
		if err := json.Unmarshal(payloadJSON, &l.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log payload: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// ────────────────────────────────────────────────────────────
// Generated documents
// ────────────────────────────────────────────────────────────

func (s *PostgresStore) CreateDocument(ctx context.Context, req models.CreateDocumentRequest) (*models.GeneratedDocument, error) {
	doc := &models.GeneratedDocument{
		ID:        NewID(),
		SessionID: req.SessionID,
		Kind:      req.Kind,
		FileURI:   req.FileURI,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generated_documents (id, session_id, kind, file_uri, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, doc.SessionID, doc.Kind, doc.FileURI, doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, sessionID string) ([]*models.GeneratedDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, kind, file_uri, created_at
		 FROM generated_documents WHERE session_id = $1 ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var out []*models.GeneratedDocument
	for rows.Next() {
		var doc models.GeneratedDocument
		if err := rows.Scan(&doc.ID, &doc.SessionID, &doc.Kind, &doc.FileURI, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		out = append(out, &doc)
	}
	return out, rows.Err()
}

// ────────────────────────────────────────────────────────────
// Scan helpers
// ────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		sess     models.Session
		title    sql.NullString
		contract sql.NullString
	)
	err := row.Scan(&sess.ID, &title, &contract, &sess.MessageCount, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	if title.Valid {
		sess.Title = &title.String
	}
	if contract.Valid {
		sess.ActiveContractID = &contract.String
	}
	return &sess, nil
}

func scanContract(row rowScanner) (*models.Contract, error) {
	var (
		c           models.Contract
		partiesJSON []byte
		risk        sql.NullFloat64
	)
	err := row.Scan(&c.ID, &c.Title, &c.ContractType, &partiesJSON, &c.Notes, &c.UploadedAt,
		&c.FileURI, &c.Status, &risk, &c.ComplianceStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan contract: %w", err)
	}
	if err := json.Unmarshal(partiesJSON, &c.Parties); err != nil {
		return nil, fmt.Errorf("failed to unmarshal parties: %w", err)
	}
	if risk.Valid {
		c.OverallRiskScore = &risk.Float64
	}
	return &c, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func emptyIfNilCitations(in []models.Citation) []models.Citation {
	if in == nil {
		return []models.Citation{}
	}
	return in
}

func emptyIfNilToolCalls(in []models.ToolCallSummary) []models.ToolCallSummary {
	if in == nil {
		return []models.ToolCallSummary{}
	}
	return in
}
