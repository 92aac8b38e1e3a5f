// Package store provides the typed persistence layer: the Store interface plus
// a PostgreSQL implementation (pgx) and an in-memory implementation used by
// tests and dev mode. The store holds no business logic; writes are
// individually durable and the orchestrator orders them so that a partial
// crash leaves recoverable state.
package store

import (
	"context"
	"errors"

	"github.com/lexmind-ai/lexmind/pkg/models"
)

var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when creating a duplicate entity.
	ErrAlreadyExists = errors.New("entity already exists")
)

// Store is the document database consumed by the core. All reads are
// consistent within a turn; no multi-write atomicity is assumed by callers.
type Store interface {
	// Sessions
	CreateSession(ctx context.Context) (*models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	UpdateSession(ctx context.Context, id string, req models.UpdateSessionRequest) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context, filters models.SessionFilters) ([]*models.Session, error)

	// Messages. CreateMessage also bumps the session's message_count so the
	// count invariant holds without a separate write.
	CreateMessage(ctx context.Context, req models.CreateMessageRequest) (*models.Message, error)
	ListMessages(ctx context.Context, sessionID string, limit int, before string) ([]*models.Message, error)

	// Contracts
	CreateContract(ctx context.Context, req models.CreateContractRequest) (*models.Contract, error)
	GetContract(ctx context.Context, id string) (*models.Contract, error)
	UpdateContract(ctx context.Context, id string, req models.UpdateContractRequest) (*models.Contract, error)
	DeleteContract(ctx context.Context, id string) error
	SearchContracts(ctx context.Context, filters models.ContractFilters) ([]*models.Contract, error)

	// Clauses. SaveClauses replaces the contract's clause set in one call so
	// repeated extraction stays idempotent.
	SaveClauses(ctx context.Context, contractID string, reqs []models.CreateClauseRequest) ([]*models.Clause, error)
	ListClauses(ctx context.Context, contractID string) ([]*models.Clause, error)

	// Thinking logs, appended in batches by the trace flusher.
	AppendThinkingLogs(ctx context.Context, reqs []models.CreateThinkingLogRequest) error
	ListThinkingLogs(ctx context.Context, sessionID string, turnID string) ([]*models.ThinkingLog, error)

	// Generated documents
	CreateDocument(ctx context.Context, req models.CreateDocumentRequest) (*models.GeneratedDocument, error)
	ListDocuments(ctx context.Context, sessionID string) ([]*models.GeneratedDocument, error)

	Close() error
}
