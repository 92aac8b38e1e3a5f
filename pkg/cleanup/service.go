// Package cleanup enforces data retention: sessions idle past the configured
// age are deleted together with their messages, thinking logs and generated
// document files.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/lexmind-ai/lexmind/pkg/blob"
	"github.com/lexmind-ai/lexmind/pkg/config"
	"github.com/lexmind-ai/lexmind/pkg/models"
	"github.com/lexmind-ai/lexmind/pkg/store"
)

// sweepPageSize bounds how many sessions one sweep inspects per page.
const sweepPageSize = 200

// Service is the background retention sweeper. Deletions are idempotent, so
// running multiple replicas is safe.
type Service struct {
	cfg   config.RetentionConfig
	store store.Store
	blobs blob.Store

	// now is replaceable in tests.
	now func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a retention sweeper.
func NewService(cfg config.RetentionConfig, s store.Store, blobs blob.Store) *Service {
	return &Service{cfg: cfg, store: s, blobs: blobs, now: time.Now}
}

// Start launches the sweep loop. A zero retention leaves the service idle.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil || s.cfg.SessionRetentionDays == 0 {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Retention sweeper started",
		"session_retention_days", s.cfg.SessionRetentionDays,
		"interval", s.cfg.SweepInterval())
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Retention sweeper stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.Sweep(ctx)

	ticker := time.NewTicker(s.cfg.SweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep deletes every session whose last activity predates the retention
// cutoff. It returns the number of sessions removed.
func (s *Service) Sweep(ctx context.Context) int {
	cutoff := s.now().UTC().AddDate(0, 0, -s.cfg.SessionRetentionDays)

	deleted := 0
	offset := 0
	for {
		sessions, err := s.store.ListSessions(ctx, models.SessionFilters{
			Limit:  sweepPageSize,
			Offset: offset,
		})
		if err != nil {
			slog.Error("Retention: failed to list sessions", "error", err)
			return deleted
		}
		if len(sessions) == 0 {
			break
		}

		for _, session := range sessions {
			if !session.UpdatedAt.Before(cutoff) {
				offset++
				continue
			}
			if err := s.deleteSession(ctx, session); err != nil {
				slog.Error("Retention: failed to delete session",
					"session_id", session.ID, "error", err)
				offset++
				continue
			}
			deleted++
		}

		if len(sessions) < sweepPageSize {
			break
		}
	}

	if deleted > 0 {
		slog.Info("Retention: deleted expired sessions", "count", deleted, "cutoff", cutoff)
	}
	return deleted
}

// deleteSession removes the session's generated document files first, then
// the session row; the store cascades messages, logs and document records.
func (s *Service) deleteSession(ctx context.Context, session *models.Session) error {
	documents, err := s.store.ListDocuments(ctx, session.ID)
	if err != nil {
		return err
	}
	for _, doc := range documents {
		if err := s.blobs.Delete(ctx, doc.FileURI); err != nil {
			slog.Warn("Retention: failed to delete document file",
				"session_id", session.ID, "uri", doc.FileURI, "error", err)
		}
	}
	return s.store.DeleteSession(ctx, session.ID)
}
