// Package trace records the visible reasoning of a turn: classification,
// agent starts, tool calls and results, outputs, and errors. Events buffer
// in memory per turn and flush to the store in batches; logs are advisory,
// so a crash loses at most the unflushed suffix.
package trace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lexmind-ai/lexmind/pkg/models"
	"github.com/lexmind-ai/lexmind/pkg/store"
)

// flushThreshold is the buffer size that triggers an eager flush.
const flushThreshold = 16

// Logger is the thinking-log buffer for one turn. Sequence numbers are
// contiguous from 1 in record order. Safe for concurrent use.
type Logger struct {
	store     store.Store
	sessionID string
	turnID    string
	started   time.Time

	mu      sync.Mutex
	seq     int
	pending []models.CreateThinkingLogRequest
}

// NewLogger starts a trace for one turn.
func NewLogger(s store.Store, sessionID, turnID string) *Logger {
	return &Logger{
		store:     s,
		sessionID: sessionID,
		turnID:    turnID,
		started:   time.Now(),
	}
}

// TurnID returns the turn this logger records.
func (l *Logger) TurnID() string { return l.turnID }

// Record appends one event. DurationMs, when zero, is filled with the
// elapsed time since turn start.
func (l *Logger) Record(agentName string, stage models.Stage, payload map[string]any, durationMs int) {
	if durationMs == 0 {
		durationMs = int(time.Since(l.started).Milliseconds())
	}

	l.mu.Lock()
	l.seq++
	l.pending = append(l.pending, models.CreateThinkingLogRequest{
		SessionID:  l.sessionID,
		TurnID:     l.turnID,
		Sequence:   l.seq,
		AgentName:  agentName,
		Stage:      stage,
		Payload:    payload,
		DurationMs: durationMs,
	})
	shouldFlush := len(l.pending) >= flushThreshold
	l.mu.Unlock()

	if shouldFlush {
		l.Flush(context.Background())
	}
}

// Flush persists the buffered events. Failures are logged and the events
// dropped; the turn never fails because its trace could not be written.
func (l *Logger) Flush(ctx context.Context) {
	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	l.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	if err := l.store.AppendThinkingLogs(ctx, batch); err != nil {
		slog.Error("Failed to flush thinking logs",
			"session_id", l.sessionID,
			"turn_id", l.turnID,
			"events", len(batch),
			"error", err)
	}
}
