package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lexmind-ai/lexmind/pkg/models"
)

func (s *Server) handleListSessions(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 50)
	if !ok {
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		return
	}

	sessions, err := s.store.ListSessions(c.Request.Context(), models.SessionFilters{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (s *Server) handleGetSession(c *gin.Context) {
	session, err := s.store.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeStoreError(c, err, "session not found")
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleListMessages(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}

	messages, err := s.store.ListMessages(c.Request.Context(), c.Param("id"), limit, c.Query("before"))
	if err != nil {
		writeStoreError(c, err, "session not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// handleListThinkingLogs returns the ordered trace for a session, optionally
// narrowed to one turn via ?turn_id=.
func (s *Server) handleListThinkingLogs(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := s.store.GetSession(c.Request.Context(), sessionID); err != nil {
		writeStoreError(c, err, "session not found")
		return
	}

	logs, err := s.store.ListThinkingLogs(c.Request.Context(), sessionID, c.Query("turn_id"))
	if err != nil {
		writeStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"thinking_logs": logs})
}

func (s *Server) handleListDocuments(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := s.store.GetSession(c.Request.Context(), sessionID); err != nil {
		writeStoreError(c, err, "session not found")
		return
	}

	docs, err := s.store.ListDocuments(c.Request.Context(), sessionID)
	if err != nil {
		writeStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// intQuery parses a non-negative integer query parameter. On a malformed
// value it writes a 400 and returns ok=false.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		writeError(c, http.StatusBadRequest, "invalid_request", name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}
