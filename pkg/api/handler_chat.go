package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexmind-ai/lexmind/pkg/orchestrator"
)

// ChatRequest is the body for POST /api/chat.
type ChatRequest struct {
	Message    string `json:"message"`
	SessionID  string `json:"session_id"`
	ContractID string `json:"contract_id"`
}

// handleChat runs one orchestrated turn. Agent failures come back inside a
// 200 response; only unusable requests and infrastructure faults map to
// error statuses.
func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	resp, err := s.orch.HandleTurn(c.Request.Context(), orchestrator.Request{
		Message:    req.Message,
		SessionID:  req.SessionID,
		ContractID: req.ContractID,
	})
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrInvalidRequest):
			writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			writeError(c, http.StatusGatewayTimeout, "timeout", "the request took too long to process")
		default:
			slog.Error("Chat turn failed", "session_id", req.SessionID, "error", err)
			writeError(c, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}
