package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexmind-ai/lexmind/pkg/store"
)

// writeError emits the error body shape shared by every endpoint. details is
// optional human-readable context.
func writeError(c *gin.Context, status int, code, details string) {
	body := gin.H{"success": false, "error": code}
	if details != "" {
		body["details"] = details
	}
	c.JSON(status, body)
}

// writeStoreError maps store lookup failures onto 404/500.
func writeStoreError(c *gin.Context, err error, details string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(c, http.StatusNotFound, "not_found", details)
		return
	}
	slog.Error("Store operation failed", "path", c.Request.URL.Path, "error", err)
	writeError(c, http.StatusInternalServerError, "internal_error", "")
}
