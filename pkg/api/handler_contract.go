package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lexmind-ai/lexmind/pkg/models"
	"github.com/lexmind-ai/lexmind/pkg/store"
)

const (
	// maxUploadBytes caps contract uploads at 50 MB.
	maxUploadBytes = 50 << 20

	// parseTimeout bounds the background text extraction of one upload.
	parseTimeout = 2 * time.Minute
)

// handleUploadContract accepts a multipart contract upload, stores the file,
// and kicks off background text extraction. The response returns immediately
// with status "parsing"; clients poll GET /api/contracts/:id for the
// ready/failed outcome.
func (s *Server) handleUploadContract(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", `a document is required in the "file" field`)
		return
	}
	if header.Size > maxUploadBytes {
		writeError(c, http.StatusBadRequest, "invalid_request", "file exceeds the 50 MB limit")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" && ext != ".txt" && ext != ".md" {
		writeError(c, http.StatusBadRequest, "invalid_request", "only PDF and plain-text uploads are supported")
		return
	}

	var parties []models.Party
	if raw := c.PostForm("parties"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &parties); err != nil {
			writeError(c, http.StatusBadRequest, "invalid_request", "parties must be a JSON-encoded array")
			return
		}
	}

	file, err := header.Open()
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal_error", "")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal_error", "")
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(header.Filename), ext)
	}

	ctx := c.Request.Context()
	key := fmt.Sprintf("contracts/%s/%s", store.NewID(), filepath.Base(header.Filename))
	uri, err := s.blobs.Put(ctx, key, data, contentTypeFor(ext))
	if err != nil {
		slog.Error("Failed to store uploaded contract", "key", key, "error", err)
		writeError(c, http.StatusInternalServerError, "internal_error", "")
		return
	}

	contract, err := s.store.CreateContract(ctx, models.CreateContractRequest{
		Title:        title,
		ContractType: c.PostForm("contract_type"),
		Parties:      parties,
		Notes:        c.PostForm("notes"),
		FileURI:      uri,
	})
	if err != nil {
		slog.Error("Failed to register uploaded contract", "error", err)
		writeError(c, http.StatusInternalServerError, "internal_error", "")
		return
	}

	parsing := models.ContractStatusParsing
	if _, err := s.store.UpdateContract(ctx, contract.ID, models.UpdateContractRequest{Status: &parsing}); err != nil {
		slog.Error("Failed to mark contract as parsing", "contract_id", contract.ID, "error", err)
		writeError(c, http.StatusInternalServerError, "internal_error", "")
		return
	}

	go s.parseContract(context.WithoutCancel(ctx), contract.ID, header.Filename, data)

	c.JSON(http.StatusAccepted, gin.H{
		"contract_id": contract.ID,
		"status":      string(parsing),
	})
}

// parseContract validates that text can be extracted from the upload and
// records the ready/failed outcome.
func (s *Server) parseContract(ctx context.Context, contractID, filename string, data []byte) {
	ctx, cancel := context.WithTimeout(ctx, parseTimeout)
	defer cancel()

	status := models.ContractStatusReady
	if _, err := s.extractor.ExtractText(ctx, filename, data); err != nil {
		slog.Warn("Contract text extraction failed",
			"contract_id", contractID, "filename", filename, "error", err)
		status = models.ContractStatusFailed
	}

	if _, err := s.store.UpdateContract(ctx, contractID, models.UpdateContractRequest{Status: &status}); err != nil {
		slog.Error("Failed to record contract parse outcome",
			"contract_id", contractID, "status", status, "error", err)
	}
}

func (s *Server) handleGetContract(c *gin.Context) {
	contract, err := s.store.GetContract(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeStoreError(c, err, "contract not found")
		return
	}
	c.JSON(http.StatusOK, contract)
}

func contentTypeFor(ext string) string {
	if ext == ".pdf" {
		return "application/pdf"
	}
	return "text/plain"
}
