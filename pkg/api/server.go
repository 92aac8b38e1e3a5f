// Package api exposes the HTTP surface: the chat endpoint, contract upload
// and retrieval, session browsing, the agent catalog, and operational
// endpoints. Transports stay thin; all turn semantics live in the
// orchestrator.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexmind-ai/lexmind/pkg/agent"
	"github.com/lexmind-ai/lexmind/pkg/blob"
	"github.com/lexmind-ai/lexmind/pkg/docs"
	"github.com/lexmind-ai/lexmind/pkg/orchestrator"
	"github.com/lexmind-ai/lexmind/pkg/store"
	"github.com/lexmind-ai/lexmind/pkg/version"
)

// Server holds the handler dependencies.
type Server struct {
	store     store.Store
	blobs     blob.Store
	orch      *orchestrator.Orchestrator
	catalog   *agent.Catalog
	extractor *docs.Extractor
}

// NewServer creates the API server.
func NewServer(s store.Store, blobs blob.Store, orch *orchestrator.Orchestrator, catalog *agent.Catalog, extractor *docs.Extractor) *Server {
	return &Server{
		store:     s,
		blobs:     blobs,
		orch:      orch,
		catalog:   catalog,
		extractor: extractor,
	}
}

// Routes builds the gin engine with all endpoints registered.
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	api := r.Group("/api")
	api.POST("/chat", s.handleChat)
	api.POST("/contracts", s.handleUploadContract)
	api.GET("/contracts/:id", s.handleGetContract)
	api.GET("/sessions", s.handleListSessions)
	api.GET("/sessions/:id", s.handleGetSession)
	api.GET("/sessions/:id/messages", s.handleListMessages)
	api.GET("/sessions/:id/thinking-logs", s.handleListThinkingLogs)
	api.GET("/sessions/:id/documents", s.handleListDocuments)
	api.GET("/agents", s.handleListAgents)
	api.GET("/agents/stats", s.handleAgentStats)
	api.GET("/healthz", s.handleHealth)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Full(),
	})
}

// requestLogger emits one structured line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
