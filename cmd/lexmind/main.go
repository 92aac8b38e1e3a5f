// LexMind server — exposes the chat and contract HTTP API and runs the
// multi-agent analysis pipeline behind it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/lexmind-ai/lexmind/pkg/agent"
	"github.com/lexmind-ai/lexmind/pkg/agent/prompt"
	"github.com/lexmind-ai/lexmind/pkg/api"
	"github.com/lexmind-ai/lexmind/pkg/blob"
	"github.com/lexmind-ai/lexmind/pkg/classifier"
	"github.com/lexmind-ai/lexmind/pkg/cleanup"
	"github.com/lexmind-ai/lexmind/pkg/compliance"
	"github.com/lexmind-ai/lexmind/pkg/config"
	"github.com/lexmind-ai/lexmind/pkg/docs"
	"github.com/lexmind-ai/lexmind/pkg/llm"
	"github.com/lexmind-ai/lexmind/pkg/metrics"
	"github.com/lexmind-ai/lexmind/pkg/orchestrator"
	"github.com/lexmind-ai/lexmind/pkg/store"
	"github.com/lexmind-ai/lexmind/pkg/tools"
	"github.com/lexmind-ai/lexmind/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	slog.Info("Starting LexMind", "version", version.Full(), "config_dir", *configDir)

	ctx := context.Background()

	// 1. Initialize configuration
	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize the store
	st, err := newStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Error closing store", "error", err)
		}
	}()

	// 3. Initialize blob storage
	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize blob storage", "driver", cfg.Blob.Driver, "error", err)
		os.Exit(1)
	}

	// 4. Create the model client
	llmClient, err := llm.NewGemini(ctx, cfg.LLM)
	if err != nil {
		slog.Error("Failed to initialize model client", "backend", cfg.LLM.Backend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := llmClient.Close(); err != nil {
			slog.Error("Error closing model client", "error", err)
		}
	}()
	slog.Info("Model client initialized", "backend", cfg.LLM.Backend, "model", cfg.LLM.Model)

	// 5. Load compliance reference data and the document extractor
	complianceCatalog, err := compliance.LoadCatalog()
	if err != nil {
		slog.Error("Failed to load compliance catalog", "error", err)
		os.Exit(1)
	}
	extractor := docs.NewExtractor(2)

	// 6. Build the tool registry
	registry := tools.NewRegistry(cfg.Runtime.ToolTimeout())
	if err := tools.RegisterAll(registry, tools.Backends{
		Store:      st,
		Blobs:      blobs,
		Compliance: complianceCatalog,
		Extractor:  extractor,
	}); err != nil {
		slog.Error("Failed to register tools", "error", err)
		os.Exit(1)
	}

	// 7. Assemble the orchestration pipeline
	agentCatalog := agent.NewCatalog(cfg.Runtime.MaxToolIterations)
	builder := prompt.NewBuilder(st, cfg.Runtime)
	runner := agent.NewRunner(llmClient, registry, builder, cfg.Runtime.AgentTurnTimeout())
	orch := orchestrator.New(st, agentCatalog, classifier.New(llmClient), runner,
		metrics.New(), cfg.Runtime.RequestTimeout())

	// 8. Start the retention sweeper
	sweeper := cleanup.NewService(cfg.Retention, st, blobs)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// 9. Start the HTTP server
	gin.SetMode(gin.ReleaseMode)
	server := api.NewServer(st, blobs, orch, agentCatalog, extractor)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	// 10. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 11. Graceful shutdown; in-flight turns get a chance to persist
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		dbCfg, err := store.LoadPostgresConfigFromEnv()
		if err != nil {
			return nil, err
		}
		st, err := store.NewPostgresStore(ctx, dbCfg)
		if err != nil {
			return nil, err
		}
		slog.Info("Connected to PostgreSQL", "host", dbCfg.Host, "database", dbCfg.Database)
		return st, nil
	case "memory":
		slog.Warn("Using the in-memory store; data is lost on restart")
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.Blob.Driver {
	case "s3":
		return blob.NewS3Store(ctx, cfg.Blob.S3Bucket, cfg.Blob.S3Region, cfg.Blob.S3Prefix)
	case "local":
		return blob.NewLocalStore(cfg.Blob.LocalDir)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Blob.Driver)
	}
}
