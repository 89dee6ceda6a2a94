// ABOUTME: Standalone driftcheck MCP server with stdio transport
// ABOUTME: Same tools as 'driftcheck mcp' for hosts that launch a dedicated binary
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/harper/driftcheck/internal/config"
	"github.com/harper/driftcheck/internal/embedding"
	"github.com/harper/driftcheck/internal/mcp"
	"github.com/harper/driftcheck/internal/similarity"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

var version = "dev"

func main() {
	// Load .env file if it exists (for API keys)
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("driftcheck MCP server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// stdout carries the protocol, so logs go to stderr
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if cfg.Embedder == embedding.BackendOpenAI && cfg.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for the openai embedder")
	}

	e, err := embedding.Open(cfg.EmbeddingConfig())
	if err != nil {
		return fmt.Errorf("failed to open embedder: %w", err)
	}
	defer e.Close()

	store, err := cfg.OpenBaselineStore()
	if err != nil {
		return fmt.Errorf("failed to open baseline store: %w", err)
	}
	defer store.Close()

	scorer := similarity.NewScorer(e, similarity.WithLogger(logger))
	handlers := mcp.NewHandlers(scorer, store,
		mcp.WithDefaults(cfg.SimilarityThreshold, cfg.ZThreshold),
		mcp.WithLogger(logger))

	logger.Info("driftcheck MCP server starting on stdio", "embedder", scorer.Model(), "baselines", cfg.BaselineBackend)
	return mcpserver.ServeStdio(mcp.NewServer(version, handlers))
}
