// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Exposes scoring, consistency and baseline tools to LLM agents via stdio
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/driftcheck/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs driftcheck as an MCP (Model Context Protocol) server, letting LLM agents
like Claude score similarity, evaluate consistency and manage baselines via
stdio.

Configure in Claude Desktop's config file to enable the tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  driftcheck mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "driftcheck": {
  #       "command": "driftcheck",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	scorer, closeFn, err := openScorer(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	store, err := cfg.OpenBaselineStore()
	if err != nil {
		return fmt.Errorf("failed to open baseline store: %w", err)
	}

	handlers := mcp.NewHandlers(scorer, store,
		mcp.WithDefaults(cfg.SimilarityThreshold, cfg.ZThreshold),
		mcp.WithLogger(slog.Default()))
	server := mcp.NewServer(versionInfo.Version, handlers)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("driftcheck MCP server starting on stdio",
		"embedder", scorer.Model(),
		"baselines", cfg.BaselineBackend)

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, closing baseline store")
		if err := store.Close(); err != nil {
			slog.Warn("error closing baseline store", "error", err)
		}

	case err := <-serverErr:
		_ = store.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
