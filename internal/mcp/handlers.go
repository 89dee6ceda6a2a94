// ABOUTME: MCP tool handler implementations for the driftcheck server
// ABOUTME: Every failure is returned as a tool error result, never as a transport error
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/harper/driftcheck/internal/baseline"
	"github.com/harper/driftcheck/internal/metrics"
	"github.com/harper/driftcheck/internal/models"
	"github.com/harper/driftcheck/internal/regression"
	"github.com/harper/driftcheck/internal/similarity"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	scorer     *similarity.Scorer
	detector   *regression.Detector
	manager    *baseline.Manager
	comparator *baseline.Comparator
	threshold  float64
	zThreshold float64
	logger     *slog.Logger
}

// Option configures Handlers
type Option func(*Handlers)

// WithDefaults sets the thresholds used when a call omits them
func WithDefaults(threshold, zThreshold float64) Option {
	return func(h *Handlers) {
		h.threshold = threshold
		h.zThreshold = zThreshold
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handlers) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandlers creates handlers scoring with scorer and keeping baselines in store
func NewHandlers(scorer *similarity.Scorer, store baseline.Store, opts ...Option) *Handlers {
	h := &Handlers{
		scorer:     scorer,
		threshold:  metrics.DefaultSimilarityThreshold,
		zThreshold: metrics.DefaultZThreshold,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.detector = regression.NewDetector(regression.WithLogger(h.logger))
	h.manager = baseline.NewManager(store, baseline.WithVectors(scorer), baseline.WithManagerLogger(h.logger))
	h.comparator = baseline.NewComparator(store, scorer, h.detector)
	return h
}

// ScoreSimilarity handles the score_similarity tool
func (h *Handlers) ScoreSimilarity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := request.RequireString("text_a")
	if err != nil {
		return mcp.NewToolResultError("text_a argument is required and must be a string"), nil
	}
	b, err := request.RequireString("text_b")
	if err != nil {
		return mcp.NewToolResultError("text_b argument is required and must be a string"), nil
	}

	score, err := h.scorer.Similarity(a, b)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"similarity": score,
		"model":      h.scorer.Model(),
	})
}

// EvaluateConsistency handles the evaluate_consistency tool
func (h *Handlers) EvaluateConsistency(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	texts, err := request.RequireStringSlice("texts")
	if err != nil {
		return mcp.NewToolResultError("texts argument is required and must be an array of strings"), nil
	}
	if len(texts) < 2 {
		return mcp.NewToolResultError(fmt.Sprintf("at least 2 texts are required, got %d", len(texts))), nil
	}
	threshold := request.GetFloat("threshold", h.threshold)
	z := request.GetFloat("z_threshold", h.zThreshold)

	matrix, err := h.scorer.Pairwise(texts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}
	report, err := metrics.Summarize(matrix.Scores(), threshold, z)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluation failed: %v", err)), nil
	}

	response := map[string]any{
		"report": report,
		"model":  h.scorer.Model(),
	}
	if request.GetBool("include_pairs", false) {
		response["pairs"] = matrix.Pairs
	}
	return jsonResult(response)
}

// DetectRegression handles the detect_regression tool
func (h *Handlers) DetectRegression(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	score, err := request.RequireFloat("score")
	if err != nil {
		return mcp.NewToolResultError("score argument is required and must be a number"), nil
	}
	threshold := request.GetFloat("threshold", h.threshold)

	verdict, err := h.detector.Detect(score, threshold)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(verdict)
}

// SetBaseline handles the set_baseline tool
func (h *Handlers) SetBaseline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	promptID, err := request.RequireString("prompt_id")
	if err != nil {
		return mcp.NewToolResultError("prompt_id argument is required and must be a string"), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required and must be a string"), nil
	}

	var entry *models.BaselineEntry
	if request.GetBool("rebaseline", false) {
		entry, err = h.manager.Rebaseline(ctx, promptID, text)
	} else {
		entry, err = h.manager.Establish(ctx, promptID, text)
	}
	switch {
	case errors.Is(err, baseline.ErrExists):
		return mcp.NewToolResultError(fmt.Sprintf("baseline for %s already exists; pass rebaseline=true to replace it", promptID)), nil
	case errors.Is(err, baseline.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("no baseline for %s to replace", promptID)), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("failed to store baseline: %v", err)), nil
	}

	return jsonResult(entrySummary(entry))
}

// GetBaseline handles the get_baseline tool
func (h *Handlers) GetBaseline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	promptID, err := request.RequireString("prompt_id")
	if err != nil {
		return mcp.NewToolResultError("prompt_id argument is required and must be a string"), nil
	}

	entry, err := h.manager.Get(ctx, promptID)
	if errors.Is(err, baseline.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no baseline for %s", promptID)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load baseline: %v", err)), nil
	}

	return jsonResult(entrySummary(entry))
}

// ListBaselines handles the list_baselines tool
func (h *Handlers) ListBaselines(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := h.manager.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list baselines: %v", err)), nil
	}

	summaries := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, entrySummary(e))
	}
	return jsonResult(map[string]any{
		"baselines": summaries,
		"count":     len(summaries),
	})
}

// CheckBaseline handles the check_baseline tool
func (h *Handlers) CheckBaseline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	promptID, err := request.RequireString("prompt_id")
	if err != nil {
		return mcp.NewToolResultError("prompt_id argument is required and must be a string"), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required and must be a string"), nil
	}
	threshold := request.GetFloat("threshold", h.threshold)

	verdict, err := h.comparator.Compare(ctx, promptID, text, threshold)
	if errors.Is(err, baseline.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no baseline for %s; set one with set_baseline first", promptID)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("comparison failed: %v", err)), nil
	}

	h.logger.Debug("baseline checked", "prompt_id", promptID, "severity", verdict.Severity)
	return jsonResult(verdict)
}

func entrySummary(e *models.BaselineEntry) map[string]any {
	return map[string]any{
		"id":         e.ID,
		"prompt_id":  e.PromptID,
		"text":       e.Text,
		"model":      e.Model,
		"has_vector": e.HasVector(),
		"created_at": e.CreatedAt.Format(time.RFC3339),
		"updated_at": e.UpdatedAt.Format(time.RFC3339),
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
