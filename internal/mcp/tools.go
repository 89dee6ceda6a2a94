// ABOUTME: MCP tool definitions and registration for the driftcheck server
// ABOUTME: Defines JSON schemas for the scoring, consistency, regression and baseline tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ToolNames lists every registered tool in registration order
var ToolNames = []string{
	"score_similarity",
	"evaluate_consistency",
	"detect_regression",
	"set_baseline",
	"get_baseline",
	"list_baselines",
	"check_baseline",
}

// NewServer creates an MCP server with every driftcheck tool registered
func NewServer(version string, handlers *Handlers) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer(
		"driftcheck",
		version,
		mcpserver.WithToolCapabilities(false),
	)
	RegisterTools(server, handlers)
	return server
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, handlers *Handlers) {
	// 1. score_similarity - Semantic similarity of two texts
	server.AddTool(mcp.Tool{
		Name:        "score_similarity",
		Description: "Score the semantic similarity of two texts in [0, 1]. Identical texts score 1.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text_a": map[string]interface{}{
					"type":        "string",
					"description": "First text",
				},
				"text_b": map[string]interface{}{
					"type":        "string",
					"description": "Second text",
				},
			},
			Required: []string{"text_a", "text_b"},
		},
	}, handlers.ScoreSimilarity)

	// 2. evaluate_consistency - Reliability report over a batch of outputs
	server.AddTool(mcp.Tool{
		Name:        "evaluate_consistency",
		Description: "Compare every pair of outputs generated for the same prompt and report reliability, stability and outlier pairs. Reliability of 80 or more passes.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"texts": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Outputs to compare (at least 2)",
				},
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Pairwise similarity a pair must reach to count as consistent (default: 0.75)",
				},
				"z_threshold": map[string]interface{}{
					"type":        "number",
					"description": "Z-score above which a pair is an outlier (default: 2.0)",
				},
				"include_pairs": map[string]interface{}{
					"type":        "boolean",
					"description": "Include every pair score in the response",
				},
			},
			Required: []string{"texts"},
		},
	}, handlers.EvaluateConsistency)

	// 3. detect_regression - Classify a similarity score against a threshold
	server.AddTool(mcp.Tool{
		Name:        "detect_regression",
		Description: "Classify a similarity score against a threshold into NONE, LOW, MEDIUM, HIGH or CRITICAL.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"score": map[string]interface{}{
					"type":        "number",
					"description": "Current similarity score in [0, 1]",
				},
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Minimum acceptable score (default: 0.75)",
				},
			},
			Required: []string{"score"},
		},
	}, handlers.DetectRegression)

	// 4. set_baseline - Record the reference output for a prompt
	server.AddTool(mcp.Tool{
		Name:        "set_baseline",
		Description: "Record the reference output for a prompt. Fails if one exists unless rebaseline is true.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"prompt_id": map[string]interface{}{
					"type":        "string",
					"description": "Stable identifier of the prompt",
				},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Reference output",
				},
				"rebaseline": map[string]interface{}{
					"type":        "boolean",
					"description": "Replace an existing baseline",
				},
			},
			Required: []string{"prompt_id", "text"},
		},
	}, handlers.SetBaseline)

	// 5. get_baseline - Read a stored baseline
	server.AddTool(mcp.Tool{
		Name:        "get_baseline",
		Description: "Get the stored reference output for a prompt.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"prompt_id": map[string]interface{}{
					"type":        "string",
					"description": "Stable identifier of the prompt",
				},
			},
			Required: []string{"prompt_id"},
		},
	}, handlers.GetBaseline)

	// 6. list_baselines - List stored baselines
	server.AddTool(mcp.Tool{
		Name:        "list_baselines",
		Description: "List every stored baseline.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListBaselines)

	// 7. check_baseline - Compare a new output against its baseline
	server.AddTool(mcp.Tool{
		Name:        "check_baseline",
		Description: "Compare a new output with the stored baseline for its prompt and classify any regression.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"prompt_id": map[string]interface{}{
					"type":        "string",
					"description": "Stable identifier of the prompt",
				},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Current output",
				},
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Minimum acceptable similarity to the baseline (default: 0.75)",
				},
			},
			Required: []string{"prompt_id", "text"},
		},
	}, handlers.CheckBaseline)
}
