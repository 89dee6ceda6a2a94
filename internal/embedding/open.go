// ABOUTME: Factory that builds the configured Embedder backend
// ABOUTME: Used by the CLI and MCP server so both share one construction path
package embedding

import (
	"fmt"
	"time"

	"github.com/harper/driftcheck/internal/llm"
)

const (
	BackendHash   = "hash"
	BackendOpenAI = "openai"
)

// Config selects and configures an embedding backend
type Config struct {
	Backend       string
	HashDimension int
	OpenAI        *llm.ClientConfig
	CacheTTL      time.Duration
}

// Open constructs the backend named by cfg.Backend, wrapped in a cache when CacheTTL > 0
func Open(cfg Config) (Embedder, error) {
	var (
		e   Embedder
		err error
	)

	switch cfg.Backend {
	case "", BackendHash:
		dim := cfg.HashDimension
		if dim == 0 {
			dim = DefaultHashDimension
		}
		e, err = NewHashEmbedder(dim)
	case BackendOpenAI:
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder requires client configuration")
		}
		client, cerr := llm.NewOpenAIClientWithConfig(cfg.OpenAI)
		if cerr != nil {
			return nil, fmt.Errorf("failed to create OpenAI client: %w", cerr)
		}
		e, err = NewOpenAIEmbedder(client, client.EmbeddingModel(), KnownDimension(client.EmbeddingModel()))
	default:
		return nil, fmt.Errorf("unknown embedder backend %q (valid: %s, %s)", cfg.Backend, BackendHash, BackendOpenAI)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheTTL > 0 {
		return NewCachedEmbedder(e, cfg.CacheTTL), nil
	}
	return e, nil
}
