// ABOUTME: Embedder backed by the OpenAI embeddings API
// ABOUTME: Wraps the retrying llm client and reports failures as embedding errors
package embedding

import (
	"fmt"
	"sync/atomic"

	"github.com/harper/driftcheck/internal/models"
)

// VectorSource is the part of the OpenAI client the embedder needs
type VectorSource interface {
	GenerateEmbedding(text string) ([]float64, error)
}

// OpenAIEmbedder calls a remote embedding model.
// The dimension is learned from the first successful call unless configured.
type OpenAIEmbedder struct {
	source VectorSource
	model  string
	dim    atomic.Int64
	closed atomic.Bool
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// knownDimensions holds the output size of published OpenAI embedding models
var knownDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// KnownDimension returns the vector length of a published model, or 0
func KnownDimension(model string) int {
	return knownDimensions[model]
}

// NewOpenAIEmbedder wraps source; dim may be 0 when unknown
func NewOpenAIEmbedder(source VectorSource, model string, dim int) (*OpenAIEmbedder, error) {
	if source == nil {
		return nil, fmt.Errorf("embedding source is required")
	}
	if model == "" {
		return nil, fmt.Errorf("embedding model name is required")
	}
	e := &OpenAIEmbedder{source: source, model: model}
	e.dim.Store(int64(dim))
	return e, nil
}

// Embed returns the remote embedding for text.
// The API rejects empty input, so "" maps to the zero vector locally.
func (e *OpenAIEmbedder) Embed(text string) ([]float64, error) {
	if e.closed.Load() {
		return nil, models.NewEmbeddingError(e.model, len(text), ErrClosed)
	}
	if text == "" {
		return make([]float64, e.dim.Load()), nil
	}

	vec, err := e.source.GenerateEmbedding(text)
	if err != nil {
		return nil, models.NewEmbeddingError(e.model, len(text), err)
	}
	if len(vec) == 0 {
		return nil, models.NewEmbeddingError(e.model, len(text), fmt.Errorf("empty vector returned"))
	}

	if !e.dim.CompareAndSwap(0, int64(len(vec))) {
		if want := e.dim.Load(); int64(len(vec)) != want {
			return nil, models.NewEmbeddingError(e.model, len(text),
				fmt.Errorf("dimension mismatch: expected %d, got %d", want, len(vec)))
		}
	}

	return vec, nil
}

// Dimension returns the vector length, 0 before the first call when unconfigured
func (e *OpenAIEmbedder) Dimension() int {
	return int(e.dim.Load())
}

// Model returns the remote model name
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Close marks the embedder closed
func (e *OpenAIEmbedder) Close() error {
	e.closed.Store(true)
	return nil
}
