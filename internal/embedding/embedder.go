// ABOUTME: Embedding function lifecycle used by the similarity scorer
// ABOUTME: Backends are opened once, shared read-only, and released with Close
package embedding

import (
	"errors"
)

// ErrClosed is the cause reported when Embed is called after Close
var ErrClosed = errors.New("embedder is closed")

// Embedder maps text to a fixed-length vector.
// Identical text always maps to the identical vector for the same Embedder.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// Embed returns the vector for text. Failures match models.ErrEmbeddingFailure.
	Embed(text string) ([]float64, error)

	// Dimension returns the vector length, or 0 if not yet known
	Dimension() int

	// Model names the embedding function; scores are only comparable under one model
	Model() string

	// Close releases the backend; later Embed calls fail
	Close() error
}
