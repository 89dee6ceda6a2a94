// ABOUTME: Cosine similarity over embedding vectors, bounded to [0, 1]
// ABOUTME: Zero vectors follow a fixed policy instead of producing NaN
package similarity

import (
	"fmt"
	"math"

	"github.com/harper/driftcheck/internal/models"
)

// Cosine returns the raw cosine similarity of a and b in [-1, 1].
// Both vectors zero counts as identical (1.0); exactly one zero vector
// shares no direction (0.0). An empty vector counts as a zero vector of
// any length. Other mismatched lengths are an embedding failure.
func Cosine(a, b []float64) (float64, error) {
	switch {
	case len(a) == 0 && len(b) == 0:
		return 1, nil
	case len(a) == 0 || len(b) == 0:
		return 0, nil
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: vector dimension mismatch (%d vs %d)", models.ErrEmbeddingFailure, len(a), len(b))
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	switch {
	case normA == 0 && normB == 0:
		return 1, nil
	case normA == 0 || normB == 0:
		return 0, nil
	}

	score := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("%w: non-finite similarity", models.ErrEmbeddingFailure)
	}
	return score, nil
}

// Clamp bounds x to [0, 1]
func Clamp(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
