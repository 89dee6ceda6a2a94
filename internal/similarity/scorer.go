// ABOUTME: Similarity scorer mapping pairs of texts to a bounded consistency score
// ABOUTME: Also builds the pairwise matrix over a batch, embedding each text once
package similarity

import (
	"errors"
	"log/slog"
	"time"

	"github.com/harper/driftcheck/internal/embedding"
	"github.com/harper/driftcheck/internal/models"
)

// Scorer compares texts under a single embedding function.
// Scores from different embedders are not comparable.
//
// Thread Safety: safe for concurrent use when the embedder is.
type Scorer struct {
	embedder embedding.Embedder
	logger   *slog.Logger
}

// Option configures a Scorer
type Option func(*Scorer)

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScorer creates a scorer over embedder. The scorer never closes it.
func NewScorer(embedder embedding.Embedder, opts ...Option) *Scorer {
	s := &Scorer{
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the name of the embedding function in use
func (s *Scorer) Model() string {
	return s.embedder.Model()
}

// Embed exposes the underlying embedding for callers that persist vectors
func (s *Scorer) Embed(text string) ([]float64, error) {
	return s.embed(text)
}

// Similarity returns the consistency score of a and b in [0, 1]
func (s *Scorer) Similarity(a, b string) (float64, error) {
	va, err := s.embed(a)
	if err != nil {
		return 0, err
	}
	vb, err := s.embed(b)
	if err != nil {
		return 0, err
	}
	return score(va, vb)
}

// SimilarityToVector scores text against a previously computed vector
func (s *Scorer) SimilarityToVector(vec []float64, text string) (float64, error) {
	vt, err := s.embed(text)
	if err != nil {
		return 0, err
	}
	return score(vec, vt)
}

// Pairwise scores every unordered pair of texts.
// Fewer than two texts yields an empty matrix.
func (s *Scorer) Pairwise(texts []string) (models.SimilarityMatrix, error) {
	n := len(texts)
	matrix := models.SimilarityMatrix{Size: n, Pairs: make([]models.PairScore, 0, models.PairCount(n))}
	if n < 2 {
		return matrix, nil
	}

	start := time.Now()
	vectors := make([][]float64, n)
	for i, text := range texts {
		vec, err := s.embed(text)
		if err != nil {
			return models.SimilarityMatrix{}, err
		}
		vectors[i] = vec
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sc, err := score(vectors[i], vectors[j])
			if err != nil {
				return models.SimilarityMatrix{}, err
			}
			matrix.Pairs = append(matrix.Pairs, models.PairScore{I: i, J: j, Score: sc})
		}
	}

	s.logger.Debug("pairwise similarity computed",
		"texts", n,
		"pairs", len(matrix.Pairs),
		"model", s.embedder.Model(),
		"elapsed", time.Since(start))

	return matrix, nil
}

func (s *Scorer) embed(text string) ([]float64, error) {
	vec, err := s.embedder.Embed(text)
	if err != nil {
		if errors.Is(err, models.ErrEmbeddingFailure) {
			return nil, err
		}
		return nil, models.NewEmbeddingError(s.embedder.Model(), len(text), err)
	}
	return vec, nil
}

func score(a, b []float64) (float64, error) {
	raw, err := Cosine(a, b)
	if err != nil {
		return 0, err
	}
	return Clamp(raw), nil
}
