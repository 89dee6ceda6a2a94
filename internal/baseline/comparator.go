// ABOUTME: Compares a current output against its stored baseline
// ABOUTME: Scores with the similarity scorer and classifies with the regression detector
package baseline

import (
	"context"
	"fmt"

	"github.com/harper/driftcheck/internal/models"
	"github.com/harper/driftcheck/internal/regression"
	"github.com/harper/driftcheck/internal/similarity"
)

// Comparator runs regression checks against stored baselines.
// It only reads from the store.
type Comparator struct {
	store    Store
	scorer   *similarity.Scorer
	detector *regression.Detector
}

// NewComparator creates a comparator; a nil detector uses the default one
func NewComparator(store Store, scorer *similarity.Scorer, detector *regression.Detector) *Comparator {
	if detector == nil {
		detector = regression.NewDetector()
	}
	return &Comparator{store: store, scorer: scorer, detector: detector}
}

// Compare scores current against the baseline for promptID and classifies the drop.
// A missing baseline returns ErrNotFound; no baseline is created.
func (c *Comparator) Compare(ctx context.Context, promptID, current string, threshold float64) (models.RegressionVerdict, error) {
	entry, err := c.store.Get(ctx, promptID)
	if err != nil {
		return models.RegressionVerdict{}, err
	}

	score, err := c.score(entry, current)
	if err != nil {
		return models.RegressionVerdict{}, fmt.Errorf("failed to score against baseline %s: %w", promptID, err)
	}

	verdict, err := c.detector.Detect(score, threshold)
	if err != nil {
		return models.RegressionVerdict{}, err
	}
	verdict.PromptID = promptID
	return verdict, nil
}

// score uses the stored vector only when it came from the same embedding function
func (c *Comparator) score(entry *models.BaselineEntry, current string) (float64, error) {
	if entry.HasVector() && entry.Model == c.scorer.Model() {
		return c.scorer.SimilarityToVector(entry.Vector, current)
	}
	return c.scorer.Similarity(entry.Text, current)
}
