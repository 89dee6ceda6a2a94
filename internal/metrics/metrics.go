// ABOUTME: Reliability metrics over a batch of pairwise similarity scores
// ABOUTME: Pure functions: reliability pass rate, stability from spread, z-score outliers
package metrics

import (
	"fmt"
	"math"

	"github.com/harper/driftcheck/internal/models"
)

const (
	// PassCutoff is the reliability score a batch needs to PASS
	PassCutoff = 80.0

	// DefaultZThreshold flags scores more than two standard deviations from the mean
	DefaultZThreshold = 2.0

	// DefaultSimilarityThreshold is the consistency threshold used when none is configured
	DefaultSimilarityThreshold = 0.75
)

// Reliability is the share of scores meeting the threshold, scaled to 0-100
type Reliability struct {
	Score  float64       `json:"score"`
	Status models.Status `json:"status"`
}

// Stability reflects how tightly the scores cluster, scaled to 0-100
type Stability struct {
	Score  float64 `json:"score"`
	StdDev float64 `json:"std_dev"`
}

// ReliabilityScore returns 100 * |{s >= threshold}| / |scores|.
// Status is PASS when the score reaches PassCutoff.
func ReliabilityScore(scores []float64, threshold float64) (Reliability, error) {
	if err := validateThreshold(threshold); err != nil {
		return Reliability{}, err
	}
	if len(scores) == 0 {
		return Reliability{}, fmt.Errorf("%w: reliability needs at least one score", models.ErrInsufficientData)
	}

	passing := 0
	for _, s := range scores {
		if s >= threshold {
			passing++
		}
	}

	score := 100 * float64(passing) / float64(len(scores))
	status := models.StatusFail
	if score >= PassCutoff {
		status = models.StatusPass
	}

	return Reliability{Score: score, Status: status}, nil
}

// StabilityScore returns max(0, 100 - 100*σ) with σ the population standard deviation.
// Empty and single-score inputs have σ = 0 and score 100.
func StabilityScore(scores []float64) Stability {
	sd := StdDev(scores)
	return Stability{
		Score:  math.Max(0, 100-100*sd),
		StdDev: sd,
	}
}

// DetectOutliers returns, in ascending order, the indices whose |x-μ|/σ exceeds zThreshold.
// With σ = 0 nothing is an outlier, whatever the threshold. Negative or NaN
// thresholds are rejected.
func DetectOutliers(scores []float64, zThreshold float64) ([]int, error) {
	if math.IsNaN(zThreshold) || zThreshold < 0 {
		return nil, models.InvalidThreshold("z threshold", zThreshold)
	}

	outliers := []int{}
	sd := StdDev(scores)
	if sd == 0 {
		return outliers, nil
	}

	mu := Mean(scores)
	for i, s := range scores {
		if math.Abs(s-mu)/sd > zThreshold {
			outliers = append(outliers, i)
		}
	}
	return outliers, nil
}

// Summarize builds the full reliability report for a batch of pairwise scores
func Summarize(scores []float64, threshold, zThreshold float64) (models.ReliabilityReport, error) {
	rel, err := ReliabilityScore(scores, threshold)
	if err != nil {
		return models.ReliabilityReport{}, err
	}
	outliers, err := DetectOutliers(scores, zThreshold)
	if err != nil {
		return models.ReliabilityReport{}, err
	}
	stab := StabilityScore(scores)

	return models.ReliabilityReport{
		Average:          Mean(scores),
		Min:              Min(scores),
		Max:              Max(scores),
		StdDev:           stab.StdDev,
		ReliabilityScore: rel.Score,
		StabilityScore:   stab.Score,
		Status:           rel.Status,
		Threshold:        threshold,
		Comparisons:      len(scores),
		Outliers:         outliers,
	}, nil
}

// Mean returns the arithmetic mean, 0 for no scores
func Mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// Min returns the smallest score, 0 for no scores
func Min(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	m := scores[0]
	for _, s := range scores[1:] {
		m = math.Min(m, s)
	}
	return m
}

// Max returns the largest score, 0 for no scores
func Max(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	m := scores[0]
	for _, s := range scores[1:] {
		m = math.Max(m, s)
	}
	return m
}

// StdDev returns the population standard deviation.
// Identical scores give exactly 0 rather than rounding noise.
func StdDev(scores []float64) float64 {
	if len(scores) < 2 || Min(scores) == Max(scores) {
		return 0
	}

	mu := Mean(scores)
	var sum float64
	for _, s := range scores {
		d := s - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(scores)))
}

func validateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return models.InvalidThreshold("similarity threshold", threshold)
	}
	return nil
}
