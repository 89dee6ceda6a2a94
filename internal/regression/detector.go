// ABOUTME: Regression detector comparing a current similarity score against a threshold
// ABOUTME: Assigns a severity tier from the shortfall; never reads or writes baselines
package regression

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/harper/driftcheck/internal/models"
)

// Tier upper bounds on delta, inclusive
const (
	LowMaxDelta    = 0.05
	MediumMaxDelta = 0.15
	HighMaxDelta   = 0.30
)

// boundaryTolerance absorbs binary rounding in threshold - score,
// e.g. 0.75 - 0.70 evaluates to 0.05000000000000004.
const boundaryTolerance = 1e-9

var defaultDetector = NewDetector()

// Detector classifies drops in similarity below a threshold.
//
// Thread Safety: stateless after construction, safe for concurrent use.
type Detector struct {
	logger *slog.Logger
}

// Option configures a Detector
type Option func(*Detector)

// WithLogger sets the logger used for clamp warnings
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDetector creates a regression detector
func NewDetector(opts ...Option) *Detector {
	d := &Detector{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect compares currentScore against threshold.
//
// Inputs:
//   - currentScore: similarity of the current output to its baseline. Values
//     outside [0, 1] are clamped and logged, and the verdict is marked Clamped.
//   - threshold: the minimum acceptable similarity, within [0, 1].
//
// Outputs:
//   - RegressionVerdict with delta = max(0, threshold - score) and its tier.
//   - ErrInvalidThreshold if threshold is outside [0, 1] or NaN.
//   - ErrInvalidScore if currentScore is NaN.
func (d *Detector) Detect(currentScore, threshold float64) (models.RegressionVerdict, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return models.RegressionVerdict{}, models.InvalidThreshold("regression threshold", threshold)
	}
	if math.IsNaN(currentScore) {
		return models.RegressionVerdict{}, fmt.Errorf("%w: current score is NaN", models.ErrInvalidScore)
	}

	score := currentScore
	clamped := false
	if score < 0 || score > 1 {
		score = math.Min(1, math.Max(0, score))
		clamped = true
		d.log().Warn("similarity score outside [0, 1], clamped",
			"score", currentScore,
			"clamped_to", score,
			"threshold", threshold)
	}

	delta := math.Max(0, threshold-score)
	severity := Classify(delta)

	return models.RegressionVerdict{
		Similarity:         score,
		Threshold:          threshold,
		RegressionDetected: severity != models.SeverityNone,
		Severity:           severity,
		Delta:              delta,
		Clamped:            clamped,
	}, nil
}

func (d *Detector) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return slog.Default()
}

// DetectRegression runs Detect on a default detector
func DetectRegression(currentScore, threshold float64) (models.RegressionVerdict, error) {
	return defaultDetector.Detect(currentScore, threshold)
}

// Classify maps a non-negative shortfall to its severity tier
func Classify(delta float64) models.Severity {
	switch {
	case delta <= 0:
		return models.SeverityNone
	case delta <= LowMaxDelta+boundaryTolerance:
		return models.SeverityLow
	case delta <= MediumMaxDelta+boundaryTolerance:
		return models.SeverityMedium
	case delta <= HighMaxDelta+boundaryTolerance:
		return models.SeverityHigh
	default:
		return models.SeverityCritical
	}
}
