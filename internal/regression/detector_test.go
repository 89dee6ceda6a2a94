package regression

import (
	"bytes"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/harper/driftcheck/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name         string
		score        float64
		threshold    float64
		wantSeverity models.Severity
		wantDelta    float64
	}{
		{"above threshold", 0.80, 0.75, models.SeverityNone, 0},
		{"at threshold", 0.75, 0.75, models.SeverityNone, 0},
		{"slight drop", 0.70, 0.75, models.SeverityLow, 0.05},
		{"medium drop", 0.65, 0.75, models.SeverityMedium, 0.10},
		{"high drop", 0.50, 0.75, models.SeverityHigh, 0.25},
		{"critical drop", 0.40, 0.75, models.SeverityCritical, 0.35},
		{"total loss", 0, 1, models.SeverityCritical, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DetectRegression(tt.score, tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSeverity, v.Severity)
			assert.InDelta(t, tt.wantDelta, v.Delta, 1e-9)
			assert.Equal(t, tt.wantSeverity != models.SeverityNone, v.RegressionDetected)
			assert.Equal(t, tt.threshold, v.Threshold)
			assert.False(t, v.Clamped)
		})
	}
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		delta float64
		want  models.Severity
	}{
		{0, models.SeverityNone},
		{-0.2, models.SeverityNone},
		{1e-12, models.SeverityLow},
		{0.05, models.SeverityLow},
		{0.0500001, models.SeverityMedium},
		{0.15, models.SeverityMedium},
		{0.1500001, models.SeverityHigh},
		{0.30, models.SeverityHigh},
		{0.3000001, models.SeverityCritical},
		{1, models.SeverityCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.delta), "delta %v", tt.delta)
	}
}

// Deltas that are mathematically on a boundary must not slip into the next tier
func TestDetect_FloatingPointBoundaries(t *testing.T) {
	tests := []struct {
		score, threshold float64
		want             models.Severity
	}{
		{0.70, 0.75, models.SeverityLow},
		{0.60, 0.75, models.SeverityMedium},
		{0.45, 0.75, models.SeverityHigh},
		{0.65, 0.70, models.SeverityLow},
		{0.55, 0.70, models.SeverityMedium},
		{0.40, 0.70, models.SeverityHigh},
		{0.1, 0.4, models.SeverityHigh},
	}

	for _, tt := range tests {
		v, err := DetectRegression(tt.score, tt.threshold)
		require.NoError(t, err)
		assert.Equal(t, tt.want, v.Severity, "score %v threshold %v", tt.score, tt.threshold)
	}
}

func TestDetect_InvalidThreshold(t *testing.T) {
	for _, th := range []float64{-0.01, 1.01, math.NaN(), math.Inf(1)} {
		_, err := DetectRegression(0.5, th)
		assert.ErrorIs(t, err, models.ErrInvalidThreshold, "threshold %v", th)
	}
}

func TestDetect_NaNScore(t *testing.T) {
	_, err := DetectRegression(math.NaN(), 0.5)
	assert.ErrorIs(t, err, models.ErrInvalidScore)
	assert.NotErrorIs(t, err, models.ErrInvalidThreshold)
}

func TestDetect_ClampsOutOfRangeScores(t *testing.T) {
	var buf bytes.Buffer
	d := NewDetector(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	v, err := d.Detect(1.2, 0.75)
	require.NoError(t, err)
	assert.True(t, v.Clamped)
	assert.Equal(t, 1.0, v.Similarity)
	assert.Equal(t, models.SeverityNone, v.Severity)
	assert.Contains(t, buf.String(), "clamped")

	buf.Reset()
	v, err = d.Detect(-0.5, 0.75)
	require.NoError(t, err)
	assert.True(t, v.Clamped)
	assert.Equal(t, 0.0, v.Similarity)
	assert.Equal(t, models.SeverityCritical, v.Severity)
	assert.InDelta(t, 0.75, v.Delta, 1e-12)
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestDetect_ConcurrentUse(t *testing.T) {
	d := NewDetector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			score := float64(i%10) / 10
			v, err := d.Detect(score, 0.75)
			assert.NoError(t, err)
			assert.Equal(t, Classify(math.Max(0, 0.75-score)), v.Severity)
		}(i)
	}
	wg.Wait()
}
