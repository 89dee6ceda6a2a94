package suite

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/harper/driftcheck/internal/baseline"
	"github.com/harper/driftcheck/internal/embedding"
	"github.com/harper/driftcheck/internal/llm"
	"github.com/harper/driftcheck/internal/models"
	"github.com/harper/driftcheck/internal/similarity"
	"github.com/harper/driftcheck/internal/validator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const (
	stablePrompt   = "What is the capital of France?"
	unstablePrompt = "Tell me something."
)

func newScorer(t *testing.T) *similarity.Scorer {
	t.Helper()
	e, err := embedding.NewHashEmbedder(embedding.DefaultHashDimension)
	require.NoError(t, err)
	return similarity.NewScorer(e)
}

func newGenerator() *llm.MockClient {
	return llm.NewMockClient(
		llm.WithVariants(stablePrompt,
			"The capital of France is Paris.",
			"The capital of France is Paris!",
			"Paris is the capital of France.",
		),
		llm.WithVariants(unstablePrompt,
			"Octopuses have three hearts.",
			"The stock market closed higher on Tuesday.",
			"Bake the bread at 220 degrees for forty minutes.",
			"Saturn's rings are mostly ice.",
		),
	)
}

func testSuite() *Suite {
	s := &Suite{
		Name: "test",
		Scenarios: []Scenario{
			{ID: "stable", Prompt: stablePrompt, Samples: 3, Criteria: validator.Criteria{MustInclude: []string{"Paris"}}},
			{ID: "unstable", Prompt: unstablePrompt, Samples: 4},
		},
	}
	s.ApplyDefaults(0.6, 0)
	return s
}

func TestRunner_Run(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	r := NewRunner(newGenerator(), newScorer(t), WithMetrics(m), WithConcurrency(2))
	report, err := r.Run(context.Background(), testSuite())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "test", report.Suite)
	assert.Equal(t, "hash-256", report.Model)
	require.Len(t, report.Results, 2)

	stable := report.Results[0]
	assert.Equal(t, "stable", stable.ScenarioID)
	assert.Equal(t, models.StatusPass, stable.Status, stable.Reasons)
	assert.Equal(t, 3, stable.ValidationPassed)
	require.NotNil(t, stable.Reliability)
	assert.Equal(t, 3, stable.Reliability.Comparisons)

	unstable := report.Results[1]
	assert.Equal(t, models.StatusFail, unstable.Status)
	require.NotNil(t, unstable.Reliability)
	assert.Equal(t, 6, unstable.Reliability.Comparisons)
	assert.Less(t, unstable.Reliability.ReliabilityScore, 80.0)
	assert.NotEmpty(t, unstable.Reasons)

	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, report.Errored)
	assert.False(t, report.OK())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.scenarios.WithLabelValues("PASS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scenarios.WithLabelValues("FAIL")))
}

func TestRunner_TokenBudget(t *testing.T) {
	tests := []struct {
		name      string
		maxTokens int
		status    models.Status
		passed    int
	}{
		// mock usage is len(text)/4, 7 tokens for each stable variant
		{"within budget", 7, models.StatusPass, 3},
		{"over budget", 5, models.StatusFail, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Suite{Name: "tokens", Scenarios: []Scenario{{
				ID:       "budget",
				Prompt:   stablePrompt,
				Samples:  3,
				Criteria: validator.Criteria{MaxTokens: tt.maxTokens},
			}}}
			s.ApplyDefaults(0.6, 0)

			report, err := NewRunner(newGenerator(), newScorer(t)).Run(context.Background(), s)
			require.NoError(t, err)
			res := report.Results[0]
			assert.Equal(t, tt.status, res.Status, res.Reasons)
			assert.Equal(t, tt.passed, res.ValidationPassed)
			require.Len(t, res.Validation, 3)
			assert.Equal(t, "tokens", res.Validation[0].Criteria[0].Name)
		})
	}
}

func TestRunner_GenerationFailureIsError(t *testing.T) {
	gen := llm.NewMockClient(llm.WithFailure(errors.New("503 service unavailable")))
	r := NewRunner(gen, newScorer(t))

	report, err := r.Run(context.Background(), testSuite())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Errored)
	for _, res := range report.Results {
		assert.Equal(t, models.StatusError, res.Status)
		assert.Contains(t, res.Error, "503")
	}
}

func TestRunner_EmbeddingFailureIsError(t *testing.T) {
	e, err := embedding.NewHashEmbedder(16)
	require.NoError(t, err)
	require.NoError(t, e.Close())

	r := NewRunner(newGenerator(), similarity.NewScorer(e))
	report, err := r.Run(context.Background(), testSuite())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Errored, "embedding errors must never count as a pass")
}

func TestRunner_BaselineRegression(t *testing.T) {
	ctx := context.Background()
	scorer := newScorer(t)
	store := baseline.NewMemoryStore()
	mgr := baseline.NewManager(store, baseline.WithVectors(scorer))

	_, err := mgr.Establish(ctx, "stable", "Bananas are rich in potassium and fibre.")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	r := NewRunner(newGenerator(), scorer,
		WithComparator(baseline.NewComparator(store, scorer, nil)),
		WithMetrics(m))

	report, err := r.Run(ctx, testSuite())
	require.NoError(t, err)

	stable := report.Results[0]
	require.NotNil(t, stable.Regression)
	assert.Equal(t, models.SeverityCritical, stable.Regression.Severity)
	assert.Equal(t, models.StatusFail, stable.Status)

	unstable := report.Results[1]
	assert.True(t, unstable.BaselineMissing)
	assert.Nil(t, unstable.Regression)
	_, err = store.Get(ctx, "unstable")
	assert.ErrorIs(t, err, baseline.ErrNotFound, "runs must not establish baselines")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.regressions.WithLabelValues("CRITICAL")))
}

// tableEmbedder maps known texts to fixed vectors so similarities are exact
type tableEmbedder map[string][]float64

func (t tableEmbedder) Embed(text string) ([]float64, error) {
	v, ok := t[text]
	if !ok {
		return nil, models.NewEmbeddingError("table", len(text), errors.New("unknown text"))
	}
	return v, nil
}

func (t tableEmbedder) Dimension() int { return 2 }
func (t tableEmbedder) Model() string  { return "table" }
func (t tableEmbedder) Close() error   { return nil }

func TestRunner_FailOnThreshold(t *testing.T) {
	ctx := context.Background()
	scorer := similarity.NewScorer(tableEmbedder{
		"reference answer": {1, 0},
		"drifted answer":   {0.85, math.Sqrt(1 - 0.85*0.85)},
	})
	store := baseline.NewMemoryStore()
	_, err := baseline.NewManager(store, baseline.WithVectors(scorer)).Establish(ctx, "drift", "reference answer")
	require.NoError(t, err)

	s := &Suite{Name: "fail-on", Scenarios: []Scenario{
		{ID: "drift", Prompt: "p", Samples: 3, Threshold: Float(0.9), BaselineThreshold: Float(0.95)},
	}}
	s.ApplyDefaults(0, 0)
	gen := func() *llm.MockClient {
		return llm.NewMockClient(llm.WithVariants("p", "drifted answer"))
	}

	tests := []struct {
		name   string
		failOn models.Severity
		want   models.Status
	}{
		{"default fails on low", "", models.StatusFail},
		{"medium", models.SeverityMedium, models.StatusFail},
		{"high", models.SeverityHigh, models.StatusPass},
		{"critical", models.SeverityCritical, models.StatusPass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(gen(), scorer,
				WithComparator(baseline.NewComparator(store, scorer, nil)),
				WithFailOn(tt.failOn))
			report, err := r.Run(ctx, s)
			require.NoError(t, err)

			res := report.Results[0]
			require.NotNil(t, res.Regression)
			assert.Equal(t, models.SeverityMedium, res.Regression.Severity)
			assert.InDelta(t, 0.85, res.Regression.Similarity, 1e-9)
			assert.Equal(t, tt.want, res.Status, res.Reasons)
		})
	}
}

func TestWithFailOn_IgnoresUnknownTier(t *testing.T) {
	r := NewRunner(newGenerator(), newScorer(t), WithFailOn(models.Severity("BOGUS")))
	assert.Equal(t, models.SeverityLow, r.failOn)
}

func TestRunner_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := NewRunner(newGenerator(), newScorer(t), WithTracer(tp.Tracer("test")))
	_, err := r.Run(context.Background(), testSuite())
	require.NoError(t, err)

	names := map[string]int{}
	for _, s := range recorder.Ended() {
		names[s.Name()]++
	}
	assert.Equal(t, 1, names["suite.Run"])
	assert.Equal(t, 2, names["suite.Scenario"])
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(newGenerator(), newScorer(t))
	report, err := r.Run(ctx, testSuite())
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Errored)
}

func TestRunner_InvalidSuite(t *testing.T) {
	r := NewRunner(newGenerator(), newScorer(t))
	_, err := r.Run(context.Background(), &Suite{Name: "empty"})
	assert.Error(t, err)
}

func TestNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)

	first.scenarios.WithLabelValues("PASS").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(second.scenarios.WithLabelValues("PASS")))
}
