// ABOUTME: Suite runner: generates samples per scenario and evaluates them concurrently
// ABOUTME: Combines validation, pairwise reliability metrics and optional baseline regression checks
package suite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/harper/driftcheck/internal/baseline"
	"github.com/harper/driftcheck/internal/llm"
	"github.com/harper/driftcheck/internal/metrics"
	"github.com/harper/driftcheck/internal/models"
	"github.com/harper/driftcheck/internal/similarity"
	"github.com/harper/driftcheck/internal/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of scenarios evaluated at once
const DefaultConcurrency = 4

// ScenarioResult is the outcome of one scenario
type ScenarioResult struct {
	ScenarioID       string                    `json:"scenario_id"`
	Name             string                    `json:"name"`
	Status           models.Status             `json:"status"`
	Reasons          []string                  `json:"reasons,omitempty"`
	Samples          []string                  `json:"samples,omitempty"`
	Reliability      *models.ReliabilityReport `json:"reliability,omitempty"`
	Validation       []validator.Result        `json:"validation,omitempty"`
	ValidationPassed int                       `json:"validation_passed"`
	Regression       *models.RegressionVerdict `json:"regression,omitempty"`
	BaselineMissing  bool                      `json:"baseline_missing,omitempty"`
	Duration         time.Duration             `json:"duration"`
	Error            string                    `json:"error,omitempty"`
}

// Report is the outcome of one suite run
type Report struct {
	RunID     string           `json:"run_id"`
	Suite     string           `json:"suite"`
	Model     string           `json:"embedding_model"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
	Results   []ScenarioResult `json:"results"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Errored   int              `json:"errored"`
}

// OK reports whether every scenario passed
func (r *Report) OK() bool {
	return r.Failed == 0 && r.Errored == 0
}

// Runner evaluates suites.
//
// Thread Safety: safe for concurrent use when its generator and embedder are.
type Runner struct {
	generator   llm.Generator
	scorer      *similarity.Scorer
	comparator  *baseline.Comparator
	concurrency int
	failOn      models.Severity
	logger      *slog.Logger
	metrics     *Metrics
	tracer      trace.Tracer
	now         func() time.Time
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConcurrency bounds the number of scenarios evaluated at once
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithComparator enables baseline regression checks
func WithComparator(c *baseline.Comparator) Option {
	return func(r *Runner) {
		r.comparator = c
	}
}

// WithFailOn sets the lowest regression severity that fails a scenario
func WithFailOn(s models.Severity) Option {
	return func(r *Runner) {
		if s.IsValid() {
			r.failOn = s
		}
	}
}

// WithMetrics records outcomes on m
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTracer sets the tracer used for run and scenario spans
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

// NewRunner creates a runner that generates with gen and scores with scorer
func NewRunner(gen llm.Generator, scorer *similarity.Scorer, opts ...Option) *Runner {
	r := &Runner{
		generator:   gen,
		scorer:      scorer,
		concurrency: DefaultConcurrency,
		failOn:      models.SeverityLow,
		logger:      slog.Default(),
		tracer:      otel.Tracer("github.com/harper/driftcheck/internal/suite"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates every scenario in s. Scenario failures never abort the run;
// only cancellation of ctx is returned as an error, alongside the partial report.
func (r *Runner) Run(ctx context.Context, s *Suite) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}

	report := &Report{
		RunID:     uuid.New().String(),
		Suite:     s.Name,
		Model:     r.scorer.Model(),
		StartedAt: r.now().UTC(),
		Results:   make([]ScenarioResult, len(s.Scenarios)),
	}

	ctx, span := r.tracer.Start(ctx, "suite.Run",
		trace.WithAttributes(
			attribute.String("suite.name", s.Name),
			attribute.String("suite.run_id", report.RunID),
			attribute.Int("suite.scenarios", len(s.Scenarios)),
		))
	defer span.End()

	r.logger.Info("suite run started",
		"suite", s.Name,
		"run_id", report.RunID,
		"scenarios", len(s.Scenarios),
		"concurrency", r.concurrency)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, sc := range s.Scenarios {
		g.Go(func() error {
			report.Results[i] = r.RunScenario(gCtx, sc)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range report.Results {
		switch res.Status {
		case models.StatusPass:
			report.Passed++
		case models.StatusFail:
			report.Failed++
		default:
			report.Errored++
		}
	}
	report.Duration = r.now().Sub(report.StartedAt)

	span.SetAttributes(
		attribute.Int("suite.passed", report.Passed),
		attribute.Int("suite.failed", report.Failed),
		attribute.Int("suite.errored", report.Errored),
	)

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run cancelled")
		return report, err
	}
	if report.OK() {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, fmt.Sprintf("%d failed, %d errored", report.Failed, report.Errored))
	}

	r.logger.Info("suite run finished",
		"run_id", report.RunID,
		"passed", report.Passed,
		"failed", report.Failed,
		"errored", report.Errored,
		"duration", report.Duration)

	return report, nil
}

// RunScenario generates and evaluates one scenario
func (r *Runner) RunScenario(ctx context.Context, sc Scenario) ScenarioResult {
	ctx, span := r.tracer.Start(ctx, "suite.Scenario",
		trace.WithAttributes(
			attribute.String("scenario.id", sc.ID),
			attribute.Int("scenario.samples", sc.Samples),
			attribute.Float64("scenario.temperature", sc.Temp()),
		))
	defer span.End()

	start := time.Now()
	res := r.evaluate(ctx, sc)
	res.Duration = time.Since(start)

	span.SetAttributes(attribute.String("scenario.status", string(res.Status)))
	if res.Status == models.StatusPass {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, string(res.Status))
	}

	r.metrics.observe(res)
	r.logger.Debug("scenario evaluated",
		"scenario", sc.ID,
		"status", res.Status,
		"reasons", res.Reasons,
		"duration", res.Duration)

	return res
}

func (r *Runner) evaluate(ctx context.Context, sc Scenario) ScenarioResult {
	res := ScenarioResult{ScenarioID: sc.ID, Name: sc.DisplayName()}

	completions, err := r.generator.GenerateMultiple(ctx, sc.Prompt, sc.Samples, sc.Temp())
	if err != nil {
		return errored(res, fmt.Errorf("generation failed: %w", err))
	}
	res.Samples = llm.Texts(completions)

	var reasons []string

	if !sc.Criteria.IsEmpty() {
		for _, c := range completions {
			v := sc.Criteria.CheckResponse(validator.Response{Text: c.Text, Latency: c.Latency, TokensUsed: c.TokensUsed})
			res.Validation = append(res.Validation, v)
			if v.Passed {
				res.ValidationPassed++
			}
		}
		if res.ValidationPassed < len(completions) {
			reasons = append(reasons, fmt.Sprintf("%d of %d samples failed validation", len(completions)-res.ValidationPassed, len(completions)))
		}
	}

	matrix, err := r.scorer.Pairwise(res.Samples)
	if err != nil {
		return errored(res, err)
	}
	report, err := metrics.Summarize(matrix.Scores(), sc.PairThreshold(), sc.ZThreshold)
	if err != nil {
		return errored(res, err)
	}
	res.Reliability = &report
	if !report.Passed() {
		reasons = append(reasons, fmt.Sprintf("reliability %.1f below %.0f", report.ReliabilityScore, metrics.PassCutoff))
	}

	if r.comparator != nil && len(res.Samples) > 0 {
		verdict, err := r.comparator.Compare(ctx, sc.ID, res.Samples[0], sc.BaselineCutoff())
		switch {
		case errors.Is(err, baseline.ErrNotFound):
			res.BaselineMissing = true
		case err != nil:
			return errored(res, fmt.Errorf("baseline comparison failed: %w", err))
		default:
			res.Regression = &verdict
			if verdict.RegressionDetected && verdict.Severity.AtLeast(r.failOn) {
				reasons = append(reasons, fmt.Sprintf("%s regression against baseline (similarity %.3f, delta %.3f)",
					verdict.Severity, verdict.Similarity, verdict.Delta))
			}
		}
	}

	res.Reasons = reasons
	res.Status = models.StatusPass
	if len(reasons) > 0 {
		res.Status = models.StatusFail
	}
	return res
}

func errored(res ScenarioResult, err error) ScenarioResult {
	res.Status = models.StatusError
	res.Error = err.Error()
	res.Reasons = append(res.Reasons, err.Error())
	return res
}
