// ABOUTME: Run command: evaluate a scenario suite end to end
// ABOUTME: Generates samples, scores consistency, checks baselines and reports results
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/driftcheck/internal/baseline"
	"github.com/harper/driftcheck/internal/llm"
	"github.com/harper/driftcheck/internal/report"
	"github.com/harper/driftcheck/internal/suite"
	"github.com/harper/driftcheck/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	runSuite       string
	runMock        bool
	runOutput      string
	runFailOn      string
	runConcurrency int
	runNoBaseline  bool
	runMetricsFile string
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a consistency and regression suite",
		Long: `Run a suite of prompts against the configured generator.

Each scenario generates several samples, validates them against its criteria,
scores their pairwise consistency and compares the first sample with the
stored baseline for the scenario id, if one exists. Missing baselines are
reported and never created.

Without --suite the built-in default suite is used. --mock swaps the OpenAI
generator for canned responses so the pipeline can be exercised offline.

Exits non-zero when any scenario fails or errors.`,
		Example: `  # Built-in suite with canned responses
  driftcheck run --mock

  # Custom suite against OpenAI, writing a JSON report
  driftcheck run --suite prompts.yaml --output results.json

  # Only fail on serious baseline drift
  driftcheck run --suite prompts.yaml --fail-on high`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}

	cmd.Flags().StringVar(&runSuite, "suite", "", "Suite YAML file (default: built-in suite)")
	cmd.Flags().BoolVar(&runMock, "mock", false, "Use canned responses instead of OpenAI")
	cmd.Flags().StringVarP(&runOutput, "output", "o", "", "Also write the JSON report to this file")
	cmd.Flags().StringVar(&runFailOn, "fail-on", "LOW", "Lowest baseline regression severity that fails a scenario")
	cmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "Scenarios evaluated at once (default from DRIFTCHECK_CONCURRENCY)")
	cmd.Flags().BoolVar(&runNoBaseline, "no-baseline", false, "Skip baseline comparisons")
	cmd.Flags().StringVar(&runMetricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	failOn, err := parseFailOn(runFailOn)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tc := cfg.TelemetryConfig(versionInfo.Version)
	tc.Writer = cmd.ErrOrStderr()
	shutdownTracing, err := telemetry.Init(cmd.Context(), tc)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	s := suite.DefaultSuite()
	if runSuite != "" {
		s, err = suite.LoadFile(runSuite, cfg.SimilarityThreshold, cfg.ZThreshold)
		if err != nil {
			return err
		}
	}

	var gen llm.Generator
	if runMock {
		gen = mockGenerator()
	} else {
		client, err := llm.NewOpenAIClientWithConfig(cfg.ClientConfig())
		if err != nil {
			return fmt.Errorf("failed to create OpenAI client (set OPENAI_API_KEY or use --mock): %w", err)
		}
		gen = client
	}

	scorer, closeFn, err := openScorer(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	reg := prometheus.NewRegistry()
	m, err := suite.NewMetrics(reg)
	if err != nil {
		return err
	}

	concurrency := cfg.Concurrency
	if runConcurrency > 0 {
		concurrency = runConcurrency
	}
	opts := []suite.Option{
		suite.WithLogger(slog.Default()),
		suite.WithConcurrency(concurrency),
		suite.WithFailOn(failOn),
		suite.WithMetrics(m),
	}

	if !runNoBaseline {
		store, err := cfg.OpenBaselineStore()
		if err != nil {
			return fmt.Errorf("failed to open baseline store: %w", err)
		}
		defer store.Close()
		opts = append(opts, suite.WithComparator(baseline.NewComparator(store, scorer, nil)))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := suite.NewRunner(gen, scorer, opts...).Run(ctx, s)
	if result == nil {
		return runErr
	}

	if err := writeRunReport(cmd, result); err != nil {
		return err
	}
	if runMetricsFile != "" {
		if err := prometheus.WriteToTextfile(runMetricsFile, reg); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("run interrupted: %w", runErr)
	}
	if !result.OK() {
		return fmt.Errorf("%w: %d failed, %d errored of %d scenarios", ErrCheckFailed, result.Failed, result.Errored, len(result.Results))
	}
	return nil
}

func writeRunReport(cmd *cobra.Command, r *suite.Report) error {
	if runOutput != "" {
		if err := report.ExportFile(runOutput, r); err != nil {
			return err
		}
		slog.Info("report exported", "path", runOutput)
	}
	if wantJSON(cmd) {
		return report.WriteJSON(cmd.OutOrStdout(), r)
	}
	return report.PrintSummary(cmd.OutOrStdout(), r)
}

// mockGenerator returns canned responses for the built-in suite
func mockGenerator() *llm.MockClient {
	prompts := make(map[string]string)
	for _, sc := range suite.DefaultSuite().Scenarios {
		prompts[sc.ID] = sc.Prompt
	}

	return llm.NewMockClient(
		llm.WithMockModel("mock"),
		llm.WithVariants(prompts["factual-capital"],
			"The capital of France is Paris.",
			"The capital of France is Paris!",
			"the capital of France is Paris",
		),
		llm.WithVariants(prompts["deterministic-greeting"],
			"Hello and welcome! Great to have you here.",
		),
		llm.WithVariants(prompts["summary"],
			"Revenue grew 12% while costs stayed flat, driven by strong subscription renewals.",
			"Revenue grew 12%, while costs stayed flat; driven by strong subscription renewals.",
		),
		llm.WithVariants(prompts["sentiment"],
			"positive",
			"Positive.",
			"positive!",
		),
	)
}

