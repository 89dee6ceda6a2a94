// ABOUTME: Regression command: classify a similarity score against a threshold
// ABOUTME: Exits non-zero when the severity reaches --fail-on
package commands

import (
	"fmt"

	"github.com/harper/driftcheck/internal/regression"
	"github.com/spf13/cobra"
)

var (
	regressionScore     float64
	regressionThreshold float64
	regressionFailOn    string
)

// NewRegressionCmd creates the regression command
func NewRegressionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regression",
		Short: "Classify a similarity score against a threshold",
		Long: `Classify how far a similarity score fell below its threshold.

Severity tiers by delta (threshold minus score):
  NONE      score at or above threshold
  LOW       delta up to 0.05
  MEDIUM    delta up to 0.15
  HIGH      delta up to 0.30
  CRITICAL  delta above 0.30

Examples:
  driftcheck regression --score 0.62 --threshold 0.75
  driftcheck regression --score 0.70 --fail-on high`,
		Args: cobra.NoArgs,
		RunE: runRegression,
	}

	cmd.Flags().Float64Var(&regressionScore, "score", 0, "Current similarity score in [0, 1]")
	cmd.Flags().Float64Var(&regressionThreshold, "threshold", 0, "Minimum acceptable score (default from DRIFTCHECK_SIMILARITY_THRESHOLD)")
	cmd.Flags().StringVar(&regressionFailOn, "fail-on", "LOW", "Lowest severity that exits non-zero")
	_ = cmd.MarkFlagRequired("score")

	return cmd
}

func runRegression(cmd *cobra.Command, args []string) error {
	failOn, err := parseFailOn(regressionFailOn)
	if err != nil {
		return err
	}

	threshold := regressionThreshold
	if !cmd.Flags().Changed("threshold") {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		threshold = cfg.SimilarityThreshold
	}

	verdict, err := regression.NewDetector().Detect(regressionScore, threshold)
	if err != nil {
		return err
	}

	if wantJSON(cmd) {
		if err := printJSON(cmd, verdict); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Severity:   %s\n", verdict.Severity)
		fmt.Fprintf(out, "Similarity: %.4f (threshold %.4f)\n", verdict.Similarity, verdict.Threshold)
		fmt.Fprintf(out, "Delta:      %.4f\n", verdict.Delta)
	}

	if verdict.RegressionDetected && verdict.Severity.AtLeast(failOn) {
		return fmt.Errorf("%w: %s regression", ErrCheckFailed, verdict.Severity)
	}
	return nil
}
