// ABOUTME: Consistency command: reliability report over a batch of outputs
// ABOUTME: Reads texts from arguments, a file (one per line) or stdin
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/harper/driftcheck/internal/metrics"
	"github.com/harper/driftcheck/internal/models"
	"github.com/spf13/cobra"
)

var (
	consistencyFile      string
	consistencyThreshold float64
	consistencyZ         float64
	consistencyPairs     bool
)

// NewConsistencyCmd creates the consistency command
func NewConsistencyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consistency [texts...]",
		Short: "Evaluate how consistent a batch of outputs is",
		Long: `Evaluate how consistent a batch of outputs for the same prompt is.

Every pair of texts is scored. Reliability is the percentage of pairs at or
above the threshold and passes at 80. Stability is 100 minus 100 times the
standard deviation of the pair scores. Pairs whose z-score exceeds the
z-threshold are reported as outliers.

Exits non-zero when reliability fails.

Examples:
  driftcheck consistency "Paris" "It is Paris." "The capital is Paris."
  driftcheck consistency --file samples.txt --threshold 0.8
  generate-samples | driftcheck consistency --pairs`,
		RunE: runConsistency,
	}

	cmd.Flags().StringVar(&consistencyFile, "file", "", "Read texts from file, one per line")
	cmd.Flags().Float64Var(&consistencyThreshold, "threshold", 0, "Pair similarity threshold (default from DRIFTCHECK_SIMILARITY_THRESHOLD)")
	cmd.Flags().Float64Var(&consistencyZ, "z-threshold", 0, "Outlier z-score threshold (default from DRIFTCHECK_Z_THRESHOLD)")
	cmd.Flags().BoolVar(&consistencyPairs, "pairs", false, "Print every pair score")

	return cmd
}

func runConsistency(cmd *cobra.Command, args []string) error {
	texts, err := consistencyTexts(cmd, args)
	if err != nil {
		return err
	}
	if len(texts) < 2 {
		return fmt.Errorf("at least 2 texts are required, got %d", len(texts))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	threshold := cfg.SimilarityThreshold
	if cmd.Flags().Changed("threshold") {
		threshold = consistencyThreshold
	}
	z := cfg.ZThreshold
	if cmd.Flags().Changed("z-threshold") {
		z = consistencyZ
	}

	scorer, closeFn, err := openScorer(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	matrix, err := scorer.Pairwise(texts)
	if err != nil {
		return err
	}
	report, err := metrics.Summarize(matrix.Scores(), threshold, z)
	if err != nil {
		return err
	}

	if wantJSON(cmd) {
		out := map[string]any{"report": report, "model": scorer.Model()}
		if consistencyPairs {
			out["pairs"] = matrix.Pairs
		}
		if err := printJSON(cmd, out); err != nil {
			return err
		}
	} else {
		printReliability(cmd, report, matrix, texts)
	}

	if !report.Passed() {
		return fmt.Errorf("%w: reliability %.1f below %.0f", ErrCheckFailed, report.ReliabilityScore, metrics.PassCutoff)
	}
	return nil
}

func consistencyTexts(cmd *cobra.Command, args []string) ([]string, error) {
	switch {
	case consistencyFile != "":
		f, err := os.Open(consistencyFile)
		if err != nil {
			return nil, fmt.Errorf("reading file: %w", err)
		}
		defer f.Close()
		return readLines(f)
	case len(args) > 0:
		return args, nil
	default:
		return readLines(cmd.InOrStdin())
	}
}

func printReliability(cmd *cobra.Command, r models.ReliabilityReport, m models.SimilarityMatrix, texts []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Texts:        %d (%d comparisons)\n", len(texts), r.Comparisons)
	fmt.Fprintf(out, "Similarity:   avg %.4f, min %.4f, max %.4f, std dev %.4f\n", r.Average, r.Min, r.Max, r.StdDev)
	fmt.Fprintf(out, "Reliability:  %.1f (threshold %.2f) %s\n", r.ReliabilityScore, r.Threshold, r.Status)
	fmt.Fprintf(out, "Stability:    %.1f\n", r.StabilityScore)

	if len(r.Outliers) == 0 {
		fmt.Fprintln(out, "Outliers:     none")
	} else {
		pairs := make([]string, 0, len(r.Outliers))
		for _, idx := range r.Outliers {
			p := m.Pairs[idx]
			pairs = append(pairs, fmt.Sprintf("(%d,%d)=%.3f", p.I+1, p.J+1, p.Score))
		}
		fmt.Fprintf(out, "Outliers:     %s\n", strings.Join(pairs, " "))
	}

	if consistencyPairs {
		fmt.Fprintln(out)
		for _, p := range m.Pairs {
			fmt.Fprintf(out, "  %d-%d  %.4f  %q vs %q\n", p.I+1, p.J+1, p.Score, truncate(texts[p.I], 30), truncate(texts[p.J], 30))
		}
	}
}
