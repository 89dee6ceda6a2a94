// ABOUTME: Baseline commands: record, inspect and check reference outputs per prompt
// ABOUTME: Backed by the store selected with DRIFTCHECK_BASELINE_BACKEND
package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/harper/driftcheck/internal/baseline"
	"github.com/harper/driftcheck/internal/models"
	"github.com/spf13/cobra"
)

var (
	baselineFile      string
	baselineThreshold float64
	baselineFailOn    string
)

// NewBaselineCmd creates the baseline command group
func NewBaselineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage reference outputs for regression checks",
		Long: `Manage reference outputs for regression checks.

A baseline is the accepted output for a prompt. It is only ever created by
'baseline set' and only replaced by 'baseline rebaseline'; checks against a
missing baseline fail instead of creating one.`,
	}

	cmd.AddCommand(newBaselineSetCmd(false))
	cmd.AddCommand(newBaselineSetCmd(true))
	cmd.AddCommand(newBaselineGetCmd())
	cmd.AddCommand(newBaselineListCmd())
	cmd.AddCommand(newBaselineDeleteCmd())
	cmd.AddCommand(newBaselineCheckCmd())

	return cmd
}

func newBaselineSetCmd(replace bool) *cobra.Command {
	use, short, done := "set", "Record the baseline for a prompt", "recorded"
	if replace {
		use, short, done = "rebaseline", "Replace the baseline for a prompt", "replaced"
	}

	cmd := &cobra.Command{
		Use:   use + " <prompt-id> [text]",
		Short: short,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args, 1, baselineFile)
			if err != nil {
				return err
			}

			env, err := openBaselines()
			if err != nil {
				return err
			}
			defer env.Close()

			var entry *models.BaselineEntry
			if replace {
				entry, err = env.manager.Rebaseline(cmd.Context(), args[0], text)
			} else {
				entry, err = env.manager.Establish(cmd.Context(), args[0], text)
			}
			switch {
			case errors.Is(err, baseline.ErrExists):
				return fmt.Errorf("baseline for %s already exists; use 'driftcheck baseline rebaseline' to replace it", args[0])
			case errors.Is(err, baseline.ErrNotFound):
				return fmt.Errorf("no baseline for %s to replace; use 'driftcheck baseline set' first", args[0])
			case err != nil:
				return err
			}

			if wantJSON(cmd) {
				return printJSON(cmd, entry)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Baseline %s for %s (%s)\n", done, entry.PromptID, entry.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&baselineFile, "file", "", "Read baseline text from file")
	return cmd
}

func newBaselineGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <prompt-id>",
		Short: "Show the baseline for a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openBaselines()
			if err != nil {
				return err
			}
			defer env.Close()

			entry, err := env.manager.Get(cmd.Context(), args[0])
			if errors.Is(err, baseline.ErrNotFound) {
				return fmt.Errorf("no baseline for %s", args[0])
			}
			if err != nil {
				return err
			}

			if wantJSON(cmd) {
				return printJSON(cmd, entry)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Prompt:  %s\n", entry.PromptID)
			fmt.Fprintf(out, "ID:      %s\n", entry.ID)
			fmt.Fprintf(out, "Model:   %s\n", entry.Model)
			fmt.Fprintf(out, "Created: %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Updated: %s\n", formatTime(entry.UpdatedAt))
			fmt.Fprintf(out, "\n%s\n", entry.Text)
			return nil
		},
	}
}

func newBaselineListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored baselines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openBaselines()
			if err != nil {
				return err
			}
			defer env.Close()

			entries, err := env.manager.List(cmd.Context())
			if err != nil {
				return err
			}

			if wantJSON(cmd) {
				return printJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No baselines stored")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PROMPT\tUPDATED\tTEXT")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.PromptID, formatTime(e.UpdatedAt), truncate(e.Text, 50))
			}
			return tw.Flush()
		},
	}
}

func newBaselineDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <prompt-id>",
		Short: "Delete the baseline for a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openBaselines()
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.manager.Delete(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, baseline.ErrNotFound) {
					return fmt.Errorf("no baseline for %s", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted baseline for %s\n", args[0])
			return nil
		},
	}
}

func newBaselineCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <prompt-id> [text]",
		Short: "Compare an output with the stored baseline",
		Long: `Compare a new output with the stored baseline for its prompt.

Exits non-zero when the regression severity reaches --fail-on.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			failOn, err := parseFailOn(baselineFailOn)
			if err != nil {
				return err
			}
			text, err := readText(cmd, args, 1, baselineFile)
			if err != nil {
				return err
			}

			env, err := openBaselines()
			if err != nil {
				return err
			}
			defer env.Close()

			threshold := env.cfg.SimilarityThreshold
			if cmd.Flags().Changed("threshold") {
				threshold = baselineThreshold
			}

			verdict, err := env.comparator.Compare(cmd.Context(), args[0], text, threshold)
			if errors.Is(err, baseline.ErrNotFound) {
				return fmt.Errorf("no baseline for %s; record one with 'driftcheck baseline set'", args[0])
			}
			if err != nil {
				return err
			}

			if wantJSON(cmd) {
				if err := printJSON(cmd, verdict); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Prompt:     %s\n", verdict.PromptID)
				fmt.Fprintf(out, "Severity:   %s\n", verdict.Severity)
				fmt.Fprintf(out, "Similarity: %.4f (threshold %.4f)\n", verdict.Similarity, verdict.Threshold)
				fmt.Fprintf(out, "Delta:      %.4f\n", verdict.Delta)
			}

			if verdict.RegressionDetected && verdict.Severity.AtLeast(failOn) {
				return fmt.Errorf("%w: %s regression against baseline", ErrCheckFailed, verdict.Severity)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baselineFile, "file", "", "Read output text from file")
	cmd.Flags().Float64Var(&baselineThreshold, "threshold", 0, "Minimum acceptable similarity (default from DRIFTCHECK_SIMILARITY_THRESHOLD)")
	cmd.Flags().StringVar(&baselineFailOn, "fail-on", "LOW", "Lowest severity that exits non-zero")
	return cmd
}
