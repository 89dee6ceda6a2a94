// ABOUTME: Renders suite reports as indented JSON or a plain-text summary table
// ABOUTME: Used by the run command and for exporting results to a file
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/harper/driftcheck/internal/suite"
)

// WriteJSON writes r to w as indented JSON
func WriteJSON(w io.Writer, r *suite.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ExportFile writes r to path as indented JSON
func ExportFile(path string, r *suite.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	if err := WriteJSON(f, r); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

// PrintSummary writes one row per scenario followed by the totals
func PrintSummary(w io.Writer, r *suite.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "SCENARIO\tSTATUS\tRELIABILITY\tSTABILITY\tVALID\tBASELINE\n")
	for _, res := range r.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			res.ScenarioID,
			res.Status,
			reliabilityCell(res),
			stabilityCell(res),
			validationCell(res),
			baselineCell(res))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, res := range r.Results {
		if len(res.Reasons) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", res.ScenarioID)
		for _, reason := range res.Reasons {
			fmt.Fprintf(w, "  - %s\n", reason)
		}
	}

	_, err := fmt.Fprintf(w, "\n%d passed, %d failed, %d errored in %s (embedding model %s)\n",
		r.Passed, r.Failed, r.Errored, r.Duration.Round(time.Millisecond), r.Model)
	return err
}

func reliabilityCell(res suite.ScenarioResult) string {
	if res.Reliability == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", res.Reliability.ReliabilityScore)
}

func stabilityCell(res suite.ScenarioResult) string {
	if res.Reliability == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", res.Reliability.StabilityScore)
}

func validationCell(res suite.ScenarioResult) string {
	if len(res.Validation) == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", res.ValidationPassed, len(res.Validation))
}

func baselineCell(res suite.ScenarioResult) string {
	switch {
	case res.BaselineMissing:
		return "missing"
	case res.Regression == nil:
		return "-"
	default:
		return strings.ToLower(string(res.Regression.Severity)) + fmt.Sprintf(" (%.3f)", res.Regression.Similarity)
	}
}
