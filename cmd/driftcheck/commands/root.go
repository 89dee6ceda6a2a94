// ABOUTME: Root command, global flags and logging setup for the driftcheck CLI
// ABOUTME: Subcommands share the verbose/quiet/format flags defined here
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
	format  string
)

const banner = `
██████╗ ██████╗ ██╗███████╗████████╗
██╔══██╗██╔══██╗██║██╔════╝╚══██╔══╝
██║  ██║██████╔╝██║█████╗     ██║
██║  ██║██╔══██╗██║██╔══╝     ██║
██████╔╝██║  ██║██║██║        ██║
╚═════╝ ╚═╝  ╚═╝╚═╝╚═╝        ╚═╝   check`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "driftcheck",
		Short: "Measure consistency and regressions in generated text",
		Long: banner + `

driftcheck scores how consistently a text generator answers the same prompt
and whether its answers drift away from a stored baseline.

Pairwise semantic similarity feeds a reliability score (share of pairs at or
above the threshold; 80 or more passes), a stability score and outlier
detection. Baseline comparisons are classified as NONE, LOW, MEDIUM, HIGH or
CRITICAL regressions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "auto", "text", "json":
			default:
				return fmt.Errorf("invalid --format %q (valid: auto, text, json)", format)
			}
			// Load .env for API keys and overrides
			_ = godotenv.Load()
			setupLogging(cmd)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVar(&format, "format", "auto", "Output format: auto, text or json")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewScoreCmd())
	cmd.AddCommand(NewConsistencyCmd())
	cmd.AddCommand(NewRegressionCmd())
	cmd.AddCommand(NewBaselineCmd())
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// setupLogging installs a stderr text logger whose level follows the flags,
// falling back to DRIFTCHECK_LOG_LEVEL
func setupLogging(cmd *cobra.Command) {
	level := slog.LevelInfo
	if v := os.Getenv("DRIFTCHECK_LOG_LEVEL"); v != "" {
		_ = level.UnmarshalText([]byte(v))
	}
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}

	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
