// ABOUTME: Version command to display build information
// ABOUTME: Prints version, commit, build date and Go runtime as text or JSON
package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	versionInfo = VersionInfo{
		Version: "dev",
		Commit:  "none",
		Date:    "unknown",
	}
)

// VersionInfo contains build information
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// SetVersion sets the version information (called from main)
func SetVersion(version, commit, date string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.Date = date
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, build date and Go runtime for driftcheck.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if wantJSON(cmd) {
				return printJSON(cmd, struct {
					Name string `json:"name"`
					VersionInfo
					GoVersion string `json:"go_version"`
				}{"driftcheck", versionInfo, runtime.Version()})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "driftcheck %s\n", versionInfo.Version)
			fmt.Fprintf(out, "Commit: %s\n", versionInfo.Commit)
			fmt.Fprintf(out, "Built:  %s\n", versionInfo.Date)
			fmt.Fprintf(out, "Go:     %s\n", runtime.Version())
			return nil
		},
	}

	return cmd
}
