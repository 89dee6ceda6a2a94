// ABOUTME: Sync commands for Charm cloud synchronization of baselines
// ABOUTME: Provides status, immediate sync and local wipe
package commands

import (
	"fmt"

	"github.com/harper/driftcheck/internal/baseline"
	"github.com/spf13/cobra"
)

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage Charm cloud synchronization",
		Long: `Manage synchronization of baselines with Charm cloud.

With DRIFTCHECK_BASELINE_BACKEND=charm, baselines live in a local Charm KV
database that syncs across devices linked to the same Charm account via SSH
keys.`,
	}

	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncNowCmd())
	cmd.AddCommand(newSyncWipeCmd())

	return cmd
}

func openCharmStore() (*baseline.CharmStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := baseline.OpenCharm(cfg.CharmConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Charm: %w", err)
	}
	return store, nil
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status and connection info",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			id, err := baseline.CharmID()
			if err != nil {
				fmt.Fprintln(out, "Status: Not connected")
				fmt.Fprintf(out, "Reason: %v\n", err)
				return nil
			}

			store, err := openCharmStore()
			if err != nil {
				return err
			}
			defer store.Close()

			count, err := store.Count()
			if err != nil {
				return fmt.Errorf("failed to count baselines: %w", err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Status: Connected")
			fmt.Fprintf(out, "User ID: %s\n", id)
			fmt.Fprintf(out, "Host: %s\n", cfg.CharmHost)
			fmt.Fprintf(out, "Database: %s\n", cfg.CharmDBName)
			fmt.Fprintf(out, "Baselines: %d\n", count)
			return nil
		},
	}
}

func newSyncNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Force immediate sync with Charm cloud",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCharmStore()
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "Syncing...")
			if err := store.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Sync complete")
			return nil
		},
	}
}

func newSyncWipeCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Wipe all local baseline data (nuclear option)",
		Long: `Completely wipe all local Charm baseline data.

WARNING: This deletes all locally cached baselines. Your cloud data
remains intact and will be re-synced on next access.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Fprintln(cmd.OutOrStdout(), "This will wipe ALL local baseline data!")
				fmt.Fprintln(cmd.OutOrStdout(), "Run with --confirm to proceed")
				return nil
			}

			store, err := openCharmStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Reset(); err != nil {
				return fmt.Errorf("failed to wipe data: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Local data wiped successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the wipe operation")

	return cmd
}
