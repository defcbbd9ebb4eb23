package cmd

import (
	"fmt"
	"os"

	fleetsync "fleet-sync/feature/sync"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncOrg    string
	syncFull   bool
	syncDryRun bool
	syncJSON   bool
	runsLimit  int
)

// syncCmd runs one sync for an integration.
var syncCmd = &cobra.Command{
	Use:   "sync <integration-id>",
	Short: "Synchronize an integration with its provider",
	Long: `Reconciles the canonical devices of an integration with the provider inventory.

Examples:
  # Incremental sync
  sync 5f0c... --org acme

  # Full sync, devices missing remotely are retired
  sync 5f0c... --org acme --full

  # Preview a full sync without writing anything
  sync 5f0c... --org acme --full --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()

		deps, err := rt.syncDeps()
		if err != nil {
			return err
		}
		svc := fleetsync.NewService(deps)

		result, err := svc.SyncIntegration(cmd.Context(), syncOrg, args[0], fleetsync.Options{FullSync: syncFull, DryRun: syncDryRun})
		if result != nil {
			if syncJSON {
				if jsonErr := writeJSON(result); jsonErr != nil {
					return jsonErr
				}
			} else {
				printResult(result)
			}
		}
		if err != nil {
			return err
		}

		rt.logger.Info("Sync command completed", zap.String("status", string(result.Status)))
		return nil
	},
}

// runsCmd lists the run history.
var runsCmd = &cobra.Command{
	Use:   "runs [integration-id]",
	Short: "List recent sync runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()

		integrationID := ""
		if len(args) == 1 {
			integrationID = args[0]
		}

		svc := fleetsync.NewService(fleetsync.Deps{Store: rt.store, Logger: rt.logger})
		runs, err := svc.Runs(cmd.Context(), syncOrg, integrationID, runsLimit)
		if err != nil {
			return err
		}

		fmt.Printf("%-36s  %-11s  %-9s  %-20s  %5s  %5s  %5s  %5s\n", "RUN", "MODE", "STATUS", "STARTED", "TOTAL", "CREAT", "UPDAT", "CONFL")
		for _, r := range runs {
			fmt.Printf("%-36s  %-11s  %-9s  %-20s  %5d  %5d  %5d  %5d\n",
				r.ID, r.Mode, r.Status, r.StartedAt.UTC().Format("2006-01-02 15:04:05"),
				r.DevicesTotal, r.Created, r.Updated, r.ConflictsDetected)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(syncCmd, runsCmd)

	syncCmd.Flags().StringVar(&syncOrg, "org", "", "Organization owning the integration")
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "Full sync (allows retiring devices missing remotely)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Compute the outcome without writing")
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "Print the full result as JSON")
	_ = syncCmd.MarkFlagRequired("org")

	runsCmd.Flags().StringVar(&syncOrg, "org", "", "Organization owning the runs")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs")
	_ = runsCmd.MarkFlagRequired("org")
}

func printResult(r *fleetsync.Result) {
	title := "Sync Result"
	if r.DryRun {
		title = "Sync Result (dry run)"
	}
	fmt.Printf("\n=== %s ===\n", title)
	if r.RunID != "" {
		fmt.Printf("Run: %s\n", r.RunID)
	}
	fmt.Printf("Mode: %s\n", r.Mode)
	fmt.Printf("Status: %s\n", r.Status)
	fmt.Printf("Devices: %d total, %d succeeded, %d failed\n", r.DevicesTotal, r.DevicesSucceeded, r.DevicesFailed)
	fmt.Printf("Created: %d\n", len(r.Created))
	fmt.Printf("Updated: %d\n", len(r.Updated))
	fmt.Printf("Retired: %d\n", len(r.Retired))
	fmt.Printf("Unchanged: %d\n", len(r.Unchanged))
	fmt.Printf("Conflicts: %d (auto-resolved %d)\n", len(r.Conflicts), r.AutoResolved)
	if r.Truncated {
		fmt.Println("Warning: inventory truncated by the page limit, retirement skipped")
	}
	for _, e := range r.Errors {
		fmt.Printf("  ! %s [%s] %s\n", e.ExternalID, e.Operation, e.Message)
	}
	fmt.Printf("Duration: %s\n", r.FinishedAt.Sub(r.StartedAt))
}

func writeJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
