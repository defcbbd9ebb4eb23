package cmd

import (
	"fmt"

	"fleet-sync/feature/sync/conflict"
	"fleet-sync/feature/sync/models"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	conflictsOrg    string
	conflictsDevice string
	resolveAs       string
	resolveValue    string
	resolveBy       string
	resolveNotes    string
)

// conflictsCmd is the parent command for conflict operations.
var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List and resolve sync conflicts",
}

var conflictsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List unresolved conflicts",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()

		conflicts, err := conflict.NewResolver(rt.store, rt.logger).ListUnresolved(cmd.Context(), conflictsOrg, conflictsDevice)
		if err != nil {
			return err
		}

		fmt.Printf("%-36s  %-36s  %-20s  %-24s  %-24s\n", "CONFLICT", "DEVICE", "FIELD", "LOCAL", "REMOTE")
		for _, c := range conflicts {
			fmt.Printf("%-36s  %-36s  %-20s  %-24s  %-24s\n", c.ID, c.DeviceID, c.FieldName, string(c.LocalValue), string(c.RemoteValue))
		}
		fmt.Printf("\n%d unresolved conflict(s)\n", len(conflicts))
		return nil
	},
}

var conflictsResolveCmd = &cobra.Command{
	Use:   "resolve <conflict-id>",
	Short: "Resolve a conflict",
	Long: `Applies a manual decision to a pending conflict.

Examples:
  conflicts resolve 9b1d... --org acme --as kept_local --by alice
  conflicts resolve 9b1d... --org acme --as custom --value '"Boiler room 2"' --by alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := conflict.ResolveRequest{
			OrganizationID: conflictsOrg,
			ConflictID:     args[0],
			Resolution:     models.Resolution(resolveAs),
			ResolvedBy:     resolveBy,
		}
		if resolveValue != "" {
			if err := json.Unmarshal([]byte(resolveValue), &req.CustomValue); err != nil {
				return fmt.Errorf("--value must be JSON: %w", err)
			}
		}
		if resolveNotes != "" {
			req.Notes = &resolveNotes
		}

		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()

		resolved, err := conflict.NewResolver(rt.store, rt.logger).Resolve(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Printf("Conflict %s resolved as %s (value %s)\n", resolved.ID, resolved.Resolution, string(resolved.ResolvedValue))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(conflictsCmd)
	conflictsCmd.AddCommand(conflictsListCmd, conflictsResolveCmd)

	conflictsCmd.PersistentFlags().StringVar(&conflictsOrg, "org", "", "Organization owning the conflicts")
	_ = conflictsCmd.MarkPersistentFlagRequired("org")

	conflictsListCmd.Flags().StringVar(&conflictsDevice, "device", "", "Restrict to one device")

	conflictsResolveCmd.Flags().StringVar(&resolveAs, "as", "", "Resolution: kept_local, kept_remote or custom")
	conflictsResolveCmd.Flags().StringVar(&resolveValue, "value", "", "JSON value for a custom resolution")
	conflictsResolveCmd.Flags().StringVar(&resolveBy, "by", "", "Who resolves the conflict")
	conflictsResolveCmd.Flags().StringVar(&resolveNotes, "notes", "", "Free-form notes")
	_ = conflictsResolveCmd.MarkFlagRequired("as")
	_ = conflictsResolveCmd.MarkFlagRequired("by")
}
