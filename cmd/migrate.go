package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd creates or updates the canonical store schema.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()

		if err := rt.store.AutoMigrate(); err != nil {
			return err
		}
		rt.logger.Info("Schema migrated", zap.String("driver", rt.cfg.Database.Driver))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
