package cmd

import (
	"context"
	"errors"

	"fleet-sync/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the database schema and the report archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, true)
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check the canonical store schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, false)
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Check and fix the report archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, true)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(schemaCmd, archiveCmd)

	archiveCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create the missing bucket or folder")
}

func runIntegrityChecks(ctx context.Context, runSchema, runArchive bool) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close()
	logg := rt.logger

	svc := integrity.NewService(rt.archive, rt.cfg.Storage.Bucket, logg, rt.db)

	if runSchema {
		logg.Info("Checking database schema...", zap.String("driver", rt.cfg.Database.Driver))
		report, err := svc.CheckSchema()
		if err != nil {
			return err
		}
		if report.Matched {
			logg.Info("Schema matches the models.")
		} else {
			logg.Warn("Schema mismatches found, run the migrate command")
			for table, tbl := range report.Tables {
				if tbl.Status == "ok" {
					continue
				}
				if !tbl.Exists {
					logg.Warn("Missing Table", zap.String("table", table))
					continue
				}
				if len(tbl.MissingColumns) > 0 {
					logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", tbl.MissingColumns))
				}
				if len(tbl.TypeMismatches) > 0 {
					logg.Warn("Type Mismatches", zap.String("table", table), zap.Strings("mismatches", tbl.TypeMismatches))
				}
			}
			for _, e := range report.Errors {
				logg.Error("Inspection Error", zap.String("error", e))
			}
		}
	}

	if runArchive {
		logg.Info("Checking report archive...", zap.String("bucket", rt.cfg.Storage.Bucket))
		report, err := svc.CheckArchive(ctx)
		if errors.Is(err, integrity.ErrArchiveDisabled) {
			logg.Info("Report archive is disabled, skipping.")
			return nil
		}
		if err != nil {
			return err
		}

		if report.Healthy() {
			logg.Info("Archive is intact.", zap.Int("reports", report.Reports))
			return nil
		}

		logg.Warn("Archive incomplete", zap.Bool("bucket_exists", report.Exists), zap.Strings("missing", report.Missing))
		if !fixFlag {
			logg.Info("Run with --fix to create them.")
			return nil
		}
		if err := svc.FixArchive(ctx, report); err != nil {
			return err
		}
		logg.Info("Archive fixed successfully.")
	}

	return nil
}
