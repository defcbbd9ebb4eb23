package cmd

import (
	"fmt"
	"os"

	"fleet-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "fleet-sync",
	Short: "IoT Fleet Device Sync Service",
	Long: `Fleet Sync keeps a canonical device registry in step with external
device-management platforms (Golioth, AWS IoT, Azure IoT Hub, MQTT brokers).
It reconciles inventories, detects conflicting edits and records every run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console encoding at debug level gives ISO8601 timestamps for CLI users
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
