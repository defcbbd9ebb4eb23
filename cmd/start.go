package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fleet-sync/core/loader"
	"fleet-sync/core/logger"
	"fleet-sync/core/middleware/auth"
	"fleet-sync/core/middleware/rayid"
	_ "fleet-sync/docs/swagger"
	"fleet-sync/feature/devices"
	"fleet-sync/feature/integrity"
	fleetsync "fleet-sync/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateOnStart bool

// @title Fleet Sync API
// @version 1.0
// @description API for synchronizing IoT device fleets with external device-management platforms.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the fleet sync server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()
		logg := rt.logger
		zap.ReplaceGlobals(logg)

		if err := rt.cfg.Server.Validate(); err != nil {
			return err
		}

		if migrateOnStart {
			if err := rt.store.AutoMigrate(); err != nil {
				return err
			}
			logg.Info("Schema migrated")
		}

		deps, err := rt.syncDeps()
		if err != nil {
			return fmt.Errorf("failed to wire sync: %w", err)
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
		})

		mgr := loader.NewManager()
		mgr.Register(fleetsync.NewFeature(deps))
		mgr.Register(devices.NewFeature(devices.NewService(rt.store, rt.providers, rt.cfg.Provider, logg)))
		mgr.Register(integrity.NewFeature(rt.archive, rt.cfg.Storage.Bucket, logg, rt.db))

		// RayID must be first to trace everything
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Swagger documentation is public
		app.Get("/swagger/*", swagger.HandlerDefault)

		app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey, JWTSecret: rt.cfg.Server.JWTSecret}))

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("port", rt.cfg.Server.Port))
			errCh <- app.Listen(":" + rt.cfg.Server.Port)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return fmt.Errorf("server failed to start: %w", err)
		case <-quit:
		}

		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
	startCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Migrate the schema before serving")
}
