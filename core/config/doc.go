// Package config provides configuration management for fleet-sync.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP port, API key and JWT secret
//   - Database: canonical store connection (mysql, postgres, sqlite)
//   - Storage: S3/MinIO credentials for the sync report archive
//   - Log: logging level and format
//   - Provider: page limits, retries, rate limits and timeouts for provider calls
//   - Lock: run lock backend and TTL
//   - Events: NATS publisher for sync notifications
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Provider.MaxPages)
package config
