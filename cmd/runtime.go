package cmd

import (
	"fmt"

	"fleet-sync/core/config"
	"fleet-sync/core/database"
	"fleet-sync/core/events"
	"fleet-sync/core/logger"
	"fleet-sync/core/runlock"
	"fleet-sync/core/secrets"
	"fleet-sync/core/storage"
	"fleet-sync/feature/providers"
	fleetsync "fleet-sync/feature/sync"
	"fleet-sync/feature/sync/store"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// secretPrefix prefixes the environment variables holding provider credentials.
const secretPrefix = "FLEET_SECRET"

// runtime is the wiring shared by the server and the CLI commands.
type runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *gorm.DB
	store     *store.Store
	archive   storage.Client
	providers *providers.Factory
	publisher events.Publisher
}

// bootstrap loads the configuration and opens the database and, when enabled,
// the report archive.
func bootstrap() (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Provider.Validate(); err != nil {
		return nil, err
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database connection required: %w", err)
	}

	rt := &runtime{
		cfg:       cfg,
		logger:    logg,
		db:        db,
		store:     store.New(db),
		providers: providers.NewFactory(secrets.NewEnvResolver(secretPrefix), cfg.Provider, logg),
		publisher: events.Noop{},
	}

	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		rt.archive = client
	}

	return rt, nil
}

// syncDeps connects the run lock and the event publisher and returns the sync dependencies.
func (r *runtime) syncDeps() (fleetsync.Deps, error) {
	locker, err := runlock.New(r.cfg.Lock, r.db)
	if err != nil {
		return fleetsync.Deps{}, err
	}

	publisher, err := events.NewPublisher(r.cfg.Events, r.logger)
	if err != nil {
		return fleetsync.Deps{}, err
	}
	r.publisher = publisher

	return fleetsync.Deps{
		Store:     r.store,
		Providers: r.providers,
		Locker:    locker,
		Publisher: publisher,
		Archive:   r.archive,
		Bucket:    r.cfg.Storage.Bucket,
		Config:    r.cfg.Provider,
		LockTTL:   r.cfg.Lock.TTL(),
		Logger:    r.logger,
	}, nil
}

func (r *runtime) close() {
	r.publisher.Close()
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = r.logger.Sync()
}
