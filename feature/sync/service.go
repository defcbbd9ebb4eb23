package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleet-sync/core/events"
	"fleet-sync/core/provider"
	"fleet-sync/core/runlock"
	"fleet-sync/core/storage"
	"fleet-sync/feature/providers"
	"fleet-sync/feature/sync/conflict"
	"fleet-sync/feature/sync/models"
	devicesync "fleet-sync/feature/sync/reconcile"
	"fleet-sync/feature/sync/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps are the collaborators of the sync service.
type Deps struct {
	Store     *store.Store
	Providers providers.Builder
	Locker    runlock.Locker
	// Publisher announces finished runs. Nil disables events.
	Publisher events.Publisher
	// Archive receives a JSON report of every sealed run. Nil disables archiving.
	Archive storage.Client
	Bucket  string
	Config  provider.Config
	LockTTL time.Duration
	Logger  *zap.Logger
}

// Service runs device synchronization for integrations.
type Service struct {
	store     *store.Store
	providers providers.Builder
	locker    runlock.Locker
	publisher events.Publisher
	archive   storage.Client
	bucket    string
	config    provider.Config
	lockTTL   time.Duration
	detector  *conflict.Detector
	resolver  *conflict.Resolver
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates the sync service.
func NewService(deps Deps) *Service {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		store:     deps.Store,
		providers: deps.Providers,
		locker:    deps.Locker,
		publisher: publisher,
		archive:   deps.Archive,
		bucket:    deps.Bucket,
		config:    deps.Config,
		lockTTL:   deps.LockTTL,
		detector:  conflict.NewDetector(deps.Logger),
		resolver:  conflict.NewResolver(deps.Store, deps.Logger),
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// Resolver returns the manual conflict resolution path.
func (s *Service) Resolver() *conflict.Resolver {
	return s.resolver
}

// loadIntegration returns the integration if orgID owns it and it may be synced.
func (s *Service) loadIntegration(ctx context.Context, orgID, integrationID string) (*models.Integration, error) {
	integration, err := s.store.GetIntegration(ctx, integrationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrIntegrationNotFound, integrationID)
		}
		return nil, err
	}
	if integration.OrganizationID != orgID {
		return nil, fmt.Errorf("%w: %s", ErrAuthorization, integrationID)
	}
	if !integration.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrIntegrationDisabled, integrationID)
	}
	return integration, nil
}

// SyncIntegration reconciles the canonical devices of an integration with its
// provider inventory.
//
// Configuration and authorization problems fail before anything is written.
// A write run holds the integration's run lock; a concurrent write run fails
// with runlock.ErrAlreadyRunning. Per-device failures are recorded in the
// result and never abort the run. A dry run computes the same result without
// taking the lock or writing anything, the sync run history included.
func (s *Service) SyncIntegration(ctx context.Context, orgID, integrationID string, opts Options) (*Result, error) {
	log := s.logger.With(
		zap.String("organization_id", orgID),
		zap.String("integration_id", integrationID),
		zap.Bool("full_sync", opts.FullSync),
		zap.Bool("dry_run", opts.DryRun))

	// Load the integration and check it belongs to the caller
	integration, err := s.loadIntegration(ctx, orgID, integrationID)
	if err != nil {
		return nil, err
	}

	// Build the provider adapter
	p, err := s.providers.Build(ctx, integration)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s adapter: %w", integration.ProviderType, err)
	}

	// Writing runs hold the integration's run lock, dry runs take none
	res := newResult(integration.ID, opts, s.now().UTC())
	if !opts.DryRun {
		lease, err := s.locker.Acquire(ctx, integration.ID, s.lockTTL)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to release run lock", zap.Error(err))
			}
		}()
		res.RunID = uuid.NewString()
		log = log.With(zap.String("run_id", res.RunID))
	}
	log.Info("Sync started", zap.String("provider", p.Name()))

	// Page through the remote inventory
	var since *time.Time
	if !opts.FullSync {
		since = integration.LastSyncAt
	}
	inv, err := s.fetchInventory(ctx, p, since, log)
	if err != nil {
		log.Error("Remote inventory unavailable", zap.Error(err))
		if !opts.DryRun {
			s.sealFailed(ctx, integration, res, err, log)
			return res, err
		}
		return nil, err
	}
	res.Truncated = inv.truncated

	// Load local devices and the conflicts still pending
	local, err := s.store.ListDevices(ctx, integration.ID)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.PendingConflicts(ctx, integration.ID)
	if err != nil {
		return nil, err
	}

	// Retiring needs the complete inventory
	allowRetire := opts.FullSync && !inv.truncated
	plan := devicesync.BuildPlan(local, inv.snapshots, pending, allowRetire)
	log.Info("Reconciliation planned",
		zap.Int("remote", len(inv.snapshots)),
		zap.Int("local", len(local)),
		zap.Int("create", plan.Summary.Create),
		zap.Int("update", plan.Summary.Update),
		zap.Int("retire", plan.Summary.Retire),
		zap.Int("unchanged", plan.Summary.Unchanged),
		zap.Int("invalid", plan.Summary.Invalid),
		zap.Int("conflicts", plan.Summary.Conflicts))

	// Apply the plan device by device, then seal the result
	now := s.now().UTC()
	s.execute(ctx, integration, plan, inv, res, opts.DryRun, now, log)
	res.seal(s.now().UTC())

	if opts.DryRun {
		log.Info("Dry run finished", zap.String("status", string(res.Status)))
		return res, nil
	}

	// Resolve parent references once every device of the run exists
	if err := s.store.LinkParents(ctx, integration.ID); err != nil {
		log.Warn("Failed to link parent devices", zap.Error(err))
	}
	if err := s.finish(ctx, integration, res, log); err != nil {
		return res, err
	}

	log.Info("Sync finished",
		zap.String("status", string(res.Status)),
		zap.Int("devices_total", res.DevicesTotal),
		zap.Int("devices_succeeded", res.DevicesSucceeded),
		zap.Int("devices_failed", res.DevicesFailed),
		zap.Int("conflicts", len(res.Conflicts)),
		zap.Int("auto_resolved", res.AutoResolved),
		zap.Duration("duration", res.FinishedAt.Sub(res.StartedAt)))
	return res, nil
}

// sealFailed records a run that could not read the remote inventory.
func (s *Service) sealFailed(ctx context.Context, integration *models.Integration, res *Result, cause error, log *zap.Logger) {
	res.Errors = append(res.Errors, models.RunError{Operation: "list", Message: cause.Error()})
	res.FinishedAt = s.now().UTC()
	res.Status = models.RunFailed
	if err := s.finish(ctx, integration, res, log); err != nil {
		log.Error("Failed to record failed run", zap.Error(err))
	}
}

// finish persists the sealed run, marks the integration and announces the run.
func (s *Service) finish(ctx context.Context, integration *models.Integration, res *Result, log *zap.Logger) error {
	run, err := res.record(integration.OrganizationID, integration.ProviderType)
	if err != nil {
		return err
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return err
	}
	// Only a clean run advances the incremental watermark. It is stamped with
	// the start time so changes landing during the run are read next time.
	var watermark *time.Time
	if res.Status == models.RunCompleted {
		watermark = &res.StartedAt
	}
	if err := s.store.MarkIntegrationSynced(ctx, integration.ID, res.Status, watermark, res.FinishedAt); err != nil {
		return err
	}

	s.archiveRun(ctx, integration, res, log)

	err = s.publisher.PublishSyncCompleted(ctx, events.SyncCompleted{
		RunID:             res.RunID,
		OrganizationID:    integration.OrganizationID,
		IntegrationID:     integration.ID,
		ProviderType:      string(integration.ProviderType),
		Status:            string(res.Status),
		DevicesTotal:      res.DevicesTotal,
		DevicesSucceeded:  res.DevicesSucceeded,
		DevicesFailed:     res.DevicesFailed,
		ConflictsDetected: len(res.Conflicts),
		FinishedAt:        res.FinishedAt,
	})
	if err != nil {
		log.Warn("Failed to publish sync event", zap.Error(err))
	}
	return nil
}

// Runs returns the run history of an integration, newest first.
func (s *Service) Runs(ctx context.Context, orgID, integrationID string, limit int) ([]models.SyncRun, error) {
	if integrationID != "" {
		integration, err := s.store.GetIntegration(ctx, integrationID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrIntegrationNotFound, integrationID)
			}
			return nil, err
		}
		if integration.OrganizationID != orgID {
			return nil, fmt.Errorf("%w: %s", ErrAuthorization, integrationID)
		}
	}
	return s.store.ListRuns(ctx, orgID, integrationID, limit)
}
