package conflict

import (
	"fmt"
	"time"

	"fleet-sync/core/reconcile"
	"fleet-sync/feature/sync/models"
	devicesync "fleet-sync/feature/sync/reconcile"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Decision is the outcome for one conflicting field.
type Decision struct {
	Field    string
	Strategy models.Strategy
	// Conflict is set when the field was left for manual resolution.
	Conflict *models.Conflict
}

// Automatic reports whether the integration's strategy settled the field.
func (d Decision) Automatic() bool {
	return d.Conflict == nil
}

// Detector settles conflict candidates raised by the reconciler. It is the only
// creator of conflicts.
type Detector struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewDetector creates a detector.
func NewDetector(logger *zap.Logger) *Detector {
	return &Detector{logger: logger, now: time.Now}
}

// Decide applies the integration's strategy to a conflicting field of device.
//
// prefer_remote writes the remote value. prefer_local keeps the local value and
// settles it against the remote value, so the same divergence is not raised
// again. Without a strategy a pending Conflict is built and nothing is written.
func (d *Detector) Decide(integration *models.Integration, device *models.Device, runID string, change reconcile.FieldChange, cs *devicesync.Changeset) (Decision, error) {
	decision := Decision{Field: change.Field, Strategy: integration.ConflictResolution}

	switch integration.ConflictResolution {
	case models.StrategyPreferRemote:
		if err := cs.Set(change.Field, change.Remote); err != nil {
			return decision, err
		}
	case models.StrategyPreferLocal:
		cs.Settle(change.Field, change.Remote)
	default:
		c, err := d.pending(integration, device, runID, change)
		if err != nil {
			return decision, err
		}
		decision.Conflict = c
		return decision, nil
	}

	d.logger.Info("Conflict resolved automatically",
		zap.String("integration_id", integration.ID),
		zap.String("device_id", device.ID),
		zap.String("external_id", device.ExternalDeviceID),
		zap.String("field", change.Field),
		zap.String("strategy", string(integration.ConflictResolution)))

	return decision, nil
}

func (d *Detector) pending(integration *models.Integration, device *models.Device, runID string, change reconcile.FieldChange) (*models.Conflict, error) {
	local, err := models.EncodeValue(change.Local)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", change.Field, err)
	}
	remote, err := models.EncodeValue(change.Remote)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", change.Field, err)
	}

	c := &models.Conflict{
		ID:             uuid.NewString(),
		OrganizationID: integration.OrganizationID,
		IntegrationID:  integration.ID,
		DeviceID:       device.ID,
		FieldName:      change.Field,
		LocalValue:     local,
		RemoteValue:    remote,
		DetectedAt:     d.now().UTC(),
		Resolution:     models.ResolutionPending,
	}
	if runID != "" {
		c.SyncRunID = &runID
	}
	return c, nil
}
