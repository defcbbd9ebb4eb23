package conflict

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleet-sync/feature/sync/models"
	devicesync "fleet-sync/feature/sync/reconcile"
	"fleet-sync/feature/sync/store"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned for a conflict that does not exist in the caller's organization.
	ErrNotFound = errors.New("conflict not found")
	// ErrAlreadyResolved is returned when a conflict has reached its terminal state.
	ErrAlreadyResolved = errors.New("conflict already resolved")
)

// ResolveRequest is a manual resolution of one conflict.
type ResolveRequest struct {
	OrganizationID string
	ConflictID     string
	Resolution     models.Resolution
	// CustomValue is required for ResolutionCustom. nil means absent.
	CustomValue any
	ResolvedBy  string
	Notes       *string
}

// Validate checks the request before any lookup.
func (r ResolveRequest) Validate() error {
	if !r.Resolution.Terminal() {
		return fmt.Errorf("%w: resolution must be kept_local, kept_remote or custom", models.ErrValidation)
	}
	if r.Resolution == models.ResolutionCustom && r.CustomValue == nil {
		return fmt.Errorf("%w: customValue is required for a custom resolution", models.ErrValidation)
	}
	if strings.TrimSpace(r.ResolvedBy) == "" {
		return fmt.Errorf("%w: resolvedBy is required", models.ErrValidation)
	}
	return nil
}

// Resolver is the manual resolution path, the only writer of resolution fields.
type Resolver struct {
	store  *store.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewResolver creates a resolver.
func NewResolver(s *store.Store, logger *zap.Logger) *Resolver {
	return &Resolver{store: s, logger: logger, now: time.Now}
}

// ListUnresolved returns the organization's pending conflicts, newest first.
func (r *Resolver) ListUnresolved(ctx context.Context, orgID, deviceID string) ([]models.Conflict, error) {
	return r.store.ListUnresolved(ctx, orgID, deviceID)
}

// Resolve writes the chosen value to the device and finalizes the conflict in
// one transaction. A conflict resolved concurrently fails with ErrAlreadyResolved
// and nothing is written.
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) (*models.Conflict, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := r.store.GetConflict(ctx, req.OrganizationID, req.ConflictID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, req.ConflictID)
		}
		return nil, err
	}
	if c.IsResolved() {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyResolved, c.ID)
	}

	chosen, err := r.chosenValue(c, req)
	if err != nil {
		return nil, err
	}
	remote, err := models.DecodeValue(c.RemoteValue)
	if err != nil {
		return nil, err
	}
	resolvedValue, err := models.EncodeValue(chosen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	resolvedAt := r.now().UTC()
	resolvedBy := req.ResolvedBy
	c.Resolution = req.Resolution
	c.ResolvedValue = resolvedValue
	c.ResolvedAt = &resolvedAt
	c.ResolvedBy = &resolvedBy
	c.Notes = req.Notes

	err = r.store.Transaction(ctx, func(tx *store.Store) error {
		device, err := tx.GetDevice(ctx, c.OrganizationID, c.DeviceID)
		if err != nil {
			return err
		}

		// Keeping the remote value is a plain sync write. Anything else is
		// settled against the remote value it overrides.
		cs := devicesync.NewChangeset(device)
		if req.Resolution == models.ResolutionKeptRemote {
			if err := cs.Set(c.FieldName, chosen); err != nil {
				return err
			}
		} else {
			if err := cs.Write(c.FieldName, chosen); err != nil {
				return err
			}
			cs.Settle(c.FieldName, remote)
		}

		columns, err := cs.Columns()
		if err != nil {
			return err
		}
		if err := tx.UpdateDeviceColumns(ctx, device.ID, columns); err != nil {
			return err
		}

		stamped, err := tx.StampResolution(ctx, c)
		if err != nil {
			return err
		}
		if !stamped {
			return fmt.Errorf("%w: %s", ErrAlreadyResolved, c.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Conflict resolved",
		zap.String("conflict_id", c.ID),
		zap.String("device_id", c.DeviceID),
		zap.String("field", c.FieldName),
		zap.String("resolution", string(c.Resolution)),
		zap.String("resolved_by", resolvedBy))

	return c, nil
}

func (r *Resolver) chosenValue(c *models.Conflict, req ResolveRequest) (any, error) {
	switch req.Resolution {
	case models.ResolutionKeptLocal:
		return models.DecodeValue(c.LocalValue)
	case models.ResolutionKeptRemote:
		return models.DecodeValue(c.RemoteValue)
	default:
		return req.CustomValue, nil
	}
}
