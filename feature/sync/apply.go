package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleet-sync/core/reconcile"
	"fleet-sync/feature/sync/models"
	devicesync "fleet-sync/feature/sync/reconcile"
	"fleet-sync/feature/sync/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// work is the prepared write set of one plan entry. Preparing touches no storage,
// so dry runs and write runs classify devices identically.
type work struct {
	result devicesync.Result
	action reconcile.ActionType

	device  *models.Device
	columns map[string]any
	// create is set when device is new and must be inserted.
	create bool

	conflicts    []models.Conflict
	autoResolved int
	firmware     *models.FirmwareHistory
}

// prepare computes what applying result would write.
func (s *Service) prepare(integration *models.Integration, runID string, result devicesync.Result, now time.Time) (*work, error) {
	w := &work{result: result, action: result.Action}

	switch result.Action {
	case reconcile.ActionCreate:
		device, _, err := devicesync.NewDevice(integration.OrganizationID, integration.ID, result.Remote, result.Changes)
		if err != nil {
			return w, err
		}
		device.LastSyncedAt = &now
		w.device, w.create = device, true
		w.firmware = s.firmwareEntry(device, nil, now)
		return w, nil

	case reconcile.ActionRetire:
		w.device = result.Local
		return w, nil

	case reconcile.ActionUpdate, reconcile.ActionUnchanged:
		return s.prepareExisting(w, integration, runID, now)

	default:
		return w, fmt.Errorf("unexpected plan action %q", result.Action)
	}
}

func (s *Service) prepareExisting(w *work, integration *models.Integration, runID string, now time.Time) (*work, error) {
	device := w.result.Local
	previousFirmware := device.FirmwareVersion

	cs := devicesync.NewChangeset(device)
	for _, change := range w.result.Changes {
		if err := cs.Set(change.Field, change.Remote); err != nil {
			return w, err
		}
	}
	for _, change := range w.result.Conflicts {
		decision, err := s.detector.Decide(integration, device, runID, change, cs)
		if err != nil {
			return w, err
		}
		if decision.Automatic() {
			w.autoResolved++
		} else {
			w.conflicts = append(w.conflicts, *decision.Conflict)
		}
	}

	changed := !cs.Empty() || w.result.Revive
	if !changed && w.autoResolved == 0 {
		w.action = reconcile.ActionUnchanged
		return w, nil
	}

	columns, err := cs.Columns()
	if err != nil {
		return w, err
	}
	if changed {
		w.action = reconcile.ActionUpdate
		columns["last_synced_at"] = now
		device.LastSyncedAt = &now
	} else {
		w.action = reconcile.ActionUnchanged
	}
	if w.result.Revive {
		columns["retired_at"] = nil
		device.RetiredAt = nil
	}
	w.device, w.columns = device, columns
	w.firmware = s.firmwareEntry(device, previousFirmware, now)
	return w, nil
}

// firmwareEntry returns the history row for a firmware version change, or nil.
func (s *Service) firmwareEntry(device *models.Device, previous *string, now time.Time) *models.FirmwareHistory {
	current := device.FirmwareVersion
	if current == nil || *current == "" {
		return nil
	}
	if previous != nil && *previous == *current {
		return nil
	}
	return &models.FirmwareHistory{
		ID:              uuid.NewString(),
		DeviceID:        device.ID,
		OrganizationID:  device.OrganizationID,
		FirmwareVersion: *current,
		PreviousVersion: previous,
		ComponentType:   "device",
		Source:          "sync",
		InstalledAt:     now,
	}
}

// apply writes one prepared entry in its own transaction.
func (s *Service) apply(ctx context.Context, w *work, now time.Time) error {
	return s.store.Transaction(ctx, func(tx *store.Store) error {
		switch {
		case w.create:
			if err := tx.CreateDevice(ctx, w.device); err != nil {
				return err
			}
		case w.action == reconcile.ActionRetire:
			if err := tx.RetireDevice(ctx, w.device.ID, now); err != nil {
				return err
			}
		case w.columns != nil:
			if err := tx.UpdateDeviceColumns(ctx, w.device.ID, w.columns); err != nil {
				return err
			}
		}

		if err := tx.CreateConflicts(ctx, w.conflicts); err != nil {
			return err
		}
		if w.firmware != nil {
			if err := tx.RecordFirmware(ctx, w.firmware); err != nil {
				return err
			}
		}
		return nil
	})
}

// execute prepares every plan entry and, unless dryRun, applies it. A failing
// device is recorded on res and never stops the others.
func (s *Service) execute(ctx context.Context, integration *models.Integration, plan *devicesync.Plan, inv *inventory, res *Result, dryRun bool, now time.Time, log *zap.Logger) {
	res.DevicesTotal = plan.Summary.Total

	for _, result := range plan.Results {
		if result.Action == reconcile.ActionInvalid {
			err := result.Err
			if fetchErr, ok := inv.detailErrs[result.Key]; ok {
				err = fmt.Errorf("failed to fetch device detail: %w", fetchErr)
			}
			res.fail(result.Key, "", "validate", err)
			log.Warn("Skipping invalid remote device", zap.String("external_id", result.Key), zap.Error(err))
			continue
		}

		// Build the write, then commit it unless this is a dry run
		w, err := s.prepare(integration, res.RunID, result, now)
		if err == nil && !dryRun {
			err = s.apply(ctx, w, now)
		}
		if err != nil {
			deviceID := ""
			if w.device != nil {
				deviceID = w.device.ID
			}
			res.fail(result.Key, deviceID, string(result.Action), err)
			log.Warn("Device sync failed",
				zap.String("external_id", result.Key),
				zap.String("action", string(result.Action)),
				zap.Bool("validation", errors.Is(err, models.ErrValidation)),
				zap.Error(err))
			continue
		}

		// Record the outcome under its final action
		res.DevicesSucceeded++
		res.AutoResolved += w.autoResolved
		res.Conflicts = append(res.Conflicts, w.conflicts...)
		switch w.action {
		case reconcile.ActionCreate:
			res.Created = append(res.Created, result.Key)
		case reconcile.ActionUpdate:
			res.Updated = append(res.Updated, result.Key)
		case reconcile.ActionRetire:
			res.Retired = append(res.Retired, result.Key)
		default:
			res.Unchanged = append(res.Unchanged, result.Key)
		}
	}
}
