package reconcile

import (
	"fmt"
	"unicode/utf8"

	"fleet-sync/core/provider"
	"fleet-sync/core/reconcile"
	"fleet-sync/feature/sync/models"

	"github.com/google/uuid"
)

// Plan is a device reconciliation plan.
type Plan = reconcile.Plan[*models.Device, *provider.Snapshot]

// Result is one device entry of a Plan.
type Result = reconcile.Result[*models.Device, *provider.Snapshot]

const maxExternalIDLength = 255

// DeviceAdapter reconciles canonical devices against provider snapshots.
type DeviceAdapter struct {
	// frozen holds device id -> field names with a pending conflict.
	frozen map[string]map[string]bool
}

// NewDeviceAdapter creates an adapter that leaves the fields of pending conflicts untouched.
func NewDeviceAdapter(pending []models.Conflict) *DeviceAdapter {
	frozen := make(map[string]map[string]bool)
	for _, c := range pending {
		if c.IsResolved() {
			continue
		}
		if frozen[c.DeviceID] == nil {
			frozen[c.DeviceID] = make(map[string]bool)
		}
		frozen[c.DeviceID][c.FieldName] = true
	}
	return &DeviceAdapter{frozen: frozen}
}

var _ reconcile.Adapter[*models.Device, *provider.Snapshot] = (*DeviceAdapter)(nil)

func (a *DeviceAdapter) Fields(s *provider.Snapshot) []string { return SnapshotFields(s) }

func (a *DeviceAdapter) LocalKey(d *models.Device) string { return d.ExternalDeviceID }

func (a *DeviceAdapter) RemoteKey(s *provider.Snapshot) string { return s.ExternalID }

func (a *DeviceAdapter) LocalValue(d *models.Device, field string) any { return Value(d, field) }

func (a *DeviceAdapter) RemoteValue(s *provider.Snapshot, field string) (any, bool) {
	return SnapshotValue(s, field)
}

func (a *DeviceAdapter) BaselineValue(d *models.Device, field string) (any, bool) {
	v, ok := d.Baseline()[field]
	return v, ok
}

func (a *DeviceAdapter) SettledValue(d *models.Device, field string) (any, bool) {
	v, ok := d.Settled()[field]
	return v, ok
}

func (a *DeviceAdapter) IsFrozen(d *models.Device, field string) bool {
	return a.frozen[d.ID][field]
}

func (a *DeviceAdapter) IsRetired(d *models.Device) bool { return d.IsRetired() }

// Validate rejects snapshots the canonical store cannot hold.
func (a *DeviceAdapter) Validate(s *provider.Snapshot) error {
	if s.ExternalID == "" {
		return validationf("snapshot has no external id")
	}
	if len(s.ExternalID) > maxExternalIDLength || !utf8.ValidString(s.ExternalID) {
		return validationf("external id %q is not storable", s.ExternalID)
	}
	if s.Status != "" && !s.Status.Valid() {
		return validationf("device %s has invalid status %q", s.ExternalID, s.Status)
	}
	if s.Partial {
		return validationf("device %s has no detail snapshot", s.ExternalID)
	}
	for k := range s.Metadata {
		if k == "" {
			return validationf("device %s has an empty metadata key", s.ExternalID)
		}
	}
	return nil
}

// BuildPlan reconciles devices against snapshots. Retire actions require allowRetire.
func BuildPlan(devices []*models.Device, snapshots []provider.Snapshot, pending []models.Conflict, allowRetire bool) *Plan {
	remote := make([]*provider.Snapshot, len(snapshots))
	for i := range snapshots {
		remote[i] = &snapshots[i]
	}
	return reconcile.BuildPlan(devices, remote, NewDeviceAdapter(pending), reconcile.Options{AllowRetire: allowRetire})
}

// NewDevice builds the canonical record for a snapshot seen for the first time.
// Every reported field becomes part of the baseline.
func NewDevice(orgID, integrationID string, s *provider.Snapshot, changes []reconcile.FieldChange) (*models.Device, map[string]any, error) {
	device := &models.Device{
		ID:               uuid.NewString(),
		OrganizationID:   orgID,
		IntegrationID:    &integrationID,
		ExternalDeviceID: s.ExternalID,
		Name:             s.ExternalID,
		Status:           provider.StatusUnknown,
	}

	cs := NewChangeset(device)
	for _, change := range changes {
		if err := cs.Set(change.Field, change.Remote); err != nil {
			return nil, nil, fmt.Errorf("device %s: %w", s.ExternalID, err)
		}
	}
	columns, err := cs.Columns()
	if err != nil {
		return nil, nil, err
	}
	return device, columns, nil
}
