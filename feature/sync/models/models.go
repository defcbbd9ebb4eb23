package models

import (
	"errors"
	"fmt"
	"time"

	"fleet-sync/core/provider"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrValidation marks malformed input: a bad remote snapshot or an invalid resolution payload.
	ErrValidation = errors.New("validation error")
	// ErrSealed is returned on any attempt to change a written sync run.
	ErrSealed = errors.New("sync run is sealed")
)

// Integration is an organization's connection to one external platform.
type Integration struct {
	ID                 string         `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID     string         `gorm:"size:36;not null;index" json:"organization_id"`
	Name               string         `gorm:"size:255;not null" json:"name"`
	ProviderType       ProviderType   `gorm:"size:32;not null" json:"provider_type"`
	CredentialRef      string         `gorm:"size:255" json:"-"`
	BaseURL            string         `gorm:"size:512" json:"base_url,omitempty"`
	ProjectID          string         `gorm:"size:255" json:"project_id,omitempty"`
	Settings           datatypes.JSON `json:"settings,omitempty"`
	Enabled            bool           `gorm:"not null" json:"enabled"`
	ConflictResolution Strategy       `gorm:"size:32" json:"conflict_resolution"`
	LastSyncAt         *time.Time     `json:"last_sync_at,omitempty"`
	LastSyncStatus     RunStatus      `gorm:"size:16" json:"last_sync_status,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (Integration) TableName() string {
	return "device_integrations"
}

// BeforeSave rejects integrations without a recognized provider type or strategy.
func (i *Integration) BeforeSave(*gorm.DB) error {
	if !i.ProviderType.Valid() {
		return fmt.Errorf("%w: unknown provider type %q", ErrValidation, i.ProviderType)
	}
	if !i.ConflictResolution.Valid() {
		return fmt.Errorf("%w: unknown conflict resolution %q", ErrValidation, i.ConflictResolution)
	}
	return nil
}

// Setting returns a string setting, or "" when absent.
func (i *Integration) Setting(key string) string {
	var settings map[string]any
	if len(i.Settings) == 0 || json.Unmarshal(i.Settings, &settings) != nil {
		return ""
	}
	if v, ok := settings[key].(string); ok {
		return v
	}
	return ""
}

// Device is the canonical record of one device.
type Device struct {
	ID               string          `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID   string          `gorm:"size:36;not null;index" json:"organization_id"`
	IntegrationID    *string         `gorm:"size:36;uniqueIndex:idx_devices_integration_external" json:"integration_id,omitempty"`
	ExternalDeviceID string          `gorm:"size:255;uniqueIndex:idx_devices_integration_external" json:"external_device_id"`
	Name             string          `gorm:"size:255" json:"name"`
	DeviceType       string          `gorm:"size:128" json:"device_type"`
	Status           provider.Status `gorm:"size:16;not null" json:"status"`
	HardwareIDs      datatypes.JSON  `json:"hardware_ids,omitempty"`
	CohortID         *string         `gorm:"size:255" json:"cohort_id,omitempty"`
	ParentExternalID *string         `gorm:"size:255" json:"parent_external_id,omitempty"`
	ParentDeviceID   *string         `gorm:"size:36" json:"parent_device_id,omitempty"`
	LastSeenOnline   *time.Time      `json:"last_seen_online,omitempty"`
	LastSeenOffline  *time.Time      `json:"last_seen_offline,omitempty"`
	FirmwareVersion  *string         `gorm:"size:128" json:"firmware_version,omitempty"`
	Metadata         datatypes.JSON  `json:"metadata,omitempty"`
	// SyncBaseline holds the sync-owned field values as last written by sync.
	SyncBaseline datatypes.JSON `json:"-"`
	// SyncSettled holds, per field, the local value a resolution kept over the
	// remote value recorded in SyncBaseline.
	SyncSettled  datatypes.JSON `json:"-"`
	RetiredAt    *time.Time     `json:"retired_at,omitempty"`
	LastSyncedAt *time.Time     `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// HardwareIDList decodes HardwareIDs.
func (d *Device) HardwareIDList() []string {
	var ids []string
	if len(d.HardwareIDs) > 0 {
		_ = json.Unmarshal(d.HardwareIDs, &ids)
	}
	return ids
}

// MetadataMap decodes Metadata. It never returns nil.
func (d *Device) MetadataMap() map[string]any {
	return decodeObject(d.Metadata)
}

// Baseline decodes SyncBaseline. It never returns nil.
func (d *Device) Baseline() map[string]any {
	return decodeObject(d.SyncBaseline)
}

// SetBaseline replaces SyncBaseline.
func (d *Device) SetBaseline(baseline map[string]any) error {
	raw, err := json.Marshal(baseline)
	if err != nil {
		return fmt.Errorf("failed to encode sync baseline: %w", err)
	}
	d.SyncBaseline = raw
	return nil
}

// Settled decodes SyncSettled. It never returns nil.
func (d *Device) Settled() map[string]any {
	return decodeObject(d.SyncSettled)
}

// SetSettled replaces SyncSettled.
func (d *Device) SetSettled(settled map[string]any) error {
	raw, err := json.Marshal(settled)
	if err != nil {
		return fmt.Errorf("failed to encode settled values: %w", err)
	}
	d.SyncSettled = raw
	return nil
}

// IsRetired reports whether the device was retired by a full sync.
func (d *Device) IsRetired() bool {
	return d.RetiredAt != nil
}

// RunError is one per-device failure recorded on a sync run.
type RunError struct {
	DeviceID   string `json:"device_id,omitempty"`
	ExternalID string `json:"external_id"`
	Operation  string `json:"operation"`
	Message    string `json:"message"`
}

// SyncRun is the append-only history record of one write-mode sync.
type SyncRun struct {
	ID                string         `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID    string         `gorm:"size:36;not null;index" json:"organization_id"`
	IntegrationID     string         `gorm:"size:36;not null;index" json:"integration_id"`
	ProviderType      ProviderType   `gorm:"size:32;not null" json:"provider_type"`
	Mode              Mode           `gorm:"size:16;not null" json:"mode"`
	DryRun            bool           `gorm:"not null" json:"dry_run"`
	StartedAt         time.Time      `gorm:"not null;index" json:"started_at"`
	FinishedAt        time.Time      `gorm:"not null" json:"finished_at"`
	DurationMs        int64          `json:"duration_ms"`
	DevicesTotal      int            `json:"devices_total"`
	DevicesSucceeded  int            `json:"devices_succeeded"`
	DevicesFailed     int            `json:"devices_failed"`
	Created           int            `json:"created"`
	Updated           int            `json:"updated"`
	Retired           int            `json:"retired"`
	Unchanged         int            `json:"unchanged"`
	ConflictsDetected int            `json:"conflicts_detected"`
	Truncated         bool           `gorm:"not null" json:"truncated"`
	Status            RunStatus      `gorm:"size:16;not null" json:"status"`
	Errors            datatypes.JSON `json:"errors"`
	CreatedAt         time.Time      `json:"created_at"`
}

// BeforeUpdate keeps sealed runs immutable.
func (*SyncRun) BeforeUpdate(*gorm.DB) error {
	return ErrSealed
}

// BeforeDelete keeps sealed runs immutable.
func (*SyncRun) BeforeDelete(*gorm.DB) error {
	return ErrSealed
}

// ErrorList decodes Errors.
func (r *SyncRun) ErrorList() []RunError {
	var list []RunError
	if len(r.Errors) > 0 {
		_ = json.Unmarshal(r.Errors, &list)
	}
	return list
}

// Conflict is a field-level disagreement between the canonical and remote value of one device.
type Conflict struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID string         `gorm:"size:36;not null;index" json:"organization_id"`
	IntegrationID  string         `gorm:"size:36;not null;index" json:"integration_id"`
	DeviceID       string         `gorm:"size:36;not null;index" json:"device_id"`
	SyncRunID      *string        `gorm:"size:36" json:"sync_run_id,omitempty"`
	FieldName      string         `gorm:"size:64;not null" json:"field_name"`
	LocalValue     datatypes.JSON `json:"local_value"`
	RemoteValue    datatypes.JSON `json:"remote_value"`
	DetectedAt     time.Time      `gorm:"not null;index" json:"detected_at"`
	Resolution     Resolution     `gorm:"size:16;not null" json:"resolution"`
	ResolvedValue  datatypes.JSON `json:"resolved_value,omitempty"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
	ResolvedBy     *string        `gorm:"size:255" json:"resolved_by,omitempty"`
	Notes          *string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (Conflict) TableName() string {
	return "sync_conflicts"
}

// IsResolved reports whether the conflict reached its terminal state.
func (c *Conflict) IsResolved() bool {
	return c.ResolvedAt != nil
}

// FirmwareHistory records a firmware version observed on a device.
type FirmwareHistory struct {
	ID              string         `gorm:"primaryKey;size:36" json:"id"`
	DeviceID        string         `gorm:"size:36;not null;index" json:"device_id"`
	OrganizationID  string         `gorm:"size:36;not null" json:"organization_id"`
	FirmwareVersion string         `gorm:"size:128;not null" json:"firmware_version"`
	PreviousVersion *string        `gorm:"size:128" json:"previous_version,omitempty"`
	ComponentType   string         `gorm:"size:32" json:"component_type"`
	Source          string         `gorm:"size:32" json:"source"`
	Metadata        datatypes.JSON `json:"metadata,omitempty"`
	InstalledAt     time.Time      `gorm:"not null" json:"installed_at"`
}

func (FirmwareHistory) TableName() string {
	return "device_firmware_history"
}

// All returns every persisted model, in migration order.
func All() []any {
	return []any{&Integration{}, &Device{}, &SyncRun{}, &Conflict{}, &FirmwareHistory{}}
}

// EncodeValue marshals a field value for a JSON column.
func EncodeValue(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	return raw, nil
}

// DecodeValue unmarshals a JSON column into a generic value. Empty input is nil.
func DecodeValue(raw datatypes.JSON) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return v, nil
}

func decodeObject(raw datatypes.JSON) map[string]any {
	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
		if out == nil {
			out = map[string]any{}
		}
	}
	return out
}
