package provider

import (
	"context"
	"strings"
	"time"
)

// Provider is the contract every external device-management platform adapter satisfies.
// Implementations only perform network I/O; they never write to the canonical store.
type Provider interface {
	// Name returns the provider type the adapter serves (e.g. "golioth").
	Name() string

	// ListDevices returns one page of the remote inventory. An empty NextCursor
	// ends the listing.
	ListDevices(ctx context.Context, opts ListOptions) (*Page, error)

	// GetDeviceStatus returns the full snapshot of one device. ErrNotFound when the
	// provider does not know externalID.
	GetDeviceStatus(ctx context.Context, externalID string) (*Snapshot, error)

	// Capabilities reports the optional features the platform supports.
	Capabilities() Capabilities

	// TestConnection performs the cheapest authenticated call the platform offers.
	TestConnection(ctx context.Context) error
}

// ListOptions bounds one ListDevices call.
type ListOptions struct {
	// Cursor is the opaque position returned by the previous page, "" for the first page.
	Cursor string
	// PageSize is a hint; adapters clamp it to what the platform accepts.
	PageSize int
	// UpdatedSince restricts the listing to devices changed after the instant,
	// for platforms that can filter. Nil lists everything.
	UpdatedSince *time.Time
}

// Page is one slice of the remote inventory.
type Page struct {
	Snapshots  []Snapshot
	NextCursor string
}

// Snapshot is the provider-normalized view of one remote device.
// Nil pointers and nil collections mean the provider did not report the field.
type Snapshot struct {
	ExternalID       string
	Name             *string
	DeviceType       *string
	Status           Status
	HardwareIDs      []string
	CohortID         *string
	ParentExternalID *string
	FirmwareVersion  *string
	LastSeenOnline   *time.Time
	LastSeenOffline  *time.Time
	Metadata         map[string]any

	// Partial marks a summary-only listing entry that needs GetDeviceStatus
	// before it can be reconciled.
	Partial bool
}

// Merge overlays detail onto s, keeping the listing values detail leaves absent.
func (s Snapshot) Merge(detail *Snapshot) Snapshot {
	if detail == nil {
		return s
	}
	out := s
	out.Partial = false
	if detail.Name != nil {
		out.Name = detail.Name
	}
	if detail.DeviceType != nil {
		out.DeviceType = detail.DeviceType
	}
	if detail.Status != "" {
		out.Status = detail.Status
	}
	if detail.HardwareIDs != nil {
		out.HardwareIDs = detail.HardwareIDs
	}
	if detail.CohortID != nil {
		out.CohortID = detail.CohortID
	}
	if detail.ParentExternalID != nil {
		out.ParentExternalID = detail.ParentExternalID
	}
	if detail.FirmwareVersion != nil {
		out.FirmwareVersion = detail.FirmwareVersion
	}
	if detail.LastSeenOnline != nil {
		out.LastSeenOnline = detail.LastSeenOnline
	}
	if detail.LastSeenOffline != nil {
		out.LastSeenOffline = detail.LastSeenOffline
	}
	if detail.Metadata != nil {
		merged := make(map[string]any, len(s.Metadata)+len(detail.Metadata))
		for k, v := range s.Metadata {
			merged[k] = v
		}
		for k, v := range detail.Metadata {
			merged[k] = v
		}
		out.Metadata = merged
	}
	return out
}

// Status is the fixed device status vocabulary.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
	StatusUnknown Status = "unknown"
)

// Valid reports whether s is one of the five canonical values.
func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusWarning, StatusError, StatusUnknown:
		return true
	default:
		return false
	}
}

// NormalizeStatus maps provider status vocabularies onto Status.
// Unrecognized values become StatusUnknown; an empty value stays empty (absent).
func NormalizeStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return ""
	case "online", "connected", "active", "up", "true":
		return StatusOnline
	case "offline", "disconnected", "inactive", "down", "disabled", "false":
		return StatusOffline
	case "warning", "degraded", "maintenance", "low_battery":
		return StatusWarning
	case "error", "fault", "failed", "critical":
		return StatusError
	default:
		return StatusUnknown
	}
}

// Capability names one optional platform feature.
type Capability string

const (
	CapabilityTelemetry      Capability = "telemetry"
	CapabilityFirmwareInfo   Capability = "firmwareInfo"
	CapabilityLocation       Capability = "location"
	CapabilityRemoteCommands Capability = "remoteCommands"
)

// Capabilities is the capability set of one adapter.
type Capabilities struct {
	Telemetry      bool
	FirmwareInfo   bool
	Location       bool
	RemoteCommands bool
}

// Set returns the enabled capabilities in a stable order.
func (c Capabilities) Set() []Capability {
	out := []Capability{}
	if c.Telemetry {
		out = append(out, CapabilityTelemetry)
	}
	if c.FirmwareInfo {
		out = append(out, CapabilityFirmwareInfo)
	}
	if c.Location {
		out = append(out, CapabilityLocation)
	}
	if c.RemoteCommands {
		out = append(out, CapabilityRemoteCommands)
	}
	return out
}

// Has reports whether the capability is enabled.
func (c Capabilities) Has(capability Capability) bool {
	for _, enabled := range c.Set() {
		if enabled == capability {
			return true
		}
	}
	return false
}

// String is a convenience constructor for optional string fields. Empty input stays absent.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Time is a convenience constructor for optional time fields. The zero time stays absent.
func Time(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}
