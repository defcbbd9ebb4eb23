package reconcile

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fleet-sync/core/provider"
	"fleet-sync/feature/sync/models"
)

// Sync-owned device fields.
const (
	FieldStatus           = "status"
	FieldName             = "name"
	FieldDeviceType       = "device_type"
	FieldHardwareIDs      = "hardware_ids"
	FieldCohortID         = "cohort_id"
	FieldParentExternalID = "parent_external_id"
	FieldFirmwareVersion  = "firmware_version"
	FieldLastSeenOnline   = "last_seen_online"
	FieldLastSeenOffline  = "last_seen_offline"

	// MetadataPrefix prefixes one field per reported metadata key, e.g. "metadata.zone".
	MetadataPrefix = "metadata."
)

var scalarFields = []string{
	FieldStatus,
	FieldName,
	FieldDeviceType,
	FieldHardwareIDs,
	FieldCohortID,
	FieldParentExternalID,
	FieldFirmwareVersion,
	FieldLastSeenOnline,
	FieldLastSeenOffline,
}

// IsSyncField reports whether name is a field sync may write.
func IsSyncField(name string) bool {
	if key, ok := strings.CutPrefix(name, MetadataPrefix); ok {
		return key != ""
	}
	for _, f := range scalarFields {
		if f == name {
			return true
		}
	}
	return false
}

// SnapshotFields returns the fields of a snapshot: every scalar field plus one
// per metadata key, metadata keys sorted.
func SnapshotFields(s *provider.Snapshot) []string {
	fields := append([]string(nil), scalarFields...)
	keys := make([]string, 0, len(s.Metadata))
	for k := range s.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, MetadataPrefix+k)
	}
	return fields
}

// timeValue is the canonical representation of a timestamp field.
func timeValue(t time.Time) string {
	return t.UTC().Truncate(time.Millisecond).Format(time.RFC3339Nano)
}

// Value returns the canonical value of field on a device. Unset fields are nil.
func Value(d *models.Device, field string) any {
	if key, ok := strings.CutPrefix(field, MetadataPrefix); ok {
		return d.MetadataMap()[key]
	}

	switch field {
	case FieldStatus:
		return string(d.Status)
	case FieldName:
		return d.Name
	case FieldDeviceType:
		return d.DeviceType
	case FieldHardwareIDs:
		if ids := d.HardwareIDList(); ids != nil {
			return ids
		}
		return nil
	case FieldCohortID:
		return strValue(d.CohortID)
	case FieldParentExternalID:
		return strValue(d.ParentExternalID)
	case FieldFirmwareVersion:
		return strValue(d.FirmwareVersion)
	case FieldLastSeenOnline:
		return tsValue(d.LastSeenOnline)
	case FieldLastSeenOffline:
		return tsValue(d.LastSeenOffline)
	}
	return nil
}

// SnapshotValue returns the canonical value of field on a snapshot. ok is false
// when the provider did not report it.
func SnapshotValue(s *provider.Snapshot, field string) (any, bool) {
	if key, ok := strings.CutPrefix(field, MetadataPrefix); ok {
		v, present := s.Metadata[key]
		return v, present
	}

	switch field {
	case FieldStatus:
		if s.Status == "" {
			return nil, false
		}
		return string(s.Status), true
	case FieldName:
		return optional(s.Name)
	case FieldDeviceType:
		return optional(s.DeviceType)
	case FieldHardwareIDs:
		if s.HardwareIDs == nil {
			return nil, false
		}
		return s.HardwareIDs, true
	case FieldCohortID:
		return optional(s.CohortID)
	case FieldParentExternalID:
		return optional(s.ParentExternalID)
	case FieldFirmwareVersion:
		return optional(s.FirmwareVersion)
	case FieldLastSeenOnline:
		if s.LastSeenOnline == nil {
			return nil, false
		}
		return timeValue(*s.LastSeenOnline), true
	case FieldLastSeenOffline:
		if s.LastSeenOffline == nil {
			return nil, false
		}
		return timeValue(*s.LastSeenOffline), true
	}
	return nil, false
}

func optional(p *string) (any, bool) {
	if p == nil {
		return nil, false
	}
	return *p, true
}

func strValue(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func tsValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return timeValue(*t)
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrValidation, fmt.Sprintf(format, args...))
}
