package reconcile

import (
	"fmt"
	"strings"
	"time"

	"fleet-sync/core/provider"
	"fleet-sync/feature/sync/models"

	"github.com/goccy/go-json"
)

// Changeset accumulates field writes on one device and turns them into the
// column updates and the refreshed sync baseline.
type Changeset struct {
	device   *models.Device
	columns  map[string]any
	metadata map[string]any
	baseline map[string]any
	// settled is loaded on the first write that touches it.
	settled map[string]any
}

// NewChangeset starts a changeset on d. d is mutated as fields are set.
func NewChangeset(d *models.Device) *Changeset {
	return &Changeset{
		device:   d,
		columns:  map[string]any{},
		baseline: d.Baseline(),
	}
}

// Set writes value to field and records it as the new baseline.
func (c *Changeset) Set(field string, value any) error {
	if err := c.write(field, value); err != nil {
		return err
	}
	c.baseline[field] = value
	c.unsettle(field)
	return nil
}

// Write writes value to field without touching the baseline.
func (c *Changeset) Write(field string, value any) error {
	return c.write(field, value)
}

// Settle records that the current local value of field wins over remote, and
// takes remote as the baseline. The pair is not raised as a conflict again
// until either side moves.
func (c *Changeset) Settle(field string, remote any) {
	c.baseline[field] = remote
	c.loadSettled()
	c.settled[field] = c.current(field)
}

// current returns the value of field including writes not yet finalized.
func (c *Changeset) current(field string) any {
	if key, ok := strings.CutPrefix(field, MetadataPrefix); ok && c.metadata != nil {
		return c.metadata[key]
	}
	return Value(c.device, field)
}

// unsettle drops a settled value once sync writes the field.
func (c *Changeset) unsettle(field string) {
	if c.settled == nil {
		if _, ok := c.device.Settled()[field]; !ok {
			return
		}
		c.loadSettled()
	}
	delete(c.settled, field)
}

func (c *Changeset) loadSettled() {
	if c.settled == nil {
		c.settled = c.device.Settled()
	}
}

// Empty reports whether nothing was changed.
func (c *Changeset) Empty() bool {
	return len(c.columns) == 0 && c.metadata == nil
}

// Columns finalizes the changeset into column updates, baseline included.
func (c *Changeset) Columns() (map[string]any, error) {
	if c.metadata != nil {
		raw, err := json.Marshal(c.metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata: %w", err)
		}
		c.device.Metadata = raw
		c.columns["metadata"] = c.device.Metadata
	}
	if err := c.device.SetBaseline(c.baseline); err != nil {
		return nil, err
	}
	c.columns["sync_baseline"] = c.device.SyncBaseline
	if c.settled != nil {
		if err := c.device.SetSettled(c.settled); err != nil {
			return nil, err
		}
		c.columns["sync_settled"] = c.device.SyncSettled
	}
	return c.columns, nil
}

func (c *Changeset) write(field string, value any) error {
	if key, ok := strings.CutPrefix(field, MetadataPrefix); ok {
		if key == "" {
			return validationf("empty metadata key")
		}
		if c.metadata == nil {
			c.metadata = c.device.MetadataMap()
		}
		if value == nil {
			delete(c.metadata, key)
		} else {
			c.metadata[key] = value
		}
		return nil
	}

	switch field {
	case FieldStatus:
		s, err := asString(field, value)
		if err != nil {
			return err
		}
		status := provider.Status(s)
		if !status.Valid() {
			return validationf("invalid status %q", s)
		}
		c.device.Status = status
		c.columns["status"] = status
	case FieldName:
		s, err := asString(field, value)
		if err != nil {
			return err
		}
		c.device.Name = s
		c.columns["name"] = s
	case FieldDeviceType:
		s, err := asString(field, value)
		if err != nil {
			return err
		}
		c.device.DeviceType = s
		c.columns["device_type"] = s
	case FieldHardwareIDs:
		ids, err := asStrings(field, value)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(ids)
		if err != nil {
			return fmt.Errorf("failed to encode hardware ids: %w", err)
		}
		c.device.HardwareIDs = raw
		c.columns["hardware_ids"] = c.device.HardwareIDs
	case FieldCohortID:
		return c.setOptional(field, value, &c.device.CohortID, "cohort_id")
	case FieldParentExternalID:
		return c.setOptional(field, value, &c.device.ParentExternalID, "parent_external_id")
	case FieldFirmwareVersion:
		return c.setOptional(field, value, &c.device.FirmwareVersion, "firmware_version")
	case FieldLastSeenOnline:
		return c.setTime(field, value, &c.device.LastSeenOnline, "last_seen_online")
	case FieldLastSeenOffline:
		return c.setTime(field, value, &c.device.LastSeenOffline, "last_seen_offline")
	default:
		return validationf("field %q is not sync-owned", field)
	}
	return nil
}

func (c *Changeset) setOptional(field string, value any, dst **string, column string) error {
	if value == nil {
		*dst = nil
		c.columns[column] = nil
		return nil
	}
	s, err := asString(field, value)
	if err != nil {
		return err
	}
	*dst = &s
	c.columns[column] = s
	return nil
}

func (c *Changeset) setTime(field string, value any, dst **time.Time, column string) error {
	if value == nil {
		*dst = nil
		c.columns[column] = nil
		return nil
	}
	s, err := asString(field, value)
	if err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return validationf("%s must be an RFC 3339 timestamp", field)
	}
	t = t.UTC()
	*dst = &t
	c.columns[column] = t
	return nil
}

func asString(field string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", validationf("%s must be a string, got %T", field, value)
	}
	return s, nil
}

func asStrings(field string, value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, validationf("%s must be a list of strings", field)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, validationf("%s must be a list of strings, got %T", field, value)
}
