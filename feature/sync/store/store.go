package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleet-sync/core/runlock"
	"fleet-sync/feature/sync/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the canonical store of the sync engine.
type Store struct {
	db *gorm.DB
}

// New creates a store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// AutoMigrate creates or updates every table the engine owns, including the run lock table.
func (s *Store) AutoMigrate() error {
	tables := append(models.All(), &runlock.Row{})
	if err := s.db.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Transaction runs fn with a store bound to a single database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
	}
	return fmt.Errorf("failed to load %s %s: %w", what, id, err)
}

// GetIntegration loads one integration.
func (s *Store) GetIntegration(ctx context.Context, id string) (*models.Integration, error) {
	var integration models.Integration
	if err := s.db.WithContext(ctx).First(&integration, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "integration", id)
	}
	return &integration, nil
}

// CreateIntegration inserts an integration.
func (s *Store) CreateIntegration(ctx context.Context, integration *models.Integration) error {
	if err := s.db.WithContext(ctx).Create(integration).Error; err != nil {
		return fmt.Errorf("failed to create integration: %w", err)
	}
	return nil
}

// MarkIntegrationSynced records the outcome of a sealed run on the integration.
// The incremental watermark last_sync_at only moves when watermark is set.
func (s *Store) MarkIntegrationSynced(ctx context.Context, id string, status models.RunStatus, watermark *time.Time, at time.Time) error {
	columns := map[string]any{
		"last_sync_status": status,
		"updated_at":       at,
	}
	if watermark != nil {
		columns["last_sync_at"] = *watermark
	}
	err := s.db.WithContext(ctx).
		Model(&models.Integration{}).
		Where("id = ?", id).
		UpdateColumns(columns).Error
	if err != nil {
		return fmt.Errorf("failed to mark integration %s synced: %w", id, err)
	}
	return nil
}

// ListDevices returns every device of an integration, retired ones included.
func (s *Store) ListDevices(ctx context.Context, integrationID string) ([]*models.Device, error) {
	var devices []*models.Device
	err := s.db.WithContext(ctx).
		Where("integration_id = ?", integrationID).
		Order("external_device_id").
		Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// GetDevice loads one device of an organization.
func (s *Store) GetDevice(ctx context.Context, orgID, id string) (*models.Device, error) {
	var device models.Device
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&device).Error
	if err != nil {
		return nil, notFound(err, "device", id)
	}
	return &device, nil
}

// CreateDevice inserts a device.
func (s *Store) CreateDevice(ctx context.Context, device *models.Device) error {
	if err := s.db.WithContext(ctx).Create(device).Error; err != nil {
		return fmt.Errorf("failed to create device %s: %w", device.ExternalDeviceID, err)
	}
	return nil
}

// UpdateDeviceColumns writes only the given columns of a device.
func (s *Store) UpdateDeviceColumns(ctx context.Context, id string, columns map[string]any) error {
	res := s.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("id = ?", id).
		Updates(columns)
	if res.Error != nil {
		return fmt.Errorf("failed to update device %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: device %s", ErrNotFound, id)
	}
	return nil
}

// RetireDevice marks a device as absent from its provider.
func (s *Store) RetireDevice(ctx context.Context, id string, at time.Time) error {
	return s.UpdateDeviceColumns(ctx, id, map[string]any{"retired_at": at, "last_synced_at": at})
}

// LinkParents resolves parent_external_id to parent_device_id within one integration.
func (s *Store) LinkParents(ctx context.Context, integrationID string) error {
	devices, err := s.ListDevices(ctx, integrationID)
	if err != nil {
		return err
	}

	byExternal := make(map[string]string, len(devices))
	for _, d := range devices {
		byExternal[d.ExternalDeviceID] = d.ID
	}

	for _, d := range devices {
		var want *string
		if d.ParentExternalID != nil {
			if id, ok := byExternal[*d.ParentExternalID]; ok {
				want = &id
			}
		}
		if equalPtr(want, d.ParentDeviceID) {
			continue
		}
		err := s.db.WithContext(ctx).
			Model(&models.Device{}).
			Where("id = ?", d.ID).
			UpdateColumn("parent_device_id", want).Error
		if err != nil {
			return fmt.Errorf("failed to link parent of device %s: %w", d.ID, err)
		}
	}
	return nil
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
