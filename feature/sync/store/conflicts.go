package store

import (
	"context"
	"fmt"

	"fleet-sync/feature/sync/models"
)

// PendingConflicts returns the unresolved conflicts of an integration.
func (s *Store) PendingConflicts(ctx context.Context, integrationID string) ([]models.Conflict, error) {
	var conflicts []models.Conflict
	err := s.db.WithContext(ctx).
		Where("integration_id = ? AND resolved_at IS NULL", integrationID).
		Find(&conflicts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load pending conflicts: %w", err)
	}
	return conflicts, nil
}

// CreateConflicts inserts new conflicts.
func (s *Store) CreateConflicts(ctx context.Context, conflicts []models.Conflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&conflicts).Error; err != nil {
		return fmt.Errorf("failed to create conflicts: %w", err)
	}
	return nil
}

// ListUnresolved returns an organization's unresolved conflicts, newest first,
// optionally narrowed to one device.
func (s *Store) ListUnresolved(ctx context.Context, orgID, deviceID string) ([]models.Conflict, error) {
	q := s.db.WithContext(ctx).Where("organization_id = ? AND resolved_at IS NULL", orgID)
	if deviceID != "" {
		q = q.Where("device_id = ?", deviceID)
	}

	var conflicts []models.Conflict
	if err := q.Order("detected_at DESC").Order("id").Find(&conflicts).Error; err != nil {
		return nil, fmt.Errorf("failed to list conflicts: %w", err)
	}
	return conflicts, nil
}

// GetConflict loads one conflict of an organization.
func (s *Store) GetConflict(ctx context.Context, orgID, id string) (*models.Conflict, error) {
	var conflict models.Conflict
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&conflict).Error
	if err != nil {
		return nil, notFound(err, "conflict", id)
	}
	return &conflict, nil
}

// StampResolution finalizes a conflict only if it is still unresolved.
// It reports false when another resolver got there first.
func (s *Store) StampResolution(ctx context.Context, conflict *models.Conflict) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Conflict{}).
		Where("id = ? AND resolved_at IS NULL", conflict.ID).
		Updates(map[string]any{
			"resolution":     conflict.Resolution,
			"resolved_value": conflict.ResolvedValue,
			"resolved_at":    conflict.ResolvedAt,
			"resolved_by":    conflict.ResolvedBy,
			"notes":          conflict.Notes,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to resolve conflict %s: %w", conflict.ID, res.Error)
	}
	return res.RowsAffected == 1, nil
}
