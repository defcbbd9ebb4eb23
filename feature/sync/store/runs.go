package store

import (
	"context"
	"fmt"

	"fleet-sync/feature/sync/models"
)

// CreateRun writes a sealed sync run.
func (s *Store) CreateRun(ctx context.Context, run *models.SyncRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to seal sync run: %w", err)
	}
	return nil
}

// ListRuns returns an organization's sync runs, newest first.
func (s *Store) ListRuns(ctx context.Context, orgID, integrationID string, limit int) ([]models.SyncRun, error) {
	q := s.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if integrationID != "" {
		q = q.Where("integration_id = ?", integrationID)
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var runs []models.SyncRun
	if err := q.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	return runs, nil
}

// RecordFirmware appends a firmware history row.
func (s *Store) RecordFirmware(ctx context.Context, entry *models.FirmwareHistory) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record firmware history: %w", err)
	}
	return nil
}

// FirmwareHistory returns a device's firmware history, newest first.
func (s *Store) FirmwareHistory(ctx context.Context, deviceID string) ([]models.FirmwareHistory, error) {
	var history []models.FirmwareHistory
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("installed_at DESC").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load firmware history: %w", err)
	}
	return history, nil
}
