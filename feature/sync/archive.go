package sync

import (
	"context"
	"fmt"

	"fleet-sync/core/storage"
	"fleet-sync/feature/sync/models"

	"go.uber.org/zap"
)

// ArchiveKey is the object name of a run report.
func ArchiveKey(orgID, integrationID, runID string) string {
	return fmt.Sprintf("runs/%s/%s/%s.json", orgID, integrationID, runID)
}

// archiveRun stores the run report. Failures are logged, the run is already sealed.
func (s *Service) archiveRun(ctx context.Context, integration *models.Integration, res *Result, log *zap.Logger) {
	if s.archive == nil || res.RunID == "" {
		return
	}
	key := ArchiveKey(integration.OrganizationID, integration.ID, res.RunID)
	if err := storage.PutJSON(ctx, s.archive, s.bucket, key, res); err != nil {
		log.Warn("Failed to archive run report", zap.String("object", key), zap.Error(err))
		return
	}
	log.Debug("Run report archived", zap.String("object", key))
}
