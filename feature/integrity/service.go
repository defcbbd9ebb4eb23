package integrity

import (
	"context"
	"errors"

	"fleet-sync/core/runlock"
	"fleet-sync/core/storage"
	"fleet-sync/feature/integrity/checks"
	"fleet-sync/feature/sync/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrArchiveDisabled is returned by the archive checks when no storage is configured.
var ErrArchiveDisabled = errors.New("report archive is disabled")

// Service handles integrity checks.
type Service struct {
	client storage.Client
	bucket string
	logger *zap.Logger
	db     *gorm.DB
}

// NewService creates a new integrity service. client may be nil when the archive is disabled.
func NewService(client storage.Client, bucket string, logger *zap.Logger, db *gorm.DB) *Service {
	return &Service{
		client: client,
		bucket: bucket,
		logger: logger,
		db:     db,
	}
}

// Models returns every model the canonical store must hold.
func Models() []any {
	return append(models.All(), &runlock.Row{})
}

// CheckSchema compares the database against the models.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db, Models()...)
}

// CheckArchive inspects the report archive.
func (s *Service) CheckArchive(ctx context.Context) (*checks.ArchiveReport, error) {
	if s.client == nil {
		return nil, ErrArchiveDisabled
	}
	return checks.CheckArchive(ctx, s.client, s.bucket)
}

// FixArchive creates what the report says is missing.
func (s *Service) FixArchive(ctx context.Context, report *checks.ArchiveReport) error {
	if s.client == nil {
		return ErrArchiveDisabled
	}
	return checks.FixArchive(ctx, s.client, s.logger, report)
}
