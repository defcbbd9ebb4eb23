package integrity

import (
	"context"
	"testing"

	"fleet-sync/core/database"
	"fleet-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDB(t *testing.T, migrate bool) *gorm.DB {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if migrate {
		require.NoError(t, db.AutoMigrate(Models()...))
	}
	return db
}

func emptyListing() <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo)
	close(ch)
	return ch
}

func TestService_Schema(t *testing.T) {
	t.Run("Migrated", func(t *testing.T) {
		svc := NewService(nil, "", zap.NewNop(), setupDB(t, true))
		report, err := svc.CheckSchema()
		require.NoError(t, err)
		assert.True(t, report.Matched)
		assert.Contains(t, report.Tables, "sync_locks")
	})

	t.Run("Empty", func(t *testing.T) {
		svc := NewService(nil, "", zap.NewNop(), setupDB(t, false))
		report, err := svc.CheckSchema()
		require.NoError(t, err)
		assert.False(t, report.Matched)
		assert.Len(t, report.Tables, len(Models()))
	})
}

func TestService_Archive(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		svc := NewService(nil, "", zap.NewNop(), nil)
		_, err := svc.CheckArchive(context.Background())
		assert.ErrorIs(t, err, ErrArchiveDisabled)
		assert.ErrorIs(t, svc.FixArchive(context.Background(), nil), ErrArchiveDisabled)
	})

	t.Run("CheckAndFix", func(t *testing.T) {
		mockClient := new(mocks.Client)
		svc := NewService(mockClient, "test-bucket", zap.NewNop(), nil)

		mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)
		mockClient.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return(emptyListing())
		mockClient.On("PutObject", mock.Anything, "test-bucket", "runs/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)

		report, err := svc.CheckArchive(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"runs"}, report.Missing)

		require.NoError(t, svc.FixArchive(context.Background(), report))
		assert.True(t, report.Healthy())
		mockClient.AssertExpectations(t)
	})
}
