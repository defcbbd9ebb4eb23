package checks

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"fleet-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// RequiredPrefixes lists the folders that must exist in the archive bucket.
var RequiredPrefixes = []string{"runs"}

// ArchiveReport is the state of the sync report archive.
type ArchiveReport struct {
	Bucket  string   `json:"bucket"`
	Exists  bool     `json:"exists"`
	Missing []string `json:"missing"`
	Reports int      `json:"reports"`
}

// Healthy reports whether nothing needs fixing.
func (r *ArchiveReport) Healthy() bool {
	return r.Exists && len(r.Missing) == 0
}

// CheckArchive inspects the archive bucket. A missing bucket is reported, not returned as an error.
func CheckArchive(ctx context.Context, client storage.Client, bucket string) (*ArchiveReport, error) {
	report := &ArchiveReport{Bucket: bucket, Missing: []string{}}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		report.Missing = append(report.Missing, RequiredPrefixes...)
		return report, nil
	}
	report.Exists = true

	for _, prefix := range RequiredPrefixes {
		opts := minio.ListObjectsOptions{
			Prefix:    folder(prefix),
			Recursive: true,
		}

		found := false
		for obj := range client.ListObjects(ctx, bucket, opts) {
			if obj.Err != nil {
				return nil, fmt.Errorf("failed to list %s: %w", prefix, obj.Err)
			}
			found = true
			if strings.HasSuffix(obj.Key, ".json") {
				report.Reports++
			}
		}

		if !found {
			report.Missing = append(report.Missing, prefix)
		}
	}

	return report, nil
}

// FixArchive creates the bucket when absent and the missing folders.
func FixArchive(ctx context.Context, client storage.Client, logger *zap.Logger, report *ArchiveReport) error {
	if !report.Exists {
		if err := client.MakeBucket(ctx, report.Bucket, minio.MakeBucketOptions{}); err != nil {
			logger.Error("Failed to create bucket", zap.String("bucket", report.Bucket), zap.Error(err))
			return fmt.Errorf("failed to create bucket %s: %w", report.Bucket, err)
		}
		logger.Info("Created archive bucket", zap.String("bucket", report.Bucket))
		report.Exists = true
	}

	for _, prefix := range report.Missing {
		_, err := client.PutObject(ctx, report.Bucket, folder(prefix), bytes.NewReader([]byte{}), 0, minio.PutObjectOptions{})
		if err != nil {
			logger.Error("Failed to create folder", zap.String("folder", prefix), zap.Error(err))
			return err
		}
		logger.Info("Created missing folder", zap.String("folder", prefix))
	}
	report.Missing = []string{}
	return nil
}

func folder(prefix string) string {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}
