// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client. fleet-sync uses it to archive sealed sync run
// reports (one JSON object per run) and to let the integrity feature verify the
// archive bucket. Both AWS S3 and self-hosted MinIO are supported.
//
// The Client interface makes storage interactions mockable (see core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	err = storage.PutJSON(ctx, client, "fleet-sync", "runs/org/integration/run.json", report)
package storage
