// Package sync orchestrates device synchronization between an integration's
// provider and the canonical device store.
//
// A run loads and authorizes the integration, builds its provider adapter,
// takes the per-integration run lock, pages through the remote inventory,
// fetches device details with a bounded worker pool, reconciles against the
// local devices and applies the plan device by device. Each device is written
// in its own transaction, so one failure never blocks the rest. The run is
// sealed into an immutable SyncRun, archived to object storage and announced
// on NATS.
//
// Dry runs stop after planning and write nothing at all.
package sync
