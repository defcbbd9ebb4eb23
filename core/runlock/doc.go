// Package runlock provides the per-integration mutual exclusion that keeps two
// sync runs for the same integration from overlapping.
//
// Leases carry a TTL so a crashed holder cannot block the key forever.
// Memory serves a single process; Gorm stores leases in the sync_locks table
// so several service replicas share them.
package runlock
