// Package store is the gorm repository behind the sync engine. Every write the
// orchestrator or the conflict resolver performs goes through it, so callers can
// group writes with Transaction.
package store
