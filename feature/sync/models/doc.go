// Package models contains the persisted types of the sync engine: integrations,
// canonical devices, sealed sync runs, conflicts, and firmware history.
package models
