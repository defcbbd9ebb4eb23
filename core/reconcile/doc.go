// Package reconcile computes what it takes to bring a set of local records in
// line with a remote inventory.
//
// The engine builds the union of local and remote keys and assigns each key
// exactly one action: create, update, retire, unchanged, or invalid for a
// malformed remote snapshot. Model knowledge lives in an Adapter.
//
// # Field policy
//
// For a key present on both sides, each field is decided against the baseline,
// the value sync itself last wrote:
//
//   - remote did not report the field: skip
//   - local equals remote: nothing to do
//   - a conflict is pending on the field: skip (frozen)
//   - local changed since baseline and remote changed since baseline: conflict
//   - only local changed: keep local
//   - otherwise: remote wins
//
// A field without a baseline is treated as locally unmodified.
//
// # Usage Example
//
//	plan := reconcile.BuildPlan(devices, snapshots, adapter, reconcile.Options{AllowRetire: full})
//	for _, result := range plan.Filter(reconcile.ActionUpdate) {
//	    // apply result.Changes
//	}
//
// BuildPlan has no side effects; callers apply the plan.
package reconcile
