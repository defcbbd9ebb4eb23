// Package reconcile binds the generic reconcile engine to canonical devices and
// provider snapshots.
//
// Field values are compared in a canonical form: strings for scalars, RFC 3339
// UTC strings with millisecond precision for timestamps, string lists for
// hardware ids, and decoded JSON for metadata entries. Baselines are stored in
// the same form, so a value read back from the database compares equal to the
// value that was written.
package reconcile
