package reconcile

// Adapter defines the model-specific side of a reconciliation between a local
// record type L and a remote snapshot type R.
//
// The engine never inspects L or R directly: keys, field values, the
// baseline, and validation all come through the adapter.
type Adapter[L, R any] interface {
	// Fields returns the reconciled field names for a remote snapshot, in a
	// stable order. Fields may vary per snapshot, e.g. one per reported metadata key.
	Fields(remote R) []string

	// LocalKey returns the matching key of a local record.
	LocalKey(local L) string

	// RemoteKey returns the matching key of a remote snapshot.
	RemoteKey(remote R) string

	// LocalValue returns the current local value of field.
	LocalValue(local L, field string) any

	// RemoteValue returns the remote value of field. ok is false when the remote
	// did not report the field; absent fields are never applied or compared.
	RemoteValue(remote R, field string) (value any, ok bool)

	// BaselineValue returns the value sync last wrote or acknowledged for field.
	// ok is false when sync has never written it, in which case the local value
	// counts as unmodified.
	BaselineValue(local L, field string) (value any, ok bool)

	// SettledValue returns the local value a resolution chose to keep over the
	// remote value recorded as baseline at that time. ok is false when none was.
	SettledValue(local L, field string) (value any, ok bool)

	// IsFrozen reports whether field has an unresolved conflict and must not be touched.
	IsFrozen(local L, field string) bool

	// Validate rejects a malformed remote snapshot.
	Validate(remote R) error

	// IsRetired reports whether a local record was already retired.
	IsRetired(local L) bool
}
