package reconcile

import "errors"

// ErrDuplicateKey marks a remote snapshot whose key was already seen in the same inventory.
var ErrDuplicateKey = errors.New("duplicate key in remote inventory")

// ErrEmptyKey marks a remote snapshot without a key.
var ErrEmptyKey = errors.New("remote snapshot has no key")

// ActionType is the single action assigned to one key of a plan.
type ActionType string

const (
	// ActionCreate creates a local record for a remote-only key.
	ActionCreate ActionType = "create"
	// ActionUpdate writes remote field values onto an existing local record.
	ActionUpdate ActionType = "update"
	// ActionRetire marks a local-only record as no longer present remotely.
	ActionRetire ActionType = "retire"
	// ActionUnchanged leaves the local record as is.
	ActionUnchanged ActionType = "unchanged"
	// ActionInvalid marks a remote snapshot that failed validation.
	ActionInvalid ActionType = "invalid"
)

// FieldChange describes one field whose local and remote values differ.
type FieldChange struct {
	Field    string `json:"field"`
	Local    any    `json:"local"`
	Remote   any    `json:"remote"`
	Baseline any    `json:"baseline,omitempty"`
}

// Result is the plan entry for one key.
type Result[L, R any] struct {
	Key    string     `json:"key"`
	Action ActionType `json:"action"`

	// Local is the zero value for creates and invalid snapshots.
	Local L `json:"-"`
	// Remote is the zero value when Absent is set.
	Remote R `json:"-"`
	// Absent marks a local record the remote inventory did not report.
	Absent bool `json:"absent,omitempty"`

	// Changes are the fields where remote wins.
	Changes []FieldChange `json:"changes,omitempty"`
	// Conflicts are locally modified fields that diverge from remote.
	Conflicts []FieldChange `json:"conflicts,omitempty"`
	// Kept lists locally modified fields whose divergence a resolution already settled.
	Kept []string `json:"kept,omitempty"`
	// Frozen lists differing fields skipped because a conflict is pending.
	Frozen []string `json:"frozen,omitempty"`
	// Revive is set when a retired local record shows up again remotely.
	Revive bool `json:"revive,omitempty"`

	// Err is the validation failure of an invalid snapshot.
	Err error `json:"-"`
}

// Plan is the complete, side-effect free outcome of a reconciliation.
type Plan[L, R any] struct {
	Results []Result[L, R] `json:"results"`
	Summary Summary        `json:"summary"`
}

// Summary provides aggregate counts for a plan.
type Summary struct {
	// Total is the number of plan entries.
	Total     int `json:"total"`
	Create    int `json:"create"`
	Update    int `json:"update"`
	Retire    int `json:"retire"`
	Unchanged int `json:"unchanged"`
	Invalid   int `json:"invalid"`
	// Conflicts counts conflicting fields across all entries.
	Conflicts int `json:"conflicts"`
}

// Options controls which actions a plan may contain.
type Options struct {
	// AllowRetire enables retire actions. It must only be set when the remote
	// inventory is known to be complete.
	AllowRetire bool
}
