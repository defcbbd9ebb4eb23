package reconcile

import (
	"bytes"
	"reflect"
	"sort"

	"github.com/goccy/go-json"
)

// BuildPlan reconciles local records against a remote inventory.
//
// Every remote snapshot yields exactly one entry (create, update, unchanged or
// invalid). Every local record absent remotely yields one entry too: retire
// when opts.AllowRetire is set and it is not retired already, unchanged
// otherwise. BuildPlan performs no I/O.
func BuildPlan[L, R any](local []L, remote []R, adapter Adapter[L, R], opts Options) *Plan[L, R] {
	// Index local records by key
	localIndex := make(map[string]L, len(local))
	for _, item := range local {
		localIndex[adapter.LocalKey(item)] = item
	}

	seen := make(map[string]struct{}, len(remote))
	results := make([]Result[L, R], 0, len(remote))

	// Classify every remote snapshot
	for _, snapshot := range remote {
		key := adapter.RemoteKey(snapshot)
		result := Result[L, R]{Key: key, Remote: snapshot}

		switch _, dup := seen[key]; {
		case key == "":
			result.Action, result.Err = ActionInvalid, ErrEmptyKey
		case dup:
			result.Action, result.Err = ActionInvalid, ErrDuplicateKey
		default:
			seen[key] = struct{}{}
			if err := adapter.Validate(snapshot); err != nil {
				result.Action, result.Err = ActionInvalid, err
				break
			}
			if item, ok := localIndex[key]; ok {
				result.Local = item
				compareFields(&result, adapter)
			} else {
				result.Action = ActionCreate
				result.Changes = remoteFields(snapshot, adapter)
			}
		}

		results = append(results, result)
	}

	// Local records the inventory did not report
	for key, item := range localIndex {
		if _, ok := seen[key]; ok {
			continue
		}
		action := ActionUnchanged
		if opts.AllowRetire && !adapter.IsRetired(item) {
			action = ActionRetire
		}
		results = append(results, Result[L, R]{Key: key, Action: action, Local: item, Absent: true})
	}

	// Sort results by key for deterministic output
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Key < results[j].Key
	})

	return &Plan[L, R]{Results: results, Summary: summarize(results)}
}

// compareFields applies the per-field policy to a key present on both sides.
//
// A field left untouched locally since the baseline takes the remote value. A
// locally modified field that diverges from remote is a conflict, unless a past
// resolution already settled exactly this local value against this remote value.
func compareFields[L, R any](result *Result[L, R], adapter Adapter[L, R]) {
	for _, field := range adapter.Fields(result.Remote) {
		remoteValue, ok := adapter.RemoteValue(result.Remote, field)
		if !ok {
			continue
		}
		localValue := adapter.LocalValue(result.Local, field)
		if Equal(localValue, remoteValue) {
			continue
		}
		if adapter.IsFrozen(result.Local, field) {
			result.Frozen = append(result.Frozen, field)
			continue
		}

		baseline, hasBaseline := adapter.BaselineValue(result.Local, field)
		change := FieldChange{Field: field, Local: localValue, Remote: remoteValue, Baseline: baseline}

		switch {
		case !hasBaseline || Equal(localValue, baseline):
			result.Changes = append(result.Changes, change)
		case settled(adapter, result.Local, field, localValue, remoteValue, baseline):
			result.Kept = append(result.Kept, field)
		default:
			result.Conflicts = append(result.Conflicts, change)
		}
	}

	// A retired record reported again is revived
	result.Revive = adapter.IsRetired(result.Local)
	if len(result.Changes) > 0 || result.Revive {
		result.Action = ActionUpdate
	} else {
		result.Action = ActionUnchanged
	}
}

// settled reports whether the (local, remote) pair was settled by an earlier
// resolution: the remote still equals the baseline recorded then and the local
// value is the one that resolution kept.
func settled[L, R any](adapter Adapter[L, R], local L, field string, localValue, remoteValue, baseline any) bool {
	kept, ok := adapter.SettledValue(local, field)
	return ok && Equal(localValue, kept) && Equal(remoteValue, baseline)
}

func remoteFields[L, R any](snapshot R, adapter Adapter[L, R]) []FieldChange {
	var changes []FieldChange
	for _, field := range adapter.Fields(snapshot) {
		if value, ok := adapter.RemoteValue(snapshot, field); ok {
			changes = append(changes, FieldChange{Field: field, Remote: value})
		}
	}
	return changes
}

// Equal compares two field values by their canonical JSON encoding, so that
// numerically equal values of different Go types and maps with equal entries match.
func Equal(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	ea, errA := json.Marshal(a)
	eb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ea, eb)
}
