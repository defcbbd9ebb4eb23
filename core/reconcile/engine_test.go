package reconcile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type localItem struct {
	key      string
	values   map[string]any
	baseline map[string]any
	settled  map[string]any
	frozen   map[string]bool
	retired  bool
}

type remoteItem struct {
	key    string
	values map[string]any
	bad    bool
}

var errBadSnapshot = errors.New("bad snapshot")

type mockAdapter struct{}

func (mockAdapter) Fields(*remoteItem) []string           { return []string{"name", "status"} }
func (mockAdapter) LocalKey(l *localItem) string          { return l.key }
func (mockAdapter) RemoteKey(r *remoteItem) string        { return r.key }
func (mockAdapter) IsRetired(l *localItem) bool           { return l.retired }
func (mockAdapter) LocalValue(l *localItem, f string) any { return l.values[f] }

func (mockAdapter) RemoteValue(r *remoteItem, f string) (any, bool) {
	v, ok := r.values[f]
	return v, ok
}

func (mockAdapter) BaselineValue(l *localItem, f string) (any, bool) {
	v, ok := l.baseline[f]
	return v, ok
}

func (mockAdapter) SettledValue(l *localItem, f string) (any, bool) {
	v, ok := l.settled[f]
	return v, ok
}

func (mockAdapter) IsFrozen(l *localItem, f string) bool { return l.frozen[f] }

func (mockAdapter) Validate(r *remoteItem) error {
	if r.bad {
		return errBadSnapshot
	}
	return nil
}

func find(t *testing.T, plan *Plan[*localItem, *remoteItem], key string) Result[*localItem, *remoteItem] {
	t.Helper()
	for _, r := range plan.Results {
		if r.Key == key {
			return r
		}
	}
	t.Fatalf("no result for key %s", key)
	return Result[*localItem, *remoteItem]{}
}

func TestBuildPlan_Partition(t *testing.T) {
	local := []*localItem{
		{key: "a", values: map[string]any{"name": "A", "status": "online"}},
		{key: "b", values: map[string]any{"name": "B", "status": "online"}},
		{key: "gone", values: map[string]any{"name": "G"}},
		{key: "old", values: map[string]any{"name": "O"}, retired: true},
	}
	remote := []*remoteItem{
		{key: "a", values: map[string]any{"name": "A", "status": "online"}},
		{key: "b", values: map[string]any{"status": "offline"}},
		{key: "new", values: map[string]any{"name": "N", "status": "online"}},
		{key: "", values: map[string]any{}},
		{key: "broken", bad: true},
		{key: "new", values: map[string]any{"name": "N2"}},
	}

	plan := BuildPlan(local, remote, mockAdapter{}, Options{AllowRetire: true})

	assert.Equal(t, []string{"new"}, plan.Keys(ActionCreate))
	assert.Equal(t, []string{"b"}, plan.Keys(ActionUpdate))
	assert.Equal(t, []string{"gone"}, plan.Keys(ActionRetire))
	assert.Equal(t, []string{"a", "old"}, plan.Keys(ActionUnchanged))
	assert.Len(t, plan.Filter(ActionInvalid), 3)

	// every local and every remote key lands in exactly one entry
	assert.Equal(t, Summary{Total: 8, Create: 1, Update: 1, Retire: 1, Unchanged: 2, Invalid: 3}, plan.Summary)
	assert.True(t, find(t, plan, "old").Absent)
	assert.True(t, find(t, plan, "gone").Absent)
	assert.False(t, find(t, plan, "a").Absent)

	for _, r := range plan.Filter(ActionInvalid) {
		switch r.Key {
		case "":
			assert.ErrorIs(t, r.Err, ErrEmptyKey)
		case "broken":
			assert.ErrorIs(t, r.Err, errBadSnapshot)
		case "new":
			assert.ErrorIs(t, r.Err, ErrDuplicateKey)
		}
	}

	created := find(t, plan, "new")
	assert.Equal(t, ActionCreate, created.Action)
	assert.Len(t, created.Changes, 2)
}

func TestBuildPlan_NoRetireWithoutOption(t *testing.T) {
	local := []*localItem{{key: "gone", values: map[string]any{"name": "G"}}}

	plan := BuildPlan(local, nil, mockAdapter{}, Options{})

	// without retiring the absent record is classified unchanged
	require.Len(t, plan.Results, 1)
	assert.Equal(t, ActionUnchanged, plan.Results[0].Action)
	assert.True(t, plan.Results[0].Absent)
	assert.Equal(t, Summary{Total: 1, Unchanged: 1}, plan.Summary)
}

func TestBuildPlan_FieldPolicy(t *testing.T) {
	tests := []struct {
		name     string
		local    *localItem
		remote   *remoteItem
		action   ActionType
		changes  int
		conflict bool
		kept     bool
		frozen   bool
	}{
		{
			name:   "remote wins without baseline",
			local:  &localItem{key: "k", values: map[string]any{"name": "old"}},
			remote: &remoteItem{key: "k", values: map[string]any{"name": "new"}},
			action: ActionUpdate, changes: 1,
		},
		{
			name:   "remote wins when local untouched since baseline",
			local:  &localItem{key: "k", values: map[string]any{"name": "old"}, baseline: map[string]any{"name": "old"}},
			remote: &remoteItem{key: "k", values: map[string]any{"name": "new"}},
			action: ActionUpdate, changes: 1,
		},
		{
			name:   "local edit diverging from unchanged remote",
			local:  &localItem{key: "k", values: map[string]any{"name": "mine"}, baseline: map[string]any{"name": "old"}},
			remote: &remoteItem{key: "k", values: map[string]any{"name": "old"}},
			action: ActionUnchanged, conflict: true,
		},
		{
			name: "settled local edit kept",
			local: &localItem{key: "k", values: map[string]any{"name": "mine"}, baseline: map[string]any{"name": "old"},
				settled: map[string]any{"name": "mine"}},
			remote: &remoteItem{key: "k", values: map[string]any{"name": "old"}},
			action: ActionUnchanged, kept: true,
		},
		{
			name: "settled pair reopened by a remote change",
			local: &localItem{key: "k", values: map[string]any{"name": "mine"}, baseline: map[string]any{"name": "old"},
				settled: map[string]any{"name": "mine"}},
			remote: &remoteItem{key: "k", values: map[string]any{"name": "newer"}},
			action: ActionUnchanged, conflict: true,
		},
		{
			name: "settled pair reopened by a local change",
			local: &localItem{key: "k", values: map[string]any{"name": "edited again"}, baseline: map[string]any{"name": "old"},
				settled: map[string]any{"name": "mine"}},
			remote: &remoteItem{key: "k", values: map[string]any{"name": "old"}},
			action: ActionUnchanged, conflict: true,
		},
		{
			name:   "both sides changed",
			local:  &localItem{key: "k", values: map[string]any{"name": "mine"}, baseline: map[string]any{"name": "old"}},
			remote: &remoteItem{key: "k", values: map[string]any{"name": "theirs"}},
			action: ActionUnchanged, conflict: true,
		},
		{
			name:   "both sides converged",
			local:  &localItem{key: "k", values: map[string]any{"name": "same"}, baseline: map[string]any{"name": "old"}},
			remote: &remoteItem{key: "k", values: map[string]any{"name": "same"}},
			action: ActionUnchanged,
		},
		{
			name: "frozen field skipped",
			local: &localItem{key: "k", values: map[string]any{"name": "mine"}, baseline: map[string]any{"name": "old"},
				frozen: map[string]bool{"name": true}},
			remote: &remoteItem{key: "k", values: map[string]any{"name": "theirs"}},
			action: ActionUnchanged, frozen: true,
		},
		{
			name:   "absent remote field never applied",
			local:  &localItem{key: "k", values: map[string]any{"name": "mine"}},
			remote: &remoteItem{key: "k", values: map[string]any{}},
			action: ActionUnchanged,
		},
		{
			name:   "retired record revived",
			local:  &localItem{key: "k", values: map[string]any{"name": "n"}, retired: true},
			remote: &remoteItem{key: "k", values: map[string]any{"name": "n"}},
			action: ActionUpdate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := BuildPlan([]*localItem{tt.local}, []*remoteItem{tt.remote}, mockAdapter{}, Options{AllowRetire: true})
			require.Len(t, plan.Results, 1)

			r := plan.Results[0]
			assert.Equal(t, tt.action, r.Action)
			assert.Len(t, r.Changes, tt.changes)
			assert.Equal(t, tt.conflict, len(r.Conflicts) == 1)
			assert.Equal(t, tt.kept, len(r.Kept) == 1)
			assert.Equal(t, tt.frozen, len(r.Frozen) == 1)
			assert.Equal(t, tt.conflict, plan.HasConflicts())
		})
	}
}

func TestBuildPlan_ConflictCarriesValues(t *testing.T) {
	local := &localItem{key: "k", values: map[string]any{"name": "mine", "status": "online"}, baseline: map[string]any{"name": "old", "status": "online"}}
	remote := &remoteItem{key: "k", values: map[string]any{"name": "theirs", "status": "offline"}}

	plan := BuildPlan([]*localItem{local}, []*remoteItem{remote}, mockAdapter{}, Options{})
	r := plan.Results[0]

	assert.Equal(t, ActionUpdate, r.Action)
	require.Len(t, r.Conflicts, 1)
	assert.Equal(t, FieldChange{Field: "name", Local: "mine", Remote: "theirs", Baseline: "old"}, r.Conflicts[0])
	require.Len(t, r.Changes, 1)
	assert.Equal(t, "status", r.Changes[0].Field)
	assert.Equal(t, 1, plan.Summary.Conflicts)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, nil))
	assert.True(t, Equal(1, float64(1)))
	assert.True(t, Equal(map[string]any{"a": 1, "b": "x"}, map[string]any{"b": "x", "a": float64(1)}))
	assert.True(t, Equal([]string{"x", "y"}, []any{"x", "y"}))
	assert.False(t, Equal(nil, ""))
	assert.False(t, Equal([]string{"x", "y"}, []string{"y", "x"}))
	assert.False(t, Equal("a", "b"))
}
