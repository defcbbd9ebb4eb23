package reconcile

func summarize[L, R any](results []Result[L, R]) Summary {
	summary := Summary{Total: len(results)}
	for _, result := range results {
		switch result.Action {
		case ActionCreate:
			summary.Create++
		case ActionUpdate:
			summary.Update++
		case ActionRetire:
			summary.Retire++
		case ActionUnchanged:
			summary.Unchanged++
		case ActionInvalid:
			summary.Invalid++
		}
		summary.Conflicts += len(result.Conflicts)
	}
	return summary
}

// Keys returns the keys of all entries with the given action, in plan order.
func (p *Plan[L, R]) Keys(action ActionType) []string {
	keys := []string{}
	for _, result := range p.Results {
		if result.Action == action {
			keys = append(keys, result.Key)
		}
	}
	return keys
}

// Filter returns the entries with the given action.
func (p *Plan[L, R]) Filter(action ActionType) []Result[L, R] {
	var out []Result[L, R]
	for _, result := range p.Results {
		if result.Action == action {
			out = append(out, result)
		}
	}
	return out
}

// HasConflicts reports whether any entry carries a conflict candidate.
func (p *Plan[L, R]) HasConflicts() bool {
	return p.Summary.Conflicts > 0
}
