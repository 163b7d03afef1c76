package taxonomy

import types "github.com/yungbote/outcomes-backend/internal/domain"

// RepairSortOrder renumbers the outcomes of one set and returns those whose
// sortorder changed. It walks the tree pre-order from the roots; siblings are
// visited in the order they appear in the slice, not by their current
// sortorder. One counter runs across the whole walk, so a node's children are
// numbered before its next sibling. Outcomes unreachable from a root (unknown
// parent, cycle) keep their value.
func RepairSortOrder(outcomes []*types.Outcome) []*types.Outcome {
	f := NewForest(outcomes)
	var changed []*types.Outcome
	visited := map[*types.Outcome]bool{}
	next := 0

	var walk func(nodes []*types.Outcome)
	walk = func(nodes []*types.Outcome) {
		for _, o := range nodes {
			if visited[o] {
				continue
			}
			visited[o] = true
			if o.SortOrder != next {
				o.SortOrder = next
				changed = append(changed, o)
			}
			next++
			if o.ID != 0 {
				walk(f.Children(o.ID))
			}
		}
	}
	walk(f.Roots())
	return changed
}
