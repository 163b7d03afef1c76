package taxonomy

import (
	"fmt"
	"sort"

	types "github.com/yungbote/outcomes-backend/internal/domain"
)

// Forest is an arena view over the outcomes of one set: nodes by id plus
// child lists in input order. It never holds pointers from child to parent.
type Forest struct {
	byID     map[uint]*types.Outcome
	children map[uint][]*types.Outcome
	order    []*types.Outcome
}

// NewForest indexes outcomes. Children keep the order they have in the slice;
// key 0 holds the roots.
func NewForest(outcomes []*types.Outcome) *Forest {
	f := &Forest{
		byID:     make(map[uint]*types.Outcome, len(outcomes)),
		children: map[uint][]*types.Outcome{},
	}
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		f.order = append(f.order, o)
		if o.ID != 0 {
			f.byID[o.ID] = o
		}
		f.children[o.ParentKey()] = append(f.children[o.ParentKey()], o)
	}
	return f
}

func (f *Forest) Get(id uint) *types.Outcome { return f.byID[id] }

func (f *Forest) Roots() []*types.Outcome { return f.children[0] }

func (f *Forest) Children(id uint) []*types.Outcome { return f.children[id] }

// WouldCycle reports whether hanging id below parentID closes a loop.
func (f *Forest) WouldCycle(id, parentID uint) bool {
	if parentID == 0 {
		return false
	}
	seen := map[uint]bool{}
	for cur := parentID; cur != 0; {
		if cur == id || seen[cur] {
			return true
		}
		seen[cur] = true
		p := f.byID[cur]
		if p == nil {
			return false
		}
		cur = p.ParentKey()
	}
	return false
}

type IssueKind string

const (
	IssueUnknownParent IssueKind = "unknown_parent"
	IssueCrossSet      IssueKind = "cross_set_parent"
	IssueCycle         IssueKind = "cycle"
	IssueSelfParent    IssueKind = "self_parent"
)

type Issue struct {
	OutcomeID uint
	ParentID  uint
	Kind      IssueKind
}

func (i Issue) String() string {
	return fmt.Sprintf("outcome %d: %s (parent %d)", i.OutcomeID, i.Kind, i.ParentID)
}

// ValidateForest checks that parent edges stay inside one set and form no
// cycles. Issues are sorted by outcome id; an empty result means valid.
func ValidateForest(outcomes []*types.Outcome) []Issue {
	f := NewForest(outcomes)
	var issues []Issue
	inCycle := map[uint]bool{}
	for _, o := range f.order {
		if !o.HasParent() {
			continue
		}
		pid := o.ParentKey()
		if pid == o.ID {
			issues = append(issues, Issue{OutcomeID: o.ID, ParentID: pid, Kind: IssueSelfParent})
			continue
		}
		p := f.byID[pid]
		if p == nil {
			issues = append(issues, Issue{OutcomeID: o.ID, ParentID: pid, Kind: IssueUnknownParent})
			continue
		}
		if p.OutcomeSetID != o.OutcomeSetID {
			issues = append(issues, Issue{OutcomeID: o.ID, ParentID: pid, Kind: IssueCrossSet})
			continue
		}
		if !inCycle[o.ID] && f.WouldCycle(o.ID, pid) {
			for _, id := range f.cycleFrom(o.ID) {
				inCycle[id] = true
			}
			issues = append(issues, Issue{OutcomeID: o.ID, ParentID: pid, Kind: IssueCycle})
		}
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].OutcomeID < issues[j].OutcomeID })
	return issues
}

// cycleFrom walks parents from id until it returns to id.
func (f *Forest) cycleFrom(id uint) []uint {
	out := []uint{id}
	seen := map[uint]bool{id: true}
	for cur := f.byID[id].ParentKey(); cur != 0 && !seen[cur]; {
		seen[cur] = true
		out = append(out, cur)
		p := f.byID[cur]
		if p == nil {
			break
		}
		cur = p.ParentKey()
	}
	return out
}
