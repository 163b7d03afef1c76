package taxonomy

import (
	"testing"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
	"github.com/yungbote/outcomes-backend/internal/pkg/pointers"
)

func TestValidateForest(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		in := []*types.Outcome{outcome(1, 0, 0), outcome(2, 1, 0), outcome(3, 2, 0)}
		if issues := ValidateForest(in); len(issues) != 0 {
			t.Fatalf("want no issues, got=%v", issues)
		}
	})

	t.Run("unknown parent", func(t *testing.T) {
		in := []*types.Outcome{outcome(1, 0, 0), outcome(2, 42, 0)}
		issues := ValidateForest(in)
		if len(issues) != 1 || issues[0].Kind != IssueUnknownParent || issues[0].OutcomeID != 2 {
			t.Fatalf("want unknown parent on 2, got=%v", issues)
		}
	})

	t.Run("cycle reported once", func(t *testing.T) {
		in := []*types.Outcome{outcome(1, 0, 0), outcome(2, 3, 0), outcome(3, 2, 0)}
		issues := ValidateForest(in)
		if len(issues) != 1 || issues[0].Kind != IssueCycle {
			t.Fatalf("want one cycle issue, got=%v", issues)
		}
	})

	t.Run("self parent", func(t *testing.T) {
		in := []*types.Outcome{outcome(1, 1, 0)}
		issues := ValidateForest(in)
		if len(issues) != 1 || issues[0].Kind != IssueSelfParent {
			t.Fatalf("want self parent, got=%v", issues)
		}
	})

	t.Run("cross set", func(t *testing.T) {
		p := outcome(1, 0, 0)
		p.OutcomeSetID = 2
		in := []*types.Outcome{p, outcome(2, 1, 0)}
		issues := ValidateForest(in)
		if len(issues) != 1 || issues[0].Kind != IssueCrossSet {
			t.Fatalf("want cross set, got=%v", issues)
		}
	})
}

func TestForestWouldCycle(t *testing.T) {
	f := NewForest([]*types.Outcome{outcome(1, 0, 0), outcome(2, 1, 0), outcome(3, 2, 0)})
	if !f.WouldCycle(1, 3) {
		t.Fatalf("moving 1 below 3 must cycle")
	}
	if f.WouldCycle(3, 1) {
		t.Fatalf("moving 3 below 1 must not cycle")
	}
	if f.WouldCycle(2, 0) {
		t.Fatalf("moving to root must not cycle")
	}
	if len(f.Roots()) != 1 || len(f.Children(1)) != 1 {
		t.Fatalf("unexpected shape roots=%d children(1)=%d", len(f.Roots()), len(f.Children(1)))
	}
}

func TestMergeOutcomeFields(t *testing.T) {
	base := &types.Outcome{
		IDNumber:    "A1",
		Description: "stored",
		DocNum:      "1.1",
		Assessable:  true,
		Edulevels:   []string{"9"},
		Subjects:    []string{"math"},
	}

	got := MergeOutcomeFields(base, domainagg.OutcomeDraft{
		Description:    pointers.String("formatted"),
		RawDescription: pointers.String("raw"),
		Assessable:     pointers.Ptr(false),
		Edulevels:      []string{" 10 ", "10", ""},
	})
	if got.Description != "raw" {
		t.Fatalf("raw description must win: got=%q", got.Description)
	}
	if got.Assessable {
		t.Fatalf("assessable: want=false")
	}
	if got.IDNumber != "A1" || got.DocNum != "1.1" {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if len(got.Edulevels) != 1 || got.Edulevels[0] != "10" {
		t.Fatalf("edulevels: want=[10] got=%v", got.Edulevels)
	}
	if len(got.Subjects) != 1 {
		t.Fatalf("nil facet draft must keep stored subjects, got=%v", got.Subjects)
	}

	got = MergeOutcomeFields(got, domainagg.OutcomeDraft{Description: pointers.String("plain"), Subjects: []string{}})
	if got.Description != "plain" {
		t.Fatalf("description without raw: got=%q", got.Description)
	}
	if len(got.Subjects) != 0 {
		t.Fatalf("empty facet draft must clear subjects, got=%v", got.Subjects)
	}

	fresh := MergeOutcomeFields(nil, domainagg.OutcomeDraft{IDNumber: "B2"})
	if fresh.IDNumber != "B2" || !fresh.Assessable {
		t.Fatalf("fresh outcome defaults: %+v", fresh)
	}
}
