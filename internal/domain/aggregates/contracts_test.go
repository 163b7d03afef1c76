package aggregates

import (
	"testing"

	"github.com/yungbote/outcomes-backend/internal/domain/outcomes"
)

type tabler interface{ TableName() string }

func TestEveryTableHasOneOwner(t *testing.T) {
	models := []tabler{
		outcomes.OutcomeSet{}, outcomes.Outcome{}, outcomes.OutcomeMetadata{},
		outcomes.Area{}, outcomes.AreaOutcome{}, outcomes.UsedArea{}, outcomes.Attempt{},
		outcomes.Mark{}, outcomes.MarkHistory{}, outcomes.Award{}, outcomes.Filter{},
	}
	for _, m := range models {
		owners := 0
		for _, c := range Contracts() {
			if c.Owns(m.TableName()) {
				owners++
			}
		}
		if owners != 1 {
			t.Fatalf("table %s: want one owner got=%d", m.TableName(), owners)
		}
	}
	if c, ok := OwnerOf("outcome_marks_history"); !ok || c.Name != MarkingAggregateContract.Name {
		t.Fatalf("history owner: got=%+v ok=%v", c, ok)
	}
	if _, ok := OwnerOf("mdl_course_modules"); ok {
		t.Fatalf("collaborator tables are not owned")
	}
}
