package filtering

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/outcomes-backend/internal/data/repos"
	"github.com/yungbote/outcomes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/outcomes-backend/internal/domain"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
)

func TestApplyGormAgreesWithMatch(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := repos.NewOutcomeRepo(db, testutil.Logger(t))

	set := testutil.SeedOutcomeSet(t, ctx, tx)
	other := testutil.SeedOutcomeSet(t, ctx, tx)
	mathTen := testutil.SeedOutcome(t, ctx, tx, set.ID, nil, 0, []string{"9", "10"}, []string{"Math", "Art"})
	science := testutil.SeedOutcome(t, ctx, tx, set.ID, nil, 1, []string{"11"}, []string{"Science"})
	tenOnly := testutil.SeedOutcome(t, ctx, tx, set.ID, nil, 2, []string{"10"}, nil)
	hidden := testutil.SeedOutcome(t, ctx, tx, set.ID, nil, 3, nil, []string{"Science"})
	if err := tx.Model(&types.Outcome{}).Where("id = ?", hidden.ID).Update("deleted", true).Error; err != nil {
		t.Fatalf("seed deleted: %v", err)
	}
	testutil.SeedOutcome(t, ctx, tx, other.ID, nil, 0, []string{"10"}, []string{"Math"})

	c, err := Compile([]types.FacetPredicate{
		{Edulevels: s("10"), Subjects: s("Math")},
		{Subjects: s("Science")},
	}, set.ID, true)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	rows, err := repo.ListScoped(dbc, Scope(c))
	if err != nil {
		t.Fatalf("ListScoped: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != mathTen.ID || rows[1].ID != science.ID {
		t.Fatalf("filtered rows: want=[%d %d] got=%v", mathTen.ID, science.ID, ids(rows))
	}

	all, err := repo.ListBySet(dbc, set.ID, true)
	if err != nil {
		t.Fatalf("ListBySet: %v", err)
	}
	inMemory, err := MatchAll(c, all)
	if err != nil {
		t.Fatalf("MatchAll: %v", err)
	}
	if len(inMemory) != len(rows) {
		t.Fatalf("Match and ApplyGorm disagree: sql=%v mem=%v", ids(rows), ids(inMemory))
	}

	wild, _ := Compile([]types.FacetPredicate{{Subjects: s("Math")}, {}}, set.ID, false)
	rows, err = repo.ListScoped(dbc, Scope(wild))
	if err != nil || len(rows) != 4 {
		t.Fatalf("wildcard: want all 4 outcomes of the set got=%v err=%v", ids(rows), err)
	}

	ten, _ := Compile([]types.FacetPredicate{{Edulevels: s("10")}}, set.ID, false)
	rows, err = repo.ListScoped(dbc, Scope(ten))
	if err != nil || len(rows) != 2 || rows[1].ID != tenOnly.ID {
		t.Fatalf("edulevel 10: got=%v err=%v", ids(rows), err)
	}

	bad := Compiled{SetID: set.ID, Expr: FacetEq{Facet: "colour", Value: "red"}, Joins: []Join{{Facet: "colour", Alias: "md_colour"}}}
	if _, err := repo.ListScoped(dbc, Scope(bad)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("malformed scope: want ErrMalformed got=%v", err)
	}
}

func ids(rows []*types.Outcome) []uint {
	out := make([]uint, 0, len(rows))
	for _, o := range rows {
		out = append(out, o.ID)
	}
	return out
}
