package outcomes

import (
	"context"
	"testing"

	"github.com/yungbote/outcomes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/outcomes-backend/internal/domain"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
)

func TestMarkRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewMarkRepo(db, testutil.Logger(t))

	set := testutil.SeedOutcomeSet(t, ctx, tx)
	o := testutil.SeedOutcome(t, ctx, tx, set.ID, nil, 0, nil, nil)

	m := &types.Mark{CourseID: 1, UserID: 2, OutcomeID: o.ID, GraderID: 3, Result: types.NotEarned, TimeCreated: 10, TimeModified: 10}
	if _, err := repo.Create(dbc, m); err != nil || m.ID == 0 {
		t.Fatalf("Create: id=%d err=%v", m.ID, err)
	}
	other := testutil.SeedMark(t, ctx, tx, 4, 2, o.ID, types.Earned)

	if got, err := repo.Find(dbc, 1, 2, o.ID); err != nil || got == nil || got.ID != m.ID {
		t.Fatalf("Find: got=%v err=%v", got, err)
	}

	m.Result = types.Earned
	m.GraderID = 5
	m.TimeModified = 20
	if err := repo.UpdateResult(dbc, m); err != nil {
		t.Fatalf("UpdateResult: %v", err)
	}
	got, err := repo.GetByID(dbc, m.ID)
	if err != nil || got == nil || got.Result != types.Earned || got.GraderID != 5 || got.TimeModified != 20 {
		t.Fatalf("after UpdateResult: got=%+v err=%v", got, err)
	}

	// Back to not earned must persist the zero value.
	m.Result = types.NotEarned
	if err := repo.UpdateResult(dbc, m); err != nil {
		t.Fatalf("UpdateResult not earned: %v", err)
	}
	if got, _ := repo.GetByID(dbc, m.ID); got == nil || got.Result != types.NotEarned {
		t.Fatalf("after UpdateResult not earned: got=%+v", got)
	}

	if rows, err := repo.ListOtherCourses(dbc, 2, o.ID, 1); err != nil || len(rows) != 1 || rows[0].ID != other.ID {
		t.Fatalf("ListOtherCourses: rows=%v err=%v", rows, err)
	}
	if rows, err := repo.ListByCourse(dbc, 1); err != nil || len(rows) != 1 {
		t.Fatalf("ListByCourse: rows=%v err=%v", rows, err)
	}
	if rows, err := repo.ListByCourseUser(dbc, 4, 2); err != nil || len(rows) != 1 {
		t.Fatalf("ListByCourseUser: rows=%v err=%v", rows, err)
	}
	if n, err := repo.DeleteByIDs(dbc, []uint{m.ID, other.ID}); err != nil || n != 2 {
		t.Fatalf("DeleteByIDs: n=%d err=%v", n, err)
	}
}

func TestMarkHistoryRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewMarkHistoryRepo(db, testutil.Logger(t))

	testutil.SeedHistory(t, ctx, tx, 2, 1, 9, types.Earned, 100)
	testutil.SeedHistory(t, ctx, tx, 2, 1, 9, types.NotEarned, 200)
	testutil.SeedHistory(t, ctx, tx, 3, 1, 9, types.Earned, 50)
	testutil.SeedHistory(t, ctx, tx, 1, 1, 9, types.Earned, 300)

	latest, err := repo.LatestPerOtherCourse(dbc, 1, 9, 1)
	if err != nil || len(latest) != 2 {
		t.Fatalf("LatestPerOtherCourse: rows=%v err=%v", latest, err)
	}
	for _, h := range latest {
		if h.CourseID == 2 && h.Result != types.NotEarned {
			t.Fatalf("LatestPerOtherCourse course 2: want not earned got=%v", h.Result)
		}
		if h.CourseID == 3 && h.Result != types.Earned {
			t.Fatalf("LatestPerOtherCourse course 3: want earned got=%v", h.Result)
		}
	}

	if err := repo.Insert(dbc, []*types.MarkHistory{{CourseID: 1, UserID: 1, OutcomeID: 9, Result: types.Earned, Action: types.ActionCreate, TimeCreated: 400}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if rows, err := repo.ListFor(dbc, 1, 1, 9); err != nil || len(rows) != 2 {
		t.Fatalf("ListFor: rows=%v err=%v", rows, err)
	}

	n, err := repo.DeleteBefore(dbc, 200)
	if err != nil || n != 2 {
		t.Fatalf("DeleteBefore: want=2 got=%d err=%v", n, err)
	}
	if n, err := repo.DeleteBefore(dbc, 200); err != nil || n != 0 {
		t.Fatalf("DeleteBefore repeated: want=0 got=%d err=%v", n, err)
	}
}

func TestAwardRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewAwardRepo(db, testutil.Logger(t))

	if ok, err := repo.InsertIgnore(dbc, 1, 2, 100); err != nil || !ok {
		t.Fatalf("InsertIgnore: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.InsertIgnore(dbc, 1, 2, 200); err != nil || ok {
		t.Fatalf("InsertIgnore duplicate: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.Exists(dbc, 1, 2); err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}
	rows, err := repo.ListByUser(dbc, 1, nil)
	if err != nil || len(rows) != 1 || rows[0].TimeCreated != 100 {
		t.Fatalf("ListByUser: rows=%v err=%v", rows, err)
	}
}

func TestFilterRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewFilterRepo(db, testutil.Logger(t))

	s1 := testutil.SeedOutcomeSet(t, ctx, tx)
	s2 := testutil.SeedOutcomeSet(t, ctx, tx)

	lvl := "9"
	f := &types.Filter{CourseID: 7, OutcomeSetID: s1.ID}
	if err := f.SetPredicates([]types.FacetPredicate{{Edulevels: &lvl}}); err != nil {
		t.Fatalf("SetPredicates: %v", err)
	}
	if _, err := repo.Upsert(dbc, f); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	f2 := &types.Filter{CourseID: 7, OutcomeSetID: s1.ID}
	if err := f2.SetPredicates(nil); err != nil {
		t.Fatalf("SetPredicates: %v", err)
	}
	saved, err := repo.Upsert(dbc, f2)
	if err != nil || saved == nil {
		t.Fatalf("Upsert replace: saved=%v err=%v", saved, err)
	}
	preds, err := saved.Predicates()
	if err != nil || len(preds) != 0 {
		t.Fatalf("Upsert replace predicates: preds=%v err=%v", preds, err)
	}

	f3 := &types.Filter{CourseID: 7, OutcomeSetID: s2.ID}
	_ = f3.SetPredicates(nil)
	if _, err := repo.Upsert(dbc, f3); err != nil {
		t.Fatalf("Upsert second: %v", err)
	}
	if rows, err := repo.ListByCourse(dbc, 7); err != nil || len(rows) != 2 {
		t.Fatalf("ListByCourse: rows=%v err=%v", rows, err)
	}

	removed, err := repo.DeleteExcept(dbc, 7, []uint{s2.ID})
	if err != nil || len(removed) != 1 || removed[0] != s1.ID {
		t.Fatalf("DeleteExcept: removed=%v err=%v", removed, err)
	}
	if got, err := repo.Get(dbc, 7, s1.ID); err != nil || got != nil {
		t.Fatalf("Get removed: got=%v err=%v", got, err)
	}
}
