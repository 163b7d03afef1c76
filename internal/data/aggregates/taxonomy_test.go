package aggregates_test

import (
	"testing"
	"time"

	"github.com/yungbote/outcomes-backend/internal/data/aggregates"
	"github.com/yungbote/outcomes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/outcomes-backend/internal/domain"
	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
)

func newTaxonomy(t *testing.T, f *fixture) domainagg.TaxonomyAggregate {
	t.Helper()
	return aggregates.NewTaxonomyAggregate(aggregates.TaxonomyAggregateDeps{
		Base:     f.base(t),
		Outcomes: f.repos.Outcomes,
		Sets:     f.repos.OutcomeSets,
	})
}

func hasField(err error, field string) bool {
	for _, fe := range domainagg.FieldsOf(err) {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func strPtr(s string) *string { return &s }

func TestTaxonomySaveOutcomeValidation(t *testing.T) {
	f := newFixture(t)
	agg := newTaxonomy(t, f)
	set := testutil.SeedOutcomeSet(t, f.ctx, f.db)

	_, err := agg.SaveOutcome(f.ctx, &types.Outcome{OutcomeSetID: set.ID, IDNumber: "  "})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("blank outcome: want validation got=%v", err)
	}
	if !hasField(err, "idnumber") || !hasField(err, "description") {
		t.Fatalf("blank outcome fields: got=%v", domainagg.FieldsOf(err))
	}

	first, err := agg.SaveOutcome(f.ctx, &types.Outcome{OutcomeSetID: set.ID, IDNumber: "MATH.1", Description: "Counting", Assessable: true})
	if err != nil || first.ID == 0 {
		t.Fatalf("SaveOutcome: got=%v err=%v", first, err)
	}
	_, err = agg.SaveOutcome(f.ctx, &types.Outcome{OutcomeSetID: set.ID, IDNumber: "MATH.1", Description: "again"})
	if !domainagg.IsCode(err, domainagg.CodeValidation) || !hasField(err, "idnumber") {
		t.Fatalf("duplicate idnumber: want idnumber validation got=%v", err)
	}

	// Saving an outcome under its own idnumber is not a duplicate.
	first.Description = "Counting to ten"
	if _, err := agg.SaveOutcome(f.ctx, first); err != nil {
		t.Fatalf("resave: %v", err)
	}

	_, err = agg.SaveOutcome(f.ctx, &types.Outcome{OutcomeSetID: set.ID + 100, IDNumber: "X", Description: "x"})
	if !hasField(err, "outcomesetid") {
		t.Fatalf("unknown set: want outcomesetid field got=%v", err)
	}
	if !domainagg.IsRecoverable(err) {
		t.Fatalf("validation errors must be recoverable")
	}
}

func TestTaxonomySaveOutcomeRejectsBadParents(t *testing.T) {
	f := newFixture(t)
	agg := newTaxonomy(t, f)
	set := testutil.SeedOutcomeSet(t, f.ctx, f.db)
	other := testutil.SeedOutcomeSet(t, f.ctx, f.db)

	a := testutil.SeedOutcome(t, f.ctx, f.db, set.ID, nil, 0, nil, nil)
	b := testutil.SeedOutcome(t, f.ctx, f.db, set.ID, testutil.PtrUint(a.ID), 1, nil, nil)
	c := testutil.SeedOutcome(t, f.ctx, f.db, set.ID, testutil.PtrUint(b.ID), 2, nil, nil)
	foreign := testutil.SeedOutcome(t, f.ctx, f.db, other.ID, nil, 0, nil, nil)

	a.ParentID = testutil.PtrUint(c.ID)
	_, err := agg.SaveOutcome(f.ctx, a)
	if !domainagg.IsCode(err, domainagg.CodeValidation) || !hasField(err, "parentid") {
		t.Fatalf("cycle: want parentid validation got=%v", err)
	}

	b.ParentID = testutil.PtrUint(foreign.ID)
	if _, err := agg.SaveOutcome(f.ctx, b); !hasField(err, "parentid") {
		t.Fatalf("cross set parent: want parentid validation got=%v", err)
	}

	b.ParentID = testutil.PtrUint(9999)
	if _, err := agg.SaveOutcome(f.ctx, b); !hasField(err, "parentid") {
		t.Fatalf("unknown parent: want parentid validation got=%v", err)
	}

	got, err := f.repos.Outcomes.GetByID(dbctx.Context{Ctx: f.ctx}, a.ID)
	if err != nil || got.HasParent() {
		t.Fatalf("rejected save must not persist: got=%v err=%v", got, err)
	}
}

func TestTaxonomyOutcomeSetLifecycle(t *testing.T) {
	f := newFixture(t)
	agg := newTaxonomy(t, f)

	set, err := agg.SaveOutcomeSet(f.ctx, &types.OutcomeSet{IDNumber: "CCSS", Name: "Common Core"})
	if err != nil || set.ID == 0 {
		t.Fatalf("SaveOutcomeSet: got=%v err=%v", set, err)
	}
	if _, err := agg.SaveOutcomeSet(f.ctx, &types.OutcomeSet{IDNumber: "CCSS", Name: "dup"}); !hasField(err, "idnumber") {
		t.Fatalf("duplicate set idnumber: got=%v", err)
	}
	if _, err := agg.SaveOutcomeSet(f.ctx, &types.OutcomeSet{IDNumber: "X"}); !hasField(err, "name") {
		t.Fatalf("missing name: got=%v", err)
	}

	if err := agg.RemoveOutcomeSet(f.ctx, set.ID); err != nil {
		t.Fatalf("RemoveOutcomeSet: %v", err)
	}
	got, _ := f.repos.OutcomeSets.GetByID(dbctx.Context{Ctx: f.ctx}, set.ID)
	if got == nil || !got.Deleted {
		t.Fatalf("remove: want deleted flag got=%v", got)
	}
	if err := agg.RestoreOutcomeSet(f.ctx, set.ID); err != nil {
		t.Fatalf("RestoreOutcomeSet: %v", err)
	}
	got, _ = f.repos.OutcomeSets.GetByID(dbctx.Context{Ctx: f.ctx}, set.ID)
	if got == nil || got.Deleted {
		t.Fatalf("restore: want live set got=%v", got)
	}
	if err := agg.RemoveOutcomeSet(f.ctx, 424242); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("remove unknown: want not_found got=%v", err)
	}
}

func TestTaxonomySaveOutcomeSetBatch(t *testing.T) {
	f := newFixture(t)
	agg := newTaxonomy(t, f)

	yes := true
	res, err := agg.SaveOutcomeSetBatch(f.ctx, domainagg.SaveOutcomeSetBatchInput{
		Set: &types.OutcomeSet{IDNumber: "batch", Name: "Batch"},
		Outcomes: []domainagg.OutcomeDraft{
			{IDNumber: "A", Description: strPtr("a"), Edulevels: []string{"9", "10"}},
			{IDNumber: "B", ParentIDNumber: "A", Description: strPtr("b"), RawDescription: strPtr("raw b")},
			{IDNumber: "C", ParentIDNumber: "A", Description: strPtr("c"), Assessable: &yes},
			{IDNumber: "D", ParentIDNumber: "B", Description: strPtr("d"), Subjects: []string{"Math"}},
		},
	})
	if err != nil {
		t.Fatalf("SaveOutcomeSetBatch: %v", err)
	}
	if res.Created != 4 || res.Updated != 0 {
		t.Fatalf("counts: want created=4 updated=0 got created=%d updated=%d", res.Created, res.Updated)
	}

	dbc := dbctx.Context{Ctx: f.ctx}
	rows, err := f.repos.Outcomes.ListBySet(dbc, res.Set.ID, true)
	if err != nil || len(rows) != 4 {
		t.Fatalf("ListBySet: err=%v len=%d", err, len(rows))
	}
	byIDN := map[string]*types.Outcome{}
	for _, o := range rows {
		byIDN[o.IDNumber] = o
	}
	want := map[string]int{"A": 0, "B": 1, "D": 2, "C": 3}
	for idn, so := range want {
		if byIDN[idn].SortOrder != so {
			t.Fatalf("sortorder %s: want=%d got=%d", idn, so, byIDN[idn].SortOrder)
		}
	}
	if byIDN["B"].Description != "raw b" {
		t.Fatalf("raw description must win: got=%q", byIDN["B"].Description)
	}
	if byIDN["D"].ParentKey() != byIDN["B"].ID {
		t.Fatalf("D parent: want=%d got=%d", byIDN["B"].ID, byIDN["D"].ParentKey())
	}
	if len(byIDN["A"].Edulevels) != 2 || len(byIDN["D"].Subjects) != 1 {
		t.Fatalf("facets: A=%v D=%v", byIDN["A"].Edulevels, byIDN["D"].Subjects)
	}

	// Moving D to the root and updating A keeps facets that the draft leaves nil.
	res, err = agg.SaveOutcomeSetBatch(f.ctx, domainagg.SaveOutcomeSetBatchInput{
		Set: res.Set,
		Outcomes: []domainagg.OutcomeDraft{
			{IDNumber: "A", Description: strPtr("a2")},
			{IDNumber: "D"},
		},
	})
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if res.Updated != 2 || res.Created != 0 {
		t.Fatalf("second counts: created=%d updated=%d", res.Created, res.Updated)
	}
	a, _ := f.repos.Outcomes.GetByIDNumber(dbc, "A")
	d, _ := f.repos.Outcomes.GetByIDNumber(dbc, "D")
	if a.Description != "a2" || len(a.Edulevels) != 2 {
		t.Fatalf("A after merge: %+v", a)
	}
	if d.HasParent() {
		t.Fatalf("D should be a root now, parent=%d", d.ParentKey())
	}
}

func TestTaxonomySaveOutcomeSetBatchRollsBack(t *testing.T) {
	f := newFixture(t)
	agg := newTaxonomy(t, f)

	_, err := agg.SaveOutcomeSetBatch(f.ctx, domainagg.SaveOutcomeSetBatchInput{
		Set: &types.OutcomeSet{IDNumber: "rollback", Name: "Rollback"},
		Outcomes: []domainagg.OutcomeDraft{
			{IDNumber: "R1", Description: strPtr("r1")},
			{IDNumber: "R2", ParentIDNumber: "missing", Description: strPtr("r2")},
		},
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) || !hasField(err, "outcomes[1].parentidnumber") {
		t.Fatalf("unknown parent: want validation got=%v", err)
	}
	dbc := dbctx.Context{Ctx: f.ctx}
	if s, _ := f.repos.OutcomeSets.GetByIDNumber(dbc, "rollback"); s != nil {
		t.Fatalf("set must be rolled back, got=%v", s)
	}
	if o, _ := f.repos.Outcomes.GetByIDNumber(dbc, "R1"); o != nil {
		t.Fatalf("outcome must be rolled back, got=%v", o)
	}

	_, err = agg.SaveOutcomeSetBatch(f.ctx, domainagg.SaveOutcomeSetBatchInput{
		Set: &types.OutcomeSet{IDNumber: "cycle", Name: "Cycle"},
		Outcomes: []domainagg.OutcomeDraft{
			{IDNumber: "X", ParentIDNumber: "Y", Description: strPtr("x")},
			{IDNumber: "Y", ParentIDNumber: "X", Description: strPtr("y")},
		},
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("cycle: want validation got=%v", err)
	}

	_, err = agg.SaveOutcomeSetBatch(f.ctx, domainagg.SaveOutcomeSetBatchInput{
		Set: &types.OutcomeSet{IDNumber: "dups", Name: "Dups"},
		Outcomes: []domainagg.OutcomeDraft{
			{IDNumber: "Z", Description: strPtr("z")},
			{IDNumber: "Z", Description: strPtr("z again")},
		},
	})
	if !hasField(err, "outcomes[1].idnumber") {
		t.Fatalf("duplicate draft idnumber: got=%v", err)
	}
}

func TestTaxonomyRepairSortOrder(t *testing.T) {
	f := newFixture(t)
	agg := newTaxonomy(t, f)
	set := testutil.SeedOutcomeSet(t, f.ctx, f.db)

	root := testutil.SeedOutcome(t, f.ctx, f.db, set.ID, nil, 7, nil, nil)
	child := testutil.SeedOutcome(t, f.ctx, f.db, set.ID, testutil.PtrUint(root.ID), 9, nil, nil)
	second := testutil.SeedOutcome(t, f.ctx, f.db, set.ID, nil, 8, nil, nil)

	res, err := agg.RepairSortOrder(f.ctx, set.ID)
	if err != nil {
		t.Fatalf("RepairSortOrder: %v", err)
	}
	if len(res.Changed) != 3 {
		t.Fatalf("changed: want=3 got=%v", res.Changed)
	}
	dbc := dbctx.Context{Ctx: f.ctx}
	for id, want := range map[uint]int{root.ID: 0, child.ID: 1, second.ID: 2} {
		o, _ := f.repos.Outcomes.GetByID(dbc, id)
		if o.SortOrder != want {
			t.Fatalf("sortorder %d: want=%d got=%d", id, want, o.SortOrder)
		}
	}

	res, err = agg.RepairSortOrder(f.ctx, set.ID)
	if err != nil || len(res.Changed) != 0 {
		t.Fatalf("second repair must be a no-op: changed=%v err=%v", res.Changed, err)
	}
	if _, err := agg.RepairSortOrder(f.ctx, 0); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("zero set: want validation got=%v", err)
	}
	if got := f.hooks.Statuses("Outcomes.Taxonomy.RepairSortOrder"); len(got) != 2 || got[0] != "success" {
		t.Fatalf("repair statuses: got=%v", got)
	}
}

func TestTaxonomyWritesUseBaseClock(t *testing.T) {
	f := newFixture(t)
	clock := time.Unix(1700000000, 0)
	base := f.base(t)
	base.Now = func() time.Time { return clock }
	agg := aggregates.NewTaxonomyAggregate(aggregates.TaxonomyAggregateDeps{
		Base:     base,
		Outcomes: f.repos.Outcomes,
		Sets:     f.repos.OutcomeSets,
	})
	set := testutil.SeedOutcomeSet(t, f.ctx, f.db)

	o, err := agg.SaveOutcome(f.ctx, &types.Outcome{OutcomeSetID: set.ID, IDNumber: "clock.1", Description: "d", SortOrder: 5})
	if err != nil {
		t.Fatalf("SaveOutcome: %v", err)
	}
	if o.TimeCreated != clock.Unix() || o.TimeModified != clock.Unix() {
		t.Fatalf("save stamps: want=%d got=%d/%d", clock.Unix(), o.TimeCreated, o.TimeModified)
	}

	clock = clock.Add(time.Hour)
	if _, err := agg.RepairSortOrder(f.ctx, set.ID); err != nil {
		t.Fatalf("RepairSortOrder: %v", err)
	}
	got, err := f.repos.Outcomes.GetByID(dbctx.Context{Ctx: f.ctx}, o.ID)
	if err != nil || got.SortOrder != 0 || got.TimeModified != clock.Unix() || got.TimeCreated != o.TimeCreated {
		t.Fatalf("repair stamps: want modified=%d got=%+v err=%v", clock.Unix(), got, err)
	}

	if err := agg.RemoveOutcomeSet(f.ctx, set.ID); err != nil {
		t.Fatalf("RemoveOutcomeSet: %v", err)
	}
	s, _ := f.repos.OutcomeSets.GetByID(dbctx.Context{Ctx: f.ctx}, set.ID)
	if s == nil || s.TimeModified != clock.Unix() {
		t.Fatalf("set stamps: want=%d got=%+v", clock.Unix(), s)
	}
}
