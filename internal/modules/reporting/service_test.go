package reporting

import (
	"context"
	"encoding/json"
	"math"
	"path"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/outcomes-backend/internal/data/aggregates"
	"github.com/yungbote/outcomes-backend/internal/data/repos"
	"github.com/yungbote/outcomes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/outcomes-backend/internal/domain"
	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
	"github.com/yungbote/outcomes-backend/internal/pkg/pointers"
)

const (
	course      = 5
	otherCourse = 9
	quizCM      = 100
	pageCM      = 101
	foreignCM   = 200
)

type fakeSources struct {
	modules  []CourseModule
	users    []uint
	states   []CompletionState
	items    []GradeItem
	grades   []Grade
	itemCall int
}

func (f *fakeSources) CourseModules(_ context.Context, courseID uint, cmids []uint) ([]CourseModule, error) {
	want := set(cmids)
	var out []CourseModule
	for _, m := range f.modules {
		if m.CourseID == courseID && want[m.ID] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeSources) EnrolledUsers(_ context.Context, _, _ uint) ([]uint, error) {
	return f.users, nil
}

func (f *fakeSources) CompletionStates(_ context.Context, cmids, userIDs []uint) ([]CompletionState, error) {
	cms, users := set(cmids), set(userIDs)
	var out []CompletionState
	for _, s := range f.states {
		if cms[s.CMID] && users[s.UserID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSources) GradeItems(_ context.Context, courseID uint, cmids []uint) ([]GradeItem, error) {
	f.itemCall++
	want := set(cmids)
	var out []GradeItem
	for _, it := range f.items {
		if it.CourseID == courseID && want[it.CMID] {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeSources) FinalGrades(_ context.Context, itemIDs, userIDs []uint) ([]Grade, error) {
	items, users := set(itemIDs), set(userIDs)
	var out []Grade
	for _, g := range f.grades {
		if items[g.ItemID] && users[g.UserID] {
			out = append(out, g)
		}
	}
	return out, nil
}

type memCache struct {
	data map[string][]byte
	sets int
}

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.sets++
	return nil
}

func (c *memCache) DeleteMatching(_ context.Context, pattern string) (int, error) {
	n := 0
	for key := range c.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.data, key)
			n++
		}
	}
	return n, nil
}

type world struct {
	ctx     context.Context
	db      *gorm.DB
	svc     Service
	src     *fakeSources
	setID   uint
	tenMath *types.Outcome
	eleven  *types.Outcome
	bare    *types.Outcome
}

// newWorld seeds one outcome mapped to a quiz, a page and two questions, one
// of which only lives in the bank. The quiz area is also used in another
// course whose attempts must not leak into course reports.
func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	db := testutil.DB(t)
	rs := repos.NewSet(db, testutil.Logger(t))

	s := testutil.SeedOutcomeSet(t, ctx, db)
	w := &world{ctx: ctx, db: db, setID: s.ID}
	w.tenMath = testutil.SeedOutcome(t, ctx, db, s.ID, nil, 0, []string{"10"}, []string{"Math"})
	w.eleven = testutil.SeedOutcome(t, ctx, db, s.ID, nil, 1, []string{"11"}, nil)
	w.bare = testutil.SeedOutcome(t, ctx, db, s.ID, nil, 2, nil, nil)

	quiz := testutil.SeedArea(t, ctx, db, "mod_quiz", types.AreaMod, 1)
	page := testutil.SeedArea(t, ctx, db, "mod_page", types.AreaMod, 2)
	asked := testutil.SeedArea(t, ctx, db, "qtype_multichoice", types.AreaQuestion, 50)
	banked := testutil.SeedArea(t, ctx, db, "qtype_multichoice", types.AreaQuestion, 51)
	for _, a := range []*types.Area{quiz, page, asked, banked} {
		testutil.SeedAreaOutcome(t, ctx, db, a.ID, w.tenMath.ID)
	}
	quizUsed := testutil.SeedUsedArea(t, ctx, db, quiz.ID, quizCM)
	testutil.SeedUsedArea(t, ctx, db, page.ID, pageCM)
	testutil.SeedUsedArea(t, ctx, db, asked.ID, quizCM)
	foreign := testutil.SeedUsedArea(t, ctx, db, quiz.ID, foreignCM)

	testutil.SeedAttempt(t, ctx, db, quizUsed.ID, 1, 0, 10, 2, 100)
	testutil.SeedAttempt(t, ctx, db, quizUsed.ID, 1, 0, 10, 8, 200)
	testutil.SeedAttempt(t, ctx, db, quizUsed.ID, 2, 0, 10, 5, 150)
	testutil.SeedAttempt(t, ctx, db, quizUsed.ID, 3, 0, 10, 10, 150)
	testutil.SeedAttempt(t, ctx, db, foreign.ID, 1, 0, 10, 10, 300)

	scale := ParseScale(7, "competency", "Not yet,Competent,Expert")
	g1, g2 := 3.0, 2.0
	w.src = &fakeSources{
		modules: []CourseModule{
			{ID: quizCM, CourseID: course, ModName: "quiz", CompletionEnabled: true, Archetype: ArchetypeActivity},
			{ID: pageCM, CourseID: course, ModName: "page", Archetype: ArchetypeResource},
			{ID: foreignCM, CourseID: otherCourse, ModName: "quiz", CompletionEnabled: true, Archetype: ArchetypeActivity},
		},
		users: []uint{1, 2},
		states: []CompletionState{
			{CMID: quizCM, UserID: 1, State: CompletionCompletePass},
			{CMID: quizCM, UserID: 2, State: CompletionIncomplete},
			{CMID: quizCM, UserID: 3, State: CompletionComplete},
		},
		items:  []GradeItem{{ID: 900, CourseID: course, CMID: quizCM, Scale: scale}},
		grades: []Grade{{ItemID: 900, UserID: 1, FinalGrade: &g1}, {ItemID: 900, UserID: 2, FinalGrade: &g2}},
	}
	w.svc = New(Deps{
		Log:        testutil.Logger(t),
		Outcomes:   rs.Outcomes,
		Filters:    rs.Filters,
		UsedAreas:  rs.UsedAreas,
		Attempts:   rs.Attempts,
		Marks:      rs.Marks,
		Awards:     rs.Awards,
		Modules:    w.src,
		Enrollment: w.src,
		Completion: w.src,
		Gradebook:  w.src,
	})
	return w
}

func (w *world) filter(t *testing.T, preds ...types.FacetPredicate) {
	t.Helper()
	f := &types.Filter{CourseID: course, OutcomeSetID: w.setID}
	if err := f.SetPredicates(preds); err != nil {
		t.Fatalf("SetPredicates: %v", err)
	}
	if err := w.db.Where("courseid = ? AND outcomesetid = ?", course, w.setID).Delete(&types.Filter{}).Error; err != nil {
		t.Fatalf("clear filter: %v", err)
	}
	if err := w.db.Create(f).Error; err != nil {
		t.Fatalf("seed filter: %v", err)
	}
}

func near(got *float64, want float64) bool {
	return got != nil && math.Abs(*got-want) < 1e-9
}

func TestAttemptSummaryUsesLatestAttemptInCourse(t *testing.T) {
	w := newWorld(t)
	got, err := w.svc.AttemptSummary(w.ctx, course, []uint{w.tenMath.ID, w.eleven.ID}, 0)
	if err != nil {
		t.Fatalf("AttemptSummary: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows: want=2 got=%d", len(got))
	}
	r := got[0]
	if r.Attempts != 2 || r.Users != 2 || r.Raw != 13 || r.Possible != 20 || !near(r.Percent, 65) {
		t.Fatalf("summary: got=%+v", r)
	}
	if got[1].OutcomeID != w.eleven.ID || got[1].Percent != nil || got[1].Attempts != 0 {
		t.Fatalf("unmapped outcome: got=%+v", got[1])
	}

	mine, err := w.svc.UserAttemptSummary(w.ctx, course, 1, []uint{w.tenMath.ID})
	if err != nil {
		t.Fatalf("UserAttemptSummary: %v", err)
	}
	if len(mine) != 1 || !near(mine[0].Percent, 80) {
		t.Fatalf("user summary: got=%+v", mine)
	}

	w.src.users = nil
	empty, err := w.svc.AttemptSummary(w.ctx, course, []uint{w.tenMath.ID}, 0)
	if err != nil || empty[0].Attempts != 0 {
		t.Fatalf("no enrolled users: want no attempts got=%+v err=%v", empty, err)
	}
}

func TestCompletionPercent(t *testing.T) {
	w := newWorld(t)
	got, err := w.svc.CompletionPercent(w.ctx, course, w.tenMath.ID, 0)
	if err != nil {
		t.Fatalf("CompletionPercent: %v", err)
	}
	if got.Activities != 1 || got.Total != 2 || got.Complete != 1 || !near(got.Percent, 50) {
		t.Fatalf("completion: got=%+v", got)
	}

	none, err := w.svc.CompletionPercent(w.ctx, course, w.eleven.ID, 0)
	if err != nil || none.Total != 0 || none.Percent != nil {
		t.Fatalf("no activities: want nil percent got=%+v err=%v", none, err)
	}

	if _, err := w.svc.CompletionPercent(w.ctx, 0, w.tenMath.ID, 0); err == nil {
		t.Fatalf("missing course: want validation error")
	}
}

func TestAverageGradeFormatsThroughScale(t *testing.T) {
	w := newWorld(t)
	got, err := w.svc.AverageGrade(w.ctx, course, w.tenMath.ID, 0)
	if err != nil {
		t.Fatalf("AverageGrade: %v", err)
	}
	if got.Count != 2 || !near(got.Average, 2.5) || got.Formatted != "Expert" {
		t.Fatalf("average: got=%+v", got)
	}
	if got.Distribution["Expert"] != 1 || got.Distribution["Competent"] != 1 {
		t.Fatalf("distribution: got=%v", got.Distribution)
	}

	mine, err := w.svc.UserScaleGrade(w.ctx, course, w.tenMath.ID, 2)
	if err != nil || mine.Formatted != "Competent" {
		t.Fatalf("user grade: want=Competent got=%+v err=%v", mine, err)
	}

	w.src.items = append(w.src.items, GradeItem{ID: 901, CourseID: course, CMID: quizCM, Scale: ParseScale(8, "other", "a,b,c,d")})
	mixed, err := w.svc.AverageGrade(w.ctx, course, w.tenMath.ID, 0)
	if err != nil || mixed.Formatted != "" || mixed.Average == nil {
		t.Fatalf("mixed scales: want average without label got=%+v err=%v", mixed, err)
	}
}

func TestCoverageSeparatesBankQuestions(t *testing.T) {
	w := newWorld(t)
	got, err := w.svc.Coverage(w.ctx, course, []uint{w.tenMath.ID, w.bare.ID})
	if err != nil {
		t.Fatalf("Coverage: %v", err)
	}
	c := got[0]
	if c.Activities != 1 || c.Resources != 1 || c.Questions != 1 || c.UnusedQuestions != 1 {
		t.Fatalf("coverage: got=%+v", c)
	}
	if got[1].Covered() {
		t.Fatalf("bare outcome: want uncovered got=%+v", got[1])
	}

	elsewhere, err := w.svc.Coverage(w.ctx, otherCourse, []uint{w.tenMath.ID})
	if err != nil {
		t.Fatalf("Coverage other course: %v", err)
	}
	if e := elsewhere[0]; e.Activities != 1 || e.Resources != 0 || e.Questions != 0 || e.UnusedQuestions != 2 {
		t.Fatalf("other course coverage: got=%+v", e)
	}
}

func TestCourseReportFollowsFilterAndCaches(t *testing.T) {
	w := newWorld(t)
	cache := &memCache{data: map[string][]byte{}}
	w.svc.deps.Cache = cache
	w.svc.deps.CacheTTL = time.Minute

	w.filter(t, types.FacetPredicate{Edulevels: pointers.String("10")})
	rep, err := w.svc.CourseReport(w.ctx, course, w.setID, 0)
	if err != nil {
		t.Fatalf("CourseReport: %v", err)
	}
	if rep.Users != 2 || len(rep.Rows) != 1 || rep.Rows[0].OutcomeID != w.tenMath.ID {
		t.Fatalf("filtered report: got=%+v", rep)
	}
	row := rep.Rows[0]
	if !near(row.Completion.Percent, 50) || row.Grade.Formatted != "Expert" || !near(row.Attempts.Percent, 65) || row.Coverage.Questions != 1 {
		t.Fatalf("row: got=%+v", row)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets: want=1 got=%d", cache.sets)
	}
	calls := w.src.itemCall
	again, err := w.svc.CourseReport(w.ctx, course, w.setID, 0)
	if err != nil || len(again.Rows) != 1 || w.src.itemCall != calls {
		t.Fatalf("cached report: want no recomputation got=%+v calls=%d->%d err=%v", again, calls, w.src.itemCall, err)
	}

	w.svc.deps.Cache = nil
	w.filter(t, types.FacetPredicate{Subjects: pointers.String("Math")}, types.FacetPredicate{})
	all, err := w.svc.CourseReport(w.ctx, course, w.setID, 0)
	if err != nil {
		t.Fatalf("CourseReport wildcard: %v", err)
	}
	if len(all.Rows) != 3 || all.Rows[0].OutcomeID != w.tenMath.ID || all.Rows[2].OutcomeID != w.bare.ID {
		t.Fatalf("wildcard report: got=%+v", all.Rows)
	}
}

func TestFilterSyncDropsCachedCourseReport(t *testing.T) {
	w := newWorld(t)
	cache := &memCache{data: map[string][]byte{}}
	w.svc.deps.Cache = cache
	w.svc.deps.CacheTTL = time.Minute
	rs := repos.NewSet(w.db, testutil.Logger(t))
	filters := aggregates.NewFilterAggregate(aggregates.FilterAggregateDeps{
		Base:    aggregates.BaseDeps{DB: w.db, Log: testutil.Logger(t), Reports: w.svc},
		Filters: rs.Filters,
		Sets:    rs.OutcomeSets,
	})

	ten := "10"
	if _, err := filters.SaveFilter(w.ctx, course, w.setID, []types.FacetPredicate{{Edulevels: &ten}}); err != nil {
		t.Fatalf("SaveFilter: %v", err)
	}
	other := CourseReportKey(otherCourse, w.setID, 0)
	cache.data[other] = []byte(`{}`)
	rep, err := w.svc.CourseReport(w.ctx, course, w.setID, 0)
	if err != nil || len(rep.Rows) != 1 {
		t.Fatalf("filtered report: want one row got=%+v err=%v", rep, err)
	}
	if _, ok := cache.data[CourseReportKey(course, w.setID, 0)]; !ok {
		t.Fatalf("report was not cached")
	}

	if _, err := filters.SyncFilters(w.ctx, domainagg.SyncFiltersInput{
		CourseID: course,
		Sets:     map[uint][]types.FacetPredicate{w.setID: {{}}},
	}); err != nil {
		t.Fatalf("SyncFilters: %v", err)
	}
	if _, ok := cache.data[CourseReportKey(course, w.setID, 0)]; ok {
		t.Fatalf("sync left the course report cached")
	}
	if _, ok := cache.data[other]; !ok {
		t.Fatalf("sync dropped another course's report")
	}
	rep, err = w.svc.CourseReport(w.ctx, course, w.setID, 0)
	if err != nil || len(rep.Rows) != 3 {
		t.Fatalf("report after sync: want=3 rows got=%+v err=%v", rep, err)
	}

	if n, err := w.svc.InvalidateAll(w.ctx); err != nil || n != 2 {
		t.Fatalf("InvalidateAll: want=2 got=%d err=%v", n, err)
	}
	w.svc.deps.CacheTTL = 0
	cache.data[other] = []byte(`{}`)
	if n, err := w.svc.InvalidateCourse(w.ctx, otherCourse); err != nil || n != 0 || len(cache.data) != 1 {
		t.Fatalf("disabled cache: want no deletes got=%d err=%v", n, err)
	}
}

func TestCourseReportWithoutFilterSkipsDeleted(t *testing.T) {
	w := newWorld(t)
	if err := w.db.Model(&types.Outcome{}).Where("id = ?", w.eleven.ID).Update("deleted", true).Error; err != nil {
		t.Fatalf("seed deleted: %v", err)
	}
	rep, err := w.svc.CourseReport(w.ctx, course, w.setID, 0)
	if err != nil {
		t.Fatalf("CourseReport: %v", err)
	}
	if len(rep.Rows) != 2 || rep.Rows[1].OutcomeID != w.bare.ID {
		t.Fatalf("rows: want tenMath and bare got=%+v", rep.Rows)
	}
}

func TestUserReport(t *testing.T) {
	w := newWorld(t)
	testutil.SeedMark(t, w.ctx, w.db, course, 1, w.tenMath.ID, types.Earned)
	if err := w.db.Create(&types.Award{UserID: 1, OutcomeID: w.tenMath.ID, TimeCreated: 10}).Error; err != nil {
		t.Fatalf("seed award: %v", err)
	}
	rep, err := w.svc.UserReport(w.ctx, course, w.setID, 1)
	if err != nil {
		t.Fatalf("UserReport: %v", err)
	}
	if len(rep.Rows) != 3 {
		t.Fatalf("rows: want=3 got=%d", len(rep.Rows))
	}
	r := rep.Rows[0]
	if r.Mark != "earned" || !r.Awarded || r.ScaleGrade != "Expert" || !near(r.Attempts.Percent, 80) {
		t.Fatalf("user row: got=%+v", r)
	}
	if rep.Rows[1].Mark != "" || rep.Rows[1].Awarded {
		t.Fatalf("unmarked row: got=%+v", rep.Rows[1])
	}
}
