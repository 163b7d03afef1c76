package aggregates

import (
	"context"
	"time"

	"github.com/yungbote/outcomes-backend/internal/data/repos"
	types "github.com/yungbote/outcomes-backend/internal/domain"
	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
	"github.com/yungbote/outcomes-backend/internal/observability"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
)

const revokeWarning = "award cannot be safely revoked: no earned mark or history supports it"

type MarkingAggregateDeps struct {
	Base BaseDeps

	Outcomes    repos.OutcomeRepo
	Marks       repos.MarkRepo
	MarkHistory repos.MarkHistoryRepo
	Awards      repos.AwardRepo

	// Metrics is optional.
	Metrics *observability.Metrics
}

type markingAggregate struct {
	deps MarkingAggregateDeps
}

func NewMarkingAggregate(deps MarkingAggregateDeps) domainagg.MarkingAggregate {
	deps.Base = deps.Base.withDefaults()
	return &markingAggregate{deps: deps}
}

func (a *markingAggregate) Contract() domainagg.Contract {
	return domainagg.MarkingAggregateContract
}

func (a *markingAggregate) configured(op string) error {
	if a.deps.Outcomes == nil || a.deps.Marks == nil || a.deps.MarkHistory == nil || a.deps.Awards == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "marking aggregate repos not configured", nil)
	}
	return nil
}

func (a *markingAggregate) now() int64 { return a.deps.Base.Now().Unix() }

func (a *markingAggregate) MarkOutcomeAsEarned(ctx context.Context, in domainagg.MarkOutcomeInput) (domainagg.MarkOutcomeResult, error) {
	const op = "Outcomes.Marking.MarkOutcomeAsEarned"
	var out domainagg.MarkOutcomeResult
	if err := a.configured(op); err != nil {
		return out, err
	}
	var fields []domainagg.FieldError
	if in.CourseID == 0 {
		fields = append(fields, domainagg.FieldError{Field: "courseid", Message: "required"})
	}
	if in.UserID == 0 {
		fields = append(fields, domainagg.FieldError{Field: "userid", Message: "required"})
	}
	if in.OutcomeID == 0 {
		fields = append(fields, domainagg.FieldError{Field: "outcomeid", Message: "required"})
	}
	if len(fields) > 0 {
		return out, domainagg.NewValidationError(op, fields...)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		outcome, err := a.deps.Outcomes.GetByID(dbc, in.OutcomeID)
		if err != nil {
			return err
		}
		if err := RequireAssessable(op, outcome); err != nil {
			return err
		}

		now := a.now()
		mark, err := a.deps.Marks.Find(dbc, in.CourseID, in.UserID, in.OutcomeID)
		if err != nil {
			return err
		}
		action := types.ActionUpdate
		if mark == nil {
			mark = &types.Mark{
				CourseID:    in.CourseID,
				UserID:      in.UserID,
				OutcomeID:   in.OutcomeID,
				GraderID:    in.GraderID,
				Result:      types.Earned,
				TimeCreated: now,
			}
			mark.TimeModified = now
			if _, err := a.deps.Marks.Create(dbc, mark); err != nil {
				return err
			}
			action = types.ActionCreate
			out.Created = true
		} else {
			mark.Result = types.Earned
			mark.GraderID = in.GraderID
			mark.TimeModified = now
			if err := a.deps.Marks.UpdateResult(dbc, mark); err != nil {
				return err
			}
		}
		if err := a.deps.MarkHistory.Insert(dbc, []*types.MarkHistory{types.HistoryFor(mark, action, now)}); err != nil {
			return err
		}

		award, err := a.updateAward(dbc, mark)
		if err != nil {
			return err
		}
		out.Mark = mark
		out.Awarded = award.Awarded
		if award.Warning != nil {
			out.Warnings = append(out.Warnings, *award.Warning)
		}
		return nil
	})
	if err != nil {
		return domainagg.MarkOutcomeResult{}, err
	}
	a.deps.Metrics.AddMarkWarnings(len(out.Warnings))
	return out, nil
}

// UpdateMarkEarned writes only the marks whose earned state differs from
// membership in EarnedMarkIDs.
func (a *markingAggregate) UpdateMarkEarned(ctx context.Context, in domainagg.UpdateMarkEarnedInput) (domainagg.UpdateMarkEarnedResult, error) {
	const op = "Outcomes.Marking.UpdateMarkEarned"
	out := domainagg.UpdateMarkEarnedResult{Updated: []*types.Mark{}}
	if err := a.configured(op); err != nil {
		return out, err
	}
	ids := uniqueIDs(in.MarkIDs)
	if len(ids) == 0 {
		return out, nil
	}
	earned := make(map[uint]bool, len(in.EarnedMarkIDs))
	for _, id := range in.EarnedMarkIDs {
		earned[id] = true
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		marks, err := a.deps.Marks.GetByIDs(dbc, ids)
		if err != nil {
			return err
		}
		if len(marks) != len(ids) {
			found := make(map[uint]bool, len(marks))
			for _, m := range marks {
				found[m.ID] = true
			}
			for _, id := range ids {
				if err := RequireFound(op, found[id], "mark", id); err != nil {
					return err
				}
			}
		}

		now := a.now()
		for _, m := range marks {
			want := types.ResultFor(earned[m.ID])
			if m.Result == want {
				continue
			}
			m.Result = want
			m.GraderID = in.GraderID
			m.TimeModified = now
			if err := a.deps.Marks.UpdateResult(dbc, m); err != nil {
				return err
			}
			if err := a.deps.MarkHistory.Insert(dbc, []*types.MarkHistory{types.HistoryFor(m, types.ActionUpdate, now)}); err != nil {
				return err
			}
			award, err := a.updateAward(dbc, m)
			if err != nil {
				return err
			}
			if award.Warning != nil {
				out.Warnings = append(out.Warnings, *award.Warning)
			}
			out.Updated = append(out.Updated, m)
		}
		return nil
	})
	if err != nil {
		return domainagg.UpdateMarkEarnedResult{Updated: []*types.Mark{}}, err
	}
	if len(out.Warnings) > 0 {
		a.deps.Base.Log.Warn("mark update left awards in place", "op", op, "warnings", len(out.Warnings))
		a.deps.Metrics.AddMarkWarnings(len(out.Warnings))
	}
	return out, nil
}

func (a *markingAggregate) RemoveMark(ctx context.Context, markID uint) error {
	const op = "Outcomes.Marking.RemoveMark"
	if err := a.configured(op); err != nil {
		return err
	}
	if err := RequireConditions(op, markID); err != nil {
		return err
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		mark, err := a.deps.Marks.GetByID(dbc, markID)
		if err != nil {
			return err
		}
		if err := RequireFound(op, mark != nil, "mark", markID); err != nil {
			return err
		}
		_, err = a.removeMarks(dbc, []*types.Mark{mark})
		return err
	})
}

func (a *markingAggregate) RemoveMarksByCourse(ctx context.Context, courseID uint) (int, error) {
	const op = "Outcomes.Marking.RemoveMarksByCourse"
	if err := a.configured(op); err != nil {
		return 0, err
	}
	if err := RequireConditions(op, courseID); err != nil {
		return 0, err
	}
	removed := 0
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		marks, err := a.deps.Marks.ListByCourse(dbc, courseID)
		if err != nil {
			return err
		}
		n, err := a.removeMarks(dbc, marks)
		removed = int(n)
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// removeMarks appends one DELETE history row per mark, then deletes them.
func (a *markingAggregate) removeMarks(dbc dbctx.Context, marks []*types.Mark) (int64, error) {
	if len(marks) == 0 {
		return 0, nil
	}
	now := a.now()
	history := make([]*types.MarkHistory, 0, len(marks))
	ids := make([]uint, 0, len(marks))
	for _, m := range marks {
		history = append(history, types.HistoryFor(m, types.ActionDelete, now))
		ids = append(ids, m.ID)
	}
	if err := a.deps.MarkHistory.Insert(dbc, history); err != nil {
		return 0, err
	}
	return a.deps.Marks.DeleteByIDs(dbc, ids)
}

func (a *markingAggregate) UpdateAwardByMark(ctx context.Context, mark *types.Mark) (domainagg.UpdateAwardResult, error) {
	const op = "Outcomes.Marking.UpdateAwardByMark"
	var out domainagg.UpdateAwardResult
	if err := a.configured(op); err != nil {
		return out, err
	}
	if mark == nil {
		return out, domainagg.NewValidationError(op, domainagg.FieldError{Field: "mark", Message: "required"})
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		var err error
		out, err = a.updateAward(dbc, mark)
		return err
	})
	if err != nil {
		return domainagg.UpdateAwardResult{}, err
	}
	if out.Warning != nil {
		a.deps.Metrics.AddMarkWarnings(1)
	}
	return out, nil
}

func (a *markingAggregate) updateAward(dbc dbctx.Context, mark *types.Mark) (domainagg.UpdateAwardResult, error) {
	var out domainagg.UpdateAwardResult
	if mark.IsEarned() {
		inserted, err := a.deps.Awards.InsertIgnore(dbc, mark.UserID, mark.OutcomeID, a.now())
		if err != nil {
			return out, err
		}
		out.Awarded = inserted
		return out, nil
	}
	ever, err := a.hasEverBeenEarned(dbc, mark)
	if err != nil {
		return out, err
	}
	if !ever {
		out.Warning = &domainagg.Warning{
			OutcomeID: mark.OutcomeID,
			UserID:    mark.UserID,
			CourseID:  mark.CourseID,
			Message:   revokeWarning,
		}
	}
	return out, nil
}

func (a *markingAggregate) HasEverBeenEarned(ctx context.Context, mark *types.Mark) (bool, error) {
	const op = "Outcomes.Marking.HasEverBeenEarned"
	if err := a.configured(op); err != nil {
		return false, err
	}
	if mark == nil {
		return false, nil
	}
	ever, err := a.hasEverBeenEarned(dbctx.Context{Ctx: ctx}, mark)
	if err != nil {
		return false, MapError(op, err)
	}
	return ever, nil
}

// hasEverBeenEarned checks the mark itself, the current marks of other
// courses, then the newest history row of each other course.
func (a *markingAggregate) hasEverBeenEarned(dbc dbctx.Context, mark *types.Mark) (bool, error) {
	if mark.IsEarned() {
		return true, nil
	}
	others, err := a.deps.Marks.ListOtherCourses(dbc, mark.UserID, mark.OutcomeID, mark.CourseID)
	if err != nil {
		return false, err
	}
	for _, m := range others {
		if m.IsEarned() {
			return true, nil
		}
	}
	latest, err := a.deps.MarkHistory.LatestPerOtherCourse(dbc, mark.UserID, mark.OutcomeID, mark.CourseID)
	if err != nil {
		return false, err
	}
	for _, h := range latest {
		if h.Result == types.Earned {
			return true, nil
		}
	}
	return false, nil
}

func (a *markingAggregate) PruneHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "Outcomes.Marking.PruneHistory"
	if err := a.configured(op); err != nil {
		return 0, err
	}
	if cutoff.IsZero() {
		return 0, domainagg.NewValidationError(op, domainagg.FieldError{Field: "cutoff", Message: "required"})
	}
	var removed int64
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		n, err := a.deps.MarkHistory.DeleteBefore(dbc, cutoff.Unix())
		removed = n
		return err
	})
	if err != nil {
		return 0, err
	}
	a.deps.Metrics.AddHistoryPruned(removed)
	a.deps.Base.Log.Info("mark history pruned", "op", op, "cutoff", cutoff.UTC().Format(time.RFC3339), "removed", removed)
	return removed, nil
}
