package reporting

import (
	"context"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	"github.com/yungbote/outcomes-backend/internal/modules/filtering"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
)

// visibleOutcomes returns the non-deleted outcomes of the set that pass the
// course filter, in (sortorder, id) order. No filter row means no restriction.
func (s Service) visibleOutcomes(ctx context.Context, courseID, setID uint) ([]*types.Outcome, error) {
	dbc := dbctx.Context{Ctx: ctx}
	f, err := s.deps.Filters.Get(dbc, courseID, setID)
	if err != nil {
		return nil, err
	}
	preds, err := f.Predicates()
	if err != nil {
		return nil, err
	}
	compiled, err := filtering.Compile(preds, setID, false)
	if err != nil {
		return nil, err
	}
	return s.deps.Outcomes.ListScoped(dbc, filtering.Scope(compiled), func(q *gorm.DB) *gorm.DB {
		return q.Where("outcome.deleted = ?", false)
	})
}

func (s Service) CourseReport(ctx context.Context, courseID, setID, groupID uint) (*CourseReport, error) {
	const op = "Outcomes.Report.CourseReport"
	if err := requireIDs(op, "courseid", courseID, "setid", setID); err != nil {
		return nil, err
	}
	key := CourseReportKey(courseID, setID, groupID)
	var cached CourseReport
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	out := &CourseReport{CourseID: courseID, SetID: setID, GroupID: groupID}
	err := s.track(ctx, "course", func(ctx context.Context) error {
		rows, err := s.visibleOutcomes(ctx, courseID, setID)
		if err != nil {
			return err
		}
		users, err := s.deps.Enrollment.EnrolledUsers(ctx, courseID, groupID)
		if err != nil {
			return err
		}
		out.Users = len(users)
		ids := make([]uint, 0, len(rows))
		for _, o := range rows {
			ids = append(ids, o.ID)
		}
		idx, err := s.loadUsages(ctx, courseID, ids)
		if err != nil {
			return err
		}
		attempts, err := s.attempts(ctx, idx, ids, users)
		if err != nil {
			return err
		}

		out.Rows = make([]CourseReportRow, len(rows))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.deps.Concurrency)
		for i, o := range rows {
			out.Rows[i] = CourseReportRow{
				OutcomeID:   o.ID,
				ParentID:    o.ParentKey(),
				IDNumber:    o.IDNumber,
				Description: o.Description,
				Assessable:  o.Assessable,
				Attempts:    attempts[o.ID],
				Coverage:    idx.coverage(o.ID),
			}
			row := &out.Rows[i]
			g.Go(func() error {
				c, err := s.completion(gctx, idx, o.ID, users)
				if err != nil {
					return err
				}
				gr, err := s.grades(gctx, courseID, idx, o.ID, users)
				if err != nil {
					return err
				}
				row.Completion = c
				row.Grade = gr
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, out)
	return out, nil
}

func (s Service) UserReport(ctx context.Context, courseID, setID, userID uint) (*UserReport, error) {
	const op = "Outcomes.Report.UserReport"
	if err := requireIDs(op, "courseid", courseID, "setid", setID, "userid", userID); err != nil {
		return nil, err
	}
	out := &UserReport{CourseID: courseID, SetID: setID, UserID: userID}
	err := s.track(ctx, "user", func(ctx context.Context) error {
		rows, err := s.visibleOutcomes(ctx, courseID, setID)
		if err != nil {
			return err
		}
		ids := make([]uint, 0, len(rows))
		for _, o := range rows {
			ids = append(ids, o.ID)
		}
		dbc := dbctx.Context{Ctx: ctx}
		marks, err := s.deps.Marks.ListByCourseUser(dbc, courseID, userID)
		if err != nil {
			return err
		}
		markOf := make(map[uint]*types.Mark, len(marks))
		for _, m := range marks {
			markOf[m.OutcomeID] = m
		}
		awards, err := s.deps.Awards.ListByUser(dbc, userID, ids)
		if err != nil {
			return err
		}
		awarded := make(map[uint]bool, len(awards))
		for _, a := range awards {
			awarded[a.OutcomeID] = true
		}
		idx, err := s.loadUsages(ctx, courseID, ids)
		if err != nil {
			return err
		}
		attempts, err := s.attempts(ctx, idx, ids, []uint{userID})
		if err != nil {
			return err
		}
		out.Rows = make([]UserReportRow, 0, len(rows))
		for _, o := range rows {
			row := UserReportRow{
				OutcomeID:   o.ID,
				IDNumber:    o.IDNumber,
				Description: o.Description,
				Awarded:     awarded[o.ID],
				Attempts:    attempts[o.ID],
			}
			if m := markOf[o.ID]; m != nil {
				row.Mark = m.Result.String()
			}
			gr, err := s.grades(ctx, courseID, idx, o.ID, []uint{userID})
			if err != nil {
				return err
			}
			row.ScaleGrade = gr.Formatted
			out.Rows = append(out.Rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
