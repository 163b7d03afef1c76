package reporting

import (
	"context"
	"time"

	"github.com/yungbote/outcomes-backend/internal/data/repos"
	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
	"github.com/yungbote/outcomes-backend/internal/observability"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

type Deps struct {
	Log *logger.Logger

	Outcomes  repos.OutcomeRepo
	Filters   repos.FilterRepo
	UsedAreas repos.UsedAreaRepo
	Attempts  repos.AttemptRepo
	Marks     repos.MarkRepo
	Awards    repos.AwardRepo

	Modules    ModuleCatalog
	Enrollment EnrollmentSource
	Completion CompletionSource
	Gradebook  GradebookSource

	// Optional: course reports are cached for CacheTTL when set.
	Cache    ReportCache
	CacheTTL time.Duration
	Metrics  *observability.Metrics

	// Concurrency bounds per-outcome work in CourseReport. Defaults to 4.
	Concurrency int
}

// Service answers read-only report queries. It never writes outcome data;
// the only mutation it performs is dropping its own cached reports.
type Service struct {
	deps Deps
}

func New(deps Deps) Service {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Concurrency <= 0 {
		deps.Concurrency = 4
	}
	return Service{deps: deps}
}

func (s Service) WithLog(log *logger.Logger) Service {
	s.deps.Log = log
	return s
}

// track wraps one report computation in a span and the report timing metric.
func (s Service) track(ctx context.Context, report string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "Outcomes.Report."+report)
	err := fn(ctx)
	observability.EndSpan(span, err)
	status := "success"
	if err != nil {
		status = "error"
		s.deps.Log.Warn("report failed", "report", report, "error", err)
	}
	s.deps.Metrics.ObserveReport(report, status, time.Since(start))
	return err
}

func requireIDs(op string, pairs ...any) error {
	var fields []domainagg.FieldError
	for i := 0; i+1 < len(pairs); i += 2 {
		name, _ := pairs[i].(string)
		id, _ := pairs[i+1].(uint)
		if id == 0 {
			fields = append(fields, domainagg.FieldError{Field: name, Message: "required"})
		}
	}
	if len(fields) > 0 {
		return domainagg.NewValidationError(op, fields...)
	}
	return nil
}

func (s Service) CompletionPercent(ctx context.Context, courseID, outcomeID, groupID uint) (CompletionResult, error) {
	const op = "Outcomes.Report.CompletionPercent"
	out := CompletionResult{OutcomeID: outcomeID}
	if err := requireIDs(op, "courseid", courseID, "outcomeid", outcomeID); err != nil {
		return out, err
	}
	err := s.track(ctx, "completion", func(ctx context.Context) error {
		users, err := s.deps.Enrollment.EnrolledUsers(ctx, courseID, groupID)
		if err != nil {
			return err
		}
		idx, err := s.loadUsages(ctx, courseID, []uint{outcomeID})
		if err != nil {
			return err
		}
		out, err = s.completion(ctx, idx, outcomeID, users)
		return err
	})
	return out, err
}

func (s Service) AverageGrade(ctx context.Context, courseID, outcomeID, groupID uint) (GradeResult, error) {
	const op = "Outcomes.Report.AverageGrade"
	out := GradeResult{OutcomeID: outcomeID}
	if err := requireIDs(op, "courseid", courseID, "outcomeid", outcomeID); err != nil {
		return out, err
	}
	err := s.track(ctx, "average_grade", func(ctx context.Context) error {
		users, err := s.deps.Enrollment.EnrolledUsers(ctx, courseID, groupID)
		if err != nil {
			return err
		}
		idx, err := s.loadUsages(ctx, courseID, []uint{outcomeID})
		if err != nil {
			return err
		}
		out, err = s.grades(ctx, courseID, idx, outcomeID, users)
		return err
	})
	return out, err
}

// UserScaleGrade is AverageGrade restricted to one user.
func (s Service) UserScaleGrade(ctx context.Context, courseID, outcomeID, userID uint) (GradeResult, error) {
	const op = "Outcomes.Report.UserScaleGrade"
	out := GradeResult{OutcomeID: outcomeID}
	if err := requireIDs(op, "courseid", courseID, "outcomeid", outcomeID, "userid", userID); err != nil {
		return out, err
	}
	err := s.track(ctx, "user_scale_grade", func(ctx context.Context) error {
		idx, err := s.loadUsages(ctx, courseID, []uint{outcomeID})
		if err != nil {
			return err
		}
		out, err = s.grades(ctx, courseID, idx, outcomeID, []uint{userID})
		return err
	})
	return out, err
}

// AttemptSummary returns one result per outcome, in outcomeIDs order.
func (s Service) AttemptSummary(ctx context.Context, courseID uint, outcomeIDs []uint, groupID uint) ([]AttemptResult, error) {
	const op = "Outcomes.Report.AttemptSummary"
	if err := requireIDs(op, "courseid", courseID); err != nil {
		return nil, err
	}
	var out []AttemptResult
	err := s.track(ctx, "attempts", func(ctx context.Context) error {
		users, err := s.deps.Enrollment.EnrolledUsers(ctx, courseID, groupID)
		if err != nil {
			return err
		}
		idx, err := s.loadUsages(ctx, courseID, outcomeIDs)
		if err != nil {
			return err
		}
		byOutcome, err := s.attempts(ctx, idx, outcomeIDs, users)
		if err != nil {
			return err
		}
		out = ordered(outcomeIDs, byOutcome)
		return nil
	})
	return out, err
}

func (s Service) UserAttemptSummary(ctx context.Context, courseID, userID uint, outcomeIDs []uint) ([]AttemptResult, error) {
	const op = "Outcomes.Report.UserAttemptSummary"
	if err := requireIDs(op, "courseid", courseID, "userid", userID); err != nil {
		return nil, err
	}
	var out []AttemptResult
	err := s.track(ctx, "user_attempts", func(ctx context.Context) error {
		idx, err := s.loadUsages(ctx, courseID, outcomeIDs)
		if err != nil {
			return err
		}
		byOutcome, err := s.attempts(ctx, idx, outcomeIDs, []uint{userID})
		if err != nil {
			return err
		}
		out = ordered(outcomeIDs, byOutcome)
		return nil
	})
	return out, err
}

func (s Service) Coverage(ctx context.Context, courseID uint, outcomeIDs []uint) ([]CoverageResult, error) {
	const op = "Outcomes.Report.Coverage"
	if err := requireIDs(op, "courseid", courseID); err != nil {
		return nil, err
	}
	var out []CoverageResult
	err := s.track(ctx, "coverage", func(ctx context.Context) error {
		idx, err := s.loadUsages(ctx, courseID, outcomeIDs)
		if err != nil {
			return err
		}
		out = make([]CoverageResult, 0, len(outcomeIDs))
		for _, id := range outcomeIDs {
			out = append(out, idx.coverage(id))
		}
		return nil
	})
	return out, err
}

func ordered(ids []uint, by map[uint]AttemptResult) []AttemptResult {
	out := make([]AttemptResult, 0, len(ids))
	for _, id := range ids {
		r, ok := by[id]
		if !ok {
			r = AttemptResult{OutcomeID: id}
		}
		out = append(out, r)
	}
	return out
}
