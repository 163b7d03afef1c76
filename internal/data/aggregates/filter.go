package aggregates

import (
	"context"
	"fmt"
	"sort"

	"github.com/yungbote/outcomes-backend/internal/data/repos"
	types "github.com/yungbote/outcomes-backend/internal/domain"
	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
)

type FilterAggregateDeps struct {
	Base BaseDeps

	Filters repos.FilterRepo
	Sets    repos.OutcomeSetRepo
}

type filterAggregate struct {
	deps FilterAggregateDeps
}

func NewFilterAggregate(deps FilterAggregateDeps) domainagg.FilterAggregate {
	deps.Base = deps.Base.withDefaults()
	return &filterAggregate{deps: deps}
}

func (a *filterAggregate) Contract() domainagg.Contract {
	return domainagg.FilterAggregateContract
}

func (a *filterAggregate) configured(op string) error {
	if a.deps.Filters == nil || a.deps.Sets == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "filter aggregate repos not configured", nil)
	}
	return nil
}

func (a *filterAggregate) SaveFilter(ctx context.Context, courseID, setID uint, preds []types.FacetPredicate) (*types.Filter, error) {
	const op = "Outcomes.Filter.SaveFilter"
	if err := a.configured(op); err != nil {
		return nil, err
	}
	var fields []domainagg.FieldError
	if courseID == 0 {
		fields = append(fields, domainagg.FieldError{Field: "courseid", Message: "required"})
	}
	if setID == 0 {
		fields = append(fields, domainagg.FieldError{Field: "outcomesetid", Message: "required"})
	}
	if len(fields) > 0 {
		return nil, domainagg.NewValidationError(op, fields...)
	}
	var saved *types.Filter
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		var err error
		saved, err = a.save(dbc, op, courseID, setID, preds)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.deps.Base.dropCourseReports(ctx, op, courseID)
	return saved, nil
}

func (a *filterAggregate) SyncFilters(ctx context.Context, in domainagg.SyncFiltersInput) (domainagg.SyncFiltersResult, error) {
	const op = "Outcomes.Filter.SyncFilters"
	out := domainagg.SyncFiltersResult{Saved: []*types.Filter{}, Removed: []uint{}}
	if err := a.configured(op); err != nil {
		return out, err
	}
	if in.CourseID == 0 {
		return out, domainagg.NewValidationError(op, domainagg.FieldError{Field: "courseid", Message: "required"})
	}
	setIDs := make([]uint, 0, len(in.Sets))
	for id := range in.Sets {
		if id == 0 {
			return out, domainagg.NewValidationError(op, domainagg.FieldError{Field: "sets", Message: "outcome set id must not be zero"})
		}
		setIDs = append(setIDs, id)
	}
	sort.Slice(setIDs, func(i, j int) bool { return setIDs[i] < setIDs[j] })

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		removed, err := a.deps.Filters.DeleteExcept(dbc, in.CourseID, setIDs)
		if err != nil {
			return err
		}
		out.Removed = removed
		for _, id := range setIDs {
			f, err := a.save(dbc, op, in.CourseID, id, in.Sets[id])
			if err != nil {
				return err
			}
			out.Saved = append(out.Saved, f)
		}
		return nil
	})
	if err != nil {
		return domainagg.SyncFiltersResult{Saved: []*types.Filter{}, Removed: []uint{}}, err
	}
	a.deps.Base.dropCourseReports(ctx, op, in.CourseID)
	return out, nil
}

func (a *filterAggregate) save(dbc dbctx.Context, op string, courseID, setID uint, preds []types.FacetPredicate) (*types.Filter, error) {
	set, err := a.deps.Sets.GetByID(dbc, setID)
	if err != nil {
		return nil, err
	}
	if set == nil || set.Deleted {
		return nil, domainagg.NewValidationError(op, domainagg.FieldError{
			Field:   "outcomesetid",
			Message: fmt.Sprintf("outcome set %d is missing or deleted", setID),
		})
	}
	f := &types.Filter{CourseID: courseID, OutcomeSetID: setID}
	if err := f.SetPredicates(preds); err != nil {
		return nil, ContractError("encode filter predicates", err)
	}
	return a.deps.Filters.Upsert(dbc, f)
}
