package aggregates

import (
	"context"

	"github.com/yungbote/outcomes-backend/internal/domain/outcomes"
)

var FilterAggregateContract = Contract{
	Name:   "Outcomes.FilterAggregate",
	Tables: []string{outcomes.Filter{}.TableName()},
	Notes:  "Owns the per-course outcome-set filters; a sync replaces a course's filters atomically.",
}

type FilterAggregate interface {
	Aggregate

	SaveFilter(ctx context.Context, courseID, setID uint, preds []outcomes.FacetPredicate) (*outcomes.Filter, error)
	// SyncFilters makes the course's filters equal to in.Sets, deleting filters for sets not listed.
	SyncFilters(ctx context.Context, in SyncFiltersInput) (SyncFiltersResult, error)
}

type SyncFiltersInput struct {
	CourseID uint
	Sets     map[uint][]outcomes.FacetPredicate
}

type SyncFiltersResult struct {
	Saved   []*outcomes.Filter
	Removed []uint
}
