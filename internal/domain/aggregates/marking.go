package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/outcomes-backend/internal/domain/outcomes"
)

var MarkingAggregateContract = Contract{
	Name:   "Outcomes.MarkingAggregate",
	Tables: []string{outcomes.Mark{}.TableName(), outcomes.MarkHistory{}.TableName(), outcomes.Award{}.TableName()},
	Notes:  "Owns marks, their append-only history and permanent awards. Every mark mutation " +
		"appends a history row in the same transaction; awards are insert-only.",
}

// MarkingAggregate owns mastery marks, mark history and awards.
//
// Marking a non-assessable outcome is a caller bug and returns CodeInternal.
// Awards that cannot be safely revoked surface as Warnings, never as errors.
type MarkingAggregate interface {
	Aggregate

	MarkOutcomeAsEarned(ctx context.Context, in MarkOutcomeInput) (MarkOutcomeResult, error)
	UpdateMarkEarned(ctx context.Context, in UpdateMarkEarnedInput) (UpdateMarkEarnedResult, error)
	RemoveMark(ctx context.Context, markID uint) error
	RemoveMarksByCourse(ctx context.Context, courseID uint) (int, error)
	UpdateAwardByMark(ctx context.Context, mark *outcomes.Mark) (UpdateAwardResult, error)
	HasEverBeenEarned(ctx context.Context, mark *outcomes.Mark) (bool, error)
	// PruneHistory deletes history rows created strictly before cutoff.
	PruneHistory(ctx context.Context, cutoff time.Time) (int64, error)
}

type MarkOutcomeInput struct {
	CourseID  uint
	GraderID  uint
	UserID    uint
	OutcomeID uint
}

type MarkOutcomeResult struct {
	Mark     *outcomes.Mark
	Created  bool
	Awarded  bool
	Warnings []Warning
}

type UpdateMarkEarnedInput struct {
	GraderID      uint
	MarkIDs       []uint
	EarnedMarkIDs []uint
}

type UpdateMarkEarnedResult struct {
	Updated  []*outcomes.Mark
	Warnings []Warning
}

type UpdateAwardResult struct {
	Awarded bool
	Warning *Warning
}

// Warning is a recoverable, per-item problem collected during a batch.
type Warning struct {
	OutcomeID uint
	UserID    uint
	CourseID  uint
	Message   string
}

func (w Warning) String() string {
	return fmt.Sprintf("outcome %d (user %d, course %d): %s", w.OutcomeID, w.UserID, w.CourseID, w.Message)
}
