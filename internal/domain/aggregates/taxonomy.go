package aggregates

import (
	"context"

	"github.com/yungbote/outcomes-backend/internal/domain/outcomes"
)

var TaxonomyAggregateContract = Contract{
	Name:   "Outcomes.TaxonomyAggregate",
	Tables: []string{outcomes.OutcomeSet{}.TableName(), outcomes.Outcome{}.TableName(), outcomes.OutcomeMetadata{}.TableName()},
	Notes:  "Owns outcome and outcome-set writes: idnumber uniqueness, parent/forest validation, " +
		"metadata replacement and sibling sort-order repair after batch edits.",
}

// TaxonomyAggregate owns outcome taxonomy writes.
//
// Validation failures (missing/duplicate idnumber, empty description, unknown
// parent, cycles) return CodeValidation and are safe to show to end users.
type TaxonomyAggregate interface {
	Aggregate

	SaveOutcome(ctx context.Context, outcome *outcomes.Outcome) (*outcomes.Outcome, error)
	SaveOutcomeSet(ctx context.Context, set *outcomes.OutcomeSet) (*outcomes.OutcomeSet, error)
	RemoveOutcomeSet(ctx context.Context, setID uint) error
	RestoreOutcomeSet(ctx context.Context, setID uint) error

	// SaveOutcomeSetBatch saves a set with its outcomes, resolving parents by
	// idnumber, then repairs sort order. All-or-nothing.
	SaveOutcomeSetBatch(ctx context.Context, in SaveOutcomeSetBatchInput) (SaveOutcomeSetBatchResult, error)

	// RepairSortOrder re-linearizes sibling ordering for every outcome of a set.
	RepairSortOrder(ctx context.Context, setID uint) (RepairSortOrderResult, error)
}

// OutcomeDraft carries loosely-typed outcome fields from an import or form.
// Nil pointers leave the stored value untouched.
type OutcomeDraft struct {
	IDNumber       string
	ParentIDNumber string
	DocNum         *string
	Description    *string
	// RawDescription is the unformatted source text; when set it wins over Description.
	RawDescription *string
	Assessable     *bool
	Deleted        *bool
	Edulevels      []string
	Subjects       []string
}

type SaveOutcomeSetBatchInput struct {
	Set      *outcomes.OutcomeSet
	Outcomes []OutcomeDraft
}

type SaveOutcomeSetBatchResult struct {
	Set      *outcomes.OutcomeSet
	Outcomes []*outcomes.Outcome
	Created  int
	Updated  int
	Resorted int
}

type RepairSortOrderResult struct {
	SetID   uint
	Total   int
	Changed []uint
}
