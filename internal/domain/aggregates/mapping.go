package aggregates

import (
	"context"

	"github.com/yungbote/outcomes-backend/internal/domain/outcomes"
)

var MappingAggregateContract = Contract{
	Name:   "Outcomes.MappingAggregate",
	Tables: []string{outcomes.Area{}.TableName(), outcomes.AreaOutcome{}.TableName(), outcomes.UsedArea{}.TableName(), outcomes.Attempt{}.TableName()},
	Notes:  "Owns the area/outcome mapping graph: lazy area creation, additive link diffs, " +
		"idempotent used-area registration and the area delete cascade.",
}

// MappingAggregate owns area <-> outcome links, used areas and attempts.
type MappingAggregate interface {
	Aggregate

	// SaveAreaOutcomes inserts the links missing from the current mapping; it never removes.
	SaveAreaOutcomes(ctx context.Context, area outcomes.AreaKey, outcomeIDs []uint) (SaveAreaOutcomesResult, error)
	// RemoveAreaOutcomes deletes the given links and the area once no link remains.
	RemoveAreaOutcomes(ctx context.Context, area outcomes.AreaKey, outcomeIDs []uint) (RemoveAreaOutcomesResult, error)
	// SetAreaUsed returns the existing used area for (area, cmid) or creates it.
	SetAreaUsed(ctx context.Context, area outcomes.AreaKey, cmid uint) (SetAreaUsedResult, error)
	// SetAreasUsed is the bulk form of SetAreaUsed, all-or-nothing.
	SetAreasUsed(ctx context.Context, usages []AreaUsage) (SetAreasUsedResult, error)
	// DeleteArea removes the area with its attempts, used areas and links.
	DeleteArea(ctx context.Context, area outcomes.AreaKey) (bool, error)
	// SaveAttempt stores an attempt, replacing an existing (usedarea, user, item) row when dedupe is set.
	SaveAttempt(ctx context.Context, attempt *outcomes.Attempt, dedupe bool) (*outcomes.Attempt, error)
}

type AreaUsage struct {
	Area outcomes.AreaKey
	CMID uint
}

type SaveAreaOutcomesResult struct {
	AreaID      uint
	AreaCreated bool
	Inserted    []uint
}

type RemoveAreaOutcomesResult struct {
	AreaID      uint
	Removed     int64
	AreaDeleted bool
}

type SetAreaUsedResult struct {
	UsedAreaID uint
	Created    bool
}

type SetAreasUsedResult struct {
	Created  []*outcomes.UsedArea
	Existing int
}
