package domain

import "github.com/yungbote/outcomes-backend/internal/domain/outcomes"

type Outcome = outcomes.Outcome
type OutcomeMetadata = outcomes.OutcomeMetadata
type OutcomeSet = outcomes.OutcomeSet
type Area = outcomes.Area
type AreaKey = outcomes.AreaKey
type AreaOutcome = outcomes.AreaOutcome
type UsedArea = outcomes.UsedArea
type OutcomeUsage = outcomes.OutcomeUsage
type Attempt = outcomes.Attempt
type Mark = outcomes.Mark
type MarkResult = outcomes.MarkResult
type MarkHistory = outcomes.MarkHistory
type HistoryAction = outcomes.HistoryAction
type Award = outcomes.Award
type Filter = outcomes.Filter
type FacetPredicate = outcomes.FacetPredicate

const (
	Earned    = outcomes.Earned
	NotEarned = outcomes.NotEarned

	ActionCreate = outcomes.ActionCreate
	ActionUpdate = outcomes.ActionUpdate
	ActionDelete = outcomes.ActionDelete

	AreaMod      = outcomes.AreaMod
	AreaQuestion = outcomes.AreaQuestion

	MetadataEdulevels = outcomes.MetadataEdulevels
	MetadataSubjects  = outcomes.MetadataSubjects
)

// MetadataNames lists the facets persisted in outcome_metadata.
var MetadataNames = outcomes.MetadataNames

func ResultFor(earned bool) MarkResult { return outcomes.ResultFor(earned) }

func HistoryFor(m *Mark, action HistoryAction, at int64) *MarkHistory {
	return outcomes.HistoryFor(m, action, at)
}

// AllModels lists every table owned by this service, in migration order.
func AllModels() []any {
	return []any{
		&OutcomeSet{},
		&Outcome{},
		&OutcomeMetadata{},
		&Area{},
		&AreaOutcome{},
		&UsedArea{},
		&Attempt{},
		&Mark{},
		&MarkHistory{},
		&Award{},
		&Filter{},
	}
}
