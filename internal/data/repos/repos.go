package repos

import (
	"github.com/yungbote/outcomes-backend/internal/data/repos/outcomes"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type OutcomeRepo = outcomes.OutcomeRepo
type OutcomeSetRepo = outcomes.OutcomeSetRepo
type AreaRepo = outcomes.AreaRepo
type AreaOutcomeRepo = outcomes.AreaOutcomeRepo
type UsedAreaRepo = outcomes.UsedAreaRepo
type AttemptRepo = outcomes.AttemptRepo
type MarkRepo = outcomes.MarkRepo
type MarkHistoryRepo = outcomes.MarkHistoryRepo
type AwardRepo = outcomes.AwardRepo
type FilterRepo = outcomes.FilterRepo

// Set bundles every repo over one database handle.
type Set struct {
	Outcomes     OutcomeRepo
	OutcomeSets  OutcomeSetRepo
	Areas        AreaRepo
	AreaOutcomes AreaOutcomeRepo
	UsedAreas    UsedAreaRepo
	Attempts     AttemptRepo
	Marks        MarkRepo
	MarkHistory  MarkHistoryRepo
	Awards       AwardRepo
	Filters      FilterRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Outcomes:     NewOutcomeRepo(db, baseLog),
		OutcomeSets:  NewOutcomeSetRepo(db, baseLog),
		Areas:        NewAreaRepo(db, baseLog),
		AreaOutcomes: NewAreaOutcomeRepo(db, baseLog),
		UsedAreas:    NewUsedAreaRepo(db, baseLog),
		Attempts:     NewAttemptRepo(db, baseLog),
		Marks:        NewMarkRepo(db, baseLog),
		MarkHistory:  NewMarkHistoryRepo(db, baseLog),
		Awards:       NewAwardRepo(db, baseLog),
		Filters:      NewFilterRepo(db, baseLog),
	}
}

func NewOutcomeRepo(db *gorm.DB, baseLog *logger.Logger) OutcomeRepo {
	return outcomes.NewOutcomeRepo(db, baseLog)
}
func NewOutcomeSetRepo(db *gorm.DB, baseLog *logger.Logger) OutcomeSetRepo {
	return outcomes.NewOutcomeSetRepo(db, baseLog)
}
func NewAreaRepo(db *gorm.DB, baseLog *logger.Logger) AreaRepo { return outcomes.NewAreaRepo(db, baseLog) }
func NewAreaOutcomeRepo(db *gorm.DB, baseLog *logger.Logger) AreaOutcomeRepo {
	return outcomes.NewAreaOutcomeRepo(db, baseLog)
}
func NewUsedAreaRepo(db *gorm.DB, baseLog *logger.Logger) UsedAreaRepo {
	return outcomes.NewUsedAreaRepo(db, baseLog)
}
func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	return outcomes.NewAttemptRepo(db, baseLog)
}
func NewMarkRepo(db *gorm.DB, baseLog *logger.Logger) MarkRepo { return outcomes.NewMarkRepo(db, baseLog) }
func NewMarkHistoryRepo(db *gorm.DB, baseLog *logger.Logger) MarkHistoryRepo {
	return outcomes.NewMarkHistoryRepo(db, baseLog)
}
func NewAwardRepo(db *gorm.DB, baseLog *logger.Logger) AwardRepo { return outcomes.NewAwardRepo(db, baseLog) }
func NewFilterRepo(db *gorm.DB, baseLog *logger.Logger) FilterRepo {
	return outcomes.NewFilterRepo(db, baseLog)
}
