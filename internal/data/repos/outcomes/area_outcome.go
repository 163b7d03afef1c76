package outcomes

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

type AreaOutcomeRepo interface {
	ListOutcomeIDs(dbc dbctx.Context, areaID uint) ([]uint, error)
	Insert(dbc dbctx.Context, areaID uint, outcomeIDs []uint) (int, error)
	DeleteByOutcomeIDs(dbc dbctx.Context, areaID uint, outcomeIDs []uint) (int64, error)
	Count(dbc dbctx.Context, areaID uint) (int64, error)
}

type areaOutcomeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAreaOutcomeRepo(db *gorm.DB, baseLog *logger.Logger) AreaOutcomeRepo {
	return &areaOutcomeRepo{db: db, log: baseLog.With("repo", "AreaOutcomeRepo")}
}

func (r *areaOutcomeRepo) ListOutcomeIDs(dbc dbctx.Context, areaID uint) ([]uint, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []uint{}
	if areaID == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.AreaOutcome{}).
		Where("outcomeareaid = ?", areaID).
		Order("outcomeid ASC").
		Pluck("outcomeid", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Insert links outcomes to the area, skipping links that already exist.
func (r *areaOutcomeRepo) Insert(dbc dbctx.Context, areaID uint, outcomeIDs []uint) (int, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if areaID == 0 || len(outcomeIDs) == 0 {
		return 0, nil
	}
	rows := make([]*types.AreaOutcome, 0, len(outcomeIDs))
	for _, id := range outcomeIDs {
		rows = append(rows, &types.AreaOutcome{OutcomeAreaID: areaID, OutcomeID: id})
	}
	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outcomeid"}, {Name: "outcomeareaid"}},
			DoNothing: true,
		}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *areaOutcomeRepo) DeleteByOutcomeIDs(dbc dbctx.Context, areaID uint, outcomeIDs []uint) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if areaID == 0 || len(outcomeIDs) == 0 {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).
		Where("outcomeareaid = ? AND outcomeid IN ?", areaID, outcomeIDs).
		Delete(&types.AreaOutcome{})
	return res.RowsAffected, res.Error
}

func (r *areaOutcomeRepo) Count(dbc dbctx.Context, areaID uint) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	if areaID == 0 {
		return 0, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.AreaOutcome{}).
		Where("outcomeareaid = ?", areaID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
