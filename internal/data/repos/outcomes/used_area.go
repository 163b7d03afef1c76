package outcomes

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

type UsedAreaRepo interface {
	Find(dbc dbctx.Context, areaID, cmid uint) (*types.UsedArea, error)
	Create(dbc dbctx.Context, rows []*types.UsedArea) ([]*types.UsedArea, error)
	ListPairs(dbc dbctx.Context, areaIDs []uint) ([]*types.UsedArea, error)

	// ListUsages returns every area mapped to the outcomes, with each used
	// area as its own row. Areas that are not used come back once with no
	// used area.
	ListUsages(dbc dbctx.Context, outcomeIDs []uint) ([]types.OutcomeUsage, error)
}

type usedAreaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUsedAreaRepo(db *gorm.DB, baseLog *logger.Logger) UsedAreaRepo {
	return &usedAreaRepo{db: db, log: baseLog.With("repo", "UsedAreaRepo")}
}

func (r *usedAreaRepo) Find(dbc dbctx.Context, areaID, cmid uint) (*types.UsedArea, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if areaID == 0 {
		return nil, nil
	}
	var row types.UsedArea
	err := t.WithContext(dbc.Ctx).
		Where("outcomeareaid = ? AND cmid = ?", areaID, cmid).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *usedAreaRepo) Create(dbc dbctx.Context, rows []*types.UsedArea) ([]*types.UsedArea, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.UsedArea{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *usedAreaRepo) ListPairs(dbc dbctx.Context, areaIDs []uint) ([]*types.UsedArea, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.UsedArea
	if len(areaIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("outcomeareaid IN ?", areaIDs).
		Order("outcomeareaid ASC, cmid ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *usedAreaRepo) ListUsages(dbc dbctx.Context, outcomeIDs []uint) ([]types.OutcomeUsage, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []types.OutcomeUsage{}
	if len(outcomeIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Table("outcome_area_outcomes ao").
		Select("ao.outcomeid AS outcomeid, a.id AS areaid, a.component, a.area, a.itemid, "+
			"ua.id AS usedareaid, ua.cmid AS cmid").
		Joins("JOIN outcome_areas a ON a.id = ao.outcomeareaid").
		Joins("LEFT JOIN outcome_used_areas ua ON ua.outcomeareaid = a.id").
		Where("ao.outcomeid IN ?", outcomeIDs).
		Order("ao.outcomeid ASC, a.id ASC, ua.cmid ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
