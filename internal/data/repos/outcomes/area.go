package outcomes

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

type AreaRepo interface {
	GetByID(dbc dbctx.Context, id uint) (*types.Area, error)
	Find(dbc dbctx.Context, key types.AreaKey) (*types.Area, error)
	FindMany(dbc dbctx.Context, keys []types.AreaKey) ([]*types.Area, error)
	GetOrCreate(dbc dbctx.Context, key types.AreaKey) (*types.Area, bool, error)
	ListByOutcome(dbc dbctx.Context, outcomeID uint) ([]*types.Area, error)

	// Delete removes the area together with its attempts, used areas and links.
	Delete(dbc dbctx.Context, areaID uint) error
}

type areaRepo struct {
	db       *gorm.DB
	log      *logger.Logger
	attempts AttemptRepo
}

func NewAreaRepo(db *gorm.DB, baseLog *logger.Logger) AreaRepo {
	return &areaRepo{
		db:       db,
		log:      baseLog.With("repo", "AreaRepo"),
		attempts: NewAttemptRepo(db, baseLog),
	}
}

func (r *areaRepo) GetByID(dbc dbctx.Context, id uint) (*types.Area, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == 0 {
		return nil, nil
	}
	var row types.Area
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *areaRepo) Find(dbc dbctx.Context, key types.AreaKey) (*types.Area, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Area
	err := t.WithContext(dbc.Ctx).
		Where("component = ? AND area = ? AND itemid = ?", key.Component, key.Area, key.ItemID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *areaRepo) FindMany(dbc dbctx.Context, keys []types.AreaKey) ([]*types.Area, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Area
	if len(keys) == 0 {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).Model(&types.Area{})
	group := t.Session(&gorm.Session{NewDB: true})
	for i, k := range keys {
		if i == 0 {
			group = group.Where("component = ? AND area = ? AND itemid = ?", k.Component, k.Area, k.ItemID)
			continue
		}
		group = group.Or("component = ? AND area = ? AND itemid = ?", k.Component, k.Area, k.ItemID)
	}
	if err := q.Where(group).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *areaRepo) GetOrCreate(dbc dbctx.Context, key types.AreaKey) (*types.Area, bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	existing, err := r.Find(dbc, key)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	row := &types.Area{Component: key.Component, Area: key.Area, ItemID: key.ItemID}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, false, err
	}
	return row, true, nil
}

func (r *areaRepo) ListByOutcome(dbc dbctx.Context, outcomeID uint) ([]*types.Area, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Area
	if outcomeID == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Area{}).
		Joins("JOIN outcome_area_outcomes ao ON ao.outcomeareaid = outcome_areas.id").
		Where("ao.outcomeid = ?", outcomeID).
		Order("outcome_areas.id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *areaRepo) Delete(dbc dbctx.Context, areaID uint) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if areaID == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		var usedIDs []uint
		if err := tx.Model(&types.UsedArea{}).Where("outcomeareaid = ?", areaID).Pluck("id", &usedIDs).Error; err != nil {
			return err
		}
		if _, err := r.attempts.DeleteByUsedAreaIDs(dbctx.Context{Ctx: dbc.Ctx, Tx: tx}, usedIDs); err != nil {
			return err
		}
		if err := tx.Where("outcomeareaid = ?", areaID).Delete(&types.UsedArea{}).Error; err != nil {
			return err
		}
		if err := tx.Where("outcomeareaid = ?", areaID).Delete(&types.AreaOutcome{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", areaID).Delete(&types.Area{}).Error
	})
}
