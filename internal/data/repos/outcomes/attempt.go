package outcomes

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

type AttemptRepo interface {
	// Save inserts the attempt. With dedupe an existing row for the same
	// (used area, user, item) is overwritten instead. Unset timestamps
	// default to at.
	Save(dbc dbctx.Context, a *types.Attempt, dedupe bool, at int64) (*types.Attempt, error)
	// LatestByUsedAreas returns one attempt per (used area, user): the most
	// recently modified, ties broken by the highest id. Empty userIDs means all users.
	LatestByUsedAreas(dbc dbctx.Context, usedAreaIDs []uint, userIDs []uint) ([]*types.Attempt, error)
	DeleteByUsedAreaIDs(dbc dbctx.Context, usedAreaIDs []uint) (int64, error)
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	return &attemptRepo{db: db, log: baseLog.With("repo", "AttemptRepo")}
}

func (r *attemptRepo) Save(dbc dbctx.Context, a *types.Attempt, dedupe bool, at int64) (*types.Attempt, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if a == nil {
		return nil, nil
	}
	if a.TimeModified == 0 {
		a.TimeModified = at
	}
	if dedupe && a.ID == 0 {
		var existing types.Attempt
		err := t.WithContext(dbc.Ctx).
			Where("outcomeusedareaid = ? AND userid = ? AND itemid = ?", a.OutcomeUsedAreaID, a.UserID, a.ItemID).
			Order("id DESC").
			Take(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err == nil {
			a.ID = existing.ID
			a.TimeCreated = existing.TimeCreated
		}
	}
	if a.ID == 0 {
		if a.TimeCreated == 0 {
			a.TimeCreated = at
		}
		if err := t.WithContext(dbc.Ctx).Create(a).Error; err != nil {
			return nil, err
		}
		return a, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Attempt{}).
		Where("id = ?", a.ID).
		Select("mingrade", "maxgrade", "rawgrade", "percentgrade", "timemodified").
		Updates(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (r *attemptRepo) LatestByUsedAreas(dbc dbctx.Context, usedAreaIDs []uint, userIDs []uint) ([]*types.Attempt, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Attempt{}
	if len(usedAreaIDs) == 0 {
		return out, nil
	}
	var rows []*types.Attempt
	q := t.WithContext(dbc.Ctx).Where("outcomeusedareaid IN ?", usedAreaIDs)
	if len(userIDs) > 0 {
		q = q.Where("userid IN ?", userIDs)
	}
	if err := q.
		Order("outcomeusedareaid ASC, userid ASC, timemodified DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	type key struct{ usedArea, user uint }
	seen := map[key]bool{}
	for _, a := range rows {
		k := key{a.OutcomeUsedAreaID, a.UserID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, a)
	}
	return out, nil
}

func (r *attemptRepo) DeleteByUsedAreaIDs(dbc dbctx.Context, usedAreaIDs []uint) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(usedAreaIDs) == 0 {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).Where("outcomeusedareaid IN ?", usedAreaIDs).Delete(&types.Attempt{})
	return res.RowsAffected, res.Error
}
