package outcomes

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

type AwardRepo interface {
	// InsertIgnore creates the award unless it exists; it reports whether a row was written.
	InsertIgnore(dbc dbctx.Context, userID, outcomeID uint, at int64) (bool, error)
	Exists(dbc dbctx.Context, userID, outcomeID uint) (bool, error)
	ListByUser(dbc dbctx.Context, userID uint, outcomeIDs []uint) ([]*types.Award, error)
}

type awardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAwardRepo(db *gorm.DB, baseLog *logger.Logger) AwardRepo {
	return &awardRepo{db: db, log: baseLog.With("repo", "AwardRepo")}
}

func (r *awardRepo) InsertIgnore(dbc dbctx.Context, userID, outcomeID uint, at int64) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == 0 || outcomeID == 0 {
		return false, nil
	}
	row := &types.Award{UserID: userID, OutcomeID: outcomeID, TimeCreated: at}
	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "userid"}, {Name: "outcomeid"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *awardRepo) Exists(dbc dbctx.Context, userID, outcomeID uint) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Award{}).
		Where("userid = ? AND outcomeid = ?", userID, outcomeID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *awardRepo) ListByUser(dbc dbctx.Context, userID uint, outcomeIDs []uint) ([]*types.Award, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Award
	if userID == 0 {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).Where("userid = ?", userID)
	if len(outcomeIDs) > 0 {
		q = q.Where("outcomeid IN ?", outcomeIDs)
	}
	if err := q.Order("outcomeid ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
