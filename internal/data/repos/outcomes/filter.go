package outcomes

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

type FilterRepo interface {
	Get(dbc dbctx.Context, courseID, setID uint) (*types.Filter, error)
	ListByCourse(dbc dbctx.Context, courseID uint) ([]*types.Filter, error)
	Upsert(dbc dbctx.Context, f *types.Filter) (*types.Filter, error)
	// DeleteExcept removes the course's filters whose set is not in keepSetIDs
	// and returns the removed set ids.
	DeleteExcept(dbc dbctx.Context, courseID uint, keepSetIDs []uint) ([]uint, error)
}

type filterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFilterRepo(db *gorm.DB, baseLog *logger.Logger) FilterRepo {
	return &filterRepo{db: db, log: baseLog.With("repo", "FilterRepo")}
}

func (r *filterRepo) Get(dbc dbctx.Context, courseID, setID uint) (*types.Filter, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Filter
	err := t.WithContext(dbc.Ctx).
		Where("courseid = ? AND outcomesetid = ?", courseID, setID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *filterRepo) ListByCourse(dbc dbctx.Context, courseID uint) ([]*types.Filter, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Filter
	if courseID == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("courseid = ?", courseID).
		Order("outcomesetid ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *filterRepo) Upsert(dbc dbctx.Context, f *types.Filter) (*types.Filter, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if f == nil || f.CourseID == 0 || f.OutcomeSetID == 0 {
		return nil, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "courseid"}, {Name: "outcomesetid"}},
			DoUpdates: clause.AssignmentColumns([]string{"filter"}),
		}).
		Create(f).Error; err != nil {
		return nil, err
	}
	return r.Get(dbc, f.CourseID, f.OutcomeSetID)
}

func (r *filterRepo) DeleteExcept(dbc dbctx.Context, courseID uint, keepSetIDs []uint) ([]uint, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	removed := []uint{}
	if courseID == 0 {
		return removed, nil
	}
	q := t.WithContext(dbc.Ctx).Model(&types.Filter{}).Where("courseid = ?", courseID)
	if len(keepSetIDs) > 0 {
		q = q.Where("outcomesetid NOT IN ?", keepSetIDs)
	}
	if err := q.Order("outcomesetid ASC").Pluck("outcomesetid", &removed).Error; err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return removed, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("courseid = ? AND outcomesetid IN ?", courseID, removed).
		Delete(&types.Filter{}).Error; err != nil {
		return nil, err
	}
	return removed, nil
}
