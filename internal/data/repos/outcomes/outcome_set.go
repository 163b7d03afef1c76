package outcomes

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

type OutcomeSetRepo interface {
	GetByID(dbc dbctx.Context, id uint) (*types.OutcomeSet, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.OutcomeSet, error)
	GetByIDNumber(dbc dbctx.Context, idnumber string) (*types.OutcomeSet, error)
	List(dbc dbctx.Context, includeDeleted bool) ([]*types.OutcomeSet, error)
	ListUsedByCourse(dbc dbctx.Context, courseID uint) ([]*types.OutcomeSet, error)

	IDNumberExists(dbc dbctx.Context, idnumber string, excludeID uint) (bool, error)

	// Writes stamp timemodified (and timecreated on insert) with at.
	Save(dbc dbctx.Context, s *types.OutcomeSet, at int64) (*types.OutcomeSet, error)
	SetDeleted(dbc dbctx.Context, id uint, deleted bool, at int64) error
}

type outcomeSetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOutcomeSetRepo(db *gorm.DB, baseLog *logger.Logger) OutcomeSetRepo {
	return &outcomeSetRepo{db: db, log: baseLog.With("repo", "OutcomeSetRepo")}
}

func (r *outcomeSetRepo) GetByID(dbc dbctx.Context, id uint) (*types.OutcomeSet, error) {
	if id == 0 {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uint{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *outcomeSetRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.OutcomeSet, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.OutcomeSet
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *outcomeSetRepo) GetByIDNumber(dbc dbctx.Context, idnumber string) (*types.OutcomeSet, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if idnumber == "" {
		return nil, nil
	}
	var row types.OutcomeSet
	err := t.WithContext(dbc.Ctx).Where("idnumber = ?", idnumber).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *outcomeSetRepo) List(dbc dbctx.Context, includeDeleted bool) ([]*types.OutcomeSet, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.OutcomeSet
	q := t.WithContext(dbc.Ctx).Model(&types.OutcomeSet{})
	if !includeDeleted {
		q = q.Where("deleted = ?", false)
	}
	if err := q.Order("name ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListUsedByCourse returns the non-deleted sets a course has a filter for.
func (r *outcomeSetRepo) ListUsedByCourse(dbc dbctx.Context, courseID uint) ([]*types.OutcomeSet, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.OutcomeSet
	if courseID == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.OutcomeSet{}).
		Joins("JOIN outcome_used_sets us ON us.outcomesetid = outcome_sets.id").
		Where("us.courseid = ? AND outcome_sets.deleted = ?", courseID, false).
		Order("outcome_sets.name ASC, outcome_sets.id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *outcomeSetRepo) IDNumberExists(dbc dbctx.Context, idnumber string, excludeID uint) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	q := t.WithContext(dbc.Ctx).Model(&types.OutcomeSet{}).Where("idnumber = ?", idnumber)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *outcomeSetRepo) Save(dbc dbctx.Context, s *types.OutcomeSet, at int64) (*types.OutcomeSet, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if s == nil {
		return nil, nil
	}
	s.TimeModified = at
	if s.ID == 0 {
		s.TimeCreated = at
		if err := t.WithContext(dbc.Ctx).Create(s).Error; err != nil {
			return nil, err
		}
		return s, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.OutcomeSet{}).
		Where("id = ?", s.ID).
		Select("idnumber", "name", "description", "provider", "region", "deleted", "timemodified").
		Updates(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *outcomeSetRepo) SetDeleted(dbc dbctx.Context, id uint, deleted bool, at int64) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.OutcomeSet{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted":      deleted,
			"timemodified": at,
		}).Error
}
