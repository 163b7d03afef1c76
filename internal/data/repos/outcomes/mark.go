package outcomes

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

type MarkRepo interface {
	GetByID(dbc dbctx.Context, id uint) (*types.Mark, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Mark, error)
	Find(dbc dbctx.Context, courseID, userID, outcomeID uint) (*types.Mark, error)
	ListByCourse(dbc dbctx.Context, courseID uint) ([]*types.Mark, error)
	ListByCourseUser(dbc dbctx.Context, courseID, userID uint) ([]*types.Mark, error)
	// ListOtherCourses returns the user's marks on an outcome outside excludeCourseID.
	ListOtherCourses(dbc dbctx.Context, userID, outcomeID, excludeCourseID uint) ([]*types.Mark, error)

	Create(dbc dbctx.Context, m *types.Mark) (*types.Mark, error)
	UpdateResult(dbc dbctx.Context, m *types.Mark) error
	DeleteByIDs(dbc dbctx.Context, ids []uint) (int64, error)
}

type markRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMarkRepo(db *gorm.DB, baseLog *logger.Logger) MarkRepo {
	return &markRepo{db: db, log: baseLog.With("repo", "MarkRepo")}
}

func (r *markRepo) GetByID(dbc dbctx.Context, id uint) (*types.Mark, error) {
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

func (r *markRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Mark, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Mark
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *markRepo) Find(dbc dbctx.Context, courseID, userID, outcomeID uint) (*types.Mark, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Mark
	err := t.WithContext(dbc.Ctx).
		Where("courseid = ? AND userid = ? AND outcomeid = ?", courseID, userID, outcomeID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *markRepo) ListByCourse(dbc dbctx.Context, courseID uint) ([]*types.Mark, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Mark
	if courseID == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("courseid = ?", courseID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *markRepo) ListByCourseUser(dbc dbctx.Context, courseID, userID uint) ([]*types.Mark, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Mark
	if courseID == 0 || userID == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("courseid = ? AND userid = ?", courseID, userID).
		Order("outcomeid ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *markRepo) ListOtherCourses(dbc dbctx.Context, userID, outcomeID, excludeCourseID uint) ([]*types.Mark, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Mark
	if err := t.WithContext(dbc.Ctx).
		Where("userid = ? AND outcomeid = ? AND courseid <> ?", userID, outcomeID, excludeCourseID).
		Order("courseid ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *markRepo) Create(dbc dbctx.Context, m *types.Mark) (*types.Mark, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if m == nil {
		return nil, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateResult persists result, grader and timemodified of an existing mark.
func (r *markRepo) UpdateResult(dbc dbctx.Context, m *types.Mark) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if m == nil || m.ID == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Mark{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"result":       m.Result,
			"graderid":     m.GraderID,
			"timemodified": m.TimeModified,
		}).Error
}

func (r *markRepo) DeleteByIDs(dbc dbctx.Context, ids []uint) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.Mark{})
	return res.RowsAffected, res.Error
}
