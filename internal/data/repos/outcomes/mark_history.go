package outcomes

import (
	"gorm.io/gorm"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

type MarkHistoryRepo interface {
	Insert(dbc dbctx.Context, rows []*types.MarkHistory) error
	ListFor(dbc dbctx.Context, courseID, userID, outcomeID uint) ([]*types.MarkHistory, error)
	// LatestPerOtherCourse returns the newest history row of each course other
	// than excludeCourseID for the (user, outcome) pair.
	LatestPerOtherCourse(dbc dbctx.Context, userID, outcomeID, excludeCourseID uint) ([]*types.MarkHistory, error)
	DeleteBefore(dbc dbctx.Context, cutoff int64) (int64, error)
}

type markHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMarkHistoryRepo(db *gorm.DB, baseLog *logger.Logger) MarkHistoryRepo {
	return &markHistoryRepo{db: db, log: baseLog.With("repo", "MarkHistoryRepo")}
}

func (r *markHistoryRepo) Insert(dbc dbctx.Context, rows []*types.MarkHistory) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(&rows).Error
}

func (r *markHistoryRepo) ListFor(dbc dbctx.Context, courseID, userID, outcomeID uint) ([]*types.MarkHistory, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.MarkHistory
	if err := t.WithContext(dbc.Ctx).
		Where("courseid = ? AND userid = ? AND outcomeid = ?", courseID, userID, outcomeID).
		Order("timecreated ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *markHistoryRepo) LatestPerOtherCourse(dbc dbctx.Context, userID, outcomeID, excludeCourseID uint) ([]*types.MarkHistory, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []*types.MarkHistory
	if err := t.WithContext(dbc.Ctx).
		Where("userid = ? AND outcomeid = ? AND courseid <> ?", userID, outcomeID, excludeCourseID).
		Order("courseid ASC, timecreated DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := []*types.MarkHistory{}
	seen := map[uint]bool{}
	for _, h := range rows {
		if seen[h.CourseID] {
			continue
		}
		seen[h.CourseID] = true
		out = append(out, h)
	}
	return out, nil
}

// DeleteBefore removes rows created strictly before cutoff (unix seconds).
func (r *markHistoryRepo) DeleteBefore(dbc dbctx.Context, cutoff int64) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).Where("timecreated < ?", cutoff).Delete(&types.MarkHistory{})
	return res.RowsAffected, res.Error
}
