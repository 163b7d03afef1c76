package outcomes

import (
	"errors"
	"sort"

	"gorm.io/gorm"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

type OutcomeRepo interface {
	GetByID(dbc dbctx.Context, id uint) (*types.Outcome, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Outcome, error)
	GetByIDNumber(dbc dbctx.Context, idnumber string) (*types.Outcome, error)
	ListBySet(dbc dbctx.Context, setID uint, includeDeleted bool) ([]*types.Outcome, error)
	FindBy(dbc dbctx.Context, conds map[string]interface{}) ([]*types.Outcome, error)
	ListByArea(dbc dbctx.Context, area types.AreaKey) ([]*types.Outcome, error)
	// ListScoped applies gorm scopes to a query over the outcome table and
	// returns the rows in (sortorder, id) order with metadata loaded.
	ListScoped(dbc dbctx.Context, scopes ...func(*gorm.DB) *gorm.DB) ([]*types.Outcome, error)

	IDNumberExists(dbc dbctx.Context, idnumber string, excludeID uint) (bool, error)

	// Writes stamp timemodified (and timecreated on insert) with at.
	Save(dbc dbctx.Context, o *types.Outcome, at int64) (*types.Outcome, error)
	UpdateSortOrder(dbc dbctx.Context, id uint, sortorder int, at int64) error
	UpdateParent(dbc dbctx.Context, id uint, parentID *uint, at int64) error

	LoadMetadata(dbc dbctx.Context, rows []*types.Outcome) error
}

type outcomeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOutcomeRepo(db *gorm.DB, baseLog *logger.Logger) OutcomeRepo {
	return &outcomeRepo{db: db, log: baseLog.With("repo", "OutcomeRepo")}
}

func (r *outcomeRepo) GetByID(dbc dbctx.Context, id uint) (*types.Outcome, error) {
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

func (r *outcomeRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Outcome, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Outcome
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	if err := r.LoadMetadata(dbc, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *outcomeRepo) GetByIDNumber(dbc dbctx.Context, idnumber string) (*types.Outcome, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if idnumber == "" {
		return nil, nil
	}
	var row types.Outcome
	err := t.WithContext(dbc.Ctx).Where("idnumber = ?", idnumber).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.LoadMetadata(dbc, []*types.Outcome{&row}); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListBySet returns the outcomes of a set in (sortorder, id) order.
func (r *outcomeRepo) ListBySet(dbc dbctx.Context, setID uint, includeDeleted bool) ([]*types.Outcome, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Outcome
	if setID == 0 {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).Where("outcomesetid = ?", setID)
	if !includeDeleted {
		q = q.Where("deleted = ?", false)
	}
	if err := q.Order("sortorder ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	if err := r.LoadMetadata(dbc, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *outcomeRepo) FindBy(dbc dbctx.Context, conds map[string]interface{}) ([]*types.Outcome, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Outcome
	q := t.WithContext(dbc.Ctx).Model(&types.Outcome{})
	if len(conds) > 0 {
		q = q.Where(conds)
	}
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	if err := r.LoadMetadata(dbc, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByArea returns the outcomes linked to an area.
func (r *outcomeRepo) ListByArea(dbc dbctx.Context, area types.AreaKey) ([]*types.Outcome, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Outcome
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Outcome{}).
		Joins("JOIN outcome_area_outcomes ao ON ao.outcomeid = outcome.id").
		Joins("JOIN outcome_areas a ON a.id = ao.outcomeareaid").
		Where("a.component = ? AND a.area = ? AND a.itemid = ?", area.Component, area.Area, area.ItemID).
		Order("outcome.id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	if err := r.LoadMetadata(dbc, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *outcomeRepo) ListScoped(dbc dbctx.Context, scopes ...func(*gorm.DB) *gorm.DB) ([]*types.Outcome, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Outcome
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Outcome{}).
		Select("outcome.*").
		Scopes(scopes...).
		Order("outcome.sortorder ASC, outcome.id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	if err := r.LoadMetadata(dbc, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *outcomeRepo) IDNumberExists(dbc dbctx.Context, idnumber string, excludeID uint) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	q := t.WithContext(dbc.Ctx).Model(&types.Outcome{}).Where("idnumber = ?", idnumber)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Save inserts or updates the outcome and replaces its metadata rows.
func (r *outcomeRepo) Save(dbc dbctx.Context, o *types.Outcome, at int64) (*types.Outcome, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if o == nil {
		return nil, nil
	}
	o.TimeModified = at
	err := t.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		if o.ID == 0 {
			o.TimeCreated = at
			if err := tx.Create(o).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&types.Outcome{}).
				Where("id = ?", o.ID).
				Select("outcomesetid", "parentid", "idnumber", "docnum", "description",
					"assessable", "deleted", "sortorder", "timemodified").
				Updates(o).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("outcomeid = ?", o.ID).Delete(&types.OutcomeMetadata{}).Error; err != nil {
			return err
		}
		md := metadataRows(o)
		if len(md) == 0 {
			return nil
		}
		return tx.Create(&md).Error
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *outcomeRepo) UpdateSortOrder(dbc dbctx.Context, id uint, sortorder int, at int64) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Outcome{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sortorder":    sortorder,
			"timemodified": at,
		}).Error
}

func (r *outcomeRepo) UpdateParent(dbc dbctx.Context, id uint, parentID *uint, at int64) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == 0 {
		return nil
	}
	if parentID != nil && *parentID == 0 {
		parentID = nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Outcome{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"parentid":     parentID,
			"timemodified": at,
		}).Error
}

// LoadMetadata fills Edulevels and Subjects from outcome_metadata.
func (r *outcomeRepo) LoadMetadata(dbc dbctx.Context, rows []*types.Outcome) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	byID := make(map[uint]*types.Outcome, len(rows))
	ids := make([]uint, 0, len(rows))
	for _, o := range rows {
		if o == nil {
			continue
		}
		o.Edulevels, o.Subjects = nil, nil
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	var md []*types.OutcomeMetadata
	if err := t.WithContext(dbc.Ctx).
		Where("outcomeid IN ?", ids).
		Order("id ASC").
		Find(&md).Error; err != nil {
		return err
	}
	for _, m := range md {
		o := byID[m.OutcomeID]
		if o == nil {
			continue
		}
		switch m.Name {
		case types.MetadataEdulevels:
			o.Edulevels = append(o.Edulevels, m.Value)
		case types.MetadataSubjects:
			o.Subjects = append(o.Subjects, m.Value)
		}
	}
	return nil
}

func metadataRows(o *types.Outcome) []*types.OutcomeMetadata {
	var out []*types.OutcomeMetadata
	add := func(name string, values []string) {
		seen := map[string]bool{}
		for _, v := range values {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, &types.OutcomeMetadata{OutcomeID: o.ID, Name: name, Value: v})
		}
	}
	add(types.MetadataEdulevels, o.Edulevels)
	add(types.MetadataSubjects, o.Subjects)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
