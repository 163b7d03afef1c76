package sources

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/outcomes-backend/internal/modules/reporting"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

// DefaultResourceModules are the module names classified as resources.
var DefaultResourceModules = []string{"book", "folder", "imscp", "label", "page", "resource", "url"}

type Config struct {
	// Prefix is prepended to every collaborator table name.
	Prefix          string
	GradebookRoles  []uint
	GuestUserID     uint
	ResourceModules []string
}

// Store reads the course, enrolment, completion and gradebook tables owned by
// the host platform. It implements every reporting source.
type Store struct {
	db        *gorm.DB
	log       *logger.Logger
	cfg       Config
	resources map[string]bool
}

var (
	_ reporting.ModuleCatalog    = (*Store)(nil)
	_ reporting.EnrollmentSource = (*Store)(nil)
	_ reporting.CompletionSource = (*Store)(nil)
	_ reporting.GradebookSource  = (*Store)(nil)
)

func New(db *gorm.DB, baseLog *logger.Logger, cfg Config) *Store {
	if len(cfg.ResourceModules) == 0 {
		cfg.ResourceModules = DefaultResourceModules
	}
	res := make(map[string]bool, len(cfg.ResourceModules))
	for _, m := range cfg.ResourceModules {
		res[strings.TrimSpace(m)] = true
	}
	return &Store{
		db:        db,
		log:       baseLog.With("service", "CollaboratorStore"),
		cfg:       cfg,
		resources: res,
	}
}

func (s *Store) table(name string) string { return s.cfg.Prefix + name }

func (s *Store) CourseModules(ctx context.Context, courseID uint, cmids []uint) ([]reporting.CourseModule, error) {
	out := []reporting.CourseModule{}
	if len(cmids) == 0 {
		return out, nil
	}
	var rows []struct {
		ID         uint   `gorm:"column:id"`
		Course     uint   `gorm:"column:course"`
		Instance   uint   `gorm:"column:instance"`
		Completion int    `gorm:"column:completion"`
		Name       string `gorm:"column:name"`
	}
	if err := s.db.WithContext(ctx).
		Table(s.table(tableCourseModules)+" cm").
		Select("cm.id, cm.course, cm.instance, cm.completion, m.name").
		Joins("JOIN "+s.table(tableModules)+" m ON m.id = cm.module").
		Where("cm.course = ? AND cm.id IN ?", courseID, cmids).
		Order("cm.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		arch := reporting.ArchetypeActivity
		if s.resources[r.Name] {
			arch = reporting.ArchetypeResource
		}
		out = append(out, reporting.CourseModule{
			ID:                r.ID,
			CourseID:          r.Course,
			ModName:           r.Name,
			Instance:          r.Instance,
			CompletionEnabled: r.Completion > 0,
			Archetype:         arch,
		})
	}
	return out, nil
}

// EnrolledUsers returns holders of a gradebook role assigned in the course
// context or any of its ancestors.
func (s *Store) EnrolledUsers(ctx context.Context, courseID, groupID uint) ([]uint, error) {
	out := []uint{}
	if len(s.cfg.GradebookRoles) == 0 {
		s.log.Warn("no gradebook roles configured", "courseid", courseID)
		return out, nil
	}
	var cctx contextRow
	err := s.db.WithContext(ctx).
		Table(s.table(tableContext)).
		Where("contextlevel = ? AND instanceid = ?", contextLevelCourse, courseID).
		Limit(1).
		Find(&cctx).Error
	if err != nil {
		return nil, err
	}
	if cctx.ID == 0 {
		return out, nil
	}
	ctxIDs := ancestry(cctx.Path, cctx.ID)

	q := s.db.WithContext(ctx).
		Table(s.table(tableRoleAssignments)+" ra").
		Distinct("ra.userid").
		Joins("JOIN "+s.table(tableUser)+" u ON u.id = ra.userid").
		Where("ra.roleid IN ? AND ra.contextid IN ?", s.cfg.GradebookRoles, ctxIDs).
		Where("u.deleted = ?", 0)
	if s.cfg.GuestUserID != 0 {
		q = q.Where("u.id <> ?", s.cfg.GuestUserID)
	}
	if groupID != 0 {
		q = q.Joins("JOIN "+s.table(tableGroupsMembers)+" gm ON gm.userid = ra.userid AND gm.groupid = ?", groupID)
	}
	if err := q.Order("ra.userid ASC").Pluck("ra.userid", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ancestry turns a context path like "/1/3/15" into its ids; self is always included.
func ancestry(path string, self uint) []uint {
	seen := map[uint]bool{self: true}
	out := []uint{self}
	for _, part := range strings.Split(path, "/") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil || id == 0 || seen[uint(id)] {
			continue
		}
		seen[uint(id)] = true
		out = append(out, uint(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Store) CompletionStates(ctx context.Context, cmids, userIDs []uint) ([]reporting.CompletionState, error) {
	out := []reporting.CompletionState{}
	if len(cmids) == 0 || len(userIDs) == 0 {
		return out, nil
	}
	var rows []completionRow
	if err := s.db.WithContext(ctx).
		Table(s.table(tableCompletion)).
		Where("coursemoduleid IN ? AND userid IN ?", cmids, userIDs).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out = append(out, reporting.CompletionState{CMID: r.CourseModuleID, UserID: r.UserID, State: r.CompletionState})
	}
	return out, nil
}

// GradeItems resolves the module grade items behind the course modules.
// Items graded on a scale carry the parsed scale.
func (s *Store) GradeItems(ctx context.Context, courseID uint, cmids []uint) ([]reporting.GradeItem, error) {
	out := []reporting.GradeItem{}
	if len(cmids) == 0 {
		return out, nil
	}
	var rows []struct {
		ID        uint  `gorm:"column:id"`
		CourseID  uint  `gorm:"column:courseid"`
		CMID      uint  `gorm:"column:cmid"`
		GradeType int   `gorm:"column:gradetype"`
		ScaleID   *uint `gorm:"column:scaleid"`
	}
	if err := s.db.WithContext(ctx).
		Table(s.table(tableGradeItems)+" gi").
		Select("gi.id, gi.courseid, cm.id AS cmid, gi.gradetype, gi.scaleid").
		Joins("JOIN "+s.table(tableModules)+" m ON m.name = gi.itemmodule").
		Joins("JOIN "+s.table(tableCourseModules)+" cm ON cm.module = m.id AND cm.instance = gi.iteminstance AND cm.course = gi.courseid").
		Where("gi.courseid = ? AND gi.itemtype = ? AND cm.id IN ?", courseID, "mod", cmids).
		Order("gi.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	var scaleIDs []uint
	for _, r := range rows {
		if r.GradeType == gradeTypeScale && r.ScaleID != nil && *r.ScaleID != 0 {
			scaleIDs = append(scaleIDs, *r.ScaleID)
		}
	}
	scales, err := s.scales(ctx, scaleIDs)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		it := reporting.GradeItem{ID: r.ID, CourseID: r.CourseID, CMID: r.CMID}
		if r.GradeType == gradeTypeScale && r.ScaleID != nil {
			it.Scale = scales[*r.ScaleID]
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *Store) scales(ctx context.Context, ids []uint) (map[uint]*reporting.Scale, error) {
	out := map[uint]*reporting.Scale{}
	if len(ids) == 0 {
		return out, nil
	}
	var rows []scaleRow
	if err := s.db.WithContext(ctx).
		Table(s.table(tableScale)).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = reporting.ParseScale(r.ID, r.Name, r.Scale)
	}
	return out, nil
}

func (s *Store) FinalGrades(ctx context.Context, itemIDs, userIDs []uint) ([]reporting.Grade, error) {
	out := []reporting.Grade{}
	if len(itemIDs) == 0 || len(userIDs) == 0 {
		return out, nil
	}
	var rows []gradeRow
	if err := s.db.WithContext(ctx).
		Table(s.table(tableGrades)).
		Where("itemid IN ? AND userid IN ?", itemIDs, userIDs).
		Order("itemid ASC, userid ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out = append(out, reporting.Grade{ItemID: r.ItemID, UserID: r.UserID, FinalGrade: r.FinalGrade})
	}
	return out, nil
}
