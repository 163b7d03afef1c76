package sources

// Row shapes of the collaborator tables. The store only reads them; tests
// create them through AutoMigrate.

type courseModuleRow struct {
	ID         uint `gorm:"column:id;primaryKey"`
	Course     uint `gorm:"column:course;index"`
	Module     uint `gorm:"column:module"`
	Instance   uint `gorm:"column:instance"`
	Completion int  `gorm:"column:completion"`
}

type moduleRow struct {
	ID   uint   `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name"`
}

type completionRow struct {
	ID              uint `gorm:"column:id;primaryKey"`
	CourseModuleID  uint `gorm:"column:coursemoduleid;index"`
	UserID          uint `gorm:"column:userid"`
	CompletionState int  `gorm:"column:completionstate"`
}

type contextRow struct {
	ID           uint   `gorm:"column:id;primaryKey"`
	ContextLevel int    `gorm:"column:contextlevel"`
	InstanceID   uint   `gorm:"column:instanceid"`
	Path         string `gorm:"column:path"`
}

type roleAssignmentRow struct {
	ID        uint `gorm:"column:id;primaryKey"`
	RoleID    uint `gorm:"column:roleid"`
	ContextID uint `gorm:"column:contextid;index"`
	UserID    uint `gorm:"column:userid"`
}

type userRow struct {
	ID      uint `gorm:"column:id;primaryKey"`
	Deleted int  `gorm:"column:deleted"`
}

type groupMemberRow struct {
	ID      uint `gorm:"column:id;primaryKey"`
	GroupID uint `gorm:"column:groupid;index"`
	UserID  uint `gorm:"column:userid"`
}

type gradeItemRow struct {
	ID           uint   `gorm:"column:id;primaryKey"`
	CourseID     uint   `gorm:"column:courseid;index"`
	ItemType     string `gorm:"column:itemtype"`
	ItemModule   string `gorm:"column:itemmodule"`
	ItemInstance uint   `gorm:"column:iteminstance"`
	GradeType    int    `gorm:"column:gradetype"`
	ScaleID      *uint  `gorm:"column:scaleid"`
}

type gradeRow struct {
	ID         uint     `gorm:"column:id;primaryKey"`
	ItemID     uint     `gorm:"column:itemid;index"`
	UserID     uint     `gorm:"column:userid"`
	FinalGrade *float64 `gorm:"column:finalgrade"`
}

type scaleRow struct {
	ID    uint   `gorm:"column:id;primaryKey"`
	Name  string `gorm:"column:name"`
	Scale string `gorm:"column:scale"`
}

const (
	tableCourseModules   = "course_modules"
	tableModules         = "modules"
	tableCompletion      = "course_modules_completion"
	tableContext         = "context"
	tableRoleAssignments = "role_assignments"
	tableUser            = "user"
	tableGroupsMembers   = "groups_members"
	tableGradeItems      = "grade_items"
	tableGrades          = "grade_grades"
	tableScale           = "scale"

	contextLevelCourse = 50
	gradeTypeScale     = 2
)
