package outcomes

// MarkResult is the mastery determination stored on a mark.
type MarkResult int

const (
	NotEarned MarkResult = 0
	Earned    MarkResult = 1
)

func (r MarkResult) String() string {
	if r == Earned {
		return "earned"
	}
	return "not_earned"
}

// ResultFor maps a boolean onto a MarkResult.
func ResultFor(earned bool) MarkResult {
	if earned {
		return Earned
	}
	return NotEarned
}

// Mark is the current determination of an outcome for a user in a course.
type Mark struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseID     uint       `gorm:"column:courseid;not null;uniqueIndex:idx_outcome_marks_key,priority:1" json:"courseid"`
	UserID       uint       `gorm:"column:userid;not null;uniqueIndex:idx_outcome_marks_key,priority:2" json:"userid"`
	OutcomeID    uint       `gorm:"column:outcomeid;not null;uniqueIndex:idx_outcome_marks_key,priority:3;index" json:"outcomeid"`
	GraderID     uint       `gorm:"column:graderid;not null" json:"graderid"`
	Result       MarkResult `gorm:"column:result;not null;default:0" json:"result"`
	TimeCreated  int64      `gorm:"column:timecreated;not null" json:"timecreated"`
	TimeModified int64      `gorm:"column:timemodified;not null" json:"timemodified"`
}

func (Mark) TableName() string { return "outcome_marks" }

func (m *Mark) IsEarned() bool { return m != nil && m.Result == Earned }

// HistoryAction records which mutation produced a history row.
type HistoryAction int

const (
	ActionCreate HistoryAction = 0
	ActionUpdate HistoryAction = 1
	ActionDelete HistoryAction = 2
)

func (a HistoryAction) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

// MarkHistory is an append-only snapshot of a mark mutation.
type MarkHistory struct {
	ID          uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	OutcomeID   uint          `gorm:"column:outcomeid;not null;index:idx_outcome_marks_history_lookup,priority:1" json:"outcomeid"`
	UserID      uint          `gorm:"column:userid;not null;index:idx_outcome_marks_history_lookup,priority:2" json:"userid"`
	CourseID    uint          `gorm:"column:courseid;not null;index:idx_outcome_marks_history_lookup,priority:3" json:"courseid"`
	GraderID    uint          `gorm:"column:graderid;not null" json:"graderid"`
	Result      MarkResult    `gorm:"column:result;not null" json:"result"`
	Action      HistoryAction `gorm:"column:action;not null" json:"action"`
	TimeCreated int64         `gorm:"column:timecreated;not null;index" json:"timecreated"`
}

func (MarkHistory) TableName() string { return "outcome_marks_history" }

// HistoryFor snapshots a mark into a history row.
func HistoryFor(m *Mark, action HistoryAction, at int64) *MarkHistory {
	return &MarkHistory{
		OutcomeID:   m.OutcomeID,
		UserID:      m.UserID,
		CourseID:    m.CourseID,
		GraderID:    m.GraderID,
		Result:      m.Result,
		Action:      action,
		TimeCreated: at,
	}
}
