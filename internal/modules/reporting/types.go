package reporting

// CompletionResult counts (enrolled user, activity) pairs.
type CompletionResult struct {
	OutcomeID  uint     `json:"outcomeid" yaml:"outcomeid"`
	Activities int      `json:"activities" yaml:"activities"`
	Users      int      `json:"users" yaml:"users"`
	Complete   int      `json:"complete" yaml:"complete"`
	Total      int      `json:"total" yaml:"total"`
	Percent    *float64 `json:"percent,omitempty" yaml:"percent,omitempty"`
}

// GradeResult is the scale-graded view of an outcome.
type GradeResult struct {
	OutcomeID uint     `json:"outcomeid" yaml:"outcomeid"`
	Items     int      `json:"items" yaml:"items"`
	Count     int      `json:"count" yaml:"count"`
	Average   *float64 `json:"average,omitempty" yaml:"average,omitempty"`
	// Formatted is set only when every graded item uses the same scale.
	Formatted    string         `json:"formatted,omitempty" yaml:"formatted,omitempty"`
	Distribution map[string]int `json:"distribution,omitempty" yaml:"distribution,omitempty"`
}

// AttemptResult aggregates the latest attempt per (used area, user).
type AttemptResult struct {
	OutcomeID uint     `json:"outcomeid" yaml:"outcomeid"`
	Attempts  int      `json:"attempts" yaml:"attempts"`
	Users     int      `json:"users" yaml:"users"`
	Raw       float64  `json:"raw" yaml:"raw"`
	Possible  float64  `json:"possible" yaml:"possible"`
	Percent   *float64 `json:"percent,omitempty" yaml:"percent,omitempty"`
}

// CoverageResult counts mapped content by kind. Questions are delivered
// ones; UnusedQuestions are mapped in the bank but attached to no module
// of the course.
type CoverageResult struct {
	OutcomeID       uint `json:"outcomeid" yaml:"outcomeid"`
	Resources       int  `json:"resources" yaml:"resources"`
	Activities      int  `json:"activities" yaml:"activities"`
	Questions       int  `json:"questions" yaml:"questions"`
	UnusedQuestions int  `json:"unused_questions" yaml:"unused_questions"`
}

func (c CoverageResult) Covered() bool {
	return c.Resources+c.Activities+c.Questions > 0
}

type CourseReportRow struct {
	OutcomeID   uint             `json:"outcomeid" yaml:"outcomeid"`
	ParentID    uint             `json:"parentid,omitempty" yaml:"parentid,omitempty"`
	IDNumber    string           `json:"idnumber" yaml:"idnumber"`
	Description string           `json:"description" yaml:"description"`
	Assessable  bool             `json:"assessable" yaml:"assessable"`
	Completion  CompletionResult `json:"completion" yaml:"completion"`
	Grade       GradeResult      `json:"grade" yaml:"grade"`
	Attempts    AttemptResult    `json:"attempts" yaml:"attempts"`
	Coverage    CoverageResult   `json:"coverage" yaml:"coverage"`
}

type CourseReport struct {
	CourseID uint              `json:"courseid" yaml:"courseid"`
	SetID    uint              `json:"setid" yaml:"setid"`
	GroupID  uint              `json:"groupid,omitempty" yaml:"groupid,omitempty"`
	Users    int               `json:"users" yaml:"users"`
	Rows     []CourseReportRow `json:"rows" yaml:"rows"`
}

type UserReportRow struct {
	OutcomeID   uint          `json:"outcomeid" yaml:"outcomeid"`
	IDNumber    string        `json:"idnumber" yaml:"idnumber"`
	Description string        `json:"description" yaml:"description"`
	Mark        string        `json:"mark,omitempty" yaml:"mark,omitempty"`
	Awarded     bool          `json:"awarded" yaml:"awarded"`
	ScaleGrade  string        `json:"scale_grade,omitempty" yaml:"scale_grade,omitempty"`
	Attempts    AttemptResult `json:"attempts" yaml:"attempts"`
}

type UserReport struct {
	CourseID uint            `json:"courseid" yaml:"courseid"`
	SetID    uint            `json:"setid" yaml:"setid"`
	UserID   uint            `json:"userid" yaml:"userid"`
	Rows     []UserReportRow `json:"rows" yaml:"rows"`
}
