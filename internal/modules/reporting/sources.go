package reporting

import "context"

// Archetype classifies a course module for coverage.
type Archetype string

const (
	ArchetypeActivity Archetype = "activity"
	ArchetypeResource Archetype = "resource"
)

// CourseModule is one activity or resource instance in a course.
type CourseModule struct {
	ID                uint
	CourseID          uint
	ModName           string
	Instance          uint
	CompletionEnabled bool
	Archetype         Archetype
}

// Completion states as stored by the completion subsystem.
const (
	CompletionIncomplete   = 0
	CompletionComplete     = 1
	CompletionCompletePass = 2
	CompletionCompleteFail = 3
)

type CompletionState struct {
	CMID   uint
	UserID uint
	State  int
}

// IsComplete reports completion "complete or better".
func (c CompletionState) IsComplete() bool { return c.State >= CompletionComplete }

type GradeItem struct {
	ID       uint
	CourseID uint
	CMID     uint
	// Scale is nil for items not graded on a scale.
	Scale *Scale
}

type Grade struct {
	ItemID     uint
	UserID     uint
	FinalGrade *float64
}

// ModuleCatalog resolves course module ids, keeping only modules of courseID.
type ModuleCatalog interface {
	CourseModules(ctx context.Context, courseID uint, cmids []uint) ([]CourseModule, error)
}

// EnrollmentSource lists the users a course report covers: holders of a
// gradebook role in the course context or an ancestor, without deleted or
// guest accounts, restricted to groupID when it is not zero.
type EnrollmentSource interface {
	EnrolledUsers(ctx context.Context, courseID, groupID uint) ([]uint, error)
}

type CompletionSource interface {
	CompletionStates(ctx context.Context, cmids, userIDs []uint) ([]CompletionState, error)
}

type GradebookSource interface {
	GradeItems(ctx context.Context, courseID uint, cmids []uint) ([]GradeItem, error)
	FinalGrades(ctx context.Context, itemIDs, userIDs []uint) ([]Grade, error)
}
