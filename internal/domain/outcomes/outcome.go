package outcomes

// Outcome is one node of a learning-objective hierarchy inside an OutcomeSet.
// Facet values (Edulevels, Subjects) are persisted as OutcomeMetadata rows
// and are replaced wholesale on every save.
type Outcome struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	OutcomeSetID uint   `gorm:"column:outcomesetid;not null;index" json:"outcomesetid"`
	ParentID     *uint  `gorm:"column:parentid;index" json:"parentid,omitempty"`
	IDNumber     string `gorm:"column:idnumber;size:255;not null;uniqueIndex:idx_outcome_idnumber" json:"idnumber" validate:"required,max=255"`
	DocNum       string `gorm:"column:docnum;size:255" json:"docnum"`
	Description  string `gorm:"column:description;type:text;not null" json:"description" validate:"required"`
	Assessable   bool   `gorm:"column:assessable;not null" json:"assessable"`
	Deleted      bool   `gorm:"column:deleted;not null;default:false" json:"deleted"`
	SortOrder    int    `gorm:"column:sortorder;not null;default:0" json:"sortorder"`
	TimeCreated  int64  `gorm:"column:timecreated;not null" json:"timecreated"`
	TimeModified int64  `gorm:"column:timemodified;not null" json:"timemodified"`

	Edulevels []string `gorm:"-" json:"edulevels,omitempty"`
	Subjects  []string `gorm:"-" json:"subjects,omitempty"`
}

func (Outcome) TableName() string { return "outcome" }

// HasParent reports whether the outcome hangs below another outcome.
func (o *Outcome) HasParent() bool {
	return o != nil && o.ParentID != nil && *o.ParentID != 0
}

// ParentKey is the parent id with 0 standing in for the root group.
func (o *Outcome) ParentKey() uint {
	if !o.HasParent() {
		return 0
	}
	return *o.ParentID
}

// FacetValues returns the values held for a facet name.
func (o *Outcome) FacetValues(name string) []string {
	switch name {
	case MetadataEdulevels:
		return o.Edulevels
	case MetadataSubjects:
		return o.Subjects
	}
	return nil
}

const (
	MetadataEdulevels = "edulevels"
	MetadataSubjects  = "subjects"
)

// MetadataNames lists the facets persisted in outcome_metadata.
var MetadataNames = []string{MetadataEdulevels, MetadataSubjects}

// OutcomeMetadata is a single facet value of an outcome.
type OutcomeMetadata struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	OutcomeID uint   `gorm:"column:outcomeid;not null;index:idx_outcome_metadata_lookup,priority:1" json:"outcomeid"`
	Name      string `gorm:"column:name;size:50;not null;index:idx_outcome_metadata_lookup,priority:2" json:"name"`
	Value     string `gorm:"column:value;size:255;not null;index:idx_outcome_metadata_lookup,priority:3" json:"value"`
}

func (OutcomeMetadata) TableName() string { return "outcome_metadata" }
