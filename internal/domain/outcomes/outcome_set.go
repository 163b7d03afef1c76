package outcomes

// OutcomeSet groups outcomes, e.g. one standards document. Sets are soft
// deleted through the Deleted flag and never physically removed.
type OutcomeSet struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	IDNumber     string `gorm:"column:idnumber;size:255;not null;uniqueIndex:idx_outcome_sets_idnumber" json:"idnumber" validate:"required,max=255"`
	Name         string `gorm:"column:name;size:255;not null" json:"name" validate:"required,max=255"`
	Description  string `gorm:"column:description;type:text" json:"description"`
	Provider     string `gorm:"column:provider;size:255" json:"provider"`
	Region       string `gorm:"column:region;size:255" json:"region"`
	Deleted      bool   `gorm:"column:deleted;not null;default:false" json:"deleted"`
	TimeCreated  int64  `gorm:"column:timecreated;not null" json:"timecreated"`
	TimeModified int64  `gorm:"column:timemodified;not null" json:"timemodified"`
}

func (OutcomeSet) TableName() string { return "outcome_sets" }
