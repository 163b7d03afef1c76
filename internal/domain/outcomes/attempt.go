package outcomes

// Attempt is one graded interaction of a user against a used area.
type Attempt struct {
	ID                uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	OutcomeUsedAreaID uint     `gorm:"column:outcomeusedareaid;not null;index:idx_outcome_attempts_lookup,priority:1" json:"outcomeusedareaid"`
	UserID            uint     `gorm:"column:userid;not null;index:idx_outcome_attempts_lookup,priority:2" json:"userid"`
	ItemID            uint     `gorm:"column:itemid;not null;default:0" json:"itemid"`
	MinGrade          float64  `gorm:"column:mingrade;not null;default:0" json:"mingrade"`
	MaxGrade          float64  `gorm:"column:maxgrade;not null;default:0" json:"maxgrade"`
	RawGrade          float64  `gorm:"column:rawgrade;not null;default:0" json:"rawgrade"`
	PercentGrade      *float64 `gorm:"column:percentgrade" json:"percentgrade,omitempty"`
	TimeCreated       int64    `gorm:"column:timecreated;not null" json:"timecreated"`
	TimeModified      int64    `gorm:"column:timemodified;not null;index" json:"timemodified"`
}

func (Attempt) TableName() string { return "outcome_attempts" }

// Points returns earned and possible points normalised against the minimum grade.
func (a *Attempt) Points() (earned, possible float64) {
	return a.RawGrade - a.MinGrade, a.MaxGrade - a.MinGrade
}
