package outcomes

// Award records that a user has earned an outcome at least once, in any course.
type Award struct {
	ID          uint  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint  `gorm:"column:userid;not null;uniqueIndex:idx_outcome_awards_key,priority:1" json:"userid"`
	OutcomeID   uint  `gorm:"column:outcomeid;not null;uniqueIndex:idx_outcome_awards_key,priority:2" json:"outcomeid"`
	TimeCreated int64 `gorm:"column:timecreated;not null" json:"timecreated"`
}

func (Award) TableName() string { return "outcome_awards" }
