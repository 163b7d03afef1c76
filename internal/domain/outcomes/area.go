package outcomes

const (
	// AreaMod marks content that is a course module (activity or resource).
	AreaMod = "mod"
	// AreaQuestion marks question bank items.
	AreaQuestion = "qtype"
)

// Area is one mappable piece of content identified by (component, area, itemid).
type Area struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Component string `gorm:"column:component;size:100;not null;uniqueIndex:idx_outcome_areas_key,priority:1" json:"component"`
	Area      string `gorm:"column:area;size:100;not null;uniqueIndex:idx_outcome_areas_key,priority:2" json:"area"`
	ItemID    uint   `gorm:"column:itemid;not null;uniqueIndex:idx_outcome_areas_key,priority:3" json:"itemid"`
}

func (Area) TableName() string { return "outcome_areas" }

// Key identifies an area before it has been persisted.
type AreaKey struct {
	Component string
	Area      string
	ItemID    uint
}

func (a *Area) Key() AreaKey {
	return AreaKey{Component: a.Component, Area: a.Area, ItemID: a.ItemID}
}

// AreaOutcome links an area to an outcome.
type AreaOutcome struct {
	ID            uint `gorm:"primaryKey;autoIncrement" json:"id"`
	OutcomeID     uint `gorm:"column:outcomeid;not null;uniqueIndex:idx_outcome_area_outcomes_pair,priority:1" json:"outcomeid"`
	OutcomeAreaID uint `gorm:"column:outcomeareaid;not null;uniqueIndex:idx_outcome_area_outcomes_pair,priority:2;index" json:"outcomeareaid"`
}

func (AreaOutcome) TableName() string { return "outcome_area_outcomes" }

// UsedArea binds an area to one concrete activity instance.
type UsedArea struct {
	ID            uint `gorm:"primaryKey;autoIncrement" json:"id"`
	OutcomeAreaID uint `gorm:"column:outcomeareaid;not null;uniqueIndex:idx_outcome_used_areas_pair,priority:1" json:"outcomeareaid"`
	CMID          uint `gorm:"column:cmid;not null;uniqueIndex:idx_outcome_used_areas_pair,priority:2;index" json:"cmid"`
}

func (UsedArea) TableName() string { return "outcome_used_areas" }

// OutcomeUsage is a read model joining an outcome to a used area and its area.
type OutcomeUsage struct {
	OutcomeID  uint   `gorm:"column:outcomeid" json:"outcomeid"`
	AreaID     uint   `gorm:"column:areaid" json:"areaid"`
	Component  string `gorm:"column:component" json:"component"`
	Area       string `gorm:"column:area" json:"area"`
	ItemID     uint   `gorm:"column:itemid" json:"itemid"`
	UsedAreaID *uint  `gorm:"column:usedareaid" json:"usedareaid,omitempty"`
	CMID       *uint  `gorm:"column:cmid" json:"cmid,omitempty"`
}

// IsUsed reports whether the mapped area is attached to a course module.
func (u OutcomeUsage) IsUsed() bool {
	return u.UsedAreaID != nil && *u.UsedAreaID != 0
}
