package outcomes

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
)

// FacetPredicate restricts outcomes by facet values. A nil or blank field
// places no restriction on that facet; a predicate with no fields at all is
// a wildcard.
type FacetPredicate struct {
	Edulevels *string `json:"edulevels,omitempty"`
	Subjects  *string `json:"subjects,omitempty"`
}

// Values returns the present, non-blank facet values keyed by facet name.
func (p FacetPredicate) Values() map[string]string {
	out := map[string]string{}
	if p.Edulevels != nil && strings.TrimSpace(*p.Edulevels) != "" {
		out[MetadataEdulevels] = strings.TrimSpace(*p.Edulevels)
	}
	if p.Subjects != nil && strings.TrimSpace(*p.Subjects) != "" {
		out[MetadataSubjects] = strings.TrimSpace(*p.Subjects)
	}
	return out
}

func (p FacetPredicate) IsWildcard() bool { return len(p.Values()) == 0 }

// Filter scopes an outcome set to a course. The predicate list is stored as
// an opaque JSON blob.
type Filter struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseID     uint           `gorm:"column:courseid;not null;uniqueIndex:idx_outcome_used_sets_key,priority:1" json:"courseid"`
	OutcomeSetID uint           `gorm:"column:outcomesetid;not null;uniqueIndex:idx_outcome_used_sets_key,priority:2;index" json:"outcomesetid"`
	Filter       datatypes.JSON `gorm:"column:filter" json:"filter"`
}

func (Filter) TableName() string { return "outcome_used_sets" }

// Predicates decodes the stored blob. An empty blob yields no predicates.
func (f *Filter) Predicates() ([]FacetPredicate, error) {
	if f == nil || len(f.Filter) == 0 {
		return nil, nil
	}
	var out []FacetPredicate
	if err := json.Unmarshal(f.Filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetPredicates encodes predicates into the blob.
func (f *Filter) SetPredicates(preds []FacetPredicate) error {
	if preds == nil {
		preds = []FacetPredicate{}
	}
	raw, err := json.Marshal(preds)
	if err != nil {
		return err
	}
	f.Filter = datatypes.JSON(raw)
	return nil
}
