package reporting

import (
	"math"
	"strings"
)

// Scale is an ordered list of labels; grade value 1 is the first label.
type Scale struct {
	ID    uint
	Name  string
	Items []string
}

// ParseScale splits a comma separated scale definition.
func ParseScale(id uint, name, def string) *Scale {
	s := &Scale{ID: id, Name: name}
	for _, it := range strings.Split(def, ",") {
		if it = strings.TrimSpace(it); it != "" {
			s.Items = append(s.Items, it)
		}
	}
	return s
}

// Format rounds value to the nearest scale item and returns its label,
// clamped to the ends of the scale.
func (s *Scale) Format(value float64) string {
	if s == nil || len(s.Items) == 0 || math.IsNaN(value) {
		return ""
	}
	i := int(math.Round(value))
	if i < 1 {
		i = 1
	}
	if i > len(s.Items) {
		i = len(s.Items)
	}
	return s.Items[i-1]
}
