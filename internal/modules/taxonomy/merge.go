package taxonomy

import (
	"strings"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
)

// MergeOutcomeFields applies a draft onto base and returns base.
//
// Precedence, highest first:
//   - description: RawDescription, then Description, then the stored value
//   - every other scalar: the draft value when non-nil (non-blank for IDNumber)
//   - facets: a non-nil draft slice replaces the stored slice, an empty one clears it
//
// ParentIDNumber is not resolved here; the caller maps it to a parent id.
func MergeOutcomeFields(base *types.Outcome, d domainagg.OutcomeDraft) *types.Outcome {
	if base == nil {
		base = &types.Outcome{Assessable: true}
	}
	if v := strings.TrimSpace(d.IDNumber); v != "" {
		base.IDNumber = v
	}
	switch {
	case d.RawDescription != nil:
		base.Description = *d.RawDescription
	case d.Description != nil:
		base.Description = *d.Description
	}
	if d.DocNum != nil {
		base.DocNum = strings.TrimSpace(*d.DocNum)
	}
	if d.Assessable != nil {
		base.Assessable = *d.Assessable
	}
	if d.Deleted != nil {
		base.Deleted = *d.Deleted
	}
	if d.Edulevels != nil {
		base.Edulevels = cleanValues(d.Edulevels)
	}
	if d.Subjects != nil {
		base.Subjects = cleanValues(d.Subjects)
	}
	return base
}

func cleanValues(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
