package reporting

import (
	"context"
	"sort"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
)

// usageIndex holds the mapping rows of a set of outcomes together with the
// course modules of one course they are attached to.
type usageIndex struct {
	byOutcome map[uint][]types.OutcomeUsage
	modules   map[uint]CourseModule
}

func (s Service) loadUsages(ctx context.Context, courseID uint, outcomeIDs []uint) (*usageIndex, error) {
	idx := &usageIndex{
		byOutcome: map[uint][]types.OutcomeUsage{},
		modules:   map[uint]CourseModule{},
	}
	if len(outcomeIDs) == 0 {
		return idx, nil
	}
	rows, err := s.deps.UsedAreas.ListUsages(dbctx.Context{Ctx: ctx}, outcomeIDs)
	if err != nil {
		return nil, err
	}
	var cmids []uint
	seen := map[uint]bool{}
	for _, u := range rows {
		idx.byOutcome[u.OutcomeID] = append(idx.byOutcome[u.OutcomeID], u)
		if u.IsUsed() && u.CMID != nil && !seen[*u.CMID] {
			seen[*u.CMID] = true
			cmids = append(cmids, *u.CMID)
		}
	}
	if len(cmids) == 0 {
		return idx, nil
	}
	mods, err := s.deps.Modules.CourseModules(ctx, courseID, cmids)
	if err != nil {
		return nil, err
	}
	for _, m := range mods {
		if m.CourseID == courseID {
			idx.modules[m.ID] = m
		}
	}
	return idx, nil
}

// inCourse returns the used rows of an outcome whose module belongs to the course.
func (idx *usageIndex) inCourse(outcomeID uint) []types.OutcomeUsage {
	var out []types.OutcomeUsage
	for _, u := range idx.byOutcome[outcomeID] {
		if !u.IsUsed() || u.CMID == nil {
			continue
		}
		if _, ok := idx.modules[*u.CMID]; ok {
			out = append(out, u)
		}
	}
	return out
}

// modAreas returns the distinct course modules behind the outcome's "mod" areas.
func (idx *usageIndex) modAreas(outcomeID uint) []CourseModule {
	var out []CourseModule
	seen := map[uint]bool{}
	for _, u := range idx.inCourse(outcomeID) {
		if u.Area != types.AreaMod || seen[*u.CMID] {
			continue
		}
		seen[*u.CMID] = true
		out = append(out, idx.modules[*u.CMID])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (idx *usageIndex) coverage(outcomeID uint) CoverageResult {
	res := CoverageResult{OutcomeID: outcomeID}
	usedQuestions := map[uint]bool{}
	bankQuestions := map[uint]bool{}
	resources := map[uint]bool{}
	activities := map[uint]bool{}
	for _, u := range idx.byOutcome[outcomeID] {
		var mod *CourseModule
		if u.IsUsed() && u.CMID != nil {
			if m, ok := idx.modules[*u.CMID]; ok {
				mod = &m
			}
		}
		if u.Area == types.AreaQuestion {
			if mod != nil {
				usedQuestions[u.AreaID] = true
			} else {
				bankQuestions[u.AreaID] = true
			}
			continue
		}
		if mod == nil {
			continue
		}
		if mod.Archetype == ArchetypeResource {
			resources[mod.ID] = true
		} else {
			activities[mod.ID] = true
		}
	}
	for id := range bankQuestions {
		if !usedQuestions[id] {
			res.UnusedQuestions++
		}
	}
	res.Questions = len(usedQuestions)
	res.Resources = len(resources)
	res.Activities = len(activities)
	return res
}

func (s Service) completion(ctx context.Context, idx *usageIndex, outcomeID uint, users []uint) (CompletionResult, error) {
	res := CompletionResult{OutcomeID: outcomeID, Users: len(users)}
	var cmids []uint
	for _, m := range idx.modAreas(outcomeID) {
		if m.CompletionEnabled {
			cmids = append(cmids, m.ID)
		}
	}
	res.Activities = len(cmids)
	res.Total = len(cmids) * len(users)
	if res.Total == 0 {
		return res, nil
	}
	states, err := s.deps.Completion.CompletionStates(ctx, cmids, users)
	if err != nil {
		return res, err
	}
	enrolled := set(users)
	tracked := set(cmids)
	type pair struct{ cm, user uint }
	done := map[pair]bool{}
	for _, st := range states {
		if !st.IsComplete() || !enrolled[st.UserID] || !tracked[st.CMID] {
			continue
		}
		done[pair{st.CMID, st.UserID}] = true
	}
	res.Complete = len(done)
	res.Percent = percent(float64(res.Complete), float64(res.Total))
	return res, nil
}

func (s Service) grades(ctx context.Context, courseID uint, idx *usageIndex, outcomeID uint, users []uint) (GradeResult, error) {
	res := GradeResult{OutcomeID: outcomeID}
	mods := idx.modAreas(outcomeID)
	if len(mods) == 0 || len(users) == 0 {
		return res, nil
	}
	cmids := make([]uint, 0, len(mods))
	for _, m := range mods {
		cmids = append(cmids, m.ID)
	}
	items, err := s.deps.Gradebook.GradeItems(ctx, courseID, cmids)
	if err != nil {
		return res, err
	}
	scaleOf := map[uint]*Scale{}
	itemIDs := make([]uint, 0, len(items))
	var shared *Scale
	sameScale := true
	for _, it := range items {
		if it.Scale == nil {
			continue
		}
		scaleOf[it.ID] = it.Scale
		itemIDs = append(itemIDs, it.ID)
		if shared == nil {
			shared = it.Scale
		} else if shared.ID != it.Scale.ID {
			sameScale = false
		}
	}
	res.Items = len(itemIDs)
	if len(itemIDs) == 0 {
		return res, nil
	}
	grades, err := s.deps.Gradebook.FinalGrades(ctx, itemIDs, users)
	if err != nil {
		return res, err
	}
	enrolled := set(users)
	var sum float64
	for _, g := range grades {
		sc := scaleOf[g.ItemID]
		if g.FinalGrade == nil || sc == nil || !enrolled[g.UserID] {
			continue
		}
		sum += *g.FinalGrade
		res.Count++
		if res.Distribution == nil {
			res.Distribution = map[string]int{}
		}
		res.Distribution[sc.Format(*g.FinalGrade)]++
	}
	if res.Count == 0 {
		return res, nil
	}
	avg := sum / float64(res.Count)
	res.Average = &avg
	if sameScale {
		res.Formatted = shared.Format(avg)
	}
	return res, nil
}

// attempts sums the latest attempt per (used area, user) for each outcome.
// An empty users list yields empty results rather than every user.
func (s Service) attempts(ctx context.Context, idx *usageIndex, outcomeIDs []uint, users []uint) (map[uint]AttemptResult, error) {
	out := make(map[uint]AttemptResult, len(outcomeIDs))
	usedByOutcome := map[uint][]uint{}
	var usedIDs []uint
	seen := map[uint]bool{}
	for _, id := range outcomeIDs {
		local := map[uint]bool{}
		for _, u := range idx.inCourse(id) {
			ua := *u.UsedAreaID
			if local[ua] {
				continue
			}
			local[ua] = true
			usedByOutcome[id] = append(usedByOutcome[id], ua)
			if !seen[ua] {
				seen[ua] = true
				usedIDs = append(usedIDs, ua)
			}
		}
	}
	if len(usedIDs) == 0 || len(users) == 0 {
		for _, id := range outcomeIDs {
			out[id] = AttemptResult{OutcomeID: id}
		}
		return out, nil
	}
	latest, err := s.deps.Attempts.LatestByUsedAreas(dbctx.Context{Ctx: ctx}, usedIDs, users)
	if err != nil {
		return nil, err
	}
	byUsed := map[uint][]*types.Attempt{}
	for _, a := range latest {
		byUsed[a.OutcomeUsedAreaID] = append(byUsed[a.OutcomeUsedAreaID], a)
	}
	for _, id := range outcomeIDs {
		res := AttemptResult{OutcomeID: id}
		who := map[uint]bool{}
		for _, ua := range usedByOutcome[id] {
			for _, a := range byUsed[ua] {
				earned, possible := a.Points()
				res.Raw += earned
				res.Possible += possible
				res.Attempts++
				who[a.UserID] = true
			}
		}
		res.Users = len(who)
		res.Percent = percent(res.Raw, res.Possible)
		out[id] = res
	}
	return out, nil
}

func percent(part, whole float64) *float64 {
	if whole <= 0 {
		return nil
	}
	p := part / whole * 100
	return &p
}

func set(ids []uint) map[uint]bool {
	out := make(map[uint]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
