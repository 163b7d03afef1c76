package aggregates

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/outcomes-backend/internal/data/repos"
	types "github.com/yungbote/outcomes-backend/internal/domain"
	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
)

type MappingAggregateDeps struct {
	Base BaseDeps

	Areas        repos.AreaRepo
	AreaOutcomes repos.AreaOutcomeRepo
	UsedAreas    repos.UsedAreaRepo
	Attempts     repos.AttemptRepo
}

type mappingAggregate struct {
	deps MappingAggregateDeps
}

func NewMappingAggregate(deps MappingAggregateDeps) domainagg.MappingAggregate {
	deps.Base = deps.Base.withDefaults()
	return &mappingAggregate{deps: deps}
}

func (a *mappingAggregate) Contract() domainagg.Contract {
	return domainagg.MappingAggregateContract
}

func (a *mappingAggregate) configured(op string) error {
	if a.deps.Areas == nil || a.deps.AreaOutcomes == nil || a.deps.UsedAreas == nil || a.deps.Attempts == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "mapping aggregate repos not configured", nil)
	}
	return nil
}

func (a *mappingAggregate) SaveAreaOutcomes(ctx context.Context, key types.AreaKey, outcomeIDs []uint) (domainagg.SaveAreaOutcomesResult, error) {
	const op = "Outcomes.Mapping.SaveAreaOutcomes"
	var out domainagg.SaveAreaOutcomesResult
	if err := a.configured(op); err != nil {
		return out, err
	}
	key = normalizeAreaKey(key)
	if err := RequireAreaKey(op, key); err != nil {
		return out, err
	}
	want := uniqueIDs(outcomeIDs)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		area, created, err := a.deps.Areas.GetOrCreate(dbc, key)
		if err != nil {
			return err
		}
		out.AreaID = area.ID
		out.AreaCreated = created

		current, err := a.deps.AreaOutcomes.ListOutcomeIDs(dbc, area.ID)
		if err != nil {
			return err
		}
		have := make(map[uint]bool, len(current))
		for _, id := range current {
			have[id] = true
		}
		missing := make([]uint, 0, len(want))
		for _, id := range want {
			if !have[id] {
				missing = append(missing, id)
			}
		}
		if len(missing) == 0 {
			return nil
		}
		if _, err := a.deps.AreaOutcomes.Insert(dbc, area.ID, missing); err != nil {
			return err
		}
		out.Inserted = missing
		return nil
	})
	if err != nil {
		return domainagg.SaveAreaOutcomesResult{}, err
	}
	if len(out.Inserted) > 0 {
		a.deps.Base.dropAllReports(ctx, op)
	}
	return out, nil
}

func (a *mappingAggregate) RemoveAreaOutcomes(ctx context.Context, key types.AreaKey, outcomeIDs []uint) (domainagg.RemoveAreaOutcomesResult, error) {
	const op = "Outcomes.Mapping.RemoveAreaOutcomes"
	var out domainagg.RemoveAreaOutcomesResult
	if err := a.configured(op); err != nil {
		return out, err
	}
	key = normalizeAreaKey(key)
	if err := RequireAreaKey(op, key); err != nil {
		return out, err
	}
	ids := uniqueIDs(outcomeIDs)
	if len(ids) == 0 {
		return out, nil
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		area, err := a.deps.Areas.Find(dbc, key)
		if err != nil {
			return err
		}
		if area == nil {
			return nil
		}
		out.AreaID = area.ID
		if err := RequireConditions(op, area.ID); err != nil {
			return err
		}
		n, err := a.deps.AreaOutcomes.DeleteByOutcomeIDs(dbc, area.ID, ids)
		if err != nil {
			return err
		}
		out.Removed = n
		left, err := a.deps.AreaOutcomes.Count(dbc, area.ID)
		if err != nil {
			return err
		}
		if left > 0 {
			return nil
		}
		if err := a.deps.Areas.Delete(dbc, area.ID); err != nil {
			return err
		}
		out.AreaDeleted = true
		return nil
	})
	if err != nil {
		return domainagg.RemoveAreaOutcomesResult{}, err
	}
	if out.Removed > 0 || out.AreaDeleted {
		a.deps.Base.dropAllReports(ctx, op)
	}
	return out, nil
}

func (a *mappingAggregate) SetAreaUsed(ctx context.Context, key types.AreaKey, cmid uint) (domainagg.SetAreaUsedResult, error) {
	const op = "Outcomes.Mapping.SetAreaUsed"
	var out domainagg.SetAreaUsedResult
	if err := a.configured(op); err != nil {
		return out, err
	}
	key = normalizeAreaKey(key)
	if err := RequireAreaKey(op, key); err != nil {
		return out, err
	}
	if cmid == 0 {
		return out, domainagg.NewValidationError(op, domainagg.FieldError{Field: "cmid", Message: "required"})
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		area, err := a.deps.Areas.Find(dbc, key)
		if err != nil {
			return err
		}
		if area == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op,
				fmt.Sprintf("area not found: %s/%s/%d", key.Component, key.Area, key.ItemID), nil)
		}
		used, err := a.deps.UsedAreas.Find(dbc, area.ID, cmid)
		if err != nil {
			return err
		}
		if used != nil {
			out.UsedAreaID = used.ID
			return nil
		}
		rows, err := a.deps.UsedAreas.Create(dbc, []*types.UsedArea{{OutcomeAreaID: area.ID, CMID: cmid}})
		if err != nil {
			return err
		}
		out.UsedAreaID = rows[0].ID
		out.Created = true
		return nil
	})
	if err != nil {
		return domainagg.SetAreaUsedResult{}, err
	}
	if out.Created {
		a.deps.Base.dropAllReports(ctx, op)
	}
	return out, nil
}

func (a *mappingAggregate) SetAreasUsed(ctx context.Context, usages []domainagg.AreaUsage) (domainagg.SetAreasUsedResult, error) {
	const op = "Outcomes.Mapping.SetAreasUsed"
	out := domainagg.SetAreasUsedResult{Created: []*types.UsedArea{}}
	if err := a.configured(op); err != nil {
		return out, err
	}
	if len(usages) == 0 {
		return out, nil
	}
	var fields []domainagg.FieldError
	keys := make([]types.AreaKey, 0, len(usages))
	for i := range usages {
		usages[i].Area = normalizeAreaKey(usages[i].Area)
		if err := RequireAreaKey(op, usages[i].Area); err != nil {
			for _, fe := range domainagg.FieldsOf(err) {
				fields = append(fields, domainagg.FieldError{Field: fmt.Sprintf("usages[%d].%s", i, fe.Field), Message: fe.Message})
			}
		}
		if usages[i].CMID == 0 {
			fields = append(fields, domainagg.FieldError{Field: fmt.Sprintf("usages[%d].cmid", i), Message: "required"})
		}
		keys = append(keys, usages[i].Area)
	}
	if len(fields) > 0 {
		return out, domainagg.NewValidationError(op, fields...)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		areas, err := a.deps.Areas.FindMany(dbc, keys)
		if err != nil {
			return err
		}
		byKey := make(map[types.AreaKey]*types.Area, len(areas))
		areaIDs := make([]uint, 0, len(areas))
		for _, ar := range areas {
			byKey[ar.Key()] = ar
			areaIDs = append(areaIDs, ar.ID)
		}
		existing, err := a.deps.UsedAreas.ListPairs(dbc, areaIDs)
		if err != nil {
			return err
		}
		type pair struct{ area, cmid uint }
		have := make(map[pair]bool, len(existing))
		for _, u := range existing {
			have[pair{u.OutcomeAreaID, u.CMID}] = true
		}

		var missing []*types.UsedArea
		queued := map[pair]bool{}
		for _, u := range usages {
			ar := byKey[u.Area]
			if ar == nil {
				return domainagg.NewError(domainagg.CodeNotFound, op,
					fmt.Sprintf("area not found: %s/%s/%d", u.Area.Component, u.Area.Area, u.Area.ItemID), nil)
			}
			p := pair{ar.ID, u.CMID}
			if queued[p] {
				continue
			}
			queued[p] = true
			if have[p] {
				out.Existing++
				continue
			}
			missing = append(missing, &types.UsedArea{OutcomeAreaID: ar.ID, CMID: u.CMID})
		}
		created, err := a.deps.UsedAreas.Create(dbc, missing)
		if err != nil {
			return err
		}
		out.Created = created
		return nil
	})
	if err != nil {
		return domainagg.SetAreasUsedResult{Created: []*types.UsedArea{}}, err
	}
	if len(out.Created) > 0 {
		a.deps.Base.dropAllReports(ctx, op)
	}
	return out, nil
}

func (a *mappingAggregate) DeleteArea(ctx context.Context, key types.AreaKey) (bool, error) {
	const op = "Outcomes.Mapping.DeleteArea"
	if err := a.configured(op); err != nil {
		return false, err
	}
	key = normalizeAreaKey(key)
	if err := RequireAreaKey(op, key); err != nil {
		return false, err
	}
	deleted := false
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		area, err := a.deps.Areas.Find(dbc, key)
		if err != nil {
			return err
		}
		if area == nil {
			return nil
		}
		if err := RequireConditions(op, area.ID); err != nil {
			return err
		}
		if err := a.deps.Areas.Delete(dbc, area.ID); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if deleted {
		a.deps.Base.dropAllReports(ctx, op)
	}
	return deleted, nil
}

func (a *mappingAggregate) SaveAttempt(ctx context.Context, attempt *types.Attempt, dedupe bool) (*types.Attempt, error) {
	const op = "Outcomes.Mapping.SaveAttempt"
	if err := a.configured(op); err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, domainagg.NewValidationError(op, domainagg.FieldError{Field: "attempt", Message: "required"})
	}
	var fields []domainagg.FieldError
	if attempt.OutcomeUsedAreaID == 0 {
		fields = append(fields, domainagg.FieldError{Field: "outcomeusedareaid", Message: "required"})
	}
	if attempt.UserID == 0 {
		fields = append(fields, domainagg.FieldError{Field: "userid", Message: "required"})
	}
	if attempt.MaxGrade < attempt.MinGrade {
		fields = append(fields, domainagg.FieldError{Field: "maxgrade", Message: "must not be below mingrade"})
	}
	if len(fields) > 0 {
		return nil, domainagg.NewValidationError(op, fields...)
	}
	if attempt.PercentGrade == nil {
		if earned, possible := attempt.Points(); possible > 0 {
			pct := earned / possible * 100
			attempt.PercentGrade = &pct
		}
	}
	now := a.deps.Base.Now().Unix()
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		_, err := a.deps.Attempts.Save(dbc, attempt, dedupe, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.deps.Base.dropAllReports(ctx, op)
	return attempt, nil
}

func normalizeAreaKey(k types.AreaKey) types.AreaKey {
	k.Component = strings.TrimSpace(k.Component)
	k.Area = strings.TrimSpace(k.Area)
	return k
}

// uniqueIDs drops zeros and duplicates and sorts ascending.
func uniqueIDs(in []uint) []uint {
	seen := make(map[uint]bool, len(in))
	out := make([]uint, 0, len(in))
	for _, id := range in {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
