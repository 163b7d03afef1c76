package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/outcomes-backend/internal/data/repos"
	types "github.com/yungbote/outcomes-backend/internal/domain"
	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
	"github.com/yungbote/outcomes-backend/internal/modules/taxonomy"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
)

type TaxonomyAggregateDeps struct {
	Base BaseDeps

	Outcomes repos.OutcomeRepo
	Sets     repos.OutcomeSetRepo
}

type taxonomyAggregate struct {
	deps TaxonomyAggregateDeps
}

func NewTaxonomyAggregate(deps TaxonomyAggregateDeps) domainagg.TaxonomyAggregate {
	deps.Base = deps.Base.withDefaults()
	return &taxonomyAggregate{deps: deps}
}

func (a *taxonomyAggregate) Contract() domainagg.Contract {
	return domainagg.TaxonomyAggregateContract
}

func (a *taxonomyAggregate) configured(op string) error {
	if a.deps.Outcomes == nil || a.deps.Sets == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "taxonomy aggregate repos not configured", nil)
	}
	return nil
}

func (a *taxonomyAggregate) now() int64 { return a.deps.Base.Now().Unix() }

func (a *taxonomyAggregate) SaveOutcome(ctx context.Context, o *types.Outcome) (*types.Outcome, error) {
	const op = "Outcomes.Taxonomy.SaveOutcome"
	if err := a.configured(op); err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domainagg.NewValidationError(op, domainagg.FieldError{Field: "outcome", Message: "required"})
	}
	normalizeOutcome(o)
	fields, err := outcomeFieldErrors("", o)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, domainagg.NewValidationError(op, fields...)
	}

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		set, err := a.deps.Sets.GetByID(dbc, o.OutcomeSetID)
		if err != nil {
			return err
		}
		if set == nil {
			return domainagg.NewValidationError(op, domainagg.FieldError{Field: "outcomesetid", Message: "unknown outcome set"})
		}
		if o.ID != 0 {
			existing, err := a.deps.Outcomes.GetByID(dbc, o.ID)
			if err != nil {
				return err
			}
			if err := RequireFound(op, existing != nil, "outcome", o.ID); err != nil {
				return err
			}
		}

		var fields []domainagg.FieldError
		taken, err := a.deps.Outcomes.IDNumberExists(dbc, o.IDNumber, o.ID)
		if err != nil {
			return err
		}
		if taken {
			fields = append(fields, domainagg.FieldError{Field: "idnumber", Message: "already in use"})
		}
		if o.HasParent() {
			parentField, err := a.checkParent(dbc, o)
			if err != nil {
				return err
			}
			if parentField != nil {
				fields = append(fields, *parentField)
			}
		}
		if len(fields) > 0 {
			return domainagg.NewValidationError(op, fields...)
		}
		_, err = a.deps.Outcomes.Save(dbc, o, a.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	a.deps.Base.dropAllReports(ctx, op)
	return o, nil
}

// checkParent verifies the parent exists in the same set and that the new
// edge keeps the set a forest.
func (a *taxonomyAggregate) checkParent(dbc dbctx.Context, o *types.Outcome) (*domainagg.FieldError, error) {
	parent, err := a.deps.Outcomes.GetByID(dbc, o.ParentKey())
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return &domainagg.FieldError{Field: "parentid", Message: "unknown parent"}, nil
	}
	if parent.OutcomeSetID != o.OutcomeSetID {
		return &domainagg.FieldError{Field: "parentid", Message: "parent belongs to another outcome set"}, nil
	}
	if o.ID == 0 {
		return nil, nil
	}
	all, err := a.deps.Outcomes.ListBySet(dbc, o.OutcomeSetID, true)
	if err != nil {
		return nil, err
	}
	candidate := make([]*types.Outcome, 0, len(all)+1)
	for _, x := range all {
		if x.ID == o.ID {
			continue
		}
		candidate = append(candidate, x)
	}
	candidate = append(candidate, o)
	if taxonomy.NewForest(candidate).WouldCycle(o.ID, o.ParentKey()) {
		return &domainagg.FieldError{Field: "parentid", Message: "would create a cycle"}, nil
	}
	return nil, nil
}

func (a *taxonomyAggregate) SaveOutcomeSet(ctx context.Context, set *types.OutcomeSet) (*types.OutcomeSet, error) {
	const op = "Outcomes.Taxonomy.SaveOutcomeSet"
	if err := a.configured(op); err != nil {
		return nil, err
	}
	if set == nil {
		return nil, domainagg.NewValidationError(op, domainagg.FieldError{Field: "outcomeset", Message: "required"})
	}
	normalizeSet(set)
	fields, err := structFieldErrors("", set)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, domainagg.NewValidationError(op, fields...)
	}
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		return a.saveSet(dbc, op, set)
	})
	if err != nil {
		return nil, err
	}
	a.deps.Base.dropAllReports(ctx, op)
	return set, nil
}

func (a *taxonomyAggregate) saveSet(dbc dbctx.Context, op string, set *types.OutcomeSet) error {
	if set.ID != 0 {
		existing, err := a.deps.Sets.GetByID(dbc, set.ID)
		if err != nil {
			return err
		}
		if err := RequireFound(op, existing != nil, "outcome set", set.ID); err != nil {
			return err
		}
	}
	taken, err := a.deps.Sets.IDNumberExists(dbc, set.IDNumber, set.ID)
	if err != nil {
		return err
	}
	if taken {
		return domainagg.NewValidationError(op, domainagg.FieldError{Field: "idnumber", Message: "already in use"})
	}
	_, err = a.deps.Sets.Save(dbc, set, a.now())
	return err
}

func (a *taxonomyAggregate) RemoveOutcomeSet(ctx context.Context, setID uint) error {
	return a.setDeleted(ctx, "Outcomes.Taxonomy.RemoveOutcomeSet", setID, true)
}

func (a *taxonomyAggregate) RestoreOutcomeSet(ctx context.Context, setID uint) error {
	return a.setDeleted(ctx, "Outcomes.Taxonomy.RestoreOutcomeSet", setID, false)
}

func (a *taxonomyAggregate) setDeleted(ctx context.Context, op string, setID uint, deleted bool) error {
	if err := a.configured(op); err != nil {
		return err
	}
	if setID == 0 {
		return domainagg.NewValidationError(op, domainagg.FieldError{Field: "id", Message: "required"})
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		set, err := a.deps.Sets.GetByID(dbc, setID)
		if err != nil {
			return err
		}
		if err := RequireFound(op, set != nil, "outcome set", setID); err != nil {
			return err
		}
		if set.Deleted == deleted {
			return nil
		}
		return a.deps.Sets.SetDeleted(dbc, setID, deleted, a.now())
	})
	if err != nil {
		return err
	}
	a.deps.Base.dropAllReports(ctx, op)
	return nil
}

func (a *taxonomyAggregate) SaveOutcomeSetBatch(ctx context.Context, in domainagg.SaveOutcomeSetBatchInput) (domainagg.SaveOutcomeSetBatchResult, error) {
	const op = "Outcomes.Taxonomy.SaveOutcomeSetBatch"
	var out domainagg.SaveOutcomeSetBatchResult
	if err := a.configured(op); err != nil {
		return out, err
	}
	if in.Set == nil {
		return out, domainagg.NewValidationError(op, domainagg.FieldError{Field: "outcomeset", Message: "required"})
	}
	normalizeSet(in.Set)
	fields, err := structFieldErrors("", in.Set)
	if err != nil {
		return out, err
	}
	seen := map[string]int{}
	for i, d := range in.Outcomes {
		idn := strings.TrimSpace(d.IDNumber)
		switch {
		case idn == "":
			fields = append(fields, domainagg.FieldError{Field: fmt.Sprintf("outcomes[%d].idnumber", i), Message: "required"})
		case seen[idn] > 0:
			fields = append(fields, domainagg.FieldError{
				Field:   fmt.Sprintf("outcomes[%d].idnumber", i),
				Message: fmt.Sprintf("duplicates outcomes[%d]", seen[idn]-1),
			})
		default:
			seen[idn] = i + 1
		}
	}
	if len(fields) > 0 {
		return out, domainagg.NewValidationError(op, fields...)
	}

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.saveSet(dbc, op, in.Set); err != nil {
			return err
		}
		existing, err := a.deps.Outcomes.ListBySet(dbc, in.Set.ID, true)
		if err != nil {
			return err
		}
		byIDNumber := make(map[string]*types.Outcome, len(existing)+len(in.Outcomes))
		maxSort := -1
		for _, o := range existing {
			byIDNumber[o.IDNumber] = o
			if o.SortOrder > maxSort {
				maxSort = o.SortOrder
			}
		}

		// Pass 1: merge drafts onto stored or new outcomes and save them.
		batch := make([]*types.Outcome, 0, len(in.Outcomes))
		var fresh []*types.Outcome
		var fields []domainagg.FieldError
		for i, d := range in.Outcomes {
			idn := strings.TrimSpace(d.IDNumber)
			target := byIDNumber[idn]
			if target == nil {
				other, err := a.deps.Outcomes.GetByIDNumber(dbc, idn)
				if err != nil {
					return err
				}
				if other != nil {
					fields = append(fields, domainagg.FieldError{
						Field:   fmt.Sprintf("outcomes[%d].idnumber", i),
						Message: "already in use by another outcome set",
					})
					continue
				}
				maxSort++
				target = &types.Outcome{OutcomeSetID: in.Set.ID, Assessable: true, SortOrder: maxSort}
				fresh = append(fresh, target)
				out.Created++
			} else {
				out.Updated++
			}
			taxonomy.MergeOutcomeFields(target, d)
			normalizeOutcome(target)
			fe, err := outcomeFieldErrors(fmt.Sprintf("outcomes[%d].", i), target)
			if err != nil {
				return err
			}
			if len(fe) > 0 {
				fields = append(fields, fe...)
				continue
			}
			byIDNumber[idn] = target
			batch = append(batch, target)
		}
		if len(fields) > 0 {
			return domainagg.NewValidationError(op, fields...)
		}
		for _, o := range batch {
			if _, err := a.deps.Outcomes.Save(dbc, o, a.now()); err != nil {
				return err
			}
		}

		// Pass 2: resolve parents by idnumber now that every outcome has an id.
		for i, d := range in.Outcomes {
			o := batch[i]
			pidn := strings.TrimSpace(d.ParentIDNumber)
			if pidn == "" {
				o.ParentID = nil
				continue
			}
			parent := byIDNumber[pidn]
			if parent == nil {
				fields = append(fields, domainagg.FieldError{
					Field:   fmt.Sprintf("outcomes[%d].parentidnumber", i),
					Message: "unknown parent " + pidn,
				})
				continue
			}
			pid := parent.ID
			o.ParentID = &pid
		}
		if len(fields) > 0 {
			return domainagg.NewValidationError(op, fields...)
		}
		all := append(append(make([]*types.Outcome, 0, len(existing)+len(fresh)), existing...), fresh...)
		if issues := taxonomy.ValidateForest(all); len(issues) > 0 {
			fe := make([]domainagg.FieldError, 0, len(issues))
			for _, is := range issues {
				fe = append(fe, domainagg.FieldError{Field: fmt.Sprintf("outcome[%d].parentid", is.OutcomeID), Message: string(is.Kind)})
			}
			return domainagg.NewValidationError(op, fe...)
		}
		for _, o := range batch {
			if err := a.deps.Outcomes.UpdateParent(dbc, o.ID, o.ParentID, a.now()); err != nil {
				return err
			}
		}

		changed, err := a.repair(dbc, in.Set.ID)
		if err != nil {
			return err
		}
		out.Resorted = len(changed)
		out.Set = in.Set
		out.Outcomes = batch
		return nil
	})
	if err != nil {
		return domainagg.SaveOutcomeSetBatchResult{}, err
	}
	a.deps.Base.dropAllReports(ctx, op)
	return out, nil
}

func (a *taxonomyAggregate) RepairSortOrder(ctx context.Context, setID uint) (domainagg.RepairSortOrderResult, error) {
	const op = "Outcomes.Taxonomy.RepairSortOrder"
	out := domainagg.RepairSortOrderResult{SetID: setID}
	if err := a.configured(op); err != nil {
		return out, err
	}
	if setID == 0 {
		return out, domainagg.NewValidationError(op, domainagg.FieldError{Field: "setid", Message: "required"})
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		set, err := a.deps.Sets.GetByID(dbc, setID)
		if err != nil {
			return err
		}
		if err := RequireFound(op, set != nil, "outcome set", setID); err != nil {
			return err
		}
		changed, err := a.repair(dbc, setID)
		if err != nil {
			return err
		}
		out.Changed = changed
		return nil
	})
	if err != nil {
		return domainagg.RepairSortOrderResult{SetID: setID}, err
	}
	if len(out.Changed) > 0 {
		a.deps.Base.dropAllReports(ctx, op)
	}
	return out, nil
}

// repair renumbers the set in fetch order and writes only changed rows.
func (a *taxonomyAggregate) repair(dbc dbctx.Context, setID uint) ([]uint, error) {
	all, err := a.deps.Outcomes.ListBySet(dbc, setID, true)
	if err != nil {
		return nil, err
	}
	changed := taxonomy.RepairSortOrder(all)
	ids := make([]uint, 0, len(changed))
	for _, o := range changed {
		if err := a.deps.Outcomes.UpdateSortOrder(dbc, o.ID, o.SortOrder, a.now()); err != nil {
			return nil, err
		}
		ids = append(ids, o.ID)
	}
	return ids, nil
}

func normalizeOutcome(o *types.Outcome) {
	o.IDNumber = strings.TrimSpace(o.IDNumber)
	o.DocNum = strings.TrimSpace(o.DocNum)
	if strings.TrimSpace(o.Description) == "" {
		o.Description = ""
	}
	if o.ParentID != nil && *o.ParentID == 0 {
		o.ParentID = nil
	}
}

func normalizeSet(s *types.OutcomeSet) {
	s.IDNumber = strings.TrimSpace(s.IDNumber)
	s.Name = strings.TrimSpace(s.Name)
	s.Provider = strings.TrimSpace(s.Provider)
	s.Region = strings.TrimSpace(s.Region)
}

func outcomeFieldErrors(prefix string, o *types.Outcome) ([]domainagg.FieldError, error) {
	fields, err := structFieldErrors(prefix, o)
	if err != nil {
		return nil, err
	}
	if o.OutcomeSetID == 0 {
		fields = append(fields, domainagg.FieldError{Field: prefix + "outcomesetid", Message: "required"})
	}
	if o.ID != 0 && o.ParentKey() == o.ID {
		fields = append(fields, domainagg.FieldError{Field: prefix + "parentid", Message: "cannot be its own parent"})
	}
	return fields, nil
}
