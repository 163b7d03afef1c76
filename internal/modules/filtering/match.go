package filtering

import (
	"fmt"

	types "github.com/yungbote/outcomes-backend/internal/domain"
)

// Match evaluates the compiled filter against an outcome whose facets are loaded.
func Match(c Compiled, o *types.Outcome) (bool, error) {
	if o == nil || o.OutcomeSetID != c.SetID {
		return false, nil
	}
	if c.OnlyMappable && (!o.Assessable || o.Deleted) {
		return false, nil
	}
	if c.Expr == nil {
		return true, nil
	}
	return eval(c.Expr, o)
}

// MatchAll returns the outcomes the filter selects, preserving input order.
func MatchAll(c Compiled, outcomes []*types.Outcome) ([]*types.Outcome, error) {
	out := make([]*types.Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		ok, err := Match(c, o)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func eval(n Node, o *types.Outcome) (bool, error) {
	switch v := n.(type) {
	case FacetEq:
		if !knownFacet(v.Facet) {
			return false, malformed(fmt.Sprintf("unknown facet %q", v.Facet))
		}
		for _, x := range o.FacetValues(v.Facet) {
			if x == v.Value {
				return true, nil
			}
		}
		return false, nil
	case ColumnEq:
		return evalColumn(v, o)
	case And:
		if len(v) == 0 {
			return false, malformed("empty group")
		}
		for _, c := range v {
			ok, err := eval(c, o)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case Or:
		if len(v) == 0 {
			return false, malformed("empty group")
		}
		for _, c := range v {
			ok, err := eval(c, o)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return false, malformed(fmt.Sprintf("unsupported node %T", n))
}

func evalColumn(c ColumnEq, o *types.Outcome) (bool, error) {
	switch c.Column {
	case "id":
		return fmt.Sprint(o.ID) == fmt.Sprint(c.Value), nil
	case "outcomesetid":
		return fmt.Sprint(o.OutcomeSetID) == fmt.Sprint(c.Value), nil
	case "parentid":
		return fmt.Sprint(o.ParentKey()) == fmt.Sprint(c.Value), nil
	case "assessable":
		b, ok := c.Value.(bool)
		return ok && b == o.Assessable, nil
	case "deleted":
		b, ok := c.Value.(bool)
		return ok && b == o.Deleted, nil
	}
	return false, malformed(fmt.Sprintf("unknown column %q", c.Column))
}
