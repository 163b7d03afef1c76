package filtering

import (
	"errors"
	"fmt"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
)

// ErrMalformed marks ASTs that no lowering can evaluate.
var ErrMalformed = errors.New("malformed filter expression")

// Join is one LEFT JOIN onto outcome_metadata for a facet.
type Join struct {
	Facet string
	Alias string
}

// Compiled is a filter ready to be lowered. Expr restricts facets only; the
// set and mappable restrictions are carried as fields.
type Compiled struct {
	SetID        uint
	OnlyMappable bool
	Expr         Node
	Joins        []Join
	NeedsGroupBy bool
	// Params are the bound values of Expr in SQL order, join names first.
	Params []any
}

// MatchesAll reports whether the filter places no facet restriction.
func (c Compiled) MatchesAll() bool { return c.Expr == nil }

func alias(facet string) string { return "md_" + facet }

func knownFacet(name string) bool {
	for _, n := range types.MetadataNames {
		if n == name {
			return true
		}
	}
	return false
}

// Compile turns facet predicates into an expression: each predicate is the
// AND of its present facets, predicates are OR-ed, and one wildcard
// predicate matches every outcome of the set.
func Compile(preds []types.FacetPredicate, setID uint, onlyMappable bool) (Compiled, error) {
	c := Compiled{SetID: setID, OnlyMappable: onlyMappable}
	if len(preds) == 0 {
		return c, nil
	}
	var alts Or
	for _, p := range preds {
		values := p.Values()
		if len(values) == 0 {
			return Compiled{SetID: setID, OnlyMappable: onlyMappable}, nil
		}
		var conj And
		for _, name := range types.MetadataNames {
			if v, ok := values[name]; ok {
				conj = append(conj, FacetEq{Facet: name, Value: v})
			}
		}
		if len(conj) == 1 {
			alts = append(alts, conj[0])
		} else {
			alts = append(alts, conj)
		}
	}
	if len(alts) == 1 {
		c.Expr = alts[0]
	} else {
		c.Expr = alts
	}
	if err := c.finish(); err != nil {
		return Compiled{}, err
	}
	return c, nil
}

// FromExpr wraps a hand-built expression, validating it the same way Compile does.
func FromExpr(expr Node, setID uint, onlyMappable bool) (Compiled, error) {
	c := Compiled{SetID: setID, OnlyMappable: onlyMappable, Expr: expr}
	if err := c.finish(); err != nil {
		return Compiled{}, err
	}
	return c, nil
}

func (c *Compiled) finish() error {
	c.Joins, c.Params = nil, nil
	if c.Expr == nil {
		c.NeedsGroupBy = false
		return nil
	}
	for _, f := range Facets(c.Expr) {
		if !knownFacet(f) {
			return malformed(fmt.Sprintf("unknown facet %q", f))
		}
		c.Joins = append(c.Joins, Join{Facet: f, Alias: alias(f)})
		c.Params = append(c.Params, f)
	}
	_, vars, err := toSQL(c.Expr)
	if err != nil {
		return err
	}
	c.Params = append(c.Params, vars...)
	c.NeedsGroupBy = len(c.Joins) > 0
	return nil
}

func malformed(msg string) error {
	return domainagg.NewError(domainagg.CodeInternal, "Outcomes.Filter.Compile", msg, ErrMalformed)
}
