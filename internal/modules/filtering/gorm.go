package filtering

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// columns lists the outcome columns ColumnEq may reference.
var columns = map[string]bool{
	"id":           true,
	"outcomesetid": true,
	"parentid":     true,
	"assessable":   true,
	"deleted":      true,
}

// ApplyGorm narrows a query over the outcome table to the compiled filter.
// Values are always bound, never spliced into SQL. A malformed expression is
// added to the returned handle's Error.
func ApplyGorm(db *gorm.DB, c Compiled) *gorm.DB {
	q := db.Where("outcome.outcomesetid = ?", c.SetID)
	if c.OnlyMappable {
		q = q.Where("outcome.assessable = ? AND outcome.deleted = ?", true, false)
	}
	if c.Expr == nil {
		return q
	}
	for _, j := range c.Joins {
		q = q.Joins(fmt.Sprintf("LEFT JOIN outcome_metadata %s ON %s.outcomeid = outcome.id AND %s.name = ?", j.Alias, j.Alias, j.Alias), j.Facet)
	}
	sql, vars, err := toSQL(c.Expr)
	if err != nil {
		_ = q.AddError(err)
		return q
	}
	q = q.Where(clause.Expr{SQL: sql, Vars: vars})
	if c.NeedsGroupBy {
		q = q.Group("outcome.id")
	}
	return q
}

// Scope adapts ApplyGorm for gorm's Scopes.
func Scope(c Compiled) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return ApplyGorm(db, c) }
}

func toSQL(n Node) (string, []any, error) {
	switch v := n.(type) {
	case FacetEq:
		if !knownFacet(v.Facet) {
			return "", nil, malformed(fmt.Sprintf("unknown facet %q", v.Facet))
		}
		return alias(v.Facet) + ".value = ?", []any{v.Value}, nil
	case ColumnEq:
		if !columns[v.Column] {
			return "", nil, malformed(fmt.Sprintf("unknown column %q", v.Column))
		}
		return "outcome." + v.Column + " = ?", []any{v.Value}, nil
	case And:
		return group(" AND ", v)
	case Or:
		return group(" OR ", v)
	case nil:
		return "", nil, malformed("nil node inside expression")
	}
	return "", nil, malformed(fmt.Sprintf("unsupported node %T", n))
}

func group(sep string, nodes []Node) (string, []any, error) {
	if len(nodes) == 0 {
		return "", nil, malformed("empty group")
	}
	parts := make([]string, 0, len(nodes))
	var vars []any
	for _, c := range nodes {
		s, v, err := toSQL(c)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, s)
		vars = append(vars, v...)
	}
	return "(" + strings.Join(parts, sep) + ")", vars, nil
}
