package filtering

import (
	"fmt"
	"strings"
)

// Node is a boolean expression over one outcome. A nil Node matches everything.
type Node interface {
	node()
	String() string
}

// FacetEq holds when the outcome carries Value for the named facet.
type FacetEq struct {
	Facet string
	Value string
}

// ColumnEq compares a column of the outcome row.
type ColumnEq struct {
	Column string
	Value  any
}

type And []Node

type Or []Node

func (FacetEq) node()  {}
func (ColumnEq) node() {}
func (And) node()      {}
func (Or) node()       {}

func (n FacetEq) String() string  { return fmt.Sprintf("%s=%q", n.Facet, n.Value) }
func (n ColumnEq) String() string { return fmt.Sprintf("%s=%v", n.Column, n.Value) }
func (n And) String() string      { return join(" AND ", n) }
func (n Or) String() string       { return join(" OR ", n) }

func join(sep string, nodes []Node) string {
	parts := make([]string, 0, len(nodes))
	for _, c := range nodes {
		parts = append(parts, c.String())
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Facets returns the facet names referenced below n, in first-seen order.
func Facets(n Node) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case FacetEq:
			if !seen[v.Facet] {
				seen[v.Facet] = true
				out = append(out, v.Facet)
			}
		case And:
			for _, c := range v {
				walk(c)
			}
		case Or:
			for _, c := range v {
				walk(c)
			}
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}
