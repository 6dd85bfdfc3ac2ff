package analyzer

import "github.com/jamplate/jamplate/internal/tree"

// Query is the matching half of spec.md §4.3's filter combinators:
// is(kind), parent(q), and(...), not(q), plus an escape hatch for
// arbitrary predicates.
type Query interface {
	Match(c *Compilation, node tree.NodeID) bool
}

// QueryFunc adapts a plain function to Query.
type QueryFunc func(c *Compilation, node tree.NodeID) bool

func (f QueryFunc) Match(c *Compilation, node tree.NodeID) bool { return f(c, node) }

// IsKind matches a node whose sketch has exactly this kind. A node
// with no sketch (the root, or any still-unsketched placeholder)
// never matches.
func IsKind(kind string) Query {
	return QueryFunc(func(c *Compilation, node tree.NodeID) bool {
		sk := c.Tree.Sketch(node)
		return sk != nil && sk.Kind == kind
	})
}

// ParentIs matches a node whose parent matches q. The root never
// matches, since it has no parent.
func ParentIs(q Query) Query {
	return QueryFunc(func(c *Compilation, node tree.NodeID) bool {
		if node == c.Tree.Root() {
			return false
		}
		return q.Match(c, c.Tree.Parent(node))
	})
}

// Not inverts q.
func Not(q Query) Query {
	return QueryFunc(func(c *Compilation, node tree.NodeID) bool { return !q.Match(c, node) })
}

// And matches when every one of qs matches (vacuously true for an
// empty list).
func And(qs ...Query) Query {
	return QueryFunc(func(c *Compilation, node tree.NodeID) bool {
		for _, q := range qs {
			if !q.Match(c, node) {
				return false
			}
		}
		return true
	})
}

// Or matches when any one of qs matches (vacuously false for an
// empty list).
func Or(qs ...Query) Query {
	return QueryFunc(func(c *Compilation, node tree.NodeID) bool {
		for _, q := range qs {
			if q.Match(c, node) {
				return true
			}
		}
		return false
	})
}

// Filter runs Inner on node only when Query matches, reporting "no
// change" without error for a non-match. This is how "filter-by-kind"
// / "filter-by-not-parent-kind" / "filter-by-predicate" compose with
// any Analyzer rather than each needing its own wrapper type.
type Filter struct {
	Query Query
	Inner Analyzer
}

func (f *Filter) Analyze(c *Compilation, node tree.NodeID) (bool, error) {
	if !f.Query.Match(c, node) {
		return false, nil
	}
	return f.Inner.Analyze(c, node)
}
