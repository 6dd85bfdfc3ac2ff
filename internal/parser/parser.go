// Package parser implements spec.md §4.2's pattern-driven parsing
// framework: a Parser maps (compilation, tree) to a set of new
// sub-trees to offer, run to a fixed point by the caller.
package parser

import (
	"unicode/utf8"

	"github.com/jamplate/jamplate/internal/errs"
	"github.com/jamplate/jamplate/internal/tree"
)

// Compilation is the per-document state a Parser operates over: the
// overlay tree being grown. It is deliberately minimal — spec.md's
// registry/spec-bundle collaborator contract (internal/spec) decides
// which parsers run over it, this package only drives them.
type Compilation struct {
	Tree *tree.Tree
}

// NewCompilation wraps t for parsing.
func NewCompilation(t *tree.Tree) *Compilation {
	return &Compilation{Tree: t}
}

// Parser extracts new sub-trees from node's span, returning the IDs
// of any new (as yet unattached) nodes it allocated. The caller is
// responsible for offering them into the tree.
type Parser interface {
	Parse(c *Compilation, node tree.NodeID) ([]tree.NodeID, error)
}

// Hierarchy applies Inner to every descendant of the input node
// (spec.md's hierarchy driver), over a snapshot taken before any of
// the recursive calls run.
type Hierarchy struct {
	Inner Parser
}

func (h *Hierarchy) Parse(c *Compilation, node tree.NodeID) ([]tree.NodeID, error) {
	var out []tree.NodeID
	for _, id := range c.Tree.Collect(node) {
		found, err := h.Inner.Parse(c, id)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

// gap is a half-open rune range of node's span not yet claimed by any
// existing child sketch.
type gap struct {
	start, end int
}

// unparsedGaps returns the portions of node's interval not already
// covered by one of its immediate children, in document order.
func unparsedGaps(t *tree.Tree, node tree.NodeID) []gap {
	cursor := t.Position(node)
	end := t.End(node)
	var gaps []gap
	for _, child := range t.Children(node) {
		cs := t.Position(child)
		if cs > cursor {
			gaps = append(gaps, gap{cursor, cs})
		}
		ce := t.End(child)
		if ce > cursor {
			cursor = ce
		}
	}
	if cursor < end {
		gaps = append(gaps, gap{cursor, end})
	}
	return gaps
}

// withinGap reports whether [start,end) lies entirely inside one of
// gaps.
func withinGap(gaps []gap, start, end int) bool {
	for _, g := range gaps {
		if start >= g.start && end <= g.end {
			return true
		}
	}
	return false
}

// runeIndex converts a byte offset into s (as produced by the regexp
// package) to a rune offset, since tree positions are rune-counted
// per spec.md §3.1/§3.2.
func runeIndex(s string, byteIdx int) int {
	return utf8.RuneCountInString(s[:byteIdx])
}

// nonTermination builds the CompileError RunFixedPoint raises when a
// parser pipeline fails to settle within its iteration cap.
func nonTermination(t *tree.Tree, root tree.NodeID, passes int) error {
	return errs.NewCompile(t.SourceRef(root), "parser pipeline did not reach a fixed point within %d passes", passes)
}

// RunFixedPoint repeatedly runs p over c's root, offering every newly
// produced node, until a pass produces nothing new (spec.md §4.2's
// "parsing runs as a fixed point"). maxPasses bounds the loop; hitting
// it raises a CompileError rather than looping forever.
func RunFixedPoint(c *Compilation, p Parser, maxPasses int) error {
	root := c.Tree.Root()
	for pass := 0; pass < maxPasses; pass++ {
		created, err := p.Parse(c, root)
		if err != nil {
			return err
		}
		if len(created) == 0 {
			return nil
		}
		for _, id := range created {
			if err := c.Tree.Offer(root, id); err != nil {
				return err
			}
		}
	}
	return nonTermination(c.Tree, root, maxPasses)
}
