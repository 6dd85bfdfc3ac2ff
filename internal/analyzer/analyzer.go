// Package analyzer implements spec.md §4.3's analyzer framework: a
// second fixed-point pass over an already-parsed tree that rewrites
// structure in place (wrapping operators, collapsing directive
// sequences into nested control flow) rather than carving new leaves
// out of unparsed text the way a Parser does.
package analyzer

import (
	"github.com/jamplate/jamplate/internal/errs"
	"github.com/jamplate/jamplate/internal/tree"
)

// Compilation is the per-document state an Analyzer operates over.
// Mirrors parser.Compilation deliberately: the two phases share the
// same tree, just at different points in the pipeline, and neither
// package needs anything from the other.
type Compilation struct {
	Tree *tree.Tree
}

// NewCompilation wraps t for analysis.
func NewCompilation(t *tree.Tree) *Compilation {
	return &Compilation{Tree: t}
}

// Analyzer inspects and possibly rewrites node's subtree, reporting
// whether it changed anything. A false, nil return means "nothing to
// do here," which is how RunFixedPoint recognizes a settled tree.
type Analyzer interface {
	Analyze(c *Compilation, node tree.NodeID) (bool, error)
}

// Hierarchy applies Inner to every descendant of the input node, over
// a snapshot taken before any of the recursive calls run — same
// rationale as parser.Hierarchy: an Analyzer that restructures the
// tree must not perturb the traversal that is still walking it.
type Hierarchy struct {
	Inner Analyzer
}

func (h *Hierarchy) Analyze(c *Compilation, node tree.NodeID) (bool, error) {
	changed := false
	for _, id := range c.Tree.Collect(node) {
		ok, err := h.Inner.Analyze(c, id)
		if err != nil {
			return false, err
		}
		changed = changed || ok
	}
	return changed, nil
}

// nonTermination mirrors parser.nonTermination for the analyze phase.
func nonTermination(t *tree.Tree, root tree.NodeID, passes int) error {
	return errs.NewCompile(t.SourceRef(root), "analyzer pipeline did not reach a fixed point within %d passes", passes)
}

// RunFixedPoint repeatedly runs a over c's root until a pass reports
// no change (spec.md §4.3 "analyzers also run as a fixed point").
// maxPasses bounds the loop; hitting it raises a CompileError.
func RunFixedPoint(c *Compilation, a Analyzer, maxPasses int) error {
	root := c.Tree.Root()
	for pass := 0; pass < maxPasses; pass++ {
		changed, err := a.Analyze(c, root)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
	}
	return nonTermination(c.Tree, root, maxPasses)
}
