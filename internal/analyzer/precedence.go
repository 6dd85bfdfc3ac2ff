package analyzer

import "github.com/jamplate/jamplate/internal/tree"

// Tiered runs each of Stages to its own fixed point, in order, before
// the next stage sees the tree at all — spec.md §8 scenario 1's
// operator-precedence requirement ("1 + 2 * (3 + 5)" must bind "*"
// before "+"). A single BinaryOperator analyzer has no notion of
// precedence between two different operators sharing one pass; wiring
// product/quotient/remainder into an earlier stage than sum/difference
// is what makes the tighter operator claim its operands first.
//
// Tiered itself satisfies Analyzer so it can be dropped straight into
// a Spec's Analyzer field: RunFixedPoint calls it until one sweep
// across every stage leaves the tree unchanged.
type Tiered struct {
	Stages    []Analyzer
	MaxPasses int
}

func (tr *Tiered) Analyze(c *Compilation, node tree.NodeID) (bool, error) {
	root := c.Tree.Root()
	anyChanged := false
	for _, stage := range tr.Stages {
		for pass := 0; pass < tr.MaxPasses; pass++ {
			changed, err := stage.Analyze(c, root)
			if err != nil {
				return false, err
			}
			if !changed {
				break
			}
			anyChanged = true
			if pass == tr.MaxPasses-1 {
				return false, nonTermination(c.Tree, root, tr.MaxPasses)
			}
		}
	}
	return anyChanged, nil
}
