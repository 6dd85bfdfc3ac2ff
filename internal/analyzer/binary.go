package analyzer

import "github.com/jamplate/jamplate/internal/tree"

// BinaryOperator implements spec.md §4.3's binary-operator analyzer:
// given a node matching Operator, locate its previous and next
// sibling (left and right operand) and wrap the three-node span
// `[left.start, right.end)` in a new container sketch, built by New,
// with sub-components "sign" (the operator node itself), "left" and
// "right". The wrapper is offered to the operator's own parent, which
// — per Tree.Offer's PART handling — adopts left, the operator, and
// right as its children in one restructuring.
//
// If either neighbor is missing (the operator is the parent's first
// or last child), the node is skipped rather than treated as an
// error: a malformed or partial expression surfaces later, at compile
// time, as a missing operand rather than here.
type BinaryOperator struct {
	Operator Query
	New      func(opNode tree.NodeID) *tree.Sketch
}

func (b *BinaryOperator) Analyze(c *Compilation, node tree.NodeID) (bool, error) {
	if !b.Operator.Match(c, node) {
		return false, nil
	}
	t := c.Tree
	left := t.PreviousSibling(node)
	right := t.NextSibling(node)
	if left == tree.InvalidID || right == tree.InvalidID {
		return false, nil
	}
	parent := t.Parent(node)

	sk := b.New(node)
	sk.SetComponent("sign", node)
	sk.SetComponent("left", left)
	sk.SetComponent("right", right)
	start := t.Position(left)
	end := t.End(right)
	wrapper := t.NewNode(start, end-start, sk)

	if err := t.Offer(parent, wrapper); err != nil {
		return false, err
	}
	return true, nil
}
