package analyzer

import (
	"testing"

	"github.com/jamplate/jamplate/internal/tree"
)

func TestBinaryOperatorWrapsLeftAndRight(t *testing.T) {
	c := mustCompilation(t, "1+2")
	left := c.Tree.NewNode(0, 1, tree.NewSketch("number", 0))
	op := c.Tree.NewNode(1, 1, tree.NewSketch("sign:+", 0))
	right := c.Tree.NewNode(2, 1, tree.NewSketch("number", 0))
	for _, n := range []tree.NodeID{left, op, right} {
		if err := c.Tree.Offer(c.Tree.Root(), n); err != nil {
			t.Fatal(err)
		}
	}

	b := &BinaryOperator{
		Operator: IsKind("sign:+"),
		New:      func(tree.NodeID) *tree.Sketch { return tree.NewSketch("operator:+", 5) },
	}
	changed, err := (&Hierarchy{Inner: b}).Analyze(c, c.Tree.Root())
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected the operator wrap to report a change")
	}

	rootKids := c.Tree.Children(c.Tree.Root())
	if len(rootKids) != 1 {
		t.Fatalf("root children = %d, want 1 (the wrapper)", len(rootKids))
	}
	wrapper := rootKids[0]
	if sk := c.Tree.Sketch(wrapper); sk == nil || sk.Kind != "operator:+" {
		t.Fatalf("wrapper kind = %v, want operator:+", sk)
	}
	sk := c.Tree.Sketch(wrapper)
	signID, _ := sk.Component("sign")
	leftID, _ := sk.Component("left")
	rightID, _ := sk.Component("right")
	if signID != op || leftID != left || rightID != right {
		t.Fatalf("wrapper components = sign:%v left:%v right:%v, want sign:%v left:%v right:%v", signID, leftID, rightID, op, left, right)
	}
	wrapperKids := c.Tree.Children(wrapper)
	if len(wrapperKids) != 3 || wrapperKids[0] != left || wrapperKids[1] != op || wrapperKids[2] != right {
		t.Fatalf("wrapper children = %v, want [%v %v %v]", wrapperKids, left, op, right)
	}
}

func TestBinaryOperatorSkipsWhenMissingNeighbor(t *testing.T) {
	c := mustCompilation(t, "+2")
	op := c.Tree.NewNode(0, 1, tree.NewSketch("sign:+", 0))
	right := c.Tree.NewNode(1, 1, tree.NewSketch("number", 0))
	for _, n := range []tree.NodeID{op, right} {
		if err := c.Tree.Offer(c.Tree.Root(), n); err != nil {
			t.Fatal(err)
		}
	}

	b := &BinaryOperator{
		Operator: IsKind("sign:+"),
		New:      func(tree.NodeID) *tree.Sketch { return tree.NewSketch("operator:+", 5) },
	}
	changed, err := b.Analyze(c, op)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Fatal("expected no wrap when the operator has no left neighbor")
	}
}

func TestBinaryOperatorIgnoresNonMatchingNode(t *testing.T) {
	c := mustCompilation(t, "1+2")
	left := c.Tree.NewNode(0, 1, tree.NewSketch("number", 0))
	if err := c.Tree.Offer(c.Tree.Root(), left); err != nil {
		t.Fatal(err)
	}

	b := &BinaryOperator{
		Operator: IsKind("sign:+"),
		New:      func(tree.NodeID) *tree.Sketch { return tree.NewSketch("operator:+", 5) },
	}
	changed, err := b.Analyze(c, left)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Fatal("expected no wrap for a node that doesn't match Operator")
	}
}
