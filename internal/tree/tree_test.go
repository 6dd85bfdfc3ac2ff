package tree

import (
	"testing"

	"github.com/jamplate/jamplate/internal/document"
)

func mustTree(t *testing.T, content string) *Tree {
	t.Helper()
	tr, err := New(document.New("test.jam", content))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

func TestOfferPartAttachesAsChild(t *testing.T) {
	tr := mustTree(t, "0123456789")
	child := tr.NewNode(2, 3, NewSketch("leaf", 0))
	if err := tr.Offer(tr.Root(), child); err != nil {
		t.Fatalf("Offer: %v", err)
	}
	kids := tr.Children(tr.Root())
	if len(kids) != 1 || kids[0] != child {
		t.Fatalf("children = %v, want [%v]", kids, child)
	}
	if tr.Parent(child) != tr.Root() {
		t.Fatal("child's parent not set to root")
	}
}

func TestOfferOrdersSiblingsByPosition(t *testing.T) {
	tr := mustTree(t, "0123456789")
	a := tr.NewNode(6, 2, NewSketch("a", 0))
	b := tr.NewNode(2, 2, NewSketch("b", 0))
	if err := tr.Offer(tr.Root(), a); err != nil {
		t.Fatal(err)
	}
	if err := tr.Offer(tr.Root(), b); err != nil {
		t.Fatal(err)
	}
	kids := tr.Children(tr.Root())
	if len(kids) != 2 || kids[0] != b || kids[1] != a {
		t.Fatalf("children order = %v, want [b a] (%v %v)", kids, b, a)
	}
}

func TestOfferRecursesIntoContainingChild(t *testing.T) {
	tr := mustTree(t, "0123456789")
	outer := tr.NewNode(1, 8, NewSketch("outer", 0))
	if err := tr.Offer(tr.Root(), outer); err != nil {
		t.Fatal(err)
	}
	inner := tr.NewNode(3, 2, NewSketch("inner", 0))
	if err := tr.Offer(tr.Root(), inner); err != nil {
		t.Fatal(err)
	}
	if tr.Parent(inner) != outer {
		t.Fatalf("inner's parent = %v, want outer = %v", tr.Parent(inner), outer)
	}
}

func TestOfferReverseContainmentAdoptsSmallerSibling(t *testing.T) {
	tr := mustTree(t, "0123456789")
	inner := tr.NewNode(3, 2, NewSketch("inner", 0))
	if err := tr.Offer(tr.Root(), inner); err != nil {
		t.Fatal(err)
	}
	outer := tr.NewNode(1, 8, NewSketch("outer", 0))
	if err := tr.Offer(tr.Root(), outer); err != nil {
		t.Fatal(err)
	}
	if tr.Parent(outer) != tr.Root() {
		t.Fatalf("outer's parent = %v, want root = %v", tr.Parent(outer), tr.Root())
	}
	if tr.Parent(inner) != outer {
		t.Fatalf("inner's parent = %v, want outer = %v", tr.Parent(inner), outer)
	}
}

func TestOfferExactHigherWeightSplices(t *testing.T) {
	tr := mustTree(t, "0123456789")
	low := tr.NewNode(2, 3, NewSketch("low", 0))
	if err := tr.Offer(tr.Root(), low); err != nil {
		t.Fatal(err)
	}
	high := tr.NewNode(2, 3, NewSketch("high", 5))
	if err := tr.Offer(tr.Root(), high); err != nil {
		t.Fatal(err)
	}
	// low is the existing occupant of [2,3) ("tree" in spec.md §4.1's
	// splice wording): it keeps its position under root, and high is
	// pushed in between it and its (here, empty) old children.
	if tr.Parent(low) != tr.Root() {
		t.Fatal("low should remain root's child")
	}
	if tr.Parent(high) != low {
		t.Fatalf("high's parent = %v, want low = %v", tr.Parent(high), low)
	}
}

func TestOfferExactLowerWeightRejected(t *testing.T) {
	tr := mustTree(t, "0123456789")
	a := tr.NewNode(0, 10, NewSketch("a", 5))
	if err := tr.Offer(tr.Root(), a); err != nil {
		t.Fatal(err)
	}
	b := tr.NewNode(0, 10, NewSketch("b", 5))
	if err := tr.Offer(tr.Root(), b); err == nil {
		t.Fatal("expected rejection for equal-weight EXACT offer")
	}
}

func TestOfferShareRejected(t *testing.T) {
	tr := mustTree(t, "0123456789")
	a := tr.NewNode(0, 5, NewSketch("a", 0))
	if err := tr.Offer(tr.Root(), a); err != nil {
		t.Fatal(err)
	}
	b := tr.NewNode(3, 5, NewSketch("b", 0))
	if err := tr.Offer(tr.Root(), b); err == nil {
		t.Fatal("expected SHARE rejection for overlapping siblings")
	}
}

func TestOfferSwallowsAllEnclosedSiblingsAtOnce(t *testing.T) {
	tr := mustTree(t, "1+2")
	left := tr.NewNode(0, 1, NewSketch("number", 0))
	op := tr.NewNode(1, 1, NewSketch("sign:+", 0))
	right := tr.NewNode(2, 1, NewSketch("number", 0))
	for _, n := range []NodeID{left, op, right} {
		if err := tr.Offer(tr.Root(), n); err != nil {
			t.Fatal(err)
		}
	}
	// wrapper spans left.start..right.end, the same full span as
	// root itself, and must adopt all three existing children in one
	// pass rather than just the first it encounters.
	wrapper := tr.NewNode(0, 3, NewSketch("operator:+", 5))
	if err := tr.Offer(tr.Root(), wrapper); err != nil {
		t.Fatal(err)
	}
	rootKids := tr.Children(tr.Root())
	if len(rootKids) != 1 || rootKids[0] != wrapper {
		t.Fatalf("root children = %v, want [%v]", rootKids, wrapper)
	}
	wrapperKids := tr.Children(wrapper)
	if len(wrapperKids) != 3 || wrapperKids[0] != left || wrapperKids[1] != op || wrapperKids[2] != right {
		t.Fatalf("wrapper children = %v, want [%v %v %v]", wrapperKids, left, op, right)
	}
}

func TestCollectDepthFirst(t *testing.T) {
	tr := mustTree(t, "0123456789")
	outer := tr.NewNode(0, 10, NewSketch("outer", 0))
	_ = tr.Offer(tr.Root(), outer)
	inner := tr.NewNode(2, 2, NewSketch("inner", 0))
	_ = tr.Offer(tr.Root(), inner)

	ids := tr.Collect(tr.Root())
	if len(ids) != 3 {
		t.Fatalf("Collect returned %d nodes, want 3", len(ids))
	}
	if ids[0] != tr.Root() || ids[1] != outer || ids[2] != inner {
		t.Fatalf("Collect order = %v, want [%v %v %v]", ids, tr.Root(), outer, inner)
	}
}
