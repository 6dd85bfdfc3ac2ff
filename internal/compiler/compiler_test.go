package compiler

import (
	"testing"

	"github.com/jamplate/jamplate/internal/document"
	"github.com/jamplate/jamplate/internal/instruction"
	"github.com/jamplate/jamplate/internal/tree"
)

func mustTree(t *testing.T, content string) *tree.Tree {
	t.Helper()
	doc := document.New("t", content)
	tr, err := tree.New(doc)
	if err != nil {
		t.Fatalf("tree.New: %v", err)
	}
	return tr
}

func TestKindFilter(t *testing.T) {
	tr := mustTree(t, "x")
	leaf := tr.NewNode(0, 1, tree.NewSketch("literal:ident", 0))
	if err := tr.Offer(tr.Root(), leaf); err != nil {
		t.Fatalf("offer: %v", err)
	}
	c := NewCompilation(tr)

	matched := &KindFilter{Kind: "literal:ident", Inner: ToPushConst{}}
	r, err := matched.Compile(c, leaf)
	if err != nil || r == nil {
		t.Fatalf("expected a match, got %v, %v", r, err)
	}

	unmatched := &KindFilter{Kind: "literal:number", Inner: ToPushConst{}}
	r, err = unmatched.Compile(c, leaf)
	if err != nil || r != nil {
		t.Fatalf("expected no match, got %v, %v", r, err)
	}
}

func TestFallbackFirstMatchWins(t *testing.T) {
	tr := mustTree(t, "x")
	leaf := tr.NewNode(0, 1, tree.NewSketch("literal:ident", 0))
	if err := tr.Offer(tr.Root(), leaf); err != nil {
		t.Fatalf("offer: %v", err)
	}
	c := NewCompilation(tr)

	fb := &Fallback{Compilers: []Compiler{
		&KindFilter{Kind: "literal:number", Inner: ToPushConst{}},
		&KindFilter{Kind: "literal:ident", Inner: ToPushConst{}},
		Empty{},
	}}
	instr, err := fb.Compile(c, leaf)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if instr == nil {
		t.Fatal("expected a match from the second compiler")
	}
}

func TestMandatoryRaisesOnNoMatch(t *testing.T) {
	tr := mustTree(t, "x")
	leaf := tr.NewNode(0, 1, tree.NewSketch("literal:ident", 0))
	if err := tr.Offer(tr.Root(), leaf); err != nil {
		t.Fatalf("offer: %v", err)
	}
	c := NewCompilation(tr)

	m := &Mandatory{Inner: Empty{}}
	if _, err := m.Compile(c, leaf); err == nil {
		t.Fatal("expected an error from Mandatory wrapping a non-matching compiler")
	}
}

func TestFirstCompileSkipsUnmatchedChildren(t *testing.T) {
	tr := mustTree(t, "ab")
	a := tr.NewNode(0, 1, tree.NewSketch("literal:ident", 0))
	b := tr.NewNode(1, 1, tree.NewSketch("punctuation:comma", 0))
	if err := tr.Offer(tr.Root(), a); err != nil {
		t.Fatalf("offer a: %v", err)
	}
	if err := tr.Offer(tr.Root(), b); err != nil {
		t.Fatalf("offer b: %v", err)
	}
	c := NewCompilation(tr)

	fc := &FirstCompile{Compilers: []Compiler{
		&KindFilter{Kind: "literal:ident", Inner: ToPushConst{}},
	}}
	block, err := fc.Compile(c, tr.Root())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	b2, ok := block.(*instruction.Block)
	if !ok || len(b2.Items) != 1 {
		t.Fatalf("expected exactly one compiled child, got %#v", block)
	}
}

func TestFlattenUsesInnerAsDefaultLeaf(t *testing.T) {
	tr := mustTree(t, "ab")
	a := tr.NewNode(0, 1, tree.NewSketch("literal:ident", 0))
	if err := tr.Offer(tr.Root(), a); err != nil {
		t.Fatalf("offer: %v", err)
	}
	c := NewCompilation(tr)

	fl := &Flatten{
		Inner: ToPushConst{},
		Outer: Empty{},
	}
	block, err := fl.Compile(c, tr.Root())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	b2, ok := block.(*instruction.Block)
	if !ok {
		t.Fatalf("expected a block, got %#v", block)
	}
	if len(b2.Items) == 0 {
		t.Fatal("expected Inner to compile at least the leaf")
	}
}
