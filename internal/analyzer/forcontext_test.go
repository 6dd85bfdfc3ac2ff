package analyzer

import (
	"testing"

	"github.com/jamplate/jamplate/internal/tree"
)

func forContextForTest() *ForContext {
	return &ForContext{
		NewBody:    func() *tree.Sketch { return tree.NewSketch("body", 0) },
		NewContext: func() *tree.Sketch { return tree.NewSketch("for-context", 4) },
	}
}

// "#for I A|body|#endfor" laid out as: for(0,8) with args at (4,1)="A",
// body at [8,13), endfor(13,7).
func TestForContextCollapses(t *testing.T) {
	c := mustCompilation(t, "01234567890123456789")
	forNode := newDirective(t, c, "for", 0, 8, 4, 1)
	newDirective(t, c, "endfor", 13, 7, 0, -1)

	fc := forContextForTest()
	changed, err := fc.Analyze(c, forNode)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected the for/endfor sequence to collapse")
	}

	rootKids := c.Tree.Children(c.Tree.Root())
	if len(rootKids) != 1 {
		t.Fatalf("root children = %d, want 1 (the for-context wrapper)", len(rootKids))
	}
	wrapper := rootKids[0]
	wsk := c.Tree.Sketch(wrapper)
	if wsk.Kind != "for-context" {
		t.Fatalf("wrapper kind = %v, want for-context", wsk.Kind)
	}
	argsID, ok := wsk.Component("args")
	if !ok || c.Tree.Position(argsID) != 4 || c.Tree.End(argsID) != 5 {
		t.Fatalf("for-context args = %v, want the args node at [4,5)", argsID)
	}
	bodyID, ok := wsk.Component("body")
	if !ok || c.Tree.Position(bodyID) != 8 || c.Tree.End(bodyID) != 13 {
		t.Fatalf("for-context body = %v, want [8,13)", bodyID)
	}
}

func TestForContextWaitsForMissingEndfor(t *testing.T) {
	c := mustCompilation(t, "0123456789")
	forNode := newDirective(t, c, "for", 0, 8, 4, 1)

	fc := forContextForTest()
	changed, err := fc.Analyze(c, forNode)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Fatal("expected no collapse without a matching #endfor")
	}
}
