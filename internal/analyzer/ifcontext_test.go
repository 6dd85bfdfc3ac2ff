package analyzer

import (
	"testing"

	"github.com/jamplate/jamplate/internal/tree"
)

func newDirective(t *testing.T, c *Compilation, keyword string, position, length int, argsPos, argsLen int) tree.NodeID {
	t.Helper()
	sk := tree.NewSketch("directive:"+keyword, 0)
	if argsLen >= 0 {
		args := c.Tree.NewNode(argsPos, argsLen, tree.NewSketch("args", 0))
		if err := c.Tree.Offer(c.Tree.Root(), args); err != nil {
			t.Fatal(err)
		}
		sk.SetComponent("args", args)
	}
	n := c.Tree.NewNode(position, length, sk)
	if err := c.Tree.Offer(c.Tree.Root(), n); err != nil {
		t.Fatal(err)
	}
	return n
}

func ifContextForTest() *IfContext {
	return &IfContext{
		NewCase:    func(keyword string) *tree.Sketch { return tree.NewSketch("if-case:"+keyword, 3) },
		NewBody:    func() *tree.Sketch { return tree.NewSketch("body", 0) },
		NewContext: func() *tree.Sketch { return tree.NewSketch("if-context", 6) },
	}
}

// "#if A|body1|#else|body2|#endif" laid out as raw offsets: if(0,4)
// with args at (3,1)="A", body1 at [4,9), else(9,5), body2 at [14,19),
// endif(19,6).
func TestIfContextCollapsesIfElse(t *testing.T) {
	c := mustCompilation(t, "0123456789012345678901234")
	ifNode := newDirective(t, c, "if", 0, 4, 3, 1)
	elseNode := newDirective(t, c, "else", 9, 5, 0, -1)
	endifNode := newDirective(t, c, "endif", 19, 6, 0, -1)

	ic := ifContextForTest()
	changed, err := ic.Analyze(c, ifNode)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected the if/else/endif sequence to collapse")
	}

	rootKids := c.Tree.Children(c.Tree.Root())
	if len(rootKids) != 1 {
		t.Fatalf("root children = %d, want 1 (the if-context wrapper)", len(rootKids))
	}
	wrapper := rootKids[0]
	wsk := c.Tree.Sketch(wrapper)
	if wsk.Kind != "if-context" {
		t.Fatalf("wrapper kind = %v, want if-context", wsk.Kind)
	}
	ifCaseID, ok := wsk.Component("case")
	if !ok {
		t.Fatal("wrapper missing case component")
	}
	ifCase := c.Tree.Sketch(ifCaseID)
	if ifCase.Kind != "if-case:if" {
		t.Fatalf("outer case kind = %v, want if-case:if", ifCase.Kind)
	}
	condID, ok := ifCase.Component("cond")
	if !ok || c.Tree.Position(condID) != 3 || c.Tree.End(condID) != 4 {
		t.Fatalf("if-case cond = %v, want the args node at [3,4)", condID)
	}
	elseCaseID, ok := ifCase.Component("else")
	if !ok {
		t.Fatal("if-case missing else component")
	}
	elseCase := c.Tree.Sketch(elseCaseID)
	if elseCase.Kind != "if-case:else" {
		t.Fatalf("else case kind = %v, want if-case:else", elseCase.Kind)
	}
	if _, ok := elseCase.Component("cond"); ok {
		t.Fatal("else case should not have a cond component")
	}
	if _, ok := elseCase.Component("else"); ok {
		t.Fatal("else case should not have a further else component")
	}

	_ = ifNode
	_ = elseNode
	_ = endifNode
}

func TestIfContextWithoutElseLeavesLastCaseBare(t *testing.T) {
	c := mustCompilation(t, "0123456789012345")
	ifNode := newDirective(t, c, "ifdef", 0, 4, 3, 1)
	newDirective(t, c, "endif", 4, 6, 0, -1)

	ic := ifContextForTest()
	changed, err := ic.Analyze(c, ifNode)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected the ifdef/endif sequence to collapse")
	}

	wrapper := c.Tree.Children(c.Tree.Root())[0]
	ifCaseID, _ := c.Tree.Sketch(wrapper).Component("case")
	ifCase := c.Tree.Sketch(ifCaseID)
	if ifCase.Kind != "if-case:ifdef" {
		t.Fatalf("case kind = %v, want if-case:ifdef", ifCase.Kind)
	}
	if _, ok := ifCase.Component("else"); ok {
		t.Fatal("expected no else component when the source has no #else")
	}
}

func TestIfContextWaitsForMissingEndif(t *testing.T) {
	c := mustCompilation(t, "0123456789")
	ifNode := newDirective(t, c, "if", 0, 4, 3, 1)

	ic := ifContextForTest()
	changed, err := ic.Analyze(c, ifNode)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Fatal("expected no collapse without a matching #endif")
	}
}

func TestIfContextIgnoresNonStartDirective(t *testing.T) {
	c := mustCompilation(t, "0123456789")
	elseNode := newDirective(t, c, "else", 0, 5, 0, -1)

	ic := ifContextForTest()
	changed, err := ic.Analyze(c, elseNode)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Fatal("expected IfContext to ignore a bare #else with no #if")
	}
}
