package parser

import (
	"regexp"
	"testing"

	"github.com/jamplate/jamplate/internal/document"
	"github.com/jamplate/jamplate/internal/tree"
)

func mustCompilation(t *testing.T, content string) *Compilation {
	t.Helper()
	tr, err := tree.New(document.New("t", content))
	if err != nil {
		t.Fatal(err)
	}
	return NewCompilation(tr)
}

func TestPatternParserMatchesOnlyInGaps(t *testing.T) {
	c := mustCompilation(t, "12 ab 34")
	numbers := &Pattern{
		Regex: regexp.MustCompile(`\d+`),
		New:   func(groups []string) *tree.Sketch { return tree.NewSketch("number", 1) },
	}
	if err := RunFixedPoint(c, &Hierarchy{Inner: numbers}, 10); err != nil {
		t.Fatal(err)
	}
	children := c.Tree.Children(c.Tree.Root())
	if len(children) != 2 {
		t.Fatalf("children = %d, want 2 numbers", len(children))
	}
	if c.Tree.Position(children[0]) != 0 || c.Tree.End(children[0]) != 2 {
		t.Fatalf("first number = [%d,%d), want [0,2)", c.Tree.Position(children[0]), c.Tree.End(children[0]))
	}
	if c.Tree.Position(children[1]) != 6 || c.Tree.End(children[1]) != 8 {
		t.Fatalf("second number = [%d,%d), want [6,8)", c.Tree.Position(children[1]), c.Tree.End(children[1]))
	}
}

func TestPatternParserDoesNotRematchClaimedSpan(t *testing.T) {
	c := mustCompilation(t, "aaa")
	first := &Pattern{
		Regex: regexp.MustCompile(`a+`),
		New:   func(groups []string) *tree.Sketch { return tree.NewSketch("run", 1) },
	}
	if err := RunFixedPoint(c, &Hierarchy{Inner: first}, 10); err != nil {
		t.Fatal(err)
	}
	children := c.Tree.Children(c.Tree.Root())
	if len(children) != 1 {
		t.Fatalf("children = %d, want 1 (single run, no overlapping re-match)", len(children))
	}
}

func TestEnclosureParserPairsInnermostFirst(t *testing.T) {
	c := mustCompilation(t, "((x))")
	paren := &Enclosure{
		Open:         regexp.MustCompile(`\(`),
		Close:        regexp.MustCompile(`\)`),
		NewEnclosure: func() *tree.Sketch { return tree.NewSketch("enclosure:paren", 5) },
		NewOpen:      func() *tree.Sketch { return tree.NewSketch("anchor:open", 5) },
		NewClose:     func() *tree.Sketch { return tree.NewSketch("anchor:close", 5) },
		NewBody:      func() *tree.Sketch { return tree.NewSketch("body", 0) },
	}
	if err := RunFixedPoint(c, paren, 10); err != nil {
		t.Fatal(err)
	}
	root := c.Tree.Root()
	outer := c.Tree.Children(root)
	if len(outer) != 1 {
		t.Fatalf("root children = %d, want 1 (outermost enclosure)", len(outer))
	}
	if c.Tree.Position(outer[0]) != 0 || c.Tree.End(outer[0]) != 5 {
		t.Fatalf("outer enclosure = [%d,%d), want [0,5)", c.Tree.Position(outer[0]), c.Tree.End(outer[0]))
	}
	outerBody := c.Tree.Sketch(outer[0])
	bodyID, ok := outerBody.Component("body")
	if !ok {
		t.Fatal("outer enclosure missing body component")
	}
	if c.Tree.Position(bodyID) != 1 || c.Tree.End(bodyID) != 4 {
		t.Fatalf("outer body = [%d,%d), want [1,4)", c.Tree.Position(bodyID), c.Tree.End(bodyID))
	}
	inner := c.Tree.Children(bodyID)
	if len(inner) != 1 {
		t.Fatalf("body children = %d, want 1 (inner enclosure)", len(inner))
	}
	if c.Tree.Position(inner[0]) != 1 || c.Tree.End(inner[0]) != 4 {
		t.Fatalf("inner enclosure = [%d,%d), want [1,4)", c.Tree.Position(inner[0]), c.Tree.End(inner[0]))
	}
}

func TestScopeParserHasNoBodyNode(t *testing.T) {
	c := mustCompilation(t, "[x]")
	brackets := &Scope{
		Open:     regexp.MustCompile(`\[`),
		Close:    regexp.MustCompile(`\]`),
		NewScope: func() *tree.Sketch { return tree.NewSketch("scope:access", 5) },
		NewOpen:  func() *tree.Sketch { return tree.NewSketch("anchor:open", 5) },
		NewClose: func() *tree.Sketch { return tree.NewSketch("anchor:close", 5) },
	}
	if err := RunFixedPoint(c, brackets, 10); err != nil {
		t.Fatal(err)
	}
	root := c.Tree.Root()
	children := c.Tree.Children(root)
	if len(children) != 1 {
		t.Fatalf("root children = %d, want 1 scope", len(children))
	}
	scopeChildren := c.Tree.Children(children[0])
	if len(scopeChildren) != 2 {
		t.Fatalf("scope children = %d, want 2 (open, close; no body)", len(scopeChildren))
	}
}

func TestDirectiveHeadSplitsCommandAndArgs(t *testing.T) {
	c := mustCompilation(t, "#define X 5")
	d := &DirectiveHead{
		NewDirective: func(name string) *tree.Sketch { return tree.NewSketch("directive:"+name, 10) },
		NewHead:      func(name string) *tree.Sketch { return tree.NewSketch("directive-head", 10) },
		NewArgs:      func(name string) *tree.Sketch { return tree.NewSketch("directive-args", 10) },
	}
	if err := RunFixedPoint(c, d, 10); err != nil {
		t.Fatal(err)
	}
	root := c.Tree.Root()
	children := c.Tree.Children(root)
	if len(children) != 1 {
		t.Fatalf("root children = %d, want 1 directive", len(children))
	}
	directive := children[0]
	sk := c.Tree.Sketch(directive)
	if sk.Kind != "directive:define" {
		t.Fatalf("directive kind = %q, want directive:define", sk.Kind)
	}
	argsID, ok := sk.Component("args")
	if !ok {
		t.Fatal("directive missing args component")
	}
	doc := c.Tree.Document()
	argsText, err := doc.Slice(c.Tree.Position(argsID), c.Tree.End(argsID))
	if err != nil {
		t.Fatal(err)
	}
	if argsText != " X 5" {
		t.Fatalf("args text = %q, want %q", argsText, " X 5")
	}
}

func TestDirectiveHeadArgsGapIsParsedOnLaterPass(t *testing.T) {
	c := mustCompilation(t, "#define X 5")
	d := &DirectiveHead{
		NewDirective: func(name string) *tree.Sketch { return tree.NewSketch("directive:"+name, 10) },
		NewHead:      func(name string) *tree.Sketch { return tree.NewSketch("directive-head", 10) },
		NewArgs:      func(name string) *tree.Sketch { return tree.NewSketch("directive-args", 10) },
	}
	numbers := &Pattern{
		Regex: regexp.MustCompile(`\d+`),
		New:   func(groups []string) *tree.Sketch { return tree.NewSketch("number", 1) },
	}
	combined := &Hierarchy{Inner: firstOf{d, numbers}}
	if err := RunFixedPoint(c, combined, 10); err != nil {
		t.Fatal(err)
	}

	var numberNode tree.NodeID
	found := false
	for _, id := range c.Tree.Collect(c.Tree.Root()) {
		if sk := c.Tree.Sketch(id); sk != nil && sk.Kind == "number" {
			numberNode = id
			found = true
		}
	}
	if !found {
		t.Fatal("expected a number node to be carved out of the directive args span")
	}
	if c.Tree.Position(numberNode) != 10 || c.Tree.End(numberNode) != 11 {
		t.Fatalf("number node = [%d,%d), want [10,11) (the '5' in \"#define X 5\")", c.Tree.Position(numberNode), c.Tree.End(numberNode))
	}
}

// firstOf tries each parser in order against the same node, returning
// the first non-empty result — enough of a fallback combinator for
// this test without pulling in the full compiler-side Fallback type.
type firstOf []Parser

func (f firstOf) Parse(c *Compilation, node tree.NodeID) ([]tree.NodeID, error) {
	var out []tree.NodeID
	for _, p := range f {
		found, err := p.Parse(c, node)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func TestRunFixedPointStopsWhenNoNewNodes(t *testing.T) {
	c := mustCompilation(t, "no digits here")
	numbers := &Pattern{
		Regex: regexp.MustCompile(`\d+`),
		New:   func(groups []string) *tree.Sketch { return tree.NewSketch("number", 1) },
	}
	if err := RunFixedPoint(c, &Hierarchy{Inner: numbers}, 5); err != nil {
		t.Fatal(err)
	}
	if len(c.Tree.Children(c.Tree.Root())) != 0 {
		t.Fatal("expected no children when nothing matches")
	}
}
