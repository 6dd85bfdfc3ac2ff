package spec

import (
	"regexp"
	"strings"

	"github.com/jamplate/jamplate/internal/analyzer"
	"github.com/jamplate/jamplate/internal/compiler"
	"github.com/jamplate/jamplate/internal/errs"
	"github.com/jamplate/jamplate/internal/instruction"
	"github.com/jamplate/jamplate/internal/parser"
	"github.com/jamplate/jamplate/internal/tree"
	"github.com/jamplate/jamplate/internal/value"
)

var bracketOpen = regexp.MustCompile(`\[`)
var bracketClose = regexp.MustCompile(`\]`)

func newDirectiveSketch(name string) *tree.Sketch { return tree.NewSketch("directive:"+name, 4) }
func newDirectiveHeadSketch(string) *tree.Sketch  { return tree.NewSketch("directive:head", 0) }
func newDirectiveArgsSketch(string) *tree.Sketch  { return tree.NewSketch("args", 0) }

func newBracketSketch() *tree.Sketch      { return tree.NewSketch("bracket", 2) }
func newBracketOpenSketch() *tree.Sketch  { return tree.NewSketch("bracket:open", 0) }
func newBracketCloseSketch() *tree.Sketch { return tree.NewSketch("bracket:close", 0) }
func newBracketBodySketch() *tree.Sketch  { return tree.NewSketch("bracket:body", 0) }

// rootCompiler matches only the tree root, handing it to body — the
// entry point a combined bundle's Registry.Compiler() Fallback needs
// since nothing else in the tree is sketched as "the whole document".
type rootCompiler struct {
	body compiler.Compiler
}

func (r *rootCompiler) Compile(c *compiler.Compilation, node tree.NodeID) (instruction.Instruction, error) {
	if node != c.Tree.Root() {
		return nil, nil
	}
	return r.body.Compile(c, node)
}

// bracketCompiler compiles a "[...]" substitution to whatever
// expression its body resolved to during analysis; a body the
// arithmetic analyzer never touched (a bare identifier) falls back to
// a heap Access, the same way condCompile treats a bare condition.
type bracketCompiler struct {
	expr compiler.Compiler
}

func (b *bracketCompiler) Compile(c *compiler.Compilation, node tree.NodeID) (instruction.Instruction, error) {
	t := c.Tree
	sk := t.Sketch(node)
	if sk == nil || sk.Kind != "bracket" {
		return nil, nil
	}
	bodyID, ok := sk.Component("body")
	if !ok {
		return nil, errs.NewCompile(t.SourceRef(node), "bracket missing body component")
	}
	if children := t.Children(bodyID); len(children) == 1 {
		return b.expr.Compile(c, children[0])
	}
	text, err := t.Document().Slice(t.Position(bodyID), t.End(bodyID))
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if f, ok := value.ParseNumber(text); ok {
		return &instruction.PushConst{Value: value.NewNumber(f)}, nil
	}
	return &instruction.Access{Addr: text}, nil
}

// condCompile compiles an if/elif-family case's condition: a
// resolved arithmetic expression is evaluated and its truthiness
// tested directly; a bare identifier is tested against the heap
// ("if"/"elif") or the DEFINE mirror ("ifdef"/"ifndef" family).
func condCompile(c *compiler.Compilation, expr compiler.Compiler, keyword string, condID tree.NodeID) (instruction.Instruction, error) {
	t := c.Tree
	if children := t.Children(condID); len(children) == 1 {
		instr, err := expr.Compile(c, children[0])
		if err != nil {
			return nil, err
		}
		if instr != nil {
			return instr, nil
		}
	}
	text, err := t.Document().Slice(t.Position(condID), t.End(condID))
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	switch keyword {
	case "ifdef", "elifdef":
		return &instruction.DefAddr{Addr: text}, nil
	case "ifndef", "elifndef":
		return &instruction.NdefAddr{Addr: text}, nil
	default:
		return &instruction.Access{Addr: text}, nil
	}
}

// ifContextCompiler compiles the "if-context" sketch IfContext
// produces, recursing case-by-case through each case's "else"
// component (itself a case node, never re-wrapped) down to the
// terminal case, which is either "else" or has no else at all.
type ifContextCompiler struct {
	body compiler.Compiler
	expr compiler.Compiler
}

func (ic *ifContextCompiler) Compile(c *compiler.Compilation, node tree.NodeID) (instruction.Instruction, error) {
	t := c.Tree
	sk := t.Sketch(node)
	if sk == nil || sk.Kind != "if-context" {
		return nil, nil
	}
	caseID, ok := sk.Component("case")
	if !ok {
		return nil, errs.NewCompile(t.SourceRef(node), "if-context missing case component")
	}
	return ic.compileCase(c, caseID)
}

func (ic *ifContextCompiler) compileCase(c *compiler.Compilation, node tree.NodeID) (instruction.Instruction, error) {
	t := c.Tree
	sk := t.Sketch(node)
	if sk == nil || !strings.HasPrefix(sk.Kind, "if-case:") {
		return nil, errs.NewCompile(t.SourceRef(node), "expected an if-case sketch, got %v", sk)
	}
	keyword := strings.TrimPrefix(sk.Kind, "if-case:")

	bodyID, ok := sk.Component("body")
	if !ok {
		return nil, errs.NewCompile(t.SourceRef(node), "if-case missing body component")
	}
	bodyInstr, err := ic.body.Compile(c, bodyID)
	if err != nil {
		return nil, err
	}
	if keyword == "else" {
		return bodyInstr, nil
	}

	condID, ok := sk.Component("cond")
	if !ok {
		return nil, errs.NewCompile(t.SourceRef(node), "if-case missing cond component")
	}
	condInstr, err := condCompile(c, ic.expr, keyword, condID)
	if err != nil {
		return nil, err
	}

	var elseInstr instruction.Instruction
	if elseID, ok := sk.Component("else"); ok {
		elseInstr, err = ic.compileCase(c, elseID)
		if err != nil {
			return nil, err
		}
	}
	return &instruction.Branch{Cond: condInstr, Then: bodyInstr, Else: elseInstr}, nil
}

// forContextCompiler compiles the "for-context" sketch ForContext
// produces. The iterable is always a "[a,b,c]" numeric array literal
// in args — the array-literal short form this bundle supports, kept
// intentionally narrow (see DESIGN.md) rather than reusing the
// general bracket substitution compiler, which pushes one value, not
// a per-element binding target.
type forContextCompiler struct {
	body compiler.Compiler
}

func (fc *forContextCompiler) Compile(c *compiler.Compilation, node tree.NodeID) (instruction.Instruction, error) {
	t := c.Tree
	sk := t.Sketch(node)
	if sk == nil || sk.Kind != "for-context" {
		return nil, nil
	}
	argsID, ok := sk.Component("args")
	if !ok {
		return nil, errs.NewCompile(t.SourceRef(node), "for-context missing args component")
	}
	bodyID, ok := sk.Component("body")
	if !ok {
		return nil, errs.NewCompile(t.SourceRef(node), "for-context missing body component")
	}

	addr, iterable, err := fc.compileArgs(c, argsID)
	if err != nil {
		return nil, err
	}
	bodyInstr, err := fc.body.Compile(c, bodyID)
	if err != nil {
		return nil, err
	}
	return instruction.NewFped(t.SourceRef(node), addr, iterable, bodyInstr), nil
}

func (fc *forContextCompiler) compileArgs(c *compiler.Compilation, argsID tree.NodeID) (string, instruction.Instruction, error) {
	t := c.Tree
	children := t.Children(argsID)
	var bracketID tree.NodeID = tree.InvalidID
	for _, child := range children {
		if sk := t.Sketch(child); sk != nil && sk.Kind == "bracket" {
			bracketID = child
			break
		}
	}
	if bracketID == tree.InvalidID {
		return "", nil, errs.NewCompile(t.SourceRef(argsID), "for-loop args missing a [iterable] literal")
	}

	addrText, err := t.Document().Slice(t.Position(argsID), t.Position(bracketID))
	if err != nil {
		return "", nil, err
	}
	addr := strings.TrimSpace(addrText)

	bracketSk := t.Sketch(bracketID)
	bodyID, ok := bracketSk.Component("body")
	if !ok {
		return "", nil, errs.NewCompile(t.SourceRef(bracketID), "bracket missing body component")
	}
	bodyText, err := t.Document().Slice(t.Position(bodyID), t.End(bodyID))
	if err != nil {
		return "", nil, err
	}
	bodyText = strings.TrimSpace(bodyText)

	var items []instruction.Instruction
	if bodyText != "" {
		for _, part := range strings.Split(bodyText, ",") {
			part = strings.TrimSpace(part)
			f, ok := value.ParseNumber(part)
			if !ok {
				return "", nil, errs.NewCompile(t.SourceRef(bodyID), "for-loop iterable element %q is not a number", part)
			}
			items = append(items, &instruction.PushConst{Value: value.NewNumber(f)})
		}
	}
	return addr, &instruction.PushArray{Items: items}, nil
}

// defineCompiler compiles "#define NAME VALUE": VALUE is stored
// verbatim, never evaluated — the distinction SPEC_FULL.md's
// SUPPLEMENTED FEATURES section draws against #declare.
type defineCompiler struct{}

func (defineCompiler) Compile(c *compiler.Compilation, node tree.NodeID) (instruction.Instruction, error) {
	t := c.Tree
	sk := t.Sketch(node)
	if sk == nil || sk.Kind != "directive:define" {
		return nil, nil
	}
	argsID, ok := sk.Component("args")
	if !ok {
		return nil, errs.NewCompile(t.SourceRef(node), "define missing args component")
	}
	addr, rest, err := splitAddr(t, argsID)
	if err != nil {
		return nil, err
	}
	return &instruction.Repalloc{Addr: addr, Instr: &instruction.PushConst{Value: value.NewText(rest)}}, nil
}

// declareCompiler compiles "#declare NAME EXPR": EXPR is compiled and
// evaluated once, and the resulting value is stored and immediately
// un-mirrored from DEFINE (Repalloc followed by Repfree), so a
// declared name is invisible to #ifdef/#ifndef but keeps its value.
type declareCompiler struct {
	expr compiler.Compiler
}

func (dc *declareCompiler) Compile(c *compiler.Compilation, node tree.NodeID) (instruction.Instruction, error) {
	t := c.Tree
	sk := t.Sketch(node)
	if sk == nil || sk.Kind != "directive:declare" {
		return nil, nil
	}
	argsID, ok := sk.Component("args")
	if !ok {
		return nil, errs.NewCompile(t.SourceRef(node), "declare missing args component")
	}

	children := t.Children(argsID)
	if len(children) != 1 {
		return nil, errs.NewCompile(t.SourceRef(node), "declare requires NAME EXPR, found %d resolved expression(s)", len(children))
	}
	exprID := children[0]
	addrText, err := t.Document().Slice(t.Position(argsID), t.Position(exprID))
	if err != nil {
		return nil, err
	}
	addr := strings.TrimSpace(addrText)
	valueInstr, err := dc.expr.Compile(c, exprID)
	if err != nil {
		return nil, err
	}
	if valueInstr == nil {
		return nil, errs.NewCompile(t.SourceRef(exprID), "declare value did not compile to an expression")
	}
	return instruction.NewBlock(t.SourceRef(node),
		&instruction.Repalloc{Addr: addr, Instr: valueInstr},
		&instruction.Repfree{Addr: addr},
	), nil
}

// splitAddr splits an args node's raw text on its first run of
// whitespace into (addr, rest), the "#define"/"#undef" shape.
func splitAddr(t *tree.Tree, argsID tree.NodeID) (addr, rest string, err error) {
	text, err := t.Document().Slice(t.Position(argsID), t.End(argsID))
	if err != nil {
		return "", "", err
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", "", errs.NewCompile(t.SourceRef(argsID), "missing target address")
	}
	addr = fields[0]
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), addr))
	return addr, rest, nil
}

type undefCompiler struct{}

func (undefCompiler) Compile(c *compiler.Compilation, node tree.NodeID) (instruction.Instruction, error) {
	t := c.Tree
	sk := t.Sketch(node)
	if sk == nil || sk.Kind != "directive:undef" {
		return nil, nil
	}
	argsID, ok := sk.Component("args")
	if !ok {
		return nil, errs.NewCompile(t.SourceRef(node), "undef missing args component")
	}
	addr, _, err := splitAddr(t, argsID)
	if err != nil {
		return nil, err
	}
	return &instruction.FreeAddr{Addr: addr}, nil
}

type importCompiler struct{}

func (importCompiler) Compile(c *compiler.Compilation, node tree.NodeID) (instruction.Instruction, error) {
	t := c.Tree
	sk := t.Sketch(node)
	if sk == nil || sk.Kind != "directive:import" {
		return nil, nil
	}
	argsID, ok := sk.Component("args")
	if !ok {
		return nil, errs.NewCompile(t.SourceRef(node), "import missing args component")
	}
	text, err := t.Document().Slice(t.Position(argsID), t.End(argsID))
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(text)
	return instruction.NewImport(t.SourceRef(node), &instruction.PushConst{Value: value.NewText(name)}), nil
}

func printableDirectiveKind(kind string) bool {
	switch kind {
	case "bracket", "object", "directive:import":
		return true
	}
	return false
}

// buildDirectives wires the core-directives dialect. extra lets a
// combined bundle (Default) fold in another spec's body-level
// compiler (Pairs' object literals) without Directives importing it
// back.
func buildDirectives(extra ...compiler.Compiler) (*Spec, compiler.Compiler) {
	expr := ExprCompiler()
	outer := &compiler.Fallback{}
	body := &compiler.VerbatimBody{Outer: outer, Printable: printableDirectiveKind}

	compilers := []compiler.Compiler{
		&rootCompiler{body: body},
		&compiler.KindFilter{Kind: "if-context", Inner: &ifContextCompiler{body: body, expr: expr}},
		&compiler.KindFilter{Kind: "for-context", Inner: &forContextCompiler{body: body}},
		&compiler.KindFilter{Kind: "directive:define", Inner: defineCompiler{}},
		&compiler.KindFilter{Kind: "directive:declare", Inner: &declareCompiler{expr: expr}},
		&compiler.KindFilter{Kind: "directive:undef", Inner: undefCompiler{}},
		&compiler.KindFilter{Kind: "directive:import", Inner: importCompiler{}},
		&compiler.KindFilter{Kind: "bracket", Inner: &bracketCompiler{expr: expr}},
	}
	compilers = append(compilers, extra...)
	outer.Compilers = compilers

	directiveHead := &parser.DirectiveHead{
		NewDirective: newDirectiveSketch,
		NewHead:      newDirectiveHeadSketch,
		NewArgs:      newDirectiveArgsSketch,
	}
	bracketParser := &parser.Enclosure{
		Open:         bracketOpen,
		Close:        bracketClose,
		NewEnclosure: newBracketSketch,
		NewOpen:      newBracketOpenSketch,
		NewClose:     newBracketCloseSketch,
		NewBody:      newBracketBodySketch,
	}

	ifCtx := &analyzer.IfContext{
		NewCase:    func(keyword string) *tree.Sketch { return tree.NewSketch("if-case:"+keyword, 4) },
		NewBody:    func() *tree.Sketch { return tree.NewSketch("body", 0) },
		NewContext: func() *tree.Sketch { return tree.NewSketch("if-context", 8) },
	}
	forCtx := &analyzer.ForContext{
		NewBody:    func() *tree.Sketch { return tree.NewSketch("body", 0) },
		NewContext: func() *tree.Sketch { return tree.NewSketch("for-context", 8) },
	}

	spec := &Spec{
		Name:     "directives",
		Parser:   parser.Many{directiveHead, bracketParser},
		Analyzer: &analyzer.Hierarchy{Inner: multiAnalyzer{ifCtx, forCtx}},
		Compiler: outer,
	}
	return spec, body
}

// Directives is the core control-flow dialect of spec.md §8 scenarios
// 2, 3, 4 and 6: #define/#undef/#declare, the #if/#elif*/#else/#endif
// chain, #for/#endfor, #import, and "[...]" substitution.
func Directives() *Spec {
	spec, _ := buildDirectives()
	return spec
}

// DirectivesDocument returns a root-level compiler that treats the
// whole document as a directive template body — the entry point
// spec.md §8 scenarios 2, 3, 4 and 6 drive when the directives spec
// runs on its own.
func DirectivesDocument() compiler.Compiler {
	_, body := buildDirectives()
	return body
}
