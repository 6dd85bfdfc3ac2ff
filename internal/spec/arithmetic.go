package spec

import (
	"regexp"

	"github.com/jamplate/jamplate/internal/analyzer"
	"github.com/jamplate/jamplate/internal/compiler"
	"github.com/jamplate/jamplate/internal/errs"
	"github.com/jamplate/jamplate/internal/instruction"
	"github.com/jamplate/jamplate/internal/parser"
	"github.com/jamplate/jamplate/internal/tree"
	"github.com/jamplate/jamplate/internal/value"
)

// No unary minus: a leading "-" is always the subtraction operator,
// never part of a number literal, so it can never collide with
// op:sub's own single-rune match over the same span.
var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

var operatorPatterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{"op:product", regexp.MustCompile(`\*`)},
	{"op:div", regexp.MustCompile(`/`)},
	{"op:mod", regexp.MustCompile(`%`)},
	{"op:sum", regexp.MustCompile(`\+`)},
	{"op:sub", regexp.MustCompile(`-`)},
}

// numberLeaf compiles a "number" sketch straight to the number it
// names — no text fallback, unlike a raw ToPushConst leaf.
type numberLeaf struct{}

func (numberLeaf) Compile(c *compiler.Compilation, node tree.NodeID) (instruction.Instruction, error) {
	t := c.Tree
	text, err := t.Document().Slice(t.Position(node), t.End(node))
	if err != nil {
		return nil, err
	}
	f, ok := value.ParseNumber(text)
	if !ok {
		return nil, errs.NewCompile(t.SourceRef(node), "malformed number literal %q", text)
	}
	return &instruction.PushConst{Value: value.NewNumber(f)}, nil
}

// binaryExprCompiler compiles one of the expr:* wrapper kinds
// BinaryOperator produces, recursing into Expr for the two operand
// components and appending the matching opcode leaf, which pops them
// (right then left) per the stack-machine convention every arithmetic
// leaf instruction already assumes.
type binaryExprCompiler struct {
	kind string
	expr compiler.Compiler
	leaf func(source errs.SourceRef) instruction.Instruction
}

func (b *binaryExprCompiler) Compile(c *compiler.Compilation, node tree.NodeID) (instruction.Instruction, error) {
	t := c.Tree
	sk := t.Sketch(node)
	if sk == nil || sk.Kind != b.kind {
		return nil, nil
	}
	leftID, _ := sk.Component("left")
	rightID, _ := sk.Component("right")
	left, err := b.expr.Compile(c, leftID)
	if err != nil {
		return nil, err
	}
	right, err := b.expr.Compile(c, rightID)
	if err != nil {
		return nil, err
	}
	if left == nil || right == nil {
		return nil, errs.NewCompile(t.SourceRef(node), "%s: unresolved operand", b.kind)
	}
	return instruction.NewBlock(t.SourceRef(node), left, right, b.leaf(t.SourceRef(node))), nil
}

// parenCompiler compiles a grouping enclosure transparently to
// whatever its single inner expression compiles to: parens exist only
// to steer the analyzer's left/right neighbor search, not to leave a
// runtime trace of their own.
type parenCompiler struct {
	expr compiler.Compiler
}

func (p *parenCompiler) Compile(c *compiler.Compilation, node tree.NodeID) (instruction.Instruction, error) {
	t := c.Tree
	sk := t.Sketch(node)
	if sk == nil || sk.Kind != "paren" {
		return nil, nil
	}
	bodyID, ok := sk.Component("body")
	if !ok {
		return nil, errs.NewCompile(t.SourceRef(node), "paren missing body component")
	}
	children := t.Children(bodyID)
	if len(children) != 1 {
		return nil, errs.NewCompile(t.SourceRef(node), "paren body must hold exactly one expression, got %d", len(children))
	}
	return p.expr.Compile(c, children[0])
}

// ExprCompiler returns the compiler for one arithmetic expression
// node (number, paren, or any expr:* operator wrapper), the leaf the
// Directives bundle's bracket-substitution compiler and any other
// spec needing an arithmetic sub-expression recurse into.
func ExprCompiler() compiler.Compiler {
	expr := &compiler.Fallback{}
	expr.Compilers = []compiler.Compiler{
		&compiler.KindFilter{Kind: "number", Inner: numberLeaf{}},
		&parenCompiler{expr: expr},
		&binaryExprCompiler{kind: "expr:product", expr: expr, leaf: func(s errs.SourceRef) instruction.Instruction { return instruction.NewProduct(s) }},
		&binaryExprCompiler{kind: "expr:div", expr: expr, leaf: func(s errs.SourceRef) instruction.Instruction { return instruction.NewDiv(s) }},
		&binaryExprCompiler{kind: "expr:mod", expr: expr, leaf: func(s errs.SourceRef) instruction.Instruction { return instruction.NewMod(s) }},
		&binaryExprCompiler{kind: "expr:sum", expr: expr, leaf: func(s errs.SourceRef) instruction.Instruction { return instruction.NewSum(s) }},
		&binaryExprCompiler{kind: "expr:sub", expr: expr, leaf: func(s errs.SourceRef) instruction.Instruction { return instruction.NewSub(s) }},
	}
	return expr
}

func operatorQuery(kind string) analyzer.Query { return analyzer.IsKind(kind) }

func binaryAnalyzer(opKind, exprKind string) analyzer.Analyzer {
	return &analyzer.BinaryOperator{
		Operator: operatorQuery(opKind),
		New: func(tree.NodeID) *tree.Sketch {
			return tree.NewSketch(exprKind, 1)
		},
	}
}

// Arithmetic is the numeric-expression dialect of spec.md §8 scenario
// 1: decimal literals, the five infix operators, and "(" ")"
// grouping, with "*", "/", "%" binding tighter than "+", "-" via a
// two-tier analyzer.
func Arithmetic() *Spec {
	expr := ExprCompiler()

	numberParser := &parser.Pattern{
		Regex: numberPattern,
		New:   func([]string) *tree.Sketch { return tree.NewSketch("number", 2) },
	}
	var opParsers parser.Many
	for _, op := range operatorPatterns {
		op := op
		opParsers = append(opParsers, &parser.Pattern{
			Regex: op.re,
			New:   func([]string) *tree.Sketch { return tree.NewSketch(op.kind, 1) },
		})
	}
	parenParser := &parser.Enclosure{
		Open:         regexp.MustCompile(`\(`),
		Close:        regexp.MustCompile(`\)`),
		NewEnclosure: func() *tree.Sketch { return tree.NewSketch("paren", 2) },
		NewOpen:      func() *tree.Sketch { return tree.NewSketch("paren:open", 0) },
		NewClose:     func() *tree.Sketch { return tree.NewSketch("paren:close", 0) },
		NewBody:      func() *tree.Sketch { return tree.NewSketch("paren:body", 0) },
	}

	var many parser.Many
	many = append(many, numberParser)
	many = append(many, opParsers...)
	many = append(many, parenParser)

	tiered := &analyzer.Tiered{
		MaxPasses: 64,
		Stages: []analyzer.Analyzer{
			&analyzer.Hierarchy{Inner: multiAnalyzer{
				binaryAnalyzer("op:product", "expr:product"),
				binaryAnalyzer("op:div", "expr:div"),
				binaryAnalyzer("op:mod", "expr:mod"),
			}},
			&analyzer.Hierarchy{Inner: multiAnalyzer{
				binaryAnalyzer("op:sum", "expr:sum"),
				binaryAnalyzer("op:sub", "expr:sub"),
			}},
		},
	}

	return &Spec{
		Name:     "arithmetic",
		Parser:   many,
		Analyzer: tiered,
		Compiler: &compiler.Fallback{Compilers: []compiler.Compiler{expr}},
	}
}

// ArithmeticDocument returns a root-level compiler that treats the
// whole document as a single expression, prints its value, and
// mirrors any stray surrounding text verbatim — the entry point
// spec.md §8 scenario 1 drives when the arithmetic spec runs on its
// own, with no directive template wrapped around it.
func ArithmeticDocument() compiler.Compiler {
	expr := ExprCompiler()
	return &compiler.VerbatimBody{
		Outer:     expr,
		Printable: func(string) bool { return true },
	}
}
