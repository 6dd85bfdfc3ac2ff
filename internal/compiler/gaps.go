package compiler

import (
	"github.com/jamplate/jamplate/internal/instruction"
	"github.com/jamplate/jamplate/internal/tree"
)

// VerbatimBody compiles a node (typically a directive body or the
// document root) by walking its direct children in document order and
// reprinting whatever lies between them verbatim: unlike Flatten,
// which only ever compiles nodes the tree already sketched, VerbatimBody
// also mirrors the raw, never-sketched gap text around those children
// straight to the console via instruction.PrintConst — spec.md's
// "read(tree)"-over-a-span default for plain template text.
//
// Outer compiles each recognized child; a child no compiler in Outer
// recognizes is skipped (its own gap text either side still prints).
// Printable decides whether a compiled child's result needs wrapping
// in instruction.PrintExec — true for an expression sketch that only
// pushes a value (a bracket substitution), false for a sketch whose
// own compiled form already prints on Exec (a nested if-context or
// for-context, whose branches recurse into their own VerbatimBody).
type VerbatimBody struct {
	Outer     Compiler
	Printable func(kind string) bool
}

func (vb *VerbatimBody) Compile(c *Compilation, node tree.NodeID) (instruction.Instruction, error) {
	t := c.Tree
	doc := t.Document()
	cursor := t.Position(node)
	end := t.End(node)

	var items []instruction.Instruction
	emitGap := func(from, to int) error {
		if to <= from {
			return nil
		}
		text, err := doc.Slice(from, to)
		if err != nil {
			return err
		}
		if text != "" {
			items = append(items, &instruction.PrintConst{Text: text})
		}
		return nil
	}

	for _, child := range t.Children(node) {
		childStart := t.Position(child)
		if err := emitGap(cursor, childStart); err != nil {
			return nil, err
		}

		compiled, err := vb.Outer.Compile(c, child)
		if err != nil {
			return nil, err
		}
		if compiled != nil {
			if sk := t.Sketch(child); sk != nil && vb.Printable != nil && vb.Printable(sk.Kind) {
				compiled = &instruction.PrintExec{Instr: compiled}
			}
			items = append(items, compiled)
		}
		cursor = t.End(child)
	}
	if err := emitGap(cursor, end); err != nil {
		return nil, err
	}

	return instruction.NewBlock(t.SourceRef(node), items...), nil
}
