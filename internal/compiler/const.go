package compiler

import (
	"github.com/jamplate/jamplate/internal/instruction"
	"github.com/jamplate/jamplate/internal/tree"
	"github.com/jamplate/jamplate/internal/value"
)

// ToPushConst unconditionally compiles node to a PushConst holding
// node's raw source text (spec.md §4.4's "read(tree)") — the default
// leaf compiler for sketch kinds that pass their literal span through
// unevaluated.
type ToPushConst struct{}

func (ToPushConst) Compile(c *Compilation, node tree.NodeID) (instruction.Instruction, error) {
	t := c.Tree
	text, err := t.Document().Slice(t.Position(node), t.End(node))
	if err != nil {
		return nil, err
	}
	return &instruction.PushConst{Value: value.NewText(text)}, nil
}
