package spec

import (
	"regexp"
	"strings"

	"github.com/jamplate/jamplate/internal/compiler"
	"github.com/jamplate/jamplate/internal/errs"
	"github.com/jamplate/jamplate/internal/instruction"
	"github.com/jamplate/jamplate/internal/parser"
	"github.com/jamplate/jamplate/internal/tree"
	"github.com/jamplate/jamplate/internal/value"
)

// objectCompiler reads a "{...}" enclosure's raw body text directly
// rather than decomposing it into a sub-tree: parser.Pattern has no
// way to emit nested sub-component children for each "key:value"
// entry, and a hand-rolled entry parser here is the teacher-shown
// shortcut for "the detail is below this framework's resolution"
// (the same move the directive-args node already makes, leaving
// condition/iterable text for its compiler to split).
type objectCompiler struct{}

func (objectCompiler) Compile(c *compiler.Compilation, node tree.NodeID) (instruction.Instruction, error) {
	t := c.Tree
	sk := t.Sketch(node)
	if sk == nil || sk.Kind != "object" {
		return nil, nil
	}
	bodyID, ok := sk.Component("body")
	if !ok {
		return nil, errs.NewCompile(t.SourceRef(node), "object missing body component")
	}
	text, err := t.Document().Slice(t.Position(bodyID), t.End(bodyID))
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)

	var items []instruction.Instruction
	if text != "" {
		for _, entry := range strings.Split(text, ",") {
			k, v, ok := strings.Cut(entry, ":")
			if !ok {
				return nil, errs.NewCompile(t.SourceRef(bodyID), "malformed object entry %q, want key:value", entry)
			}
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			items = append(items, &instruction.PushPair{
				Key: &instruction.PushConst{Value: value.NewText(k)},
				Val: &instruction.PushConst{Value: value.NewText(v)},
			})
		}
	}
	return &instruction.PushObject{Items: items}, nil
}

// Pairs is the object/pair-literal dialect of spec.md §8 scenario 5:
// "{key:value,...}" parses to one KindObject value whose fields
// stringify as raw, unevaluated text.
func Pairs() *Spec {
	enclosure := &parser.Enclosure{
		Open:         regexp.MustCompile(`\{`),
		Close:        regexp.MustCompile(`\}`),
		NewEnclosure: func() *tree.Sketch { return tree.NewSketch("object", 2) },
		NewOpen:      func() *tree.Sketch { return tree.NewSketch("object:open", 0) },
		NewClose:     func() *tree.Sketch { return tree.NewSketch("object:close", 0) },
		NewBody:      func() *tree.Sketch { return tree.NewSketch("object:body", 0) },
	}

	return &Spec{
		Name:     "pairs",
		Parser:   enclosure,
		Compiler: &compiler.KindFilter{Kind: "object", Inner: objectCompiler{}},
	}
}

// PairsDocument returns a root-level compiler that treats the whole
// document as one object literal and prints its canonical stringified
// form — the entry point spec.md §8 scenario 5 drives when the pairs
// spec runs on its own.
func PairsDocument() compiler.Compiler {
	return &compiler.VerbatimBody{
		Outer:     objectCompiler{},
		Printable: func(string) bool { return true },
	}
}
