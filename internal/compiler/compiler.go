// Package compiler implements spec.md §4.4's compiler framework: a
// Compiler lowers an enriched tree into an Instruction, with
// kind-filter / fallback / first-match / flatten combinators driving
// which concrete compiler handles which node. Unlike parser and
// analyzer, compilation is not iterated — it walks the tree exactly
// once and produces a single root Instruction.
package compiler

import (
	"github.com/jamplate/jamplate/internal/errs"
	"github.com/jamplate/jamplate/internal/instruction"
	"github.com/jamplate/jamplate/internal/tree"
)

// Compilation is the per-document state a Compiler operates over.
// Mirrors parser.Compilation and analyzer.Compilation deliberately:
// all three phases share the same tree, just at different points.
type Compilation struct {
	Tree *tree.Tree
}

// NewCompilation wraps t for compilation.
func NewCompilation(t *tree.Tree) *Compilation {
	return &Compilation{Tree: t}
}

// Compiler maps a tree node to an Instruction, or to nil when this
// compiler has nothing to say about node — the caller (typically a
// Fallback) is expected to try another compiler or treat a nil result
// as "no match" rather than an error.
type Compiler interface {
	Compile(c *Compilation, node tree.NodeID) (instruction.Instruction, error)
}

// KindFilter compiles node with Inner only when its sketch kind
// equals Kind, otherwise reports no match.
type KindFilter struct {
	Kind  string
	Inner Compiler
}

func (k *KindFilter) Compile(c *Compilation, node tree.NodeID) (instruction.Instruction, error) {
	sk := c.Tree.Sketch(node)
	if sk == nil || sk.Kind != k.Kind {
		return nil, nil
	}
	return k.Inner.Compile(c, node)
}

// Fallback tries each of Compilers in order, returning the first
// non-nil result. Ordering matters: this is how a spec-bundle
// registry composes several specs' compilers into one (spec.md §6).
type Fallback struct {
	Compilers []Compiler
}

func (f *Fallback) Compile(c *Compilation, node tree.NodeID) (instruction.Instruction, error) {
	for _, comp := range f.Compilers {
		r, err := comp.Compile(c, node)
		if err != nil {
			return nil, err
		}
		if r != nil {
			return r, nil
		}
	}
	return nil, nil
}

// FirstCompile is like Fallback but applies Compilers across node's
// children rather than to node itself: for each child, the first
// compiler in Compilers that matches wins. Children no compiler
// matches are silently skipped. The result is a Block over whatever
// each child compiled to, in document order.
type FirstCompile struct {
	Compilers []Compiler
}

func (fc *FirstCompile) Compile(c *Compilation, node tree.NodeID) (instruction.Instruction, error) {
	fallback := &Fallback{Compilers: fc.Compilers}
	var items []instruction.Instruction
	for _, child := range c.Tree.Children(node) {
		r, err := fallback.Compile(c, child)
		if err != nil {
			return nil, err
		}
		if r != nil {
			items = append(items, r)
		}
	}
	return instruction.NewBlock(c.Tree.SourceRef(node), items...), nil
}

// Flatten produces a Block whose body is the result of applying Outer
// to every node of node's subtree in depth-first, document order; for
// any node Outer does not handle, Inner is tried as the default leaf
// compiler (spec.md §4.4's "acts as a default leaf compiler"). A node
// neither compiler handles contributes nothing to the Block.
type Flatten struct {
	Inner, Outer Compiler
}

func (fl *Flatten) Compile(c *Compilation, node tree.NodeID) (instruction.Instruction, error) {
	var items []instruction.Instruction
	for _, id := range c.Tree.Collect(node) {
		r, err := fl.Outer.Compile(c, id)
		if err != nil {
			return nil, err
		}
		if r == nil {
			r, err = fl.Inner.Compile(c, id)
			if err != nil {
				return nil, err
			}
		}
		if r != nil {
			items = append(items, r)
		}
	}
	return instruction.NewBlock(c.Tree.SourceRef(node), items...), nil
}

// Mandatory wraps Inner; a nil result is promoted to a CompileError
// rather than silently propagated, for call sites where "no compiler
// matched" is itself a structural error (spec.md §4.4).
type Mandatory struct {
	Inner Compiler
}

func (m *Mandatory) Compile(c *Compilation, node tree.NodeID) (instruction.Instruction, error) {
	r, err := m.Inner.Compile(c, node)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errs.NewCompile(c.Tree.SourceRef(node), "no compiler matched")
	}
	return r, nil
}

// ToIdle unconditionally compiles node to instruction.Idle, for
// sketch kinds that carry no runtime behavior of their own (comments,
// pure-markup anchors).
type ToIdle struct{}

func (ToIdle) Compile(c *Compilation, node tree.NodeID) (instruction.Instruction, error) {
	return instruction.Idle{}, nil
}

// Empty unconditionally reports no match. Used as an explicit,
// self-documenting placeholder where spec.md calls for a compiler
// constant that always returns null.
type Empty struct{}

func (Empty) Compile(c *Compilation, node tree.NodeID) (instruction.Instruction, error) {
	return nil, nil
}
