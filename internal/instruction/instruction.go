// Package instruction implements the stack-machine opcode tree of
// spec.md §4.5: a Block of ordered children plus instructions for
// stack/frame, heap, arithmetic, control-flow and I/O operations,
// every one executed against a *memory.Memory.
package instruction

import (
	"github.com/jamplate/jamplate/internal/errs"
	"github.com/jamplate/jamplate/internal/memory"
)

// Env is the narrow capability an instruction needs from its
// surrounding compilation environment: resolving an import by
// document name to its compiled root instruction. Defined here
// (rather than consumed from the environment package) so instruction
// never imports environment — environment imports instruction to hold
// the trees it compiles, and its *Environment type satisfies this
// interface structurally.
type Env interface {
	Import(name string) (Instruction, error)
}

// Instruction is one node of the compiled opcode tree. A Block holds
// an ordered list of children; control-flow, collection, Repalloc and
// the exec-style I/O instructions hold their operands as
// sub-instructions; the rest are leaves.
type Instruction interface {
	Exec(env Env, m *memory.Memory) error
}

// Sourced is implemented by instructions that carry diagnostic source
// information for error reporting.
type Sourced interface {
	Source() errs.SourceRef
}

// Block executes its children in order. It is the generic sequencing
// instruction; other opcodes hold sub-instructions only as named
// operands.
type Block struct {
	Items  []Instruction
	source errs.SourceRef
}

// NewBlock builds a Block over items, optionally anchored at ref for
// diagnostics.
func NewBlock(ref errs.SourceRef, items ...Instruction) *Block {
	return &Block{Items: items, source: ref}
}

func (b *Block) Exec(env Env, m *memory.Memory) error {
	for _, item := range b.Items {
		if err := item.Exec(env, m); err != nil {
			return err
		}
	}
	return nil
}

func (b *Block) Source() errs.SourceRef { return b.source }
