package instruction

import (
	"github.com/jamplate/jamplate/internal/errs"
	"github.com/jamplate/jamplate/internal/memory"
	"github.com/jamplate/jamplate/internal/value"
)

// Branch executes Cond, pops and evaluates its result, then runs Then
// when the result is truthy or Else (if present) otherwise. This is
// the instruction the analyzer's right-to-left #if/#elifdef/#else
// assembly (spec.md's "nested Branch construction") bottoms out to.
type Branch struct {
	Cond Instruction
	Then Instruction
	Else Instruction // nil when there is no else/elif tail
}

func (b *Branch) Exec(env Env, m *memory.Memory) error {
	if err := b.Cond.Exec(env, m); err != nil {
		return err
	}
	v, err := m.Pop()
	if err != nil {
		return err
	}
	text, err := v.Evaluate(m)
	if err != nil {
		return err
	}
	if value.IsFalsy(text) {
		if b.Else != nil {
			return b.Else.Exec(env, m)
		}
		return nil
	}
	return b.Then.Exec(env, m)
}

// Iped (spec.md's IpedXinstr) runs its children in a dedicated frame
// and then dumps that frame, so the instruction is idempotent with
// respect to the surrounding stack depth regardless of what the
// children push onto it.
type Iped struct {
	Items []Instruction
}

func (p *Iped) Exec(env Env, m *memory.Memory) error {
	m.PushFrame()
	for _, item := range p.Items {
		if err := item.Exec(env, m); err != nil {
			return err
		}
	}
	return m.DumpFrame()
}

// Fped (spec.md's FpedAddrExecInstrXinstr) is the #for loop
// instruction: it runs Iterable, pops its result, requires the result
// to be an array, and then runs Body once per element with Addr bound
// to that element. The binding is freed once the loop completes.
type Fped struct {
	Addr     string
	Iterable Instruction
	Body     Instruction
	source   errs.SourceRef
}

func NewFped(source errs.SourceRef, addr string, iterable, body Instruction) *Fped {
	return &Fped{Addr: addr, Iterable: iterable, Body: body, source: source}
}

func (f *Fped) Exec(env Env, m *memory.Memory) error {
	if err := f.Iterable.Exec(env, m); err != nil {
		return err
	}
	iterVal, err := m.Pop()
	if err != nil {
		return err
	}
	arr, ok := iterVal.(value.Arrayer)
	if !ok {
		return errs.NewExec(f.source, "for-loop iterable is not an array")
	}
	elements, err := arr.Elements(m)
	if err != nil {
		return err
	}
	for _, el := range elements {
		m.HeapSet(f.Addr, el)
		if err := f.Body.Exec(env, m); err != nil {
			return err
		}
	}
	m.HeapFree(f.Addr)
	return nil
}

func (f *Fped) Source() errs.SourceRef { return f.source }

// Import (spec.md's ExecImportExecInstr) evaluates NameInstr to get a
// document name, resolves it through env, executes the resolved root
// against a fresh, isolated Memory, and pushes the captured console
// text of that sub-execution as the import's result. Cycle detection
// against re-entrant imports is env's responsibility (Environment.Import
// tracks the active import chain), not this instruction's.
type Import struct {
	NameInstr Instruction
	source    errs.SourceRef
}

func NewImport(source errs.SourceRef, nameInstr Instruction) *Import {
	return &Import{NameInstr: nameInstr, source: source}
}

func (im *Import) Exec(env Env, m *memory.Memory) error {
	if err := im.NameInstr.Exec(env, m); err != nil {
		return err
	}
	nameVal, err := m.Pop()
	if err != nil {
		return err
	}
	name, err := nameVal.Evaluate(m)
	if err != nil {
		return err
	}
	root, err := env.Import(name)
	if err != nil {
		return err
	}
	sub := memory.New()
	if err := root.Exec(env, sub); err != nil {
		return err
	}
	m.Push(value.NewText(sub.ConsoleText()))
	return nil
}

func (im *Import) Source() errs.SourceRef { return im.source }
