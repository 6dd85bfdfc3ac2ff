package instruction

import (
	"github.com/jamplate/jamplate/internal/memory"
	"github.com/jamplate/jamplate/internal/value"
)

// Access reads a heap address and pushes its value (or an empty text
// value if the address is unset — an undefined reference renders as
// nothing rather than failing the whole execution). Addr is used
// directly unless FromStack, in which case the address is taken by
// popping and evaluating the top of the current frame first.
type Access struct {
	Addr      string
	FromStack bool
}

func (a *Access) Exec(env Env, m *memory.Memory) error {
	addr := a.Addr
	if a.FromStack {
		v, err := m.Pop()
		if err != nil {
			return err
		}
		text, err := v.Evaluate(m)
		if err != nil {
			return err
		}
		addr = text
	}
	v, ok := m.HeapGet(addr)
	if !ok {
		v = value.NewText("")
	}
	m.Push(v)
	return nil
}

// Alloc writes a precomputed value directly to a heap address, with
// no DEFINE bookkeeping — used for compiler-managed scratch addresses
// that are never visible to #ifdef/#ifndef.
type Alloc struct {
	Addr  string
	Value value.Value
}

func (a *Alloc) Exec(env Env, m *memory.Memory) error {
	m.HeapSet(a.Addr, a.Value)
	return nil
}

// Repalloc (spec.md's RepllocAddrExecInstr) executes Instr in its own
// frame, joins the frame into a single value, stores that value at
// Addr, and mirrors it into the DEFINE map so DefAddr/NdefAddr observe
// the binding. This is the instruction #define compiles to.
type Repalloc struct {
	Addr  string
	Instr Instruction
}

func (r *Repalloc) Exec(env Env, m *memory.Memory) error {
	m.PushFrame()
	if err := r.Instr.Exec(env, m); err != nil {
		return err
	}
	joined, err := m.JoinFrame()
	if err != nil {
		return err
	}
	if _, err := m.Pop(); err != nil {
		return err
	}
	m.HeapSet(r.Addr, joined)
	text, err := joined.Evaluate(m)
	if err != nil {
		return err
	}
	return m.DefineSet(r.Addr, text)
}

// FreeAddr removes Addr from both the heap and the DEFINE mirror —
// the instruction #undef compiles to.
type FreeAddr struct {
	Addr string
}

func (f *FreeAddr) Exec(env Env, m *memory.Memory) error {
	m.HeapFree(f.Addr)
	return m.DefineUnset(f.Addr)
}

// Repfree (spec.md's RepreeAddr) removes Addr from the DEFINE mirror
// only, leaving the heap slot itself intact. #declare's counterpart to
// #define: a declared symbol stops satisfying #ifdef without losing
// its stored value.
type Repfree struct {
	Addr string
}

func (r *Repfree) Exec(env Env, m *memory.Memory) error {
	return m.DefineUnset(r.Addr)
}

// DefAddr pushes a 1/0 boolean text based on whether Addr is present
// in the DEFINE mirror.
type DefAddr struct {
	Addr string
}

func (d *DefAddr) Exec(env Env, m *memory.Memory) error {
	has, err := m.DefineHas(d.Addr)
	if err != nil {
		return err
	}
	m.Push(boolValue(has))
	return nil
}

// NdefAddr is DefAddr's negation: pushes 1 when Addr is absent.
type NdefAddr struct {
	Addr string
}

func (n *NdefAddr) Exec(env Env, m *memory.Memory) error {
	has, err := m.DefineHas(n.Addr)
	if err != nil {
		return err
	}
	m.Push(boolValue(!has))
	return nil
}

func boolValue(b bool) value.Value {
	if b {
		return value.NewNumber(1)
	}
	return value.NewNumber(0)
}
