package instruction

import (
	"github.com/jamplate/jamplate/internal/memory"
	"github.com/jamplate/jamplate/internal/value"
)

// PushConst pushes a precomputed, compile-time constant value.
type PushConst struct {
	Value value.Value
}

func (p *PushConst) Exec(env Env, m *memory.Memory) error {
	m.Push(p.Value)
	return nil
}

// Pop discards the top value of the current frame.
type Pop struct{}

func (Pop) Exec(env Env, m *memory.Memory) error {
	_, err := m.Pop()
	return err
}

// Dup duplicates the top value of the current frame.
type Dup struct{}

func (Dup) Exec(env Env, m *memory.Memory) error {
	v, err := m.Peek()
	if err != nil {
		return err
	}
	m.Push(v)
	return nil
}

// PushFrame opens a new frame.
type PushFrame struct{}

func (PushFrame) Exec(env Env, m *memory.Memory) error {
	m.PushFrame()
	return nil
}

// DumpFrame closes the top frame and discards its contents.
type DumpFrame struct{}

func (DumpFrame) Exec(env Env, m *memory.Memory) error {
	return m.DumpFrame()
}

// JoinFrame closes the top frame, concatenating its values as text.
type JoinFrame struct{}

func (JoinFrame) Exec(env Env, m *memory.Memory) error {
	_, err := m.JoinFrame()
	return err
}

// GlueFrame closes the top frame, casting its values into an array.
type GlueFrame struct{}

func (GlueFrame) Exec(env Env, m *memory.Memory) error {
	_, err := m.GlueFrame()
	return err
}

// Idle performs no operation. Compilers emit it for sketch nodes that
// carry no runtime behavior of their own (e.g. a comment directive).
type Idle struct{}

func (Idle) Exec(env Env, m *memory.Memory) error {
	return nil
}
