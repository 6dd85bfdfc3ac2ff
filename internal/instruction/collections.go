package instruction

import (
	"github.com/jamplate/jamplate/internal/memory"
	"github.com/jamplate/jamplate/internal/value"
)

// PushPair runs Key then Val, pops their results (val first, since it
// was pushed last) and pushes a KindPair value combining them. Used
// to compile a "key:value" expression inside an object literal.
type PushPair struct {
	Key, Val Instruction
}

func (p *PushPair) Exec(env Env, m *memory.Memory) error {
	if err := p.Key.Exec(env, m); err != nil {
		return err
	}
	if err := p.Val.Exec(env, m); err != nil {
		return err
	}
	v, err := m.Pop()
	if err != nil {
		return err
	}
	k, err := m.Pop()
	if err != nil {
		return err
	}
	m.Push(value.NewPair(k, v))
	return nil
}

// PushArray runs each of Items in its own frame and glues the
// results into a single KindArray value — the array-literal
// counterpart of GlueFrame.
type PushArray struct {
	Items []Instruction
}

func (p *PushArray) Exec(env Env, m *memory.Memory) error {
	m.PushFrame()
	for _, item := range p.Items {
		if err := item.Exec(env, m); err != nil {
			return err
		}
	}
	_, err := m.GlueFrame()
	return err
}

// PushObject runs each of Items (expected to each push one KindPair
// value, typically via PushPair) in its own frame and collects the
// results into a single KindObject value.
type PushObject struct {
	Items []Instruction
}

func (p *PushObject) Exec(env Env, m *memory.Memory) error {
	m.PushFrame()
	for _, item := range p.Items {
		if err := item.Exec(env, m); err != nil {
			return err
		}
	}
	f, err := m.PopFrame()
	if err != nil {
		return err
	}
	pairs := make([]value.KV, 0, len(f.Values()))
	for _, v := range f.Values() {
		pr, ok := v.(value.Pairer)
		if !ok {
			continue
		}
		k, val, err := pr.Parts(m)
		if err != nil {
			return err
		}
		pairs = append(pairs, value.KV{Key: k, Val: val})
	}
	m.Push(value.NewObject(pairs))
	return nil
}
