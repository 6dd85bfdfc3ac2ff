// Package memory implements the stack-machine runtime state of
// spec.md §3.7: a push-down frame stack of Values, a keyed heap with
// a synchronized DEFINE mirror, and an append-only console.
package memory

import (
	"strings"

	"github.com/jamplate/jamplate/internal/errs"
	"github.com/jamplate/jamplate/internal/value"
)

// Memory is single-owner, single-threaded runtime state, scoped to
// one execution of a compiled instruction tree.
type Memory struct {
	frames  []*frame
	heap    map[string]value.Value
	console strings.Builder
}

// New builds a fresh Memory with one (root) frame and an empty heap.
func New() *Memory {
	return &Memory{
		frames: []*frame{newFrame()},
		heap:   map[string]value.Value{},
	}
}

func (m *Memory) top() *frame {
	return m.frames[len(m.frames)-1]
}

// Push pushes v onto the current frame's stack.
func (m *Memory) Push(v value.Value) {
	m.top().push(v)
}

// Pop pops the top value off the current frame's stack.
func (m *Memory) Pop() (value.Value, error) {
	v, ok := m.top().pop()
	if !ok {
		return nil, errs.IllegalState("pop from empty frame")
	}
	return v, nil
}

// Peek returns the top value of the current frame's stack without
// removing it.
func (m *Memory) Peek() (value.Value, error) {
	v, ok := m.top().peek()
	if !ok {
		return nil, errs.IllegalState("peek on empty frame")
	}
	return v, nil
}

// PushFrame opens a new, empty frame on top of the frame stack.
func (m *Memory) PushFrame() {
	m.frames = append(m.frames, newFrame())
}

// PopFrame closes and returns the top frame. The root frame (the one
// PushFrame never opened) can never be popped.
func (m *Memory) PopFrame() (*frame, error) {
	if len(m.frames) <= 1 {
		return nil, errs.IllegalState("pop of root frame")
	}
	f := m.top()
	m.frames = m.frames[:len(m.frames)-1]
	return f, nil
}

// DumpFrame closes the top frame and discards its contents.
func (m *Memory) DumpFrame() error {
	_, err := m.PopFrame()
	return err
}

// JoinFrame closes the top frame, concatenates its values (evaluated
// in order, lazily) into a single KindText value, pushes that value
// onto the new top frame, and returns it.
func (m *Memory) JoinFrame() (value.Value, error) {
	f, err := m.PopFrame()
	if err != nil {
		return nil, err
	}
	elements := append([]value.Value(nil), f.stack...)
	joined := value.NewTextFunc(func(env value.Env) (string, error) {
		var sb strings.Builder
		for _, el := range elements {
			text, err := el.Evaluate(env)
			if err != nil {
				return "", err
			}
			sb.WriteString(text)
		}
		return sb.String(), nil
	})
	m.Push(joined)
	return joined, nil
}

// GlueFrame closes the top frame and casts its values into a single
// homogeneous KindArray value, pushed onto the new top frame and
// returned — spec.md §4.5's "join but casting" variant, used where a
// caller wants the frame's elements as a collection rather than text.
func (m *Memory) GlueFrame() (value.Value, error) {
	f, err := m.PopFrame()
	if err != nil {
		return nil, err
	}
	elements := append([]value.Value(nil), f.stack...)
	glued := value.NewArray(elements)
	m.Push(glued)
	return glued, nil
}

// Print appends text to the console.
func (m *Memory) Print(text string) {
	m.console.WriteString(text)
}

// ConsoleText returns everything printed so far.
func (m *Memory) ConsoleText() string {
	return m.console.String()
}
