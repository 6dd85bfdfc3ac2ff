package memory

import "github.com/jamplate/jamplate/internal/value"

// frame is one scoped sub-stack of the frame stack (spec.md §3.7).
type frame struct {
	stack []value.Value
}

func newFrame() *frame {
	return &frame{}
}

func (f *frame) push(v value.Value) {
	f.stack = append(f.stack, v)
}

func (f *frame) pop() (value.Value, bool) {
	if len(f.stack) == 0 {
		return nil, false
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, true
}

func (f *frame) peek() (value.Value, bool) {
	if len(f.stack) == 0 {
		return nil, false
	}
	return f.stack[len(f.stack)-1], true
}

// Values returns a snapshot of the frame's contents in push order.
// Exported so callers outside this package that hold a *frame (via
// Memory.PopFrame) can inspect its raw values — used by the
// PushObject instruction to collect pair values without the
// text-joining JoinFrame/GlueFrame perform.
func (f *frame) Values() []value.Value {
	return append([]value.Value(nil), f.stack...)
}
