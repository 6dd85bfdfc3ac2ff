package memory

import (
	"testing"

	"github.com/jamplate/jamplate/internal/value"
)

func TestPushPopPeek(t *testing.T) {
	m := New()
	m.Push(value.NewText("a"))
	m.Push(value.NewText("b"))

	top, err := m.Peek()
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := top.Evaluate(m); s != "b" {
		t.Fatalf("Peek() = %q, want b", s)
	}

	v, err := m.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := v.Evaluate(m); s != "b" {
		t.Fatalf("Pop() = %q, want b", s)
	}

	v, err = m.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := v.Evaluate(m); s != "a" {
		t.Fatalf("Pop() = %q, want a", s)
	}

	if _, err := m.Pop(); err == nil {
		t.Fatal("expected error popping empty frame")
	}
}

func TestRootFrameCannotBePopped(t *testing.T) {
	m := New()
	if _, err := m.PopFrame(); err == nil {
		t.Fatal("expected error popping root frame")
	}
}

func TestJoinFrameConcatenates(t *testing.T) {
	m := New()
	m.PushFrame()
	m.Push(value.NewText("a"))
	m.Push(value.NewNumber(2))
	m.Push(value.NewText("c"))

	joined, err := m.JoinFrame()
	if err != nil {
		t.Fatal(err)
	}
	got, _ := joined.Evaluate(m)
	if got != "a2c" {
		t.Fatalf("JoinFrame() = %q, want a2c", got)
	}
	// joined value is left on the (now current) frame too.
	top, err := m.Peek()
	if err != nil || top != joined {
		t.Fatalf("joined value not left on stack: %v, %v", top, err)
	}
}

func TestGlueFrameProducesArray(t *testing.T) {
	m := New()
	m.PushFrame()
	m.Push(value.NewNumber(1))
	m.Push(value.NewNumber(2))

	glued, err := m.GlueFrame()
	if err != nil {
		t.Fatal(err)
	}
	if glued.Kind() != value.KindArray {
		t.Fatalf("GlueFrame() kind = %v, want KindArray", glued.Kind())
	}
	elems, err := glued.(value.Arrayer).Elements(m)
	if err != nil || len(elems) != 2 {
		t.Fatalf("Elements() = %v, %v", elems, err)
	}
}

func TestDumpFrameDiscards(t *testing.T) {
	m := New()
	m.Push(value.NewText("keep"))
	m.PushFrame()
	m.Push(value.NewText("discard"))
	if err := m.DumpFrame(); err != nil {
		t.Fatal(err)
	}
	v, err := m.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := v.Evaluate(m); s != "keep" {
		t.Fatalf("Pop() = %q, want keep (frame above should have been discarded)", s)
	}
}

func TestHeapSetGetFree(t *testing.T) {
	m := New()
	m.HeapSet("X", value.NewText("5"))
	v, ok := m.HeapGet("X")
	if !ok {
		t.Fatal("expected X present")
	}
	if s, _ := v.Evaluate(m); s != "5" {
		t.Fatalf("HeapGet(X) = %q, want 5", s)
	}
	m.HeapFree("X")
	if _, ok := m.HeapGet("X"); ok {
		t.Fatal("expected X removed")
	}
}

func TestHeapCompute(t *testing.T) {
	m := New()
	result := m.HeapCompute("counter", func(current value.Value, exists bool) value.Value {
		n := 0.0
		if exists {
			s, _ := current.Evaluate(m)
			f, _ := value.ParseNumber(s)
			n = f
		}
		return value.NewNumber(n + 1)
	})
	s, _ := result.Evaluate(m)
	if s != "1" {
		t.Fatalf("HeapCompute() = %q, want 1", s)
	}
}

func TestDefineSetUnsetHas(t *testing.T) {
	m := New()
	if has, err := m.DefineHas("X"); err != nil || has {
		t.Fatalf("DefineHas(X) = %v, %v before set, want false, nil", has, err)
	}
	if err := m.DefineSet("X", "5"); err != nil {
		t.Fatal(err)
	}
	has, err := m.DefineHas("X")
	if err != nil || !has {
		t.Fatalf("DefineHas(X) = %v, %v after set, want true, nil", has, err)
	}
	if err := m.DefineUnset("X"); err != nil {
		t.Fatal(err)
	}
	if has, err := m.DefineHas("X"); err != nil || has {
		t.Fatalf("DefineHas(X) = %v, %v after unset, want false, nil", has, err)
	}
}

func TestDefineMirrorSurvivesParseError(t *testing.T) {
	m := New()
	m.heap[DefineAddress] = value.NewText("not json")
	if err := m.DefineSet("Y", "1"); err != nil {
		t.Fatalf("DefineSet should fall back to empty object on parse error, got %v", err)
	}
	has, err := m.DefineHas("Y")
	if err != nil || !has {
		t.Fatalf("DefineHas(Y) = %v, %v, want true, nil", has, err)
	}
}

func TestPrintAndConsoleText(t *testing.T) {
	m := New()
	m.Print("hello ")
	m.Print("world")
	if got := m.ConsoleText(); got != "hello world" {
		t.Fatalf("ConsoleText() = %q, want %q", got, "hello world")
	}
}
