package instruction

import (
	"testing"

	"github.com/jamplate/jamplate/internal/errs"
	"github.com/jamplate/jamplate/internal/memory"
	"github.com/jamplate/jamplate/internal/value"
)

// fakeEnv resolves a fixed set of named roots, recording the names it
// was asked to import.
type fakeEnv struct {
	roots   map[string]Instruction
	asked   []string
	missing error
}

func (f *fakeEnv) Import(name string) (Instruction, error) {
	f.asked = append(f.asked, name)
	root, ok := f.roots[name]
	if !ok {
		if f.missing != nil {
			return nil, f.missing
		}
		return nil, errs.NotFound("no such import: %s", name)
	}
	return root, nil
}

func consoleOf(t *testing.T, env Env, instr Instruction) string {
	t.Helper()
	m := memory.New()
	if err := instr.Exec(env, m); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	return m.ConsoleText()
}

func TestBlockRunsChildrenInOrder(t *testing.T) {
	b := NewBlock(errs.SourceRef{}, &PushConst{Value: value.NewText("a")}, &PushConst{Value: value.NewText("b")})
	m := memory.New()
	if err := b.Exec(&fakeEnv{}, m); err != nil {
		t.Fatal(err)
	}
	v, _ := m.Pop()
	s, _ := v.Evaluate(m)
	if s != "b" {
		t.Fatalf("top = %q, want b", s)
	}
}

func TestPushConstPopDup(t *testing.T) {
	m := memory.New()
	env := &fakeEnv{}
	if err := (&PushConst{Value: value.NewNumber(3)}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	if err := (Dup{}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	if err := (Pop{}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, err := m.Pop()
	if err != nil {
		t.Fatal(err)
	}
	s, _ := v.Evaluate(m)
	if s != "3" {
		t.Fatalf("remaining = %q, want 3", s)
	}
}

func TestFrameInstructions(t *testing.T) {
	m := memory.New()
	env := &fakeEnv{}
	if err := (PushFrame{}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	m.Push(value.NewText("x"))
	m.Push(value.NewText("y"))
	if err := (JoinFrame{}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, err := m.Pop()
	if err != nil {
		t.Fatal(err)
	}
	s, _ := v.Evaluate(m)
	if s != "xy" {
		t.Fatalf("JoinFrame result = %q, want xy", s)
	}

	if err := (PushFrame{}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	m.Push(value.NewNumber(1))
	m.Push(value.NewNumber(2))
	if err := (GlueFrame{}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, err = m.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind() != value.KindArray {
		t.Fatalf("GlueFrame result kind = %v, want KindArray", v.Kind())
	}
}

func TestAccessMissingIsEmptyNotError(t *testing.T) {
	m := memory.New()
	if err := (&Access{Addr: "X"}).Exec(&fakeEnv{}, m); err != nil {
		t.Fatal(err)
	}
	v, _ := m.Pop()
	s, _ := v.Evaluate(m)
	if s != "" {
		t.Fatalf("Access(missing) = %q, want empty", s)
	}
}

func TestAccessFromStack(t *testing.T) {
	m := memory.New()
	m.HeapSet("NAME", value.NewText("hi"))
	m.Push(value.NewText("NAME"))
	if err := (&Access{FromStack: true}).Exec(&fakeEnv{}, m); err != nil {
		t.Fatal(err)
	}
	v, _ := m.Pop()
	s, _ := v.Evaluate(m)
	if s != "hi" {
		t.Fatalf("Access(from stack) = %q, want hi", s)
	}
}

func TestReallocDefinesAndUndef(t *testing.T) {
	m := memory.New()
	env := &fakeEnv{}
	realloc := &Repalloc{Addr: "X", Instr: &PushConst{Value: value.NewText("5")}}
	if err := realloc.Exec(env, m); err != nil {
		t.Fatal(err)
	}
	if err := (&DefAddr{Addr: "X"}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, _ := m.Pop()
	s, _ := v.Evaluate(m)
	if s != "1" {
		t.Fatalf("DefAddr after Repalloc = %q, want 1", s)
	}

	hv, ok := m.HeapGet("X")
	if !ok {
		t.Fatal("expected X present on heap")
	}
	hs, _ := hv.Evaluate(m)
	if hs != "5" {
		t.Fatalf("heap X = %q, want 5", hs)
	}

	if err := (&FreeAddr{Addr: "X"}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	if err := (&NdefAddr{Addr: "X"}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, _ = m.Pop()
	s, _ = v.Evaluate(m)
	if s != "1" {
		t.Fatalf("NdefAddr after FreeAddr = %q, want 1", s)
	}
	if _, ok := m.HeapGet("X"); ok {
		t.Fatal("expected X removed from heap by FreeAddr")
	}
}

func TestRepfreeKeepsHeapDropsDefine(t *testing.T) {
	m := memory.New()
	env := &fakeEnv{}
	realloc := &Repalloc{Addr: "X", Instr: &PushConst{Value: value.NewText("5")}}
	if err := realloc.Exec(env, m); err != nil {
		t.Fatal(err)
	}
	if err := (&Repfree{Addr: "X"}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.HeapGet("X"); !ok {
		t.Fatal("expected X to remain on heap after Repfree")
	}
	has, err := m.DefineHas("X")
	if err != nil || has {
		t.Fatalf("DefineHas(X) after Repfree = %v, %v, want false, nil", has, err)
	}
}

func pushTwo(m *memory.Memory, l, r value.Value) {
	m.Push(l)
	m.Push(r)
}

func TestSumNumericAndTextFallback(t *testing.T) {
	m := memory.New()
	env := &fakeEnv{}
	pushTwo(m, value.NewNumber(2), value.NewNumber(3))
	if err := NewSum(errs.SourceRef{}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, _ := m.Pop()
	if s, _ := v.Evaluate(m); s != "5" {
		t.Fatalf("Sum(2,3) = %q, want 5", s)
	}

	pushTwo(m, value.NewText("foo"), value.NewText("bar"))
	if err := NewSum(errs.SourceRef{}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, _ = m.Pop()
	if s, _ := v.Evaluate(m); s != "foobar" {
		t.Fatalf("Sum(foo,bar) = %q, want foobar", s)
	}
}

func TestProductRequiresNumbers(t *testing.T) {
	m := memory.New()
	env := &fakeEnv{}
	pushTwo(m, value.NewText("x"), value.NewNumber(2))
	err := NewProduct(errs.SourceRef{}).Exec(env, m)
	if err == nil || !errs.Is(err, errs.ErrExecution) {
		t.Fatalf("Product(x,2) err = %v, want ExecError", err)
	}
}

func TestSubDivMod(t *testing.T) {
	m := memory.New()
	env := &fakeEnv{}

	pushTwo(m, value.NewNumber(5), value.NewNumber(3))
	if err := NewSub(errs.SourceRef{}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, _ := m.Pop()
	if s, _ := v.Evaluate(m); s != "2" {
		t.Fatalf("Sub(5,3) = %q, want 2", s)
	}

	pushTwo(m, value.NewNumber(10), value.NewNumber(4))
	if err := NewDiv(errs.SourceRef{}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, _ = m.Pop()
	if s, _ := v.Evaluate(m); s != "2.5" {
		t.Fatalf("Div(10,4) = %q, want 2.5", s)
	}

	pushTwo(m, value.NewNumber(10), value.NewNumber(0))
	if err := NewDiv(errs.SourceRef{}).Exec(env, m); err == nil {
		t.Fatal("expected division by zero error")
	}

	pushTwo(m, value.NewNumber(10), value.NewNumber(3))
	if err := NewMod(errs.SourceRef{}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, _ = m.Pop()
	if s, _ := v.Evaluate(m); s != "1" {
		t.Fatalf("Mod(10,3) = %q, want 1", s)
	}
}

func TestDefinedNegate(t *testing.T) {
	m := memory.New()
	env := &fakeEnv{}

	m.Push(value.NewText("hello"))
	if err := (Defined{}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, _ := m.Pop()
	if s, _ := v.Evaluate(m); s != "1" {
		t.Fatalf("Defined(hello) = %q, want 1", s)
	}

	m.Push(value.NewText(""))
	if err := (Negate{}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, _ = m.Pop()
	if s, _ := v.Evaluate(m); s != "1" {
		t.Fatalf("Negate(\"\") = %q, want 1", s)
	}
}

func TestBranchThenAndElse(t *testing.T) {
	env := &fakeEnv{}
	truthy := &Branch{
		Cond: &PushConst{Value: value.NewNumber(1)},
		Then: &PushConst{Value: value.NewText("then")},
		Else: &PushConst{Value: value.NewText("else")},
	}
	m := memory.New()
	if err := truthy.Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, _ := m.Pop()
	if s, _ := v.Evaluate(m); s != "then" {
		t.Fatalf("Branch(truthy) = %q, want then", s)
	}

	falsy := &Branch{
		Cond: &PushConst{Value: value.NewText("")},
		Then: &PushConst{Value: value.NewText("then")},
		Else: &PushConst{Value: value.NewText("else")},
	}
	m = memory.New()
	if err := falsy.Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, _ = m.Pop()
	if s, _ := v.Evaluate(m); s != "else" {
		t.Fatalf("Branch(falsy) = %q, want else", s)
	}
}

func TestBranchWithNoElseIsNoop(t *testing.T) {
	env := &fakeEnv{}
	b := &Branch{Cond: &PushConst{Value: value.NewText("")}, Then: &PushConst{Value: value.NewText("then")}}
	m := memory.New()
	if err := b.Exec(env, m); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Peek(); err == nil {
		t.Fatal("expected empty stack when condition is falsy and there is no else")
	}
}

func TestIpedLeavesStackDepthUnchanged(t *testing.T) {
	env := &fakeEnv{}
	m := memory.New()
	m.Push(value.NewText("outer"))
	p := &Iped{Items: []Instruction{
		&PushConst{Value: value.NewText("a")},
		&PushConst{Value: value.NewText("b")},
	}}
	if err := p.Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, err := m.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := v.Evaluate(m); s != "outer" {
		t.Fatalf("stack after Iped = %q, want outer (children discarded)", s)
	}
	if _, err := m.Pop(); err == nil {
		t.Fatal("expected no further values on the stack")
	}
}

func TestFpedIteratesArray(t *testing.T) {
	env := &fakeEnv{}
	m := memory.New()
	arr := value.NewArray([]value.Value{value.NewNumber(1), value.NewNumber(2), value.NewNumber(3)})
	body := &PrintExec{Instr: &Access{Addr: "I"}}
	loop := NewFped(errs.SourceRef{}, "I", &PushConst{Value: arr}, body)
	if err := loop.Exec(env, m); err != nil {
		t.Fatal(err)
	}
	if got, want := m.ConsoleText(), "123"; got != want {
		t.Fatalf("console = %q, want %q", got, want)
	}
	if _, ok := m.HeapGet("I"); ok {
		t.Fatal("expected loop variable freed after loop")
	}
}

func TestFpedRejectsNonArrayIterable(t *testing.T) {
	env := &fakeEnv{}
	m := memory.New()
	loop := NewFped(errs.SourceRef{}, "I", &PushConst{Value: value.NewText("not an array")}, Idle{})
	err := loop.Exec(env, m)
	if err == nil || !errs.Is(err, errs.ErrExecution) {
		t.Fatalf("Fped over non-array err = %v, want ExecError", err)
	}
}

func TestImportExecutesAndCapturesConsole(t *testing.T) {
	imported := &PrintExec{Instr: &PushConst{Value: value.NewText("hello from import")}}
	env := &fakeEnv{roots: map[string]Instruction{"lib": imported}}
	imp := NewImport(errs.SourceRef{}, &PushConst{Value: value.NewText("lib")})
	m := memory.New()
	if err := imp.Exec(env, m); err != nil {
		t.Fatal(err)
	}
	v, err := m.Pop()
	if err != nil {
		t.Fatal(err)
	}
	s, _ := v.Evaluate(m)
	if s != "hello from import" {
		t.Fatalf("Import result = %q, want %q", s, "hello from import")
	}
	if len(env.asked) != 1 || env.asked[0] != "lib" {
		t.Fatalf("env.asked = %v, want [lib]", env.asked)
	}
}

func TestImportPropagatesResolutionError(t *testing.T) {
	env := &fakeEnv{}
	imp := NewImport(errs.SourceRef{}, &PushConst{Value: value.NewText("missing")})
	if err := imp.Exec(env, memory.New()); err == nil {
		t.Fatal("expected error resolving unknown import")
	}
}

func TestPrintConsoleExecPrintExec(t *testing.T) {
	env := &fakeEnv{}

	m := memory.New()
	m.Push(value.NewText("direct"))
	if err := (Print{}).Exec(env, m); err != nil {
		t.Fatal(err)
	}
	if got := m.ConsoleText(); got != "direct" {
		t.Fatalf("Print console = %q, want direct", got)
	}

	joinConsole := consoleOf(t, env, &ConsoleExec{Instr: NewBlock(errs.SourceRef{},
		&PushConst{Value: value.NewText("a")},
		&PushConst{Value: value.NewText("b")},
	)})
	if joinConsole != "ab" {
		t.Fatalf("ConsoleExec console = %q, want ab", joinConsole)
	}

	printExecConsole := consoleOf(t, env, &PrintExec{Instr: &PushConst{Value: value.NewText("solo")}})
	if printExecConsole != "solo" {
		t.Fatalf("PrintExec console = %q, want solo", printExecConsole)
	}
}
