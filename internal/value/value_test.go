package value

import "testing"

type fakeEnv struct {
	heap map[string]Value
}

func (e *fakeEnv) HeapGet(addr string) (Value, bool) {
	v, ok := e.heap[addr]
	return v, ok
}

func newEnv() *fakeEnv { return &fakeEnv{heap: map[string]Value{}} }

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{3, "3"},
		{-7, "-7"},
		{0, "0"},
		{1.5, "1.5"},
		{4.0, "4"},
		{2.25, "2.25"},
	}
	for _, tc := range cases {
		if got := FormatNumber(tc.in); got != tc.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	if f, ok := ParseNumber("  42  "); !ok || f != 42 {
		t.Fatalf("ParseNumber(42) = %v, %v", f, ok)
	}
	if _, ok := ParseNumber("abc"); ok {
		t.Fatal("ParseNumber(abc) should fail")
	}
}

func TestIsFalsy(t *testing.T) {
	for _, s := range []string{"", "0", "false"} {
		if !IsFalsy(s) {
			t.Errorf("IsFalsy(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"1", "true", " ", "00"} {
		if IsFalsy(s) {
			t.Errorf("IsFalsy(%q) = true, want false", s)
		}
	}
}

func TestTextEvaluate(t *testing.T) {
	v := NewText("hello")
	got, err := v.Evaluate(newEnv())
	if err != nil || got != "hello" {
		t.Fatalf("Evaluate() = %q, %v, want hello, nil", got, err)
	}
	if v.Kind() != KindText {
		t.Fatalf("Kind() = %v, want KindText", v.Kind())
	}
}

func TestApplyComposesOldThenNew(t *testing.T) {
	v := NewText("a")
	var order []string
	v2 := v.Apply(func(_ Env, prev string) (string, error) {
		order = append(order, "pipe1:"+prev)
		return prev + "b", nil
	})
	v3 := v2.Apply(func(_ Env, prev string) (string, error) {
		order = append(order, "pipe2:"+prev)
		return prev + "c", nil
	})
	got, err := v3.Evaluate(newEnv())
	if err != nil {
		t.Fatal(err)
	}
	if got != "abc" {
		t.Fatalf("Evaluate() = %q, want abc", got)
	}
	if len(order) != 2 || order[0] != "pipe1:a" || order[1] != "pipe2:ab" {
		t.Fatalf("pipe order = %v", order)
	}
}

func TestArrayStringifiesAsJSON(t *testing.T) {
	arr := NewArray([]Value{NewNumber(1), NewNumber(2), NewText("x")})
	got, err := arr.Evaluate(newEnv())
	if err != nil {
		t.Fatal(err)
	}
	if want := `["1","2","x"]`; got != want {
		t.Fatalf("Evaluate() = %q, want %q", got, want)
	}
	elems, err := arr.(Arrayer).Elements(newEnv())
	if err != nil || len(elems) != 3 {
		t.Fatalf("Elements() = %v, %v", elems, err)
	}
}

func TestObjectStringifiesAsCanonicalJSON(t *testing.T) {
	obj := NewObject([]KV{
		{Key: NewText("a"), Val: NewNumber(1)},
		{Key: NewText("b"), Val: NewNumber(2)},
	})
	got, err := obj.Evaluate(newEnv())
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"a":"1","b":"2"}`; got != want {
		t.Fatalf("Evaluate() = %q, want %q", got, want)
	}
}

func TestPairParts(t *testing.T) {
	p := NewPair(NewText("k"), NewNumber(5))
	key, val, err := p.(Pairer).Parts(newEnv())
	if err != nil {
		t.Fatal(err)
	}
	kt, _ := key.Evaluate(newEnv())
	vt, _ := val.Evaluate(newEnv())
	if kt != "k" || vt != "5" {
		t.Fatalf("Parts() = %q, %q", kt, vt)
	}
}

func TestQuoteDefersAndForces(t *testing.T) {
	inner := NewText("deferred")
	q := NewQuote(inner)
	if q.Kind() != KindQuote {
		t.Fatalf("Kind() = %v, want KindQuote", q.Kind())
	}
	if q.(Quoter).Quoted() != inner {
		t.Fatal("Quoted() did not return the wrapped value")
	}
	got, err := q.Evaluate(newEnv())
	if err != nil || got != "deferred" {
		t.Fatalf("Evaluate() = %q, %v", got, err)
	}
}

func TestTextFuncConsultsEnv(t *testing.T) {
	env := newEnv()
	env.heap["X"] = NewText("5")
	v := NewTextFunc(func(e Env) (string, error) {
		hv, ok := e.HeapGet("X")
		if !ok {
			return "", nil
		}
		return hv.Evaluate(e)
	})
	got, err := v.Evaluate(env)
	if err != nil || got != "5" {
		t.Fatalf("Evaluate() = %q, %v", got, err)
	}
}
