package environment

import (
	"strings"
	"testing"

	"github.com/jamplate/jamplate/internal/cache"
	"github.com/jamplate/jamplate/internal/document"
	"github.com/jamplate/jamplate/internal/spec"
)

func mustRender(t *testing.T, bundle *spec.Bundle, name, content string) string {
	t.Helper()
	env := New(bundle, nil)
	doc := document.New(name, content)
	if _, err := env.Compile(doc); err != nil {
		t.Fatalf("compile %q: %v", content, err)
	}
	out, err := env.Execute(name)
	if err != nil {
		t.Fatalf("execute %q: %v", content, err)
	}
	return out
}

func TestArithmeticDocument(t *testing.T) {
	out := mustRender(t, spec.ArithmeticBundle(), "expr", "1 + 2 * (3 + 5)")
	if out != "17" {
		t.Fatalf("got %q, want %q", out, "17")
	}
}

func TestDirectivesDefineAndSubstitute(t *testing.T) {
	out := mustRender(t, spec.DirectivesBundle(), "tpl", "#define X 5\n[X]")
	if strings.TrimSpace(out) != "5" {
		t.Fatalf("got %q, want trimmed %q", out, "5")
	}
}

func TestDirectivesIf(t *testing.T) {
	out := mustRender(t, spec.DirectivesBundle(), "tpl", "#define X 5\n#if X\nok\n#endif")
	if !strings.Contains(out, "ok") {
		t.Fatalf("got %q, want it to contain %q", out, "ok")
	}
}

func TestDirectivesIfUndefinedSkipsBody(t *testing.T) {
	out := mustRender(t, spec.DirectivesBundle(), "tpl", "#if X\nok\n#endif")
	if strings.Contains(out, "ok") {
		t.Fatalf("got %q, expected the if-body to be skipped entirely", out)
	}
}

func TestDirectivesFor(t *testing.T) {
	out := mustRender(t, spec.DirectivesBundle(), "tpl", "#for I [1,2,3]\n[I]\n#endfor")
	i1 := strings.Index(out, "1")
	i2 := strings.Index(out, "2")
	i3 := strings.Index(out, "3")
	if i1 < 0 || i2 < 0 || i3 < 0 || !(i1 < i2 && i2 < i3) {
		t.Fatalf("got %q, want it to print 1, 2, 3 in order", out)
	}
}

func TestDirectivesDeclareComputesExpression(t *testing.T) {
	out := mustRender(t, spec.DirectivesBundle(), "tpl", "#declare X 2+3\n[X]")
	if strings.TrimSpace(out) != "5" {
		t.Fatalf("got %q, want trimmed %q", out, "5")
	}
}

func TestPairsDocument(t *testing.T) {
	out := mustRender(t, spec.PairsBundle(), "obj", "{a:1,b:2}")
	if out == "" {
		t.Fatal("expected non-empty rendering of an object literal")
	}
}

func TestCompileIsDeterministicAcrossExecutions(t *testing.T) {
	bundle := spec.DirectivesBundle()
	env := New(bundle, nil)
	doc := document.New("tpl", "#for I [1,2,3]\n[I]\n#endfor")
	comp, err := env.Compile(doc)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	first, err := env.Execute("tpl")
	if err != nil {
		t.Fatalf("execute 1: %v", err)
	}
	second, err := env.Execute("tpl")
	if err != nil {
		t.Fatalf("execute 2: %v", err)
	}
	if first != second {
		t.Fatalf("expected deterministic output, got %q then %q", first, second)
	}
	if comp.Root == nil {
		t.Fatal("expected a compiled root to be recorded")
	}
}

func TestImportResolvesSiblingDocument(t *testing.T) {
	bundle := spec.DirectivesBundle()
	env := New(bundle, nil)

	lib := document.New("lib", "hello")
	if _, err := env.Compile(lib); err != nil {
		t.Fatalf("compile lib: %v", err)
	}
	main := document.New("main", "#import lib")
	if _, err := env.Compile(main); err != nil {
		t.Fatalf("compile main: %v", err)
	}
	out, err := env.Execute("main")
	if err != nil {
		t.Fatalf("execute main: %v", err)
	}
	if out != "hello" {
		t.Fatalf("got %q, want %q", out, "hello")
	}
}

func TestImportCycleIsRejected(t *testing.T) {
	bundle := spec.DirectivesBundle()
	env := New(bundle, nil)

	a := document.New("a", "#import a")
	if _, err := env.Compile(a); err != nil {
		t.Fatalf("compile a: %v", err)
	}
	if _, err := env.Execute("a"); err == nil {
		t.Fatal("expected an import-cycle error")
	}
}

func TestCompileCacheHitSkipsPipeline(t *testing.T) {
	bundle := spec.DirectivesBundle()
	c := cache.New()
	env := New(bundle, c)

	doc := document.New("tpl", "#define X 1\n[X]")
	if _, err := env.Compile(doc); err != nil {
		t.Fatalf("first compile: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected one cache entry after first compile, got %d", c.Len())
	}

	comp, err := env.Compile(document.New("tpl", "#define X 1\n[X]"))
	if err != nil {
		t.Fatalf("second compile: %v", err)
	}
	if comp.Tree != nil {
		t.Fatal("expected a cache hit to skip building a new tree")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	bundle := spec.DirectivesBundle()
	env := New(bundle, nil)
	if _, err := env.Compile(document.New("tpl", "#define X 5\n[X]")); err != nil {
		t.Fatalf("compile: %v", err)
	}

	snap, err := env.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	restored := New(bundle, nil)
	if err := restored.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	out, err := restored.Execute("tpl")
	if err != nil {
		t.Fatalf("execute restored: %v", err)
	}
	if strings.TrimSpace(out) != "5" {
		t.Fatalf("got %q, want trimmed %q", out, "5")
	}

	comp, _ := restored.Get("tpl")
	if !comp.Document.IsShell() {
		t.Fatal("expected a restored document to be a content-less shell")
	}
}
