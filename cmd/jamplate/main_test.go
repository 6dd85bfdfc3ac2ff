package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func withCapturedStdout(t *testing.T, f func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("read captured stdout: %v", err)
	}
	return buf.String()
}

func writeTestDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.jam")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test doc: %v", err)
	}
	return path
}

func TestBundleForResolvesEachKnownDialect(t *testing.T) {
	for _, d := range []string{"", "directives", "arithmetic", "pairs"} {
		b, err := bundleFor(d)
		if err != nil {
			t.Fatalf("bundleFor(%q): %v", d, err)
		}
		if b == nil || b.Registry == nil || b.Compiler == nil {
			t.Fatalf("bundleFor(%q) returned an incomplete bundle: %+v", d, b)
		}
	}
}

func TestBundleForRejectsUnknownDialect(t *testing.T) {
	if _, err := bundleFor("nonsense"); err == nil {
		t.Fatal("expected an error for an unknown dialect")
	}
}

func TestRunCmdRendersArithmeticDocumentToStdout(t *testing.T) {
	CLI.Dialect = "arithmetic"
	defer func() { CLI.Dialect = "" }()

	path := writeTestDoc(t, "3 * (4 + 1)")
	cmd := &RunCmd{Path: path}

	out := withCapturedStdout(t, func() {
		if err := cmd.Run(); err != nil {
			t.Fatalf("run: %v", err)
		}
	})
	if strings.TrimSpace(out) != "15" {
		t.Fatalf("output = %q, want 15", out)
	}
}

func TestRunCmdReportsMissingFile(t *testing.T) {
	cmd := &RunCmd{Path: filepath.Join(t.TempDir(), "missing.jam")}
	if err := cmd.Run(); err == nil {
		t.Fatal("expected an error reading a nonexistent file")
	}
}

func TestTokensCmdDumpsParsedTreeStructure(t *testing.T) {
	CLI.Dialect = "arithmetic"
	defer func() { CLI.Dialect = "" }()

	path := writeTestDoc(t, "1 + 2")
	cmd := &TokensCmd{Path: path, ParseOnly: true}

	out := withCapturedStdout(t, func() {
		if err := cmd.Run(); err != nil {
			t.Fatalf("run: %v", err)
		}
	})
	if !strings.Contains(out, "[0,5)") {
		t.Fatalf("expected a root-spanning node line in output, got %q", out)
	}
}

func TestVersionCmdPrintsVersionString(t *testing.T) {
	cmd := &VersionCmd{}
	out := withCapturedStdout(t, func() {
		if err := cmd.Run(); err != nil {
			t.Fatalf("run: %v", err)
		}
	})
	if !strings.Contains(out, version) {
		t.Fatalf("expected version string %q in output, got %q", version, out)
	}
}
