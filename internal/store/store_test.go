package store

import (
	"path/filepath"
	"testing"

	"github.com/jamplate/jamplate/internal/document"
	"github.com/jamplate/jamplate/internal/environment"
	"github.com/jamplate/jamplate/internal/errs"
	"github.com/jamplate/jamplate/internal/spec"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "env.sqlite")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	env := environment.New(spec.DirectivesBundle(), nil)
	if _, err := env.Compile(document.New("tpl", "#define X 5\n[X]")); err != nil {
		t.Fatalf("compile: %v", err)
	}

	if err := Save(db, env); err != nil {
		t.Fatalf("save: %v", err)
	}

	snap, err := Load(db)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := snap.Documents["tpl"]; !ok {
		t.Fatal("expected the persisted snapshot to include document \"tpl\"")
	}
}

func TestLoadWithoutSaveReturnsNotFound(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.sqlite")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := Load(db); !errs.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRestoreRehydratesEnvironment(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "env.sqlite")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	bundle := spec.DirectivesBundle()
	env := environment.New(bundle, nil)
	if _, err := env.Compile(document.New("tpl", "#define X 5\n[X]")); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := Save(db, env); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored := environment.New(bundle, nil)
	if err := Restore(db, restored); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, ok := restored.Get("tpl"); !ok {
		t.Fatal("expected restored environment to have document \"tpl\" registered")
	}
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "env.sqlite")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	bundle := spec.DirectivesBundle()
	env := environment.New(bundle, nil)
	if _, err := env.Compile(document.New("a", "#define X 1\n[X]")); err != nil {
		t.Fatalf("compile a: %v", err)
	}
	if err := Save(db, env); err != nil {
		t.Fatalf("save 1: %v", err)
	}

	if _, err := env.Compile(document.New("b", "#define Y 2\n[Y]")); err != nil {
		t.Fatalf("compile b: %v", err)
	}
	if err := Save(db, env); err != nil {
		t.Fatalf("save 2: %v", err)
	}

	snap, err := Load(db)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := snap.Documents["a"]; !ok {
		t.Fatal("expected document \"a\" to still be present")
	}
	if _, ok := snap.Documents["b"]; !ok {
		t.Fatal("expected document \"b\" to be present after the second save")
	}
}
