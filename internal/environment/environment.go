// Package environment wires the pipeline's phases — parse, analyze,
// compile, execute — into the single collaborator spec.md §6 calls
// "Environment": compilation-scoped mappings from document name to
// compiled instruction tree, mutated only between phases and
// consulted at runtime by instruction.Import.
package environment

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamplate/jamplate/internal/analyzer"
	"github.com/jamplate/jamplate/internal/cache"
	"github.com/jamplate/jamplate/internal/compiler"
	"github.com/jamplate/jamplate/internal/document"
	"github.com/jamplate/jamplate/internal/errs"
	"github.com/jamplate/jamplate/internal/instruction"
	"github.com/jamplate/jamplate/internal/logging"
	"github.com/jamplate/jamplate/internal/memory"
	"github.com/jamplate/jamplate/internal/parser"
	"github.com/jamplate/jamplate/internal/spec"
	"github.com/jamplate/jamplate/internal/tree"
)

// DefaultMaxPasses bounds every parse/analyze fixed-point loop this
// package drives.
const DefaultMaxPasses = 64

// Compilation is one document's progress through the pipeline: its
// UUID identity (recorded in its Snapshot entry, which is keyed by
// document name; the compile cache is keyed by content hash, not by
// this ID), the overlay tree parsing/analysis grew, and —
// once Compile finishes — its single compiled root Instruction.
type Compilation struct {
	ID       string
	Document *document.Document
	Tree     *tree.Tree
	Root     instruction.Instruction
}

// Environment holds every Compilation built so far, keyed by document
// name, and satisfies instruction.Env so a compiled Import opcode can
// resolve a sibling document by name at execution time.
type Environment struct {
	bundle    *spec.Bundle
	cache     *cache.Cache
	maxPasses int

	mu           sync.Mutex
	compilations map[string]*Compilation
	importing    []string
}

// New builds an Environment driven by bundle — its Registry drives
// parsing and analysis, its Compiler is invoked against the tree root
// once analysis reaches a fixed point. A nil cache disables
// compile-cache reuse; pass cache.New() to enable it.
func New(bundle *spec.Bundle, c *cache.Cache) *Environment {
	return &Environment{
		bundle:       bundle,
		cache:        c,
		maxPasses:    DefaultMaxPasses,
		compilations: map[string]*Compilation{},
	}
}

// Get returns the Compilation registered under name, if any.
func (e *Environment) Get(name string) (*Compilation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.compilations[name]
	return c, ok
}

// Documents returns the names of every document currently registered,
// in no particular order.
func (e *Environment) Documents() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.compilations))
	for name := range e.compilations {
		names = append(names, name)
	}
	return names
}

// Compile runs doc through the full parse/analyze/compile pipeline —
// spec.md's "Document → Tree(root) → [parse* fixed-point] →
// [analyze* fixed-point] → [compile → Instruction tree]" — and
// registers the result under doc's name, replacing any previous
// Compilation for that name. If a compile cache was supplied and
// already holds a compiled root for doc's exact content, parsing,
// analysis and compilation are skipped entirely.
func (e *Environment) Compile(doc *document.Document) (*Compilation, error) {
	start := time.Now()

	var hash string
	if e.cache != nil && !doc.IsShell() {
		content, err := doc.ReadContent()
		if err != nil {
			return nil, err
		}
		hash = cache.HashContent(content)
		if root, ok := e.cache.Get(hash); ok {
			logging.CacheEvent("hit", doc.Name(), hash)
			comp := &Compilation{ID: uuid.New().String(), Document: doc, Root: root}
			e.register(comp)
			return comp, nil
		}
		logging.CacheEvent("miss", doc.Name(), hash)
	}

	t, err := tree.New(doc)
	if err != nil {
		return nil, err
	}

	if err := e.runParse(t); err != nil {
		return nil, err
	}
	if err := e.runAnalyze(t); err != nil {
		return nil, err
	}
	root, err := e.runCompile(t)
	if err != nil {
		return nil, err
	}

	logging.Debug("compile_complete",
		"document", doc.Name(),
		"duration_us", time.Since(start).Microseconds(),
	)

	if e.cache != nil && hash != "" {
		e.cache.Put(hash, root)
	}

	comp := &Compilation{ID: uuid.New().String(), Document: doc, Tree: t, Root: root}
	e.register(comp)
	return comp, nil
}

func (e *Environment) register(comp *Compilation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compilations[comp.Document.Name()] = comp
}

func (e *Environment) runParse(t *tree.Tree) error {
	c := parser.NewCompilation(t)
	p := e.bundle.Registry.Parser()
	pass := 0
	for {
		start := time.Now()
		root := t.Root()
		created, err := p.Parse(c, root)
		if err != nil {
			return err
		}
		for _, id := range created {
			if err := t.Offer(root, id); err != nil {
				return err
			}
		}
		logging.Pass("parse", pass, len(created) > 0, time.Since(start))
		if len(created) == 0 {
			return nil
		}
		pass++
		if pass >= e.maxPasses {
			return errs.NewCompile(t.SourceRef(root), "parser pipeline did not reach a fixed point within %d passes", e.maxPasses)
		}
	}
}

func (e *Environment) runAnalyze(t *tree.Tree) error {
	c := analyzer.NewCompilation(t)
	start := time.Now()
	err := e.bundle.Registry.RunAnalysis(c, e.maxPasses)
	logging.Pass("analyze", 0, err == nil, time.Since(start))
	return err
}

func (e *Environment) runCompile(t *tree.Tree) (instruction.Instruction, error) {
	c := compiler.NewCompilation(t)
	root, err := e.bundle.Compiler.Compile(c, t.Root())
	if err != nil {
		return nil, err
	}
	if root == nil {
		return instruction.Idle{}, nil
	}
	return root, nil
}

// Execute runs the compiled root registered under name against a
// fresh Memory and returns everything printed to its console — the
// "execute against Memory → output text" tail of spec.md's pipeline.
func (e *Environment) Execute(name string) (string, error) {
	comp, ok := e.Get(name)
	if !ok {
		return "", errs.NotFound("no compiled document named %q", name)
	}
	m := memory.New()
	if err := comp.Root.Exec(e, m); err != nil {
		return "", err
	}
	return m.ConsoleText(), nil
}

// guardedImport wraps a resolved import's root instruction so the
// Environment's reentrancy guard is released exactly when the
// sub-execution instruction.Import.Exec drives finishes, success or
// failure — Import() itself only ever resolves a name to an
// Instruction, so this is the one hook available to bracket the
// actual nested execution without instruction needing to know
// anything about Environment.
type guardedImport struct {
	inner instruction.Instruction
	done  func()
}

func (g *guardedImport) Exec(env instruction.Env, m *memory.Memory) error {
	defer g.done()
	return g.inner.Exec(env, m)
}

// Import satisfies instruction.Env: it resolves name to its compiled
// root, guarding against a document importing itself (directly or
// transitively) per spec.md's supplemental "nested import" feature.
func (e *Environment) Import(name string) (instruction.Instruction, error) {
	e.mu.Lock()
	for _, active := range e.importing {
		if active == name {
			e.mu.Unlock()
			return nil, errs.NewExec(errs.SourceRef{Document: name}, "import cycle: %q is already being imported", name)
		}
	}
	comp, ok := e.compilations[name]
	if !ok {
		e.mu.Unlock()
		return nil, errs.NotFound("no compiled document named %q", name)
	}
	e.importing = append(e.importing, name)
	e.mu.Unlock()

	return &guardedImport{
		inner: comp.Root,
		done: func() {
			e.mu.Lock()
			if n := len(e.importing); n > 0 {
				e.importing = e.importing[:n-1]
			}
			e.mu.Unlock()
		},
	}, nil
}
