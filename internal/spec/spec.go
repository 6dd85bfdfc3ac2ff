// Package spec implements the spec-bundle collaborator contract of
// spec.md §6: a named unit of {parser, analyzer, compiler}, composed
// by a Registry. The concrete spec-bundle registry that decides which
// dialect's specs ship together is named an out-of-scope collaborator
// by spec.md §1; this package supplies the contract types plus three
// named specs — Arithmetic, Pairs, and Directives — each a complete,
// independently usable dialect sufficient to drive one or more of
// spec.md §8's end-to-end scenarios. It is not a general registry DSL:
// callers assemble exactly the specs their template dialect needs.
package spec

import (
	"github.com/jamplate/jamplate/internal/analyzer"
	"github.com/jamplate/jamplate/internal/compiler"
	"github.com/jamplate/jamplate/internal/parser"
	"github.com/jamplate/jamplate/internal/tree"
)

// Spec is a named bundle of the three pipeline collaborators a
// template dialect contributes. Any field may be nil.
type Spec struct {
	Name     string
	Parser   parser.Parser
	Analyzer analyzer.Analyzer
	Compiler compiler.Compiler
}

// Registry composes an ordered list of Specs into the single
// Parser/Analyzer/Compiler the pipeline drives. Ordering matters for
// the compiler: Compiler() builds a Fallback that tries each spec's
// compiler in registration order.
type Registry struct {
	specs []*Spec
}

// NewRegistry builds a Registry over specs, in the given order.
func NewRegistry(specs ...*Spec) *Registry {
	return &Registry{specs: specs}
}

// Parser returns the combined parser: every spec's own Parser, run
// hierarchically over the whole tree each fixed-point pass.
func (r *Registry) Parser() parser.Parser {
	var many parser.Many
	for _, s := range r.specs {
		if s.Parser != nil {
			many = append(many, s.Parser)
		}
	}
	return &parser.Hierarchy{Inner: many}
}

// RunAnalysis runs every spec's Analyzer, in registration order, each
// to its own fixed point before the next one starts. Ordering matters
// here the same way it does for Compiler fallback: the arithmetic
// spec's operator-precedence analyzer must fully settle a subtree
// before a later spec's structural analyzer (if/for-context assembly)
// looks at it, so the two are never interleaved within one pass.
func (r *Registry) RunAnalysis(c *analyzer.Compilation, maxPasses int) error {
	for _, s := range r.specs {
		if s.Analyzer == nil {
			continue
		}
		if err := analyzer.RunFixedPoint(c, s.Analyzer, maxPasses); err != nil {
			return err
		}
	}
	return nil
}

// Compiler returns the combined compiler: a Fallback trying every
// spec's own Compiler in registration order.
func (r *Registry) Compiler() compiler.Compiler {
	var compilers []compiler.Compiler
	for _, s := range r.specs {
		if s.Compiler != nil {
			compilers = append(compilers, s.Compiler)
		}
	}
	return &compiler.Fallback{Compilers: compilers}
}

// Bundle pairs a Registry (drives parsing and analysis) with the
// document-level entry Compiler a caller actually invokes against the
// tree root. The two are kept separate because "which sketch kinds
// recurse into which compiler" is scenario-specific — a bare
// arithmetic expression document and a directive template that merely
// embeds arithmetic inside "#declare"/"[...]" both need the
// Arithmetic spec's parser and analyzer wired into the Registry, but
// only the former should be compiled with ArithmeticDocument's
// whole-document-is-one-expression reading; the latter wants
// DirectivesDocument's verbatim-template reading instead. This is the
// "named spec provides {parser, analyzer, compiler}, a registry
// composes specs by name" contract of spec.md §6 concretized into
// exactly the combinations spec.md §8's scenarios need.
type Bundle struct {
	Registry *Registry
	Compiler compiler.Compiler
}

// ArithmeticBundle drives spec.md §8 scenario 1: a document that is
// itself one arithmetic expression, no directives involved.
func ArithmeticBundle() *Bundle {
	return &Bundle{Registry: NewRegistry(Arithmetic()), Compiler: ArithmeticDocument()}
}

// DirectivesBundle drives spec.md §8 scenarios 2, 3, 4 and 6: the
// core control-flow directives, with the Arithmetic spec wired in
// (not as a second top-level dialect, but so "#declare X 2+3" and
// "[1+1]" parse and analyze their embedded numeric expressions).
func DirectivesBundle() *Bundle {
	return &Bundle{Registry: NewRegistry(Arithmetic(), Directives()), Compiler: DirectivesDocument()}
}

// PairsBundle drives spec.md §8 scenario 5: "{a:1,b:2}" object/pair
// literals, independent of both arithmetic and directives.
func PairsBundle() *Bundle {
	return &Bundle{Registry: NewRegistry(Pairs()), Compiler: PairsDocument()}
}

// multiAnalyzer runs every analyzer in the slice against a node and
// reports whether any of them changed something, matching
// parser.Many's union semantics for the analyze phase.
type multiAnalyzer []analyzer.Analyzer

func (m multiAnalyzer) Analyze(c *analyzer.Compilation, node tree.NodeID) (bool, error) {
	changed := false
	for _, a := range m {
		ok, err := a.Analyze(c, node)
		if err != nil {
			return false, err
		}
		changed = changed || ok
	}
	return changed, nil
}
