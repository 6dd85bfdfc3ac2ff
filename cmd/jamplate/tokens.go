package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jamplate/jamplate/internal/analyzer"
	"github.com/jamplate/jamplate/internal/document"
	"github.com/jamplate/jamplate/internal/parser"
	"github.com/jamplate/jamplate/internal/tree"
)

// TokensCmd dumps a document's parsed (and, unless --parse-only is
// given, analyzed) tree structure — one line per node, indented by
// depth — for debugging a dialect's parser/analyzer combinators
// without running the compiler or executor at all.
type TokensCmd struct {
	Path      string `arg:"" help:"Path to the document to parse." type:"existingfile"`
	ParseOnly bool   `help:"Stop after parsing; skip the analyze fixed-point."`
}

func (c *TokensCmd) Run() error {
	content, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.Path, err)
	}
	bundle, err := bundleFor(CLI.Dialect)
	if err != nil {
		return err
	}

	doc := document.New(c.Path, string(content))
	t, err := tree.New(doc)
	if err != nil {
		return fmt.Errorf("build tree: %w", err)
	}

	if err := parseToFixedPoint(t, bundle.Registry.Parser()); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if !c.ParseOnly {
		ac := analyzer.NewCompilation(t)
		if err := bundle.Registry.RunAnalysis(ac, environmentMaxPasses); err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
	}

	dumpNode(t, t.Root(), 0)
	return nil
}

// environmentMaxPasses mirrors internal/environment.DefaultMaxPasses;
// duplicated here rather than imported so this debugging command never
// pulls in internal/environment's cache/import wiring it has no use for.
const environmentMaxPasses = 64

func parseToFixedPoint(t *tree.Tree, p parser.Parser) error {
	c := parser.NewCompilation(t)
	for pass := 0; ; pass++ {
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
		if len(created) == 0 {
			return nil
		}
		if pass >= environmentMaxPasses {
			return fmt.Errorf("parser did not reach a fixed point within %d passes", environmentMaxPasses)
		}
	}
}

func dumpNode(t *tree.Tree, id tree.NodeID, depth int) {
	sk := t.Sketch(id)
	kind := "<text>"
	if sk != nil {
		kind = sk.Kind
	}
	fmt.Printf("%s[%d,%d) %s\n", strings.Repeat("  ", depth), t.Position(id), t.End(id), kind)
	for _, child := range t.Children(id) {
		dumpNode(t, child, depth+1)
	}
}
