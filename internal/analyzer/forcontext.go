package analyzer

import "github.com/jamplate/jamplate/internal/tree"

// ForContext collapses a flat "#for ADDR ITERABLE ... #endfor" pair
// into one nested "for-context" sketch, the same way IfContext
// collapses an if/elif/else chain. There is no elif-equivalent for a
// loop, so the shape is simpler: exactly one "args" component (the
// raw "ADDR ITERABLE" text, left for the compiler to split) and one
// "body" component.
//
// Unlike an if-case, a for-body keeps the newline right before
// #endfor: spec.md §8 scenario 3's "[1,2,3]" loop body renders
// "1\n2\n3\n", one line per iteration, not "1\n2\n3" — the loop body
// is repeated content, not a terminal branch handing control back to
// an #else, so it has nothing to swallow on #endfor's behalf.
type ForContext struct {
	NewBody    func() *tree.Sketch
	NewContext func() *tree.Sketch
}

func nextEndFor(t *tree.Tree, node tree.NodeID) tree.NodeID {
	depth := 0
	for s := t.NextSibling(node); s != tree.InvalidID; s = t.NextSibling(s) {
		sk := t.Sketch(s)
		if sk == nil {
			continue
		}
		switch sk.Kind {
		case "directive:for":
			depth++
		case "directive:endfor":
			if depth == 0 {
				return s
			}
			depth--
		}
	}
	return tree.InvalidID
}

func (fc *ForContext) Analyze(c *Compilation, node tree.NodeID) (bool, error) {
	t := c.Tree
	sk := t.Sketch(node)
	if sk == nil || sk.Kind != "directive:for" {
		return false, nil
	}

	endfor := nextEndFor(t, node)
	if endfor == tree.InvalidID {
		return false, nil
	}

	parent := t.Parent(node)
	bodyStart := t.End(node)
	bodyEnd := t.Position(endfor)
	body := t.NewNode(bodyStart, bodyEnd-bodyStart, fc.NewBody())
	if err := t.Offer(parent, body); err != nil {
		return false, err
	}

	ctxSketch := fc.NewContext()
	if argsID, ok := sk.Component("args"); ok {
		ctxSketch.SetComponent("args", argsID)
	}
	ctxSketch.SetComponent("body", body)

	ctxStart := t.Position(node)
	ctxNode := t.NewNode(ctxStart, t.End(endfor)-ctxStart, ctxSketch)
	if err := t.Offer(parent, ctxNode); err != nil {
		return false, err
	}
	return true, nil
}
