package analyzer

import (
	"strings"

	"github.com/jamplate/jamplate/internal/tree"
)

// IfContext implements spec.md §4.3's if-context assembly: a flat
// "if / ifdef / ifndef / elif* / else? / endif" directive sequence
// (each directive already a sibling sketch produced by
// parser.DirectiveHead) is collapsed into one nested "if-context"
// sketch, built right-to-left so the innermost case's "else" is
// either the next case or left unset when no else was written.
//
// Each case sketch's Kind is "if-case:" followed by the originating
// directive's keyword (if, ifdef, ifndef, elif, elifdef, elifndef,
// else), so the compiler can tell a plain boolean condition apart
// from a definedness test without re-inspecting the source text.
type IfContext struct {
	// NewCase builds the sketch for one case, given its directive
	// keyword ("if", "ifdef", "elif", "else", ...).
	NewCase func(keyword string) *tree.Sketch
	NewBody func() *tree.Sketch
	// NewContext builds the sketch for the whole collapsed sequence,
	// wrapping the outermost case.
	NewContext func() *tree.Sketch
}

func isIfStart(kind string) bool {
	switch kind {
	case "directive:if", "directive:ifdef", "directive:ifndef":
		return true
	}
	return false
}

// nextControl returns the next sibling of node whose sketch is one of
// the if-context control kinds, skipping over ordinary body content
// (text, expressions, nested structures) that lies in between.
func nextControl(t *tree.Tree, node tree.NodeID) tree.NodeID {
	for s := t.NextSibling(node); s != tree.InvalidID; s = t.NextSibling(s) {
		sk := t.Sketch(s)
		if sk == nil {
			continue
		}
		switch sk.Kind {
		case "directive:if", "directive:ifdef", "directive:ifndef",
			"directive:elif", "directive:elifdef", "directive:elifndef",
			"directive:else", "directive:endif":
			return s
		}
	}
	return tree.InvalidID
}

func (ic *IfContext) Analyze(c *Compilation, node tree.NodeID) (bool, error) {
	t := c.Tree
	sk := t.Sketch(node)
	if sk == nil || !isIfStart(sk.Kind) {
		return false, nil
	}

	var controls []tree.NodeID
	var endif tree.NodeID
	cur := node
	for {
		next := nextControl(t, cur)
		if next == tree.InvalidID {
			// Sequence not yet closed by an endif in the document (or
			// not yet visible to this pass); try again on a later
			// pass once more of the tree has settled.
			return false, nil
		}
		if t.Sketch(next).Kind == "directive:endif" {
			endif = next
			break
		}
		controls = append(controls, next)
		cur = next
	}
	controls = append([]tree.NodeID{node}, controls...)

	parent := t.Parent(node)
	var nextCase tree.NodeID = tree.InvalidID
	for i := len(controls) - 1; i >= 0; i-- {
		ctrl := controls[i]
		ctrlKind := t.Sketch(ctrl).Kind
		keyword := strings.TrimPrefix(ctrlKind, "directive:")

		bodyStart := t.End(ctrl)
		bodyEnd := t.Position(endif)
		if i+1 < len(controls) {
			bodyEnd = t.Position(controls[i+1])
		}
		// Every case except the terminal "else" owns the transition
		// into its next control line and swallows that line's closing
		// newline too, the same way a directive swallows its own
		// (parser.DirectiveHead): a case that falls through to #else,
		// #elif* or #endif reads as ending exactly at that line, not
		// one character into it. The "else" case has no control line
		// of its own to hand that newline to, so it keeps it.
		if keyword != "else" && bodyEnd > bodyStart {
			if last, err := t.Document().Slice(bodyEnd-1, bodyEnd); err == nil && last == "\n" {
				bodyEnd--
			}
		}
		body := t.NewNode(bodyStart, bodyEnd-bodyStart, ic.NewBody())
		if err := t.Offer(parent, body); err != nil {
			return false, err
		}

		caseSketch := ic.NewCase(keyword)
		caseSketch.SetComponent("body", body)
		if keyword != "else" {
			if argsID, ok := t.Sketch(ctrl).Component("args"); ok {
				caseSketch.SetComponent("cond", argsID)
			}
		}
		if nextCase != tree.InvalidID {
			caseSketch.SetComponent("else", nextCase)
		}

		caseStart := t.Position(ctrl)
		caseNode := t.NewNode(caseStart, bodyEnd-caseStart, caseSketch)
		if err := t.Offer(parent, caseNode); err != nil {
			return false, err
		}
		nextCase = caseNode
	}

	ctxSketch := ic.NewContext()
	ctxSketch.SetComponent("case", nextCase)
	ctxStart := t.Position(node)
	ctxNode := t.NewNode(ctxStart, t.End(endif)-ctxStart, ctxSketch)
	if err := t.Offer(parent, ctxNode); err != nil {
		return false, err
	}
	return true, nil
}
