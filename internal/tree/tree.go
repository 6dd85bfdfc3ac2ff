package tree

import (
	"github.com/jamplate/jamplate/internal/document"
	"github.com/jamplate/jamplate/internal/errs"
	"github.com/jamplate/jamplate/internal/interval"
)

// NodeID is a stable index into a Tree's arena. The zero value is
// never a valid node; use InvalidID to test for "no node".
type NodeID int

// InvalidID marks the absence of a node (nil parent, no next
// sibling, ...).
const InvalidID NodeID = -1

type node struct {
	document *document.Document
	position int
	length   int
	sketch   *Sketch
	weight   int

	parent       NodeID
	firstChild   NodeID
	lastChild    NodeID
	nextSibling  NodeID
	prevSibling  NodeID
}

// Tree is an arena-backed forest overlay anchored to a single
// Document. Index 0 is always the root, whose reference exactly
// equals the document's full interval (spec.md §4.1 invariant).
type Tree struct {
	doc   *document.Document
	nodes []node
	root  NodeID
}

// New builds a Tree whose root spans the whole of doc.
func New(doc *document.Document) (*Tree, error) {
	length, err := doc.Length()
	if err != nil {
		return nil, err
	}
	t := &Tree{doc: doc}
	root := t.alloc(0, length, nil, 0)
	t.root = root
	return t, nil
}

func (t *Tree) alloc(position, length int, sketch *Sketch, weight int) NodeID {
	t.nodes = append(t.nodes, node{
		document: t.doc,
		position: position,
		length:   length,
		sketch:   sketch,
		weight:   weight,

		parent:      InvalidID,
		firstChild:  InvalidID,
		lastChild:   InvalidID,
		nextSibling: InvalidID,
		prevSibling: InvalidID,
	})
	return NodeID(len(t.nodes) - 1)
}

// Document returns the tree's backing document.
func (t *Tree) Document() *document.Document { return t.doc }

// Root returns the root node's ID.
func (t *Tree) Root() NodeID { return t.root }

// NewNode allocates a detached node with the given interval and
// sketch, ready to be passed to Offer. weight defaults to the
// sketch's own weight when sketch is non-nil.
func (t *Tree) NewNode(position, length int, sketch *Sketch) NodeID {
	weight := 0
	if sketch != nil {
		weight = sketch.Weight
	}
	return t.alloc(position, length, sketch, weight)
}

func (t *Tree) at(id NodeID) *node {
	return &t.nodes[id]
}

// Position returns the start offset of id's reference.
func (t *Tree) Position(id NodeID) int { return t.at(id).position }

// Length returns the length of id's reference.
func (t *Tree) Length(id NodeID) int { return t.at(id).length }

// End returns Position(id) + Length(id), the interval's exclusive end.
func (t *Tree) End(id NodeID) int {
	n := t.at(id)
	return n.position + n.length
}

// Sketch returns id's attached sketch, or nil if unset (e.g. the
// root, or a node pending its kind).
func (t *Tree) Sketch(id NodeID) *Sketch { return t.at(id).sketch }

// SetSketch replaces id's sketch directly, bypassing Offer's
// weight-ordering policy. This is the "dedicated path" spec.md §4.1
// reserves for overwriting a kind in place without restructuring the
// tree.
func (t *Tree) SetSketch(id NodeID, s *Sketch) { t.at(id).sketch = s }

// Weight returns id's tie-break weight.
func (t *Tree) Weight(id NodeID) int { return t.at(id).weight }

// Parent returns id's parent, or InvalidID for the root.
func (t *Tree) Parent(id NodeID) NodeID { return t.at(id).parent }

// FirstChild returns id's first child in document order, or
// InvalidID if id is a leaf.
func (t *Tree) FirstChild(id NodeID) NodeID { return t.at(id).firstChild }

// NextSibling returns the sibling immediately after id, or
// InvalidID.
func (t *Tree) NextSibling(id NodeID) NodeID { return t.at(id).nextSibling }

// PreviousSibling returns the sibling immediately before id, or
// InvalidID.
func (t *Tree) PreviousSibling(id NodeID) NodeID { return t.at(id).prevSibling }

// Children returns a snapshot of id's immediate children in document
// order (spec.md §4.1 "flatChildren").
func (t *Tree) Children(id NodeID) []NodeID {
	var out []NodeID
	for c := t.FirstChild(id); c != InvalidID; c = t.NextSibling(c) {
		out = append(out, c)
	}
	return out
}

// Collect enumerates id and every descendant in depth-first,
// document-ordered sequence.
func (t *Tree) Collect(id NodeID) []NodeID {
	out := []NodeID{id}
	for c := t.FirstChild(id); c != InvalidID; c = t.NextSibling(c) {
		out = append(out, t.Collect(c)...)
	}
	return out
}

func (t *Tree) ref(id NodeID) (int, int) {
	n := t.at(id)
	return n.position, n.position + n.length
}

// SourceRef returns a diagnostic snapshot of id's source location, for
// embedding in a CompileError/ExecError raised by a later pipeline
// stage (parser, analyzer, compiler).
func (t *Tree) SourceRef(id NodeID) errs.SourceRef { return t.sourceRef(id) }

func (t *Tree) sourceRef(id NodeID) errs.SourceRef {
	n := t.at(id)
	kind := ""
	if n.sketch != nil {
		kind = n.sketch.Kind
	}
	return errs.SourceRef{Document: t.doc.Name(), Position: n.position, Length: n.length, Kind: kind}
}

// unlink detaches id from its current parent/sibling chain without
// touching its own children.
func (t *Tree) unlink(id NodeID) {
	n := t.at(id)
	parent := n.parent
	prev := n.prevSibling
	next := n.nextSibling
	if prev != InvalidID {
		t.at(prev).nextSibling = next
	} else if parent != InvalidID {
		t.at(parent).firstChild = next
	}
	if next != InvalidID {
		t.at(next).prevSibling = prev
	} else if parent != InvalidID {
		t.at(parent).lastChild = prev
	}
	n.parent = InvalidID
	n.prevSibling = InvalidID
	n.nextSibling = InvalidID
}

// insertChild links child as a child of parent at the position
// dictated by document order (position, then weight ascending as a
// tie-break), per spec.md §4.1 step 3.
func (t *Tree) insertChild(parent, child NodeID) {
	cn := t.at(child)
	cn.parent = parent

	pn := t.at(parent)
	if pn.firstChild == InvalidID {
		pn.firstChild = child
		pn.lastChild = child
		cn.prevSibling = InvalidID
		cn.nextSibling = InvalidID
		return
	}

	cpos, _ := t.ref(child)
	var after NodeID = InvalidID
	for sib := pn.firstChild; sib != InvalidID; sib = t.at(sib).nextSibling {
		spos, _ := t.ref(sib)
		if spos > cpos || (spos == cpos && t.at(sib).weight > cn.weight) {
			break
		}
		after = sib
	}

	if after == InvalidID {
		cn.nextSibling = pn.firstChild
		cn.prevSibling = InvalidID
		t.at(pn.firstChild).prevSibling = child
		pn.firstChild = child
		return
	}

	an := t.at(after)
	cn.nextSibling = an.nextSibling
	cn.prevSibling = after
	if an.nextSibling != InvalidID {
		t.at(an.nextSibling).prevSibling = child
	} else {
		pn.lastChild = child
	}
	an.nextSibling = child
}

// Offer inserts child into tree's subtree at the correct depth,
// re-parenting existing descendants as needed, following the policy
// of spec.md §4.1.
func (t *Tree) Offer(parent, child NodeID) error {
	si, se := t.ref(child)

	// If parent already has a direct child occupying child's exact
	// slot, the splice decision (spec.md §4.1 step 2) belongs to that
	// existing occupant, not to parent — recurse so the weight
	// comparison and restructuring happen against the real current
	// occupant of the slot, which may itself be the result of an
	// earlier splice.
	for _, c := range t.Children(parent) {
		ci, cj := t.ref(c)
		d, err := interval.DominanceCompute(ci, cj, si, se)
		if err != nil {
			return err
		}
		if d == interval.EXACT {
			return t.Offer(c, child)
		}
	}

	pi, pj := t.ref(parent)
	dom, err := interval.DominanceCompute(pi, pj, si, se)
	if err != nil {
		return err
	}

	switch dom {
	case interval.EXACT:
		pn := t.at(parent)
		// parent has no sketch of its own (the document root, or any
		// other unsketched placeholder): there is no real occupant to
		// weigh child against, so the weight gate is skipped, but
		// child still adopts parent's existing children below — they
		// share parent's exact interval, so they share child's too.
		if pn.sketch != nil {
			cn := t.at(child)
			if cn.weight <= pn.weight {
				return errs.NewCompile(t.sourceRef(parent), "offer: exact-interval sketch rejected (child weight %d <= parent weight %d)", cn.weight, pn.weight)
			}
		}
		// Splice child between parent and parent's current children:
		// child adopts all of parent's children, then becomes parent's
		// sole child.
		existing := t.Children(parent)
		for _, c := range existing {
			t.unlink(c)
			t.insertChild(child, c)
		}
		t.insertChild(parent, child)
		return nil

	case interval.PART:
		// Containment direction can't be read off Dominance alone: a
		// boundary-sharing containment (e.g. child and an existing
		// sibling starting at the same position) reports PART
		// regardless of which one is actually larger (spec.md §3.4's
		// AHEAD/START/BEHIND/END all collapse to PART). Compare the
		// raw offsets directly instead.
		var swallowed []NodeID
		for _, c := range t.Children(parent) {
			ci, cj := t.ref(c)
			switch {
			case ci <= si && se <= cj && !(si == se && (si == ci || se == cj)):
				// c encloses child: descend, c becomes child's new
				// immediate parent. An empty child sitting on one of
				// c's boundaries only touches c, so it falls through
				// to the disjoint case instead.
				return t.Offer(c, child)
			case si <= ci && cj <= se:
				// child encloses c; c moves under child once every
				// contained sibling has been found, so a child that
				// wraps several existing siblings (e.g. a binary
				// operator's left/sign/right span) adopts all of them
				// in one pass rather than just the first.
				swallowed = append(swallowed, c)
			case cj <= si || se <= ci:
				// disjoint, no relation to resolve.
			default:
				return errs.NewCompile(t.sourceRef(c), "overlapping sketch: [%d,%d) shares with [%d,%d)", si, se, ci, cj)
			}
		}
		for _, c := range swallowed {
			t.unlink(c)
			t.insertChild(child, c)
		}
		t.insertChild(parent, child)
		return nil

	case interval.SHARE:
		return errs.NewCompile(t.sourceRef(parent), "overlapping sketch: [%d,%d) shares with [%d,%d)", si, se, pi, pj)

	default: // CONTAIN, NONE
		return errs.NewCompile(t.sourceRef(parent), "offer called with dominance %v: wrong call site", dom)
	}
}
