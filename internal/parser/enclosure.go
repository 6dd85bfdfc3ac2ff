package parser

import (
	"regexp"
	"sort"

	"github.com/jamplate/jamplate/internal/tree"
)

// Enclosure is spec.md §4.2's enclosure parser: scans left to right
// for Open/Close matches, pairing them with a stack (so nested
// enclosures of the same language pair innermost-first), and emits
// four trees per closed pair: the enclosure itself, an open anchor, a
// close anchor, and the body strictly between the two anchors.
type Enclosure struct {
	Open, Close  *regexp.Regexp
	NewEnclosure func() *tree.Sketch
	NewOpen      func() *tree.Sketch
	NewClose     func() *tree.Sketch
	NewBody      func() *tree.Sketch
}

func (e *Enclosure) Parse(c *Compilation, node tree.NodeID) ([]tree.NodeID, error) {
	t := c.Tree
	doc := t.Document()
	pos := t.Position(node)
	text, err := doc.Slice(pos, t.End(node))
	if err != nil {
		return nil, err
	}
	gaps := unparsedGaps(t, node)

	var created []tree.NodeID
	for _, g := range gaps {
		gapStart := g.start - pos
		gapEnd := g.end - pos
		pairs := scanPairs(text[gapStart:gapEnd], e.Open, e.Close)
		for _, pr := range pairs {
			openStart := pos + gapStart + pr.openStart
			openEnd := pos + gapStart + pr.openEnd
			closeStart := pos + gapStart + pr.closeStart
			closeEnd := pos + gapStart + pr.closeEnd

			open := t.NewNode(openStart, openEnd-openStart, e.NewOpen())
			close_ := t.NewNode(closeStart, closeEnd-closeStart, e.NewClose())
			body := t.NewNode(openEnd, closeStart-openEnd, e.NewBody())
			enc := e.NewEnclosure()
			enc.SetComponent("open", open)
			enc.SetComponent("close", close_)
			enc.SetComponent("body", body)
			enclosure := t.NewNode(openStart, closeEnd-openStart, enc)

			created = append(created, enclosure, open, close_, body)
		}
	}
	return created, nil
}

type encPair struct {
	openStart, openEnd   int
	closeStart, closeEnd int
}

// scanPairs finds non-overlapping open/close pairs within text using
// a stack, so "((a))" pairs the inner parens before the outer ones.
// An unmatched close is ignored; an unmatched trailing open is left
// unpaired (it belongs to no complete enclosure in this pass).
func scanPairs(text string, open, close *regexp.Regexp) []encPair {
	type loc struct {
		isOpen     bool
		start, end int
	}
	var locs []loc
	for _, m := range open.FindAllStringIndex(text, -1) {
		locs = append(locs, loc{true, m[0], m[1]})
	}
	for _, m := range close.FindAllStringIndex(text, -1) {
		locs = append(locs, loc{false, m[0], m[1]})
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].start < locs[j].start })

	var stack []loc
	var pairs []encPair
	for _, l := range locs {
		if l.isOpen {
			stack = append(stack, l)
			continue
		}
		if len(stack) == 0 {
			continue
		}
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		pairs = append(pairs, encPair{o.start, o.end, l.start, l.end})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].openStart < pairs[j].openStart })
	return pairs
}
