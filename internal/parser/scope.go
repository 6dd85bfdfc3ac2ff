package parser

import (
	"regexp"

	"github.com/jamplate/jamplate/internal/tree"
)

// Scope is spec.md §4.2's scope parser: like Enclosure but with fixed
// child kinds (open, close) and no separate body tree — the region
// between the anchors is left unsketched so other parsers can still
// claim pieces of it on a later fixed-point pass.
type Scope struct {
	Open, Close *regexp.Regexp
	NewScope    func() *tree.Sketch
	NewOpen     func() *tree.Sketch
	NewClose    func() *tree.Sketch
}

func (s *Scope) Parse(c *Compilation, node tree.NodeID) ([]tree.NodeID, error) {
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
		pairs := scanPairs(text[gapStart:gapEnd], s.Open, s.Close)
		for _, pr := range pairs {
			openStart := pos + gapStart + pr.openStart
			openEnd := pos + gapStart + pr.openEnd
			closeStart := pos + gapStart + pr.closeStart
			closeEnd := pos + gapStart + pr.closeEnd

			open := t.NewNode(openStart, openEnd-openStart, s.NewOpen())
			close_ := t.NewNode(closeStart, closeEnd-closeStart, s.NewClose())
			sc := s.NewScope()
			sc.SetComponent("open", open)
			sc.SetComponent("close", close_)
			scope := t.NewNode(openStart, closeEnd-openStart, sc)

			created = append(created, scope, open, close_)
		}
	}
	return created, nil
}
