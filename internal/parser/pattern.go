package parser

import (
	"regexp"

	"github.com/jamplate/jamplate/internal/tree"
)

// Pattern is spec.md §4.2's pattern parser: one regex, matched against
// node's unparsed gaps only, each non-overlapping match producing one
// new leaf node via New.
type Pattern struct {
	Regex *regexp.Regexp
	New   func(groups []string) *tree.Sketch
}

func (p *Pattern) Parse(c *Compilation, node tree.NodeID) ([]tree.NodeID, error) {
	t := c.Tree
	doc := t.Document()
	pos := t.Position(node)
	text, err := doc.Slice(pos, t.End(node))
	if err != nil {
		return nil, err
	}
	gaps := unparsedGaps(t, node)

	var created []tree.NodeID
	for _, loc := range p.Regex.FindAllStringSubmatchIndex(text, -1) {
		start := pos + runeIndex(text, loc[0])
		end := pos + runeIndex(text, loc[1])
		if !withinGap(gaps, start, end) {
			continue
		}
		groups := make([]string, len(loc)/2)
		for i := range groups {
			a, b := loc[2*i], loc[2*i+1]
			if a < 0 || b < 0 {
				continue
			}
			groups[i] = text[a:b]
		}
		sketch := p.New(groups)
		created = append(created, t.NewNode(start, end-start, sketch))
	}
	return created, nil
}
