package parser

import "github.com/jamplate/jamplate/internal/tree"

// KindFilter restricts Inner to run only when the node Hierarchy is
// currently visiting has the given sketch kind — the parser-side
// analogue of analyzer.Filter, used to scope a leaf pattern to a
// specific structural context (e.g. "only inside an expression
// placeholder") rather than letting it race against unrelated gaps
// elsewhere in the document.
type KindFilter struct {
	Kind  string
	Inner Parser
}

func (k *KindFilter) Parse(c *Compilation, node tree.NodeID) ([]tree.NodeID, error) {
	sk := c.Tree.Sketch(node)
	if sk == nil || sk.Kind != k.Kind {
		return nil, nil
	}
	return k.Inner.Parse(c, node)
}

// Many runs every parser in the slice against node and unions their
// results, so several independent leaf parsers can share one
// Hierarchy driver (spec.md §6's registry composing several specs'
// parsers together).
type Many []Parser

func (m Many) Parse(c *Compilation, node tree.NodeID) ([]tree.NodeID, error) {
	var out []tree.NodeID
	for _, p := range m {
		found, err := p.Parse(c, node)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}
