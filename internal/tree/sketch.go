// Package tree implements the sketch/tree overlay of spec.md §3.3,
// §3.5 and §4.1: a typed, interval-anchored hierarchy over a
// document's content, built with an arena of stable node IDs rather
// than the cyclic Sketch<->Tree back-references of the original
// (spec.md §9 "cyclic back-references").
package tree

// Sketch is the typed label attached to a tree node: a dotted kind
// string, a weight used to break EXACT-dominance ties, and a named
// map of sub-component roles to child node IDs. The sub-component
// map preserves insertion order, as spec.md §3.3 requires, by
// pairing a slice of names with the map.
type Sketch struct {
	Kind   string
	Weight int

	componentOrder []string
	components     map[string]NodeID
}

// NewSketch creates a sketch of the given kind and weight with no
// sub-components attached yet.
func NewSketch(kind string, weight int) *Sketch {
	return &Sketch{Kind: kind, Weight: weight, components: map[string]NodeID{}}
}

// SetComponent assigns node as the sub-component playing role name.
// Re-assigning an existing role overwrites its target but keeps its
// original position in iteration order.
func (s *Sketch) SetComponent(name string, node NodeID) {
	if _, exists := s.components[name]; !exists {
		s.componentOrder = append(s.componentOrder, name)
	}
	s.components[name] = node
}

// Component returns the node filling role name, if any.
func (s *Sketch) Component(name string) (NodeID, bool) {
	id, ok := s.components[name]
	return id, ok
}

// Components returns the sub-component roles in insertion order.
func (s *Sketch) Components() []string {
	out := make([]string, len(s.componentOrder))
	copy(out, s.componentOrder)
	return out
}
