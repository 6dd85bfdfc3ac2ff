// Package interval implements the Relation/Dominance lattice over
// half-open intervals that the tree overlay uses to decide
// sibling/parent/child placement (spec.md §3.4).
package interval

import "github.com/jamplate/jamplate/internal/errs"

// Relation is one of the thirteen fine-grained classifications of how
// two half-open intervals [i,j) and [s,e) relate.
type Relation int

const (
	SAME Relation = iota
	CONTAINER
	FRAGMENT
	AHEAD
	START
	BEHIND
	END
	OVERFLOW
	UNDERFLOW
	NEXT
	PREVIOUS
	AFTER
	BEFORE
)

var relationNames = [...]string{
	SAME: "SAME", CONTAINER: "CONTAINER", FRAGMENT: "FRAGMENT",
	AHEAD: "AHEAD", START: "START", BEHIND: "BEHIND", END: "END",
	OVERFLOW: "OVERFLOW", UNDERFLOW: "UNDERFLOW", NEXT: "NEXT",
	PREVIOUS: "PREVIOUS", AFTER: "AFTER", BEFORE: "BEFORE",
}

func (r Relation) String() string {
	if int(r) < 0 || int(r) >= len(relationNames) {
		return "UNKNOWN"
	}
	return relationNames[r]
}

// opposite maps each Relation to the relation seen from the other
// side of the comparison: Relation.compute(i,j,s,e).Opposite() ==
// Relation.compute(s,e,i,j).
var relationOpposite = map[Relation]Relation{
	SAME:      SAME,
	CONTAINER: FRAGMENT,
	FRAGMENT:  CONTAINER,
	AHEAD:     START,
	START:     AHEAD,
	BEHIND:    END,
	END:       BEHIND,
	OVERFLOW:  UNDERFLOW,
	UNDERFLOW: OVERFLOW,
	NEXT:      PREVIOUS,
	PREVIOUS:  NEXT,
	AFTER:     BEFORE,
	BEFORE:    AFTER,
}

// Opposite returns the relation as seen from the other interval.
func (r Relation) Opposite() Relation {
	return relationOpposite[r]
}

// Compute classifies the relation of area [s,e) against the
// reference area [i,j), following the decision table of spec.md §3.4
// (first matching row wins).
func Compute(i, j, s, e int) Relation {
	switch {
	case j == s:
		return NEXT
	case i == e:
		return PREVIOUS
	case j < s:
		return AFTER
	case e < i:
		return BEFORE
	case s < i && j < e:
		return CONTAINER
	case i == s && j < e:
		return AHEAD
	case s < i && j == e:
		return BEHIND
	case i == s && j == e:
		return SAME
	case i < s && e < j:
		return FRAGMENT
	case i == s && e < j:
		return START
	case i < s && j == e:
		return END
	case i < s:
		return OVERFLOW
	default:
		return UNDERFLOW
	}
}

// Dominance is the coarser, five-case classification used by the tree
// overlay's attachment policy (spec.md §4.1).
type Dominance int

const (
	EXACT Dominance = iota
	CONTAIN
	PART
	SHARE
	NONE
)

var dominanceNames = [...]string{
	EXACT: "EXACT", CONTAIN: "CONTAIN", PART: "PART", SHARE: "SHARE", NONE: "NONE",
}

func (d Dominance) String() string {
	if int(d) < 0 || int(d) >= len(dominanceNames) {
		return "UNKNOWN"
	}
	return dominanceNames[d]
}

// dominanceOf is the total Relation -> Dominance map.
var dominanceOf = map[Relation]Dominance{
	SAME:      EXACT,
	CONTAINER: CONTAIN,
	FRAGMENT:  PART,
	AHEAD:     PART,
	START:     PART,
	BEHIND:    PART,
	END:       PART,
	OVERFLOW:  SHARE,
	UNDERFLOW: SHARE,
	NEXT:      NONE,
	PREVIOUS:  NONE,
	AFTER:     NONE,
	BEFORE:    NONE,
}

// opposite involution for Dominance: EXACT<->EXACT, CONTAIN<->PART,
// SHARE<->SHARE, NONE<->NONE.
var dominanceOpposite = map[Dominance]Dominance{
	EXACT:   EXACT,
	CONTAIN: PART,
	PART:    CONTAIN,
	SHARE:   SHARE,
	NONE:    NONE,
}

// Opposite returns the dominance as seen from the other interval.
func (d Dominance) Opposite() Dominance {
	return dominanceOpposite[d]
}

// RelationOf returns the Dominance that r maps to. The mapping is
// total: every Relation constant has exactly one Dominance.
func RelationOf(r Relation) Dominance {
	return dominanceOf[r]
}

// DominanceCompute classifies area [s,e) against reference [i,j)
// directly as a Dominance, validating inputs first.
//
// The source's own IllegalArgumentException guard used "&&" between
// the four individual validity checks where a reader would expect
// "||" (spec.md §9, open question); that is treated as a bug here —
// each of i<0, s<0, i>j, s>e independently fails validation.
func DominanceCompute(i, j, s, e int) (Dominance, error) {
	if i < 0 {
		return NONE, errs.InvalidInput("interval: negative reference position %d", i)
	}
	if s < 0 {
		return NONE, errs.InvalidInput("interval: negative area position %d", s)
	}
	if i > j {
		return NONE, errs.InvalidInput("interval: reference [%d,%d) inverted", i, j)
	}
	if s > e {
		return NONE, errs.InvalidInput("interval: area [%d,%d) inverted", s, e)
	}
	return RelationOf(Compute(i, j, s, e)), nil
}
