package interval

import "testing"

func TestComputeBasicCases(t *testing.T) {
	cases := []struct {
		name       string
		i, j, s, e int
		want       Relation
	}{
		{"next", 0, 5, 5, 9, NEXT},
		{"previous", 5, 9, 0, 5, PREVIOUS},
		{"after", 0, 3, 5, 9, AFTER},
		{"before", 5, 9, 0, 3, BEFORE},
		{"container", 2, 6, 0, 10, CONTAINER},
		{"ahead", 0, 5, 0, 10, AHEAD},
		{"behind", 3, 10, 0, 10, BEHIND},
		{"same", 2, 8, 2, 8, SAME},
		{"fragment", 0, 10, 2, 6, FRAGMENT},
		{"start", 0, 10, 0, 5, START},
		{"end", 0, 10, 5, 10, END},
		{"overflow", 0, 10, 2, 15, OVERFLOW},
		{"underflow", 2, 15, 0, 10, UNDERFLOW},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Compute(tc.i, tc.j, tc.s, tc.e); got != tc.want {
				t.Fatalf("Compute(%d,%d,%d,%d) = %v, want %v", tc.i, tc.j, tc.s, tc.e, got, tc.want)
			}
		})
	}
}

// TestOppositeConsistency checks spec.md §8: for all i<=j, s<=e,
// Relation.compute(i,j,s,e).opposite() == Relation.compute(s,e,i,j).
func TestOppositeConsistency(t *testing.T) {
	const n = 6
	for i := 0; i <= n; i++ {
		for j := i; j <= n; j++ {
			for s := 0; s <= n; s++ {
				for e := s; e <= n; e++ {
					got := Compute(i, j, s, e).Opposite()
					want := Compute(s, e, i, j)
					if got != want {
						t.Fatalf("Compute(%d,%d,%d,%d).Opposite() = %v, want %v", i, j, s, e, got, want)
					}
				}
			}
		}
	}
}

func TestRelationToDominanceTotal(t *testing.T) {
	for r := SAME; r <= BEFORE; r++ {
		if _, ok := dominanceOf[r]; !ok {
			t.Fatalf("relation %v has no dominance mapping", r)
		}
	}
}

func TestDominanceExactIffEqual(t *testing.T) {
	const n = 5
	for i := 0; i <= n; i++ {
		for j := i; j <= n; j++ {
			for s := 0; s <= n; s++ {
				for e := s; e <= n; e++ {
					d := RelationOf(Compute(i, j, s, e))
					want := i == s && j == e
					if (d == EXACT) != want {
						t.Fatalf("[%d,%d) vs [%d,%d): EXACT=%v, want %v", i, j, s, e, d == EXACT, want)
					}
				}
			}
		}
	}
}

func TestDominanceNoneIffDisjointOrTouching(t *testing.T) {
	const n = 5
	for i := 0; i <= n; i++ {
		for j := i; j <= n; j++ {
			for s := 0; s <= n; s++ {
				for e := s; e <= n; e++ {
					d := RelationOf(Compute(i, j, s, e))
					want := j == s || i == e || j < s || e < i
					if (d == NONE) != want {
						t.Fatalf("[%d,%d) vs [%d,%d): NONE=%v, want %v", i, j, s, e, d == NONE, want)
					}
				}
			}
		}
	}
}

func TestDominanceComputeValidation(t *testing.T) {
	if _, err := DominanceCompute(-1, 5, 0, 5); err == nil {
		t.Fatal("expected error for negative reference position")
	}
	if _, err := DominanceCompute(0, 5, -1, 5); err == nil {
		t.Fatal("expected error for negative area position")
	}
	if _, err := DominanceCompute(5, 0, 0, 5); err == nil {
		t.Fatal("expected error for inverted reference")
	}
	if _, err := DominanceCompute(0, 5, 5, 0); err == nil {
		t.Fatal("expected error for inverted area")
	}
	d, err := DominanceCompute(0, 10, 2, 6)
	if err != nil || d != PART {
		t.Fatalf("DominanceCompute(0,10,2,6) = %v, %v, want PART, nil", d, err)
	}
}

func TestDominanceOppositeInvolution(t *testing.T) {
	for _, d := range []Dominance{EXACT, CONTAIN, PART, SHARE, NONE} {
		if d.Opposite().Opposite() != d {
			t.Fatalf("%v.Opposite().Opposite() != %v", d, d)
		}
	}
	if EXACT.Opposite() != EXACT || SHARE.Opposite() != SHARE || NONE.Opposite() != NONE {
		t.Fatal("EXACT/SHARE/NONE must be self-opposite")
	}
	if CONTAIN.Opposite() != PART || PART.Opposite() != CONTAIN {
		t.Fatal("CONTAIN and PART must be opposites")
	}
}
