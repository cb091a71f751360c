package gamma

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/combin"
)

// pairCost is the contribution of one unordered slot pair.
func pairCost(a, b Slot, d Dissimilarity) (float64, error) {
	if a.IsGap() || b.IsGap() {
		return d.GapCost(), nil
	}
	v := d.Distance(a.ref(), b.ref())
	if v < 0 || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: distance(%s, %s) = %v", ErrInvalidDissimilarity, a.ref(), b.ref(), v)
	}
	return v, nil
}

// checkGapCost rejects gap costs the pruning bound cannot work with.
func checkGapCost(d Dissimilarity) error {
	g := d.GapCost()
	if g < 0 || math.IsNaN(g) || math.IsInf(g, 0) {
		return fmt.Errorf("%w: gap cost %v", ErrInvalidDissimilarity, g)
	}
	return nil
}

// numPairs returns C(n, 2), or ErrDegenerateInput when n < 2.
func numPairs(n int) (int, error) {
	if n < 2 {
		return 0, fmt.Errorf("%w: %d annotator(s), need at least 2", ErrDegenerateInput, n)
	}
	return combin.Binomial(n, 2), nil
}

// Disorder returns the mean pairwise dissimilarity of slots. A pair with a gap
// on either side costs the gap cost.
//
// Pairs are summed as (0,1), (0,2), (1,2), (0,3), ... so the sum over a prefix
// of slots is a prefix of the full sum; Generator relies on this ordering.
func Disorder(slots []Slot, d Dissimilarity) (float64, error) {
	pairs, err := numPairs(len(slots))
	if err != nil {
		return 0, err
	}
	if err := checkGapCost(d); err != nil {
		return 0, err
	}
	var sum float64
	for j := 1; j < len(slots); j++ {
		for i := 0; i < j; i++ {
			c, err := pairCost(slots[i], slots[j], d)
			if err != nil {
				return 0, err
			}
			sum += c
		}
	}
	return sum / float64(pairs), nil
}

// Grouping is an immutable unitary alignment: one slot per annotator.
type Grouping struct {
	slots    []Slot
	disorder float64
}

// NewGrouping checks slots against tl and scores them with d. Every annotator of
// tl must appear exactly once, in any order, and every unit must belong to its
// annotator.
func NewGrouping(tl Timeline, slots []Slot, d Dissimilarity) (*Grouping, error) {
	annotators := tl.Annotators()
	if len(slots) != len(annotators) {
		return nil, fmt.Errorf("%w: %d slots for %d annotators", ErrInvalidGrouping, len(slots), len(annotators))
	}

	known := make(map[string]map[string]bool, len(annotators))
	for _, a := range annotators {
		ids := make(map[string]bool)
		for _, u := range tl.Units(a) {
			ids[u.ID] = true
		}
		known[a] = ids
	}

	seen := make(map[string]bool, len(slots))
	for _, s := range slots {
		ids, ok := known[s.Annotator]
		if !ok {
			return nil, fmt.Errorf("%w: unknown annotator %q", ErrInvalidGrouping, s.Annotator)
		}
		if seen[s.Annotator] {
			return nil, fmt.Errorf("%w: annotator %q appears twice", ErrInvalidGrouping, s.Annotator)
		}
		seen[s.Annotator] = true
		if !s.IsGap() && !ids[s.Unit.ID] {
			return nil, fmt.Errorf("%w: annotator %q has no unit %q", ErrInvalidGrouping, s.Annotator, s.Unit.ID)
		}
	}

	return newGrouping(slots, d)
}

// newGrouping scores slots without checking them against a timeline.
func newGrouping(slots []Slot, d Dissimilarity) (*Grouping, error) {
	disorder, err := Disorder(slots, d)
	if err != nil {
		return nil, err
	}
	return &Grouping{slots: copySlots(slots), disorder: disorder}, nil
}

// copySlots deep-copies slots so callers cannot mutate a grouping's units.
func copySlots(slots []Slot) []Slot {
	out := make([]Slot, len(slots))
	for i, s := range slots {
		out[i] = Slot{Annotator: s.Annotator}
		if s.Unit != nil {
			u := *s.Unit
			out[i].Unit = &u
		}
	}
	return out
}

// Disorder returns the grouping's mean pairwise dissimilarity.
func (g *Grouping) Disorder() float64 {
	return g.disorder
}

// Slots returns a copy of the grouping's slots.
func (g *Grouping) Slots() []Slot {
	return copySlots(g.slots)
}

// Refs returns the units the grouping holds, skipping gaps.
func (g *Grouping) Refs() []Ref {
	refs := make([]Ref, 0, len(g.slots))
	for _, s := range g.slots {
		if !s.IsGap() {
			refs = append(refs, s.ref())
		}
	}
	return refs
}

// Size returns the number of non-gap slots.
func (g *Grouping) Size() int {
	n := 0
	for _, s := range g.slots {
		if !s.IsGap() {
			n++
		}
	}
	return n
}

func (g *Grouping) String() string {
	return fmt.Sprintf("%v (disorder %.4f)", g.Refs(), g.disorder)
}
