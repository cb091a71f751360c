package gamma

import "gonum.org/v1/gonum/floats"

// Alignment is a set of groupings that partitions every unit of a timeline.
type Alignment struct {
	groupings []*Grouping
	disorder  float64
}

// NewAlignment validates that groupings partition tl and computes the mean
// disorder. It fails with a *PartitionError when the partition is broken.
func NewAlignment(tl Timeline, groupings []*Grouping) (*Alignment, error) {
	if err := ValidatePartition(tl, groupings); err != nil {
		return nil, err
	}
	gs := make([]*Grouping, len(groupings))
	copy(gs, groupings)
	return &Alignment{groupings: gs, disorder: meanDisorder(gs)}, nil
}

// meanDisorder is 0 for an empty set, which only happens for an empty timeline.
func meanDisorder(gs []*Grouping) float64 {
	if len(gs) == 0 {
		return 0
	}
	ds := make([]float64, len(gs))
	for i, g := range gs {
		ds[i] = g.Disorder()
	}
	return floats.Sum(ds) / float64(len(ds))
}

// Disorder is the mean grouping disorder. Lower means closer agreement.
func (a *Alignment) Disorder() float64 {
	return a.disorder
}

// NumGroupings returns how many groupings the alignment holds.
func (a *Alignment) NumGroupings() int {
	return len(a.groupings)
}

// Groupings returns the alignment's groupings.
func (a *Alignment) Groupings() []*Grouping {
	out := make([]*Grouping, len(a.groupings))
	copy(out, a.groupings)
	return out
}
