package gamma

import "fmt"

// ValidatePartition checks that every unit of tl is referenced by exactly one
// grouping. Units are visited in timeline order and the first violation is
// returned as a *PartitionError. References to units outside tl are reported
// after every timeline unit has been checked. A nil grouping is rejected with
// ErrInvalidGrouping.
func ValidatePartition(tl Timeline, groupings []*Grouping) error {
	counts := make(map[unitKey]int, tl.NumUnits())
	var order []Ref
	for i, g := range groupings {
		if g == nil {
			return fmt.Errorf("%w: grouping %d is nil", ErrInvalidGrouping, i)
		}
		for _, r := range g.Refs() {
			k := r.key()
			if counts[k] == 0 {
				order = append(order, r)
			}
			counts[k]++
		}
	}

	inTimeline := make(map[unitKey]bool, tl.NumUnits())
	for _, r := range timelineRefs(tl) {
		k := r.key()
		inTimeline[k] = true
		switch n := counts[k]; {
		case n == 0:
			return &PartitionError{Kind: PartitionMissing, Annotator: r.Annotator, UnitID: r.Unit.ID}
		case n > 1:
			return &PartitionError{Kind: PartitionDuplicate, Annotator: r.Annotator, UnitID: r.Unit.ID, Count: n}
		}
	}

	for _, r := range order {
		if !inTimeline[r.key()] {
			return &PartitionError{Kind: PartitionUnknown, Annotator: r.Annotator, UnitID: r.Unit.ID, Count: counts[r.key()]}
		}
	}
	return nil
}
