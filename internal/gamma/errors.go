package gamma

import (
	"errors"
	"fmt"
)

var (
	// ErrPartition is matched by every *PartitionError.
	ErrPartition = errors.New("gamma: groupings do not partition the timeline")

	// ErrInfeasible is returned when no exact cover exists among the candidates.
	ErrInfeasible = errors.New("gamma: no exact cover exists among the candidate groupings")

	// ErrDegenerateInput is returned for timelines where disorder is undefined:
	// fewer than two annotators, or no units at all.
	ErrDegenerateInput = errors.New("gamma: degenerate input")

	// ErrInvalidDissimilarity is returned for a negative or NaN gap cost or distance.
	ErrInvalidDissimilarity = errors.New("gamma: invalid dissimilarity value")

	// ErrInvalidGrouping is returned when a slot tuple does not match the timeline.
	ErrInvalidGrouping = errors.New("gamma: invalid grouping")

	// ErrCandidateLimit is returned when more candidates survive pruning than allowed.
	ErrCandidateLimit = errors.New("gamma: candidate limit exceeded")

	// ErrSolveLimit is returned when the solver runs out of nodes, time or
	// refinement rounds before proving optimality.
	ErrSolveLimit = errors.New("gamma: solve limit reached")
)

// PartitionErrorKind classifies a partition violation.
type PartitionErrorKind int

const (
	// PartitionMissing means the unit is in no grouping.
	PartitionMissing PartitionErrorKind = iota
	// PartitionDuplicate means the unit is in more than one grouping.
	PartitionDuplicate
	// PartitionUnknown means a grouping references a unit the timeline does not hold.
	PartitionUnknown
)

func (k PartitionErrorKind) String() string {
	switch k {
	case PartitionMissing:
		return "missing"
	case PartitionDuplicate:
		return "duplicate"
	case PartitionUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("PartitionErrorKind(%d)", int(k))
	}
}

// PartitionError reports the first unit that breaks the partition invariant.
type PartitionError struct {
	Kind      PartitionErrorKind
	Annotator string
	UnitID    string
	// Count is how many groupings reference the unit.
	Count int
}

func (e *PartitionError) Error() string {
	switch e.Kind {
	case PartitionMissing:
		return fmt.Sprintf("unit %s/%s is not in any grouping", e.Annotator, e.UnitID)
	case PartitionDuplicate:
		return fmt.Sprintf("unit %s/%s is assigned to %d groupings", e.Annotator, e.UnitID, e.Count)
	default:
		return fmt.Sprintf("unit %s/%s is not part of the timeline", e.Annotator, e.UnitID)
	}
}

// Is makes errors.Is(err, ErrPartition) true for any *PartitionError.
func (e *PartitionError) Is(target error) bool {
	return target == ErrPartition
}
