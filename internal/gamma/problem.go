package gamma

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Problem is the exact-cover program over a set of candidate groupings:
//
//	minimise   Σ cost_j x_j
//	s.t.       A x = 1,  x ∈ {0, 1}
//
// Row i of A is the unit Rows[i]; column j is Candidates[j]. A is nil when
// there are no rows or no columns.
type Problem struct {
	Candidates []*Grouping
	Rows       []Ref
	Costs      []float64
	A          *mat.Dense

	colRows [][]int
	rowCols [][]int
}

// BuildProblem lays out candidates against the units of tl. Costs are the
// candidates' disorders.
func BuildProblem(tl Timeline, candidates []*Grouping) (*Problem, error) {
	rows := timelineRefs(tl)
	index := make(map[unitKey]int, len(rows))
	for i, r := range rows {
		index[r.key()] = i
	}

	p := &Problem{
		Candidates: candidates,
		Rows:       rows,
		Costs:      make([]float64, len(candidates)),
		colRows:    make([][]int, len(candidates)),
		rowCols:    make([][]int, len(rows)),
	}
	if len(rows) > 0 && len(candidates) > 0 {
		p.A = mat.NewDense(len(rows), len(candidates), nil)
	}

	for j, c := range candidates {
		p.Costs[j] = c.Disorder()
		for _, r := range c.Refs() {
			i, ok := index[r.key()]
			if !ok {
				return nil, &PartitionError{Kind: PartitionUnknown, Annotator: r.Annotator, UnitID: r.Unit.ID, Count: 1}
			}
			p.A.Set(i, j, 1)
			p.colRows[j] = append(p.colRows[j], i)
			p.rowCols[i] = append(p.rowCols[i], j)
		}
		if len(p.colRows[j]) == 0 {
			return nil, fmt.Errorf("%w: candidate %d covers no unit", ErrInvalidGrouping, j)
		}
	}
	return p, nil
}

// NumRows returns the number of units to cover.
func (p *Problem) NumRows() int {
	return len(p.Rows)
}

// NumCols returns the number of candidate groupings.
func (p *Problem) NumCols() int {
	return len(p.Candidates)
}

// Objective sums costs over the selected columns.
func (p *Problem) Objective(selected []int, costs []float64) float64 {
	var sum float64
	for _, j := range selected {
		sum += costs[j]
	}
	return sum
}

// IsExactCover reports whether selected covers every row exactly once.
func (p *Problem) IsExactCover(selected []int) bool {
	hits := make([]int, len(p.Rows))
	for _, j := range selected {
		if j < 0 || j >= len(p.colRows) {
			return false
		}
		for _, i := range p.colRows[j] {
			hits[i]++
		}
	}
	for _, h := range hits {
		if h != 1 {
			return false
		}
	}
	return true
}

// Groupings maps selected column indexes back to candidates.
func (p *Problem) Groupings(selected []int) []*Grouping {
	out := make([]*Grouping, 0, len(selected))
	for _, j := range selected {
		out = append(out, p.Candidates[j])
	}
	return out
}
