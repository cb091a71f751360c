package gamma

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/optimize/convex/lp"
)

// DefaultSelectionThreshold is the LP value above which a variable counts as
// selected. Simplex returns values such as 0.9999999 or 1e-14 rather than
// exact 0 and 1.
const DefaultSelectionThreshold = 0.9

// simplexTol is the reduced-cost tolerance handed to lp.Simplex.
const simplexTol = 1e-10

var errRelaxationShape = errors.New("gamma: relaxation needs at least as many candidates as units")

// relaxation is the solution of the LP obtained by dropping x ∈ {0, 1} to x ≥ 0.
// x ≤ 1 needs no explicit row: every column covers at least one unit and that
// unit's row sums to 1.
type relaxation struct {
	objective float64
	x         []float64
	selected  []int
	// integral is set when every x is within the threshold of 0 or 1 and the
	// rounded selection is an exact cover costing no more than the LP
	// optimum, making it optimal for the ILP too.
	integral bool
}

// relax solves the LP relaxation of p under costs. gonum's Simplex requires a
// full-row-rank A with no more rows than columns; any failure just means the
// caller has no bound to work with.
func relax(p *Problem, costs []float64, threshold float64) (*relaxation, error) {
	if p.A == nil {
		return nil, errRelaxationShape
	}
	rows, cols := p.A.Dims()
	if rows > cols {
		return nil, errRelaxationShape
	}

	b := make([]float64, rows)
	for i := range b {
		b[i] = 1
	}
	obj, x, err := lp.Simplex(costs, p.A, b, simplexTol, nil)
	if err != nil {
		return nil, fmt.Errorf("simplex: %w", err)
	}

	return roundRelaxation(p, costs, obj, x, threshold), nil
}

// roundRelaxation selects the columns of x above threshold and decides
// whether that selection is a proven optimum.
func roundRelaxation(p *Problem, costs []float64, obj float64, x []float64, threshold float64) *relaxation {
	r := &relaxation{objective: obj, x: x, integral: true}
	for j, v := range x {
		switch {
		case v > threshold:
			r.selected = append(r.selected, j)
		case v > 1-threshold:
			r.integral = false
		}
	}
	if r.integral && !p.IsExactCover(r.selected) {
		r.integral = false
	}
	if r.integral && p.Objective(r.selected, costs) > obj+objectiveTol {
		r.integral = false
	}
	return r
}
