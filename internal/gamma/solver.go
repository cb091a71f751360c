package gamma

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/banshee-data/gamma/internal/monitoring"
	"github.com/banshee-data/gamma/internal/timeutil"
)

// Solver picks an exact cover of p minimising the sum of costs over the
// selected columns. costs has one entry per column of p; it is passed apart
// from p so one problem can be re-solved under shifted costs.
type Solver interface {
	Solve(ctx context.Context, p *Problem, costs []float64) (Solution, error)
}

// Solution is a selected set of columns and how it was found.
type Solution struct {
	Selected  []int   `json:"selected"`
	Objective float64 `json:"objective"`
	// LowerBound is the LP relaxation optimum, or -Inf when none was computed.
	LowerBound float64 `json:"-"`
	Nodes      int64   `json:"nodes"`
	// Relaxed is set when the LP relaxation was already integral.
	Relaxed bool `json:"relaxed"`
}

// objectiveTol absorbs rounding when comparing objective values.
const objectiveTol = 1e-9

// BranchAndBound is an exact-cover Solver. It branches on the uncovered unit
// with the fewest compatible candidates and bounds each node by giving every
// uncovered unit the cheapest per-unit share of a compatible candidate.
type BranchAndBound struct {
	// MaxNodes caps the number of search nodes. Zero means no cap.
	MaxNodes int64
	// Timeout caps the wall time of each Solve call on its own. A mean
	// objective solves several times, so ComputeBestAlignment takes its
	// overall deadline from Options.Timeout instead. Zero means no timeout.
	Timeout time.Duration
	// Clock measures Timeout. Nil means the wall clock.
	Clock timeutil.Clock
	// Relaxation solves the LP relaxation first. An integral LP optimum is
	// returned as is; otherwise its objective lets the search stop early.
	Relaxation bool
	// SelectionThreshold is the LP value above which a variable is selected.
	// Zero means DefaultSelectionThreshold.
	SelectionThreshold float64
}

// Solve implements Solver.
func (b *BranchAndBound) Solve(ctx context.Context, p *Problem, costs []float64) (Solution, error) {
	if len(costs) != p.NumCols() {
		return Solution{}, fmt.Errorf("gamma: %d costs for %d candidates", len(costs), p.NumCols())
	}
	sol := Solution{LowerBound: math.Inf(-1)}
	if p.NumRows() == 0 {
		return sol, nil
	}
	for i, cols := range p.rowCols {
		if len(cols) == 0 {
			return sol, fmt.Errorf("%w: no candidate holds unit %s", ErrInfeasible, p.Rows[i])
		}
	}

	clock := b.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	var deadline time.Time
	if b.Timeout > 0 {
		deadline = clock.Now().Add(b.Timeout)
	}
	if err := expired(ctx, clock, deadline); err != nil {
		return sol, err
	}

	if b.Relaxation {
		threshold := b.SelectionThreshold
		if threshold == 0 {
			threshold = DefaultSelectionThreshold
		}
		r, err := relax(p, costs, threshold)
		switch {
		case err != nil:
			monitoring.Logf("[gamma] LP relaxation unavailable: %v", err)
		case r.integral:
			sol.Selected = r.selected
			sol.Objective = p.Objective(r.selected, costs)
			sol.LowerBound = r.objective
			sol.Relaxed = true
			return sol, nil
		default:
			sol.LowerBound = r.objective
		}
	}

	s := newSearch(ctx, p, costs, b.MaxNodes, sol.LowerBound)
	s.clock, s.deadline = clock, deadline
	err := s.dfs(0)
	sol.Nodes = s.nodes
	if err != nil {
		if s.best != nil {
			return sol, fmt.Errorf("%w (best objective %.6g after %d nodes)", err, s.bestCost, s.nodes)
		}
		return sol, err
	}
	if s.best == nil {
		return sol, fmt.Errorf("%w: searched %d nodes", ErrInfeasible, s.nodes)
	}
	sol.Selected = s.best
	sol.Objective = s.bestCost
	return sol, nil
}

type search struct {
	ctx      context.Context
	costs    []float64
	colRows  [][]int
	rowCols  [][]int
	share    []float64
	covered  []bool
	blocked  []int
	left     int
	chosen   []int
	best     []int
	bestCost float64
	lower    float64
	done     bool
	nodes    int64
	maxNodes int64
	clock    timeutil.Clock
	deadline time.Time
}

func newSearch(ctx context.Context, p *Problem, costs []float64, maxNodes int64, lower float64) *search {
	s := &search{
		ctx:      ctx,
		costs:    costs,
		colRows:  p.colRows,
		rowCols:  make([][]int, len(p.rowCols)),
		share:    make([]float64, len(costs)),
		covered:  make([]bool, len(p.rowCols)),
		blocked:  make([]int, len(costs)),
		left:     len(p.rowCols),
		bestCost: math.Inf(1),
		lower:    lower,
		maxNodes: maxNodes,
	}
	for j, rows := range p.colRows {
		s.share[j] = costs[j] / float64(len(rows))
	}
	for i, cols := range p.rowCols {
		sorted := append([]int(nil), cols...)
		sort.SliceStable(sorted, func(a, b int) bool { return costs[sorted[a]] < costs[sorted[b]] })
		s.rowCols[i] = sorted
	}
	return s
}

func (s *search) checkLimits() error {
	if s.maxNodes > 0 && s.nodes > s.maxNodes {
		return fmt.Errorf("%w: node limit %d", ErrSolveLimit, s.maxNodes)
	}
	if s.nodes%limitCheckInterval == 0 {
		return expired(s.ctx, s.clock, s.deadline)
	}
	return nil
}

// limitCheckInterval is how many search nodes pass between clock and context
// checks.
const limitCheckInterval = 1024

// expired reports a cancelled ctx by its cause, or a passed deadline as
// ErrSolveLimit.
func expired(ctx context.Context, clock timeutil.Clock, deadline time.Time) error {
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	if !deadline.IsZero() && clock.Now().After(deadline) {
		return fmt.Errorf("%w: timeout", ErrSolveLimit)
	}
	return nil
}

func (s *search) dfs(cost float64) error {
	if s.done {
		return nil
	}
	s.nodes++
	if err := s.checkLimits(); err != nil {
		return err
	}

	if s.left == 0 {
		if cost < s.bestCost {
			s.bestCost = cost
			s.best = append([]int(nil), s.chosen...)
			if s.bestCost <= s.lower+objectiveTol {
				s.done = true
			}
		}
		return nil
	}

	bound := cost
	pick, pickCount := -1, math.MaxInt
	for i, cols := range s.rowCols {
		if s.covered[i] {
			continue
		}
		n := 0
		minShare := math.Inf(1)
		for _, j := range cols {
			if s.blocked[j] != 0 {
				continue
			}
			n++
			minShare = math.Min(minShare, s.share[j])
		}
		if n == 0 {
			return nil
		}
		bound += minShare
		if n < pickCount {
			pick, pickCount = i, n
		}
	}
	if bound >= s.bestCost-objectiveTol {
		return nil
	}

	for _, j := range s.rowCols[pick] {
		if s.blocked[j] != 0 {
			continue
		}
		s.choose(j)
		err := s.dfs(cost + s.costs[j])
		s.unchoose(j)
		if err != nil {
			return err
		}
		if s.done {
			return nil
		}
	}
	return nil
}

func (s *search) choose(j int) {
	s.chosen = append(s.chosen, j)
	for _, i := range s.colRows[j] {
		s.covered[i] = true
		s.left--
		for _, k := range s.rowCols[i] {
			s.blocked[k]++
		}
	}
}

func (s *search) unchoose(j int) {
	s.chosen = s.chosen[:len(s.chosen)-1]
	for _, i := range s.colRows[j] {
		s.covered[i] = false
		s.left++
		for _, k := range s.rowCols[i] {
			s.blocked[k]--
		}
	}
}
