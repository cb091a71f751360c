package gamma

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/gamma/internal/monitoring"
)

// Objective selects what ComputeBestAlignment minimises.
type Objective string

const (
	// ObjectiveMean minimises the alignment's mean grouping disorder, the
	// value Alignment.Disorder reports.
	ObjectiveMean Objective = "mean"
	// ObjectiveSum minimises the plain sum of grouping disorders.
	ObjectiveSum Objective = "sum"
)

// DefaultMaxRefinements bounds the mean-objective refinement rounds.
const DefaultMaxRefinements = 32

// Options controls ComputeBestAlignment.
type Options struct {
	// MaxCandidates caps candidates surviving pruning. Zero means no cap.
	MaxCandidates int
	// Solver picks the exact cover. Nil means a BranchAndBound with the LP
	// relaxation enabled.
	Solver Solver
	// Objective defaults to ObjectiveMean.
	Objective Objective
	// MaxRefinements bounds the rounds spent moving from the minimum-sum
	// cover to the minimum-mean cover. Zero means DefaultMaxRefinements.
	MaxRefinements int
	// Timeout is one deadline for candidate generation and every solve of the
	// run. Running out of it reports ErrSolveLimit. Zero means no deadline.
	Timeout time.Duration
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxCandidates:  100000,
		Solver:         &BranchAndBound{Relaxation: true, SelectionThreshold: DefaultSelectionThreshold},
		Objective:      ObjectiveMean,
		MaxRefinements: DefaultMaxRefinements,
	}
}

// Stats describes one ComputeBestAlignment run.
type Stats struct {
	Annotators  int            `json:"annotators"`
	Units       int            `json:"units"`
	Candidates  GeneratorStats `json:"candidates"`
	Refinements int            `json:"refinements"`
	Nodes       int64          `json:"nodes"`
	Relaxed     bool           `json:"relaxed"`
	Elapsed     time.Duration  `json:"elapsed"`
}

// BestAlignment is the alignment of minimal disorder over a timeline.
type BestAlignment struct {
	*Alignment
	RunID     string
	Objective Objective
	Stats     Stats
}

// ComputeBestAlignment enumerates candidate groupings for tl, selects the exact
// cover with the lowest disorder and validates it before returning.
//
// With ObjectiveSum the result minimises the sum of grouping disorders. With
// ObjectiveMean the sum-optimal cover is refined by repeatedly solving with
// costs shifted by the current mean (Dinkelbach's method) until no cover has
// a lower mean.
func ComputeBestAlignment(ctx context.Context, tl Timeline, d Dissimilarity, opts Options) (*BestAlignment, error) {
	start := time.Now()
	if opts.Solver == nil {
		opts.Solver = &BranchAndBound{Relaxation: true}
	}
	if opts.Objective == "" {
		opts.Objective = ObjectiveMean
	}
	if opts.MaxRefinements == 0 {
		opts.MaxRefinements = DefaultMaxRefinements
	}
	if opts.Objective != ObjectiveMean && opts.Objective != ObjectiveSum {
		return nil, fmt.Errorf("gamma: unknown objective %q", opts.Objective)
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, opts.Timeout,
			fmt.Errorf("%w: timeout after %v", ErrSolveLimit, opts.Timeout))
		defer cancel()
	}

	best := &BestAlignment{
		RunID:     uuid.NewString(),
		Objective: opts.Objective,
		Stats:     Stats{Annotators: len(tl.Annotators()), Units: tl.NumUnits()},
	}
	if _, err := numPairs(best.Stats.Annotators); err != nil {
		return nil, err
	}
	if best.Stats.Units == 0 {
		return nil, fmt.Errorf("%w: timeline has no units", ErrDegenerateInput)
	}
	if err := checkGapCost(d); err != nil {
		return nil, err
	}

	gen := Generator{MaxCandidates: opts.MaxCandidates}
	candidates, genStats, err := gen.Generate(ctx, tl, d)
	best.Stats.Candidates = genStats
	if err != nil {
		return nil, fmt.Errorf("generating candidates: %w", err)
	}

	p, err := BuildProblem(tl, candidates)
	if err != nil {
		return nil, fmt.Errorf("building problem: %w", err)
	}

	sol, err := opts.Solver.Solve(ctx, p, p.Costs)
	best.Stats.Nodes += sol.Nodes
	if err != nil {
		return nil, fmt.Errorf("solving %d units x %d candidates: %w", p.NumRows(), p.NumCols(), err)
	}
	best.Stats.Relaxed = sol.Relaxed

	if opts.Objective == ObjectiveMean {
		sol, err = refineMean(ctx, opts, p, sol, &best.Stats)
		if err != nil {
			return nil, err
		}
	}

	a, err := NewAlignment(tl, p.Groupings(sol.Selected))
	if err != nil {
		return nil, fmt.Errorf("solver returned an invalid alignment: %w", err)
	}
	best.Alignment = a
	best.Stats.Elapsed = time.Since(start)

	monitoring.Logf("[gamma] run %s: disorder=%.6f groupings=%d candidates=%d nodes=%d refinements=%d in %v",
		best.RunID, a.Disorder(), a.NumGroupings(), p.NumCols(), best.Stats.Nodes, best.Stats.Refinements, best.Stats.Elapsed)
	return best, nil
}

// refineMean runs Dinkelbach iterations from sol. A cover S is mean-optimal
// exactly when min over covers of Σ (d_j - mean(S)) is zero.
func refineMean(ctx context.Context, opts Options, p *Problem, sol Solution, stats *Stats) (Solution, error) {
	shifted := make([]float64, len(p.Costs))
	for round := 1; ; round++ {
		lambda := p.Objective(sol.Selected, p.Costs) / float64(len(sol.Selected))
		if round > opts.MaxRefinements {
			return sol, fmt.Errorf("%w: mean objective not settled after %d refinements (mean %.6g)", ErrSolveLimit, opts.MaxRefinements, lambda)
		}
		for j, c := range p.Costs {
			shifted[j] = c - lambda
		}
		next, err := opts.Solver.Solve(ctx, p, shifted)
		stats.Nodes += next.Nodes
		if err != nil {
			return sol, fmt.Errorf("refinement %d: %w", round, err)
		}
		stats.Refinements = round
		if next.Objective >= -objectiveTol {
			return sol, nil
		}
		if p.Objective(next.Selected, p.Costs)/float64(len(next.Selected)) >= lambda {
			return sol, nil
		}
		sol = next
		stats.Relaxed = next.Relaxed
	}
}

// GroupingSummary is the serialisable form of one grouping.
type GroupingSummary struct {
	Disorder float64 `json:"disorder"`
	Slots    []Slot  `json:"slots"`
}

// Summary is the serialisable report of a BestAlignment.
type Summary struct {
	RunID       string            `json:"run_id"`
	Objective   Objective         `json:"objective"`
	Disorder    float64           `json:"disorder"`
	Annotators  int               `json:"annotators"`
	Units       int               `json:"units"`
	Candidates  int64             `json:"candidates"`
	Nodes       int64             `json:"nodes"`
	Refinements int               `json:"refinements"`
	Relaxed     bool              `json:"relaxed"`
	ElapsedMS   int64             `json:"elapsed_ms"`
	Groupings   []GroupingSummary `json:"groupings"`
}

// Summary returns a JSON-friendly report of b.
func (b *BestAlignment) Summary() Summary {
	s := Summary{
		RunID:       b.RunID,
		Objective:   b.Objective,
		Disorder:    b.Disorder(),
		Annotators:  b.Stats.Annotators,
		Units:       b.Stats.Units,
		Candidates:  b.Stats.Candidates.Kept,
		Nodes:       b.Stats.Nodes,
		Refinements: b.Stats.Refinements,
		Relaxed:     b.Stats.Relaxed,
		ElapsedMS:   b.Stats.Elapsed.Milliseconds(),
	}
	for _, g := range b.Groupings() {
		s.Groupings = append(s.Groupings, GroupingSummary{Disorder: g.Disorder(), Slots: g.Slots()})
	}
	return s
}
