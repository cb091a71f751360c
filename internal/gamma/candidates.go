package gamma

import (
	"context"
	"fmt"

	"github.com/banshee-data/gamma/internal/monitoring"
)

// ctxCheckInterval is how many enumeration nodes pass between context checks.
const ctxCheckInterval = 4096

// Generator enumerates candidate groupings: every choice of one unit or a gap
// per annotator, minus those whose disorder reaches annotators × gap cost.
type Generator struct {
	// MaxCandidates caps the number of surviving candidates. Zero means no cap.
	MaxCandidates int
}

// GeneratorStats counts the work done by one enumeration.
type GeneratorStats struct {
	Visited int64 `json:"visited"`
	Pruned  int64 `json:"pruned"`
	Kept    int64 `json:"kept"`
}

// PruneThreshold is the disorder at or above which a candidate is discarded.
func PruneThreshold(tl Timeline, d Dissimilarity) float64 {
	return float64(len(tl.Annotators())) * d.GapCost()
}

// Each calls fn for every surviving candidate in depth-first order over the
// annotators of tl. Subtrees are cut as soon as the partial pair sum already
// reaches the threshold, since the remaining pairs can only add to it. The
// all-gap tuple covers no unit and is never produced.
func (g *Generator) Each(ctx context.Context, tl Timeline, d Dissimilarity, fn func(*Grouping) error) (GeneratorStats, error) {
	annotators := tl.Annotators()
	pairs, err := numPairs(len(annotators))
	if err != nil {
		return GeneratorStats{}, err
	}
	if err := checkGapCost(d); err != nil {
		return GeneratorStats{}, err
	}

	w := &walker{
		ctx:        ctx,
		d:          d,
		fn:         fn,
		limit:      g.MaxCandidates,
		annotators: annotators,
		units:      make([][]Unit, len(annotators)),
		slots:      make([]Slot, len(annotators)),
		pairs:      float64(pairs),
		threshold:  PruneThreshold(tl, d),
	}
	for i, a := range annotators {
		w.units[i] = tl.Units(a)
	}

	err = w.visit(0, 0, 0)
	return w.stats, err
}

// Generate collects every surviving candidate.
func (g *Generator) Generate(ctx context.Context, tl Timeline, d Dissimilarity) ([]*Grouping, GeneratorStats, error) {
	var out []*Grouping
	stats, err := g.Each(ctx, tl, d, func(c *Grouping) error {
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	monitoring.Logf("[gamma] candidates: visited=%d pruned=%d kept=%d", stats.Visited, stats.Pruned, stats.Kept)
	return out, stats, nil
}

type walker struct {
	ctx        context.Context
	d          Dissimilarity
	fn         func(*Grouping) error
	limit      int
	annotators []string
	units      [][]Unit
	slots      []Slot
	pairs      float64
	threshold  float64
	stats      GeneratorStats
}

// visit fills slot depth. sum holds the pair costs among slots [0, depth),
// accumulated in the same order Disorder uses, so the leaf value is bit-equal
// to Disorder(slots).
func (w *walker) visit(depth int, sum float64, filled int) error {
	w.stats.Visited++
	if w.stats.Visited%ctxCheckInterval == 0 {
		if w.ctx.Err() != nil {
			return context.Cause(w.ctx)
		}
	}

	if depth == len(w.slots) {
		if filled == 0 {
			return nil
		}
		if w.limit > 0 && w.stats.Kept >= int64(w.limit) {
			return fmt.Errorf("%w: more than %d candidates survive pruning", ErrCandidateLimit, w.limit)
		}
		w.stats.Kept++
		return w.fn(&Grouping{slots: copySlots(w.slots), disorder: sum / w.pairs})
	}

	annotator := w.annotators[depth]
	units := w.units[depth]
	for k := 0; k <= len(units); k++ {
		next := filled
		if k < len(units) {
			w.slots[depth] = Slot{Annotator: annotator, Unit: &units[k]}
			next++
		} else {
			w.slots[depth] = GapSlot(annotator)
		}

		partial := sum
		for i := 0; i < depth; i++ {
			c, err := pairCost(w.slots[i], w.slots[depth], w.d)
			if err != nil {
				return err
			}
			partial += c
		}
		if partial/w.pairs >= w.threshold {
			w.stats.Pruned++
			continue
		}
		if err := w.visit(depth+1, partial, next); err != nil {
			return err
		}
	}
	return nil
}
