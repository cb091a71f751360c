package continuum

import (
	"fmt"
	"math"

	"github.com/banshee-data/gamma/internal/gamma"
)

type refKey struct {
	annotator string
	id        string
}

type pairKey struct {
	a, b refKey
}

func newPairKey(a, b refKey) pairKey {
	if b.annotator < a.annotator || (b.annotator == a.annotator && b.id < a.id) {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// TableDissimilarity answers distances from an explicit symmetric table.
// Pairs that were never set are Missing apart, +Inf unless changed, which
// keeps them out of every candidate grouping.
type TableDissimilarity struct {
	Gap     float64
	Missing float64
	table   map[pairKey]float64
}

// NewTableDissimilarity returns an empty table with the given gap cost.
func NewTableDissimilarity(gap float64) *TableDissimilarity {
	return &TableDissimilarity{
		Gap:     gap,
		Missing: math.Inf(1),
		table:   make(map[pairKey]float64),
	}
}

// Set records the distance between two units, in both directions.
func (t *TableDissimilarity) Set(annotatorA, idA, annotatorB, idB string, v float64) error {
	if annotatorA == annotatorB {
		return fmt.Errorf("distance between %s/%s and %s/%s: units share an annotator", annotatorA, idA, annotatorB, idB)
	}
	if v < 0 || math.IsNaN(v) {
		return fmt.Errorf("distance between %s/%s and %s/%s must be non-negative, got %v", annotatorA, idA, annotatorB, idB, v)
	}
	t.table[newPairKey(refKey{annotatorA, idA}, refKey{annotatorB, idB})] = v
	return nil
}

// Len returns the number of stored pairs.
func (t *TableDissimilarity) Len() int {
	return len(t.table)
}

// GapCost implements gamma.Dissimilarity.
func (t *TableDissimilarity) GapCost() float64 {
	return t.Gap
}

// Distance implements gamma.Dissimilarity.
func (t *TableDissimilarity) Distance(a, b gamma.Ref) float64 {
	v, ok := t.table[newPairKey(refKey{a.Annotator, a.Unit.ID}, refKey{b.Annotator, b.Unit.ID})]
	if !ok {
		return t.Missing
	}
	return v
}
