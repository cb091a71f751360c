// Package testutil provides shared test utilities and fixtures.
//
// This package centralises the continuum fixtures used by the gamma, store
// and command tests so each package builds instances the same way.
package testutil

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/gamma/internal/continuum"
	"github.com/banshee-data/gamma/internal/gamma"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// PairInstance is the smallest interesting continuum: annotators "a" and "b"
// with one unit each ("a1", "b1") at the given distance.
func PairInstance(t testing.TB, distance, gap float64) (*continuum.Continuum, *continuum.TableDissimilarity) {
	t.Helper()
	c := continuum.New()
	_, err := c.AddUnit("a", gamma.Unit{ID: "a1", Start: 0, End: 1})
	AssertNoError(t, err)
	_, err = c.AddUnit("b", gamma.Unit{ID: "b1", Start: 0, End: 1})
	AssertNoError(t, err)

	d := continuum.NewTableDissimilarity(gap)
	AssertNoError(t, d.Set("a", "a1", "b", "b1", distance))
	return c, d
}

// RandomInstance builds a reproducible continuum with the given annotator
// count, each annotator holding between minUnits and maxUnits units. Every
// cross-annotator pair gets a distance drawn uniformly from [0, 2·gap), so
// some candidates survive pruning and some do not.
func RandomInstance(t testing.TB, seed int64, annotators, minUnits, maxUnits int, gap float64) (*continuum.Continuum, *continuum.TableDissimilarity) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	c := continuum.New()
	for a := 0; a < annotators; a++ {
		name := fmt.Sprintf("ann%d", a)
		c.AddAnnotator(name)
		n := minUnits + rng.Intn(maxUnits-minUnits+1)
		for u := 0; u < n; u++ {
			start := float64(u) * 10
			_, err := c.AddUnit(name, gamma.Unit{ID: fmt.Sprintf("%s-u%d", name, u), Start: start, End: start + 5})
			AssertNoError(t, err)
		}
	}

	d := continuum.NewTableDissimilarity(gap)
	names := c.Annotators()
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			for _, u := range c.Units(names[i]) {
				for _, v := range c.Units(names[j]) {
					AssertNoError(t, d.Set(names[i], u.ID, names[j], v.ID, rng.Float64()*2*gap))
				}
			}
		}
	}
	return c, d
}

// WriteJSON marshals v into dir/name and returns the path.
func WriteJSON(t testing.TB, dir, name string, v any) string {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	AssertNoError(t, err)
	path := filepath.Join(dir, name)
	AssertNoError(t, os.WriteFile(path, data, 0o644))
	return path
}
