// Package continuum holds in-memory annotation timelines and table-driven
// dissimilarities that satisfy the gamma.Timeline and gamma.Dissimilarity
// interfaces.
package continuum

import (
	"fmt"
	"sort"

	"github.com/banshee-data/gamma/internal/gamma"
)

// Continuum stores each annotator's units ordered by start, end, then ID.
// Annotators keep the order in which they were first added.
type Continuum struct {
	annotators []string
	units      map[string][]gamma.Unit
	total      int
}

// New returns an empty continuum.
func New() *Continuum {
	return &Continuum{units: make(map[string][]gamma.Unit)}
}

// AddAnnotator registers an annotator with no units. Adding an existing
// annotator is a no-op.
func (c *Continuum) AddAnnotator(name string) {
	if _, ok := c.units[name]; ok {
		return
	}
	c.annotators = append(c.annotators, name)
	c.units[name] = nil
}

// AddUnit adds u to annotator, registering the annotator if needed. An empty
// ID is replaced by "<annotator>-<n>".
func (c *Continuum) AddUnit(annotator string, u gamma.Unit) (gamma.Unit, error) {
	if annotator == "" {
		return gamma.Unit{}, fmt.Errorf("annotator name must not be empty")
	}
	if u.End < u.Start {
		return gamma.Unit{}, fmt.Errorf("unit %q of %s ends (%v) before it starts (%v)", u.ID, annotator, u.End, u.Start)
	}
	c.AddAnnotator(annotator)
	units := c.units[annotator]
	if u.ID == "" {
		u.ID = fmt.Sprintf("%s-%d", annotator, len(units)+1)
	}
	for _, existing := range units {
		if existing.ID == u.ID {
			return gamma.Unit{}, fmt.Errorf("annotator %s already has unit %q", annotator, u.ID)
		}
	}

	i := sort.Search(len(units), func(i int) bool { return unitLess(u, units[i]) })
	units = append(units, gamma.Unit{})
	copy(units[i+1:], units[i:])
	units[i] = u
	c.units[annotator] = units
	c.total++
	return u, nil
}

func unitLess(a, b gamma.Unit) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.End != b.End {
		return a.End < b.End
	}
	return a.ID < b.ID
}

// Annotators implements gamma.Timeline.
func (c *Continuum) Annotators() []string {
	return append([]string(nil), c.annotators...)
}

// Units implements gamma.Timeline.
func (c *Continuum) Units(annotator string) []gamma.Unit {
	return append([]gamma.Unit(nil), c.units[annotator]...)
}

// NumUnits implements gamma.Timeline.
func (c *Continuum) NumUnits() int {
	return c.total
}

// Unit looks up one unit by annotator and ID.
func (c *Continuum) Unit(annotator, id string) (gamma.Unit, bool) {
	for _, u := range c.units[annotator] {
		if u.ID == id {
			return u, true
		}
	}
	return gamma.Unit{}, false
}
