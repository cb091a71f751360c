package gamma

import "fmt"

// Unit is one annotated segment produced by a single annotator.
// ID must be unique among the units of that annotator.
type Unit struct {
	ID         string  `json:"id"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Annotation string  `json:"annotation,omitempty"`
}

// Ref is a unit together with the annotator that produced it.
type Ref struct {
	Annotator string
	Unit      Unit
}

func (r Ref) key() unitKey {
	return unitKey{annotator: r.Annotator, id: r.Unit.ID}
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Annotator, r.Unit.ID)
}

// unitKey identifies a unit inside a timeline.
type unitKey struct {
	annotator string
	id        string
}

// Timeline holds, per annotator, an ordered set of units.
type Timeline interface {
	// Annotators returns the annotator names in a stable order.
	Annotators() []string
	// Units returns the units of one annotator in a stable order.
	Units(annotator string) []Unit
	// NumUnits returns the total unit count across all annotators.
	NumUnits() int
}

// Dissimilarity scores how far apart two units from different annotators are.
type Dissimilarity interface {
	// GapCost is the penalty for a pair in which one side is a gap.
	GapCost() float64
	// Distance must be symmetric and non-negative.
	Distance(a, b Ref) float64
}

// Slot is one annotator's position inside a grouping. A nil Unit is a gap.
type Slot struct {
	Annotator string `json:"annotator"`
	Unit      *Unit  `json:"unit,omitempty"`
}

// IsGap reports whether the slot holds no unit.
func (s Slot) IsGap() bool {
	return s.Unit == nil
}

func (s Slot) ref() Ref {
	return Ref{Annotator: s.Annotator, Unit: *s.Unit}
}

// GapSlot returns an empty slot for annotator.
func GapSlot(annotator string) Slot {
	return Slot{Annotator: annotator}
}

// UnitSlot returns a slot holding a copy of u.
func UnitSlot(annotator string, u Unit) Slot {
	return Slot{Annotator: annotator, Unit: &u}
}

// timelineRefs flattens tl into refs in annotator-then-unit order.
func timelineRefs(tl Timeline) []Ref {
	refs := make([]Ref, 0, tl.NumUnits())
	for _, annotator := range tl.Annotators() {
		for _, u := range tl.Units(annotator) {
			refs = append(refs, Ref{Annotator: annotator, Unit: u})
		}
	}
	return refs
}
