package continuum

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/gamma/internal/gamma"
)

// maxFixtureSize bounds fixture files read from disk.
const maxFixtureSize = 16 * 1024 * 1024

// Fixture is the JSON form of a continuum plus its distance table.
//
//	{
//	  "gap_cost": 1,
//	  "annotators": [{"name": "alice", "units": [{"id": "a1", "start": 0, "end": 2}]}],
//	  "distances": [{"a": "alice/a1", "b": "bob/b1", "value": 0.2}]
//	}
type Fixture struct {
	GapCost    float64            `json:"gap_cost"`
	Annotators []FixtureAnnotator `json:"annotators"`
	Distances  []FixtureDistance  `json:"distances"`
}

// FixtureAnnotator lists one annotator's units.
type FixtureAnnotator struct {
	Name  string       `json:"name"`
	Units []gamma.Unit `json:"units"`
}

// FixtureDistance is one table entry. A and B are "annotator/unit-id".
type FixtureDistance struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Value float64 `json:"value"`
}

// LoadFixture reads a fixture file. The path must end in .json.
func LoadFixture(path string) (*Continuum, *TableDissimilarity, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, nil, fmt.Errorf("fixture file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat fixture: %w", err)
	}
	if info.Size() > maxFixtureSize {
		return nil, nil, fmt.Errorf("fixture too large: %d bytes (max %d)", info.Size(), maxFixtureSize)
	}
	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()
	return ReadFixture(f)
}

// ReadFixture decodes a fixture and builds its continuum and dissimilarity.
func ReadFixture(r io.Reader) (*Continuum, *TableDissimilarity, error) {
	var fx Fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fx); err != nil {
		return nil, nil, fmt.Errorf("failed to parse fixture JSON: %w", err)
	}
	return fx.Build()
}

// Build turns the decoded fixture into a continuum and dissimilarity.
func (fx *Fixture) Build() (*Continuum, *TableDissimilarity, error) {
	c := New()
	for _, a := range fx.Annotators {
		if a.Name == "" {
			return nil, nil, fmt.Errorf("annotator with empty name")
		}
		c.AddAnnotator(a.Name)
		for _, u := range a.Units {
			if _, err := c.AddUnit(a.Name, u); err != nil {
				return nil, nil, err
			}
		}
	}

	t := NewTableDissimilarity(fx.GapCost)
	for i, d := range fx.Distances {
		aName, aID, err := splitRef(d.A)
		if err != nil {
			return nil, nil, fmt.Errorf("distance %d: %w", i, err)
		}
		bName, bID, err := splitRef(d.B)
		if err != nil {
			return nil, nil, fmt.Errorf("distance %d: %w", i, err)
		}
		if _, ok := c.Unit(aName, aID); !ok {
			return nil, nil, fmt.Errorf("distance %d: unknown unit %q", i, d.A)
		}
		if _, ok := c.Unit(bName, bID); !ok {
			return nil, nil, fmt.Errorf("distance %d: unknown unit %q", i, d.B)
		}
		if err := t.Set(aName, aID, bName, bID, d.Value); err != nil {
			return nil, nil, fmt.Errorf("distance %d: %w", i, err)
		}
	}
	return c, t, nil
}

func splitRef(s string) (string, string, error) {
	i := strings.LastIndex(s, "/")
	if i <= 0 || i == len(s)-1 {
		return "", "", fmt.Errorf("invalid unit reference %q: expected annotator/id", s)
	}
	return s[:i], s[i+1:], nil
}
