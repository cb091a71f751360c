package continuum

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gamma/internal/gamma"
)

const validFixture = `{
  "gap_cost": 1,
  "annotators": [
    {"name": "alice", "units": [{"id": "a1", "start": 0, "end": 2, "annotation": "speech"}]},
    {"name": "bob", "units": [{"id": "b1", "start": 0.5, "end": 2}, {"start": 4, "end": 5}]},
    {"name": "carol"}
  ],
  "distances": [
    {"a": "alice/a1", "b": "bob/b1", "value": 0.2}
  ]
}`

func TestReadFixture(t *testing.T) {
	t.Parallel()
	c, d, err := ReadFixture(strings.NewReader(validFixture))
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "bob", "carol"}, c.Annotators())
	assert.Equal(t, 3, c.NumUnits())
	a1, ok := c.Unit("alice", "a1")
	require.True(t, ok)
	assert.Equal(t, "speech", a1.Annotation)
	_, ok = c.Unit("bob", "bob-2")
	assert.True(t, ok, "units without an id get one assigned")

	assert.Equal(t, 1.0, d.GapCost())
	assert.Equal(t, 1, d.Len())
	b1, _ := c.Unit("bob", "b1")
	assert.Equal(t, 0.2, d.Distance(gamma.Ref{Annotator: "alice", Unit: a1}, gamma.Ref{Annotator: "bob", Unit: b1}))
}

func TestReadFixture_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		errSubstr string
	}{
		{"malformed json", `{"gap_cost": `, "parse fixture"},
		{"unknown field", `{"gap_cost": 1, "gap": 2}`, "unknown field"},
		{"empty annotator name", `{"annotators": [{"name": ""}]}`, "empty name"},
		{"bad unit", `{"annotators": [{"name": "a", "units": [{"id": "x", "start": 2, "end": 1}]}]}`, "before it starts"},
		{"bad reference", `{"annotators": [{"name": "a"}], "distances": [{"a": "a", "b": "b/1", "value": 0}]}`, "invalid unit reference"},
		{"trailing slash", `{"annotators": [{"name": "a"}], "distances": [{"a": "a/", "b": "b/1", "value": 0}]}`, "invalid unit reference"},
		{"unknown unit", `{"annotators": [{"name": "a", "units": [{"id": "1"}]}, {"name": "b"}], "distances": [{"a": "a/1", "b": "b/1", "value": 0}]}`, "unknown unit"},
		{"negative distance", `{"annotators": [{"name": "a", "units": [{"id": "1"}]}, {"name": "b", "units": [{"id": "1"}]}], "distances": [{"a": "a/1", "b": "b/1", "value": -1}]}`, "non-negative"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ReadFixture(strings.NewReader(tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errSubstr)
		})
	}
}

func TestLoadFixture(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	path := filepath.Join(dir, "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(validFixture), 0o644))
	c, _, err := LoadFixture(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.NumUnits())

	txt := filepath.Join(dir, "fixture.txt")
	require.NoError(t, os.WriteFile(txt, []byte(validFixture), 0o644))
	_, _, err = LoadFixture(txt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".json extension")

	_, _, err = LoadFixture(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat fixture")
}

func TestSplitRef(t *testing.T) {
	t.Parallel()

	a, id, err := splitRef("team/alice/a1")
	require.NoError(t, err)
	assert.Equal(t, "team/alice", a)
	assert.Equal(t, "a1", id)

	for _, bad := range []string{"", "a1", "/a1", "alice/"} {
		_, _, err := splitRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestFixture_BuildThroughGamma(t *testing.T) {
	t.Parallel()
	c, d, err := ReadFixture(strings.NewReader(validFixture))
	require.NoError(t, err)

	// bob-2 has no table entry against a1, so the pair is infinitely far.
	a1, _ := c.Unit("alice", "a1")
	b2, _ := c.Unit("bob", "bob-2")
	got, err := gamma.Disorder([]gamma.Slot{
		gamma.UnitSlot("alice", a1),
		gamma.UnitSlot("bob", b2),
		gamma.GapSlot("carol"),
	}, d)
	require.NoError(t, err)
	assert.True(t, math.IsInf(got, 1))
}
