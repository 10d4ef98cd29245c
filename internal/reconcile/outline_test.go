package reconcile

import (
	"strings"
	"testing"

	"github.com/dgallion1/layername/internal/layertree"
	"github.com/dgallion1/layername/internal/names"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(id, name string) *layertree.LayerInfo {
	return &layertree.LayerInfo{ID: id, Name: name, Type: "RECTANGLE", Children: []*layertree.LayerInfo{}}
}

func parent(id, name string, children ...*layertree.LayerInfo) *layertree.LayerInfo {
	return &layertree.LayerInfo{ID: id, Name: name, Type: "FRAME", Children: children}
}

func outline(pairs ...string) []names.Entry {
	var out []names.Entry
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, names.Entry{Path: pairs[i], Name: pairs[i+1]})
	}
	return out
}

func namesByID(roots []*layertree.LayerInfo) map[string]string {
	out := make(map[string]string)
	layertree.Walk(roots, func(l *layertree.LayerInfo) { out[l.ID] = l.Name })
	return out
}

func TestOutline_ExactBeatsDerived(t *testing.T) {
	roots := []*layertree.LayerInfo{parent("r", "Frame", leaf("c", "Rect"))}
	res := Outline(roots, outline("1", "A", "1.1", "B"))
	res.Apply(roots)

	assert.Equal(t, "A", roots[0].Name)
	assert.Equal(t, "B", roots[0].Children[0].Name)
	assert.Empty(t, res.Unused)
}

func TestOutline_DerivesFromNearestAncestor(t *testing.T) {
	roots := []*layertree.LayerInfo{
		parent("r", "Frame",
			parent("g", "Group", leaf("x", "X"), leaf("y", "Y")),
			leaf("z", "Z"),
		),
	}
	res := Outline(roots, outline("1", "Card", "1.1", "Body"))
	res.Apply(roots)

	got := namesByID(roots)
	assert.Equal(t, "Card", got["r"])
	assert.Equal(t, "Body", got["g"])
	assert.Equal(t, "Body.1", got["x"])
	assert.Equal(t, "Body.2", got["y"])
	assert.Equal(t, "Card.2", got["z"])

	counts := res.Counts()
	assert.Equal(t, 2, counts[MatchExact])
	assert.Equal(t, 3, counts[MatchDerived])
}

func TestOutline_DeepDerivedSuffix(t *testing.T) {
	roots := []*layertree.LayerInfo{
		parent("r", "R", parent("a", "A", parent("b", "B", leaf("c", "C")))),
	}
	res := Outline(roots, outline("1", "Root"))
	res.Apply(roots)
	assert.Equal(t, "Root.1.1.1", namesByID(roots)["c"])
}

func TestOutline_UnmatchedKeepsName(t *testing.T) {
	roots := []*layertree.LayerInfo{leaf("a", "Original A"), leaf("b", "Original B")}
	res := Outline(roots, outline("1", "First", "7", "Ghost"))
	res.Apply(roots)

	assert.Equal(t, "First", roots[0].Name)
	assert.Equal(t, "Original B", roots[1].Name)
	assert.Equal(t, []string{"7"}, res.Unused)
}

func TestOutline_DuplicatePathFirstWins(t *testing.T) {
	roots := []*layertree.LayerInfo{leaf("a", "A")}
	res := Outline(roots, outline("1", "First", "1", "Second"))
	require.Len(t, res.Assignments, 1)
	assert.Equal(t, "First", res.Assignments[0].Name)
}

func TestOutline_IsTotal(t *testing.T) {
	roots := []*layertree.LayerInfo{
		parent("r1", "One", leaf("a", "a"), parent("b", "b", leaf("c", "c"))),
		parent("r2", "Two", leaf("d", "d")),
		leaf("r3", ""),
	}
	before := namesByID(roots)
	entries := outline("1.2", "Nested", "2", "Second", "9.9", "Nowhere")
	res := Outline(roots, entries)
	res.Apply(roots)

	entryNames := map[string]bool{"Nested": true, "Second": true, "Nowhere": true}
	for id, name := range namesByID(roots) {
		switch {
		case entryNames[name]:
		case name == before[id]:
		case strings.HasPrefix(name, "Nested.") || strings.HasPrefix(name, "Second."):
		default:
			t.Errorf("layer %s ended with unexpected name %q", id, name)
		}
	}
	assert.Equal(t, "", namesByID(roots)["r3"])
}

func TestOutline_MultipleRoots(t *testing.T) {
	roots := []*layertree.LayerInfo{leaf("a", "A"), leaf("b", "B")}
	res := Outline(roots, outline("1", "Left", "2", "Right"))
	res.Apply(roots)
	assert.Equal(t, "Left", roots[0].Name)
	assert.Equal(t, "Right", roots[1].Name)
}
