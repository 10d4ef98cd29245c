package reconcile

import (
	"testing"

	"github.com/dgallion1/layername/internal/layertree"
	"github.com/dgallion1/layername/internal/names"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapping(pairs ...string) []names.Entry {
	var out []names.Entry
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, names.Entry{Key: pairs[i], Name: pairs[i+1]})
	}
	return out
}

func TestMapping_ByID(t *testing.T) {
	roots := []*layertree.LayerInfo{parent("n1", "Frame", leaf("n2", "Rect"))}
	res := Mapping(roots, mapping("n1", "Root", "n2", "Child"))
	res.Apply(roots)

	assert.Equal(t, "Root", roots[0].Name)
	assert.Equal(t, "Child", roots[0].Children[0].Name)
	require.NotNil(t, res.Unused)
	assert.Empty(t, res.Unused)
}

func TestMapping_UnmatchedKeyReported(t *testing.T) {
	roots := []*layertree.LayerInfo{parent("n1", "Frame", leaf("n2", "Rect"))}
	res := Mapping(roots, mapping("n1", "Root", "ghost", "X"))
	res.Apply(roots)

	assert.Equal(t, "Root", roots[0].Name)
	assert.Equal(t, "Rect", roots[0].Children[0].Name)
	assert.Equal(t, []string{"ghost"}, res.Unused)
}

func TestMapping_NameAndLayerKeyFallbacks(t *testing.T) {
	roots := []*layertree.LayerInfo{
		parent("1:1", "Frame 12", leaf("1:2", "Rectangle 4")),
	}
	res := Mapping(roots, mapping("Frame 12", "Card", "Layer_1:2", "Background"))
	res.Apply(roots)

	assert.Equal(t, "Card", roots[0].Name)
	assert.Equal(t, "Background", roots[0].Children[0].Name)
	counts := res.Counts()
	assert.Equal(t, 1, counts[MatchName])
	assert.Equal(t, 1, counts[MatchLayerKey])
}

func TestMapping_SubstringPassConsumesOnce(t *testing.T) {
	roots := []*layertree.LayerInfo{
		leaf("a", "Send button copy"),
		leaf("b", "send-button"),
	}
	res := Mapping(roots, mapping("Send button", "Primary Action"))
	res.Apply(roots)

	assert.Equal(t, "Primary Action", roots[0].Name)
	assert.Equal(t, "send-button", roots[1].Name, "key is consumed by the first layer in traversal order")
	assert.Empty(t, res.Unused)
	assert.Equal(t, MatchSubstring, res.Assignments[0].Match)
}

func TestMapping_SubstringAlnumNormalized(t *testing.T) {
	roots := []*layertree.LayerInfo{leaf("a", "icon/close-24")}
	res := Mapping(roots, mapping("Icon Close", "Close Icon"))
	res.Apply(roots)
	assert.Equal(t, "Close Icon", roots[0].Name)
}

func TestMapping_FuzzyPass(t *testing.T) {
	roots := []*layertree.LayerInfo{leaf("a", "Avatr"), leaf("b", "zzzz")}
	res := Mapping(roots, mapping("Avatar", "Profile Photo", "qqqq", "Nope"))
	res.Apply(roots)

	assert.Equal(t, "Profile Photo", roots[0].Name)
	assert.Equal(t, "zzzz", roots[1].Name)
	assert.Equal(t, []string{"qqqq"}, res.Unused)
	assert.Equal(t, MatchFuzzy, res.Assignments[0].Match)
}

func TestMapping_ExactPassDoesNotRunFallbacks(t *testing.T) {
	roots := []*layertree.LayerInfo{leaf("a", "Header")}
	res := Mapping(roots, mapping("a", "Top Bar", "Header", "Other"))
	res.Apply(roots)

	assert.Equal(t, "Top Bar", roots[0].Name)
	assert.Equal(t, []string{"Header"}, res.Unused)
}

func TestTable_Dispatch(t *testing.T) {
	roots := []*layertree.LayerInfo{leaf("a", "A")}

	res, err := Table(roots, &names.Table{Form: names.FormOutline, Entries: outline("1", "X")})
	require.NoError(t, err)
	assert.Equal(t, "X", res.Assignments[0].Name)

	res, err = Table(roots, &names.Table{Form: names.FormMapping, Entries: mapping("a", "Y")})
	require.NoError(t, err)
	assert.Equal(t, "Y", res.Assignments[0].Name)

	_, err = Table(roots, &names.Table{Form: names.FormAuto})
	assert.Error(t, err)
}
