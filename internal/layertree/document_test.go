package layertree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDocument(t *testing.T) {
	src := `{
		"id": "doc-1",
		"name": "Chat",
		"selection": ["1:1"],
		"nodes": [
			{"id": "1:1", "name": "Frame 1", "type": "FRAME", "fills": 1, "exportable": true, "children": [
				{"id": "1:2", "name": "Text 1", "type": "TEXT", "characters": "Hi"}
			]}
		]
	}`
	doc, err := DecodeDocument(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, "Chat", doc.Name)
	assert.Equal(t, 2, doc.LayerCount())
	idx := doc.Index()
	require.Contains(t, idx, "1:2")
	assert.Equal(t, "Hi", idx["1:2"].Text())
	assert.Equal(t, "", idx["1:1"].Text())
}

func TestDecodeDocument_DuplicateID(t *testing.T) {
	src := `{"nodes": [{"id": "a", "type": "FRAME", "children": [{"id": "a", "type": "TEXT"}]}]}`
	_, err := DecodeDocument(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate layer id")
}

func TestDecodeDocument_UnknownSelection(t *testing.T) {
	src := `{"selection": ["ghost"], "nodes": [{"id": "a", "type": "FRAME"}]}`
	_, err := DecodeDocument(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown layer")
}

func TestDecodeDocument_BadJSON(t *testing.T) {
	_, err := DecodeDocument(strings.NewReader("{"))
	require.Error(t, err)
}
