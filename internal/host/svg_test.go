package host

import (
	"strings"
	"testing"

	"github.com/dgallion1/layername/internal/layertree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="100" height="50">
  <title>Chat Screen</title>
  <defs><linearGradient id="g1"/></defs>
  <g id="Message_Bubble">
    <rect id="Background" fill="#fff" width="10" height="10"/>
    <text data-name="Label" style="font-size:12px; fill:#000"><tspan>Hello   world</tspan></text>
    <circle cx="1" cy="1" r="1" fill="none"/>
  </g>
  <path d="M0 0"/>
</svg>`

func TestParseSVG(t *testing.T) {
	doc, err := ParseSVG(strings.NewReader(chatSVG), "chat.svg")
	require.NoError(t, err)

	assert.Equal(t, "Chat Screen", doc.Name)
	require.Len(t, doc.Nodes, 2)
	require.NoError(t, doc.Validate())

	group := doc.Nodes[0]
	assert.Equal(t, "0:1", group.ID)
	assert.Equal(t, "Message Bubble", group.Name)
	assert.Equal(t, "GROUP", group.Type)
	assert.True(t, group.Exportable)
	require.Len(t, group.Children, 3)

	rect, text, circle := group.Children[0], group.Children[1], group.Children[2]
	assert.Equal(t, "Background", rect.Name)
	assert.Equal(t, 1, rect.Fills)
	assert.Equal(t, "TEXT", text.Type)
	assert.Equal(t, "Label", text.Name)
	assert.Equal(t, "Hello world", text.Text())
	assert.Equal(t, 1, text.Fills)
	assert.Equal(t, "ELLIPSE", circle.Type)
	assert.Equal(t, "ellipse", circle.Name)
	assert.Equal(t, 0, circle.Fills)

	path := doc.Nodes[1]
	assert.Equal(t, "VECTOR", path.Type)
	assert.Equal(t, "0:5", path.ID)

	info := layertree.Serialize(group)
	assert.Equal(t, "Hello world", info.Children[1].Content)
	assert.Equal(t, layertree.FilledShape, info.Children[0].Content)
}

func TestParseSVG_NoSVGElement(t *testing.T) {
	_, err := ParseSVG(strings.NewReader("<p>not a drawing</p>"), "x.svg")
	require.Error(t, err)
}

func TestParseSVG_FallbackName(t *testing.T) {
	doc, err := ParseSVG(strings.NewReader(`<svg><rect/></svg>`), "plain.svg")
	require.NoError(t, err)
	assert.Equal(t, "plain", doc.Name)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "rectangle", doc.Nodes[0].Name)
}

func TestParseSVG_IgnoresNestedTitle(t *testing.T) {
	svg := `<svg><g id="Card"><title>Tooltip</title><rect/></g></svg>`
	doc, err := ParseSVG(strings.NewReader(svg), "card.svg")
	require.NoError(t, err)
	assert.Equal(t, "card", doc.Name)
	require.Len(t, doc.Nodes, 1)
	assert.Len(t, doc.Nodes[0].Children, 1)
}
