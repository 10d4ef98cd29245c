package llm

import (
	"strings"
	"testing"

	"github.com/dgallion1/layername/internal/layertree"
	"github.com/dgallion1/layername/internal/names"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptLayers() []*layertree.LayerInfo {
	return layertree.SerializeAll([]*layertree.Node{{
		ID: "1:1", Name: "Frame 3", Type: "FRAME",
		Children: []*layertree.Node{{ID: "1:2", Name: "Text", Type: "TEXT", Characters: layertree.StringPtr("Hi Bob")}},
	}})
}

func TestBuildPrompt_Outline(t *testing.T) {
	prompt, err := BuildPrompt(PromptInput{Layers: promptLayers(), Form: names.FormOutline})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, DefaultContext))
	assert.Contains(t, prompt, `"id": "1:2"`)
	assert.Contains(t, prompt, `"content": "Hi Bob"`)
	assert.Contains(t, prompt, "1.1 ChildNameOne")
	assert.NotContains(t, prompt, "JSON object")
}

func TestBuildPrompt_MappingWithContext(t *testing.T) {
	prompt, err := BuildPrompt(PromptInput{
		Context: "A checkout page.",
		Layers:  promptLayers(),
		Form:    names.FormMapping,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "A checkout page."))
	assert.NotContains(t, prompt, DefaultContext)
	assert.Contains(t, prompt, "JSON object")
}

func TestBuildRequest_AttachesPreviews(t *testing.T) {
	req, prompt, err := BuildRequest(PromptInput{
		Layers:   promptLayers(),
		Previews: []Preview{{LayerID: "1:1", PNG: []byte{0x89, 'P', 'N', 'G'}}},
		Model:    "vision-model",
	})
	require.NoError(t, err)

	assert.Equal(t, "vision-model", req.Model)
	require.Len(t, req.Messages, 1)
	require.Len(t, req.Messages[0].Parts, 2)
	assert.Equal(t, prompt, req.Messages[0].Parts[0].Text)
	assert.Equal(t, "image/png", req.Messages[0].Parts[1].MIMEType)
	assert.True(t, req.HasImages())
	assert.Contains(t, prompt, "Screenshots")
}
