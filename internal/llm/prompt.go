package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgallion1/layername/internal/layertree"
	"github.com/dgallion1/layername/internal/names"
)

// DefaultContext describes the design when the caller gives no context.
const DefaultContext = `This is a user interface for a messaging application.
The selected elements appear to be part of a message component.
Please consider the hierarchy and purpose of each element when renaming.`

const outlineInstructions = `Provide concise and descriptive names for each layer, maintaining the hierarchy.
The response should be in the format:
1. NewNameOne
   1.1 ChildNameOne
   1.2 ChildNameTwo
2. NewNameTwo
...`

const mappingInstructions = `Provide concise and descriptive names for each layer.
Respond with ONLY a JSON object whose keys are the layer "id" values above and whose
values are the new names, for example {"1:2": "Header", "1:3": "Send Button"}.
Include every layer. Do not add any other text.`

// Preview is a raster export of one selected root.
type Preview struct {
	LayerID string
	PNG     []byte
}

// PromptInput is everything a rename prompt is built from.
type PromptInput struct {
	Context  string
	Form     names.Form
	Layers   []*layertree.LayerInfo
	Previews []Preview
	Model    string
}

// BuildPrompt renders the text prompt: context, the layer snapshot as indented
// JSON, then the answer format instructions.
func BuildPrompt(in PromptInput) (string, error) {
	snapshot, err := json.MarshalIndent(in.Layers, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal layers: %w", err)
	}

	ctxText := strings.TrimSpace(in.Context)
	if ctxText == "" {
		ctxText = DefaultContext
	}

	var sb strings.Builder
	sb.WriteString(ctxText)
	sb.WriteString("\n\nRename the following UI layers based on their context and hierarchy:\n\n")
	sb.Write(snapshot)
	sb.WriteString("\n\n")
	if in.Form == names.FormMapping {
		sb.WriteString(mappingInstructions)
	} else {
		sb.WriteString(outlineInstructions)
	}
	if len(in.Previews) > 0 {
		sb.WriteString("\n\nScreenshots of the selected layers are attached, in the same order as the top-level layers.")
	}
	return sb.String(), nil
}

// BuildRequest wraps the prompt and any previews in a single user message.
func BuildRequest(in PromptInput) (Request, string, error) {
	prompt, err := BuildPrompt(in)
	if err != nil {
		return Request{}, "", err
	}
	parts := []Part{{Text: prompt}}
	for _, p := range in.Previews {
		parts = append(parts, Part{Image: p.PNG, MIMEType: "image/png"})
	}
	return Request{
		Model:    in.Model,
		Messages: []Message{{Role: "user", Parts: parts}},
	}, prompt, nil
}
