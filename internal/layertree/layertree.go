package layertree

// Node is a layer as the host document holds it.
type Node struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Characters *string `json:"characters,omitempty"` // non-nil only for text-bearing layers
	Fills      int     `json:"fills,omitempty"`      // number of fill paints
	Exportable bool    `json:"exportable,omitempty"`
	Children   []*Node `json:"children,omitempty"`
}

// LayerInfo is the serializable mirror of a Node sent to the model.
type LayerInfo struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Content  string       `json:"content"`
	Children []*LayerInfo `json:"children"`
}

// Document is a design document: its root layers, the current selection
// (ordered root IDs) and optional raster previews keyed by layer ID.
type Document struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Nodes     []*Node           `json:"nodes"`
	Selection []string          `json:"selection,omitempty"`
	Previews  map[string][]byte `json:"previews,omitempty"`
}

// Text returns the node's characters, or "" for layers that carry no text.
func (n *Node) Text() string {
	if n.Characters == nil {
		return ""
	}
	return *n.Characters
}

// StringPtr is a convenience for building text layers.
func StringPtr(s string) *string { return &s }
