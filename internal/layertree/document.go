package layertree

import (
	"encoding/json"
	"fmt"
	"io"
)

// DecodeDocument reads a JSON document and checks that layer IDs are
// present and unique.
func DecodeDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate reports missing or duplicate layer IDs and selection entries that
// name no layer.
func (d *Document) Validate() error {
	seen := make(map[string]bool)
	var check func(nodes []*Node) error
	check = func(nodes []*Node) error {
		for _, n := range nodes {
			if n == nil {
				return fmt.Errorf("document %q: nil layer", d.Name)
			}
			if n.ID == "" {
				return fmt.Errorf("document %q: layer %q has no id", d.Name, n.Name)
			}
			if seen[n.ID] {
				return fmt.Errorf("document %q: duplicate layer id %q", d.Name, n.ID)
			}
			seen[n.ID] = true
			if err := check(n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check(d.Nodes); err != nil {
		return err
	}
	for _, id := range d.Selection {
		if !seen[id] {
			return fmt.Errorf("document %q: selection references unknown layer %q", d.Name, id)
		}
	}
	return nil
}

// Index maps every layer ID in the document to its node.
func (d *Document) Index() map[string]*Node {
	idx := make(map[string]*Node)
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			idx[n.ID] = n
			walk(n.Children)
		}
	}
	walk(d.Nodes)
	return idx
}

// LayerCount is the number of layers in the whole document.
func (d *Document) LayerCount() int {
	total := 0
	for _, n := range d.Nodes {
		total += CountNodes(n)
	}
	return total
}
