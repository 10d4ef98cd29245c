package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgallion1/layername/internal/layertree"
)

// Memory is a Provider over an in-process document.
type Memory struct {
	mu    sync.RWMutex
	doc   *layertree.Document
	index map[string]*layertree.Node
}

func NewMemory(doc *layertree.Document) *Memory {
	return &Memory{doc: doc, index: doc.Index()}
}

// ID returns the document ID assigned by the registry.
func (m *Memory) ID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc.ID
}

// Selection returns the document's selection, or every root when nothing is
// explicitly selected.
func (m *Memory) Selection(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.doc.Selection) > 0 {
		return append([]string(nil), m.doc.Selection...), nil
	}
	ids := make([]string, 0, len(m.doc.Nodes))
	for _, n := range m.doc.Nodes {
		ids = append(ids, n.ID)
	}
	return ids, nil
}

// Select replaces the selection. Every ID must name a layer.
func (m *Memory) Select(ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.index[id]; !ok {
			return fmt.Errorf("select %q: %w", id, ErrUnknownLayer)
		}
	}
	m.doc.Selection = append([]string(nil), ids...)
	return nil
}

func (m *Memory) Snapshot(ctx context.Context, ids []string) ([]*layertree.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*layertree.Node, 0, len(ids))
	for _, id := range ids {
		n, ok := m.index[id]
		if !ok {
			return nil, fmt.Errorf("snapshot %q: %w", id, ErrUnknownLayer)
		}
		out = append(out, cloneNode(n))
	}
	return out, nil
}

func (m *Memory) Rename(ctx context.Context, renames []Rename) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	applied := 0
	for _, r := range renames {
		if n, ok := m.index[r.ID]; ok {
			n.Name = r.Name
			applied++
		}
	}
	return applied, nil
}

// Export returns the stored preview for a layer. Previews are uploaded
// pre-rendered, so scale is not applied.
func (m *Memory) Export(ctx context.Context, id string, scale float64) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.index[id]
	if !ok {
		return nil, fmt.Errorf("export %q: %w", id, ErrUnknownLayer)
	}
	png, ok := m.doc.Previews[id]
	if !n.Exportable || !ok || len(png) == 0 {
		return nil, fmt.Errorf("export %q: %w", id, ErrNotExportable)
	}
	return append([]byte(nil), png...), nil
}

// Document returns a deep copy of the current document state.
func (m *Memory) Document() *layertree.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := &layertree.Document{
		ID:        m.doc.ID,
		Name:      m.doc.Name,
		Selection: append([]string(nil), m.doc.Selection...),
	}
	for _, n := range m.doc.Nodes {
		out.Nodes = append(out.Nodes, cloneNode(n))
	}
	if len(m.doc.Previews) > 0 {
		out.Previews = make(map[string][]byte, len(m.doc.Previews))
		for k, v := range m.doc.Previews {
			out.Previews[k] = v
		}
	}
	return out
}

// Counts returns the number of selected roots and the layers under them.
func (m *Memory) Counts(ctx context.Context) (selected, total int, err error) {
	ids, err := m.Selection(ctx)
	if err != nil {
		return 0, 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range ids {
		total += layertree.CountNodes(m.index[id])
	}
	return len(ids), total, nil
}

func cloneNode(n *layertree.Node) *layertree.Node {
	c := *n
	if n.Characters != nil {
		c.Characters = layertree.StringPtr(*n.Characters)
	}
	c.Children = nil
	for _, ch := range n.Children {
		c.Children = append(c.Children, cloneNode(ch))
	}
	return &c
}
