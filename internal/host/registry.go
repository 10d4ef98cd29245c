package host

import (
	"fmt"

	"github.com/dgallion1/layername/internal/layertree"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Registry holds uploaded documents. The least recently used document is
// evicted once the capacity is reached.
type Registry struct {
	docs *lru.Cache[string, *Memory]
}

func NewRegistry(capacity int) (*Registry, error) {
	if capacity <= 0 {
		capacity = 256
	}
	cache, err := lru.New[string, *Memory](capacity)
	if err != nil {
		return nil, fmt.Errorf("document cache: %w", err)
	}
	return &Registry{docs: cache}, nil
}

// Add validates doc, assigns it a fresh ID and stores it.
func (r *Registry) Add(doc *layertree.Document) (*Memory, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	doc.ID = uuid.NewString()
	m := NewMemory(doc)
	r.docs.Add(doc.ID, m)
	return m, nil
}

func (r *Registry) Get(id string) (*Memory, bool) {
	return r.docs.Get(id)
}

func (r *Registry) Remove(id string) bool {
	return r.docs.Remove(id)
}

func (r *Registry) Len() int {
	return r.docs.Len()
}
