// Package host stands in for the design tool that owns the document. The core
// only reaches layers through Provider: one bulk snapshot per run and one
// batched rename write.
package host

import (
	"context"
	"errors"

	"github.com/dgallion1/layername/internal/layertree"
)

var (
	ErrUnknownLayer  = errors.New("unknown layer")
	ErrNotExportable = errors.New("layer is not exportable")
)

// Rename sets one layer's name.
type Rename struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Provider is the boundary to a live design document.
type Provider interface {
	// Selection returns the IDs of the currently selected root layers, in order.
	Selection(ctx context.Context) ([]string, error)
	// Snapshot returns deep copies of the given layers and their subtrees.
	Snapshot(ctx context.Context, ids []string) ([]*layertree.Node, error)
	// Rename applies a batch of renames. Unknown IDs are skipped and counted.
	Rename(ctx context.Context, renames []Rename) (applied int, err error)
	// Export rasterizes a layer to PNG at the given scale.
	Export(ctx context.Context, id string, scale float64) ([]byte, error)
}
