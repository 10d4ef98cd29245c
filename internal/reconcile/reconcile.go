// Package reconcile maps a parsed naming table back onto a layer tree.
//
// Reconciliation is pure: it reads a serialized snapshot and returns the
// assignments to make. Nothing here talks to the host document; applying the
// result is the caller's job, done in one batch.
package reconcile

import (
	"fmt"

	"github.com/dgallion1/layername/internal/layertree"
	"github.com/dgallion1/layername/internal/names"
)

// Match says how a layer received its name.
type Match string

const (
	MatchExact     Match = "exact"
	MatchDerived   Match = "derived"
	MatchName      Match = "name"
	MatchLayerKey  Match = "layer_key"
	MatchSubstring Match = "substring"
	MatchFuzzy     Match = "fuzzy"
)

// Assignment renames one layer.
type Assignment struct {
	ID    string `json:"id"`
	From  string `json:"from"`
	Name  string `json:"name"`
	Match Match  `json:"match"`
	Key   string `json:"key"` // table path or key that produced the name
}

// Result is the outcome of one reconciliation.
type Result struct {
	Assignments []Assignment `json:"assignments"`
	// Unused lists table paths or keys that named no layer. It is never nil.
	Unused []string `json:"unused_names"`
}

// Counts tallies assignments by match kind.
func (r *Result) Counts() map[Match]int {
	out := make(map[Match]int)
	for _, a := range r.Assignments {
		out[a.Match]++
	}
	return out
}

// Apply writes the assignments onto a serialized snapshot.
func (r *Result) Apply(roots []*layertree.LayerInfo) {
	byID := make(map[string]string, len(r.Assignments))
	for _, a := range r.Assignments {
		byID[a.ID] = a.Name
	}
	layertree.Walk(roots, func(l *layertree.LayerInfo) {
		if name, ok := byID[l.ID]; ok {
			l.Name = name
		}
	})
}

// Table dispatches on the table's form.
func Table(roots []*layertree.LayerInfo, t *names.Table) (*Result, error) {
	switch t.Form {
	case names.FormOutline:
		return Outline(roots, t.Entries), nil
	case names.FormMapping:
		return Mapping(roots, t.Entries), nil
	}
	return nil, fmt.Errorf("reconcile: unsupported table form %q", t.Form)
}
