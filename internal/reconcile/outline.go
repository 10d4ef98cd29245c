package reconcile

import (
	"strconv"
	"strings"

	"github.com/dgallion1/layername/internal/layertree"
	"github.com/dgallion1/layername/internal/names"
)

// Outline applies path-numbered entries. Roots are "1", "2", ...; a child is
// its parent's path plus "." and its 1-based index.
//
// Per layer: an exact path match wins. Otherwise the longest entry path that
// is a component-wise prefix of the layer's path supplies a derived name, the
// entry name followed by the remaining path components ("Card.2.1"). With no
// candidate the layer keeps its name. When a path repeats, the first entry
// wins.
func Outline(roots []*layertree.LayerInfo, entries []names.Entry) *Result {
	byPath := make(map[string]string, len(entries))
	var order []string
	for _, e := range entries {
		if _, dup := byPath[e.Path]; dup {
			continue
		}
		byPath[e.Path] = e.Name
		order = append(order, e.Path)
	}

	res := &Result{}
	used := make(map[string]bool)

	var walk func(nodes []*layertree.LayerInfo, parent []string)
	walk = func(nodes []*layertree.LayerInfo, parent []string) {
		for i, n := range nodes {
			comps := append(append([]string(nil), parent...), strconv.Itoa(i+1))
			path := strings.Join(comps, ".")

			if name, ok := byPath[path]; ok {
				used[path] = true
				res.Assignments = append(res.Assignments, Assignment{
					ID: n.ID, From: n.Name, Name: name, Match: MatchExact, Key: path,
				})
			} else if prefix, name, ok := nearestAncestor(byPath, comps); ok {
				used[prefix] = true
				suffix := strings.Join(comps[strings.Count(prefix, ".")+1:], ".")
				res.Assignments = append(res.Assignments, Assignment{
					ID: n.ID, From: n.Name, Name: name + "." + suffix, Match: MatchDerived, Key: prefix,
				})
			}
			walk(n.Children, comps)
		}
	}
	walk(roots, nil)

	res.Unused = []string{}
	for _, p := range order {
		if !used[p] {
			res.Unused = append(res.Unused, p)
		}
	}
	return res
}

// nearestAncestor finds the longest strict prefix of comps that has an entry.
func nearestAncestor(byPath map[string]string, comps []string) (string, string, bool) {
	for n := len(comps) - 1; n > 0; n-- {
		prefix := strings.Join(comps[:n], ".")
		if name, ok := byPath[prefix]; ok {
			return prefix, name, true
		}
	}
	return "", "", false
}
