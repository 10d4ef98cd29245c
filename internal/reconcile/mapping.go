package reconcile

import (
	"strings"

	"github.com/dgallion1/layername/internal/layertree"
	"github.com/dgallion1/layername/internal/names"
)

// FuzzyThreshold is the similarity a key must exceed in the last pass.
const FuzzyThreshold = 0.5

// LayerKey is the synthesized fallback key for a layer ID.
func LayerKey(id string) string { return "Layer_" + id }

// Mapping applies a flat key to name table in three passes, all in pre-order.
//
//  1. Each layer is looked up by ID, then by its original name, then by
//     LayerKey(ID).
//  2. Layers still unnamed take the first unused key that contains, or is
//     contained in, their name (case-insensitive, also on alphanumeric-only
//     forms). Each key is consumed once.
//  3. Layers still unnamed take the unused key with the highest Similarity
//     above FuzzyThreshold. This pass is a best-effort heuristic.
//
// Keys that named nothing are reported in Result.Unused.
func Mapping(roots []*layertree.LayerInfo, entries []names.Entry) *Result {
	table := make(map[string]string, len(entries))
	var keys []string
	for _, e := range entries {
		if _, dup := table[e.Key]; !dup {
			keys = append(keys, e.Key)
		}
		table[e.Key] = e.Name
	}

	var order []*layertree.LayerInfo
	layertree.Walk(roots, func(l *layertree.LayerInfo) { order = append(order, l) })

	res := &Result{}
	used := make(map[string]bool)
	named := make(map[string]bool)
	assign := func(l *layertree.LayerInfo, key string, m Match) {
		used[key] = true
		named[l.ID] = true
		res.Assignments = append(res.Assignments, Assignment{
			ID: l.ID, From: l.Name, Name: table[key], Match: m, Key: key,
		})
	}

	for _, l := range order {
		switch {
		case has(table, l.ID):
			assign(l, l.ID, MatchExact)
		case l.Name != "" && has(table, l.Name):
			assign(l, l.Name, MatchName)
		case has(table, LayerKey(l.ID)):
			assign(l, LayerKey(l.ID), MatchLayerKey)
		}
	}

	for _, l := range order {
		if named[l.ID] {
			continue
		}
		for _, k := range keys {
			if !used[k] && substringMatch(l.Name, k) {
				assign(l, k, MatchSubstring)
				break
			}
		}
	}

	for _, l := range order {
		if named[l.ID] {
			continue
		}
		best, bestScore := "", FuzzyThreshold
		for _, k := range keys {
			if used[k] {
				continue
			}
			if s := Similarity(l.Name, k); s > bestScore {
				best, bestScore = k, s
			}
		}
		if best != "" {
			assign(l, best, MatchFuzzy)
		}
	}

	res.Unused = []string{}
	for _, k := range keys {
		if !used[k] {
			res.Unused = append(res.Unused, k)
		}
	}
	return res
}

func has(m map[string]string, k string) bool {
	_, ok := m[k]
	return ok
}

func substringMatch(name, key string) bool {
	n, k := strings.ToLower(name), strings.ToLower(key)
	if n == "" || k == "" {
		return false
	}
	if strings.Contains(n, k) || strings.Contains(k, n) {
		return true
	}
	nn, nk := alnum(n), alnum(k)
	if nn == "" || nk == "" {
		return false
	}
	return strings.Contains(nn, nk) || strings.Contains(nk, nn)
}

func alnum(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
