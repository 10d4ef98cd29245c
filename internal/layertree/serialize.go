package layertree

import "strings"

// FilledShape is the content placeholder for non-text layers that carry fills.
const FilledShape = "Filled shape"

// Serialize mirrors n into a LayerInfo. Content is the layer's text when it
// has any, FilledShape when it has fills, and its type otherwise.
func Serialize(n *Node) *LayerInfo {
	info := &LayerInfo{
		ID:       n.ID,
		Name:     n.Name,
		Type:     n.Type,
		Content:  contentOf(n),
		Children: make([]*LayerInfo, 0, len(n.Children)),
	}
	for _, c := range n.Children {
		info.Children = append(info.Children, Serialize(c))
	}
	return info
}

// SerializeAll serializes every root in order.
func SerializeAll(roots []*Node) []*LayerInfo {
	out := make([]*LayerInfo, 0, len(roots))
	for _, r := range roots {
		out = append(out, Serialize(r))
	}
	return out
}

func contentOf(n *Node) string {
	if n.Characters != nil && strings.TrimSpace(*n.Characters) != "" {
		return *n.Characters
	}
	if n.Fills > 0 {
		return FilledShape
	}
	return n.Type
}

// CountNodes counts n and all of its descendants.
func CountNodes(n *Node) int {
	if n == nil {
		return 0
	}
	count := 1
	for _, c := range n.Children {
		count += CountNodes(c)
	}
	return count
}

// CountLayers counts info and all of its descendants.
func CountLayers(info *LayerInfo) int {
	if info == nil {
		return 0
	}
	count := 1
	for _, c := range info.Children {
		count += CountLayers(c)
	}
	return count
}

// TotalLayers sums CountLayers over a selection.
func TotalLayers(infos []*LayerInfo) int {
	total := 0
	for _, info := range infos {
		total += CountLayers(info)
	}
	return total
}

// Walk visits every layer depth-first, pre-order, left to right.
func Walk(infos []*LayerInfo, fn func(*LayerInfo)) {
	for _, info := range infos {
		fn(info)
		Walk(info.Children, fn)
	}
}
