package host

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/layername/internal/layertree"
	"golang.org/x/net/html"
)

// ParseSVG builds a document from an SVG export. Each element child of the
// outer <svg> becomes a root layer; IDs are assigned in document order as
// "0:<n>" so they stay unique whatever the file's own id attributes say.
func ParseSVG(r io.Reader, filename string) (*layertree.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	root := findElement(doc, "svg")
	if root == nil {
		return nil, fmt.Errorf("parse svg: no <svg> element in %s", filename)
	}

	out := &layertree.Document{
		Name: strings.TrimSuffix(filename, ".svg"),
	}
	if title := childElement(root, "title"); title != nil {
		if t := textContent(title); t != "" {
			out.Name = t
		}
	}

	seq := 0
	var build func(n *html.Node) *layertree.Node
	build = func(n *html.Node) *layertree.Node {
		kind, ok := svgKinds[n.Data]
		if !ok {
			return nil
		}
		seq++
		layer := &layertree.Node{
			ID:    fmt.Sprintf("0:%d", seq),
			Name:  layerName(n, kind),
			Type:  kind,
			Fills: fillCount(n),
		}
		if kind == "TEXT" {
			layer.Characters = layertree.StringPtr(textContent(n))
			return layer
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if child := build(c); child != nil {
				layer.Children = append(layer.Children, child)
			}
		}
		return layer
	}

	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if layer := build(c); layer != nil {
			layer.Exportable = true
			out.Nodes = append(out.Nodes, layer)
		}
	}
	return out, nil
}

// Elements not listed here (defs, style, clipPath, gradients, ...) carry no
// visible layer and are skipped with their subtree.
var svgKinds = map[string]string{
	"g":        "GROUP",
	"svg":      "FRAME",
	"a":        "GROUP",
	"rect":     "RECTANGLE",
	"circle":   "ELLIPSE",
	"ellipse":  "ELLIPSE",
	"path":     "VECTOR",
	"line":     "LINE",
	"polyline": "VECTOR",
	"polygon":  "POLYGON",
	"text":     "TEXT",
	"image":    "IMAGE",
	"use":      "INSTANCE",
}

func layerName(n *html.Node, kind string) string {
	for _, key := range []string{"data-name", "inkscape:label", "id"} {
		if v := strings.TrimSpace(attr(n, key)); v != "" {
			return strings.ReplaceAll(v, "_", " ")
		}
	}
	return strings.ToLower(kind[:1]) + strings.ToLower(kind[1:])
}

func fillCount(n *html.Node) int {
	fill := strings.TrimSpace(attr(n, "fill"))
	for _, decl := range strings.Split(attr(n, "style"), ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == "fill" {
			fill = strings.TrimSpace(v)
		}
	}
	if fill == "" || fill == "none" || fill == "transparent" {
		return 0
	}
	return 1
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		if name == key || a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// childElement returns the first direct child of n named tag.
func childElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findElement(c, tag); f != nil {
			return f
		}
	}
	return nil
}
