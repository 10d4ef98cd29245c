package names

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

// PlainText strips markdown a model wraps a whole name in ("**Header**",
// "`Icon`", "# Title"). Names with inline markup in only part of the text
// ("__init__ Frame", "List<Item>") are returned trimmed but otherwise verbatim.
func PlainText(s string) string {
	src := []byte(strings.TrimSpace(s))
	if len(src) == 0 {
		return ""
	}
	doc := md.Parser().Parse(text.NewReader(src))

	block := doc.FirstChild()
	if block == nil || block.NextSibling() != nil {
		return string(src)
	}
	switch block.Kind() {
	case ast.KindHeading:
	case ast.KindParagraph:
		inline := block.FirstChild()
		if inline == nil || inline.NextSibling() != nil {
			return string(src)
		}
		if k := inline.Kind(); k != ast.KindEmphasis && k != ast.KindCodeSpan {
			return string(src)
		}
	default:
		return string(src)
	}

	out := strings.TrimSpace(flatten(block, src))
	if out == "" {
		return string(src)
	}
	return out
}

// flatten concatenates the literal text under n.
func flatten(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		case *ast.RawHTML:
			for i := 0; i < t.Segments.Len(); i++ {
				seg := t.Segments.At(i)
				sb.Write(seg.Value(src))
			}
		case *ast.AutoLink:
			sb.WriteByte('<')
			sb.Write(t.Label(src))
			sb.WriteByte('>')
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
