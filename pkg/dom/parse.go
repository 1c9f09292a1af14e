package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses markup as if it appeared inside a <div> and returns
// the resulting top-level nodes. Text entities are decoded; serialization
// re-encodes them.
func ParseFragment(markup string) ([]*Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	parsed, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, err
	}

	var nodes []*Node
	for _, h := range parsed {
		if n := convert(h); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// convert maps an x/net/html node to ours, dropping node kinds we do not
// model (doctype, raw document wrappers).
func convert(h *html.Node) *Node {
	switch h.Type {
	case html.ElementNode:
		n := NewElement(h.Data)
		for _, a := range h.Attr {
			n.SetAttr(a.Key, a.Val)
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if child := convert(c); child != nil {
				n.Append(child)
			}
		}
		return n
	case html.TextNode:
		return NewText(h.Data)
	case html.CommentNode:
		return NewComment(h.Data)
	default:
		return nil
	}
}
