package dom

import (
	"strings"

	"github.com/seriva/microtastic/pkg/safehtml"
)

// voidElements have no closing tag and never serialize children.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// IsVoidElement reports whether tag is an HTML void element.
func IsVoidElement(tag string) bool {
	return voidElements[strings.ToLower(tag)]
}

// OuterHTML serializes the node and its subtree back to markup. Text is
// escaped; attribute values use attribute escaping; the Display override is
// folded into the style attribute.
func (n *Node) OuterHTML() string {
	var buf strings.Builder
	n.serialize(&buf)
	return buf.String()
}

// InnerHTML serializes only the node's children.
func (n *Node) InnerHTML() string {
	var buf strings.Builder
	for _, c := range n.Children {
		c.serialize(&buf)
	}
	return buf.String()
}

func (n *Node) serialize(buf *strings.Builder) {
	switch n.Type {
	case TextNode:
		buf.WriteString(safehtml.Escape(n.Data))
	case CommentNode:
		buf.WriteString("<!--")
		buf.WriteString(n.Data)
		buf.WriteString("-->")
	case ElementNode:
		buf.WriteByte('<')
		buf.WriteString(n.Tag)
		for _, a := range n.attrs {
			if a.Key == "style" && n.Display == "none" {
				continue // merged below
			}
			buf.WriteByte(' ')
			buf.WriteString(a.Key)
			if a.Value != "" {
				buf.WriteString(`="`)
				buf.WriteString(safehtml.EscapeAttr(a.Value))
				buf.WriteByte('"')
			} else {
				buf.WriteString(`=""`)
			}
		}
		if n.Display == "none" {
			style, _ := n.Attr("style")
			merged := "display: none"
			if style != "" {
				merged = strings.TrimRight(style, "; ") + "; display: none"
			}
			buf.WriteString(` style="`)
			buf.WriteString(safehtml.EscapeAttr(merged))
			buf.WriteByte('"')
		}
		buf.WriteByte('>')
		if IsVoidElement(n.Tag) {
			return
		}
		for _, c := range n.Children {
			c.serialize(buf)
		}
		buf.WriteString("</")
		buf.WriteString(n.Tag)
		buf.WriteByte('>')
	}
}
