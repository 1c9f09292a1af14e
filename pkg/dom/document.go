package dom

// Document is a minimal html/head/body shell for components to mount into.
type Document struct {
	Root *Node

	head *Node
	body *Node
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	root := NewElement("html")
	head := NewElement("head")
	body := NewElement("body")
	root.Append(head, body)
	return &Document{Root: root, head: head, body: body}
}

// Head returns the head element.
func (d *Document) Head() *Node { return d.head }

// Body returns the body element.
func (d *Document) Body() *Node { return d.body }

// ByID finds the element with the given id anywhere in the document, or
// nil.
func (d *Document) ByID(id string) *Node {
	return d.Root.ByID(id)
}

// stylesID identifies the injected stylesheet element.
const stylesID = "microtastic-styles"

// InjectStyles installs (or replaces) the document's generated stylesheet.
func (d *Document) InjectStyles(cssText string) {
	style := d.Root.ByID(stylesID)
	if style == nil {
		style = NewElement("style")
		style.SetAttr("id", stylesID)
		d.head.Append(style)
	}
	style.Children = nil
	style.Append(NewText(cssText))
}

// HTML serializes the whole document.
func (d *Document) HTML() string {
	return "<!DOCTYPE html>" + d.Root.OuterHTML()
}
