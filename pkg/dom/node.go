// Package dom provides the in-memory document tree the binding layer
// mutates. It is a deliberately small subset of the browser DOM: elements
// with ordered attributes, text and comment nodes, class and display
// handling, form values and event listeners. Markup moves in and out via
// ParseFragment and OuterHTML.
package dom

import "strings"

// NodeType discriminates the node kinds.
type NodeType uint8

const (
	ElementNode NodeType = iota
	TextNode
	CommentNode
)

// Attr is a single attribute. Order is preserved for serialization.
type Attr struct {
	Key   string
	Value string
}

// Node is one node of the document tree.
type Node struct {
	Type NodeType

	// Tag is the lowercase element name. Empty for text and comments.
	Tag string

	// Data holds the content of text and comment nodes.
	Data string

	Parent   *Node
	Children []*Node

	// Value is the current form-control value (input, textarea, select).
	Value string

	// Display overrides the element's display style: "" shows the
	// element, "none" hides it.
	Display string

	attrs     []Attr
	listeners map[string][]*listenerEntry
}

// NewElement creates a detached element node.
func NewElement(tag string) *Node {
	return &Node{Type: ElementNode, Tag: strings.ToLower(tag)}
}

// NewText creates a detached text node.
func NewText(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// NewComment creates a detached comment node.
func NewComment(data string) *Node {
	return &Node{Type: CommentNode, Data: data}
}

// Append adds children at the end, detaching each from any previous parent.
func (n *Node) Append(children ...*Node) {
	for _, c := range children {
		c.Detach()
		c.Parent = n
		n.Children = append(n.Children, c)
	}
}

// InsertBefore inserts child immediately before ref, which must be a child
// of n. A nil ref appends.
func (n *Node) InsertBefore(child, ref *Node) {
	n.insertAt(child, n.indexOf(ref))
}

// InsertAfter inserts child immediately after ref, which must be a child of
// n. A nil ref appends.
func (n *Node) InsertAfter(child, ref *Node) {
	i := n.indexOf(ref)
	if i < 0 {
		n.insertAt(child, -1)
		return
	}
	n.insertAt(child, i+1)
}

func (n *Node) insertAt(child *Node, i int) {
	child.Detach()
	child.Parent = n
	if i < 0 || i >= len(n.Children) {
		n.Children = append(n.Children, child)
		return
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = child
}

// Detach removes the node from its parent. The node itself stays intact and
// can be re-inserted later, preserving its identity and state.
func (n *Node) Detach() {
	p := n.Parent
	if p == nil {
		return
	}
	if i := p.indexOf(n); i >= 0 {
		p.Children = append(p.Children[:i], p.Children[i+1:]...)
	}
	n.Parent = nil
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// Attr returns the attribute value and whether it is present.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttr reports whether the attribute is present, regardless of value.
func (n *Node) HasAttr(key string) bool {
	_, ok := n.Attr(key)
	return ok
}

// SetAttr sets or replaces an attribute.
func (n *Node) SetAttr(key, value string) {
	for i, a := range n.attrs {
		if a.Key == key {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Key: key, Value: value})
}

// RemoveAttr deletes an attribute if present.
func (n *Node) RemoveAttr(key string) {
	for i, a := range n.attrs {
		if a.Key == key {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			return
		}
	}
}

// Attrs returns a copy of the attribute list in document order.
func (n *Node) Attrs() []Attr {
	out := make([]Attr, len(n.attrs))
	copy(out, n.attrs)
	return out
}

// HasClass reports whether the class attribute contains name.
func (n *Node) HasClass(name string) bool {
	cls, _ := n.Attr("class")
	for _, c := range strings.Fields(cls) {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass adds name to the class attribute if not already present.
func (n *Node) AddClass(name string) {
	if name == "" || n.HasClass(name) {
		return
	}
	cls, _ := n.Attr("class")
	if cls == "" {
		n.SetAttr("class", name)
		return
	}
	n.SetAttr("class", cls+" "+name)
}

// RemoveClass removes name from the class attribute.
func (n *Node) RemoveClass(name string) {
	cls, ok := n.Attr("class")
	if !ok {
		return
	}
	fields := strings.Fields(cls)
	kept := fields[:0]
	for _, c := range fields {
		if c != name {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		n.RemoveAttr("class")
		return
	}
	n.SetAttr("class", strings.Join(kept, " "))
}

// Text returns the concatenated text content of the subtree.
func (n *Node) Text() string {
	if n.Type == TextNode {
		return n.Data
	}
	var buf strings.Builder
	for _, c := range n.Children {
		buf.WriteString(c.Text())
	}
	return buf.String()
}

// SetText replaces the node's children with a single text node.
func (n *Node) SetText(s string) {
	n.clearChildren()
	n.Append(NewText(s))
}

// SetInnerHTML parses markup and replaces the node's children with the
// result.
func (n *Node) SetInnerHTML(markup string) error {
	children, err := ParseFragment(markup)
	if err != nil {
		return err
	}
	n.clearChildren()
	n.Append(children...)
	return nil
}

func (n *Node) clearChildren() {
	for _, c := range n.Children {
		c.Parent = nil
	}
	n.Children = nil
}

// Walk visits the subtree in document order, the node itself first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	// Children may detach themselves during the visit, so walk a snapshot.
	snapshot := make([]*Node, len(n.Children))
	copy(snapshot, n.Children)
	for _, c := range snapshot {
		c.Walk(fn)
	}
}

// ByID finds the element with the given id attribute in the subtree, or
// nil.
func (n *Node) ByID(id string) *Node {
	var found *Node
	n.Walk(func(c *Node) {
		if found == nil && c.Type == ElementNode {
			if v, ok := c.Attr("id"); ok && v == id {
				found = c
			}
		}
	})
	return found
}
