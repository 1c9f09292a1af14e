// Package bind wires reactive signals to DOM nodes. The primitives each
// install one live binding and return its undo function; Scan interprets
// data-* binding directives over a whole subtree.
package bind

import (
	"fmt"
	"strings"

	"github.com/seriva/microtastic/pkg/dom"
	"github.com/seriva/microtastic/pkg/reactive"
)

// Bind applies a source's value through an arbitrary apply function, now and
// on every change. It returns the unbind function.
func Bind(src reactive.Observable, apply func(any)) func() {
	return src.Observe(apply)
}

// Text keeps the node's text content equal to the source value.
func Text(n *dom.Node, src reactive.Observable) func() {
	return src.Observe(func(v any) {
		n.SetText(Stringify(v))
	})
}

// Attr keeps the named attribute equal to the source's string value.
func Attr(n *dom.Node, name string, src reactive.Observable) func() {
	return src.Observe(func(v any) {
		n.SetAttr(name, Stringify(v))
	})
}

// BoolAttr adds the attribute (empty-valued) while the source is truthy and
// removes it otherwise.
func BoolAttr(n *dom.Node, name string, src reactive.Observable) func() {
	return src.Observe(func(v any) {
		if Truthy(v) {
			n.SetAttr(name, "")
		} else {
			n.RemoveAttr(name)
		}
	})
}

// Class toggles a CSS class on the node based on the source's truthiness.
func Class(n *dom.Node, name string, src reactive.Observable) func() {
	return src.Observe(func(v any) {
		if Truthy(v) {
			n.AddClass(name)
		} else {
			n.RemoveClass(name)
		}
	})
}

// Style keeps one declaration of the node's style attribute equal to the
// source's string value.
func Style(n *dom.Node, property string, src reactive.Observable) func() {
	return src.Observe(func(v any) {
		setStyleDecl(n, property, Stringify(v))
	})
}

// Visible toggles the node's display between shown and "none".
func Visible(n *dom.Node, src reactive.Observable) func() {
	return src.Observe(func(v any) {
		if Truthy(v) {
			n.Display = ""
		} else {
			n.Display = "none"
		}
	})
}

// Multiple combines unbind functions into one. The static signature makes
// the "not a list" misuse of the dynamic original impossible.
func Multiple(unbinds ...func()) func() {
	return func() {
		for _, u := range unbinds {
			if u != nil {
				u()
			}
		}
	}
}

// setStyleDecl rewrites the style attribute with property set to value,
// preserving unrelated declarations.
func setStyleDecl(n *dom.Node, property, value string) {
	style, _ := n.Attr("style")
	var decls []string
	for _, d := range strings.Split(style, ";") {
		d = strings.TrimSpace(d)
		if d == "" || strings.HasPrefix(d, property+":") {
			continue
		}
		decls = append(decls, d)
	}
	if value != "" {
		decls = append(decls, property+": "+value)
	}
	if len(decls) == 0 {
		n.RemoveAttr("style")
		return
	}
	n.SetAttr("style", strings.Join(decls, "; "))
}

// Stringify renders a bound value for text and attribute positions. nil
// renders empty rather than "<nil>".
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Truthy mirrors the conditional-binding semantics: nil, false, empty
// string and numeric zero are falsy, everything else truthy.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case uint64:
		return t != 0
	case float64:
		return t != 0
	case float32:
		return t != 0
	default:
		return true
	}
}
