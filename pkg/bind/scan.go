package bind

import (
	"strings"

	"github.com/seriva/microtastic/pkg/dom"
	"github.com/seriva/microtastic/pkg/reactive"
	"github.com/seriva/microtastic/pkg/safehtml"
)

// Scope is what directive paths resolve against. Values are typically
// signals, handler functions, or nested maps of those.
type Scope map[string]any

// Resolve walks a dot-separated path through nested scopes, returning nil
// as soon as a segment is missing.
func Resolve(scope Scope, path string) any {
	var cur any = scope
	for _, part := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case Scope:
			cur = m[part]
		case map[string]any:
			cur = m[part]
		default:
			return nil
		}
	}
	return cur
}

// Scan walks the subtree rooted at root (the root element included) and
// installs a live binding for every recognized data-* directive. It returns
// one cleanup function that removes every listener and subscription the
// scan installed.
func Scan(root *dom.Node, scope Scope) func() {
	var cleanups []func()

	root.Walk(func(n *dom.Node) {
		if n.Type != dom.ElementNode {
			return
		}
		for _, attr := range n.Attrs() {
			if c := installDirective(n, attr.Key, attr.Value, scope); c != nil {
				cleanups = append(cleanups, c)
			}
		}
	})

	return Multiple(cleanups...)
}

func installDirective(n *dom.Node, key, path string, scope Scope) func() {
	switch {
	case key == "data-text":
		return observe(Resolve(scope, path), func(v any) {
			n.SetText(Stringify(v))
		})

	case key == "data-html":
		return installHTML(n, path, scope)

	case key == "data-visible":
		return observe(Resolve(scope, path), func(v any) {
			if Truthy(v) {
				n.Display = ""
			} else {
				n.Display = "none"
			}
		})

	case key == "data-if":
		return installIf(n, path, scope)

	case key == "data-model":
		return installModel(n, path, scope)

	case strings.HasPrefix(key, "data-class-"):
		name := strings.TrimPrefix(key, "data-class-")
		return observe(Resolve(scope, path), func(v any) {
			if Truthy(v) {
				n.AddClass(name)
			} else {
				n.RemoveClass(name)
			}
		})

	case strings.HasPrefix(key, "data-attr-"):
		name := strings.TrimPrefix(key, "data-attr-")
		return observe(Resolve(scope, path), func(v any) {
			n.SetAttr(name, Stringify(v))
		})

	case strings.HasPrefix(key, "data-bool-"):
		name := strings.TrimPrefix(key, "data-bool-")
		return observe(Resolve(scope, path), func(v any) {
			if Truthy(v) {
				n.SetAttr(name, "")
			} else {
				n.RemoveAttr(name)
			}
		})

	case strings.HasPrefix(key, "data-on-"):
		return installHandler(n, strings.TrimPrefix(key, "data-on-"), path, scope)
	}
	return nil
}

// observe subscribes when the resolved value is a signal; a plain value or
// thunk is applied once with nothing to clean up.
func observe(val any, apply func(any)) func() {
	switch v := val.(type) {
	case reactive.Observable:
		return v.Observe(apply)
	case func() any:
		apply(v())
	case nil:
		// Unresolvable path: leave the node alone.
	default:
		apply(v)
	}
	return nil
}

// installHTML keeps the node's inner markup equal to the source value.
// Plain strings are escaped; safehtml.HTML passes through. After each
// update the new direct children are re-scanned against the same scope,
// with the previous recursive scan cleaned up first.
func installHTML(n *dom.Node, path string, scope Scope) func() {
	var innerCleanup func()

	unsub := observe(Resolve(scope, path), func(v any) {
		content := ""
		switch h := v.(type) {
		case safehtml.HTML:
			content = h.Content
		default:
			content = safehtml.Escape(Stringify(v))
		}

		if innerCleanup != nil {
			innerCleanup()
			innerCleanup = nil
		}
		if err := n.SetInnerHTML(content); err != nil {
			return
		}

		var nested []func()
		for _, child := range n.Children {
			if child.Type == dom.ElementNode {
				nested = append(nested, Scan(child, scope))
			}
		}
		innerCleanup = Multiple(nested...)
	})

	return func() {
		if innerCleanup != nil {
			innerCleanup()
		}
		if unsub != nil {
			unsub()
		}
	}
}

// installIf conditionally mounts the element. A comment placeholder is
// inserted in front of it at scan time and marks the re-insertion point, so
// the element keeps its identity (and internal state) across unmounts.
func installIf(n *dom.Node, path string, scope Scope) func() {
	placeholder := dom.NewComment("if")
	if n.Parent != nil {
		n.Parent.InsertBefore(placeholder, n)
	}

	return observe(Resolve(scope, path), func(v any) {
		if Truthy(v) {
			if n.Parent == nil && placeholder.Parent != nil {
				placeholder.Parent.InsertAfter(n, placeholder)
			}
		} else {
			n.Detach()
		}
	})
}

// installModel wires a two-way binding: signal writes update the control's
// value, input events write the control's value back into the signal.
func installModel(n *dom.Node, path string, scope Scope) func() {
	val := Resolve(scope, path)
	src, canRead := val.(reactive.Observable)
	sink, canWrite := val.(reactive.Settable)
	if !canRead || !canWrite {
		return nil
	}

	unsub := src.Observe(func(v any) {
		n.Value = Stringify(v)
	})
	removeListener := n.AddEventListener("input", func(e *dom.Event) {
		sink.SetValue(e.Value)
	})
	return Multiple(unsub, removeListener)
}

// installHandler attaches a scope function as an event listener. The
// handler runs inside a batch so all its signal writes coalesce into one
// notification pass.
func installHandler(n *dom.Node, event, path string, scope Scope) func() {
	var handler func(*dom.Event)
	switch fn := Resolve(scope, path).(type) {
	case func(*dom.Event):
		handler = fn
	case func():
		handler = func(*dom.Event) { fn() }
	default:
		return nil
	}

	return n.AddEventListener(event, func(e *dom.Event) {
		reactive.Batch(func() { handler(e) })
	})
}
