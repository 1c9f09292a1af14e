// Package component ties the reactive core, templating and binding scanner
// together into a renderable unit with a managed lifecycle:
//
//	state -> init -> template -> styles -> scan -> mount -> ... -> cleanup
//
// A component implements Template; every other hook is optional and
// detected by capability interface, not inheritance.
package component

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/seriva/microtastic/pkg/bind"
	"github.com/seriva/microtastic/pkg/css"
	"github.com/seriva/microtastic/pkg/dom"
	"github.com/seriva/microtastic/pkg/reactive"
	"github.com/seriva/microtastic/pkg/safehtml"
)

// Component is the one required capability: producing the markup.
type Component interface {
	Template() safehtml.HTML
}

// HasState supplies the reactive state. Values are converted per the rules
// in buildScope before the scope is handed to the binding scanner.
type HasState interface {
	State() map[string]any
}

// HasInit runs after the state signals exist, before the template renders.
type HasInit interface {
	Init(inst *Instance)
}

// HasStyles supplies a CSS declaration block scoped to the component's root
// element.
type HasStyles interface {
	Styles() string
}

// HasMount runs after the rendered element is inserted into the document.
type HasMount interface {
	Mount(inst *Instance)
}

// HasCleanup runs first during Cleanup.
type HasCleanup interface {
	OnCleanup()
}

// Instance is a rendered component: its root element, resolved refs, the
// scope the scanner bound against, and everything Cleanup must undo.
type Instance struct {
	// Root is the component's single root element.
	Root *dom.Node

	// Refs maps data-ref names to their elements.
	Refs map[string]*dom.Node

	// Scope is what binding paths resolved against.
	Scope bind.Scope

	component Component
	doc       *dom.Document
	unbind    func()
	owned     []reactive.Disposable
}

// Render runs the lifecycle through the scan step and returns the instance.
// A failing template never panics: the instance renders an inline error
// panel instead, so one broken component cannot take down the page.
func Render(doc *dom.Document, c Component) *Instance {
	inst := &Instance{
		component: c,
		doc:       doc,
		Refs:      map[string]*dom.Node{},
	}

	inst.Scope = inst.buildScope(c)

	if h, ok := c.(HasInit); ok {
		h.Init(inst)
	}

	root, err := renderTemplate(c)
	if err != nil {
		inst.Root = errorPanel(c, err)
		return inst
	}
	inst.Root = root

	if h, ok := c.(HasStyles); ok {
		if block := h.Styles(); block != "" {
			root.AddClass(css.Class(block))
			doc.InjectStyles(css.StyleSheet())
		}
	}

	inst.unbind = bind.Scan(root, inst.Scope)

	root.Walk(func(n *dom.Node) {
		if n.Type != dom.ElementNode {
			return
		}
		if name, ok := n.Attr("data-ref"); ok && name != "" {
			inst.Refs[name] = n
		}
	})

	return inst
}

// MountTo renders c and replaces the children of the container with it.
// The literal id "body" targets the document body. A missing container is
// logged and yields nil; callers must check.
func MountTo(doc *dom.Document, containerID string, c Component) *Instance {
	container := findContainer(doc, containerID)
	if container == nil {
		slog.Error("mount target not found", "container", containerID,
			"component", componentName(c))
		return nil
	}

	inst := Render(doc, c)
	for len(container.Children) > 0 {
		container.Children[len(container.Children)-1].Detach()
	}
	container.Append(inst.Root)

	if h, ok := c.(HasMount); ok {
		h.Mount(inst)
	}
	return inst
}

// AppendTo is MountTo without clearing the container first.
func AppendTo(doc *dom.Document, containerID string, c Component) *Instance {
	container := findContainer(doc, containerID)
	if container == nil {
		slog.Error("append target not found", "container", containerID,
			"component", componentName(c))
		return nil
	}

	inst := Render(doc, c)
	container.Append(inst.Root)

	if h, ok := c.(HasMount); ok {
		h.Mount(inst)
	}
	return inst
}

// Cleanup tears the instance down: the OnCleanup hook, then every binding
// and owned computed, then the refs. It is meant to be called exactly once;
// a second call runs OnCleanup again.
func (inst *Instance) Cleanup() {
	if h, ok := inst.component.(HasCleanup); ok {
		h.OnCleanup()
	}
	if inst.unbind != nil {
		inst.unbind()
	}
	for _, d := range inst.owned {
		d.Dispose()
	}
	inst.owned = nil
	inst.Refs = map[string]*dom.Node{}
}

// Own registers a disposable with the instance, to be disposed on Cleanup.
func (inst *Instance) Own(d reactive.Disposable) {
	inst.owned = append(inst.owned, d)
}

// buildScope converts the component's state map into the binding scope:
//
//   - func() any becomes an owned Computed, disposed on Cleanup
//   - signals (anything Observable) pass through, ownership not taken
//   - event-handler funcs pass through untouched
//   - a plain map containing at least one Observable passes through as a
//     manually assembled signal group
//   - every other value is wrapped in a fresh Signal
func (inst *Instance) buildScope(c Component) bind.Scope {
	scope := bind.Scope{}
	h, ok := c.(HasState)
	if !ok {
		return scope
	}
	for key, value := range h.State() {
		scope[key] = inst.convert(value)
	}
	return scope
}

func (inst *Instance) convert(value any) any {
	switch v := value.(type) {
	case func() any:
		computed := reactive.NewComputed(v)
		inst.Own(computed)
		return computed
	case reactive.Observable:
		return v
	case func(*dom.Event), func():
		return v
	case map[string]any:
		for _, member := range v {
			if _, isSignal := member.(reactive.Observable); isSignal {
				return v
			}
		}
		return reactive.NewSignal[any](v)
	default:
		return reactive.NewSignal[any](v)
	}
}

// renderTemplate parses the component markup and enforces the single-root
// contract.
func renderTemplate(c Component) (*dom.Node, error) {
	markup := c.Template()
	if markup.Content == "" {
		return nil, fmt.Errorf("template returned no content")
	}
	nodes, err := dom.ParseFragment(markup.Content)
	if err != nil {
		return nil, fmt.Errorf("template parse failed: %w", err)
	}

	var roots []*dom.Node
	for _, n := range nodes {
		switch n.Type {
		case dom.ElementNode:
			roots = append(roots, n)
		case dom.TextNode:
			// Whitespace around the root is tolerated.
			if strings.TrimSpace(n.Data) != "" {
				roots = append(roots, n)
			}
		}
	}
	if len(roots) != 1 || roots[0].Type != dom.ElementNode {
		return nil, fmt.Errorf("template must have a single root element, found %d", len(roots))
	}
	return roots[0], nil
}

// errorPanel builds the visible fallback shown in place of a component
// whose template failed.
func errorPanel(c Component, err error) *dom.Node {
	panel := dom.NewElement("div")
	panel.AddClass("component-error")
	panel.SetAttr("style",
		"border: 2px solid #c00; background: #fee; color: #900; padding: 8px; font-family: monospace")

	title := dom.NewElement("strong")
	title.SetText(componentName(c))

	message := dom.NewElement("div")
	message.SetText(err.Error())

	kind := dom.NewElement("small")
	kind.SetText(fmt.Sprintf("%T", err))

	panel.Append(title, message, kind)
	return panel
}

func componentName(c Component) string {
	t := reflect.TypeOf(c)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

func findContainer(doc *dom.Document, id string) *dom.Node {
	if id == "body" {
		return doc.Body()
	}
	return doc.ByID(id)
}
