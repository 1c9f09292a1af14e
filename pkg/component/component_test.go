package component

import (
	"strings"
	"testing"

	"github.com/seriva/microtastic/pkg/css"
	"github.com/seriva/microtastic/pkg/dom"
	"github.com/seriva/microtastic/pkg/reactive"
	"github.com/seriva/microtastic/pkg/safehtml"
)

type counter struct {
	count *reactive.Signal[any]
	log   []string
}

func (c *counter) State() map[string]any {
	c.log = append(c.log, "state")
	c.count = reactive.NewSignal[any](0)
	return map[string]any{
		"count": c.count,
		"double": func() any {
			n, _ := c.count.Get().(int)
			return n * 2
		},
		"increment": func() {
			n, _ := c.count.Peek().(int)
			c.count.Set(n + 1)
		},
	}
}

func (c *counter) Init(inst *Instance) {
	c.log = append(c.log, "init")
}

func (c *counter) Template() safehtml.HTML {
	c.log = append(c.log, "template")
	return safehtml.Trusted(`<div>
		<span data-ref="value" data-text="count"></span>
		<span data-ref="double" data-text="double"></span>
		<button data-on-click="increment">+</button>
	</div>`)
}

func (c *counter) Mount(inst *Instance) {
	c.log = append(c.log, "mount")
}

func (c *counter) OnCleanup() {
	c.log = append(c.log, "cleanup")
}

func TestLifecycleOrder(t *testing.T) {
	doc := dom.NewDocument()
	c := &counter{}
	inst := MountTo(doc, "body", c)
	if inst == nil {
		t.Fatal("MountTo returned nil")
	}
	inst.Cleanup()

	want := []string{"state", "init", "template", "mount", "cleanup"}
	if len(c.log) != len(want) {
		t.Fatalf("lifecycle log = %v, want %v", c.log, want)
	}
	for i, step := range want {
		if c.log[i] != step {
			t.Fatalf("lifecycle log = %v, want %v", c.log, want)
		}
	}
}

func TestStateBindingAndHandler(t *testing.T) {
	doc := dom.NewDocument()
	c := &counter{}
	inst := MountTo(doc, "body", c)

	if got := inst.Refs["value"].Text(); got != "0" {
		t.Fatalf("value = %q, want 0", got)
	}
	if got := inst.Refs["double"].Text(); got != "0" {
		t.Fatalf("double = %q, want 0", got)
	}

	var button *dom.Node
	inst.Root.Walk(func(n *dom.Node) {
		if n.Tag == "button" {
			button = n
		}
	})
	if button == nil {
		t.Fatal("button not found")
	}
	button.Dispatch(&dom.Event{Type: "click"})
	button.Dispatch(&dom.Event{Type: "click"})

	if got := inst.Refs["value"].Text(); got != "2" {
		t.Fatalf("value after clicks = %q, want 2", got)
	}
	if got := inst.Refs["double"].Text(); got != "4" {
		t.Fatalf("double after clicks = %q, want 4", got)
	}
}

func TestCleanupStopsBindingsAndDisposesComputed(t *testing.T) {
	doc := dom.NewDocument()
	c := &counter{}
	inst := MountTo(doc, "body", c)

	inst.Cleanup()
	c.count.Set(41)

	if got := inst.Refs["value"]; got != nil {
		t.Fatalf("refs survive cleanup: %v", got)
	}
	var value string
	inst.Root.Walk(func(n *dom.Node) {
		if ref, _ := n.Attr("data-ref"); ref == "value" {
			value = n.Text()
		}
	})
	if value != "0" {
		t.Fatalf("binding still live after cleanup, value = %q", value)
	}
}

type plainState struct{}

func (plainState) State() map[string]any {
	return map[string]any{
		"title": "hello",
		"group": map[string]any{
			"inner": reactive.NewSignal[any]("deep"),
		},
		"bag": map[string]any{"x": 1},
	}
}

func (plainState) Template() safehtml.HTML {
	return safehtml.Trusted(`<div><em data-text="title"></em><i data-text="group.inner"></i></div>`)
}

func TestStateConversion(t *testing.T) {
	doc := dom.NewDocument()
	inst := Render(doc, plainState{})

	// Plain values are wrapped so rebinding stays uniform.
	if _, ok := inst.Scope["title"].(reactive.Observable); !ok {
		t.Fatalf("title = %T, want a signal", inst.Scope["title"])
	}
	// A map holding signals stays a map, so dotted paths descend into it.
	if _, ok := inst.Scope["group"].(map[string]any); !ok {
		t.Fatalf("group = %T, want map passthrough", inst.Scope["group"])
	}
	// A map of plain values does not.
	if _, ok := inst.Scope["bag"].(reactive.Observable); !ok {
		t.Fatalf("bag = %T, want a signal", inst.Scope["bag"])
	}

	var em, it string
	inst.Root.Walk(func(n *dom.Node) {
		switch n.Tag {
		case "em":
			em = n.Text()
		case "i":
			it = n.Text()
		}
	})
	if em != "hello" || it != "deep" {
		t.Fatalf("em = %q, i = %q", em, it)
	}
}

type styled struct{}

func (styled) Template() safehtml.HTML { return safehtml.Trusted(`<section>styled</section>`) }
func (styled) Styles() string          { return "color: teal" }

func TestStylesScopedToRoot(t *testing.T) {
	css.Reset()
	doc := dom.NewDocument()
	inst := Render(doc, styled{})

	class := css.Class("color: teal")
	if !inst.Root.HasClass(class) {
		t.Fatalf("root missing style class %q", class)
	}
	if !strings.Contains(doc.HTML(), class) {
		t.Fatal("stylesheet not injected into document")
	}
}

type broken struct{}

func (broken) Template() safehtml.HTML {
	return safehtml.Trusted(`<p>one</p><p>two</p>`)
}

func TestMultiRootTemplateRendersErrorPanel(t *testing.T) {
	doc := dom.NewDocument()
	inst := Render(doc, broken{})

	if !inst.Root.HasClass("component-error") {
		t.Fatalf("expected error panel, got <%s>", inst.Root.Tag)
	}
	text := inst.Root.Text()
	if !strings.Contains(text, "broken") {
		t.Fatalf("panel missing component name: %q", text)
	}
	if !strings.Contains(text, "single root") {
		t.Fatalf("panel missing failure message: %q", text)
	}
}

type empty struct{}

func (empty) Template() safehtml.HTML { return safehtml.HTML{} }

func TestEmptyTemplateRendersErrorPanel(t *testing.T) {
	doc := dom.NewDocument()
	inst := Render(doc, empty{})
	if !inst.Root.HasClass("component-error") {
		t.Fatal("expected error panel for empty template")
	}
}

func TestMountToMissingContainer(t *testing.T) {
	doc := dom.NewDocument()
	if inst := MountTo(doc, "nope", &counter{}); inst != nil {
		t.Fatal("expected nil for missing container")
	}
}

func TestAppendToKeepsSiblings(t *testing.T) {
	doc := dom.NewDocument()
	marker := dom.NewElement("hr")
	doc.Body().Append(marker)

	inst := AppendTo(doc, "body", styled{})
	if inst == nil {
		t.Fatal("AppendTo returned nil")
	}
	if len(doc.Body().Children) != 2 || doc.Body().Children[0] != marker {
		t.Fatalf("sibling not preserved, body has %d children", len(doc.Body().Children))
	}
}

func TestMountToReplacesContainerContent(t *testing.T) {
	doc := dom.NewDocument()
	doc.Body().Append(dom.NewElement("hr"), dom.NewText("old"))

	MountTo(doc, "body", styled{})
	if len(doc.Body().Children) != 1 {
		t.Fatalf("container not cleared, %d children", len(doc.Body().Children))
	}
}
