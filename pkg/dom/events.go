package dom

// Event is dispatched to listeners registered on a node. There is no
// capture or bubbling phase; listeners fire on the target only.
type Event struct {
	Type   string
	Target *Node

	// Value carries the control value for input events.
	Value string
}

type listenerEntry struct {
	fn func(*Event)
}

// AddEventListener registers fn for the given event type and returns a
// function that removes exactly this registration.
func (n *Node) AddEventListener(event string, fn func(*Event)) (remove func()) {
	if n.listeners == nil {
		n.listeners = make(map[string][]*listenerEntry)
	}
	entry := &listenerEntry{fn: fn}
	n.listeners[event] = append(n.listeners[event], entry)

	return func() {
		list := n.listeners[event]
		for i, e := range list {
			if e == entry {
				n.listeners[event] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

// Dispatch delivers the event to the node's listeners, in registration
// order. A nil Target is filled in with the node.
func (n *Node) Dispatch(e *Event) {
	if e.Target == nil {
		e.Target = n
	}
	// Snapshot: listeners removed or added during delivery do not affect
	// this dispatch.
	list := n.listeners[e.Type]
	snapshot := make([]*listenerEntry, len(list))
	copy(snapshot, list)
	for _, entry := range snapshot {
		entry.fn(e)
	}
}

// SetValue updates the form-control value and fires an input event,
// mirroring what typing into the control would do.
func (n *Node) SetValue(v string) {
	n.Value = v
	n.Dispatch(&Event{Type: "input", Target: n, Value: v})
}
