package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Event is a dispatched DOM event.
type Event struct {
	Type string
	// Target is the element the event was dispatched on.
	Target *Element
	// CurrentTarget is the element whose listener is running.
	CurrentTarget *Element
	// Detail carries extra data for synthetic events.
	Detail map[string]any

	bubbles          bool
	defaultPrevented bool
	stopped          bool
}

// NewEvent creates an event of the given type. Focus, blur and the
// mouseenter/mouseleave pair do not bubble; everything else does.
func NewEvent(typ string) *Event {
	return &Event{Type: typ, bubbles: bubbles(typ)}
}

// PreventDefault cancels the event's default action.
func (ev *Event) PreventDefault() { ev.defaultPrevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (ev *Event) DefaultPrevented() bool { return ev.defaultPrevented }

// StopPropagation stops the event from reaching further ancestors.
func (ev *Event) StopPropagation() { ev.stopped = true }

// Listener handles an event.
type Listener func(*Event)

type listenerEntry struct {
	id int
	fn Listener
}

// On attaches fn for each space-separated event type and returns a
// function that detaches it again.
func (e *Element) On(types string, fn Listener) (off func()) {
	d := e.doc
	d.nextID++
	id := d.nextID
	kinds := strings.Fields(types)
	byType := d.listeners[e.node]
	if byType == nil {
		byType = make(map[string][]*listenerEntry)
		d.listeners[e.node] = byType
	}
	for _, k := range kinds {
		byType[k] = append(byType[k], &listenerEntry{id: id, fn: fn})
	}
	return func() {
		byType := d.listeners[e.node]
		for _, k := range kinds {
			list := byType[k]
			for i, l := range list {
				if l.id == id {
					byType[k] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		}
	}
}

// ListenerCount returns how many listeners e has for typ.
func (e *Element) ListenerCount(typ string) int {
	return len(e.doc.listeners[e.node][typ])
}

// Dispatch delivers ev to e and, when the event bubbles, to each ancestor.
// After delivery the default action runs unless it was prevented: a click
// on a submit button dispatches submit on its form.
func (e *Element) Dispatch(ev *Event) *Event {
	ev.Target = e
	for n := e.node; n != nil; n = parentElement(n) {
		e.doc.deliver(n, ev)
		if ev.stopped || !ev.bubbles {
			break
		}
	}
	ev.CurrentTarget = nil
	if !ev.defaultPrevented {
		e.doc.runDefault(e, ev)
	}
	return ev
}

// Trigger dispatches a new event of type typ on e.
func (e *Element) Trigger(typ string) *Event {
	return e.Dispatch(NewEvent(typ))
}

func (d *Document) deliver(n *html.Node, ev *Event) {
	list := d.listeners[n][ev.Type]
	if len(list) == 0 {
		return
	}
	snapshot := make([]*listenerEntry, len(list))
	copy(snapshot, list)
	ev.CurrentTarget = d.wrap(n)
	for _, l := range snapshot {
		l.fn(ev)
	}
}

func (d *Document) runDefault(target *Element, ev *Event) {
	if ev.Type != "click" || !target.IsSubmitButton() {
		return
	}
	if form := target.Form(); form != nil {
		submit := NewEvent("submit")
		submit.Detail = map[string]any{"submitter": target}
		form.Dispatch(submit)
	}
}

func bubbles(typ string) bool {
	switch typ {
	case "focus", "blur", "mouseenter", "mouseleave", "scroll", "load":
		return false
	}
	return true
}
