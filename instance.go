package hxbridge

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/PuerkitoBio/goquery"
)

// Event is a user interaction delivered to an instance listener.
type Event struct {
	Name   string
	Target *goquery.Selection
	Detail json.RawMessage
}

// Decode unmarshals the event detail into v.
func (e Event) Decode(v any) error {
	if len(e.Detail) == 0 {
		return nil
	}
	return json.Unmarshal(e.Detail, v)
}

// EventHandler handles one bound event.
type EventHandler func(inst *Instance, ev Event)

type binding struct {
	event    string
	selector string
	handler  EventHandler
}

// Instance is one live Behavior instance on the surface. It touches only
// the subtree under Root.
type Instance struct {
	id       string
	typ      string
	root     *goquery.Selection
	config   json.RawMessage
	behavior Behavior
	surface  *Surface

	// Context is the per-instance object returned by CreateInstance.
	Context any

	elements map[string]*goquery.Selection
	bindings []binding
	state    LifecycleState
}

func newInstance(s *Surface, b Behavior, id string, root *goquery.Selection) *Instance {
	inst := &Instance{
		id:       id,
		typ:      b.ComponentType(),
		root:     root,
		behavior: b,
		surface:  s,
		elements: make(map[string]*goquery.Selection),
	}
	if cfg, ok := root.Attr(componentConfigAttr); ok && cfg != "" {
		inst.config = json.RawMessage(cfg)
	}
	return inst
}

// ID returns the component id shared with the host component.
func (i *Instance) ID() string {
	return i.id
}

// Type returns the Behavior's component type.
func (i *Instance) Type() string {
	return i.typ
}

// Root returns the instance's root element.
func (i *Instance) Root() *goquery.Selection {
	return i.root
}

// Config returns the raw data-config JSON, if any.
func (i *Instance) Config() json.RawMessage {
	return i.config
}

// State returns the lifecycle state.
func (i *Instance) State() LifecycleState {
	return i.state
}

// Find searches the instance subtree.
func (i *Instance) Find(selector string) *goquery.Selection {
	return i.root.Find(selector)
}

// Cache stores an element reference under name.
func (i *Instance) Cache(name string, sel *goquery.Selection) {
	i.elements[name] = sel
}

// Element returns a cached reference. Missing names return an empty
// selection so callers can chain without nil checks.
func (i *Instance) Element(name string) *goquery.Selection {
	if sel, ok := i.elements[name]; ok {
		return sel
	}
	return i.root.Slice(0, 0)
}

// On binds handler to event for targets in the subtree matching selector.
// An empty selector matches any target inside the instance.
func (i *Instance) On(event, selector string, handler EventHandler) {
	i.bindings = append(i.bindings, binding{event: event, selector: selector, handler: handler})
}

// Off removes every binding for event. A handler may call it while its
// event is being delivered; the current delivery is unaffected.
func (i *Instance) Off(event string) {
	kept := make([]binding, 0, len(i.bindings))
	for _, b := range i.bindings {
		if b.event != event {
			kept = append(kept, b)
		}
	}
	i.bindings = kept
}

// Bindings returns the number of bound handlers.
func (i *Instance) Bindings() int {
	return len(i.bindings)
}

// Post sends a user-action envelope for this instance to the host.
// Delivery is fire-and-forget.
func (i *Instance) Post(ctx context.Context, action Action, data any) error {
	msg, err := NewMessage(CommandUserAction, i.id, action, data)
	if err != nil {
		return err
	}
	return i.surface.send(ctx, msg)
}

// fire runs the bindings present when the event arrived and returns how
// many matched. Handlers may call On or Off.
func (i *Instance) fire(ev Event) int {
	n := 0
	for _, b := range slices.Clone(i.bindings) {
		if b.event != ev.Name {
			continue
		}
		if b.selector != "" && !ev.Target.Is(b.selector) {
			continue
		}
		b.handler(i, ev)
		n++
	}
	return n
}

// release unbinds listeners and drops cached references.
func (i *Instance) release() {
	i.bindings = nil
	clear(i.elements)
	i.state = StateDisposed
}
