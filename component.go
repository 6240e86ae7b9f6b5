package hxbridge

import (
	"fmt"
	"strings"
	"sync"

	"github.com/a-h/templ"
)

// UpdateEvent is emitted by NotifyUpdate. Payload is what the paired
// Behavior receives in OnComponentUpdate.
type UpdateEvent struct {
	ComponentID string
	Kind        string
	Seq         uint64
	Payload     any
}

// ErrorEvent is emitted by NotifyError.
type ErrorEvent struct {
	ComponentID string
	Kind        string
	Err         error
	Severity    Severity
	Context     map[string]any
}

// Listener consumes component notifications. The Bridge is the main one.
type Listener interface {
	OnUpdate(UpdateEvent)
	OnError(ErrorEvent)
}

// Composable is what the Composer needs from a component.
type Composable interface {
	ID() string
	Kind() string
	Region() Region
	Styles() []string
	Scripts() []string
	Markup() templ.Component
}

// Configurer is implemented by components that ship configuration to their
// Behavior. The value is rendered as JSON into the root's data-config.
type Configurer interface {
	Config() any
}

// Widget is a host component as owned by a Panel.
type Widget interface {
	Composable
	Subscribe(l Listener) (unsubscribe func())
	NotifyUpdate()
	NotifyError(err error, context map[string]any)
	NotifyCritical(err error, context map[string]any)
	Dispose()
}

// Component[S] is the host-side state owner embedded by widgets. S is the
// state type.
//
//	type Table struct {
//	    *hxbridge.Component[TableState]
//	}
//
// State reaches the surface only through NotifyUpdate, which SetState
// calls on every mutation. Every call is treated as meaningful; nothing is
// diffed or deduplicated.
type Component[S any] struct {
	id      string
	kind    string
	opts    componentOptions
	payload func(S) any

	mu        sync.Mutex
	state     S
	seq       uint64
	nextSub   int
	listeners map[int]Listener
	disposed  bool
}

type componentOptions struct {
	region  Region
	styles  []string
	scripts []string
	config  any
}

// ComponentOption configures a Component at construction.
type ComponentOption func(*componentOptions)

// WithRegion places the component in the given layout region.
func WithRegion(r Region) ComponentOption {
	return func(o *componentOptions) {
		o.region = r
	}
}

// WithStyles declares stylesheet resource names the component needs.
func WithStyles(names ...string) ComponentOption {
	return func(o *componentOptions) {
		o.styles = append(o.styles, names...)
	}
}

// WithScripts declares script resource names, usually the paired
// Behavior's bundle.
func WithScripts(names ...string) ComponentOption {
	return func(o *componentOptions) {
		o.scripts = append(o.scripts, names...)
	}
}

// WithConfig sets the configuration rendered into data-config.
func WithConfig(v any) ComponentOption {
	return func(o *componentOptions) {
		o.config = v
	}
}

// New creates a component with the given id, kind and initial state.
//
// The id must be non-empty and contain no whitespace; the kind names the
// paired Behavior's component type and must be non-empty. Invalid
// configuration returns an error wrapping ErrInvalidConfig and no
// component.
//
// Ids are unique per Panel, not per process: New does not check for
// collisions. Panel.Add rejects a duplicate with ErrDuplicateComponent
// before attaching it, so a component holding a taken id never reaches a
// surface.
func New[S any](id, kind string, initial S, opts ...ComponentOption) (*Component[S], error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing component id", ErrInvalidConfig)
	}
	if strings.ContainsAny(id, " \t\r\n") {
		return nil, fmt.Errorf("%w: component id %q contains whitespace", ErrInvalidConfig, id)
	}
	if kind == "" {
		return nil, fmt.Errorf("%w: component %q has no kind", ErrInvalidConfig, id)
	}

	o := componentOptions{region: RegionContent}
	for _, opt := range opts {
		opt(&o)
	}
	if o.region != RegionControl && o.region != RegionContent {
		return nil, fmt.Errorf("%w: component %q has unknown region %q", ErrInvalidConfig, id, o.region)
	}

	return &Component[S]{
		id:        id,
		kind:      kind,
		opts:      o,
		state:     initial,
		listeners: make(map[int]Listener),
	}, nil
}

// ID returns the component id.
func (c *Component[S]) ID() string {
	return c.id
}

// Kind returns the paired Behavior's component type.
func (c *Component[S]) Kind() string {
	return c.kind
}

// Region returns the layout region.
func (c *Component[S]) Region() Region {
	return c.opts.region
}

// Styles returns declared stylesheet names.
func (c *Component[S]) Styles() []string {
	return c.opts.styles
}

// Scripts returns declared script names.
func (c *Component[S]) Scripts() []string {
	return c.opts.scripts
}

// Config returns the configuration set with WithConfig.
func (c *Component[S]) Config() any {
	return c.opts.config
}

// SetPayload projects the state into the update payload. Without it the
// whole state is sent.
func (c *Component[S]) SetPayload(fn func(S) any) {
	c.payload = fn
}

// State returns a copy of the current state.
func (c *Component[S]) State() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Seq returns the number of updates emitted so far. Diagnostics only.
func (c *Component[S]) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// SetState merges a change into the state and emits an update. fn runs
// under the component lock, so concurrent calls apply in turn; it must not
// call back into the component.
//
//	c.SetState(func(s *TableState) { s.Rows = rows })
func (c *Component[S]) SetState(fn func(*S)) {
	c.mu.Lock()
	fn(&c.state)
	c.mu.Unlock()
	c.NotifyUpdate()
}

// NotifyUpdate emits the current state to every listener.
func (c *Component[S]) NotifyUpdate() {
	c.mu.Lock()
	c.seq++
	ev := UpdateEvent{
		ComponentID: c.id,
		Kind:        c.kind,
		Seq:         c.seq,
		Payload:     c.state,
	}
	if c.payload != nil {
		ev.Payload = c.payload(c.state)
	}
	listeners := c.snapshot()
	c.mu.Unlock()

	for _, l := range listeners {
		l.OnUpdate(ev)
	}
}

// NotifyError emits a structured error. It never panics and never returns
// an error, so a failing operation cannot take the Panel down.
func (c *Component[S]) NotifyError(err error, context map[string]any) {
	c.notifyError(err, SeverityError, context)
}

// NotifyCritical emits an error that blocks further use of the panel.
func (c *Component[S]) NotifyCritical(err error, context map[string]any) {
	c.notifyError(err, SeverityCritical, context)
}

func (c *Component[S]) notifyError(err error, sev Severity, context map[string]any) {
	if err == nil {
		return
	}
	c.mu.Lock()
	listeners := c.snapshot()
	c.mu.Unlock()

	ev := ErrorEvent{
		ComponentID: c.id,
		Kind:        c.kind,
		Err:         err,
		Severity:    sev,
		Context:     context,
	}
	for _, l := range listeners {
		l.OnError(ev)
	}
}

// Subscribe adds a listener and returns a function removing it.
// Subscribing to a disposed component is a no-op.
func (c *Component[S]) Subscribe(l Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return func() {}
	}
	key := c.nextSub
	c.nextSub++
	c.listeners[key] = l
	return func() {
		c.mu.Lock()
		delete(c.listeners, key)
		c.mu.Unlock()
	}
}

// Dispose drops all listeners. Later mutations emit nothing.
func (c *Component[S]) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
	clear(c.listeners)
}

// Disposed reports whether Dispose was called.
func (c *Component[S]) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// snapshot copies listeners in subscription order; caller holds mu.
func (c *Component[S]) snapshot() []Listener {
	out := make([]Listener, 0, len(c.listeners))
	for i := 0; i < c.nextSub; i++ {
		if l, ok := c.listeners[i]; ok {
			out = append(out, l)
		}
	}
	return out
}
