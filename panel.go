package hxbridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
)

// HandlerFunc handles a user-action envelope on the host.
type HandlerFunc func(ctx context.Context, msg Message) Result

type handlerKey struct {
	id     string
	action Action
}

// Panel owns a set of components and the host end of one surface
// connection. It is the only writer of its components.
//
//	panel := hxbridge.NewPanel(hostTransport)
//	if err := panel.Add(table, picker); err != nil {
//	    return err
//	}
//	panel.On("src", "selectionChanged", handleSelection)
//	doc := panel.Document()
type Panel struct {
	id        string
	transport Transport
	bridge    *Bridge
	logger    *slog.Logger
	opts      options

	mu       sync.Mutex
	order    []string
	widgets  map[string]Widget
	detach   map[string][]func()
	handlers map[handlerKey]HandlerFunc
	disposed bool
}

// NewPanel creates a panel speaking over t.
func NewPanel(t Transport, opts ...Option) *Panel {
	o := buildOptions(opts)
	id := ulid.Make().String()
	p := &Panel{
		id:        id,
		transport: t,
		logger:    o.logger.With("side", sideHost, "panel_id", id),
		opts:      o,
		widgets:   make(map[string]Widget),
		detach:    make(map[string][]func()),
		handlers:  make(map[handlerKey]HandlerFunc),
	}
	p.bridge = NewBridge(t, WithLogger(o.logger.With("panel_id", id)), WithTracer(o.tracer))
	return p
}

// ID returns the panel's unique id.
func (p *Panel) ID() string {
	return p.id
}

// Add takes ownership of widgets. Ids must be unique within the panel: if
// any id is already taken, or repeated within the call, nothing is added
// and the error wraps ErrDuplicateComponent.
func (p *Panel) Add(widgets ...Widget) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed {
		return ErrDisposed
	}

	batch := make(map[string]struct{}, len(widgets))
	for _, w := range widgets {
		id := w.ID()
		if _, taken := p.widgets[id]; taken {
			return fmt.Errorf("%w: %q", ErrDuplicateComponent, id)
		}
		if _, repeated := batch[id]; repeated {
			return fmt.Errorf("%w: %q", ErrDuplicateComponent, id)
		}
		batch[id] = struct{}{}
	}

	for _, w := range widgets {
		id := w.ID()
		p.widgets[id] = w
		p.order = append(p.order, id)
		p.detach[id] = []func(){
			p.bridge.Attach(w),
			w.Subscribe(criticalListener{panel: p}),
		}
	}
	return nil
}

// Widget returns the component with the given id.
func (p *Panel) Widget(id string) (Widget, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.widgets[id]
	return w, ok
}

// Widgets returns the components in the order they were added.
func (p *Panel) Widgets() []Widget {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Widget, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.widgets[id])
	}
	return out
}

// On registers the handler for action on component id. A later call for
// the same pair replaces the handler.
func (p *Panel) On(id string, action Action, h HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[handlerKey{id: id, action: action}] = h
}

// Document composes the panel's components in the order they were added.
func (p *Panel) Document() *Document {
	widgets := p.Widgets()
	components := make([]Composable, len(widgets))
	for i, w := range widgets {
		components[i] = w
	}
	return Compose(components, WithResolver(p.opts.resolver), WithTitle(p.opts.title))
}

// Flash sends an in-panel notice. Critical notices also go to the Notifier.
func (p *Panel) Flash(ctx context.Context, level, message string) {
	n := Notice{Level: level, Message: message}
	msg, _ := NewMessage(CommandNotice, "", "", n)
	_ = p.bridge.Send(ctx, msg)
	if n.Critical() {
		p.notify(ctx, n)
	}
}

// Sync re-sends every component's current state. The panel does this
// whenever the surface reports it has (re)loaded.
func (p *Panel) Sync() {
	for _, w := range p.Widgets() {
		w.NotifyUpdate()
	}
}

// Receive handles one envelope from the surface. Envelopes for unknown
// components or actions without a handler are logged and dropped.
func (p *Panel) Receive(ctx context.Context, msg Message) {
	switch msg.Command {
	case CommandSurfaceReady:
		p.logger.Debug("surface ready")
		p.Sync()
		return
	case CommandUserAction:
	default:
		p.logger.Debug("unexpected command", "command", msg.Command)
		return
	}

	p.mu.Lock()
	w, known := p.widgets[msg.ComponentID]
	h, handled := p.handlers[handlerKey{id: msg.ComponentID, action: msg.Action}]
	p.mu.Unlock()

	if !known {
		metricRoutingMisses.WithLabelValues(sideHost).Inc()
		p.logger.Debug("envelope dropped", "component_id", msg.ComponentID, "action", msg.Action, "error", ErrUnknownComponent)
		return
	}
	if !handled {
		p.logger.Warn("action dropped", "component_id", msg.ComponentID, "action", msg.Action)
		return
	}

	p.apply(ctx, w, h(ctx, msg))
}

func (p *Panel) apply(ctx context.Context, w Widget, res Result) {
	for _, n := range res.GetFlashes() {
		p.Flash(ctx, n.Level, n.Message)
	}
	if err := res.GetErr(); err != nil {
		if res.IsCritical() {
			w.NotifyCritical(err, nil)
		} else {
			w.NotifyError(err, nil)
		}
	}
}

// Run handles envelopes until ctx ends or the transport closes.
func (p *Panel) Run(ctx context.Context) error {
	inbox := p.transport.Inbox()
	for {
		select {
		case msg, ok := <-inbox:
			if !ok {
				return nil
			}
			p.Receive(ctx, msg)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Drain handles every envelope already waiting and returns how many it
// handled. It never blocks.
func (p *Panel) Drain(ctx context.Context) int {
	inbox := p.transport.Inbox()
	n := 0
	for {
		select {
		case msg, ok := <-inbox:
			if !ok {
				return n
			}
			p.Receive(ctx, msg)
			n++
		default:
			return n
		}
	}
}

// Dispose tears the panel down: a dispose envelope for every component, a
// panel-dispose broadcast, then every component is disposed and the
// transport closed. Later calls do nothing.
func (p *Panel) Dispose(ctx context.Context) error {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return nil
	}
	p.disposed = true
	order := p.order
	widgets := p.widgets
	detach := p.detach
	p.order = nil
	p.widgets = make(map[string]Widget)
	p.detach = make(map[string][]func())
	p.handlers = make(map[handlerKey]HandlerFunc)
	p.mu.Unlock()

	for _, id := range order {
		msg, _ := NewMessage(CommandComponentEvent, id, ActionDispose, nil)
		_ = p.bridge.Send(ctx, msg)
	}
	msg, _ := NewMessage(CommandPanelDispose, "", "", nil)
	_ = p.bridge.Send(ctx, msg)

	for _, id := range order {
		for _, fn := range detach[id] {
			fn()
		}
		widgets[id].Dispose()
	}
	p.logger.Debug("panel disposed", "components", len(order))
	return p.transport.Close()
}

func (p *Panel) notify(ctx context.Context, n Notice) {
	if p.opts.notifier == nil {
		p.logger.Error("critical notice without notifier", "message", n.Message)
		return
	}
	if err := p.opts.notifier.Notify(ctx, n); err != nil {
		p.logger.Error("notifier failed", "message", n.Message, "error", err)
	}
}

// criticalListener forwards critical component errors to the Notifier.
type criticalListener struct {
	panel *Panel
}

func (criticalListener) OnUpdate(UpdateEvent) {}

func (l criticalListener) OnError(ev ErrorEvent) {
	if ev.Severity != SeverityCritical {
		return
	}
	l.panel.notify(context.Background(), Notice{
		Level:   FlashCritical,
		Message: fmt.Sprintf("%s: %v", ev.ComponentID, ev.Err),
	})
}
