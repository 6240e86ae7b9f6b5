package hxbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/trace"
)

// Surface is the rendering side of a panel. It holds the document, the
// Behaviors registered for it, and the Registry of live instances, and it
// only hears from the host through its Transport.
//
// All work happens under one lock, so a Surface behaves as a single
// event-driven thread whether envelopes arrive via Run or Drain.
type Surface struct {
	mu        sync.Mutex
	transport Transport
	registry  *Registry
	behaviors map[string]Behavior
	doc       *goquery.Document
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewSurface creates a surface speaking over t.
func NewSurface(t Transport, opts ...Option) *Surface {
	o := buildOptions(opts)
	return &Surface{
		transport: t,
		registry:  NewRegistry(),
		behaviors: make(map[string]Behavior),
		logger:    o.logger.With("side", sideSurface),
		tracer:    o.tracer,
	}
}

// Registry returns the surface's instance registry.
func (s *Surface) Registry() *Registry {
	return s.registry
}

// Register adds a Behavior. Values that do not implement the mandatory
// OnComponentUpdate hook are refused with ErrContractViolation, a second
// Behavior for the same component type with ErrDuplicateBehavior.
func (s *Surface) Register(b any) error {
	beh, ok := b.(Behavior)
	if !ok {
		return fmt.Errorf("%w: %T", ErrContractViolation, b)
	}
	typ := beh.ComponentType()
	if typ == "" {
		return fmt.Errorf("%w: %T returns an empty component type", ErrInvalidConfig, b)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.behaviors[typ]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateBehavior, typ)
	}
	s.behaviors[typ] = beh
	return nil
}

// Add registers behaviors and panics on the first one Register refuses.
// Use it at startup so contract violations stop the surface from loading.
func (s *Surface) Add(behaviors ...any) {
	for _, b := range behaviors {
		if err := s.Register(b); err != nil {
			panic(err.Error())
		}
	}
}

// Types returns the registered component types, sorted.
func (s *Surface) Types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.behaviors))
	for typ := range s.behaviors {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// Load parses a composed document, initialises every component root in
// it, then tells the host the surface is ready. Instances that fail to
// initialise are skipped; their errors are joined into the result.
func (s *Surface) Load(ctx context.Context, r io.Reader) error {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return fmt.Errorf("hxbridge: parse document: %w", err)
	}

	s.mu.Lock()
	if s.doc != nil {
		s.teardown()
	}
	s.doc = doc

	var errs []error
	doc.Find(ComponentSelector).Each(func(_ int, root *goquery.Selection) {
		typ, _ := root.Attr(componentAttr)
		id, _ := root.Attr(componentIDAttr)
		if _, err := s.init(typ, id, root); err != nil {
			s.logger.Warn("component init failed", "component_type", typ, "component_id", id, "error", err)
			errs = append(errs, err)
		}
	})
	s.mu.Unlock()

	msg, _ := NewMessage(CommandSurfaceReady, "", "", nil)
	_ = s.send(ctx, msg)
	return errors.Join(errs...)
}

// Init runs an instance through Created, Bound and Listening to Active.
// Calling it again for a registered (type, id) returns the existing
// instance and runs no hooks.
func (s *Surface) Init(typ, id string, root *goquery.Selection) (*Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.init(typ, id, root)
}

func (s *Surface) init(typ, id string, root *goquery.Selection) (*Instance, error) {
	if inst, ok := s.registry.Lookup(typ, id); ok {
		return inst, nil
	}
	beh, ok := s.behaviors[typ]
	if !ok {
		return nil, fmt.Errorf("%w: no behavior for component type %q", ErrUnknownComponent, typ)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: %s element without component id", ErrInvalidConfig, typ)
	}

	inst := newInstance(s, beh, id, root)

	// Uninitialized -> Created
	if c, ok := beh.(InstanceCreator); ok {
		ctxObj, err := c.CreateInstance(id, inst.config, root)
		if err != nil {
			return nil, hookError(inst, "CreateInstance", err)
		}
		inst.Context = ctxObj
	}
	inst.state = StateCreated
	if cur, created := s.registry.Register(typ, id, inst); !created {
		return cur, nil
	}

	// Created -> Bound
	if f, ok := beh.(ElementFinder); ok {
		if err := f.FindElements(inst); err != nil {
			disposeInstance(s.registry, inst)
			return nil, hookError(inst, "FindElements", err)
		}
	}
	inst.state = StateBound

	// Bound -> Listening
	if l, ok := beh.(ListenerBinder); ok {
		if err := l.SetupListeners(inst); err != nil {
			disposeInstance(s.registry, inst)
			return nil, hookError(inst, "SetupListeners", err)
		}
	}
	inst.state = StateListening

	// Listening -> Active
	inst.state = StateActive
	s.logger.Debug("instance active", "component_type", typ, "component_id", id)
	return inst, nil
}

// Dispose tears one instance down and reports whether it was live.
func (s *Surface) Dispose(typ, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.registry.Lookup(typ, id)
	if !ok {
		return false
	}
	disposeInstance(s.registry, inst)
	return true
}

// Teardown disposes every instance and empties the registry.
func (s *Surface) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown()
}

func (s *Surface) teardown() {
	for _, inst := range s.registry.Reset() {
		if inst.state == StateDisposed {
			continue
		}
		if c, ok := inst.behavior.(InstanceCleaner); ok {
			c.CleanupInstance(inst)
		}
		inst.release()
	}
}

// Fire delivers a user event to every element matching selector. Each
// target reaches only the listeners of the instance that owns it.
// It returns the number of handlers that ran.
func (s *Surface) Fire(selector, event string, detail any) (int, error) {
	var raw json.RawMessage
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			return 0, fmt.Errorf("hxbridge: marshal %s detail: %w", event, err)
		}
		raw = b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return 0, nil
	}

	handled := 0
	s.doc.Find(selector).Each(func(_ int, target *goquery.Selection) {
		root := target.Closest(ComponentSelector)
		if root.Length() == 0 {
			return
		}
		typ, _ := root.Attr(componentAttr)
		id, _ := root.Attr(componentIDAttr)
		inst, ok := s.registry.Lookup(typ, id)
		if !ok || inst.state != StateActive {
			return
		}
		handled += inst.fire(Event{Name: event, Target: target, Detail: raw})
	})
	return handled, nil
}

// Receive handles one envelope from the host. It never returns an error:
// misses, unhandled actions and hook failures are logged and dropped.
func (s *Surface) Receive(ctx context.Context, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg.Command {
	case CommandComponentEvent, CommandComponentError:
		err := Dispatch(ctx, s.tracer, s.registry, msg)
		switch {
		case err == nil:
		case errors.Is(err, ErrUnknownComponent):
			metricRoutingMisses.WithLabelValues(sideSurface).Inc()
			s.logger.Debug("envelope dropped", "component_id", msg.ComponentID, "action", msg.Action, "error", err)
		case errors.Is(err, ErrUnhandledAction):
			s.logger.Warn("action dropped", "component_id", msg.ComponentID, "action", msg.Action)
		default:
			metricDispatchErrors.Inc()
			s.logger.Error("dispatch failed", "component_id", msg.ComponentID, "action", msg.Action, "error", err)
		}
	case CommandPanelDispose:
		s.teardown()
		s.logger.Debug("panel disposed")
	case CommandNotice:
		var n Notice
		if err := msg.Decode(&n); err != nil {
			s.logger.Warn("bad notice", "error", err)
			return
		}
		if s.doc != nil {
			s.doc.Find("#" + ToastContainerID).AppendHtml(RenderNotices([]Notice{n}))
		}
	default:
		s.logger.Debug("unexpected command", "command", msg.Command)
	}
}

// Run handles envelopes until ctx ends, the transport closes or the host
// disposes the panel. A closed transport means the host is gone, so every
// instance is torn down. A shared bus such as NATS never closes the
// surface's inbox, so panel-dispose ends Run too.
func (s *Surface) Run(ctx context.Context) error {
	inbox := s.transport.Inbox()
	for {
		select {
		case msg, ok := <-inbox:
			if !ok {
				s.Teardown()
				return nil
			}
			s.Receive(ctx, msg)
			if msg.Command == CommandPanelDispose {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Drain handles every envelope already waiting and returns how many it
// handled. It never blocks.
func (s *Surface) Drain(ctx context.Context) int {
	inbox := s.transport.Inbox()
	n := 0
	for {
		select {
		case msg, ok := <-inbox:
			if !ok {
				return n
			}
			s.Receive(ctx, msg)
			n++
		default:
			return n
		}
	}
}

// HTML returns the current document.
func (s *Surface) HTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return "", nil
	}
	return s.doc.Html()
}

// Close closes the transport and tears every instance down.
func (s *Surface) Close() error {
	s.Teardown()
	return s.transport.Close()
}

func (s *Surface) send(ctx context.Context, msg Message) error {
	if err := s.transport.Send(ctx, msg); err != nil {
		if IsDropped(err) {
			metricEnvelopesDropped.WithLabelValues(sideSurface, dropReason(err)).Inc()
			s.logger.Debug("envelope dropped", "message", msg.String(), "error", err)
		}
		return err
	}
	metricEnvelopesSent.WithLabelValues(sideSurface, string(msg.Command)).Inc()
	return nil
}
