package hxbridge

import (
	"context"
	"strings"
	"sync"
)

// Recorder is a Transport that keeps every sent envelope and delivers
// nothing on its own. Use Deliver to play the peer.
//
//	rec := hxbridge.NewRecorder()
//	panel := hxbridge.NewPanel(rec)
//	...
//	if got := rec.SentTo("t1"); len(got) != 1 { ... }
type Recorder struct {
	mu     sync.Mutex
	sent   []Message
	inbox  chan Message
	closed bool
}

// NewRecorder creates a recorder whose inbox buffers DefaultMailboxSize
// envelopes.
func NewRecorder() *Recorder {
	return &Recorder{inbox: make(chan Message, DefaultMailboxSize)}
}

// Send records msg. After Close it returns ErrTransportClosed.
func (r *Recorder) Send(ctx context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrTransportClosed
	}
	r.sent = append(r.sent, msg)
	return nil
}

// Inbox returns the envelopes queued with Deliver.
func (r *Recorder) Inbox() <-chan Message {
	return r.inbox
}

// Close stops recording and closes the inbox.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		close(r.inbox)
	}
	return nil
}

// Deliver queues msg as if the peer had sent it.
func (r *Recorder) Deliver(msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrTransportClosed
	}
	select {
	case r.inbox <- msg:
		return nil
	default:
		return ErrMailboxFull
	}
}

// Sent returns a copy of every recorded envelope.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

// SentTo returns the recorded envelopes addressed to componentID.
func (r *Recorder) SentTo(componentID string) []Message {
	var out []Message
	for _, m := range r.Sent() {
		if m.ComponentID == componentID {
			out = append(out, m)
		}
	}
	return out
}

// Reset forgets recorded envelopes.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

// tap records what passes through a Transport.
type tap struct {
	Transport
	mu   sync.Mutex
	sent []Message
}

func (t *tap) Send(ctx context.Context, msg Message) error {
	err := t.Transport.Send(ctx, msg)
	if err == nil {
		t.mu.Lock()
		t.sent = append(t.sent, msg)
		t.mu.Unlock()
	}
	return err
}

// Harness connects a Panel and a Surface over an in-memory pipe and runs
// them in lockstep, so tests need no goroutines or sleeps.
//
//	h := hxbridge.NewHarness()
//	h.Surface.Add(&TableBehavior{})
//	h.Panel.Add(table)
//	if err := h.Load(ctx); err != nil { ... }
//	table.SetData(rows)
//	h.Sync(ctx)
type Harness struct {
	Panel   *Panel
	Surface *Surface

	host    *tap
	surface *tap
}

// NewHarness creates a connected panel and surface.
func NewHarness(opts ...Option) *Harness {
	hostEnd, surfaceEnd := NewPipe(DefaultMailboxSize)
	h := &Harness{
		host:    &tap{Transport: hostEnd},
		surface: &tap{Transport: surfaceEnd},
	}
	h.Panel = NewPanel(h.host, opts...)
	h.Surface = NewSurface(h.surface, opts...)
	return h
}

// Load renders the panel document into the surface and settles the
// resulting ready/resync exchange.
func (h *Harness) Load(ctx context.Context) error {
	html, err := h.Panel.Document().HTML(ctx)
	if err != nil {
		return err
	}
	if err := h.Surface.Load(ctx, strings.NewReader(html)); err != nil {
		return err
	}
	h.Sync(ctx)
	return nil
}

// Sync drains both sides until neither has anything waiting and returns
// the number of envelopes handled.
func (h *Harness) Sync(ctx context.Context) int {
	total := 0
	for {
		n := h.Surface.Drain(ctx) + h.Panel.Drain(ctx)
		if n == 0 {
			return total
		}
		total += n
	}
}

// HostSent returns every envelope the panel side has sent.
func (h *Harness) HostSent() []Message {
	h.host.mu.Lock()
	defer h.host.mu.Unlock()
	return append([]Message(nil), h.host.sent...)
}

// SurfaceSent returns every envelope the surface side has sent.
func (h *Harness) SurfaceSent() []Message {
	h.surface.mu.Lock()
	defer h.surface.mu.Unlock()
	return append([]Message(nil), h.surface.sent...)
}

// ResetSent forgets recorded envelopes on both sides.
func (h *Harness) ResetSent() {
	h.host.mu.Lock()
	h.host.sent = nil
	h.host.mu.Unlock()
	h.surface.mu.Lock()
	h.surface.sent = nil
	h.surface.mu.Unlock()
}
