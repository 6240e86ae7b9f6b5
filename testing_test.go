package hxbridge

import (
	"context"
	"errors"
	"testing"
)

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder()

	_ = rec.Send(ctx, Message{Command: CommandComponentEvent, ComponentID: "a"})
	_ = rec.Send(ctx, Message{Command: CommandComponentEvent, ComponentID: "b"})
	if len(rec.Sent()) != 2 || len(rec.SentTo("a")) != 1 {
		t.Errorf("Sent() = %v", rec.Sent())
	}

	if err := rec.Deliver(Message{Command: CommandSurfaceReady}); err != nil {
		t.Fatal(err)
	}
	if got := <-rec.Inbox(); got.Command != CommandSurfaceReady {
		t.Errorf("Inbox() = %s", got)
	}

	rec.Reset()
	if len(rec.Sent()) != 0 {
		t.Error("Reset() kept envelopes")
	}

	_ = rec.Close()
	if err := rec.Send(ctx, Message{}); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("Send() after Close error = %v", err)
	}
	if err := rec.Deliver(Message{}); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("Deliver() after Close error = %v", err)
	}
}

func TestHarnessRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := NewHarness()
	b := &counterBehavior{}
	h.Surface.Add(b)
	c := newCounter("c1")
	if err := h.Panel.Add(c); err != nil {
		t.Fatal(err)
	}
	h.Panel.On("c1", "increment", func(ctx context.Context, msg Message) Result {
		c.Inc()
		return OK()
	})

	if err := h.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	// surface-ready triggers one resync update.
	if len(b.updates) != 1 {
		t.Fatalf("updates after Load = %d, want 1", len(b.updates))
	}

	h.ResetSent()
	if _, err := h.Surface.Fire("#"+DOMID("counter", "c1")+" .inc", "click", nil); err != nil {
		t.Fatal(err)
	}
	h.Sync(ctx)

	if got := h.SurfaceSent(); len(got) != 1 || got[0].Command != CommandUserAction {
		t.Errorf("SurfaceSent() = %v", got)
	}
	if got := h.HostSent(); len(got) != 1 || got[0].Action != ActionComponentUpdate {
		t.Errorf("HostSent() = %v", got)
	}
	inst, _ := h.Surface.Registry().Lookup("counter", "c1")
	if got := inst.Find(".count").Text(); got != "1" {
		t.Errorf(".count = %q, want 1", got)
	}
}

func TestHarnessRapidUpdatesKeepOrder(t *testing.T) {
	ctx := context.Background()
	h := NewHarness()
	b := &counterBehavior{}
	h.Surface.Add(b)
	c := newCounter("c1")
	if err := h.Panel.Add(c); err != nil {
		t.Fatal(err)
	}
	if err := h.Load(ctx); err != nil {
		t.Fatal(err)
	}
	b.updates = nil

	for i := 0; i < 5; i++ {
		c.Inc()
	}
	h.Sync(ctx)

	if len(b.updates) != 5 {
		t.Fatalf("updates = %d, want 5", len(b.updates))
	}
	inst, _ := h.Surface.Registry().Lookup("counter", "c1")
	if got := inst.Context.(*counterInstance).Count; got != 5 {
		t.Errorf("final Count = %d, want 5", got)
	}
}

func TestHarnessDisposeThenMutate(t *testing.T) {
	ctx := context.Background()
	h := NewHarness()
	b := &counterBehavior{}
	h.Surface.Add(b)
	c := newCounter("c1")
	if err := h.Panel.Add(c); err != nil {
		t.Fatal(err)
	}
	if err := h.Load(ctx); err != nil {
		t.Fatal(err)
	}

	if err := h.Panel.Dispose(ctx); err != nil {
		t.Fatal(err)
	}
	h.Sync(ctx)

	if n := h.Surface.Registry().Count(); n != 0 {
		t.Errorf("surface instances = %d, want 0", n)
	}
	if b.cleanups != 1 {
		t.Errorf("cleanups = %d, want 1", b.cleanups)
	}

	// Late mutation after teardown is dropped quietly.
	updates := len(b.updates)
	c.Inc()
	h.Sync(ctx)
	if len(b.updates) != updates {
		t.Error("update delivered after dispose")
	}
}
