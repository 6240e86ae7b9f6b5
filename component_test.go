package hxbridge

import (
	"errors"
	"sync"
	"testing"
)

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name string
		id   string
		kind string
		opts []ComponentOption
	}{
		{"empty id", "", "counter", nil},
		{"whitespace id", "a b", "counter", nil},
		{"empty kind", "c1", "", nil},
		{"unknown region", "c1", "counter", []ComponentOption{WithRegion("sidebar")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.id, tt.kind, counterState{}, tt.opts...)
			if !IsConfigError(err) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
			if c != nil {
				t.Error("New() returned a component with an error")
			}
		})
	}
}

func TestComponentDefaults(t *testing.T) {
	c := newCounter("c1", WithStyles("a.css"), WithScripts("a.js"), WithConfig(map[string]int{"step": 2}))

	if c.Region() != RegionContent {
		t.Errorf("Region() = %q, want %q", c.Region(), RegionContent)
	}
	if c.Kind() != "counter" {
		t.Errorf("Kind() = %q, want counter", c.Kind())
	}
	if len(c.Styles()) != 1 || len(c.Scripts()) != 1 {
		t.Errorf("Styles() = %v, Scripts() = %v", c.Styles(), c.Scripts())
	}
	if c.Config() == nil {
		t.Error("Config() = nil")
	}
}

func TestSetStateAlwaysNotifies(t *testing.T) {
	c := newCounter("c1")
	l := &listenerFunc{}
	c.Subscribe(l)

	c.SetState(func(s *counterState) {})
	c.SetState(func(s *counterState) {})
	c.Inc()

	if len(l.updates) != 3 {
		t.Fatalf("updates = %d, want 3", len(l.updates))
	}
	last := l.updates[2]
	if last.Seq != 3 || last.ComponentID != "c1" || last.Kind != "counter" {
		t.Errorf("last update = %+v", last)
	}
	if st, ok := last.Payload.(counterState); !ok || st.Count != 1 {
		t.Errorf("Payload = %#v, want count 1", last.Payload)
	}
	if c.Seq() != 3 {
		t.Errorf("Seq() = %d, want 3", c.Seq())
	}
}

func TestSetStateConcurrentWriters(t *testing.T) {
	c := newCounter("c1")

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				c.SetState(func(s *counterState) { s.Count++ })
			}
		}()
	}
	wg.Wait()

	if got := c.State().Count; got != 1000 {
		t.Errorf("Count = %d, want 1000", got)
	}
	if c.Seq() != 1000 {
		t.Errorf("Seq() = %d, want 1000", c.Seq())
	}
}

func TestSetPayloadProjectsState(t *testing.T) {
	c := newCounter("c1")
	c.SetPayload(func(s counterState) any { return s.Count })
	l := &listenerFunc{}
	c.Subscribe(l)

	c.Inc()
	if got := l.updates[0].Payload; got != 1 {
		t.Errorf("Payload = %v, want 1", got)
	}
}

func TestNotifyError(t *testing.T) {
	c := newCounter("c1")
	l := &listenerFunc{}
	c.Subscribe(l)

	c.NotifyError(errors.New("bad"), map[string]any{"row": 3})
	c.NotifyCritical(errors.New("worse"), nil)
	c.NotifyError(nil, nil)

	if len(l.errors) != 2 {
		t.Fatalf("errors = %d, want 2", len(l.errors))
	}
	if l.errors[0].Severity != SeverityError || l.errors[0].Context["row"] != 3 {
		t.Errorf("errors[0] = %+v", l.errors[0])
	}
	if l.errors[1].Severity != SeverityCritical {
		t.Errorf("errors[1].Severity = %q", l.errors[1].Severity)
	}
	if len(l.updates) != 0 {
		t.Error("NotifyError emitted an update")
	}
}

func TestSubscribeAndDispose(t *testing.T) {
	c := newCounter("c1")
	a, b := &listenerFunc{}, &listenerFunc{}
	unsubA := c.Subscribe(a)
	c.Subscribe(b)

	c.Inc()
	unsubA()
	c.Inc()

	if len(a.updates) != 1 || len(b.updates) != 2 {
		t.Errorf("a=%d b=%d, want 1 and 2", len(a.updates), len(b.updates))
	}

	c.Dispose()
	c.Inc()
	c.Subscribe(a)
	c.Inc()
	if !c.Disposed() {
		t.Error("Disposed() = false")
	}
	if len(b.updates) != 2 || len(a.updates) != 1 {
		t.Error("disposed component still notifies")
	}
	if c.State().Count != 4 {
		t.Errorf("Count = %d, want 4", c.State().Count)
	}
}
