package hxbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
)

// counterState is the state of the counter test widget.
type counterState struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

type counter struct {
	*Component[counterState]
}

func newCounter(id string, opts ...ComponentOption) *counter {
	c, err := New(id, "counter", counterState{Label: id}, opts...)
	if err != nil {
		panic(err)
	}
	return &counter{Component: c}
}

func (c *counter) Inc() {
	c.SetState(func(s *counterState) {
		s.Count++
	})
}

func (c *counter) Markup() templ.Component {
	st := c.State()
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<span class="count">%d</span><button class="inc">+</button>`, st.Count)
		return err
	})
}

// counterBehavior implements every hook and records what it saw.
type counterBehavior struct {
	calls    []string
	updates  []json.RawMessage
	custom   []Message
	errs     []ErrorPayload
	findErr  error
	bindErr  error
	cleanups int
}

type counterInstance struct {
	Count int
}

func (b *counterBehavior) ComponentType() string { return "counter" }

func (b *counterBehavior) CreateInstance(id string, config json.RawMessage, root *goquery.Selection) (any, error) {
	b.calls = append(b.calls, "create:"+id)
	return &counterInstance{}, nil
}

func (b *counterBehavior) FindElements(inst *Instance) error {
	b.calls = append(b.calls, "find:"+inst.ID())
	if b.findErr != nil {
		return b.findErr
	}
	inst.Cache("count", inst.Find(".count"))
	return nil
}

func (b *counterBehavior) SetupListeners(inst *Instance) error {
	b.calls = append(b.calls, "listen:"+inst.ID())
	if b.bindErr != nil {
		return b.bindErr
	}
	inst.On("click", ".inc", func(inst *Instance, ev Event) {
		_ = inst.Post(context.Background(), "increment", nil)
	})
	return nil
}

func (b *counterBehavior) OnComponentUpdate(inst *Instance, data json.RawMessage) error {
	b.updates = append(b.updates, data)
	var st counterState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	inst.Context.(*counterInstance).Count = st.Count
	inst.Element("count").SetText(fmt.Sprint(st.Count))
	return nil
}

func (b *counterBehavior) HandleCustomAction(inst *Instance, msg Message) error {
	b.custom = append(b.custom, msg)
	if msg.Action == "explode" {
		return errors.New("boom")
	}
	return nil
}

func (b *counterBehavior) OnComponentError(inst *Instance, payload ErrorPayload) {
	b.errs = append(b.errs, payload)
}

func (b *counterBehavior) CleanupInstance(inst *Instance) {
	b.calls = append(b.calls, "cleanup:"+inst.ID())
	b.cleanups++
}

// plainBehavior implements only the mandatory hooks.
type plainBehavior struct {
	typ     string
	updates int
}

func (b *plainBehavior) ComponentType() string { return b.typ }

func (b *plainBehavior) OnComponentUpdate(*Instance, json.RawMessage) error {
	b.updates++
	return nil
}

// typeOnly forgets OnComponentUpdate.
type typeOnly struct{}

func (typeOnly) ComponentType() string { return "broken" }

// listenerFunc records component notifications.
type listenerFunc struct {
	updates []UpdateEvent
	errors  []ErrorEvent
}

func (l *listenerFunc) OnUpdate(ev UpdateEvent) { l.updates = append(l.updates, ev) }
func (l *listenerFunc) OnError(ev ErrorEvent)   { l.errors = append(l.errors, ev) }

func loadSurface(s *Surface, body string) error {
	return s.Load(context.Background(), strings.NewReader(`<html><body>`+body+`</body></html>`))
}

func counterRoot(id string) string {
	return fmt.Sprintf(`<div id="%s" data-component="counter" data-component-id="%s"><span class="count">0</span><button class="inc">+</button></div>`, DOMID("counter", id), id)
}
