package widgets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/pthm/hxbridge"
)

const ButtonType = "button"

// ActionClicked is posted when an enabled button is clicked.
const ActionClicked hxbridge.Action = "clicked"

type ButtonState struct {
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

// Button is a control-region action button.
type Button struct {
	*hxbridge.Component[ButtonState]
}

func NewButton(id, label string, opts ...hxbridge.ComponentOption) (*Button, error) {
	if label == "" {
		return nil, fmt.Errorf("%w: button %q has no label", hxbridge.ErrInvalidConfig, id)
	}
	base := []hxbridge.ComponentOption{
		hxbridge.WithRegion(hxbridge.RegionControl),
		hxbridge.WithStyles("widgets.css"),
	}
	comp, err := hxbridge.New(id, ButtonType, ButtonState{Label: label}, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Button{Component: comp}, nil
}

func (b *Button) SetDisabled(disabled bool) {
	b.SetState(func(s *ButtonState) {
		s.Disabled = disabled
	})
}

func (b *Button) SetLabel(label string) {
	b.SetState(func(s *ButtonState) {
		s.Label = label
	})
}

func (b *Button) Markup() templ.Component {
	st := b.State()
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		disabled := ""
		if st.Disabled {
			disabled = " disabled"
		}
		_, err := fmt.Fprintf(w, `<button type="button" class="hx-button"%s>%s</button>`, disabled, templ.EscapeString(st.Label))
		return err
	})
}

// ButtonInstance counts clicks the surface forwarded.
type ButtonInstance struct {
	Clicks int
}

type ButtonBehavior struct{}

func (*ButtonBehavior) ComponentType() string {
	return ButtonType
}

func (*ButtonBehavior) CreateInstance(string, json.RawMessage, *goquery.Selection) (any, error) {
	return &ButtonInstance{}, nil
}

func (*ButtonBehavior) FindElements(inst *hxbridge.Instance) error {
	inst.Cache("button", inst.Find("button"))
	return nil
}

func (*ButtonBehavior) SetupListeners(inst *hxbridge.Instance) error {
	inst.On("click", "button", func(inst *hxbridge.Instance, ev hxbridge.Event) {
		if _, disabled := ev.Target.Attr("disabled"); disabled {
			return
		}
		instanceContext[ButtonInstance](inst).Clicks++
		_ = inst.Post(context.Background(), ActionClicked, nil)
	})
	return nil
}

func (*ButtonBehavior) OnComponentUpdate(inst *hxbridge.Instance, data json.RawMessage) error {
	var st ButtonState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode button state: %w", err)
	}
	btn := inst.Element("button")
	btn.SetText(st.Label)
	if st.Disabled {
		btn.SetAttr("disabled", "")
	} else {
		btn.RemoveAttr("disabled")
	}
	return nil
}
