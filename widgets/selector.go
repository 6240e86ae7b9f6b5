package widgets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/pthm/hxbridge"
)

// SelectorType is the component type shared by Selector and SelectorBehavior.
const SelectorType = "selector"

// ActionSelectionChanged is posted when the user picks an option.
// Data: {"value": "..."}.
const ActionSelectionChanged hxbridge.Action = "selectionChanged"

// Option is one selectable value.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SelectorState is the host state of a Selector, and its update payload.
type SelectorState struct {
	Label    string   `json:"label"`
	Options  []Option `json:"options"`
	Selected string   `json:"selected"`
}

// Selector is a single-choice drop-down.
type Selector struct {
	*hxbridge.Component[SelectorState]
}

// NewSelector creates a selector with the first option selected.
func NewSelector(id, label string, options []Option, opts ...hxbridge.ComponentOption) (*Selector, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: selector %q has no options", hxbridge.ErrInvalidConfig, id)
	}
	state := SelectorState{
		Label:    label,
		Options:  append([]Option(nil), options...),
		Selected: options[0].Value,
	}
	base := []hxbridge.ComponentOption{
		hxbridge.WithStyles("widgets.css"),
		hxbridge.WithScripts("selector.js"),
	}
	comp, err := hxbridge.New(id, SelectorType, state, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Selector{Component: comp}, nil
}

// Selected returns the selected value.
func (s *Selector) Selected() string {
	return s.State().Selected
}

// Select changes the selection. Unknown values are refused.
func (s *Selector) Select(value string) error {
	if !s.has(value) {
		return fmt.Errorf("selector %q has no option %q", s.ID(), value)
	}
	s.SetState(func(st *SelectorState) {
		st.Selected = value
	})
	return nil
}

// SetOptions replaces the options. The selection is kept when still
// offered, otherwise the first option is selected.
func (s *Selector) SetOptions(options []Option) error {
	if len(options) == 0 {
		return fmt.Errorf("%w: selector %q has no options", hxbridge.ErrInvalidConfig, s.ID())
	}
	s.SetState(func(st *SelectorState) {
		st.Options = append([]Option(nil), options...)
		for _, o := range options {
			if o.Value == st.Selected {
				return
			}
		}
		st.Selected = options[0].Value
	})
	return nil
}

// Handler returns a panel handler for ActionSelectionChanged. It records
// the selection then calls fn, which may be nil.
//
//	panel.On("src", widgets.ActionSelectionChanged, src.Handler(onSource))
func (s *Selector) Handler(fn func(ctx context.Context, value string) hxbridge.Result) hxbridge.HandlerFunc {
	return func(ctx context.Context, msg hxbridge.Message) hxbridge.Result {
		var data struct {
			Value string `json:"value"`
		}
		if err := msg.Decode(&data); err != nil {
			return hxbridge.Err(err)
		}
		if err := s.Select(data.Value); err != nil {
			return hxbridge.Err(err)
		}
		if fn == nil {
			return hxbridge.OK()
		}
		return fn(ctx, data.Value)
	}
}

func (s *Selector) has(value string) bool {
	for _, o := range s.State().Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

func (s *Selector) Markup() templ.Component {
	st := s.State()
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<label class="hx-selector"><span>%s</span><select>`, templ.EscapeString(st.Label)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, optionsHTML(st.Options, st.Selected)); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</select></label>`)
		return err
	})
}

func optionsHTML(options []Option, selected string) string {
	var sb strings.Builder
	for _, o := range options {
		label := o.Label
		if label == "" {
			label = o.Value
		}
		sb.WriteString(`<option value="`)
		sb.WriteString(templ.EscapeString(o.Value))
		sb.WriteString(`"`)
		if o.Value == selected {
			sb.WriteString(` selected`)
		}
		sb.WriteString(`>`)
		sb.WriteString(templ.EscapeString(label))
		sb.WriteString(`</option>`)
	}
	return sb.String()
}

// SelectorInstance is the per-instance context of a selector on the surface.
type SelectorInstance struct {
	Selected string
	Changes  int
}

// SelectorBehavior keeps a <select> in step with its Selector and posts
// user choices back.
type SelectorBehavior struct{}

func (*SelectorBehavior) ComponentType() string {
	return SelectorType
}

func (*SelectorBehavior) CreateInstance(id string, _ json.RawMessage, root *goquery.Selection) (any, error) {
	selected, _ := root.Find("option[selected]").First().Attr("value")
	return &SelectorInstance{Selected: selected}, nil
}

func (*SelectorBehavior) FindElements(inst *hxbridge.Instance) error {
	sel := inst.Find("select")
	if sel.Length() == 0 {
		return errors.New("selector markup has no select")
	}
	inst.Cache("select", sel)
	return nil
}

func (*SelectorBehavior) SetupListeners(inst *hxbridge.Instance) error {
	inst.On("change", "select", func(inst *hxbridge.Instance, ev hxbridge.Event) {
		var detail struct {
			Value string `json:"value"`
		}
		if err := ev.Decode(&detail); err != nil {
			return
		}
		si := instanceContext[SelectorInstance](inst)
		si.Selected = detail.Value
		si.Changes++
		markSelected(inst.Element("select"), detail.Value)
		_ = inst.Post(context.Background(), ActionSelectionChanged, map[string]string{"value": detail.Value})
	})
	return nil
}

func (*SelectorBehavior) OnComponentUpdate(inst *hxbridge.Instance, data json.RawMessage) error {
	var st SelectorState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode selector state: %w", err)
	}
	inst.Element("select").SetHtml(optionsHTML(st.Options, st.Selected))
	inst.Find("label > span").SetText(st.Label)
	if si := instanceContext[SelectorInstance](inst); si != nil {
		si.Selected = st.Selected
	}
	return nil
}

func markSelected(sel *goquery.Selection, value string) {
	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		if opt.AttrOr("value", "") == value {
			opt.SetAttr("selected", "")
		} else {
			opt.RemoveAttr("selected")
		}
	})
}
