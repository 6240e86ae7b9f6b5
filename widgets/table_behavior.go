package widgets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/pthm/hxbridge"
)

// TableInstance is the per-instance context of a table on the surface.
type TableInstance struct {
	Columns []Column
	Rows    int
}

// TableBehavior renders Table rows on the surface.
type TableBehavior struct{}

var (
	_ hxbridge.Behavior            = (*TableBehavior)(nil)
	_ hxbridge.InstanceCreator     = (*TableBehavior)(nil)
	_ hxbridge.ElementFinder       = (*TableBehavior)(nil)
	_ hxbridge.ListenerBinder      = (*TableBehavior)(nil)
	_ hxbridge.CustomActionHandler = (*TableBehavior)(nil)
	_ hxbridge.InstanceCleaner     = (*TableBehavior)(nil)
)

func (*TableBehavior) ComponentType() string {
	return TableType
}

func (*TableBehavior) CreateInstance(id string, config json.RawMessage, root *goquery.Selection) (any, error) {
	var cfg tableConfig
	if len(config) > 0 {
		if err := json.Unmarshal(config, &cfg); err != nil {
			return nil, fmt.Errorf("table config: %w", err)
		}
	}
	if len(cfg.Columns) == 0 {
		// Fall back to the header the host rendered.
		root.Find("thead th[data-key]").Each(func(_ int, th *goquery.Selection) {
			key, _ := th.Attr("data-key")
			cfg.Columns = append(cfg.Columns, Column{Key: key, Label: th.Text()})
		})
	}
	return &TableInstance{Columns: cfg.Columns}, nil
}

func (*TableBehavior) FindElements(inst *hxbridge.Instance) error {
	body := inst.Find("tbody")
	if body.Length() == 0 {
		return errors.New("table markup has no tbody")
	}
	inst.Cache("body", body)
	inst.Cache("empty", inst.Find(".hx-table-empty"))
	return nil
}

func (*TableBehavior) SetupListeners(inst *hxbridge.Instance) error {
	inst.On("click", "tr[data-row]", func(inst *hxbridge.Instance, ev hxbridge.Event) {
		idx, err := strconv.Atoi(ev.Target.AttrOr("data-row", ""))
		if err != nil {
			return
		}
		_ = inst.Post(context.Background(), ActionRowSelected, map[string]int{"index": idx})
	})
	return nil
}

func (*TableBehavior) OnComponentUpdate(inst *hxbridge.Instance, data json.RawMessage) error {
	return renderRows(inst, data)
}

// HandleCustomAction accepts setData with the same payload as an update.
func (*TableBehavior) HandleCustomAction(inst *hxbridge.Instance, msg hxbridge.Message) error {
	if msg.Action != hxbridge.ActionSetData {
		return fmt.Errorf("%w: %q", hxbridge.ErrUnhandledAction, msg.Action)
	}
	return renderRows(inst, msg.Data)
}

func (*TableBehavior) CleanupInstance(inst *hxbridge.Instance) {
	if ti := instanceContext[TableInstance](inst); ti != nil {
		ti.Rows = 0
	}
}

func renderRows(inst *hxbridge.Instance, data json.RawMessage) error {
	ti := instanceContext[TableInstance](inst)
	if ti == nil {
		return errors.New("table instance has no context")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return fmt.Errorf("decode rows: %w", err)
	}

	var sb strings.Builder
	for i, row := range rows {
		fmt.Fprintf(&sb, `<tr data-row="%d">`, i)
		for _, c := range ti.Columns {
			sb.WriteString("<td>")
			sb.WriteString(templ.EscapeString(cell(row[c.Key])))
			sb.WriteString("</td>")
		}
		sb.WriteString("</tr>")
	}

	inst.Element("body").SetHtml(sb.String())
	empty := inst.Element("empty")
	if len(rows) == 0 {
		empty.RemoveAttr("hidden")
	} else {
		empty.SetAttr("hidden", "")
	}
	ti.Rows = len(rows)
	return nil
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
