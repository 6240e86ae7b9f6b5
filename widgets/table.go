package widgets

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/pthm/hxbridge"
)

// TableType is the component type shared by Table and TableBehavior.
const TableType = "data-table"

// ActionRowSelected is posted when a row is clicked. Data: {"index": n}.
const ActionRowSelected hxbridge.Action = "rowSelected"

// Column describes one table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// TableState is the host state of a Table.
type TableState struct {
	Columns []Column
	Rows    []hxbridge.Record
}

type tableConfig struct {
	Columns []Column `json:"columns"`
}

// Table shows records as rows. Updates send only the rows.
type Table struct {
	*hxbridge.Component[TableState]
}

// NewTable creates a table. At least one column is required and column
// keys must be unique and non-empty.
func NewTable(id string, columns []Column, opts ...hxbridge.ComponentOption) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table %q has no columns", hxbridge.ErrInvalidConfig, id)
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if c.Key == "" {
			return nil, fmt.Errorf("%w: table %q has a column without key", hxbridge.ErrInvalidConfig, id)
		}
		if _, dup := seen[c.Key]; dup {
			return nil, fmt.Errorf("%w: table %q repeats column %q", hxbridge.ErrInvalidConfig, id, c.Key)
		}
		seen[c.Key] = struct{}{}
	}

	cols := append([]Column(nil), columns...)
	base := []hxbridge.ComponentOption{
		hxbridge.WithStyles("widgets.css", "table.css"),
		hxbridge.WithScripts("table.js"),
		hxbridge.WithConfig(tableConfig{Columns: cols}),
	}
	comp, err := hxbridge.New(id, TableType, TableState{Columns: cols}, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	comp.SetPayload(func(s TableState) any {
		if s.Rows == nil {
			return []hxbridge.Record{}
		}
		return s.Rows
	})
	return &Table{Component: comp}, nil
}

// SetData replaces the rows.
func (t *Table) SetData(rows []hxbridge.Record) {
	t.SetState(func(s *TableState) {
		s.Rows = rows
	})
}

// Load fetches rows from src. A failure is reported on the table's error
// channel and returned; the current rows stay.
func (t *Table) Load(ctx context.Context, src hxbridge.DataSource, filter map[string]string) error {
	rows, err := src.List(ctx, filter)
	if err != nil {
		t.NotifyError(err, map[string]any{"filter": filter})
		return err
	}
	t.SetData(rows)
	return nil
}

// Markup renders the empty table shell. Rows arrive through updates.
func (t *Table) Markup() templ.Component {
	columns := t.State().Columns
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<table class="hx-table"><thead><tr>`); err != nil {
			return err
		}
		for _, c := range columns {
			label := c.Label
			if label == "" {
				label = c.Key
			}
			if _, err := fmt.Fprintf(w, `<th data-key="%s">%s</th>`, templ.EscapeString(c.Key), templ.EscapeString(label)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tr></thead><tbody></tbody></table><p class="hx-table-empty">No records</p>`)
		return err
	})
}
