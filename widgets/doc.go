// Package widgets provides ready-made component pairs: a host-side
// Component that owns state and a surface-side Behavior that renders it.
//
//	table, err := widgets.NewTable("imports", []widgets.Column{
//	    {Key: "name", Label: "Name"},
//	    {Key: "status", Label: "Status"},
//	})
//
//	surface.Add(widgets.Behaviors()...)
package widgets

import "github.com/pthm/hxbridge"

// Behaviors returns one Behavior per widget kind, ready for Surface.Add.
func Behaviors() []any {
	return []any{
		&TableBehavior{},
		&SelectorBehavior{},
		&ButtonBehavior{},
	}
}

// instanceContext returns the typed per-instance context, or nil.
func instanceContext[T any](inst *hxbridge.Instance) *T {
	v, _ := inst.Context.(*T)
	return v
}
