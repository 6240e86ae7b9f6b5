// Package hxbridge keeps UI components in step across two isolated
// execution contexts: a host that owns state and a surface that renders
// it. The two sides share no memory and speak only through envelopes.
//
// # Core Concepts
//
// Host components embed *Component[S] where S is the state type. Every
// mutation goes through SetState, which notifies listeners; nothing is
// diffed or skipped.
//
//	type Table struct {
//	    *hxbridge.Component[TableState]
//	}
//
//	table.SetState(func(s *TableState) { s.Rows = rows })
//
// The surface pairs each component type with a Behavior. A Behavior must
// implement OnComponentUpdate; the remaining hooks are optional interfaces
// detected at registration:
//   - InstanceCreator builds per-instance context
//   - ElementFinder caches element references
//   - ListenerBinder attaches input handlers
//   - CustomActionHandler handles setData and custom actions
//   - ErrorRenderer shows component errors
//   - InstanceCleaner releases what the others acquired
//
// Registering a Behavior without OnComponentUpdate fails with
// ErrContractViolation, so a missing update path is caught at startup.
//
// # Envelopes
//
// Every exchange is a Message: a command, a component id, an action and a
// JSON payload. Component ids are unique within a Panel; the surface
// Registry keeps one table per component type and routes by id.
//
//	{component-event, "t1", componentUpdate, [{"a":1},{"a":2}]}
//	{user-action, "src", selectionChanged, {"value":"b"}}
//
// Delivery is fire-and-forget. Envelopes for ids with no live instance,
// and actions nobody handles, are logged and dropped.
//
// # Panels and Surfaces
//
// A Panel owns components on the host, forwards their notifications with
// a Bridge and runs action handlers:
//
//	panel := hxbridge.NewPanel(transport)
//	panel.Add(table, picker)
//	panel.On("src", "selectionChanged", handler)
//	hxbridge.Render(w, r, panel.Document())
//
// A Surface loads the composed document, creates one instance per
// component root and applies envelopes:
//
//	surface := hxbridge.NewSurface(transport)
//	surface.Add(widgets.Behaviors()...)
//	surface.Load(ctx, body)
//	go surface.Run(ctx)
//
// When the surface reports it is ready the Panel re-sends every
// component's state, so a reloaded surface never stays stale. Disposing a
// Panel sends a dispose envelope per component before closing the
// transport.
//
// # Transports
//
// NewPipe connects both sides in memory. The transport/ws and
// transport/natsbus packages carry envelopes over WebSocket and NATS using
// a Codec from lib/encoding: plain JSON, HMAC-signed msgpack, or AES-GCM
// sealed msgpack.
//
// # Testing
//
// Harness wires a Panel and a Surface over a pipe and runs them in
// lockstep; Recorder captures what one side sends.
package hxbridge
