package hxbridge

// LifecycleState is the position of an Instance in its lifecycle:
//
//	Uninitialized -> Created -> Bound -> Listening -> Active -> Disposed
//
// Only Active instances accept envelopes and events.
type LifecycleState uint8

const (
	StateUninitialized LifecycleState = iota
	StateCreated
	StateBound
	StateListening
	StateActive
	StateDisposed
)

func (s LifecycleState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCreated:
		return "created"
	case StateBound:
		return "bound"
	case StateListening:
		return "listening"
	case StateActive:
		return "active"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}
