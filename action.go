package hxbridge

// Action discriminates what a component-addressed envelope asks for.
// It travels as a plain string; Kind classifies it into the closed set
// the dispatcher understands.
type Action string

// Known actions.
const (
	// ActionComponentUpdate is reserved. It always reaches the Behavior's
	// OnComponentUpdate hook.
	ActionComponentUpdate Action = "componentUpdate"

	// ActionSetData replaces a component's data set without a full state
	// update. Routed to HandleCustomAction.
	ActionSetData Action = "setData"

	// ActionDispose tears down a single instance.
	ActionDispose Action = "dispose"

	// ActionError carries an ErrorPayload for the addressed instance.
	ActionError Action = "componentError"
)

// ActionKind is the closed classification of an Action.
type ActionKind uint8

const (
	// KindCustom is the fallback for every action the framework does not
	// reserve, including names added after this build.
	KindCustom ActionKind = iota
	KindUpdate
	KindSetData
	KindDispose
	KindError
)

// Kind classifies the action.
func (a Action) Kind() ActionKind {
	switch a {
	case ActionComponentUpdate:
		return KindUpdate
	case ActionSetData:
		return KindSetData
	case ActionDispose:
		return KindDispose
	case ActionError:
		return KindError
	default:
		return KindCustom
	}
}

// IsReserved reports whether the framework handles the action itself.
func (a Action) IsReserved() bool {
	return a.Kind() != KindCustom
}

func (k ActionKind) String() string {
	switch k {
	case KindUpdate:
		return "update"
	case KindSetData:
		return "setData"
	case KindDispose:
		return "dispose"
	case KindError:
		return "error"
	default:
		return "custom"
	}
}
