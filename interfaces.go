package hxbridge

import (
	"encoding/json"

	"github.com/PuerkitoBio/goquery"
)

// Behavior is the surface-side controller for one component type. Both
// methods are mandatory; everything else is an optional hook interface
// detected at registration.
//
// OnComponentUpdate receives every componentUpdate envelope addressed to
// one of the type's instances, with the payload exactly as the host sent
// it:
//
//	func (b *TableBehavior) OnComponentUpdate(inst *hxbridge.Instance, data json.RawMessage) error {
//	    var rows []Row
//	    if err := json.Unmarshal(data, &rows); err != nil {
//	        return err
//	    }
//	    ...
//	}
//
// A type that does not implement it cannot be registered on a Surface, so
// a forgotten update case fails at startup instead of leaving the UI stale.
type Behavior interface {
	ComponentType() string
	OnComponentUpdate(inst *Instance, data json.RawMessage) error
}

// InstanceCreator builds the per-instance context object. Called once per
// instance, before it is registered.
type InstanceCreator interface {
	CreateInstance(id string, config json.RawMessage, root *goquery.Selection) (any, error)
}

// ElementFinder resolves and caches element references with Instance.Cache.
type ElementFinder interface {
	FindElements(inst *Instance) error
}

// ListenerBinder attaches input handlers with Instance.On. Bindings are
// kept on the instance and removed on disposal.
type ListenerBinder interface {
	SetupListeners(inst *Instance) error
}

// CustomActionHandler handles every action that is not componentUpdate,
// dispose or componentError. Without it those envelopes are logged and
// dropped.
type CustomActionHandler interface {
	HandleCustomAction(inst *Instance, msg Message) error
}

// ErrorRenderer displays a component-error envelope. Without it the
// instance root gets a data-error attribute.
type ErrorRenderer interface {
	OnComponentError(inst *Instance, payload ErrorPayload)
}

// InstanceCleaner releases whatever SetupListeners or CreateInstance
// acquired beyond the instance's own bindings.
type InstanceCleaner interface {
	CleanupInstance(inst *Instance)
}
