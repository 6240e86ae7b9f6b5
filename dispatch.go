package hxbridge

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnhandledAction is returned by Dispatch when a custom action reaches
// a Behavior without a CustomActionHandler. Callers log and drop it.
var ErrUnhandledAction = errors.New("hxbridge: unhandled action")

// Dispatch routes one component-addressed envelope to the hook of the
// instance it names.
//
//   - componentUpdate always reaches OnComponentUpdate.
//   - dispose cleans the instance up and removes it from reg.
//   - componentError (or a component-error command) reaches
//     OnComponentError, or marks the root with data-error.
//   - every other action reaches HandleCustomAction, or returns
//     ErrUnhandledAction.
//
// Envelopes for ids that are not registered, or whose instance is no
// longer active, return an error wrapping ErrUnknownComponent; nothing is
// invoked.
func Dispatch(ctx context.Context, tracer trace.Tracer, reg *Registry, msg Message) error {
	_, span := tracer.Start(ctx, "hxbridge.dispatch", trace.WithAttributes(
		attribute.String("hxbridge.command", string(msg.Command)),
		attribute.String("hxbridge.component_id", msg.ComponentID),
		attribute.String("hxbridge.action", string(msg.Action)),
	))
	defer span.End()

	err := dispatch(reg, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func dispatch(reg *Registry, msg Message) error {
	inst, err := reg.Resolve(msg.ComponentID)
	if err != nil {
		return err
	}
	if inst.state != StateActive {
		return fmt.Errorf("%w: %s %q is %s", ErrUnknownComponent, inst.typ, inst.id, inst.state)
	}

	kind := msg.Action.Kind()
	if msg.Command == CommandComponentError {
		kind = KindError
	}

	switch kind {
	case KindUpdate:
		return hookError(inst, "OnComponentUpdate", inst.behavior.OnComponentUpdate(inst, msg.Data))
	case KindDispose:
		disposeInstance(reg, inst)
		return nil
	case KindError:
		var payload ErrorPayload
		if err := msg.Decode(&payload); err != nil {
			return fmt.Errorf("%w: error payload for %q: %v", ErrInvalidFormat, inst.id, err)
		}
		if r, ok := inst.behavior.(ErrorRenderer); ok {
			r.OnComponentError(inst, payload)
			return nil
		}
		inst.root.SetAttr("data-error", payload.Message)
		return nil
	case KindSetData, KindCustom:
		h, ok := inst.behavior.(CustomActionHandler)
		if !ok {
			return fmt.Errorf("%w: %s %q has no handler for %q", ErrUnhandledAction, inst.typ, inst.id, msg.Action)
		}
		return hookError(inst, "HandleCustomAction", h.HandleCustomAction(inst, msg))
	default:
		return fmt.Errorf("%w: %q", ErrUnhandledAction, msg.Action)
	}
}

// disposeInstance runs Active -> Disposed.
func disposeInstance(reg *Registry, inst *Instance) {
	if inst.state == StateDisposed {
		return
	}
	if c, ok := inst.behavior.(InstanceCleaner); ok {
		c.CleanupInstance(inst)
	}
	inst.release()
	reg.Remove(inst.typ, inst.id)
}

// HookError wraps an error returned by a Behavior hook.
type HookError struct {
	Type string
	ID   string
	Hook string
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hxbridge: %s %q: %s: %v", e.Type, e.ID, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

func hookError(inst *Instance, hook string, err error) error {
	if err == nil {
		return nil
	}
	return &HookError{Type: inst.typ, ID: inst.id, Hook: hook, Err: err}
}
