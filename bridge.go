package hxbridge

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Bridge turns component notifications into envelopes on the host side of
// a Transport. Delivery is fire-and-forget: the Bridge never waits for the
// surface and never retries. An envelope the transport refuses is logged,
// counted and forgotten.
type Bridge struct {
	transport Transport
	logger    *slog.Logger
	tracer    trace.Tracer
}

var _ Listener = (*Bridge)(nil)

// NewBridge creates a bridge sending over t.
func NewBridge(t Transport, opts ...Option) *Bridge {
	o := buildOptions(opts)
	return &Bridge{
		transport: t,
		logger:    o.logger.With("side", sideHost),
		tracer:    o.tracer,
	}
}

// Attach subscribes the bridge to w and returns the detach function.
func (b *Bridge) Attach(w Widget) (detach func()) {
	return w.Subscribe(b)
}

// OnUpdate sends {component-event, id, componentUpdate, payload}.
func (b *Bridge) OnUpdate(ev UpdateEvent) {
	msg, err := NewMessage(CommandComponentEvent, ev.ComponentID, ActionComponentUpdate, ev.Payload)
	if err != nil {
		b.logger.Error("update not serializable", "component_id", ev.ComponentID, "component_type", ev.Kind, "error", err)
		return
	}
	b.send(context.Background(), msg, attribute.Int64("hxbridge.seq", int64(ev.Seq)))
}

// OnError sends {component-error, id, componentError, ErrorPayload}.
func (b *Bridge) OnError(ev ErrorEvent) {
	payload := ErrorPayload{
		Message:  ev.Err.Error(),
		Severity: ev.Severity,
		Context:  ev.Context,
	}
	msg, err := NewMessage(CommandComponentError, ev.ComponentID, ActionError, payload)
	if err != nil {
		// Context values that do not marshal are dropped rather than the error.
		payload.Context = nil
		msg, _ = NewMessage(CommandComponentError, ev.ComponentID, ActionError, payload)
	}
	b.send(context.Background(), msg)
}

// Send hands msg to the transport. Drops are reported through the return
// value for callers that care; the Bridge itself ignores them.
func (b *Bridge) Send(ctx context.Context, msg Message) error {
	return b.send(ctx, msg)
}

func (b *Bridge) send(ctx context.Context, msg Message, attrs ...attribute.KeyValue) error {
	ctx, span := b.tracer.Start(ctx, "hxbridge.send", trace.WithAttributes(append(attrs,
		attribute.String("hxbridge.command", string(msg.Command)),
		attribute.String("hxbridge.component_id", msg.ComponentID),
	)...))
	defer span.End()

	if err := b.transport.Send(ctx, msg); err != nil {
		if IsDropped(err) {
			metricEnvelopesDropped.WithLabelValues(sideHost, dropReason(err)).Inc()
			b.logger.Debug("envelope dropped", "message", msg.String(), "error", err)
		} else {
			b.logger.Warn("send failed", "message", msg.String(), "error", err)
		}
		span.RecordError(err)
		return err
	}
	metricEnvelopesSent.WithLabelValues(sideHost, string(msg.Command)).Inc()
	return nil
}
