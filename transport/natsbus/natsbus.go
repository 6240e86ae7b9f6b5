// Package natsbus carries hxbridge envelopes over NATS subjects, so the
// host and the surface can live in different processes behind a broker.
//
// Each panel uses two subjects:
//
//	hxbridge.<panel>.to-surface
//	hxbridge.<panel>.to-host
package natsbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/pthm/hxbridge"
)

const subjectPrefix = "hxbridge"

const defaultBuffer = 256

// Subject returns the subject envelopes for panel travel on towards dir.
func Subject(panel, dir string) string {
	return subjectPrefix + "." + panel + "." + dir
}

// Directions.
const (
	ToSurface = "to-surface"
	ToHost    = "to-host"
)

// Transport is an hxbridge.Transport over a NATS connection. The
// connection belongs to the caller; Close only unsubscribes.
type Transport struct {
	nc      *nats.Conn
	codec   hxbridge.Codec
	publish string
	logger  *slog.Logger

	sub   *nats.Subscription
	msgs  chan *nats.Msg
	inbox chan hxbridge.Message
	done  chan struct{}

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ hxbridge.Transport = (*Transport)(nil)

// Option configures a Transport.
type Option func(*options)

type options struct {
	logger *slog.Logger
	buffer int
}

// WithLogger sets the logger for dropped frames.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithBuffer sets the subscription and inbox buffer.
func WithBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// NewHost returns the host end for panel.
func NewHost(nc *nats.Conn, panel string, codec hxbridge.Codec, opts ...Option) (*Transport, error) {
	return newTransport(nc, panel, ToSurface, ToHost, codec, opts)
}

// NewSurface returns the surface end for panel.
func NewSurface(nc *nats.Conn, panel string, codec hxbridge.Codec, opts ...Option) (*Transport, error) {
	return newTransport(nc, panel, ToHost, ToSurface, codec, opts)
}

func newTransport(nc *nats.Conn, panel, out, in string, codec hxbridge.Codec, opts []Option) (*Transport, error) {
	if panel == "" || strings.ContainsAny(panel, ".*> \t") {
		return nil, fmt.Errorf("%w: invalid panel id %q", hxbridge.ErrInvalidConfig, panel)
	}
	o := options{logger: slog.Default(), buffer: defaultBuffer}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Transport{
		nc:      nc,
		codec:   codec,
		publish: Subject(panel, out),
		logger:  o.logger.With("transport", "nats", "panel_id", panel),
		msgs:    make(chan *nats.Msg, o.buffer),
		inbox:   make(chan hxbridge.Message, o.buffer),
		done:    make(chan struct{}),
	}

	sub, err := nc.ChanSubscribe(Subject(panel, in), t.msgs)
	if err != nil {
		return nil, fmt.Errorf("natsbus: subscribe: %w", err)
	}
	// Make sure the server knows about the subscription before the
	// peer's first publish can arrive.
	if err := nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("natsbus: flush: %w", err)
	}
	t.sub = sub

	t.wg.Add(1)
	go t.pump()
	return t, nil
}

// Send publishes msg. It does not wait for the peer.
func (t *Transport) Send(ctx context.Context, msg hxbridge.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return hxbridge.ErrTransportClosed
	}

	frame, err := hxbridge.EncodeMessage(t.codec, msg)
	if err != nil {
		return fmt.Errorf("natsbus: encode %s: %w", msg, err)
	}
	if err := t.nc.Publish(t.publish, frame); err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrConnectionDraining) {
			return hxbridge.ErrTransportClosed
		}
		return fmt.Errorf("natsbus: publish: %w", err)
	}
	return nil
}

// Inbox yields decoded envelopes from the peer.
func (t *Transport) Inbox() <-chan hxbridge.Message {
	return t.inbox
}

// Close flushes pending publishes, unsubscribes and closes the inbox.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	var errs []error
	if !t.nc.IsClosed() {
		errs = append(errs, t.nc.Flush())
		errs = append(errs, t.sub.Unsubscribe())
	}
	close(t.done)
	t.wg.Wait()
	return errors.Join(errs...)
}

func (t *Transport) pump() {
	defer t.wg.Done()
	defer close(t.inbox)
	for {
		select {
		case m := <-t.msgs:
			msg, err := hxbridge.DecodeMessage(t.codec, m.Data)
			if err != nil {
				t.logger.Warn("frame dropped", "subject", m.Subject, "error", err)
				continue
			}
			select {
			case t.inbox <- msg:
			case <-t.done:
				return
			}
		case <-t.done:
			return
		}
	}
}
