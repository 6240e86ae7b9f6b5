package hxbridge

import (
	"context"
	"sync"
)

// Transport moves envelopes one way out and one way in. Implementations
// preserve order per direction and never block on Send: an envelope that
// cannot be delivered is dropped and reported with ErrTransportClosed or
// ErrMailboxFull.
type Transport interface {
	// Send hands msg to the peer without waiting for it to be handled.
	Send(ctx context.Context, msg Message) error

	// Inbox yields envelopes from the peer in the order they were sent.
	// It is closed once the transport is closed from either side.
	Inbox() <-chan Message

	// Close stops both directions. Closing twice is a no-op.
	Close() error
}

// DefaultMailboxSize is the buffer of each direction of a Pipe.
const DefaultMailboxSize = 256

// mailbox is a single-direction FIFO.
type mailbox struct {
	mu     sync.Mutex
	ch     chan Message
	closed bool
}

func newMailbox(size int) *mailbox {
	if size <= 0 {
		size = DefaultMailboxSize
	}
	return &mailbox{ch: make(chan Message, size)}
}

func (m *mailbox) put(msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrTransportClosed
	}
	// Non-blocking send; a stalled reader must not stall the sender.
	select {
	case m.ch <- msg:
		return nil
	default:
		return ErrMailboxFull
	}
}

func (m *mailbox) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.ch)
	}
}

// pipeEnd is one side of an in-memory Pipe.
type pipeEnd struct {
	in  *mailbox
	out *mailbox
}

// NewPipe returns two connected in-memory transports, one for the host
// and one for the surface. Each direction buffers size envelopes
// (DefaultMailboxSize when size <= 0).
func NewPipe(size int) (host, surface Transport) {
	toSurface := newMailbox(size)
	toHost := newMailbox(size)
	return &pipeEnd{in: toHost, out: toSurface}, &pipeEnd{in: toSurface, out: toHost}
}

func (p *pipeEnd) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.out.put(msg)
}

func (p *pipeEnd) Inbox() <-chan Message {
	return p.in.ch
}

// Close closes both directions; envelopes already buffered stay readable.
func (p *pipeEnd) Close() error {
	p.out.close()
	p.in.close()
	return nil
}
