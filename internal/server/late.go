package server

import (
	"context"
	"sync"

	"github.com/pthm/hxbridge"
)

// lateTransport lets a panel exist before its surface connects. Sends
// before attach are dropped; the surface-ready resync covers them.
type lateTransport struct {
	mu      sync.Mutex
	t       hxbridge.Transport
	claimed bool
	closed  bool
}

var _ hxbridge.Transport = (*lateTransport)(nil)

// attach reports false when a transport is already attached.
func (l *lateTransport) attach(t hxbridge.Transport) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.t != nil || l.closed {
		return false
	}
	l.t = t
	return true
}

// attached reports whether a surface transport is in place.
func (l *lateTransport) attached() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t != nil
}

// claim reserves the slot for a connection that is still handshaking.
func (l *lateTransport) claim() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.claimed || l.t != nil || l.closed {
		return false
	}
	l.claimed = true
	return true
}

func (l *lateTransport) unclaim() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.claimed = false
}

func (l *lateTransport) Send(ctx context.Context, msg hxbridge.Message) error {
	l.mu.Lock()
	t, closed := l.t, l.closed
	l.mu.Unlock()
	if closed || t == nil {
		return hxbridge.ErrTransportClosed
	}
	return t.Send(ctx, msg)
}

// Inbox must only be called after attach.
func (l *lateTransport) Inbox() <-chan hxbridge.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.t == nil {
		return nil
	}
	return l.t.Inbox()
}

func (l *lateTransport) Close() error {
	l.mu.Lock()
	t := l.t
	l.closed = true
	l.mu.Unlock()
	if t == nil {
		return nil
	}
	return t.Close()
}
