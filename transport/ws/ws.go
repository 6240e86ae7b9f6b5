// Package ws carries hxbridge envelopes over a WebSocket connection.
//
// The host accepts, the surface dials:
//
//	// host
//	t, err := ws.Accept(w, r, codec)
//	panel := hxbridge.NewPanel(t)
//
//	// surface
//	t, err := ws.Dial(ctx, "ws://host/ws", codec)
//	surface := hxbridge.NewSurface(t)
//
// Each envelope is one WebSocket message. JSON frames travel as text
// messages, signed and sealed frames as binary.
package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/pthm/hxbridge"
	"github.com/pthm/hxbridge/lib/encoding"
)

const (
	defaultBuffer = 64
	writeTimeout  = 15 * time.Second
	pingInterval  = 20 * time.Second
	pingTimeout   = 5 * time.Second
)

type conn interface {
	Write(ctx context.Context, typ websocket.MessageType, data []byte) error
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Close(status websocket.StatusCode, reason string) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Transport is an hxbridge.Transport over one WebSocket connection.
type Transport struct {
	conn    conn
	codec   hxbridge.Codec
	msgType websocket.MessageType
	logger  *slog.Logger

	inbox chan hxbridge.Message
	out   chan []byte

	ctx        context.Context
	cancel     context.CancelFunc
	stop       chan struct{}
	writerDone chan struct{}

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ hxbridge.Transport = (*Transport)(nil)

type options struct {
	logger  *slog.Logger
	buffer  int
	origins []string
	ping    time.Duration
}

// Option configures a Transport.
type Option func(*options)

// WithLogger sets the logger used for dropped frames and connection errors.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithBuffer sets how many envelopes may wait in each direction.
func WithBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// WithOriginPatterns allows cross-origin surfaces on Accept.
func WithOriginPatterns(patterns ...string) Option {
	return func(o *options) {
		o.origins = append(o.origins, patterns...)
	}
}

// WithPingInterval changes the keepalive interval. Zero disables pings.
func WithPingInterval(d time.Duration) Option {
	return func(o *options) {
		o.ping = d
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default(), buffer: defaultBuffer, ping: pingInterval}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Accept upgrades an HTTP request and returns the host end.
func Accept(w http.ResponseWriter, r *http.Request, codec hxbridge.Codec, opts ...Option) (*Transport, error) {
	o := buildOptions(opts)
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: o.origins})
	if err != nil {
		return nil, fmt.Errorf("ws: accept: %w", err)
	}
	return newTransport(c, codec, o), nil
}

// Dial connects to a host and returns the surface end.
func Dial(ctx context.Context, url string, codec hxbridge.Codec, opts ...Option) (*Transport, error) {
	o := buildOptions(opts)
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws: dial %s: %w", url, err)
	}
	return newTransport(c, codec, o), nil
}

func newTransport(c conn, codec hxbridge.Codec, o options) *Transport {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Transport{
		conn:       c,
		codec:      codec,
		msgType:    messageType(codec),
		logger:     o.logger.With("transport", "ws"),
		inbox:      make(chan hxbridge.Message, o.buffer),
		out:        make(chan []byte, o.buffer),
		ctx:        ctx,
		cancel:     cancel,
		stop:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}

	t.wg.Add(2)
	go t.readLoop()
	go t.writeLoop()
	if p, ok := c.(pinger); ok && o.ping > 0 {
		go t.pingLoop(p, o.ping)
	}
	return t
}

func messageType(codec hxbridge.Codec) websocket.MessageType {
	if _, ok := codec.(encoding.JSONCodec); ok {
		return websocket.MessageText
	}
	return websocket.MessageBinary
}

// Send encodes msg and queues it for the writer. It never blocks.
func (t *Transport) Send(ctx context.Context, msg hxbridge.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	frame, err := hxbridge.EncodeMessage(t.codec, msg)
	if err != nil {
		return fmt.Errorf("ws: encode %s: %w", msg, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return hxbridge.ErrTransportClosed
	}
	select {
	case t.out <- frame:
		return nil
	default:
		return hxbridge.ErrMailboxFull
	}
}

// Inbox yields decoded envelopes. It closes when the connection ends.
func (t *Transport) Inbox() <-chan hxbridge.Message {
	return t.inbox
}

// Close flushes queued envelopes, shuts the connection with a normal
// closure and waits for the read and write loops to stop.
func (t *Transport) Close() error {
	if !t.markClosed() {
		t.wg.Wait()
		return nil
	}
	close(t.stop)
	<-t.writerDone
	_ = t.conn.Close(websocket.StatusNormalClosure, "closed")
	t.cancel()
	t.wg.Wait()
	return nil
}

// abort ends the connection without flushing.
func (t *Transport) abort(status websocket.StatusCode, reason string) {
	if !t.markClosed() {
		return
	}
	t.cancel()
	_ = t.conn.Close(status, reason)
}

func (t *Transport) markClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.closed = true
	return true
}

func (t *Transport) readLoop() {
	defer t.wg.Done()
	defer close(t.inbox)

	for {
		_, frame, err := t.conn.Read(t.ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && !errors.Is(err, context.Canceled) {
				t.logger.Debug("read ended", "status", status, "error", err)
			}
			t.abort(websocket.StatusNormalClosure, "peer gone")
			return
		}

		msg, err := hxbridge.DecodeMessage(t.codec, frame)
		if err != nil {
			t.logger.Warn("frame dropped", "error", err)
			continue
		}
		select {
		case t.inbox <- msg:
		case <-t.ctx.Done():
			return
		}
	}
}

func (t *Transport) writeLoop() {
	defer t.wg.Done()
	defer close(t.writerDone)
	for {
		select {
		case frame := <-t.out:
			if !t.write(frame) {
				return
			}
		case <-t.stop:
			for {
				select {
				case frame := <-t.out:
					if !t.write(frame) {
						return
					}
				default:
					return
				}
			}
		case <-t.ctx.Done():
			return
		}
	}
}

func (t *Transport) write(frame []byte) bool {
	ctx, cancel := context.WithTimeout(t.ctx, writeTimeout)
	defer cancel()
	if err := t.conn.Write(ctx, t.msgType, frame); err != nil {
		t.logger.Debug("write failed", "error", err)
		t.abort(websocket.StatusInternalError, "write failed")
		return false
	}
	return true
}

func (t *Transport) pingLoop(p pinger, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(t.ctx, pingTimeout)
			_ = p.Ping(ctx)
			cancel()
		}
	}
}
