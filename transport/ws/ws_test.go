package ws_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/hxbridge"
	"github.com/pthm/hxbridge/transport/ws"
)

// connect returns a host end accepted by a test server and the surface
// end dialled to it.
func connect(t *testing.T, codec hxbridge.Codec) (host, surface *ws.Transport) {
	t.Helper()
	accepted := make(chan *ws.Transport, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tr, err := ws.Accept(w, r, codec, ws.WithPingInterval(0))
		if err != nil {
			t.Errorf("Accept() error = %v", err)
			return
		}
		accepted <- tr
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	surface, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), codec, ws.WithPingInterval(0))
	require.NoError(t, err)

	select {
	case host = <-accepted:
	case <-ctx.Done():
		t.Fatal("server never accepted")
	}
	t.Cleanup(func() {
		_ = surface.Close()
		_ = host.Close()
	})
	return host, surface
}

func receive(t *testing.T, tr hxbridge.Transport) hxbridge.Message {
	t.Helper()
	select {
	case msg, ok := <-tr.Inbox():
		require.True(t, ok, "inbox closed")
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("no envelope")
		return hxbridge.Message{}
	}
}

func TestRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	for _, mode := range []string{"json", "signed", "sealed"} {
		t.Run(mode, func(t *testing.T) {
			codec, err := hxbridge.NewCodec(mode, key)
			require.NoError(t, err)
			host, surface := connect(t, codec)
			ctx := context.Background()

			update, err := hxbridge.NewMessage(hxbridge.CommandComponentEvent, "t1", hxbridge.ActionComponentUpdate, []map[string]int{{"a": 1}, {"a": 2}})
			require.NoError(t, err)
			require.NoError(t, host.Send(ctx, update))

			got := receive(t, surface)
			assert.Equal(t, update.Command, got.Command)
			assert.Equal(t, "t1", got.ComponentID)
			assert.JSONEq(t, `[{"a":1},{"a":2}]`, string(got.Data))

			require.NoError(t, surface.Send(ctx, hxbridge.Message{Command: hxbridge.CommandSurfaceReady}))
			assert.Equal(t, hxbridge.CommandSurfaceReady, receive(t, host).Command)
		})
	}
}

func TestOrderPreserved(t *testing.T) {
	codec, err := hxbridge.NewCodec("json", nil)
	require.NoError(t, err)
	host, surface := connect(t, codec)
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		require.NoError(t, host.Send(ctx, hxbridge.Message{Command: hxbridge.CommandComponentEvent, ComponentID: id, Action: hxbridge.ActionComponentUpdate}))
	}
	for _, id := range ids {
		assert.Equal(t, id, receive(t, surface).ComponentID)
	}
}

func TestCloseFlushesAndPropagates(t *testing.T) {
	codec, err := hxbridge.NewCodec("json", nil)
	require.NoError(t, err)
	host, surface := connect(t, codec)
	ctx := context.Background()

	require.NoError(t, host.Send(ctx, hxbridge.Message{Command: hxbridge.CommandComponentEvent, ComponentID: "t1", Action: hxbridge.ActionDispose}))
	require.NoError(t, host.Send(ctx, hxbridge.Message{Command: hxbridge.CommandPanelDispose}))
	require.NoError(t, host.Close())

	assert.Equal(t, hxbridge.ActionDispose, receive(t, surface).Action)
	assert.Equal(t, hxbridge.CommandPanelDispose, receive(t, surface).Command)

	select {
	case _, ok := <-surface.Inbox():
		assert.False(t, ok, "surface inbox should close after the host leaves")
	case <-time.After(5 * time.Second):
		t.Fatal("surface inbox never closed")
	}

	err = host.Send(ctx, hxbridge.Message{Command: hxbridge.CommandNotice})
	assert.ErrorIs(t, err, hxbridge.ErrTransportClosed)
}

func TestMismatchedCodecDropsFrames(t *testing.T) {
	signed, err := hxbridge.NewCodec("signed", []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	other, err := hxbridge.NewCodec("signed", []byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)

	accepted := make(chan *ws.Transport, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tr, err := ws.Accept(w, r, signed, ws.WithPingInterval(0))
		if err == nil {
			accepted <- tr
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	surface, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), other, ws.WithPingInterval(0))
	require.NoError(t, err)
	defer surface.Close()
	host := <-accepted
	defer host.Close()

	require.NoError(t, host.Send(ctx, hxbridge.Message{Command: hxbridge.CommandNotice}))
	select {
	case msg := <-surface.Inbox():
		t.Fatalf("forged frame accepted: %s", msg)
	case <-time.After(200 * time.Millisecond):
	}
}
