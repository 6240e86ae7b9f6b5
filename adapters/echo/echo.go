// Package hxbridgeecho serves hxbridge panels from an Echo application.
//
// Mount a panel server onto an Echo instance or group:
//
//	e := echo.New()
//	srv := hxbridgeecho.Mount(e, setup, codec)
//
// Or mount on a group with middleware:
//
//	g := e.Group("/app", authMiddleware)
//	srv := hxbridgeecho.MountGroup(g, setup, codec)
//
// Panel documents, manifests, WebSocket endpoints and metrics are all
// served under the mount path.
package hxbridgeecho

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/pthm/hxbridge"
	"github.com/pthm/hxbridge/internal/server"
)

// Option configures Mount and MountGroup.
type Option func(*options)

type options struct {
	path    string
	logger  *slog.Logger
	server  []server.Option
}

// WithPath sets the URL prefix for panel routes. Defaults to "/hx/".
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithLogger sets the logger used by the panel server.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithServerOptions passes options through to the panel server.
func WithServerOptions(opts ...server.Option) Option {
	return func(o *options) {
		o.server = append(o.server, opts...)
	}
}

// Mount creates a panel server and routes the mount path to it.
//
//	e := echo.New()
//	srv := hxbridgeecho.Mount(e, setup, codec)
//
// A nil codec selects a signed codec with a random key, which is
// suitable for development only.
func Mount(e *echo.Echo, setup server.SetupFunc, codec hxbridge.Codec, opts ...Option) *server.Server {
	srv, o := newServer(setup, codec, opts)
	e.Any(o.path+"*", echo.WrapHandler(strip(o.path, srv)))
	return srv
}

// MountGroup creates a panel server on an Echo group so panels share the
// group's middleware (auth, logging, etc.).
func MountGroup(g *echo.Group, setup server.SetupFunc, codec hxbridge.Codec, opts ...Option) *server.Server {
	srv, o := newServer(setup, codec, opts)
	g.Any(o.path+"*", echo.WrapHandler(strip(o.path, srv)))
	return srv
}

func newServer(setup server.SetupFunc, codec hxbridge.Codec, opts []Option) (*server.Server, *options) {
	o := &options{path: "/hx/"}
	for _, opt := range opts {
		opt(o)
	}
	if !strings.HasSuffix(o.path, "/") {
		o.path += "/"
	}

	if codec == nil {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("hxbridgeecho: failed to generate random key: %v", err))
		}
		c, err := hxbridge.NewCodec("signed", key)
		if err != nil {
			panic(fmt.Sprintf("hxbridgeecho: %v", err))
		}
		codec = c
	}

	sopts := o.server
	if o.logger != nil {
		sopts = append([]server.Option{server.WithLogger(o.logger)}, sopts...)
	}
	return server.New(setup, codec, sopts...), o
}

// strip removes everything up to and including the mount path, so the
// server sees "/" for the mount root whether or not it sits in a group.
func strip(prefix string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := strings.Index(r.URL.Path, prefix)
		if i < 0 {
			http.NotFound(w, r)
			return
		}
		r2 := r.Clone(r.Context())
		r2.URL.Path = "/" + r.URL.Path[i+len(prefix):]
		r2.URL.RawPath = ""
		h.ServeHTTP(w, r2)
	})
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return hxbridgeecho.Render(c, page())
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}
