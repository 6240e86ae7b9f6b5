// Package server hosts panels over HTTP. Each GET / creates a panel and
// returns its composed document; the surface then connects back over
// WebSocket, or over NATS when the server has a connection.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pthm/hxbridge"
	"github.com/pthm/hxbridge/transport/natsbus"
	"github.com/pthm/hxbridge/transport/ws"
)

// SetupFunc populates a new panel with components and handlers.
type SetupFunc func(ctx context.Context, p *hxbridge.Panel) error

// Server serves panel documents and their transports.
type Server struct {
	setup     SetupFunc
	codec     hxbridge.Codec
	nc        *nats.Conn
	logger    *slog.Logger
	panelOpts []hxbridge.Option
	origins   []string
	deadline  time.Duration

	mu       sync.Mutex
	sessions map[string]*session
	router   chi.Router
}

type session struct {
	panel     *hxbridge.Panel
	transport *lateTransport
	ctx       context.Context
	cancel    context.CancelFunc
	expiry    *time.Timer
}

// DefaultConnectTimeout is how long a panel waits for its surface.
const DefaultConnectTimeout = 30 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server and panel logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNATS routes panels over NATS instead of WebSocket.
func WithNATS(nc *nats.Conn) Option {
	return func(s *Server) {
		s.nc = nc
	}
}

// WithPanelOptions passes options to every panel the server creates.
func WithPanelOptions(opts ...hxbridge.Option) Option {
	return func(s *Server) {
		s.panelOpts = append(s.panelOpts, opts...)
	}
}

// WithOriginPatterns allows cross-origin WebSocket surfaces.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) {
		s.origins = append(s.origins, patterns...)
	}
}

// WithConnectTimeout sets how long a panel created by GET / waits for its
// surface to connect before it is disposed.
func WithConnectTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.deadline = d
		}
	}
}

// New creates a server. codec frames every envelope on the wire.
func New(setup SetupFunc, codec hxbridge.Codec, opts ...Option) *Server {
	s := &Server{
		setup:    setup,
		codec:    codec,
		logger:   slog.Default(),
		deadline: DefaultConnectTimeout,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleDocument)
	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/panels/{panel}", func(r chi.Router) {
		r.Get("/manifest", s.handleManifest)
		r.Get("/ws", s.handleWS)
		r.Delete("/", s.handleDispose)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Panels returns the number of live panels.
func (s *Server) Panels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown disposes every panel.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	var errs []error
	for _, id := range ids {
		errs = append(errs, s.dispose(ctx, id))
	}
	return errors.Join(errs...)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	lt := &lateTransport{}
	p := hxbridge.NewPanel(lt, append([]hxbridge.Option{hxbridge.WithLogger(s.logger)}, s.panelOpts...)...)
	if err := s.setup(r.Context(), p); err != nil {
		s.logger.Error("panel setup failed", "panel_id", p.ID(), "error", err)
		http.Error(w, "panel setup failed", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{panel: p, transport: lt, ctx: ctx, cancel: cancel}
	if s.nc != nil {
		t, err := natsbus.NewHost(s.nc, p.ID(), s.codec, natsbus.WithLogger(s.logger))
		if err != nil {
			cancel()
			s.logger.Error("nats transport failed", "panel_id", p.ID(), "error", err)
			http.Error(w, "transport unavailable", http.StatusServiceUnavailable)
			return
		}
		lt.attach(t)
		go s.run(p.ID(), sess)
	}

	s.mu.Lock()
	s.sessions[p.ID()] = sess
	if s.nc == nil {
		id := p.ID()
		sess.expiry = time.AfterFunc(s.deadline, func() { s.expire(id, lt) })
	}
	s.mu.Unlock()

	w.Header().Set(hxbridge.PanelHeader, p.ID())
	if err := hxbridge.Render(w, r, p.Document()); err != nil {
		s.logger.Error("render failed", "panel_id", p.ID(), "error", err)
	}
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "panel"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	_ = hxbridge.WriteManifest(w, sess.panel.Document().Manifest)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "panel")
	sess, ok := s.session(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if s.nc != nil || !sess.transport.claim() {
		http.Error(w, "panel already connected", http.StatusConflict)
		return
	}

	t, err := ws.Accept(w, r, s.codec, ws.WithLogger(s.logger), ws.WithOriginPatterns(s.origins...))
	if err != nil {
		sess.transport.unclaim()
		s.logger.Warn("websocket accept failed", "panel_id", id, "error", err)
		return
	}
	if !sess.transport.attach(t) {
		_ = t.Close()
		return
	}
	go s.run(id, sess)
}

func (s *Server) handleDispose(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "panel")
	if _, ok := s.session(id); !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.dispose(r.Context(), id); err != nil {
		s.logger.Warn("dispose failed", "panel_id", id, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// run pumps the panel until the surface goes away, then disposes it.
func (s *Server) run(id string, sess *session) {
	if err := sess.panel.Run(sess.ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("panel stopped", "panel_id", id, "error", err)
	}
	_ = s.dispose(context.Background(), id)
}

// expire disposes a panel whose surface never attached.
func (s *Server) expire(id string, lt *lateTransport) {
	if lt.attached() {
		return
	}
	s.logger.Info("panel expired before its surface connected", "panel_id", id)
	_ = s.dispose(context.Background(), id)
}

func (s *Server) dispose(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if sess.expiry != nil {
		sess.expiry.Stop()
	}
	err := sess.panel.Dispose(ctx)
	sess.cancel()
	return err
}

func (s *Server) session(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}
