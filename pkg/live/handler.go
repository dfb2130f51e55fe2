package live

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/storefront/internal/errors"
	"github.com/vango-dev/storefront/pkg/app"
	"github.com/vango-dev/storefront/pkg/dom"
	"github.com/vango-dev/storefront/pkg/events"
	"github.com/vango-dev/storefront/pkg/loop"
	"github.com/vango-dev/storefront/pkg/metrics"
	"github.com/vango-dev/storefront/pkg/routepath"
	"github.com/vango-dev/storefront/pkg/storage"
)

// Request describes the session a Factory builds a runtime for.
type Request struct {
	// SessionID identifies the session. A reconnecting client that sends
	// its previous id gets the same one back.
	SessionID string

	// URL is the absolute URL of the page the client is on.
	URL string

	// Scheduler is the session's loop.
	Scheduler loop.Scheduler

	// Storage is the configured store namespaced to the session, or nil.
	Storage storage.KV
}

// Factory builds the runtime for a session. It runs on the session's loop.
// stop is called on the loop when the connection ends.
type Factory func(ctx context.Context, req Request) (rt *app.Runtime, stop func(), err error)

// Defaults.
const (
	DefaultPongWait     = 60 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	DefaultReadLimit    = 64 << 10
	sendBuffer          = 16
)

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics records live session counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithStorage gives every session a prefixed view of kv.
func WithStorage(kv storage.KV) Option {
	return func(h *Handler) { h.storage = kv }
}

// WithCheckOrigin overrides the upgrader's origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Handler) { h.upgrader.CheckOrigin = fn }
}

// WithTimeouts sets how long a connection may stay silent before it is
// dropped and how long a single write may take.
func WithTimeouts(pongWait, write time.Duration) Option {
	return func(h *Handler) {
		if pongWait > 0 {
			h.pongWait = pongWait
		}
		if write > 0 {
			h.writeTimeout = write
		}
	}
}

// Handler serves live sessions.
type Handler struct {
	factory      Factory
	upgrader     websocket.Upgrader
	logger       *slog.Logger
	metrics      *metrics.Metrics
	storage      storage.KV
	pongWait     time.Duration
	writeTimeout time.Duration
	active       atomic.Int64

	mu       sync.Mutex
	closed   bool
	sessions map[*session]struct{}
	wg       sync.WaitGroup
}

// NewHandler creates a handler that builds session runtimes with factory.
func NewHandler(factory Factory, opts ...Option) *Handler {
	h := &Handler{
		factory: factory,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger:       slog.Default(),
		pongWait:     DefaultPongWait,
		writeTimeout: DefaultWriteTimeout,
		sessions:     make(map[*session]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Active returns the number of open sessions.
func (h *Handler) Active() int {
	return int(h.active.Load())
}

// SessionID returns raw when it is a valid UUID, or a new one.
func SessionID(raw string) string {
	if id, err := uuid.Parse(raw); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// ServeHTTP upgrades the request and runs the session until the
// connection closes. The query carries the page path in "path" and an
// optional previous session id in "session".
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := SessionID(q.Get("session"))
	path, err := routepath.NavPath(q.Get("path"))
	if err != nil {
		path = "/"
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	h.serve(conn, id, "http://"+r.Host+path)
}

// Shutdown refuses new sessions and closes open ones, waiting for them to
// stop until ctx is done. Connections still open then are dropped.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	for s := range h.sessions {
		s.cancel()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		h.mu.Lock()
		for s := range h.sessions {
			s.conn.Close()
		}
		h.mu.Unlock()
		<-done
		return ctx.Err()
	}
}

type session struct {
	h      *Handler
	id     string
	conn   *websocket.Conn
	loop   *loop.Loop
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	out    chan []byte

	rt   *app.Runtime
	stop func()
}

func (h *Handler) serve(conn *websocket.Conn, id, pageURL string) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := h.logger.With("session", id)
	s := &session{
		h:      h,
		id:     id,
		conn:   conn,
		loop:   loop.New(loop.WithLogger(logger)),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		out:    make(chan []byte, sendBuffer),
	}
	go s.loop.Run(context.Background())
	defer s.loop.Close()

	h.mu.Lock()
	h.sessions[s] = struct{}{}
	if h.closed {
		cancel()
	}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.sessions, s)
		h.mu.Unlock()
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump()
	}()
	defer func() {
		cancel()
		<-writerDone
	}()

	var startErr error
	if err := s.loop.Call(ctx, func() { startErr = s.start(pageURL) }); err != nil {
		startErr = err
	}
	if startErr != nil {
		logger.Error("live session failed to start", "error", startErr)
		s.send(errorFrame(startErr.Error()))
		s.drain()
		return
	}

	h.active.Add(1)
	h.metrics.LiveSessionOpened()
	logger.Info("live session opened", "url", pageURL)

	s.readPump()

	if err := s.loop.Call(context.Background(), s.stop); err != nil {
		logger.Warn("live session stop failed", "error", err)
	}
	h.active.Add(-1)
	h.metrics.LiveSessionClosed()
	logger.Info("live session closed")
}

// start builds and starts the runtime. It runs on the loop.
func (s *session) start(pageURL string) error {
	var kv storage.KV
	if s.h.storage != nil {
		kv = storage.NewPrefixed(s.h.storage, "session/"+s.id+"/")
	}
	rt, stop, err := s.h.factory(s.ctx, Request{
		SessionID: s.id,
		URL:       pageURL,
		Scheduler: s.loop,
		Storage:   kv,
	})
	if err != nil {
		return err
	}
	s.rt = rt
	s.send(sessionFrame(s.id))
	unsubscribe := rt.Renderer.OnRender(func(markup string) {
		s.send(renderFrame(rt.Router.Path(), markup))
	})
	s.stop = func() {
		unsubscribe()
		if stop != nil {
			stop()
		}
	}
	rt.Start()
	return nil
}

// send queues a frame for the writer. It gives up once the connection is
// gone.
func (s *session) send(frame []byte) {
	select {
	case s.out <- frame:
	case <-s.ctx.Done():
	}
}

// drain waits briefly for queued frames to be written.
func (s *session) drain() {
	deadline := time.Now().Add(s.h.writeTimeout)
	for len(s.out) > 0 && time.Now().Before(deadline) && s.ctx.Err() == nil {
		time.Sleep(5 * time.Millisecond)
	}
}

func (s *session) writePump() {
	ping := time.NewTicker(s.h.pongWait * 9 / 10)
	defer ping.Stop()
	for {
		select {
		case <-s.ctx.Done():
			s.conn.SetWriteDeadline(time.Now().Add(s.h.writeTimeout))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(s.h.writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Warn("live write failed", "error", err)
				s.cancel()
				s.conn.Close()
				return
			}
		case <-ping.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.h.writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.cancel()
				s.conn.Close()
				return
			}
		}
	}
}

func (s *session) readPump() {
	s.conn.SetReadLimit(DefaultReadLimit)
	s.conn.SetReadDeadline(time.Now().Add(s.h.pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.h.pongWait))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Warn("live read error", "error", err)
			}
			return
		}
		if s.ctx.Err() != nil {
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(s.h.pongWait))

		in, err := DecodeInbound(msg)
		if err != nil {
			s.logger.Warn("bad live frame", "error", err)
			s.send(errorFrame(err.Error()))
			continue
		}
		s.loop.Dispatch(func() { s.apply(in) })
	}
}

// apply runs one client frame against the runtime. It runs on the loop.
func (s *session) apply(in Inbound) {
	var err error
	switch in.Type {
	case FrameEvent:
		err = s.dispatchEvent(in)
	case FrameNavigate:
		err = s.rt.Router.Navigate(in.URL, nil)
	case FrameBack:
		s.rt.Window.History.Back()
	case FrameForward:
		s.rt.Window.History.Forward()
	}
	if err != nil {
		s.logger.Debug("live frame failed", "type", in.Type, "error", err)
		s.send(errorFrame(err.Error()))
	}
}

func (s *session) dispatchEvent(in Inbound) error {
	doc := s.rt.Window.Document
	switch in.Kind {
	case events.Click:
		return doc.Click(in.Target)
	case events.Change:
		return doc.Change(in.Target, in.Value)
	case events.Input:
		return doc.Input(in.Target, in.Value)
	case events.KeyDown:
		return doc.KeyDown(in.Target, in.Key)
	default:
		el, err := doc.QuerySelector(in.Target)
		if err != nil {
			return err
		}
		if el == nil {
			return errors.New("E004").WithMessagef("no element matches %q", in.Target)
		}
		doc.DispatchEvent(&dom.Event{Type: in.Kind.String(), Target: el})
		return nil
	}
}
