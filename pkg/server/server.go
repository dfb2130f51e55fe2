package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/vango-dev/storefront/internal/errors"
	"github.com/vango-dev/storefront/pkg/metrics"
	"github.com/vango-dev/storefront/pkg/middleware"
	"github.com/vango-dev/storefront/pkg/routepath"
	"github.com/vango-dev/storefront/pkg/storefront"
)

// PageFunc renders the root markup for the absolute page URL. An empty
// result means no route matched.
type PageFunc func(ctx context.Context, url string) (string, error)

// LiveHandler serves live sessions and can be shut down with the server.
type LiveHandler interface {
	http.Handler
	Shutdown(ctx context.Context) error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records request metrics on m and exposes m at /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLive mounts h at /live.
func WithLive(h LiveHandler) Option {
	return func(s *Server) {
		s.live = h
	}
}

// Server is the storefront HTTP server.
type Server struct {
	config  *Config
	page    PageFunc
	logger  *slog.Logger
	metrics *metrics.Metrics
	live    LiveHandler
	router  chi.Router

	mu         sync.Mutex
	httpServer *http.Server
}

// New creates a server that renders pages with page.
func New(config *Config, page PageFunc, opts ...Option) *Server {
	s := &Server{
		config: config.Clone(),
		page:   page,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.OpenTelemetry(
		middleware.WithTracerName("storefront/server"),
		middleware.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/healthz" }),
	))
	r.Use(middleware.Prometheus(s.metrics))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	if s.live != nil {
		r.Method(http.MethodGet, "/live", s.live)
	}
	r.With(canonicalPaths).Get("/*", s.servePage)
	return r
}

// canonicalPaths redirects non-canonical page paths with 308 Permanent
// Redirect and rejects paths that cannot be canonicalized.
func canonicalPaths(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		input := r.URL.EscapedPath()
		if r.URL.RawQuery != "" {
			input += "?" + r.URL.RawQuery
		}
		result, err := routepath.Canonicalize(input)
		if err != nil {
			http.Error(w, "Invalid path", http.StatusBadRequest)
			return
		}
		if result.Changed {
			http.Redirect(w, r, result.String(), http.StatusPermanentRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.RenderTimeout)
	defer cancel()

	markup, err := s.page(ctx, pageURL(r))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, apperrors.New("E400")) {
			status = http.StatusGatewayTimeout
		}
		s.logger.Error("page render failed", "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	status := http.StatusOK
	if markup == "" {
		status = http.StatusNotFound
	}
	doc, err := storefront.Document(s.config.Title, s.config.RootID, markup)
	if err != nil {
		s.logger.Error("document render failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(doc))
}

// pageURL rebuilds the absolute URL the client requested.
func pageURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// Run starts the server and blocks until ctx is canceled, the process is
// interrupted, or listening fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) listen() (net.Listener, error) {
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	return net.Listen("tcp", s.config.Address)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	// Set up graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	// Close live sessions first; the HTTP server does not track hijacked
	// connections.
	if s.live != nil {
		if err := s.live.Shutdown(ctx); err != nil {
			s.logger.Warn("live shutdown incomplete", "error", err)
		}
	}

	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()
	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Config returns a copy of the server configuration.
func (s *Server) Config() *Config {
	return s.config.Clone()
}
