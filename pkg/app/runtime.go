package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/storefront/internal/errors"
	"github.com/vango-dev/storefront/pkg/dom"
	"github.com/vango-dev/storefront/pkg/events"
	"github.com/vango-dev/storefront/pkg/loop"
	"github.com/vango-dev/storefront/pkg/metrics"
	"github.com/vango-dev/storefront/pkg/router"
	"github.com/vango-dev/storefront/pkg/storage"
	"github.com/vango-dev/storefront/pkg/store"
)

// DefaultRootID is the id of the root container.
const DefaultRootID = "root"

// Options configures a Runtime.
type Options struct {
	// URL is the initial location. Default: http://localhost/.
	URL string

	// RootID is the root container id. Default: DefaultRootID.
	RootID string

	// BaseURL is the prefix all routes live under.
	BaseURL string

	// Storage backs the cart record. Default: in-memory.
	Storage storage.KV

	// CartKey overrides the cart record key.
	CartKey string

	// ToastDuration is the default toast duration.
	ToastDuration time.Duration

	// Scheduler runs timers and deferred work. Required.
	Scheduler loop.Scheduler

	// CartOptions are appended to the cart store's options.
	CartOptions []store.CartOption

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Runtime is one running storefront page: everything that would be global
// in a browser application, constructed once and passed explicitly.
type Runtime struct {
	Window    *dom.Window
	Router    *router.Router[Component]
	Bus       *events.Bus
	Cart      *store.CartStore
	UI        *store.UiStore
	Registry  *Registry
	Renderer  *Renderer
	Scheduler loop.Scheduler
	Logger    *slog.Logger
	Metrics   *metrics.Metrics

	root    *dom.Element
	stops   []func()
	started bool
}

// NewRuntime builds a runtime. Routes and event handlers are added by the
// caller before Start.
func NewRuntime(ctx context.Context, opts Options) (*Runtime, error) {
	if opts.Scheduler == nil {
		return nil, errors.New("E006").WithDetail("runtime requires a scheduler")
	}
	if opts.URL == "" {
		opts.URL = "http://localhost/"
	}
	if opts.RootID == "" {
		opts.RootID = DefaultRootID
	}
	if opts.Storage == nil {
		opts.Storage = storage.NewMemory()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	win, err := dom.NewWindow(opts.URL, opts.RootID)
	if err != nil {
		return nil, err
	}
	root := win.Document.GetElementByID(opts.RootID)
	if root == nil {
		return nil, errors.New("E004").WithMessagef("root element #%s not found", opts.RootID)
	}

	rt := &Runtime{
		Window:    win,
		root:      root,
		Registry:  NewRegistry(),
		Scheduler: opts.Scheduler,
		Logger:    opts.Logger,
		Metrics:   opts.Metrics,
	}
	rt.Router = router.New[Component](win.History,
		router.WithBaseURL(opts.BaseURL),
		router.WithLogger(opts.Logger),
		router.WithMetrics(opts.Metrics),
	)
	rt.Bus = events.NewBus(events.WithLogger(opts.Logger), events.WithMetrics(opts.Metrics))

	cartOpts := []store.CartOption{
		store.WithStorage(opts.Storage),
		store.WithCartLogger(opts.Logger),
		store.WithCartMetrics(opts.Metrics),
	}
	if opts.CartKey != "" {
		cartOpts = append(cartOpts, store.WithCartKey(opts.CartKey))
	}
	rt.Cart = store.NewCart(ctx, append(cartOpts, opts.CartOptions...)...)
	rt.UI = store.NewUI(opts.Scheduler,
		store.WithToastDuration(opts.ToastDuration),
		store.WithUiLogger(opts.Logger),
		store.WithUiMetrics(opts.Metrics),
	)
	rt.Renderer = NewRenderer(root, rt.Router, rt.Registry,
		WithRendererLogger(opts.Logger),
		WithRendererMetrics(opts.Metrics),
	)
	return rt, nil
}

// Root returns the root container.
func (rt *Runtime) Root() *dom.Element {
	return rt.root
}

// AddRoute registers a component for pattern.
func (rt *Runtime) AddRoute(pattern string, c Component) error {
	return rt.Router.AddRoute(pattern, c)
}

// Start attaches the event bus to the document, subscribes the renderer
// to the router and both stores, and starts the router, which performs the
// first render. Calling Start again has no effect.
func (rt *Runtime) Start() {
	if rt.started {
		return
	}
	rt.started = true
	rt.Bus.Attach(rt.Window.Document)
	rt.stops = append(rt.stops,
		Observe(rt.Renderer, rt.Router.Subscribe),
		Observe(rt.Renderer, rt.UI.Subscribe),
		Observe(rt.Renderer, rt.Cart.Subscribe),
	)
	rt.Router.Start()
}

// Stop detaches everything Start attached and unmounts the active
// component.
func (rt *Runtime) Stop() {
	if !rt.started {
		return
	}
	rt.started = false
	for _, stop := range rt.stops {
		stop()
	}
	rt.stops = nil
	rt.Router.Stop()
	rt.Bus.Detach()
	rt.Renderer.Unmount()
}

// Navigate navigates to a path under the base URL.
func (rt *Runtime) Navigate(path string) error {
	return rt.Router.Navigate(rt.Router.Href(path), nil)
}
