package app

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/storefront/pkg/metrics"
	"github.com/vango-dev/storefront/pkg/observe"
	"github.com/vango-dev/storefront/pkg/render"
	"github.com/vango-dev/storefront/pkg/urlparam"
)

const tracerName = "storefront/app"

// Root is the container whose markup is replaced on every render.
// *dom.Element satisfies it.
type Root interface {
	SetInnerHTML(markup string) error
}

// Routes is the router state the renderer reads. *router.Router[Component]
// satisfies it.
type Routes interface {
	Route() *Route
	Query() urlparam.Values
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithRendererLogger sets the logger.
func WithRendererLogger(logger *slog.Logger) RendererOption {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithRendererMetrics sets the metrics collector.
func WithRendererMetrics(m *metrics.Metrics) RendererOption {
	return func(r *Renderer) {
		r.metrics = m
	}
}

// Renderer re-renders the active route's component into a root.
type Renderer struct {
	root     Root
	routes   Routes
	registry *Registry
	html     *render.Renderer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	active    Component
	activeCtx *Context
	cleanup   func()
	instance  uint64
	mounted   bool
	onRender  observe.Subject[string]
}

// NewRenderer creates a renderer. Nothing renders until Render is called.
func NewRenderer(root Root, routes Routes, registry *Registry, opts ...RendererOption) *Renderer {
	r := &Renderer{
		root:     root,
		routes:   routes,
		registry: registry,
		html:     render.NewRenderer(render.RendererConfig{}),
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Observe re-renders r every time subscribe's notifier fires. It returns
// the unsubscribe function.
func Observe[T any](r *Renderer, subscribe func(fn func(T)) (unsubscribe func())) (unsubscribe func()) {
	return subscribe(func(T) { r.Render() })
}

// OnRender registers fn to receive the markup of every render.
func (r *Renderer) OnRender(fn func(markup string)) (unsubscribe func()) {
	return r.onRender.Subscribe(fn)
}

// ActiveID returns the mounted component's ID, or "".
func (r *Renderer) ActiveID() string {
	if !r.mounted {
		return ""
	}
	return r.active.ID
}

// Context returns the mounted instance's latest context, or nil.
func (r *Renderer) Context() *Context {
	return r.activeCtx
}

func (r *Renderer) isCurrent(instance uint64) bool {
	return r.mounted && instance == r.instance
}

// Render renders the active route's component. With no active route the
// root is left untouched and the mounted component stays mounted.
func (r *Renderer) Render() {
	route := r.routes.Route()
	if route == nil {
		r.logger.Debug("no active route, root left untouched")
		return
	}
	comp := route.Handler
	if comp.Render == nil {
		r.logger.Warn("route has no component", "pattern", route.Pattern)
		return
	}
	lc, _ := r.registry.Lookup(comp.ID)

	next := &Context{
		Route:    route,
		Query:    r.routes.Query(),
		Params:   maps.Clone(route.Params),
		renderer: r,
	}

	if r.mounted && comp.ID == r.active.ID {
		prev := r.activeCtx
		next.State = prev.State
		next.instance = r.instance
		r.active = comp
		r.activeCtx = next
		r.write(comp, next, "update")
		if lc.Updated != nil {
			lc.Updated(prev.with(next.State), next)
		}
		return
	}

	r.unmount()

	r.instance++
	instance := r.instance
	next.State = State{}
	next.instance = instance
	r.active = comp
	r.activeCtx = next
	r.mounted = true

	r.write(comp, next, "mount")

	if lc.Mounted == nil {
		return
	}
	cleanup := lc.Mounted(next)
	if cleanup == nil {
		return
	}
	if r.isCurrent(instance) {
		r.cleanup = cleanup
		return
	}
	// Mounted navigated away before returning; this instance is gone.
	cleanup()
}

// unmount tears down the mounted instance, if any.
func (r *Renderer) unmount() {
	if !r.mounted {
		return
	}
	prevID, prevCtx, cleanup := r.active.ID, r.activeCtx, r.cleanup
	r.mounted = false
	r.cleanup = nil
	r.activeCtx = nil

	if cleanup != nil {
		cleanup()
	}
	if lc, ok := r.registry.Lookup(prevID); ok && lc.Unmounted != nil {
		lc.Unmounted(prevCtx)
	}
}

// Unmount tears down the mounted component without rendering another.
func (r *Renderer) Unmount() {
	r.unmount()
}

func (r *Renderer) updateState(from *Context, fn func(State) State) {
	if !r.isCurrent(from.instance) {
		r.metrics.StaleUpdate()
		r.logger.Debug("dropped state update from unmounted component", "instance", from.instance)
		return
	}
	comp := r.active
	lc, _ := r.registry.Lookup(comp.ID)

	current := r.activeCtx
	prevState := current.State
	nextState := fn(maps.Clone(prevState))
	if nextState == nil {
		nextState = State{}
	}

	next := current.with(nextState)
	r.activeCtx = next
	from.State = nextState

	r.write(comp, next, "state")
	if lc.Updated != nil {
		lc.Updated(current.with(prevState), next)
	}
}

// write renders comp and replaces the root markup.
func (r *Renderer) write(comp Component, ctx *Context, kind string) {
	_, span := r.tracer.Start(context.Background(), "app.render", trace.WithAttributes(
		attribute.String("component.id", comp.ID),
		attribute.String("render.kind", kind),
	))
	defer span.End()

	start := time.Now()
	markup, err := r.html.RenderToString(comp.Render(ctx))
	if err == nil {
		err = r.root.SetInnerHTML(markup)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("render failed", "component", comp.ID, "kind", kind, "error", err)
		return
	}
	r.metrics.ObserveRender(comp.ID, kind, time.Since(start))
	r.onRender.Notify(markup)
}
