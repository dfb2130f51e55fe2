package router

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/storefront/internal/errors"
	"github.com/vango-dev/storefront/pkg/metrics"
	"github.com/vango-dev/storefront/pkg/observe"
	"github.com/vango-dev/storefront/pkg/urlparam"
)

const tracerName = "storefront/router"

// History is the part of the session history the router drives.
// *dom.History satisfies it.
type History interface {
	Location() *url.URL
	PushState(state any, rawURL string) error
	OnPopState(fn func(state any)) (remove func())
}

// Option configures a Router.
type Option func(*options)

type options struct {
	baseURL string
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// WithBaseURL sets the prefix every pattern is mounted under. Trailing
// slashes are stripped.
func WithBaseURL(base string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimRight(base, "/")
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Router resolves locations against a route table and notifies
// subscribers whenever the active route is recomputed.
type Router[H any] struct {
	opts    options
	history History
	routes  []*route[H]
	active  *ActiveRoute[H]
	subject observe.Subject[*ActiveRoute[H]]
	stopPop func()
}

// New creates a router over history.
func New[H any](history History, opts ...Option) *Router[H] {
	o := options{
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Router[H]{opts: o, history: history}
}

// BaseURL returns the normalized base URL.
func (r *Router[H]) BaseURL() string {
	return r.opts.baseURL
}

// AddRoute registers handler for pattern. Registering the same pattern
// again replaces its handler and keeps its position in the table.
func (r *Router[H]) AddRoute(pattern string, handler H) error {
	compiled, err := compileRoute(r.opts.baseURL, pattern, handler)
	if err != nil {
		return errors.New("E002").
			WithMessagef("invalid route pattern %q", pattern).
			Wrap(err)
	}
	for i, existing := range r.routes {
		if existing.pattern == pattern {
			r.routes[i] = compiled
			return nil
		}
	}
	r.routes = append(r.routes, compiled)
	return nil
}

// Start resolves the current location, listens for popstate and notifies
// subscribers once. Calling Start again re-resolves without adding a
// second popstate listener.
func (r *Router[H]) Start() {
	if r.stopPop == nil {
		r.stopPop = r.history.OnPopState(func(any) {
			r.resolve(context.Background(), "popstate")
		})
	}
	r.resolve(context.Background(), "start")
}

// Stop removes the popstate listener.
func (r *Router[H]) Stop() {
	if r.stopPop != nil {
		r.stopPop()
		r.stopPop = nil
	}
}

// Navigate pushes a history entry for path, resolves it and notifies
// subscribers before returning. A malformed path is returned as an error
// and leaves history and the active route unchanged.
func (r *Router[H]) Navigate(path string, state any) error {
	ctx, span := r.opts.tracer.Start(context.Background(), "router.navigate",
		trace.WithAttributes(attribute.String("router.url", path)))
	defer span.End()

	if err := r.history.PushState(state, path); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.opts.logger.Warn("navigation rejected", "url", path, "error", err)
		return err
	}
	r.resolve(ctx, "navigate")
	span.SetStatus(codes.Ok, "")
	return nil
}

func (r *Router[H]) resolve(ctx context.Context, source string) {
	_, span := r.opts.tracer.Start(ctx, "router.resolve",
		trace.WithAttributes(attribute.String("router.source", source)))
	pathname := r.history.Location().EscapedPath()
	r.active = r.Match(pathname)
	matched := r.active != nil
	span.SetAttributes(
		attribute.String("router.path", pathname),
		attribute.Bool("router.matched", matched),
	)
	if matched {
		span.SetAttributes(attribute.String("router.pattern", r.active.Pattern))
	}
	span.End()

	r.opts.metrics.Navigation(source, matched)
	if !matched {
		r.opts.logger.Debug("no route matched", "path", pathname, "source", source)
	}
	r.subject.Notify(r.active)
}

// Match resolves path against the table without touching router state.
// Any query or fragment in path is ignored. It returns nil when nothing
// matches.
func (r *Router[H]) Match(path string) *ActiveRoute[H] {
	pathname := path
	if i := strings.IndexAny(pathname, "?#"); i >= 0 {
		pathname = pathname[:i]
	}
	for _, rt := range r.routes {
		if params, ok := rt.match(pathname); ok {
			return &ActiveRoute[H]{
				Pattern: rt.pattern,
				Handler: rt.handler,
				Params:  params,
				Path:    pathname,
			}
		}
	}
	return nil
}

// Subscribe registers fn to be called after every resolution with the new
// active route, which may be nil.
func (r *Router[H]) Subscribe(fn func(*ActiveRoute[H])) (unsubscribe func()) {
	return r.subject.Subscribe(fn)
}

// Route returns the active route or nil.
func (r *Router[H]) Route() *ActiveRoute[H] {
	return r.active
}

// Params returns the active route's params, or an empty map.
func (r *Router[H]) Params() map[string]string {
	if r.active == nil {
		return map[string]string{}
	}
	return r.active.Params
}

// Target returns the active handler, or the zero value with no route.
func (r *Router[H]) Target() H {
	if r.active == nil {
		var zero H
		return zero
	}
	return r.active.Handler
}

// Path returns the current pathname.
func (r *Router[H]) Path() string {
	return r.history.Location().EscapedPath()
}

// Query returns the query of the current location.
func (r *Router[H]) Query() urlparam.Values {
	return urlparam.FromURL(r.history.Location())
}

// Href prefixes path with the base URL.
func (r *Router[H]) Href(path string) string {
	return r.opts.baseURL + path
}

// URL returns the current pathname with patch merged into the current
// query. Keys whose patch value is nil or empty are removed.
func (r *Router[H]) URL(patch map[string]any) string {
	pathname := strings.TrimPrefix(r.Path(), r.opts.baseURL)
	return r.opts.baseURL + pathname + urlparam.Merge(r.Query(), patch).String()
}

// SetQuery navigates to URL(patch).
func (r *Router[H]) SetQuery(patch map[string]any) error {
	return r.Navigate(r.URL(patch), nil)
}
