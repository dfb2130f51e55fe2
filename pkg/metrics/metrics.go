// Package metrics collects Prometheus metrics for the storefront runtime.
//
// A nil *Metrics is valid and records nothing, so packages can take an
// optional *Metrics without nil checks at every call site.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the metrics collector.
type Config struct {
	// Namespace is the metrics namespace (default: "storefront").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: a fresh prometheus.Registry.
	Registry *prometheus.Registry
}

// Option configures the metrics collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "storefront",
		Buckets:   prometheus.DefBuckets,
	}
}

// Metrics holds the runtime's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	staleUpdates   prometheus.Counter
	navigations    *prometheus.CounterVec
	events         *prometheus.CounterVec
	handlerErrors  *prometheus.CounterVec
	cartOps        *prometheus.CounterVec
	toasts         *prometheus.CounterVec
	storageErrors  *prometheus.CounterVec
	liveSessions   prometheus.Gauge
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	factory := promauto.With(config.Registry)
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}

	return &Metrics{
		registry: config.Registry,

		renders: counter("renders_total",
			"Total number of root renders by component and kind", "component", "kind"),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Time spent rendering and replacing the root markup",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"component"}),

		staleUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stale_state_updates_total",
			Help:        "State updates dropped because their component was no longer mounted",
			ConstLabels: config.ConstLabels,
		}),

		navigations: counter("navigations_total",
			"Total number of navigations by source and outcome", "source", "matched"),

		events: counter("events_dispatched_total",
			"Total number of delegated events by kind", "kind"),

		handlerErrors: counter("event_handler_errors_total",
			"Total number of failed event handlers by kind", "kind"),

		cartOps: counter("cart_operations_total",
			"Total number of cart mutations by operation", "op"),

		toasts: counter("toasts_total",
			"Total number of toasts shown by type", "type"),

		storageErrors: counter("storage_errors_total",
			"Total number of durable storage failures by operation", "op"),

		liveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_sessions",
			Help:        "Number of connected live sessions",
			ConstLabels: config.ConstLabels,
		}),

		httpRequests: counter("http_requests_total",
			"Total number of HTTP requests by method, route and status code", "method", "route", "code"),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds by route",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRender records one render of component. kind is "mount", "update"
// or "state".
func (m *Metrics) ObserveRender(component, kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(component, kind).Inc()
	m.renderDuration.WithLabelValues(component).Observe(d.Seconds())
}

// StaleUpdate records a dropped state update.
func (m *Metrics) StaleUpdate() {
	if m != nil {
		m.staleUpdates.Inc()
	}
}

// Navigation records a route resolution. source is "start", "navigate" or
// "popstate".
func (m *Metrics) Navigation(source string, matched bool) {
	if m == nil {
		return
	}
	label := "false"
	if matched {
		label = "true"
	}
	m.navigations.WithLabelValues(source, label).Inc()
}

// Event records a dispatched delegated event.
func (m *Metrics) Event(kind string) {
	if m != nil {
		m.events.WithLabelValues(kind).Inc()
	}
}

// HandlerError records a failed event handler.
func (m *Metrics) HandlerError(kind string) {
	if m != nil {
		m.handlerErrors.WithLabelValues(kind).Inc()
	}
}

// CartOp records a cart mutation.
func (m *Metrics) CartOp(op string) {
	if m != nil {
		m.cartOps.WithLabelValues(op).Inc()
	}
}

// Toast records a toast shown.
func (m *Metrics) Toast(kind string) {
	if m != nil {
		m.toasts.WithLabelValues(kind).Inc()
	}
}

// StorageError records a durable storage failure.
func (m *Metrics) StorageError(op string) {
	if m != nil {
		m.storageErrors.WithLabelValues(op).Inc()
	}
}

// LiveSessionOpened increments the live session gauge.
func (m *Metrics) LiveSessionOpened() {
	if m != nil {
		m.liveSessions.Inc()
	}
}

// LiveSessionClosed decrements the live session gauge.
func (m *Metrics) LiveSessionClosed() {
	if m != nil {
		m.liveSessions.Dec()
	}
}

// HTTPRequest records a served request. route is the matched pattern, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) HTTPRequest(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}
