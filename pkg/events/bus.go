// Package events implements delegated event handling: handlers are
// registered against a kind and a pattern, and a single document-level
// listener per kind routes each native event to every matching handler.
package events

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/storefront/pkg/dom"
	"github.com/vango-dev/storefront/pkg/metrics"
)

const tracerName = "storefront/events"

// Handler handles a delegated event. A returned error is logged and does
// not stop other handlers.
type Handler func(*Event) error

// Source is a document that accepts native listeners. *dom.Document
// satisfies it.
type Source interface {
	AddEventListener(eventType string, fn func(*dom.Event)) (remove func())
}

type registration struct {
	pattern Pattern
	handler Handler
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

// Bus is a delegated event registry. It is not safe for concurrent use.
type Bus struct {
	handlers map[Kind][]registration
	detach   []func()
	attached bool
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[Kind][]registration),
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddEvent registers handler for kind and pattern. A second registration
// for the same kind and pattern replaces the first and keeps its position.
func (b *Bus) AddEvent(kind Kind, pattern Pattern, handler Handler) {
	regs := b.handlers[kind]
	for i := range regs {
		if regs[i].pattern == pattern {
			// Copy so an in-flight dispatch keeps its snapshot.
			next := append([]registration(nil), regs...)
			next[i].handler = handler
			b.handlers[kind] = next
			return
		}
	}
	b.handlers[kind] = append(regs, registration{pattern: pattern, handler: handler})
}

// On is AddEvent with the textual pattern form.
func (b *Bus) On(kind Kind, pattern string, handler Handler) {
	b.AddEvent(kind, ParsePattern(pattern), handler)
}

// Len returns the number of handlers registered for kind.
func (b *Bus) Len(kind Kind) int {
	return len(b.handlers[kind])
}

// Attach installs one listener per kind on src. Only the first call has an
// effect.
func (b *Bus) Attach(src Source) {
	if b.attached {
		return
	}
	b.attached = true
	for _, kind := range Kinds {
		b.detach = append(b.detach, src.AddEventListener(kind.String(), func(native *dom.Event) {
			b.Dispatch(FromDOM(kind, native))
		}))
	}
}

// Detach removes the listeners installed by Attach.
func (b *Bus) Detach() {
	for _, remove := range b.detach {
		remove()
	}
	b.detach = nil
	b.attached = false
}

// Dispatch runs every handler registered for e.Kind whose pattern matches,
// in registration order, against a snapshot of the registrations. It
// returns the number of handlers invoked.
func (b *Bus) Dispatch(e *Event) int {
	regs := b.handlers[e.Kind]
	if len(regs) == 0 {
		return 0
	}

	_, span := b.tracer.Start(context.Background(), "events.dispatch",
		trace.WithAttributes(attribute.String("event.kind", e.Kind.String())))
	defer span.End()

	b.metrics.Event(e.Kind.String())

	invoked, failed := 0, 0
	for _, reg := range regs {
		ev, ok := b.match(reg.pattern, e)
		if !ok {
			continue
		}
		invoked++
		if err := b.run(reg, ev); err != nil {
			failed++
			span.RecordError(err, trace.WithAttributes(attribute.String("event.pattern", reg.pattern.String())))
			b.metrics.HandlerError(e.Kind.String())
			b.logger.Error("event handler failed",
				"kind", e.Kind.String(),
				"pattern", reg.pattern.String(),
				"error", err)
		}
	}

	span.SetAttributes(attribute.Int("event.handlers", invoked))
	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d handler(s) failed", failed))
	}
	return invoked
}

func (b *Bus) match(p Pattern, e *Event) (*Event, bool) {
	if p.IsKey() {
		if e.Kind != KeyDown || e.Key != p.Value() {
			return nil, false
		}
		ev := *e
		ev.Matched = nil
		return &ev, true
	}
	if e.Target == nil {
		return nil, false
	}
	if !dom.ValidSelector(p.Value()) {
		b.logger.Warn("invalid event selector", "kind", e.Kind.String(), "selector", p.Value())
		return nil, false
	}
	matched, ok := e.Target.Closest(p.Value())
	if !ok {
		return nil, false
	}
	ev := *e
	ev.Matched = matched
	return &ev, true
}

// run invokes one handler, converting a panic into an error.
func (b *Bus) run(reg registration, e *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return reg.handler(e)
}
