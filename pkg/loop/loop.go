package loop

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/storefront/internal/errors"
)

// Scheduler runs callbacks on the runtime's single thread.
type Scheduler interface {
	// Dispatch queues fn to run on the loop.
	Dispatch(fn func())

	// AfterFunc runs fn on the loop once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancellable deferred callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer; false means it already ran or was stopped.
	Stop() bool
}

// DefaultQueueSize is the dispatch queue capacity used when none is configured.
const DefaultQueueSize = 256

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithQueueSize sets the dispatch queue capacity.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.queueSize = n
		}
	}
}

// Loop executes dispatched callbacks one at a time on a single goroutine.
type Loop struct {
	queueSize int
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	logger    *slog.Logger
}

// New creates a loop. Callbacks only run once Run is called.
func New(opts ...Option) *Loop {
	l := &Loop{
		queueSize: DefaultQueueSize,
		done:      make(chan struct{}),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.tasks = make(chan func(), l.queueSize)
	return l
}

// Run processes callbacks until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.tasks:
			l.execute(fn)
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		}
	}
}

// execute runs one callback, recovering panics so the loop keeps going.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop callback panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Dispatch queues fn. Callbacks dispatched after Close are discarded.
//
// Dispatch blocks while the queue is full, so it must not be called from the
// loop goroutine with a saturated queue.
func (l *Loop) Dispatch(fn func()) {
	if l.closed.Load() {
		return
	}
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Call dispatches fn and waits until it has run.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	if l.closed.Load() {
		return errors.New("E006")
	}
	finished := make(chan struct{})
	l.Dispatch(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
		return nil
	case <-l.done:
		return errors.New("E006")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterFunc implements Scheduler. The wall-clock timer only dispatches the
// callback; whether it still runs is decided on the loop.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Dispatch(func() {
			if t.fired.CompareAndSwap(false, true) {
				fn()
			}
		})
	})
	return t
}

// Close stops the loop. Queued callbacks that have not started are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

type loopTimer struct {
	timer *time.Timer
	// fired is set by the first of Stop or the callback.
	fired atomic.Bool
}

func (t *loopTimer) Stop() bool {
	t.timer.Stop()
	return t.fired.CompareAndSwap(false, true)
}

var _ Scheduler = (*Loop)(nil)
