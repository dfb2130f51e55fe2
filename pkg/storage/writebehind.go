package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/storefront/internal/errors"
	"github.com/vango-dev/storefront/pkg/metrics"
)

// DefaultWriteTimeout bounds each flushed write.
const DefaultWriteTimeout = 10 * time.Second

type pendingOp struct {
	value  []byte
	delete bool
}

// WriteBehindOption configures a WriteBehind.
type WriteBehindOption func(*WriteBehind)

// WithWriteLogger sets the logger used for failed writes.
func WithWriteLogger(logger *slog.Logger) WriteBehindOption {
	return func(w *WriteBehind) {
		w.logger = logger
	}
}

// WithWriteMetrics sets the metrics collector for failed writes.
func WithWriteMetrics(m *metrics.Metrics) WriteBehindOption {
	return func(w *WriteBehind) {
		w.metrics = m
	}
}

// WithWriteTimeout bounds each flushed write.
func WithWriteTimeout(d time.Duration) WriteBehindOption {
	return func(w *WriteBehind) {
		w.timeout = d
	}
}

// WriteBehind queues writes to an underlying store and applies them on a
// background goroutine. Writes to the same key that are still queued are
// coalesced so only the latest value is written. Reads see queued writes
// and writes still in flight to the underlying store.
//
// Write errors are logged and counted; the caller's in-memory state stays
// authoritative.
type WriteBehind struct {
	next    KV
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	mu      sync.Mutex
	pending  map[string]pendingOp
	inflight map[string]pendingOp
	order    []string
	closed   bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewWriteBehind wraps next and starts the writer goroutine. Close must be
// called to flush and stop it.
func NewWriteBehind(next KV, opts ...WriteBehindOption) *WriteBehind {
	w := &WriteBehind{
		next:    next,
		logger:  slog.Default(),
		timeout: DefaultWriteTimeout,
		pending: make(map[string]pendingOp),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w
}

func (w *WriteBehind) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.flush()
		case <-w.stop:
			w.flush()
			return
		}
	}
}

func (w *WriteBehind) enqueue(key string, op pendingOp) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return errors.New("E201").WithDetail(key).WithMessagef("write-behind store is closed")
	}
	if _, queued := w.pending[key]; !queued {
		w.order = append(w.order, key)
	}
	w.pending[key] = op
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// flush writes everything queued so far.
func (w *WriteBehind) flush() {
	w.mu.Lock()
	batch, order := w.pending, w.order
	w.pending = make(map[string]pendingOp)
	w.inflight = batch
	w.order = nil
	w.mu.Unlock()

	for _, key := range order {
		op := batch[key]
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		var err error
		if op.delete {
			err = w.next.Delete(ctx, key)
		} else {
			err = w.next.Set(ctx, key, op.value)
		}
		cancel()

		w.mu.Lock()
		delete(w.inflight, key)
		w.mu.Unlock()

		if err != nil {
			opName := "set"
			if op.delete {
				opName = "delete"
			}
			w.metrics.StorageError(opName)
			w.logger.Error("write-behind flush failed", "key", key, "op", opName, "error", err)
		}
	}
}

// Get returns a queued or in-flight value if there is one, otherwise reads
// through.
func (w *WriteBehind) Get(ctx context.Context, key string) ([]byte, bool, error) {
	w.mu.Lock()
	op, queued := w.pending[key]
	if !queued {
		op, queued = w.inflight[key]
	}
	w.mu.Unlock()
	if queued {
		if op.delete {
			return nil, false, nil
		}
		return append([]byte(nil), op.value...), true, nil
	}
	return w.next.Get(ctx, key)
}

// Set queues a write and returns immediately. It fails with E201 after
// Close.
func (w *WriteBehind) Set(_ context.Context, key string, value []byte) error {
	return w.enqueue(key, pendingOp{value: append([]byte(nil), value...)})
}

// Delete queues a delete and returns immediately. It fails with E201 after
// Close.
func (w *WriteBehind) Delete(_ context.Context, key string) error {
	return w.enqueue(key, pendingOp{delete: true})
}

// Close flushes queued writes and stops the writer goroutine. It is safe
// to call more than once.
func (w *WriteBehind) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	<-w.done
	return nil
}
