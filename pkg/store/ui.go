package store

import (
	"log/slog"
	"time"

	"github.com/vango-dev/storefront/pkg/loop"
	"github.com/vango-dev/storefront/pkg/metrics"
	"github.com/vango-dev/storefront/pkg/observe"
	"github.com/vango-dev/storefront/pkg/toast"
)

// DefaultToastDuration is how long a toast stays up when no duration is
// given.
const DefaultToastDuration = 3 * time.Second

// UiState is a snapshot of the UI store.
type UiState struct {
	CartModalOpen bool
	Toast         *toast.Toast
}

// UiOption configures a UiStore.
type UiOption func(*UiStore)

// WithToastDuration sets the default toast duration.
func WithToastDuration(d time.Duration) UiOption {
	return func(u *UiStore) {
		if d > 0 {
			u.duration = d
		}
	}
}

// WithUiLogger sets the logger.
func WithUiLogger(logger *slog.Logger) UiOption {
	return func(u *UiStore) {
		u.logger = logger
	}
}

// WithUiMetrics sets the metrics collector.
func WithUiMetrics(m *metrics.Metrics) UiOption {
	return func(u *UiStore) {
		u.metrics = m
	}
}

// UiStore holds the cart modal flag and a single toast slot. At most one
// dismiss timer is pending at any time.
type UiStore struct {
	modalOpen bool
	toast     *toast.Toast

	sched    loop.Scheduler
	timer    loop.Timer
	seq      uint64
	duration time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	subject  observe.Subject[UiState]
}

// NewUI creates a UI store whose timers run on sched.
func NewUI(sched loop.Scheduler, opts ...UiOption) *UiStore {
	u := &UiStore{
		sched:    sched,
		duration: DefaultToastDuration,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Subscribe registers fn for every change.
func (u *UiStore) Subscribe(fn func(UiState)) (unsubscribe func()) {
	return u.subject.Subscribe(fn)
}

// State returns a snapshot.
func (u *UiStore) State() UiState {
	s := UiState{CartModalOpen: u.modalOpen}
	if u.toast != nil {
		t := *u.toast
		s.Toast = &t
	}
	return s
}

// ToastDuration returns the default toast duration.
func (u *UiStore) ToastDuration() time.Duration {
	return u.duration
}

func (u *UiStore) notify() {
	u.subject.Notify(u.State())
}

func (u *UiStore) cancelTimer() {
	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}
}

// ShowToast replaces the current toast and schedules its dismissal after d.
// A non-positive d uses the default duration; an empty message uses the
// type's default text.
func (u *UiStore) ShowToast(typ toast.Type, message string, d time.Duration) {
	if !typ.Valid() {
		u.logger.Warn("unknown toast type, using info", "type", string(typ))
		typ = toast.TypeInfo
	}
	if message == "" {
		message = toast.DefaultMessage(typ)
	}
	if d <= 0 {
		d = u.duration
	}

	u.cancelTimer()
	u.toast = &toast.Toast{Type: typ, Message: message}
	u.metrics.Toast(string(typ))

	// The sequence check drops a dismissal that was already queued on the
	// loop when a newer toast replaced this one. The timer is in place
	// before subscribers run so a toast shown from a subscriber replaces it.
	u.seq++
	seq := u.seq
	u.timer = u.sched.AfterFunc(d, func() {
		if u.seq != seq {
			return
		}
		u.timer = nil
		u.toast = nil
		u.notify()
	})
	u.notify()
}

// HideToast cancels the pending dismissal and clears the toast now.
func (u *UiStore) HideToast() {
	u.cancelTimer()
	u.seq++
	u.toast = nil
	u.notify()
}

// ShowSuccessToast shows a success toast with the default duration.
func (u *UiStore) ShowSuccessToast(message string) {
	u.ShowToast(toast.TypeSuccess, message, 0)
}

// ShowErrorToast shows an error toast with the default duration.
func (u *UiStore) ShowErrorToast(message string) {
	u.ShowToast(toast.TypeError, message, 0)
}

// ShowInfoToast shows an info toast with the default duration.
func (u *UiStore) ShowInfoToast(message string) {
	u.ShowToast(toast.TypeInfo, message, 0)
}

// OpenCartModal sets the modal flag.
func (u *UiStore) OpenCartModal() {
	u.modalOpen = true
	u.notify()
}

// CloseCartModal clears the modal flag.
func (u *UiStore) CloseCartModal() {
	u.modalOpen = false
	u.notify()
}
