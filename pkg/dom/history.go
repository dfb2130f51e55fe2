package dom

import (
	"net/url"

	"github.com/vango-dev/storefront/internal/errors"
)

type historyEntry struct {
	url   *url.URL
	state any
}

type popListener struct {
	id int
	fn func(state any)
}

// History is a session history stack. PushState and ReplaceState never
// notify; Back, Forward and Go fire popstate listeners synchronously.
type History struct {
	entries   []historyEntry
	index     int
	listeners []popListener
	nextID    int
}

// NewHistory creates a history whose only entry is start.
func NewHistory(start *url.URL) *History {
	u := *start
	return &History{entries: []historyEntry{{url: &u}}}
}

// Location returns a copy of the current URL.
func (h *History) Location() *url.URL {
	u := *h.entries[h.index].url
	return &u
}

// State returns the state of the current entry.
func (h *History) State() any {
	return h.entries[h.index].state
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// resolve parses rawURL relative to the current location. Cross-origin
// URLs are rejected.
func (h *History) resolve(rawURL string) (*url.URL, error) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.New("E002").Wrap(err)
	}
	current := h.entries[h.index].url
	next := current.ResolveReference(ref)
	if next.Host != current.Host || next.Scheme != current.Scheme {
		return nil, errors.New("E002").WithMessagef("cross-origin navigation to %q", rawURL)
	}
	next.Fragment = ""
	return next, nil
}

// PushState adds an entry after the current one, discarding forward entries.
func (h *History) PushState(state any, rawURL string) error {
	next, err := h.resolve(rawURL)
	if err != nil {
		return err
	}
	h.entries = append(h.entries[:h.index+1], historyEntry{url: next, state: state})
	h.index++
	return nil
}

// ReplaceState replaces the current entry.
func (h *History) ReplaceState(state any, rawURL string) error {
	next, err := h.resolve(rawURL)
	if err != nil {
		return err
	}
	h.entries[h.index] = historyEntry{url: next, state: state}
	return nil
}

// Back moves one entry back. It reports false when already at the start.
func (h *History) Back() bool {
	return h.Go(-1)
}

// Forward moves one entry forward.
func (h *History) Forward() bool {
	return h.Go(1)
}

// Go moves delta entries and fires popstate. Out-of-range moves and a zero
// delta do nothing.
func (h *History) Go(delta int) bool {
	target := h.index + delta
	if delta == 0 || target < 0 || target >= len(h.entries) {
		return false
	}
	h.index = target
	state := h.entries[target].state
	snapshot := append([]popListener(nil), h.listeners...)
	for _, l := range snapshot {
		l.fn(state)
	}
	return true
}

// OnPopState registers fn for back/forward navigation.
func (h *History) OnPopState(fn func(state any)) (remove func()) {
	h.nextID++
	id := h.nextID
	h.listeners = append(h.listeners, popListener{id: id, fn: fn})
	return func() {
		for i, l := range h.listeners {
			if l.id == id {
				h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
				return
			}
		}
	}
}
