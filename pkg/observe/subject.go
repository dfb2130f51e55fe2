// Package observe provides the subscription list shared by the router, the
// stores and the renderer.
package observe

// Subject is an ordered list of subscribers. It is not safe for concurrent
// use; like everything it serves, it lives on the event loop.
type Subject[T any] struct {
	subs   []subscription[T]
	nextID uint64
}

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// Subscribe adds fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (s *Subject[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription[T]{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				// Copy so a snapshot taken by Notify is never modified.
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Notify calls every subscriber in subscription order. The list is
// snapshotted first: subscribers added or removed during the call take
// effect from the next Notify.
func (s *Subject[T]) Notify(value T) {
	snapshot := s.subs
	for _, sub := range snapshot {
		sub.fn(value)
	}
}

// Len returns the number of subscribers.
func (s *Subject[T]) Len() int {
	return len(s.subs)
}
