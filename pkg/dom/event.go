package dom

// Event is a native event dispatched through a Document.
type Event struct {
	// Type is the event type, e.g. "click" or "keydown".
	Type string

	// Target is the element the event was dispatched on.
	Target *Element

	// Key is the key identifier for keyboard events ("Enter", "Escape").
	Key string

	defaultPrevented bool
}

// PreventDefault marks the event's default action as cancelled.
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}
