package events

import "github.com/vango-dev/storefront/pkg/dom"

// Target is an event target that can search its inclusive ancestry.
type Target interface {
	// Closest returns the nearest inclusive ancestor matching selector.
	// Invalid selectors never match.
	Closest(selector string) (Target, bool)
}

// Event is the value handed to delegated handlers.
type Event struct {
	Kind Kind

	// Target is the element the event originated on.
	Target Target

	// Matched is the ancestor that satisfied the handler's selector. It is
	// nil for key patterns.
	Matched Target

	// Key is set for keyboard events.
	Key string

	// Value is the control value for change and input events.
	Value string

	// Checked is the control's checked state for change events.
	Checked bool

	// Native is the dom event when the event came through Attach.
	Native *dom.Event
}

// Element returns the originating dom element, or nil when the target is
// not a dom element.
func (e *Event) Element() *dom.Element {
	if t, ok := e.Target.(ElementTarget); ok {
		return t.Element
	}
	return nil
}

// MatchedElement returns the dom element that satisfied the handler's
// selector, or nil.
func (e *Event) MatchedElement() *dom.Element {
	if t, ok := e.Matched.(ElementTarget); ok {
		return t.Element
	}
	return nil
}

// PreventDefault forwards to the native event, if any.
func (e *Event) PreventDefault() {
	if e.Native != nil {
		e.Native.PreventDefault()
	}
}

// ElementTarget adapts a dom element to Target.
type ElementTarget struct {
	Element *dom.Element
}

// Closest implements Target.
func (t ElementTarget) Closest(selector string) (Target, bool) {
	if t.Element == nil {
		return nil, false
	}
	el := t.Element.Closest(selector)
	if el == nil {
		return nil, false
	}
	return ElementTarget{Element: el}, true
}

// FromDOM converts a native event into a bus event.
func FromDOM(kind Kind, native *dom.Event) *Event {
	e := &Event{Kind: kind, Key: native.Key, Native: native}
	if native.Target != nil {
		e.Target = ElementTarget{Element: native.Target}
		if kind == Change || kind == Input {
			e.Value = native.Target.Value()
			e.Checked = native.Target.Checked()
		}
	}
	return e
}
