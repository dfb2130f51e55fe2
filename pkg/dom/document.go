package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/storefront/internal/errors"
)

type eventListener struct {
	id int
	fn func(*Event)
}

// Document is a parsed HTML document with document-level event listeners.
type Document struct {
	root      *html.Node
	listeners map[string][]eventListener
	nextID    int
}

// NewDocument creates an empty page whose body holds one container element
// with the given id.
func NewDocument(rootID string) (*Document, error) {
	markup := fmt.Sprintf(`<!DOCTYPE html><html><head></head><body><div id=%q></div></body></html>`, rootID)
	return ParseDocument(markup)
}

// ParseDocument parses a complete HTML page.
func ParseDocument(markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, errors.New("E005").Wrap(err)
	}
	return &Document{
		root:      root,
		listeners: make(map[string][]eventListener),
	}, nil
}

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() *Element {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return wrap(c)
		}
	}
	return nil
}

// Body returns the <body> element.
func (d *Document) Body() *Element {
	body, _ := d.QuerySelector("body")
	return body
}

// GetElementByID returns the element with the given id, or nil.
func (d *Document) GetElementByID(id string) *Element {
	var find func(*html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				for _, a := range c.Attr {
					if a.Namespace == "" && a.Key == "id" && a.Val == id {
						return c
					}
				}
			}
			if found := find(c); found != nil {
				return found
			}
		}
		return nil
	}
	return wrap(find(d.root))
}

// QuerySelector returns the first element matching selector, or nil.
func (d *Document) QuerySelector(selector string) (*Element, error) {
	sel, err := compile(selector)
	if err != nil {
		return nil, err
	}
	return wrap(queryFirst(d.root, sel)), nil
}

// QuerySelectorAll returns all elements matching selector.
func (d *Document) QuerySelectorAll(selector string) ([]*Element, error) {
	return (&Element{node: d.root}).QuerySelectorAll(selector)
}

// AddEventListener registers fn for events of the given type and returns a
// function that removes it.
func (d *Document) AddEventListener(eventType string, fn func(*Event)) (remove func()) {
	d.nextID++
	id := d.nextID
	d.listeners[eventType] = append(d.listeners[eventType], eventListener{id: id, fn: fn})
	return func() {
		current := d.listeners[eventType]
		for i, l := range current {
			if l.id == id {
				d.listeners[eventType] = append(current[:i:i], current[i+1:]...)
				return
			}
		}
	}
}

// ListenerCount returns the number of listeners registered for eventType.
func (d *Document) ListenerCount(eventType string) int {
	return len(d.listeners[eventType])
}

// DispatchEvent delivers e to the document listeners for its type. It
// returns false if a listener called PreventDefault.
func (d *Document) DispatchEvent(e *Event) bool {
	snapshot := append([]eventListener(nil), d.listeners[e.Type]...)
	for _, l := range snapshot {
		l.fn(e)
	}
	return !e.defaultPrevented
}

// target resolves selector to an element or reports E004.
func (d *Document) target(selector string) (*Element, error) {
	el, err := d.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, errors.New("E004").WithMessagef("no element matches %q", selector)
	}
	return el, nil
}

// Click dispatches a click on the first element matching selector.
func (d *Document) Click(selector string) error {
	el, err := d.target(selector)
	if err != nil {
		return err
	}
	d.DispatchEvent(&Event{Type: "click", Target: el})
	return nil
}

// Change sets the control's value and dispatches a change event. Checkboxes
// and radios toggle instead and ignore value.
func (d *Document) Change(selector, value string) error {
	el, err := d.target(selector)
	if err != nil {
		return err
	}
	if t, _ := el.Attr("type"); el.Tag() == "input" && (t == "checkbox" || t == "radio") {
		el.SetChecked(!el.Checked())
	} else {
		el.SetValue(value)
	}
	d.DispatchEvent(&Event{Type: "change", Target: el})
	return nil
}

// Input sets the control's value and dispatches an input event.
func (d *Document) Input(selector, value string) error {
	el, err := d.target(selector)
	if err != nil {
		return err
	}
	el.SetValue(value)
	d.DispatchEvent(&Event{Type: "input", Target: el})
	return nil
}

// KeyDown dispatches a keydown with the given key on the first element
// matching selector, or on <body> when selector is empty.
func (d *Document) KeyDown(selector, key string) error {
	var el *Element
	if selector == "" {
		el = d.Body()
	} else {
		var err error
		if el, err = d.target(selector); err != nil {
			return err
		}
	}
	d.DispatchEvent(&Event{Type: "keydown", Target: el, Key: key})
	return nil
}
