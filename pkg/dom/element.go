package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/storefront/internal/errors"
)

// Element is an element node of a Document.
type Element struct {
	node *html.Node
}

func wrap(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	return &Element{node: n}
}

// Node returns the underlying html node.
func (e *Element) Node() *html.Node {
	return e.node
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// ID returns the id attribute.
func (e *Element) ID() string {
	id, _ := e.Attr("id")
	return id
}

// Attr returns the value of an attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or adds an attribute.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr removes an attribute if present.
func (e *Element) RemoveAttr(name string) {
	attrs := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		attrs = append(attrs, a)
	}
	e.node.Attr = attrs
}

// HasClass reports whether the class attribute contains name.
func (e *Element) HasClass(name string) bool {
	class, _ := e.Attr("class")
	for _, c := range strings.Fields(class) {
		if c == name {
			return true
		}
	}
	return false
}

// Dataset returns a data-* attribute; Dataset("product-id") reads
// data-product-id.
func (e *Element) Dataset(key string) string {
	v, _ := e.Attr("data-" + key)
	return v
}

// Value returns the current value of a form control. For a select it is the
// value of the selected option, falling back to the first option.
func (e *Element) Value() string {
	if e.node.Data != "select" {
		v, _ := e.Attr("value")
		return v
	}
	var first *Element
	for _, opt := range e.options() {
		if first == nil {
			first = opt
		}
		if _, ok := opt.Attr("selected"); ok {
			return opt.optionValue()
		}
	}
	if first != nil {
		return first.optionValue()
	}
	return ""
}

// SetValue sets the value of a form control. For a select the matching
// option becomes the only selected one.
func (e *Element) SetValue(value string) {
	if e.node.Data != "select" {
		e.SetAttr("value", value)
		return
	}
	for _, opt := range e.options() {
		if opt.optionValue() == value {
			opt.SetAttr("selected", "")
		} else {
			opt.RemoveAttr("selected")
		}
	}
}

func (e *Element) options() []*Element {
	var out []*Element
	for _, n := range queryAll(e.node, mustCompile("option"), nil) {
		out = append(out, wrap(n))
	}
	return out
}

func (e *Element) optionValue() string {
	if v, ok := e.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(e.Text())
}

// Checked reports whether the checked attribute is present.
func (e *Element) Checked() bool {
	_, ok := e.Attr("checked")
	return ok
}

// SetChecked adds or removes the checked attribute.
func (e *Element) SetChecked(checked bool) {
	if checked {
		e.SetAttr("checked", "")
		return
	}
	e.RemoveAttr("checked")
}

// Text returns the concatenated text content.
func (e *Element) Text() string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return b.String()
}

// Parent returns the parent element, or nil at the top of the tree.
func (e *Element) Parent() *Element {
	for p := e.node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return wrap(p)
		}
	}
	return nil
}

// Matches reports whether the element matches selector. Invalid selectors
// never match.
func (e *Element) Matches(selector string) bool {
	sel, err := compile(selector)
	if err != nil {
		return false
	}
	return sel.Match(e.node)
}

// Closest returns the nearest inclusive ancestor matching selector.
func (e *Element) Closest(selector string) *Element {
	sel, err := compile(selector)
	if err != nil {
		return nil
	}
	for n := e.node; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && sel.Match(n) {
			return wrap(n)
		}
	}
	return nil
}

// QuerySelector returns the first descendant matching selector.
func (e *Element) QuerySelector(selector string) (*Element, error) {
	sel, err := compile(selector)
	if err != nil {
		return nil, err
	}
	return wrap(queryFirst(e.node, sel)), nil
}

// QuerySelectorAll returns every descendant matching selector in document
// order.
func (e *Element) QuerySelectorAll(selector string) ([]*Element, error) {
	sel, err := compile(selector)
	if err != nil {
		return nil, err
	}
	nodes := queryAll(e.node, sel, nil)
	out := make([]*Element, len(nodes))
	for i, n := range nodes {
		out[i] = wrap(n)
	}
	return out, nil
}

// SetInnerHTML replaces every child with the parsed markup.
func (e *Element) SetInnerHTML(markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), e.node)
	if err != nil {
		return errors.New("E005").Wrap(err)
	}
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		e.node.AppendChild(n)
	}
	return nil
}

// InnerHTML serializes the children.
func (e *Element) InnerHTML() string {
	var buf bytes.Buffer
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&buf, c)
	}
	return buf.String()
}

// OuterHTML serializes the element itself.
func (e *Element) OuterHTML() string {
	var buf bytes.Buffer
	html.Render(&buf, e.node)
	return buf.String()
}
