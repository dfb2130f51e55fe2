package vdom

import (
	"strconv"
	"strings"
)

// attr creates an Attr with the given key and value.
func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Attribute returns an arbitrary attribute.
func Attribute(key string, value any) Attr { return attr(key, value) }

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
// Empty names are skipped.
func Class(classes ...string) Attr {
	parts := classes[:0:0]
	for _, c := range classes {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return attr("class", strings.Join(parts, " "))
}

// ClassIf adds class only when cond is true.
func ClassIf(cond bool, class string) Attr {
	if !cond {
		return Attr{}
	}
	return attr("class", class)
}

// StyleAttr sets the style attribute.
func StyleAttr(style string) Attr { return attr("style", style) }

// Data creates a data-* attribute.
// Example: Data("product-id", "123") → data-product-id="123"
func Data(key, value string) Attr { return attr("data-"+key, value) }

// Flag creates a valueless data-* attribute, e.g. data-link.
func Flag(key string) Attr { return attr("data-"+key, true) }

// Role sets the role attribute.
func Role(role string) Attr { return attr("role", role) }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Attr { return attr("aria-label", label) }

// AriaHidden sets the aria-hidden attribute.
func AriaHidden(hidden bool) Attr { return attr("aria-hidden", strconv.FormatBool(hidden)) }

// Links and media

func Href(url string) Attr { return attr("href", url) }
func Src(url string) Attr  { return attr("src", url) }
func Alt(text string) Attr { return attr("alt", text) }
func Rel(rel string) Attr  { return attr("rel", rel) }

// Loading sets the loading attribute ("lazy" or "eager").
func Loading(mode string) Attr { return attr("loading", mode) }

// Forms

func Type(t string) Attr          { return attr("type", t) }
func Name(name string) Attr       { return attr("name", name) }
func Value(value string) Attr     { return attr("value", value) }
func Placeholder(s string) Attr   { return attr("placeholder", s) }
func For(id string) Attr          { return attr("for", id) }
func Min(v string) Attr           { return attr("min", v) }
func Max(v string) Attr           { return attr("max", v) }
func Checked(checked bool) Attr   { return attr("checked", checked) }
func Selected(selected bool) Attr { return attr("selected", selected) }
func Disabled(disabled bool) Attr { return attr("disabled", disabled) }

// Charset sets the charset attribute of a meta element.
func Charset(cs string) Attr { return attr("charset", cs) }

// Content sets the content attribute of a meta element.
func Content(s string) Attr { return attr("content", s) }
