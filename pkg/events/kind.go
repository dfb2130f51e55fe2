package events

import (
	"fmt"
	"strings"
)

// Kind is a delegated event type.
type Kind uint8

const (
	Click Kind = iota
	Change
	Input
	KeyDown
	Submit
)

// Kinds lists every kind the bus listens for, in attach order.
var Kinds = []Kind{Click, Change, KeyDown, Input, Submit}

// String returns the native event type name.
func (k Kind) String() string {
	switch k {
	case Click:
		return "click"
	case Change:
		return "change"
	case Input:
		return "input"
	case KeyDown:
		return "keydown"
	case Submit:
		return "submit"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ParseKind maps a native event type name to a Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

const keyPrefix = "key:"

// Pattern selects which events a handler receives: either a CSS selector
// matched against the target's inclusive ancestry, or a key name matched
// against a keyboard event's key.
type Pattern struct {
	value string
	key   bool
}

// Selector returns a pattern matching targets inside an element that
// matches css.
func Selector(css string) Pattern {
	return Pattern{value: css}
}

// Key returns a pattern matching keyboard events whose key is name.
func Key(name string) Pattern {
	return Pattern{value: name, key: true}
}

// ParsePattern reads the textual form: "key:Enter" is a key pattern,
// anything else is a selector.
func ParsePattern(s string) Pattern {
	if name, ok := strings.CutPrefix(s, keyPrefix); ok {
		return Key(name)
	}
	return Selector(s)
}

// IsKey reports whether p is a key pattern.
func (p Pattern) IsKey() bool { return p.key }

// Value returns the selector or key name.
func (p Pattern) Value() string { return p.value }

func (p Pattern) String() string {
	if p.key {
		return keyPrefix + p.value
	}
	return p.value
}
