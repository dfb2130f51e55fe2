// Package toast defines the feedback notifications shown by the UI store.
//
// A toast is a short message with a type that controls its styling. The UI
// store holds at most one at a time and dismisses it after a duration:
//
//	ui.ShowToast(toast.TypeSuccess, "Added to cart", 0)
//	ui.ShowErrorToast("") // uses DefaultMessage(toast.TypeError)
package toast

import "fmt"

// Type represents the toast notification type.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeInfo    Type = "info"
)

// Toast is a single notification.
type Toast struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	switch t {
	case TypeSuccess, TypeError, TypeInfo:
		return true
	}
	return false
}

// ParseType maps a string to a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("toast: unknown type %q", s)
	}
	return t, nil
}

// DefaultMessage is the text shown when a toast is requested without one.
func DefaultMessage(t Type) string {
	switch t {
	case TypeSuccess:
		return "Success"
	case TypeError:
		return "Something went wrong"
	default:
		return "For your information"
	}
}

// Icon returns the glyph rendered next to the message.
func (t Type) Icon() string {
	switch t {
	case TypeSuccess:
		return "✓"
	case TypeError:
		return "✕"
	default:
		return "i"
	}
}
