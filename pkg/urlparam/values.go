package urlparam

import (
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

type pair struct {
	key   string
	value string
}

// Values is an insertion-ordered query mapping with one value per key.
// The zero value is an empty query.
type Values struct {
	pairs []pair
}

// Parse parses a raw query string, with or without the leading "?".
// Malformed escapes are kept verbatim; repeated keys keep the last value at
// the position of the first.
func Parse(rawQuery string) Values {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	var v Values
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		key = unescape(key)
		if key == "" {
			continue
		}
		v.Set(key, unescape(value))
	}
	return v
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

// FromURL returns the query of u.
func FromURL(u *url.URL) Values {
	if u == nil {
		return Values{}
	}
	return Parse(u.RawQuery)
}

// Get returns the value for key, or "".
func (v Values) Get(key string) string {
	s, _ := v.Lookup(key)
	return s
}

// Lookup returns the value for key and whether it is present.
func (v Values) Lookup(key string) (string, bool) {
	for _, p := range v.pairs {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (v Values) Has(key string) bool {
	_, ok := v.Lookup(key)
	return ok
}

// Set sets key, keeping its position if it already exists.
func (v *Values) Set(key, value string) {
	for i, p := range v.pairs {
		if p.key == key {
			v.pairs[i].value = value
			return
		}
	}
	v.pairs = append(v.pairs, pair{key: key, value: value})
}

// Del removes key.
func (v *Values) Del(key string) {
	for i, p := range v.pairs {
		if p.key == key {
			v.pairs = append(v.pairs[:i:i], v.pairs[i+1:]...)
			return
		}
	}
}

// Len returns the number of keys.
func (v Values) Len() int {
	return len(v.pairs)
}

// Keys returns the keys in order.
func (v Values) Keys() []string {
	keys := make([]string, len(v.pairs))
	for i, p := range v.pairs {
		keys[i] = p.key
	}
	return keys
}

// Map returns the values as a plain map.
func (v Values) Map() map[string]string {
	m := make(map[string]string, len(v.pairs))
	for _, p := range v.pairs {
		m[p.key] = p.value
	}
	return m
}

// Clone returns an independent copy.
func (v Values) Clone() Values {
	return Values{pairs: append([]pair(nil), v.pairs...)}
}

// Equal reports whether both queries hold the same keys and values,
// regardless of order.
func (v Values) Equal(other Values) bool {
	if len(v.pairs) != len(other.pairs) {
		return false
	}
	for _, p := range v.pairs {
		if s, ok := other.Lookup(p.key); !ok || s != p.value {
			return false
		}
	}
	return true
}

// Encode returns the query string without "?", keys in order.
func (v Values) Encode() string {
	var b strings.Builder
	for i, p := range v.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

// String returns Encode with a leading "?" when non-empty.
func (v Values) String() string {
	if len(v.pairs) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// Merge applies patch to current and returns the result. Existing keys keep
// their position, new keys are appended in sorted order, and keys whose new
// value is nil or converts to "" are removed.
func Merge(current Values, patch map[string]any) Values {
	next := current.Clone()

	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		s, ok := toString(patch[k])
		if !ok || s == "" {
			next.Del(k)
			continue
		}
		next.Set(k, s)
	}
	return next
}

// toString converts a patch value. It reports false for nil and values cast
// cannot represent.
func toString(value any) (string, bool) {
	if value == nil {
		return "", false
	}
	if p, ok := value.(*string); ok {
		if p == nil {
			return "", false
		}
		return *p, true
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return "", false
	}
	return s, true
}
