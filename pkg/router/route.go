package router

import (
	"regexp"
	"strings"
)

var paramPattern = regexp.MustCompile(`:(\w+)`)

// ActiveRoute is the result of resolving a location against the table.
type ActiveRoute[H any] struct {
	// Pattern is the registered pattern, without the base URL.
	Pattern string

	// Handler is the value registered for Pattern.
	Handler H

	// Params maps each named segment to its matched text.
	Params map[string]string

	// Path is the pathname that was resolved.
	Path string
}

// Param returns the named param or "".
func (a *ActiveRoute[H]) Param(name string) string {
	if a == nil {
		return ""
	}
	return a.Params[name]
}

type route[H any] struct {
	pattern string
	names   []string
	regex   *regexp.Regexp
	handler H
}

// compileRoute turns "/product/:id" into ^base/product/([^/]+)/?$.
// Literal text outside named segments is quoted.
func compileRoute[H any](base, pattern string, handler H) (*route[H], error) {
	var (
		names []string
		expr  strings.Builder
		last  int
	)

	trimmed := strings.TrimRight(pattern, "/")
	expr.WriteString("^")
	expr.WriteString(regexp.QuoteMeta(base))
	for _, loc := range paramPattern.FindAllStringSubmatchIndex(trimmed, -1) {
		expr.WriteString(regexp.QuoteMeta(trimmed[last:loc[0]]))
		expr.WriteString("([^/]+)")
		names = append(names, trimmed[loc[2]:loc[3]])
		last = loc[1]
	}
	expr.WriteString(regexp.QuoteMeta(trimmed[last:]))
	expr.WriteString("/?$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, err
	}
	return &route[H]{pattern: pattern, names: names, regex: re, handler: handler}, nil
}

func (r *route[H]) match(pathname string) (map[string]string, bool) {
	m := r.regex.FindStringSubmatch(pathname)
	if m == nil {
		return nil, false
	}
	params := make(map[string]string, len(r.names))
	for i, name := range r.names {
		params[name] = m[i+1]
	}
	return params, true
}
