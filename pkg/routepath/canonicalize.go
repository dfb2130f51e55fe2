// Package routepath canonicalizes page paths before they reach the router.
package routepath

import (
	"errors"
	"strings"
)

// Result is a canonicalized path.
type Result struct {
	// Path is the canonical path, without query.
	Path string

	// Query is the untouched query string, without "?".
	Query string

	// Changed reports whether Path differs from the input path.
	Changed bool
}

// String returns the path with its query.
func (r Result) String() string {
	if r.Query == "" {
		return r.Path
	}
	return r.Path + "?" + r.Query
}

// Path errors.
var (
	ErrInvalidPath          = errors.New("routepath: invalid path")
	ErrBackslash            = errors.New("routepath: path contains backslash")
	ErrNullByte             = errors.New("routepath: path contains null byte")
	ErrInvalidPercentEscape = errors.New("routepath: invalid percent escape")
	ErrEscapesRoot          = errors.New("routepath: path escapes root")
)

// Canonicalize collapses repeated slashes, resolves "." and ".." segments
// and drops the trailing slash of input's path. Backslashes, NUL bytes,
// malformed percent escapes and ".." above the root are rejected. The query
// is kept as is.
func Canonicalize(input string) (Result, error) {
	path, query, _ := strings.Cut(input, "?")
	if path == "" {
		return Result{Path: "/", Query: query, Changed: true}, nil
	}

	if strings.Contains(path, `\`) {
		return Result{}, ErrBackslash
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Result{}, ErrNullByte
	}
	if !validEscapes(path) {
		return Result{}, ErrInvalidPercentEscape
	}

	segments := make([]string, 0, strings.Count(path, "/"))
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) == 0 {
				return Result{}, ErrEscapesRoot
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}

	canonical := "/" + strings.Join(segments, "/")
	return Result{Path: canonical, Query: query, Changed: canonical != path}, nil
}

// NavPath validates a same-origin navigation target and returns it in
// canonical form. Absolute and protocol-relative URLs are rejected.
func NavPath(path string) (string, error) {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return "", ErrInvalidPath
	}
	r, err := Canonicalize(path)
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

func validEscapes(path string) bool {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHex(path[i+1]) || !isHex(path[i+2]) {
			return false
		}
		i += 2
	}
	return true
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
