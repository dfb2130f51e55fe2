package routepath

import (
	"errors"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		input   string
		want    Result
		wantErr error
	}{
		{"/", Result{Path: "/"}, nil},
		{"", Result{Path: "/", Changed: true}, nil},
		{"product/1", Result{Path: "/product/1", Changed: true}, nil},
		{"/product//1", Result{Path: "/product/1", Changed: true}, nil},
		{"/product/./1", Result{Path: "/product/1", Changed: true}, nil},
		{"/product/9/../1", Result{Path: "/product/1", Changed: true}, nil},
		{"/product/..", Result{Path: "/", Changed: true}, nil},
		{"/product/1/", Result{Path: "/product/1", Changed: true}, nil},
		{"/?category1=Fashion&page=2", Result{Path: "/", Query: "category1=Fashion&page=2"}, nil},
		{"/product/1/?x=1", Result{Path: "/product/1", Query: "x=1", Changed: true}, nil},
		{"/?search=%GG", Result{Path: "/", Query: "search=%GG"}, nil},
		{"/product/%EC%95%84", Result{Path: "/product/%EC%95%84"}, nil},
		{`/product\1`, Result{}, ErrBackslash},
		{"/product/%00", Result{}, ErrNullByte},
		{"/product/%G1", Result{}, ErrInvalidPercentEscape},
		{"/product/%2", Result{}, ErrInvalidPercentEscape},
		{"/../secret", Result{}, ErrEscapesRoot},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Canonicalize(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Canonicalize(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNavPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"/product/1", "/product/1", true},
		{"/product//1/?tab=info", "/product/1?tab=info", true},
		{"product/1", "", false},
		{"//evil.example/", "", false},
		{"https://evil.example/", "", false},
		{"/../x", "", false},
	}
	for _, tt := range tests {
		got, err := NavPath(tt.input)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("NavPath(%q) = %q, %v", tt.input, got, err)
		}
	}
}
