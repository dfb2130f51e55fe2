package events

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/storefront/pkg/dom"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeTarget is a Target whose ancestry is a list of selector sets.
type fakeTarget struct {
	name      string
	selectors map[string]bool
	parent    *fakeTarget
}

func (f *fakeTarget) Closest(selector string) (Target, bool) {
	for n := f; n != nil; n = n.parent {
		if n.selectors[selector] {
			return n, true
		}
	}
	return nil, false
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		in    string
		isKey bool
		value string
	}{
		{"key:Enter", true, "Enter"},
		{"key:Escape", true, "Escape"},
		{".add-to-cart-btn", false, ".add-to-cart-btn"},
		{"a[data-link]", false, "a[data-link]"},
	}
	for _, tt := range tests {
		p := ParsePattern(tt.in)
		if p.IsKey() != tt.isKey || p.Value() != tt.value {
			t.Errorf("ParsePattern(%q) = %+v", tt.in, p)
		}
		if p.String() != tt.in {
			t.Errorf("String() = %q, want %q", p.String(), tt.in)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("scroll"); ok {
		t.Error("ParseKind(scroll) should fail")
	}
}

func TestDispatchSelectorMatchesAncestry(t *testing.T) {
	b := NewBus(WithLogger(quietLogger))

	card := &fakeTarget{name: "card", selectors: map[string]bool{".product-card": true}}
	icon := &fakeTarget{name: "icon", parent: card}

	var matched string
	b.On(Click, ".product-card", func(e *Event) error {
		matched = e.Matched.(*fakeTarget).name
		return nil
	})
	b.On(Click, ".other", func(*Event) error {
		t.Error("unrelated handler invoked")
		return nil
	})

	if n := b.Dispatch(&Event{Kind: Click, Target: icon}); n != 1 {
		t.Errorf("invoked = %d, want 1", n)
	}
	if matched != "card" {
		t.Errorf("matched = %q, want card", matched)
	}
}

func TestDispatchKeyPatterns(t *testing.T) {
	b := NewBus(WithLogger(quietLogger))

	var got []string
	b.On(KeyDown, "key:Escape", func(*Event) error { got = append(got, "escape"); return nil })
	b.On(KeyDown, "key:Enter", func(*Event) error { got = append(got, "enter"); return nil })
	b.On(Click, "key:Enter", func(*Event) error { got = append(got, "click"); return nil })

	b.Dispatch(&Event{Kind: KeyDown, Key: "Enter"})
	b.Dispatch(&Event{Kind: Click, Key: "Enter", Target: &fakeTarget{}})

	if diff := cmp.Diff([]string{"enter"}, got); diff != "" {
		t.Errorf("handlers mismatch (-want +got):\n%s", diff)
	}
}

func TestLastRegistrationWinsInPlace(t *testing.T) {
	b := NewBus()
	target := &fakeTarget{selectors: map[string]bool{".a": true, ".b": true}}

	var got []string
	b.On(Click, ".a", func(*Event) error { got = append(got, "a1"); return nil })
	b.On(Click, ".b", func(*Event) error { got = append(got, "b"); return nil })
	b.On(Click, ".a", func(*Event) error { got = append(got, "a2"); return nil })

	b.Dispatch(&Event{Kind: Click, Target: target})

	if diff := cmp.Diff([]string{"a2", "b"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if b.Len(Click) != 2 {
		t.Errorf("Len = %d, want 2", b.Len(Click))
	}
}

func TestHandlerIsolation(t *testing.T) {
	var logs strings.Builder
	b := NewBus(WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	target := &fakeTarget{selectors: map[string]bool{"button": true}}

	calls := 0
	b.On(Click, "button", func(*Event) error { calls++; return errors.New("boom") })
	b.On(Click, "#x, button", func(*Event) error { calls++; panic("kaboom") })
	target.selectors["#x, button"] = true
	b.On(Click, "button:not(.x)", func(*Event) error { calls++; return nil })
	target.selectors["button:not(.x)"] = true

	if n := b.Dispatch(&Event{Kind: Click, Target: target}); n != 3 {
		t.Errorf("invoked = %d, want 3", n)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	out := logs.String()
	if !strings.Contains(out, "boom") || !strings.Contains(out, "kaboom") {
		t.Errorf("expected both failures logged, got:\n%s", out)
	}
}

func TestInvalidSelectorNeverMatches(t *testing.T) {
	b := NewBus(WithLogger(quietLogger))
	target := &fakeTarget{selectors: map[string]bool{"[[": true}}

	b.On(Click, "[[", func(*Event) error {
		t.Error("invalid selector matched")
		return nil
	})
	if n := b.Dispatch(&Event{Kind: Click, Target: target}); n != 0 {
		t.Errorf("invoked = %d, want 0", n)
	}
}

func TestRegistrationDuringDispatch(t *testing.T) {
	b := NewBus()
	target := &fakeTarget{selectors: map[string]bool{".a": true, ".b": true}}

	calls := 0
	b.On(Click, ".a", func(*Event) error {
		b.On(Click, ".b", func(*Event) error { calls++; return nil })
		return nil
	})

	if n := b.Dispatch(&Event{Kind: Click, Target: target}); n != 1 {
		t.Errorf("first dispatch invoked = %d, want 1", n)
	}
	if n := b.Dispatch(&Event{Kind: Click, Target: target}); n != 2 {
		t.Errorf("second dispatch invoked = %d, want 2", n)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func newDoc(t *testing.T, body string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseDocument("<html><body>" + body + "</body></html>")
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	return doc
}

func TestAttachDelegatesFromDocument(t *testing.T) {
	doc := newDoc(t, `
		<div class="product-card" data-product-id="p1"><img class="product-image"></div>
		<select id="sort-select"><option value="price_asc">a</option><option value="name_asc">b</option></select>
		<input id="search-input" value="">
	`)

	b := NewBus(WithLogger(quietLogger))
	b.Attach(doc)
	b.Attach(doc)
	if got := doc.ListenerCount("click"); got != 1 {
		t.Fatalf("click listeners = %d, want 1", got)
	}

	var productID, sort, search string
	b.On(Click, ".product-card", func(e *Event) error {
		productID = e.MatchedElement().Dataset("product-id")
		return nil
	})
	b.On(Change, "#sort-select", func(e *Event) error {
		sort = e.Value
		return nil
	})
	b.On(KeyDown, "key:Enter", func(e *Event) error {
		if e.Element().Matches("#search-input") {
			search = e.Element().Value()
		}
		return nil
	})

	if err := doc.Click(".product-image"); err != nil {
		t.Fatal(err)
	}
	if err := doc.Change("#sort-select", "name_asc"); err != nil {
		t.Fatal(err)
	}
	if err := doc.Input("#search-input", "shoe"); err != nil {
		t.Fatal(err)
	}
	if err := doc.KeyDown("#search-input", "Enter"); err != nil {
		t.Fatal(err)
	}

	if productID != "p1" || sort != "name_asc" || search != "shoe" {
		t.Errorf("productID=%q sort=%q search=%q", productID, sort, search)
	}

	b.Detach()
	if got := doc.ListenerCount("click"); got != 0 {
		t.Errorf("click listeners after Detach = %d, want 0", got)
	}
}

func TestAncestorAndWildcardFireOncePerClick(t *testing.T) {
	doc := newDoc(t, `<button id="cart-icon-btn"><span class="cart-count">2</span></button>`)

	b := NewBus(WithLogger(quietLogger))
	b.Attach(doc)
	defer b.Detach()

	var icon, wildcard []string
	b.On(Click, "#cart-icon-btn", func(e *Event) error {
		icon = append(icon, e.MatchedElement().Tag())
		return nil
	})
	b.On(Click, "*", func(e *Event) error {
		wildcard = append(wildcard, e.MatchedElement().Tag())
		return nil
	})

	if err := doc.Click(".cart-count"); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"button"}, icon); diff != "" {
		t.Errorf("#cart-icon-btn matches (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"span"}, wildcard); diff != "" {
		t.Errorf("wildcard matches (-want +got):\n%s", diff)
	}
}
