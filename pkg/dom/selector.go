package dom

import (
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/golang/groupcache/lru"
	"golang.org/x/net/html"

	"github.com/vango-dev/storefront/internal/errors"
)

// SelectorCacheSize bounds the compiled selector cache. Selectors come from
// live clients as well as the app, so the least recently used are evicted.
const SelectorCacheSize = 512

var selectors = struct {
	mu    sync.Mutex
	cache *lru.Cache
}{cache: lru.New(SelectorCacheSize)}

// compile returns the compiled form of a selector group, reusing recent
// compilations.
func compile(selector string) (cascadia.Selector, error) {
	selectors.mu.Lock()
	cached, ok := selectors.cache.Get(selector)
	selectors.mu.Unlock()
	if ok {
		return cached.(cascadia.Selector), nil
	}

	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, errors.New("E003").WithMessagef("invalid selector %q", selector).Wrap(err)
	}

	selectors.mu.Lock()
	selectors.cache.Add(selector, sel)
	selectors.mu.Unlock()
	return sel, nil
}

func cachedSelectors() int {
	selectors.mu.Lock()
	defer selectors.mu.Unlock()
	return selectors.cache.Len()
}

// ValidSelector reports whether selector compiles.
func ValidSelector(selector string) bool {
	_, err := compile(selector)
	return err == nil
}

// queryFirst walks the descendants of n (excluding n) in document order.
func queryFirst(n *html.Node, sel cascadia.Selector) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && sel.Match(c) {
			return c
		}
		if found := queryFirst(c, sel); found != nil {
			return found
		}
	}
	return nil
}

func queryAll(n *html.Node, sel cascadia.Selector, out []*html.Node) []*html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && sel.Match(c) {
			out = append(out, c)
		}
		out = queryAll(c, sel, out)
	}
	return out
}

func mustCompile(selector string) cascadia.Selector {
	sel, err := compile(selector)
	if err != nil {
		panic(err)
	}
	return sel
}
