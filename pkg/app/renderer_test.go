package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/storefront/pkg/loop"
	"github.com/vango-dev/storefront/pkg/store"
	"github.com/vango-dev/storefront/pkg/vdom"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type harness struct {
	rt    *Runtime
	sched *loop.Manual
	log   []string
}

func (h *harness) record(format string, args ...any) {
	h.log = append(h.log, fmt.Sprintf(format, args...))
}

func (h *harness) html() string {
	return h.rt.Root().InnerHTML()
}

func newHarness(t *testing.T, url string) *harness {
	t.Helper()
	sched := loop.NewManual()
	rt, err := NewRuntime(context.Background(), Options{
		URL:       url,
		Scheduler: sched,
		Logger:    quietLogger,
	})
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	return &harness{rt: rt, sched: sched}
}

// page returns a component that renders its name, params and a counter
// from state, with a lifecycle that records every callback.
func (h *harness) page(name string) Component {
	c := Component{
		ID: name,
		Render: func(ctx *Context) *vdom.VNode {
			n, _ := Get[int](ctx.State, "n")
			return vdom.Div(vdom.ID("page"), vdom.Textf("%s:%s:%d", name, ctx.Param("id"), n))
		},
	}
	return WithLifecycle(h.rt.Registry, Lifecycle{
		Mounted: func(ctx *Context) func() {
			h.record("mounted %s", name)
			return func() { h.record("cleanup %s", name) }
		},
		Updated: func(prev, next *Context) {
			p, _ := Get[int](prev.State, "n")
			n, _ := Get[int](next.State, "n")
			h.record("updated %s %d->%d", name, p, n)
		},
		Unmounted: func(ctx *Context) {
			h.record("unmounted %s", name)
		},
	}, c)
}

func TestMountUpdateUnmount(t *testing.T) {
	h := newHarness(t, "http://localhost/")
	h.rt.AddRoute("/", h.page("home"))
	h.rt.AddRoute("/product/:id", h.page("product"))
	h.rt.Start()

	if got := h.html(); got != `<div id="page">home::0</div>` {
		t.Errorf("html = %s", got)
	}

	// A UI store change re-renders the same component.
	h.rt.UI.OpenCartModal()

	if err := h.rt.Navigate("/product/42"); err != nil {
		t.Fatal(err)
	}
	if got := h.html(); got != `<div id="page">product:42:0</div>` {
		t.Errorf("html = %s", got)
	}

	want := []string{
		"mounted home",
		"updated home 0->0",
		"cleanup home",
		"unmounted home",
		"mounted product",
	}
	if diff := cmp.Diff(want, h.log); diff != "" {
		t.Errorf("lifecycle mismatch (-want +got):\n%s", diff)
	}
}

func TestSameComponentCarriesState(t *testing.T) {
	h := newHarness(t, "http://localhost/product/1")
	h.rt.AddRoute("/product/:id", h.page("product"))
	h.rt.Start()

	h.rt.Renderer.Context().UpdateState(State{"n": 5})
	h.rt.Navigate("/product/2")

	if got := h.html(); got != `<div id="page">product:2:5</div>` {
		t.Errorf("html = %s", got)
	}
	want := []string{"mounted product", "updated product 0->5", "updated product 5->5"}
	if diff := cmp.Diff(want, h.log); diff != "" {
		t.Errorf("lifecycle mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateStateMergeAndReplace(t *testing.T) {
	h := newHarness(t, "http://localhost/")
	h.rt.AddRoute("/", h.page("home"))
	h.rt.Start()

	ctx := h.rt.Renderer.Context()
	ctx.UpdateState(State{"n": 1, "loading": true})
	ctx.UpdateState(State{"n": 2})

	state := h.rt.Renderer.Context().State
	if diff := cmp.Diff(State{"n": 2, "loading": true}, state); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}

	ctx.UpdateStateFunc(func(prev State) State {
		prev["mutated"] = true
		return State{"n": 9}
	})
	if diff := cmp.Diff(State{"n": 9}, h.rt.Renderer.Context().State); diff != "" {
		t.Errorf("state after replace mismatch (-want +got):\n%s", diff)
	}
	if got := h.html(); got != `<div id="page">home::9</div>` {
		t.Errorf("html = %s", got)
	}
}

func TestStaleUpdateIgnored(t *testing.T) {
	h := newHarness(t, "http://localhost/")
	h.rt.AddRoute("/", h.page("home"))
	h.rt.AddRoute("/product/:id", h.page("product"))
	h.rt.Start()

	homeCtx := h.rt.Renderer.Context()
	h.rt.Navigate("/product/7")
	if homeCtx.Mounted() {
		t.Error("home context still reports mounted")
	}

	before := h.html()
	h.log = nil
	homeCtx.UpdateState(State{"n": 100})

	if h.html() != before {
		t.Errorf("stale update re-rendered: %s", h.html())
	}
	if len(h.log) != 0 {
		t.Errorf("stale update ran callbacks: %v", h.log)
	}

	// Remounting home is a new instance; the old context stays stale.
	h.rt.Navigate("/")
	homeCtx.UpdateState(State{"n": 100})
	if got := h.html(); got != `<div id="page">home::0</div>` {
		t.Errorf("html = %s", got)
	}
}

func TestNoRouteLeavesRootUntouched(t *testing.T) {
	h := newHarness(t, "http://localhost/")
	h.rt.AddRoute("/", h.page("home"))
	h.rt.Start()
	h.rt.Renderer.Context().UpdateState(State{"n": 3})

	h.rt.Navigate("/missing")
	if got := h.html(); got != `<div id="page">home::3</div>` {
		t.Errorf("html = %s", got)
	}
	if h.rt.Renderer.ActiveID() != "home" {
		t.Errorf("ActiveID = %q, want home", h.rt.Renderer.ActiveID())
	}

	h.rt.Window.History.Back()
	want := []string{"mounted home", "updated home 0->3", "updated home 3->3"}
	if diff := cmp.Diff(want, h.log); diff != "" {
		t.Errorf("lifecycle mismatch (-want +got):\n%s", diff)
	}
}

func TestNoRouteAtStart(t *testing.T) {
	h := newHarness(t, "http://localhost/nowhere")
	h.rt.AddRoute("/", h.page("home"))
	h.rt.Start()

	if got := h.html(); got != "" {
		t.Errorf("html = %q, want empty root", got)
	}
	if h.rt.Renderer.ActiveID() != "" {
		t.Error("nothing should be mounted")
	}
}

func TestUpdateStateFromMounted(t *testing.T) {
	h := newHarness(t, "http://localhost/")
	c := Component{
		ID: "home",
		Render: func(ctx *Context) *vdom.VNode {
			label, _ := Get[string](ctx.State, "label")
			return vdom.P(vdom.Text(label))
		},
	}
	h.rt.AddRoute("/", WithLifecycle(h.rt.Registry, Lifecycle{
		Mounted: func(ctx *Context) func() {
			ctx.UpdateState(State{"label": "loading"})
			h.sched.Dispatch(func() { ctx.UpdateState(State{"label": "loaded"}) })
			return nil
		},
	}, c))
	h.rt.Start()

	if got := h.html(); got != "<p>loading</p>" {
		t.Errorf("html = %s", got)
	}
	h.sched.Flush()
	if got := h.html(); got != "<p>loaded</p>" {
		t.Errorf("html = %s", got)
	}
}

func TestUpdateStateFromUpdatedIsKept(t *testing.T) {
	h := newHarness(t, "http://localhost/")
	c := Component{
		ID: "home",
		Render: func(ctx *Context) *vdom.VNode {
			return vdom.P(vdom.Text(ctx.Query.Get("q")))
		},
	}
	h.rt.AddRoute("/", WithLifecycle(h.rt.Registry, Lifecycle{
		Updated: func(prev, next *Context) {
			if !prev.Query.Equal(next.Query) {
				next.UpdateState(State{"query": next.Query.Get("q")})
			}
		},
	}, c))
	h.rt.Start()
	h.rt.Router.SetQuery(map[string]any{"q": "tea"})

	if got, _ := Get[string](h.rt.Renderer.Context().State, "query"); got != "tea" {
		t.Errorf("state query = %q, want tea", got)
	}
}

func TestMountedThatNavigatesAway(t *testing.T) {
	h := newHarness(t, "http://localhost/old")
	h.rt.AddRoute("/", h.page("home"))

	redirect := Component{ID: "redirect", Render: func(*Context) *vdom.VNode { return vdom.Text("redirecting") }}
	h.rt.AddRoute("/old", WithLifecycle(h.rt.Registry, Lifecycle{
		Mounted: func(ctx *Context) func() {
			h.record("mounted redirect")
			h.rt.Navigate("/")
			return func() { h.record("cleanup redirect") }
		},
		Unmounted: func(*Context) { h.record("unmounted redirect") },
	}, redirect))
	h.rt.Start()

	want := []string{
		"mounted redirect",
		"unmounted redirect",
		"mounted home",
		"cleanup redirect",
	}
	if diff := cmp.Diff(want, h.log); diff != "" {
		t.Errorf("lifecycle mismatch (-want +got):\n%s", diff)
	}
	if h.rt.Renderer.ActiveID() != "home" {
		t.Errorf("ActiveID = %q", h.rt.Renderer.ActiveID())
	}
}

func TestMissingLifecycleIsNoop(t *testing.T) {
	h := newHarness(t, "http://localhost/")
	plain := Component{ID: "plain", Render: func(*Context) *vdom.VNode { return vdom.Text("plain") }}
	h.rt.AddRoute("/", plain)
	h.rt.AddRoute("/product/:id", h.page("product"))
	h.rt.Start()

	h.rt.Renderer.Context().UpdateState(State{"x": 1})
	h.rt.Navigate("/product/1")
	h.rt.Navigate("/")

	want := []string{"mounted product", "cleanup product", "unmounted product"}
	if diff := cmp.Diff(want, h.log); diff != "" {
		t.Errorf("lifecycle mismatch (-want +got):\n%s", diff)
	}
}

func TestOnRenderAndCartObserved(t *testing.T) {
	h := newHarness(t, "http://localhost/")
	h.rt.AddRoute("/", Component{ID: "home", Render: func(*Context) *vdom.VNode {
		return vdom.Span(vdom.Textf("%d", h.rt.Cart.Count()))
	}})

	var renders []string
	h.rt.Renderer.OnRender(func(markup string) { renders = append(renders, markup) })
	h.rt.Start()
	h.rt.Cart.AddToCart(store.CartItem{ProductID: "1", Price: 10})

	if diff := cmp.Diff([]string{"<span>0</span>", "<span>1</span>"}, renders); diff != "" {
		t.Errorf("renders mismatch (-want +got):\n%s", diff)
	}
}

func TestStartIsIdempotentAndStopDetaches(t *testing.T) {
	h := newHarness(t, "http://localhost/")
	h.rt.AddRoute("/", h.page("home"))
	h.rt.Start()
	h.rt.Start()

	if got := h.rt.Window.Document.ListenerCount("click"); got != 1 {
		t.Errorf("click listeners = %d, want 1", got)
	}

	h.rt.Stop()
	h.rt.UI.OpenCartModal()

	want := []string{"mounted home", "cleanup home", "unmounted home"}
	if diff := cmp.Diff(want, h.log); diff != "" {
		t.Errorf("lifecycle mismatch (-want +got):\n%s", diff)
	}
	if got := h.rt.Window.Document.ListenerCount("click"); got != 0 {
		t.Errorf("click listeners after Stop = %d, want 0", got)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Lookup("x"); ok {
		t.Error("empty registry returned a lifecycle")
	}
	reg.Register("x", Lifecycle{Unmounted: func(*Context) {}})
	reg.Register("x", Lifecycle{})
	lc, ok := reg.Lookup("x")
	if !ok || lc.Unmounted != nil {
		t.Error("second registration should replace the first")
	}
}

func TestNewRuntimeRequiresScheduler(t *testing.T) {
	if _, err := NewRuntime(context.Background(), Options{}); err == nil {
		t.Error("expected error without scheduler")
	}
}
