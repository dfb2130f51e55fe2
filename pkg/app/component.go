package app

import (
	"maps"

	"github.com/vango-dev/storefront/pkg/router"
	"github.com/vango-dev/storefront/pkg/urlparam"
	"github.com/vango-dev/storefront/pkg/vdom"
)

// Component renders the root. ID is the component's identity: two
// renders with the same ID are the same component.
type Component struct {
	ID     string
	Render func(*Context) *vdom.VNode
}

// State is a component's local state bag.
type State map[string]any

// Get returns state[key] as T.
func Get[T any](s State, key string) (T, bool) {
	v, ok := s[key].(T)
	return v, ok
}

// Lifecycle holds a component's optional callbacks.
type Lifecycle struct {
	// Mounted runs after the component's first render. A returned
	// function runs before the component is unmounted.
	Mounted func(ctx *Context) (cleanup func())

	// Updated runs after every later render of the same component.
	Updated func(prev, next *Context)

	// Unmounted runs when another component replaces this one.
	Unmounted func(ctx *Context)
}

// Registry maps component IDs to lifecycles.
type Registry struct {
	lifecycles map[string]Lifecycle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{lifecycles: make(map[string]Lifecycle)}
}

// Register sets the lifecycle for id, replacing any previous one.
func (r *Registry) Register(id string, lc Lifecycle) {
	r.lifecycles[id] = lc
}

// Lookup returns the lifecycle for id.
func (r *Registry) Lookup(id string) (Lifecycle, bool) {
	lc, ok := r.lifecycles[id]
	return lc, ok
}

// WithLifecycle registers lc for c and returns c.
func WithLifecycle(reg *Registry, lc Lifecycle, c Component) Component {
	reg.Register(c.ID, lc)
	return c
}

// Route is the active route as seen by components.
type Route = router.ActiveRoute[Component]

// Context is what a component renders from.
type Context struct {
	Route  *Route
	Query  urlparam.Values
	Params map[string]string
	State  State

	renderer *Renderer
	instance uint64
}

// Param returns a route param.
func (c *Context) Param(name string) string {
	return c.Params[name]
}

// Mounted reports whether the component instance this context belongs to
// is still mounted.
func (c *Context) Mounted() bool {
	return c.renderer != nil && c.renderer.isCurrent(c.instance)
}

// UpdateState shallow-merges patch into the instance's latest state and
// re-renders synchronously.
func (c *Context) UpdateState(patch State) {
	c.UpdateStateFunc(func(prev State) State {
		next := maps.Clone(prev)
		if next == nil {
			next = State{}
		}
		maps.Copy(next, patch)
		return next
	})
}

// UpdateStateFunc replaces the instance's state with fn's result and
// re-renders synchronously. fn receives a copy of the latest state.
func (c *Context) UpdateStateFunc(fn func(prev State) State) {
	if c.renderer == nil {
		return
	}
	c.renderer.updateState(c, fn)
}

// with returns a copy of c carrying state.
func (c *Context) with(state State) *Context {
	cp := *c
	cp.State = state
	return &cp
}
