// Package app is the storefront's render loop.
//
// A Component renders the whole root from a Context. The Renderer
// re-renders the active route's component whenever something it observes
// changes (router, stores) and drives the component's lifecycle:
//
//   - same component as last time: state is carried over, markup is
//     replaced, then Updated(prev, next) runs;
//   - different component: the previous mount's cleanup and Unmounted run,
//     the new component renders, then Mounted runs and may return a
//     cleanup function.
//
// Components change their own state with Context.UpdateState, which
// re-renders synchronously. Updates from an instance that has since been
// unmounted are dropped.
//
// Runtime wires the window, router, event bus, stores and renderer
// together; there is no package-level state.
package app
