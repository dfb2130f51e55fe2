// Package router maps browser locations to route handlers.
//
// A Router owns a table of path patterns such as "/product/:id". Named
// segments match one path segment each and are captured as params; a
// trailing slash is optional. The table is consulted in registration order
// and the first match wins.
//
// The router never renders anything itself. It resolves the current
// location, stores the active route and notifies subscribers, which is
// how the render loop learns about navigation:
//
//	r := router.New[app.Component](window.History, router.WithBaseURL("/shop"))
//	r.AddRoute("/", home)
//	r.AddRoute("/product/:id", product)
//	r.Subscribe(func(*router.ActiveRoute[app.Component]) { renderer.Render() })
//	r.Start()
//
// All methods must be called from the event loop goroutine.
package router
