// Package storefront is the shopping application built on the runtime in
// package app: a product list at "/" and a product detail page at
// "/product/:id", a shared layout with the cart modal and toast, and the
// delegated event handlers that drive the cart and UI stores.
//
// Product data comes from a catalog.Service. Loads run off the event loop
// and hand their results back through the runtime's scheduler, so every
// state update and render still happens on the loop. Settle waits for
// loads in flight, which is what server rendering uses before it reads the
// root markup.
package storefront
