// Package store holds the storefront's observable application state.
//
// CartStore owns the cart and its durable record; UiStore owns the cart
// modal flag and the single toast slot. Both notify subscribers
// synchronously after every mutation and must only be used from the
// event loop goroutine.
package store
