// Package live drives a storefront runtime over a WebSocket.
//
// Each connection gets its own session: a runtime built by a Factory and a
// loop.Loop that every runtime callback runs on. The client sends the
// browser events and history moves it observes; the server answers with
// the root markup after every render.
//
// Frames are JSON text messages with a "type" field.
//
// Client to server:
//
//	{"type":"event","kind":"click","target":"#cart-icon-btn"}
//	{"type":"event","kind":"change","target":"#sort-select","value":"price_desc"}
//	{"type":"event","kind":"keydown","target":"#search-input","key":"Enter"}
//	{"type":"navigate","url":"/product/123"}
//	{"type":"back"}
//	{"type":"forward"}
//
// Server to client:
//
//	{"type":"session","id":"<uuid>"}
//	{"type":"render","path":"/","html":"..."}
//	{"type":"error","message":"..."}
package live
