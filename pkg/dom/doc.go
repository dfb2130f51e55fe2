// Package dom is the in-memory browser window the storefront runs against.
//
// A Window holds a Document, parsed and serialized with golang.org/x/net/html,
// and a History stack. Elements are thin wrappers over *html.Node; selector
// matching uses cascadia, so Matches, Closest and QuerySelector accept the
// same CSS selectors a browser would:
//
//	win, _ := dom.NewWindow("http://localhost/?sort=price_asc", "root")
//	root := win.Document.GetElementByID("root")
//	root.SetInnerHTML(`<button class="add-to-cart-btn" data-product-id="1">Add</button>`)
//	win.Document.Click(".add-to-cart-btn")
//
// Events dispatched through the document reach the listeners registered with
// AddEventListener, which is where the delegated event bus attaches.
package dom
