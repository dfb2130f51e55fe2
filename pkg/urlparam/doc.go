// Package urlparam implements the storefront's query-string model.
//
// Values keeps keys in the order they first appeared, so rewriting a single
// parameter leaves the rest of the URL as the user saw it:
//
//	q := urlparam.Parse("sort=price_asc&page=1")
//	next := urlparam.Merge(q, map[string]any{"page": 2})
//	next.Encode() // "sort=price_asc&page=2"
//
// Merge patches the current query instead of replacing it, and removes keys
// whose new value is nil or empty.
package urlparam
