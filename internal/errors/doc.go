// Package errors provides coded, actionable errors for the storefront runtime.
//
// Every error carries a code (e.g. "E100") that maps to a registered template
// with a category, a short message and a longer explanation. Call sites add a
// suggestion or wrap the underlying cause:
//
//	err := errors.New("E101").
//	    WithSuggestion(`set "storage.s3.bucket" in storefront.json`)
//
//	fmt.Fprintln(os.Stderr, err.Format())
//
// # Error Categories
//
//   - config: invalid or incomplete storefront.json / environment
//   - runtime: router, renderer and event bus misuse
//   - storage: durable cart record failures
//   - catalog: product data lookups and fixtures
//   - cli: command-line usage
//
// Errors returned from this package support errors.Is / errors.As through
// Unwrap, and two errors with the same code compare equal under errors.Is.
package errors
