// Package middleware provides the HTTP middleware the storefront server
// wraps its routes in.
//
// # OpenTelemetry
//
// OpenTelemetry starts a server span for every request using the global
// tracer provider. The span is named after the matched chi route once the
// handler has run, so "/product/123" and "/product/456" share a name.
//
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("storefront"),
//	    middleware.WithFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// # Prometheus
//
// Prometheus records request counts and durations on a *metrics.Metrics,
// labelled by method, route pattern and status code.
//
// # Logging
//
// RequestLogger writes one structured log line per request with the chi
// request id, status, size and duration.
package middleware
