// Package server is the storefront's HTTP surface.
//
// Routes:
//
//	GET /healthz  liveness probe
//	GET /metrics  Prometheus exposition
//	GET /live     live session websocket
//	GET /*        server-rendered page
//
// A page request renders the storefront at the request URL, waits for its
// data loads to settle and writes a full HTML document. Requests that match
// no route render nothing and get a 404.
//
// Run listens until the context is canceled or the process receives
// SIGINT or SIGTERM, then shuts down gracefully:
//
//	srv := server.New(cfg, page, server.WithLogger(logger), server.WithLive(liveHandler))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
