// Package loop provides the single-threaded scheduler the storefront runtime
// runs on.
//
// All store mutations, notifications and renders happen inside callbacks
// executed by one goroutine. Work that must leave the loop (data loads, remote
// storage) hands its result back with Dispatch:
//
//	go func() {
//	    product, err := svc.Product(ctx, id)
//	    sched.Dispatch(func() {
//	        if err != nil {
//	            ui.ShowErrorToast(err.Error())
//	            return
//	        }
//	        rctx.UpdateState(app.State{"product": product})
//	    })
//	}()
//
// Loop is the production implementation. Manual is a deterministic scheduler
// with virtual time for tests.
package loop
