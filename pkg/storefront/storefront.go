package storefront

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/vango-dev/storefront/pkg/app"
	"github.com/vango-dev/storefront/pkg/catalog"
	"github.com/vango-dev/storefront/pkg/store"
)

// Route patterns.
const (
	HomePath    = "/"
	ProductPath = "/product/:id"
)

// Component ids.
const (
	HomeID    = "home"
	ProductID = "product"
)

// Options configures an App.
type Options struct {
	app.Options

	// Catalog serves product data. Default: catalog.Default().
	Catalog catalog.Service

	// Spawn runs a load off the loop. Default: a new goroutine.
	Spawn func(fn func())
}

// App is one storefront page: the runtime plus the catalog it loads from.
type App struct {
	*app.Runtime

	catalog catalog.Service
	spawn   func(fn func())
	pending sync.WaitGroup

	ctx        context.Context
	stop       context.CancelFunc
	cancelLoad context.CancelFunc
	loadSeq    uint64
}

// New builds the storefront on a fresh runtime and registers its routes
// and event handlers. Call Start to render.
func New(ctx context.Context, opts Options) (*App, error) {
	a := &App{
		catalog: opts.Catalog,
		spawn:   opts.Spawn,
	}
	if a.catalog == nil {
		a.catalog = catalog.Default()
	}
	if a.spawn == nil {
		a.spawn = func(fn func()) { go fn() }
	}

	opts.CartOptions = append(opts.CartOptions, store.WithQuantityPatch(a.patchQuantity))
	rt, err := app.NewRuntime(ctx, opts.Options)
	if err != nil {
		return nil, err
	}
	a.Runtime = rt
	a.ctx, a.stop = context.WithCancel(context.WithoutCancel(ctx))

	if err := rt.AddRoute(HomePath, a.home()); err != nil {
		return nil, err
	}
	if err := rt.AddRoute(ProductPath, a.product()); err != nil {
		return nil, err
	}
	a.registerEvents()
	return a, nil
}

// Stop stops the runtime and cancels loads in flight.
func (a *App) Stop() {
	a.Runtime.Stop()
	a.stop()
}

// Settle blocks until every load started so far has handed its result to
// the scheduler, or ctx is done. The results still need the loop to run
// them.
func (a *App) Settle(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// begin starts a new load generation, cancelling the previous one.
func (a *App) begin() (context.Context, uint64) {
	a.cancel()
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancelLoad = cancel
	a.loadSeq++
	return ctx, a.loadSeq
}

func (a *App) cancel() {
	if a.cancelLoad != nil {
		a.cancelLoad()
		a.cancelLoad = nil
	}
}

// load runs fetch off the loop and merges its result into c's state on the
// loop. Only the latest load applies; older results are dropped. A failure
// shows an error toast and sets the "error" key.
func (a *App) load(c *app.Context, what string, fetch func(context.Context) (app.State, error)) {
	ctx, seq := a.begin()
	a.pending.Add(1)
	a.spawn(func() {
		defer a.pending.Done()
		state, err := fetch(ctx)
		a.Scheduler.Dispatch(func() {
			if seq != a.loadSeq {
				a.Logger.Debug("dropping superseded load", "load", what)
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				a.Logger.Warn("load failed", "load", what, "error", err)
				a.UI.ShowErrorToast(loadErrorMessage(err))
				c.UpdateState(app.State{keyLoading: false, keyError: err.Error()})
				return
			}
			state[keyLoading] = false
			state[keyError] = ""
			c.UpdateState(state)
		})
	})
}

func loadErrorMessage(err error) string {
	if errors.Is(err, catalog.ErrProductNotFound) {
		return "Product not found"
	}
	return "Failed to load products"
}

// patchQuantity writes a new quantity into the matching quantity inputs
// ahead of the re-render.
func (a *App) patchQuantity(productID string, quantity int) {
	if a.Runtime == nil {
		return
	}
	inputs, err := a.Root().QuerySelectorAll("input.quantity-input")
	if err != nil {
		return
	}
	for _, in := range inputs {
		if in.Dataset("product-id") == productID {
			in.SetValue(strconv.Itoa(quantity))
		}
	}
}
