package storefront

import (
	"context"
	"strconv"

	"github.com/vango-dev/storefront/pkg/app"
	"github.com/vango-dev/storefront/pkg/catalog"
	. "github.com/vango-dev/storefront/pkg/vdom"
)

// RelatedLimit is how many related products the detail page shows.
const RelatedLimit = 20

// product is the detail page for params.id.
func (a *App) product() app.Component {
	c := app.Component{ID: ProductID, Render: a.renderProduct}
	return app.WithLifecycle(a.Registry, app.Lifecycle{
		Mounted: func(ctx *app.Context) func() {
			a.loadProduct(ctx)
			return a.cancel
		},
		Updated: func(prev, next *app.Context) {
			if prev.Param("id") == next.Param("id") {
				return
			}
			next.UpdateState(app.State{
				keyLoading: true,
				keyError:   "",
				keyProduct: (*catalog.Product)(nil),
				keyRelated: []catalog.Product(nil),
			})
			a.loadProduct(next)
		},
	}, c)
}

func (a *App) loadProduct(c *app.Context) {
	id := c.Param("id")
	a.load(c, "product", func(ctx context.Context) (app.State, error) {
		p, err := a.catalog.Product(ctx, id)
		if err != nil {
			return nil, err
		}
		state := app.State{keyProduct: p}
		if p.Category2 != "" {
			related, err := catalog.Related(ctx, a.catalog, p, RelatedLimit)
			if err != nil {
				a.Logger.Warn("related products failed", "product", id, "error", err)
			}
			state[keyRelated] = related
		}
		return state, nil
	})
}

func (a *App) renderProduct(c *app.Context) *VNode {
	p, _ := app.Get[*catalog.Product](c.State, keyProduct)
	related, _ := app.Get[[]catalog.Product](c.State, keyRelated)
	errMsg, _ := app.Get[string](c.State, keyError)

	header := Div(Class("page-header-left"),
		A(Class("back-link"), Href(a.Router.Href(HomePath)), Flag("link"), AriaLabel("Back to list"), "‹"),
		H1(Class("page-title"), "Product details"),
	)

	switch {
	case errMsg != "":
		return a.layout(header,
			Div(Class("load-error"), Role("alert"),
				P("This product could not be loaded."),
				A(Href(a.Router.Href(HomePath)), Flag("link"), "Back to list"),
			),
		)
	case p == nil:
		return a.layout(header, Div(Class("product-detail", "skeleton"), AriaHidden(true)))
	}

	var maxQty any
	if p.Stock > 0 {
		maxQty = Max(strconv.Itoa(p.Stock))
	}

	return a.layout(header,
		breadcrumb(p.Category1, p.Category2),
		Div(Class("product-detail"), Data("product-id", p.ProductID),
			Img(Class("product-detail-image"), Src(p.Image), Alt(p.Title)),
			H2(Class("product-detail-title"), p.Title),
			If(p.Rating > 0, P(Class("product-rating"),
				Textf("★ %.1f (%d reviews)", p.Rating, p.ReviewCount))),
			P(Class("product-detail-price"), formatPrice(p.LPrice)),
			P(Class("product-stock"), Textf("Stock: %d", p.Stock)),
			Div(Class("quantity-selector"),
				Button(ID("quantity-decrease"), Type("button"), AriaLabel("Decrease quantity"), "−"),
				Input(ID("quantity-input"), Type("number"), Value("1"), Min("1"), maxQty),
				Button(ID("quantity-increase"), Type("button"), AriaLabel("Increase quantity"), "+"),
			),
			Button(ID("add-to-cart-btn"), Type("button"), Data("product-id", p.ProductID), "Add to cart"),
		),
		A(Class("go-to-product-list"), Href(a.Router.Href(HomePath)), Flag("link"), "Back to list"),
		When(len(related) > 0, func() *VNode {
			return Section(Class("related-products"),
				H2("Related products"),
				Div(Class("related-grid"), Range(related, func(_ int, r catalog.Product) *VNode {
					return Div(Class("related-product-card"), Data("product-id", r.ProductID),
						Img(Src(r.Image), Alt(r.Title), Loading("lazy")),
						H3(r.Title),
						P(formatPrice(r.LPrice)),
					)
				})),
			)
		}),
	)
}
