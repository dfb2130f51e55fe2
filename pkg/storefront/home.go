package storefront

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/storefront/pkg/app"
	"github.com/vango-dev/storefront/pkg/catalog"
	. "github.com/vango-dev/storefront/pkg/vdom"
)

var sortOptions = []struct{ value, label string }{
	{catalog.SortPriceAsc, "Price: low to high"},
	{catalog.SortPriceDesc, "Price: high to low"},
	{catalog.SortNameAsc, "Name: A to Z"},
	{catalog.SortNameDesc, "Name: Z to A"},
}

// home is the product list. Its filter lives in the URL query; a query
// change reloads the list without remounting.
func (a *App) home() app.Component {
	c := app.Component{ID: HomeID, Render: a.renderHome}
	return app.WithLifecycle(a.Registry, app.Lifecycle{
		Mounted: func(ctx *app.Context) func() {
			a.loadHome(ctx)
			return a.cancel
		},
		Updated: func(prev, next *app.Context) {
			if prev.Query.Equal(next.Query) {
				return
			}
			next.UpdateState(app.State{keyLoading: true})
			a.loadHome(next)
		},
	}, c)
}

func (a *App) loadHome(c *app.Context) {
	filter := FilterFromQuery(c.Query)
	a.load(c, "products", func(ctx context.Context) (app.State, error) {
		var (
			list       *catalog.ProductList
			categories []catalog.Category
		)
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			list, err = a.catalog.Products(ctx, filter)
			return err
		})
		g.Go(func() (err error) {
			categories, err = a.catalog.Categories(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return app.State{
			keyProducts:   list.Products,
			keyPagination: list.Pagination,
			keyCategories: categories,
		}, nil
	})
}

func (a *App) renderHome(c *app.Context) *VNode {
	filter := FilterFromQuery(c.Query)
	products, _ := app.Get[[]catalog.Product](c.State, keyProducts)
	categories, _ := app.Get[[]catalog.Category](c.State, keyCategories)
	pagination, _ := app.Get[catalog.Pagination](c.State, keyPagination)
	loading, ok := app.Get[bool](c.State, keyLoading)
	if !ok {
		loading = true
	}
	errMsg, _ := app.Get[string](c.State, keyError)

	header := H1(Class("page-title"), A(Href(a.Router.Href(HomePath)), Flag("link"), "Storefront"))

	return a.layout(header,
		Div(Class("filters"),
			Div(Class("search"),
				Input(ID("search-input"), Type("text"), Placeholder("Search products"), Value(filter.Search)),
			),
			a.filterPanel(filter, categories),
			Div(Class("list-controls"),
				Label(For("limit-select"), "Per page"),
				Select(ID("limit-select"), Range(LimitOptions, func(_ int, n int) *VNode {
					v := strconv.Itoa(n)
					return Option(Value(v), Selected(n == filter.Limit), v)
				})),
				Label(For("sort-select"), "Sort"),
				Select(ID("sort-select"), Range(sortOptions, func(_ int, o struct{ value, label string }) *VNode {
					return Option(Value(o.value), Selected(o.value == filter.Sort), o.label)
				})),
			),
		),
		Div(Class("product-list"),
			When(!loading && errMsg == "", func() *VNode {
				return P(Class("product-count"), Textf("%d products", pagination.Total))
			}),
			If(errMsg != "", P(Class("load-error"), Role("alert"), "Could not load products.")),
			Div(ID("products-grid"), Class("products-grid"),
				IfElse(loading, Fragment(skeletons(4)), Fragment(Range(products, func(_ int, p catalog.Product) *VNode {
					return productCard(p)
				}))),
			),
			If(!loading && errMsg == "" && len(products) == 0, P(Class("empty"), "No products found.")),
			When(!loading && pagination.TotalPages > 1, func() *VNode {
				return P(Class("pagination"), Textf("Page %d of %d", pagination.Page, pagination.TotalPages))
			}),
		),
	)
}

func (a *App) filterPanel(f catalog.Filter, categories []catalog.Category) *VNode {
	var buttons []*VNode
	if f.Category1 == "" {
		buttons = Range(categories, func(_ int, cat catalog.Category) *VNode {
			return Button(Class("category1-filter-btn"), Type("button"), Data("category1", cat.Name), cat.Name)
		})
	} else {
		for _, cat := range categories {
			if cat.Name != f.Category1 {
				continue
			}
			buttons = Range(cat.Children, func(_ int, name string) *VNode {
				return Button(Class("category2-filter-btn"), ClassIf(name == f.Category2, "selected"), Type("button"),
					Data("category1", f.Category1), Data("category2", name), name)
			})
		}
	}
	return Div(Class("category-filter"),
		breadcrumb(f.Category1, f.Category2),
		Div(Class("category-buttons"), buttons),
	)
}

func breadcrumb(category1, category2 string) *VNode {
	return Nav(Class("breadcrumb"), AriaLabel("Category"),
		Button(Type("button"), Data("breadcrumb", "reset"), "All"),
		When(category1 != "", func() *VNode {
			return Fragment(
				Span(Class("breadcrumb-sep"), ">"),
				Button(Type("button"), Data("breadcrumb", "category1"), Data("category1", category1), category1),
			)
		}),
		When(category2 != "", func() *VNode {
			return Fragment(
				Span(Class("breadcrumb-sep"), ">"),
				Button(Type("button"), Data("breadcrumb", "category2"),
					Data("category1", category1), Data("category2", category2), category2),
			)
		}),
	)
}

func productCard(p catalog.Product) *VNode {
	return Div(Class("product-card"), Data("product-id", p.ProductID),
		Div(Class("product-image"),
			Img(Src(p.Image), Alt(p.Title), Loading("lazy")),
		),
		Div(Class("product-info"),
			H3(Class("product-title"), p.Title),
			If(p.Brand != "", P(Class("product-brand"), p.Brand)),
			P(Class("product-price"), formatPrice(p.LPrice)),
		),
		Button(Class("add-to-cart-btn"), Type("button"), Data("product-id", p.ProductID), "Add to cart"),
	)
}

func skeletons(n int) []*VNode {
	out := make([]*VNode, n)
	for i := range out {
		out[i] = Div(Class("product-card", "skeleton"), AriaHidden(true))
	}
	return out
}
