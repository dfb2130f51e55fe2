package storefront

import (
	"strconv"

	"github.com/spf13/cast"

	"github.com/vango-dev/storefront/internal/errors"
	"github.com/vango-dev/storefront/pkg/app"
	"github.com/vango-dev/storefront/pkg/catalog"
	"github.com/vango-dev/storefront/pkg/events"
	"github.com/vango-dev/storefront/pkg/store"
	"github.com/vango-dev/storefront/pkg/urlparam"
)

// Toast messages.
const (
	MsgAddedToCart      = "Added to cart"
	MsgSelectedRemoved  = "Selected items removed"
	MsgCartCleared      = "Cart cleared"
	MsgCheckoutDisabled = "Checkout is not available yet"
)

func (a *App) registerEvents() {
	b := a.Bus

	// Product list and detail.
	b.On(events.Click, ".add-to-cart-btn", a.onAddCard)
	b.On(events.Click, "#add-to-cart-btn", a.onAddDetail)
	b.On(events.Click, "#quantity-increase", a.stepQuantity(1))
	b.On(events.Click, "#quantity-decrease", a.stepQuantity(-1))
	b.On(events.Click, ".product-image, .product-info", a.onOpenProduct(".product-card"))
	b.On(events.Click, ".related-product-card", a.onOpenProduct(".related-product-card"))

	// Filters.
	b.On(events.Click, ".category1-filter-btn, .category2-filter-btn", a.onCategory)
	b.On(events.Click, "[data-breadcrumb]", a.onBreadcrumb)
	b.On(events.Change, "#sort-select", a.onQueryChange(ParamSort))
	b.On(events.Change, "#limit-select", a.onQueryChange(ParamLimit))
	b.On(events.KeyDown, "key:Enter", a.onSearch)
	b.On(events.Click, "a[data-link]", a.onLink)

	// Cart modal.
	b.On(events.Click, "#cart-icon-btn", func(*events.Event) error {
		a.UI.OpenCartModal()
		return nil
	})
	b.On(events.Click, "#cart-modal-close-btn", func(*events.Event) error {
		a.UI.CloseCartModal()
		return nil
	})
	b.On(events.Click, ".cart-modal-overlay", func(e *events.Event) error {
		// Only clicks on the backdrop itself, not on the modal inside it.
		if el := e.Element(); el != nil && el.Matches(".cart-modal-overlay") {
			a.UI.CloseCartModal()
		}
		return nil
	})
	b.On(events.KeyDown, "key:Escape", func(*events.Event) error {
		if a.UI.State().CartModalOpen {
			a.UI.CloseCartModal()
		}
		return nil
	})
	b.On(events.Click, ".quantity-increase-btn", a.withProductID(a.Cart.IncrementQuantity))
	b.On(events.Click, ".quantity-decrease-btn", a.withProductID(a.Cart.DecrementQuantity))
	b.On(events.Click, ".cart-item-remove-btn", a.withProductID(a.Cart.DeleteProduct))
	b.On(events.Change, ".cart-item-checkbox", a.withProductID(a.Cart.ToggleSelectItem))
	b.On(events.Change, "#cart-modal-select-all-checkbox", func(*events.Event) error {
		a.Cart.ToggleSelectAll()
		return nil
	})
	b.On(events.Click, "#cart-modal-remove-selected-btn", func(*events.Event) error {
		a.Cart.DeleteSelectedItems()
		a.UI.ShowInfoToast(MsgSelectedRemoved)
		return nil
	})
	b.On(events.Click, "#cart-modal-clear-cart-btn", func(*events.Event) error {
		a.Cart.ClearCart()
		a.UI.ShowInfoToast(MsgCartCleared)
		return nil
	})
	b.On(events.Click, "#cart-modal-checkout-btn", func(*events.Event) error {
		a.UI.ShowInfoToast(MsgCheckoutDisabled)
		return nil
	})
}

// productID reads data-product-id from the matched element.
func productID(e *events.Event) string {
	if el := e.MatchedElement(); el != nil {
		return el.Dataset("product-id")
	}
	return ""
}

func (a *App) withProductID(fn func(id string)) events.Handler {
	return func(e *events.Event) error {
		if id := productID(e); id != "" {
			fn(id)
		}
		return nil
	}
}

// findProduct looks id up in what the current page has loaded.
func (a *App) findProduct(id string) (catalog.Product, bool) {
	ctx := a.Renderer.Context()
	if ctx == nil {
		return catalog.Product{}, false
	}
	if p, ok := app.Get[*catalog.Product](ctx.State, keyProduct); ok && p != nil && p.ProductID == id {
		return *p, true
	}
	for _, key := range []string{keyProducts, keyRelated} {
		list, _ := app.Get[[]catalog.Product](ctx.State, key)
		for _, p := range list {
			if p.ProductID == id {
				return p, true
			}
		}
	}
	return catalog.Product{}, false
}

func (a *App) addToCart(id string, quantity int) error {
	p, ok := a.findProduct(id)
	if !ok {
		a.UI.ShowErrorToast("")
		return errors.New("E300").WithMessagef("product %q is not loaded", id)
	}
	err := a.Cart.AddToCart(store.CartItem{
		ProductID: p.ProductID,
		Title:     p.Title,
		Price:     p.LPrice,
		Image:     p.Image,
		Quantity:  quantity,
	})
	if err != nil {
		a.UI.ShowErrorToast("")
		return err
	}
	a.UI.ShowSuccessToast(MsgAddedToCart)
	return nil
}

func (a *App) onAddCard(e *events.Event) error {
	if id := productID(e); id != "" {
		return a.addToCart(id, 1)
	}
	return nil
}

func (a *App) onAddDetail(e *events.Event) error {
	id := productID(e)
	if id == "" {
		return nil
	}
	return a.addToCart(id, a.quantityInput())
}

// quantityInput reads the detail page quantity, at least 1.
func (a *App) quantityInput() int {
	in := a.Window.Document.GetElementByID("quantity-input")
	if in == nil {
		return 1
	}
	return max(cast.ToInt(in.Value()), 1)
}

// stepQuantity adjusts the detail page quantity input within [1, max].
func (a *App) stepQuantity(delta int) events.Handler {
	return func(*events.Event) error {
		in := a.Window.Document.GetElementByID("quantity-input")
		if in == nil {
			return nil
		}
		n := max(a.quantityInput()+delta, 1)
		if limit, ok := in.Attr("max"); ok {
			if m := cast.ToInt(limit); m > 0 {
				n = min(n, m)
			}
		}
		in.SetValue(strconv.Itoa(n))
		return nil
	}
}

func (a *App) onOpenProduct(card string) events.Handler {
	return func(e *events.Event) error {
		el := e.MatchedElement()
		if el == nil {
			return nil
		}
		if c := el.Closest(card); c != nil {
			el = c
		}
		id := el.Dataset("product-id")
		if id == "" {
			return nil
		}
		return a.Navigate("/product/" + id)
	}
}

// listURL is the product list URL with patch applied to its query. Off the
// list page the patch applies to an empty query.
func (a *App) listURL(patch map[string]any) string {
	if a.Renderer.ActiveID() == HomeID {
		return a.Router.URL(patch)
	}
	return a.Router.Href(HomePath) + urlparam.Merge(urlparam.Parse(""), patch).String()
}

func (a *App) navigateList(patch map[string]any) error {
	patch[ParamPage] = 1
	return a.Router.Navigate(a.listURL(patch), nil)
}

func (a *App) onCategory(e *events.Event) error {
	el := e.MatchedElement()
	return a.navigateList(map[string]any{
		ParamCategory1: el.Dataset("category1"),
		ParamCategory2: el.Dataset("category2"),
	})
}

func (a *App) onBreadcrumb(e *events.Event) error {
	el := e.MatchedElement()
	patch := map[string]any{ParamCategory1: nil, ParamCategory2: nil}
	switch el.Dataset("breadcrumb") {
	case "category1":
		patch[ParamCategory1] = el.Dataset("category1")
	case "category2":
		patch[ParamCategory1] = el.Dataset("category1")
		patch[ParamCategory2] = el.Dataset("category2")
	}
	return a.navigateList(patch)
}

func (a *App) onQueryChange(param string) events.Handler {
	return func(e *events.Event) error {
		return a.navigateList(map[string]any{param: e.Value})
	}
}

func (a *App) onSearch(e *events.Event) error {
	el := e.Element()
	if el == nil || !el.Matches("#search-input") {
		return nil
	}
	return a.navigateList(map[string]any{ParamSearch: el.Value()})
}

func (a *App) onLink(e *events.Event) error {
	href, ok := e.MatchedElement().Attr("href")
	if !ok {
		return nil
	}
	e.PreventDefault()
	return a.Router.Navigate(href, nil)
}
