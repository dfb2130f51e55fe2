package storefront

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vango-dev/storefront/pkg/store"
	. "github.com/vango-dev/storefront/pkg/vdom"
)

var printer = message.NewPrinter(language.Korean)

// formatPrice renders an amount in won with digit grouping.
func formatPrice(amount int64) string {
	return printer.Sprintf("%d원", amount)
}

// layout wraps a page with the header, the cart modal and the toast.
func (a *App) layout(headerLeft *VNode, children ...any) *VNode {
	cart := a.Cart.State()
	ui := a.UI.State()

	return Div(Class("page"),
		Header(Class("page-header"),
			Div(Class("page-header-inner"),
				headerLeft,
				Button(ID("cart-icon-btn"), Type("button"), AriaLabel("Cart"),
					Span(Class("cart-icon"), AriaHidden(true), "🛒"),
					If(cart.Count > 0, Span(ID("cart-count"), Class("cart-count"), Textf("%d", cart.Count))),
				),
			),
		),
		Main(append([]any{Class("page-main")}, children...)...),
		Footer(Class("page-footer"), P("© Storefront")),
		When(ui.CartModalOpen, func() *VNode { return a.cartModal(cart) }),
		When(ui.Toast != nil, func() *VNode {
			return Div(ID("toast"), Class("toast", "toast-"+string(ui.Toast.Type)), Role("alert"),
				Span(Class("toast-icon"), AriaHidden(true), ui.Toast.Type.Icon()),
				Span(Class("toast-message"), ui.Toast.Message),
			)
		}),
	)
}

func (a *App) cartModal(cart store.CartState) *VNode {
	selected := a.Cart.SelectedCartItems()
	var selectedAmount int64
	for _, item := range selected {
		selectedAmount += item.Price * int64(item.Quantity)
	}

	var body *VNode
	if len(cart.Items) == 0 {
		body = Div(Class("cart-empty"), P("Your cart is empty"))
	} else {
		body = Fragment(
			Label(Class("cart-select-all"),
				Input(ID("cart-modal-select-all-checkbox"), Type("checkbox"), Checked(cart.IsAllSelected)),
				Textf("Select all (%d)", len(cart.Items)),
			),
			Ul(Class("cart-items"), Range(cart.Items, func(_ int, item store.CartItem) *VNode {
				return a.cartItem(item)
			})),
			Div(Class("cart-summary"),
				If(len(selected) > 0, Div(Class("cart-summary-selected"),
					Span(Textf("Selected items (%d)", len(selected))),
					Span(formatPrice(selectedAmount)),
				)),
				Div(Class("cart-summary-total"),
					Span("Total"),
					Span(ID("cart-total"), formatPrice(cart.TotalAmount)),
				),
				If(len(selected) > 0, Button(ID("cart-modal-remove-selected-btn"), Type("button"),
					Textf("Remove selected (%d)", len(selected)))),
				Div(Class("cart-actions"),
					Button(ID("cart-modal-clear-cart-btn"), Type("button"), "Clear cart"),
					Button(ID("cart-modal-checkout-btn"), Type("button"), "Checkout"),
				),
			),
		)
	}

	return Div(Class("cart-modal-overlay"),
		Div(Class("cart-modal"), Role("dialog"), AriaLabel("Cart"),
			Div(Class("cart-modal-header"),
				H2(Textf("Cart (%d)", cart.Count)),
				Button(ID("cart-modal-close-btn"), Type("button"), AriaLabel("Close"), "×"),
			),
			body,
		),
	)
}

func (a *App) cartItem(item store.CartItem) *VNode {
	id := item.ProductID
	return Li(Class("cart-item"), Data("product-id", id),
		Input(Class("cart-item-checkbox"), Type("checkbox"), Data("product-id", id),
			Checked(a.Cart.IsSelected(id))),
		If(item.Image != "", Img(Class("cart-item-image"), Src(item.Image), Alt(item.Title))),
		Div(Class("cart-item-info"),
			H3(Class("cart-item-title"), item.Title),
			P(Class("cart-item-price"), formatPrice(item.Price)),
		),
		Div(Class("cart-item-quantity"),
			Button(Class("quantity-decrease-btn"), Type("button"), Data("product-id", id), "−"),
			Input(Class("quantity-input"), Type("number"), Data("product-id", id),
				Value(strconv.Itoa(item.Quantity)), Min("1"), Disabled(true)),
			Button(Class("quantity-increase-btn"), Type("button"), Data("product-id", id), "+"),
		),
		Span(Class("cart-item-subtotal"), formatPrice(item.Price*int64(item.Quantity))),
		Button(Class("cart-item-remove-btn"), Type("button"), Data("product-id", id), "Remove"),
	)
}
