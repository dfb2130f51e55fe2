package storefront

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	apperrors "github.com/vango-dev/storefront/internal/errors"
	"github.com/vango-dev/storefront/pkg/app"
	"github.com/vango-dev/storefront/pkg/catalog"
	"github.com/vango-dev/storefront/pkg/loop"
	"github.com/vango-dev/storefront/pkg/store"
	"github.com/vango-dev/storefront/pkg/toast"
	"github.com/vango-dev/storefront/pkg/urlparam"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type harness struct {
	*App
	t     *testing.T
	sched *loop.Manual
	jobs  []func()
}

// newHarness starts the storefront at url. Loads run inline unless deferred
// is set, in which case they queue in h.jobs.
func newHarness(t *testing.T, url string, deferred bool) *harness {
	t.Helper()
	h := &harness{t: t, sched: loop.NewManual()}
	spawn := func(fn func()) { fn() }
	if deferred {
		spawn = func(fn func()) { h.jobs = append(h.jobs, fn) }
	}
	a, err := New(context.Background(), Options{
		Options: app.Options{
			URL:       url,
			Scheduler: h.sched,
			Logger:    quietLogger,
		},
		Spawn: spawn,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.App = a
	a.Start()
	t.Cleanup(a.Stop)
	return h
}

func (h *harness) count(selector string) int {
	h.t.Helper()
	els, err := h.Root().QuerySelectorAll(selector)
	if err != nil {
		h.t.Fatalf("QuerySelectorAll(%q): %v", selector, err)
	}
	return len(els)
}

func (h *harness) text(selector string) string {
	h.t.Helper()
	el, err := h.Root().QuerySelector(selector)
	if err != nil || el == nil {
		h.t.Fatalf("no element for %q (err %v)", selector, err)
	}
	return strings.TrimSpace(el.Text())
}

func (h *harness) cardIDs() []string {
	h.t.Helper()
	els, err := h.Root().QuerySelectorAll("#products-grid .product-card:not(.skeleton)")
	if err != nil {
		h.t.Fatal(err)
	}
	ids := make([]string, 0, len(els))
	for _, el := range els {
		ids = append(ids, el.Dataset("product-id"))
	}
	return ids
}

func (h *harness) do(err error) {
	h.t.Helper()
	if err != nil {
		h.t.Fatal(err)
	}
	h.sched.Flush()
}

func TestFilterFromQuery(t *testing.T) {
	tests := []struct {
		query string
		want  catalog.Filter
	}{
		{"", catalog.Filter{Sort: "price_asc", Limit: 20, Page: 1}},
		{
			"category1=Fashion&category2=Tops&search=tee&sort=name_desc&limit=50&page=3",
			catalog.Filter{Category1: "Fashion", Category2: "Tops", Search: "tee", Sort: "name_desc", Limit: 50, Page: 3},
		},
		{"limit=abc&page=-2&sort=bogus", catalog.Filter{Sort: "price_asc", Limit: 20, Page: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := FilterFromQuery(urlparam.Parse(tt.query))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("filter mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHomeLoadsProducts(t *testing.T) {
	h := newHarness(t, "http://localhost/", true)

	if h.count(".skeleton") == 0 {
		t.Error("first render should show the skeleton grid")
	}
	if len(h.jobs) != 1 {
		t.Fatalf("loads started = %d, want 1", len(h.jobs))
	}
	h.jobs[0]()
	h.sched.Flush()

	if n := len(h.cardIDs()); n != 12 {
		t.Errorf("product cards = %d, want 12", n)
	}
	if h.count(".skeleton") != 0 {
		t.Error("skeleton still shown after load")
	}
	if got := h.text(".product-count"); got != "12 products" {
		t.Errorf("product count = %q", got)
	}
	if n := h.count(".category1-filter-btn"); n != 3 {
		t.Errorf("category1 buttons = %d, want 3", n)
	}
}

func TestAddToCartShowsToastThenHides(t *testing.T) {
	h := newHarness(t, "http://localhost/", false)
	h.sched.Flush()

	h.do(h.Window.Document.Click(`.product-card[data-product-id="85067212996"] .add-to-cart-btn`))

	if got := h.Cart.Count(); got != 1 {
		t.Fatalf("cart count = %d, want 1", got)
	}
	if got := h.Cart.TotalAmount(); got != 220 {
		t.Errorf("total = %d, want 220", got)
	}
	if got := h.text("#cart-count"); got != "1" {
		t.Errorf("badge = %q, want 1", got)
	}
	ui := h.UI.State()
	if ui.Toast == nil || ui.Toast.Type != toast.TypeSuccess || ui.Toast.Message != MsgAddedToCart {
		t.Fatalf("toast = %+v", ui.Toast)
	}
	if got := h.text("#toast .toast-message"); got != MsgAddedToCart {
		t.Errorf("toast markup = %q", got)
	}

	h.sched.Advance(store.DefaultToastDuration)
	if h.UI.State().Toast != nil {
		t.Error("toast should hide after its duration")
	}
	if h.count("#toast") != 0 {
		t.Error("toast markup should be gone")
	}

	// Adding the same product again increases its quantity.
	h.do(h.Window.Document.Click(`.product-card[data-product-id="85067212996"] .add-to-cart-btn`))
	item, _ := h.Cart.Item("85067212996")
	if item.Quantity != 2 || h.Cart.Count() != 1 {
		t.Errorf("quantity = %d count = %d, want 2 and 1", item.Quantity, h.Cart.Count())
	}
}

func TestFilters(t *testing.T) {
	h := newHarness(t, "http://localhost/", false)
	h.sched.Flush()
	doc := h.Window.Document

	h.do(doc.Click(`.category1-filter-btn[data-category1="Digital/Appliances"]`))
	q := h.Router.Query()
	if q.Get("category1") != "Digital/Appliances" || q.Get("page") != "1" {
		t.Fatalf("query = %q", q.Encode())
	}
	if diff := cmp.Diff([]string{"81029384756", "88320017452", "80011223344", "84455201987"}, h.cardIDs()); diff != "" {
		t.Errorf("category1 cards (-want +got):\n%s", diff)
	}
	if n := h.count(".category2-filter-btn"); n != 2 {
		t.Errorf("category2 buttons = %d, want 2", n)
	}

	h.do(doc.Click(`.category2-filter-btn[data-category2="Audio"]`))
	if diff := cmp.Diff([]string{"88320017452", "84455201987"}, h.cardIDs()); diff != "" {
		t.Errorf("category2 cards (-want +got):\n%s", diff)
	}

	h.do(doc.Change("#sort-select", catalog.SortPriceDesc))
	if diff := cmp.Diff([]string{"84455201987", "88320017452"}, h.cardIDs()); diff != "" {
		t.Errorf("sorted cards (-want +got):\n%s", diff)
	}
	if el, _ := h.Root().QuerySelector("#sort-select"); el.Value() != catalog.SortPriceDesc {
		t.Errorf("sort select = %q", el.Value())
	}

	h.do(doc.Click(`[data-breadcrumb="reset"]`))
	q = h.Router.Query()
	if q.Has("category1") || q.Has("category2") || q.Get("sort") != catalog.SortPriceDesc {
		t.Errorf("query after reset = %q", q.Encode())
	}
	if n := len(h.cardIDs()); n != 12 {
		t.Errorf("cards after reset = %d, want 12", n)
	}

	h.do(doc.Change("#limit-select", "10"))
	if n := len(h.cardIDs()); n != 10 {
		t.Errorf("cards with limit 10 = %d", n)
	}
	if got := h.text(".pagination"); got != "Page 1 of 2" {
		t.Errorf("pagination = %q", got)
	}
}

func TestSearchOnEnter(t *testing.T) {
	h := newHarness(t, "http://localhost/", false)
	h.sched.Flush()
	doc := h.Window.Document

	if err := doc.Input("#search-input", "jeans"); err != nil {
		t.Fatal(err)
	}
	if h.Router.Query().Has("search") {
		t.Fatal("typing alone should not navigate")
	}
	h.do(doc.KeyDown("#search-input", "Enter"))
	if diff := cmp.Diff([]string{"85544332211"}, h.cardIDs()); diff != "" {
		t.Errorf("search cards (-want +got):\n%s", diff)
	}

	// Enter elsewhere does nothing.
	h.do(doc.KeyDown("", "Enter"))
	if got := h.Router.Query().Get("search"); got != "jeans" {
		t.Errorf("search = %q", got)
	}
}

func TestProductPage(t *testing.T) {
	h := newHarness(t, "http://localhost/", false)
	h.sched.Flush()
	doc := h.Window.Document

	h.do(doc.Click(`.product-card[data-product-id="86940857379"] .product-image`))
	if got := h.Router.Path(); got != "/product/86940857379" {
		t.Fatalf("path = %q", got)
	}
	if h.Renderer.ActiveID() != ProductID {
		t.Fatalf("active = %q", h.Renderer.ActiveID())
	}
	if got := h.text(".product-detail-title"); got != "Ceramic Coated Frying Pan 28cm" {
		t.Errorf("title = %q", got)
	}
	if n := h.count(".related-product-card"); n != 2 {
		t.Errorf("related = %d, want 2", n)
	}

	h.do(doc.Click("#quantity-increase"))
	h.do(doc.Click("#quantity-increase"))
	h.do(doc.Click("#quantity-decrease"))
	h.do(doc.Click("#quantity-increase"))
	h.do(doc.Click("#add-to-cart-btn"))
	item, ok := h.Cart.Item("86940857379")
	if !ok || item.Quantity != 3 || item.Price != 23900 {
		t.Errorf("cart item = %+v, %v", item, ok)
	}

	h.do(doc.Click(`.related-product-card[data-product-id="82094468339"] h3`))
	if got := h.Router.Path(); got != "/product/82094468339" {
		t.Fatalf("path = %q", got)
	}
	if got := h.text(".product-detail-title"); got != "Stainless Steel Electric Kettle 1.7L" {
		t.Errorf("title after related click = %q", got)
	}

	h.do(doc.Click(`[data-breadcrumb="category1"]`))
	if h.Renderer.ActiveID() != HomeID {
		t.Fatalf("breadcrumb should open the list, active = %q", h.Renderer.ActiveID())
	}
	if got := h.Router.Query().Get("category1"); got != "Living/Health" {
		t.Errorf("category1 = %q", got)
	}
	if n := len(h.cardIDs()); n != 5 {
		t.Errorf("cards = %d, want 5", n)
	}
}

func TestQuantityClampsToStock(t *testing.T) {
	h := newHarness(t, "http://localhost/product/82094468339", false)
	h.sched.Flush()
	doc := h.Window.Document

	in, _ := h.Root().QuerySelector("#quantity-input")
	in.SetValue("12")
	h.do(doc.Click("#quantity-increase"))
	if got := in.Value(); got != "12" {
		t.Errorf("quantity = %q, want clamped to stock 12", got)
	}
	in.SetValue("1")
	h.do(doc.Click("#quantity-decrease"))
	if got := in.Value(); got != "1" {
		t.Errorf("quantity = %q, want floor 1", got)
	}
}

func TestProductNotFound(t *testing.T) {
	h := newHarness(t, "http://localhost/product/missing", false)
	h.sched.Flush()

	ui := h.UI.State()
	if ui.Toast == nil || ui.Toast.Type != toast.TypeError || ui.Toast.Message != "Product not found" {
		t.Errorf("toast = %+v", ui.Toast)
	}
	if h.count(".load-error") != 1 {
		t.Error("error message not rendered")
	}

	h.do(h.Window.Document.Click(".load-error a[data-link]"))
	if h.Renderer.ActiveID() != HomeID || h.Router.Path() != "/" {
		t.Errorf("link should open the list, got %q at %q", h.Renderer.ActiveID(), h.Router.Path())
	}
}

func TestCartModal(t *testing.T) {
	h := newHarness(t, "http://localhost/", false)
	h.sched.Flush()
	doc := h.Window.Document

	h.do(doc.Click(`.product-card[data-product-id="85067212996"] .add-to-cart-btn`))
	h.do(doc.Click(`.product-card[data-product-id="83512310774"] .add-to-cart-btn`))

	h.do(doc.Click("#cart-icon-btn"))
	if h.count(".cart-modal") != 1 {
		t.Fatal("modal not open")
	}
	if n := h.count(".cart-item"); n != 2 {
		t.Fatalf("cart items = %d", n)
	}

	h.do(doc.Click(`.quantity-increase-btn[data-product-id="83512310774"]`))
	if el, _ := h.Root().QuerySelector(`input.quantity-input[data-product-id="83512310774"]`); el.Value() != "2" {
		t.Errorf("quantity input = %q, want 2", el.Value())
	}
	if got := h.text("#cart-total"); got != "12,020원" {
		t.Errorf("total = %q", got)
	}

	h.do(doc.Change(`.cart-item-checkbox[data-product-id="85067212996"]`, ""))
	if !h.Cart.IsSelected("85067212996") {
		t.Fatal("checkbox change should select the item")
	}
	h.do(doc.Click("#cart-modal-remove-selected-btn"))
	if _, ok := h.Cart.Item("85067212996"); ok || h.Cart.Count() != 1 {
		t.Errorf("remove selected left %d items", h.Cart.Count())
	}
	if ui := h.UI.State(); ui.Toast == nil || ui.Toast.Message != MsgSelectedRemoved {
		t.Errorf("toast = %+v", ui.Toast)
	}

	h.do(doc.Change("#cart-modal-select-all-checkbox", ""))
	if !h.Cart.State().IsAllSelected {
		t.Error("select all should select every item")
	}

	// Clicks inside the modal do not close it; the backdrop does.
	h.do(doc.Click(".cart-modal h2"))
	if !h.UI.State().CartModalOpen {
		t.Fatal("click inside the modal closed it")
	}
	h.do(doc.Click(".cart-modal-overlay"))
	if h.UI.State().CartModalOpen {
		t.Fatal("backdrop click should close the modal")
	}

	h.do(doc.Click("#cart-icon-btn"))
	h.do(doc.KeyDown("", "Escape"))
	if h.UI.State().CartModalOpen || h.count(".cart-modal") != 0 {
		t.Error("Escape should close the modal")
	}

	h.do(doc.Click("#cart-icon-btn"))
	h.do(doc.Click("#cart-modal-clear-cart-btn"))
	if h.Cart.Count() != 0 || h.count(".cart-empty") != 1 {
		t.Error("clear should empty the cart")
	}
	h.do(doc.Click("#cart-modal-close-btn"))
	if h.UI.State().CartModalOpen {
		t.Error("close button should close the modal")
	}
}

func TestPatchQuantityMatchesByDataset(t *testing.T) {
	h := newHarness(t, "http://localhost/", false)
	h.sched.Flush()
	doc := h.Window.Document

	h.do(doc.Click(`.product-card[data-product-id="85067212996"] .add-to-cart-btn`))
	h.do(doc.Click(`.product-card[data-product-id="83512310774"] .add-to-cart-btn`))
	h.do(doc.Click("#cart-icon-btn"))

	value := func(id string) string {
		t.Helper()
		inputs, err := h.Root().QuerySelectorAll("input.quantity-input")
		if err != nil {
			t.Fatal(err)
		}
		for _, in := range inputs {
			if in.Dataset("product-id") == id {
				return in.Value()
			}
		}
		t.Fatalf("no quantity input for %s", id)
		return ""
	}

	h.patchQuantity("83512310774", 9)
	if got := value("83512310774"); got != "9" {
		t.Errorf("patched input = %q, want 9", got)
	}
	if got := value("85067212996"); got != "1" {
		t.Errorf("other input = %q, want 1", got)
	}

	// Ids that would break a selector are compared literally.
	h.patchQuantity(`8351"2310774`, 5)
	if got := value("83512310774"); got != "9" {
		t.Errorf("input after quoted id = %q, want 9", got)
	}
}

func TestSupersededLoadIsDropped(t *testing.T) {
	h := newHarness(t, "http://localhost/", true)
	h.jobs[0]()
	h.sched.Flush()
	doc := h.Window.Document

	h.do(doc.Change("#sort-select", catalog.SortPriceDesc))
	h.do(doc.Change("#limit-select", "10"))
	if len(h.jobs) != 3 {
		t.Fatalf("loads = %d, want 3", len(h.jobs))
	}
	if h.count(".skeleton") == 0 {
		t.Error("a reload should show the skeleton")
	}

	// Newest first: the older result must not overwrite it.
	h.jobs[2]()
	h.jobs[1]()
	h.sched.Flush()

	ids := h.cardIDs()
	if len(ids) != 10 || ids[0] != "84455201987" {
		t.Errorf("cards = %v", ids)
	}
}

func TestLoadAfterNavigationIsIgnored(t *testing.T) {
	h := newHarness(t, "http://localhost/", true)
	if err := h.Navigate("/product/85067212996"); err != nil {
		t.Fatal(err)
	}
	h.jobs[0]()
	h.jobs[1]()
	h.sched.Flush()

	if h.Renderer.ActiveID() != ProductID {
		t.Fatalf("active = %q", h.Renderer.ActiveID())
	}
	if h.count("#products-grid") != 0 {
		t.Error("home load leaked into the product page")
	}
	if ui := h.UI.State(); ui.Toast != nil {
		t.Errorf("cancelled load raised a toast: %+v", ui.Toast)
	}
}

func TestRenderPage(t *testing.T) {
	markup, err := RenderPage(context.Background(), Options{
		Options: app.Options{
			URL:    "http://localhost/?category1=Fashion&sort=name_asc",
			Logger: quietLogger,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(markup, `class="product-card"`); n != 3 {
		t.Errorf("product cards = %d, want 3\n%s", n, markup)
	}
	if strings.Contains(markup, "skeleton") {
		t.Error("rendered page still has skeletons")
	}

	doc, err := Document("Storefront", app.DefaultRootID, markup)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(doc, "<!DOCTYPE html>") || !strings.Contains(doc, `<div id="root">`) {
		t.Errorf("document = %.200s", doc)
	}
}

// blockingCatalog never answers until its context is cancelled.
type blockingCatalog struct{}

func (blockingCatalog) Products(ctx context.Context, _ catalog.Filter) (*catalog.ProductList, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingCatalog) Product(ctx context.Context, _ string) (*catalog.Product, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingCatalog) Categories(ctx context.Context) ([]catalog.Category, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRenderPageTimesOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := RenderPage(ctx, Options{
		Options: app.Options{URL: "http://localhost/", Logger: quietLogger},
		Catalog: blockingCatalog{},
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if !errors.Is(err, apperrors.New("E400")) {
		t.Errorf("err = %v, want E400", err)
	}
}
