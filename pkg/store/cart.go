package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/tidwall/gjson"

	"github.com/vango-dev/storefront/internal/errors"
	"github.com/vango-dev/storefront/pkg/metrics"
	"github.com/vango-dev/storefront/pkg/observe"
	"github.com/vango-dev/storefront/pkg/storage"
)

// DefaultCartKey is the durable record key.
const DefaultCartKey = "cart"

// CartItem is one line of the cart. ProductID is unique within a cart.
type CartItem struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"`
}

// CartState is a snapshot of the cart.
type CartState struct {
	Items         []CartItem
	TotalAmount   int64
	Count         int
	SelectedItems []string
	IsAllSelected bool
}

// CartOption configures a CartStore.
type CartOption func(*CartStore)

// WithStorage sets the durable backend. The default is an in-memory store.
func WithStorage(kv storage.KV) CartOption {
	return func(c *CartStore) {
		c.kv = kv
	}
}

// WithCartKey overrides the durable record key.
func WithCartKey(key string) CartOption {
	return func(c *CartStore) {
		c.key = key
	}
}

// WithCartLogger sets the logger.
func WithCartLogger(logger *slog.Logger) CartOption {
	return func(c *CartStore) {
		c.logger = logger
	}
}

// WithCartMetrics sets the metrics collector.
func WithCartMetrics(m *metrics.Metrics) CartOption {
	return func(c *CartStore) {
		c.metrics = m
	}
}

// WithQuantityPatch registers a function called with the new quantity
// before subscribers are notified of an increment or decrement, so a
// quantity input can be patched in place ahead of the re-render.
func WithQuantityPatch(fn func(productID string, quantity int)) CartOption {
	return func(c *CartStore) {
		c.patchQuantity = fn
	}
}

// CartStore is the observable cart.
type CartStore struct {
	items    []CartItem
	selected []string

	kv            storage.KV
	key           string
	logger        *slog.Logger
	metrics       *metrics.Metrics
	patchQuantity func(string, int)
	subject       observe.Subject[CartState]
}

// NewCart creates a cart and rehydrates it from durable storage. A missing,
// unreadable or malformed record yields an empty cart.
func NewCart(ctx context.Context, opts ...CartOption) *CartStore {
	c := &CartStore{
		kv:     storage.NewMemory(),
		key:    DefaultCartKey,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rehydrate(ctx)
	return c
}

func (c *CartStore) rehydrate(ctx context.Context) {
	raw, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		c.metrics.StorageError("get")
		c.logger.Warn("cart record unreadable, starting empty", "key", c.key, "error", err)
		return
	}
	if !ok {
		return
	}
	items, err := decodeItems(raw)
	if err != nil {
		c.logger.Warn("cart record malformed, starting empty", "key", c.key, "error", err)
		return
	}
	c.items = items
}

// decodeItems parses a durable record. Numeric fields stored as strings
// are accepted; entries without an id are dropped, quantities are raised
// to 1 and duplicate ids are merged.
func decodeItems(raw []byte) ([]CartItem, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("E200").WithDetail("invalid JSON")
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		return nil, errors.New("E200").WithDetail("record is not an array")
	}

	var items []CartItem
	index := map[string]int{}
	for _, entry := range doc.Array() {
		item := CartItem{
			ProductID: entry.Get("productId").String(),
			Title:     entry.Get("title").String(),
			Price:     entry.Get("price").Int(),
			Image:     entry.Get("image").String(),
			Quantity:  int(entry.Get("quantity").Int()),
		}
		if item.ProductID == "" {
			continue
		}
		item.Price = max(item.Price, 0)
		item.Quantity = max(item.Quantity, 1)
		if i, dup := index[item.ProductID]; dup {
			items[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(items)
		items = append(items, item)
	}
	return items, nil
}

// Subscribe registers fn for every change. fn receives a snapshot.
func (c *CartStore) Subscribe(fn func(CartState)) (unsubscribe func()) {
	return c.subject.Subscribe(fn)
}

func (c *CartState) clone() CartState {
	return CartState{
		Items:         slices.Clone(c.Items),
		TotalAmount:   c.TotalAmount,
		Count:         c.Count,
		SelectedItems: slices.Clone(c.SelectedItems),
		IsAllSelected: c.IsAllSelected,
	}
}

// State returns a snapshot of the cart. Mutating it does not affect the
// store.
func (c *CartStore) State() CartState {
	s := CartState{
		Items:         c.items,
		TotalAmount:   c.totalAmount(),
		Count:         len(c.items),
		SelectedItems: c.selected,
		IsAllSelected: c.allSelected(),
	}
	s = s.clone()
	if s.Items == nil {
		s.Items = []CartItem{}
	}
	if s.SelectedItems == nil {
		s.SelectedItems = []string{}
	}
	return s
}

// Count returns the number of distinct products.
func (c *CartStore) Count() int { return len(c.items) }

// TotalAmount returns the sum of price times quantity.
func (c *CartStore) TotalAmount() int64 { return c.totalAmount() }

// Item returns the cart line for productID.
func (c *CartStore) Item(productID string) (CartItem, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.items[i], true
	}
	return CartItem{}, false
}

// IsSelected reports whether productID is selected.
func (c *CartStore) IsSelected(productID string) bool {
	return slices.Contains(c.selected, productID)
}

// SelectedCartItems returns the selected lines in cart order.
func (c *CartStore) SelectedCartItems() []CartItem {
	var out []CartItem
	for _, item := range c.items {
		if c.IsSelected(item.ProductID) {
			out = append(out, item)
		}
	}
	return out
}

func (c *CartStore) totalAmount() int64 {
	var total int64
	for _, item := range c.items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

func (c *CartStore) allSelected() bool {
	return len(c.items) > 0 && len(c.selected) == len(c.items)
}

func (c *CartStore) indexOf(productID string) int {
	return slices.IndexFunc(c.items, func(item CartItem) bool {
		return item.ProductID == productID
	})
}

// AddToCart adds item, or increases the quantity of the existing line with
// the same product id. A zero quantity counts as 1.
func (c *CartStore) AddToCart(item CartItem) error {
	if item.ProductID == "" {
		return errors.New("E001").WithDetail("empty product id")
	}
	if item.Price < 0 || item.Quantity < 0 {
		return errors.New("E001").WithDetail("negative price or quantity")
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}

	if i := c.indexOf(item.ProductID); i >= 0 {
		c.items[i].Quantity += item.Quantity
	} else {
		c.items = append(c.items, item)
	}
	c.commit("add", true)
	return nil
}

// DeleteProduct removes the line for productID and drops it from the
// selection.
func (c *CartStore) DeleteProduct(productID string) {
	c.items = slices.DeleteFunc(c.items, func(item CartItem) bool {
		return item.ProductID == productID
	})
	c.selected = slices.DeleteFunc(c.selected, func(id string) bool {
		return id == productID
	})
	c.commit("delete", true)
}

// DeleteSelectedItems removes every selected line and clears the selection.
func (c *CartStore) DeleteSelectedItems() {
	c.items = slices.DeleteFunc(c.items, func(item CartItem) bool {
		return c.IsSelected(item.ProductID)
	})
	c.selected = nil
	c.commit("delete_selected", true)
}

// ToggleSelectAll clears the selection when every line is selected, and
// selects every line otherwise.
func (c *CartStore) ToggleSelectAll() {
	if c.allSelected() {
		c.selected = nil
	} else {
		c.selected = make([]string, 0, len(c.items))
		for _, item := range c.items {
			c.selected = append(c.selected, item.ProductID)
		}
	}
	c.commit("toggle_all", false)
}

// ToggleSelectItem flips the selection of productID. Ids not in the cart
// are ignored.
func (c *CartStore) ToggleSelectItem(productID string) {
	if c.indexOf(productID) < 0 {
		return
	}
	if i := slices.Index(c.selected, productID); i >= 0 {
		c.selected = slices.Delete(c.selected, i, i+1)
	} else {
		c.selected = append(c.selected, productID)
	}
	c.commit("toggle_item", false)
}

// IncrementQuantity adds one to the line for productID.
func (c *CartStore) IncrementQuantity(productID string) {
	c.adjustQuantity(productID, +1, "increment")
}

// DecrementQuantity subtracts one from the line for productID, never going
// below 1. Subscribers are notified even when the quantity stays at 1.
func (c *CartStore) DecrementQuantity(productID string) {
	c.adjustQuantity(productID, -1, "decrement")
}

func (c *CartStore) adjustQuantity(productID string, delta int, op string) {
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.items[i].Quantity = max(c.items[i].Quantity+delta, 1)
	if c.patchQuantity != nil {
		c.patchQuantity(productID, c.items[i].Quantity)
	}
	c.commit(op, true)
}

// ClearCart empties the cart and removes the durable record.
func (c *CartStore) ClearCart() {
	c.items = nil
	c.selected = nil
	c.metrics.CartOp("clear")
	c.subject.Notify(c.State())
	if err := c.kv.Delete(context.Background(), c.key); err != nil {
		c.metrics.StorageError("delete")
		c.logger.Error("failed to remove cart record", "key", c.key, "error", err)
	}
}

// commit notifies subscribers and, when persist is set, writes the cart.
func (c *CartStore) commit(op string, persist bool) {
	c.metrics.CartOp(op)
	c.subject.Notify(c.State())
	if persist {
		c.persist()
	}
}

func (c *CartStore) persist() {
	items := c.items
	if items == nil {
		items = []CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		c.logger.Error("failed to encode cart", "error", err)
		return
	}
	if err := c.kv.Set(context.Background(), c.key, data); err != nil {
		c.metrics.StorageError("set")
		c.logger.Error("failed to persist cart", "key", c.key, "error", err)
	}
}
