package catalog

import (
	"cmp"
	"context"
	_ "embed"
	"slices"
	"strings"
	"sync"

	"github.com/vango-dev/storefront/internal/errors"
)

//go:embed fixtures/products.json
var defaultFixture []byte

// Memory serves products from memory. It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	products []Product
}

// NewMemory creates a service over products.
func NewMemory(products []Product) *Memory {
	return &Memory{products: slices.Clone(products)}
}

// Default returns a service over the embedded fixture.
func Default() *Memory {
	products, err := Decode(defaultFixture)
	if err != nil {
		panic("catalog: embedded fixture: " + err.Error())
	}
	return NewMemory(products)
}

// Replace swaps the product set.
func (m *Memory) Replace(products []Product) {
	m.mu.Lock()
	m.products = slices.Clone(products)
	m.mu.Unlock()
}

// Len returns the number of products.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.products)
}

func (m *Memory) snapshot() []Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.products)
}

// Products filters, sorts and paginates the catalog.
func (m *Memory) Products(ctx context.Context, f Filter) (*ProductList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f = f.Normalize()
	search := strings.ToLower(strings.TrimSpace(f.Search))

	matched := slices.DeleteFunc(m.snapshot(), func(p Product) bool {
		if f.Category1 != "" && p.Category1 != f.Category1 {
			return true
		}
		if f.Category2 != "" && p.Category2 != f.Category2 {
			return true
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Brand), search) {
			return true
		}
		return false
	})

	slices.SortStableFunc(matched, func(a, b Product) int {
		switch f.Sort {
		case SortPriceDesc:
			return cmp.Compare(b.LPrice, a.LPrice)
		case SortNameAsc:
			return strings.Compare(a.Title, b.Title)
		case SortNameDesc:
			return strings.Compare(b.Title, a.Title)
		default:
			return cmp.Compare(a.LPrice, b.LPrice)
		}
	})

	total := len(matched)
	totalPages := (total + f.Limit - 1) / f.Limit
	start := min((f.Page-1)*f.Limit, total)
	end := min(start+f.Limit, total)

	return &ProductList{
		Products: matched[start:end:end],
		Pagination: Pagination{
			Page:       f.Page,
			Limit:      f.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    f.Page < totalPages,
			HasPrev:    f.Page > 1,
		},
		Filters: f,
	}, nil
}

// Product returns the product with id.
func (m *Memory) Product(ctx context.Context, id string) (*Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.products {
		if p.ProductID == id {
			return &p, nil
		}
	}
	return nil, errors.New("E300").WithMessagef("product %q not found", id)
}

// Categories returns category1 values with their category2 children, both
// in first-seen order.
func (m *Memory) Categories(ctx context.Context) ([]Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Category
	index := map[string]int{}
	for _, p := range m.products {
		if p.Category1 == "" {
			continue
		}
		i, ok := index[p.Category1]
		if !ok {
			i = len(out)
			index[p.Category1] = i
			out = append(out, Category{Name: p.Category1})
		}
		if p.Category2 != "" && !slices.Contains(out[i].Children, p.Category2) {
			out[i].Children = append(out[i].Children, p.Category2)
		}
	}
	return out, nil
}

// Related returns up to limit products sharing p's category2, excluding p.
func Related(ctx context.Context, svc Service, p *Product, limit int) ([]Product, error) {
	list, err := svc.Products(ctx, Filter{
		Category1: p.Category1,
		Category2: p.Category2,
		Limit:     limit + 1,
	})
	if err != nil {
		return nil, err
	}
	related := slices.DeleteFunc(list.Products, func(other Product) bool {
		return other.ProductID == p.ProductID
	})
	if len(related) > limit {
		related = related[:limit]
	}
	return related, nil
}
