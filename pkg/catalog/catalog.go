// Package catalog is the product data service the storefront pages load
// from.
//
// Service is the boundary the pages depend on. Memory is the bundled
// implementation: it serves an embedded fixture, or a JSON file that can
// be reloaded on change with Watch.
package catalog

import (
	"context"

	"github.com/vango-dev/storefront/internal/errors"
)

// ErrProductNotFound matches, with errors.Is, the error Product returns
// for an unknown id.
var ErrProductNotFound = errors.New("E300")

// Sort orders.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNameAsc   = "name_asc"
	SortNameDesc  = "name_desc"
)

// Filter defaults.
const (
	DefaultSort  = SortPriceAsc
	DefaultLimit = 20
	DefaultPage  = 1
)

// Product is one catalog entry. Prices are in the smallest currency unit.
type Product struct {
	ProductID   string  `json:"productId"`
	Title       string  `json:"title"`
	Link        string  `json:"link,omitempty"`
	Image       string  `json:"image"`
	LPrice      int64   `json:"lprice"`
	HPrice      int64   `json:"hprice,omitempty"`
	MallName    string  `json:"mallName,omitempty"`
	Brand       string  `json:"brand,omitempty"`
	Maker       string  `json:"maker,omitempty"`
	Category1   string  `json:"category1"`
	Category2   string  `json:"category2"`
	Category3   string  `json:"category3,omitempty"`
	Category4   string  `json:"category4,omitempty"`
	Stock       int     `json:"stock"`
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"reviewCount,omitempty"`
}

// Category is a top-level category and its subcategories.
type Category struct {
	Name     string   `json:"name"`
	Children []string `json:"children"`
}

// Filter selects and orders a page of products.
type Filter struct {
	Category1 string
	Category2 string
	Search    string
	Sort      string
	Limit     int
	Page      int
}

// Normalize fills defaults and clamps invalid values.
func (f Filter) Normalize() Filter {
	switch f.Sort {
	case SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc:
	default:
		f.Sort = DefaultSort
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Page <= 0 {
		f.Page = DefaultPage
	}
	return f
}

// Pagination describes the page a ProductList holds.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// ProductList is one page of products.
type ProductList struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
	Filters    Filter     `json:"-"`
}

// Service loads catalog data.
type Service interface {
	Products(ctx context.Context, f Filter) (*ProductList, error)
	Product(ctx context.Context, id string) (*Product, error)
	Categories(ctx context.Context) ([]Category, error)
}
