package storefront

import (
	"github.com/spf13/cast"

	"github.com/vango-dev/storefront/pkg/catalog"
	"github.com/vango-dev/storefront/pkg/urlparam"
)

// State keys shared by the pages.
const (
	keyLoading    = "loading"
	keyError      = "error"
	keyProducts   = "products"
	keyPagination = "pagination"
	keyCategories = "categories"
	keyProduct    = "product"
	keyRelated    = "related"
)

// Query parameters the list page reads.
const (
	ParamCategory1 = "category1"
	ParamCategory2 = "category2"
	ParamSearch    = "search"
	ParamSort      = "sort"
	ParamLimit     = "limit"
	ParamPage      = "page"
)

// LimitOptions are the page sizes offered by the limit select.
var LimitOptions = []int{10, 20, 50, 100}

// FilterFromQuery reads the list filter from the URL query. Missing or
// unparsable values fall back to the catalog defaults.
func FilterFromQuery(q urlparam.Values) catalog.Filter {
	return catalog.Filter{
		Category1: q.Get(ParamCategory1),
		Category2: q.Get(ParamCategory2),
		Search:    q.Get(ParamSearch),
		Sort:      q.Get(ParamSort),
		Limit:     cast.ToInt(q.Get(ParamLimit)),
		Page:      cast.ToInt(q.Get(ParamPage)),
	}.Normalize()
}
