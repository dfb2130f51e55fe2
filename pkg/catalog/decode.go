package catalog

import (
	"os"

	"github.com/tidwall/gjson"

	"github.com/vango-dev/storefront/internal/errors"
)

// Decode parses a JSON array of products. Prices may be numbers or numeric
// strings, as the upstream shopping API sends them. Entries without a
// productId are skipped.
func Decode(data []byte) ([]Product, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("E301").WithDetail("invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if doc.Get("products").IsArray() {
		doc = doc.Get("products")
	}
	if !doc.IsArray() {
		return nil, errors.New("E301")
	}

	var products []Product
	for _, entry := range doc.Array() {
		p := Product{
			ProductID:   entry.Get("productId").String(),
			Title:       entry.Get("title").String(),
			Link:        entry.Get("link").String(),
			Image:       entry.Get("image").String(),
			LPrice:      entry.Get("lprice").Int(),
			HPrice:      entry.Get("hprice").Int(),
			MallName:    entry.Get("mallName").String(),
			Brand:       entry.Get("brand").String(),
			Maker:       entry.Get("maker").String(),
			Category1:   entry.Get("category1").String(),
			Category2:   entry.Get("category2").String(),
			Category3:   entry.Get("category3").String(),
			Category4:   entry.Get("category4").String(),
			Stock:       int(entry.Get("stock").Int()),
			Rating:      entry.Get("rating").Float(),
			ReviewCount: int(entry.Get("reviewCount").Int()),
		}
		if p.ProductID == "" {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// LoadFile reads and decodes a product fixture.
func LoadFile(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E301").WithDetail(path).Wrap(err)
	}
	products, err := Decode(data)
	if err != nil {
		return nil, errors.FromError(err, "E301").WithDetail(path)
	}
	return products, nil
}
