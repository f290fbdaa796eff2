package catalog

import (
	"sort"
	"strings"

	"github.com/windora/fanstore/pkg/types"
)

// SortProducts orders matches in place. Supported keys are ProductID, Price
// and Name; anything else falls back to ProductID. Order is ASC or DESC,
// DESC when absent or unknown.
func SortProducts(products []*types.Product, sortBy, order string) {
	asc := strings.EqualFold(order, "ASC")
	var less func(a, b *types.Product) bool
	switch sortBy {
	case "Price":
		less = func(a, b *types.Product) bool {
			if a.Price != b.Price {
				return a.Price < b.Price
			}
			return a.Id < b.Id
		}
	case "Name":
		less = func(a, b *types.Product) bool {
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.Id < b.Id
		}
	default:
		less = func(a, b *types.Product) bool {
			return a.Id < b.Id
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		if asc {
			return less(products[i], products[j])
		}
		return less(products[j], products[i])
	})
}

// Page slices out one page of an already sorted result.
func Page(products []*types.Product, page, pageSize int) []*types.Product {
	if pageSize <= 0 {
		pageSize = 20
	}
	start := page * pageSize
	if start >= len(products) {
		return []*types.Product{}
	}
	end := start + pageSize
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}
