package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Query runs the catalog pipeline: filter, then stable sort, then paginate.
// It never mutates products; calling it twice with the same inputs yields the
// same result.
func Query(products []Product, spec FilterSpec) Result {
	filtered := filter(products, spec)
	sortProducts(filtered, spec.SortBy)

	totalCount := len(filtered)

	// limit <= 0 cannot produce a meaningful page
	if spec.Limit < 1 {
		return Result{Page: []Product{}, TotalCount: totalCount, TotalPages: 0}
	}

	totalPages := (totalCount + spec.Limit - 1) / spec.Limit

	page := spec.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * spec.Limit
	if start >= totalCount {
		return Result{Page: []Product{}, TotalCount: totalCount, TotalPages: totalPages}
	}
	end := start + spec.Limit
	if end > totalCount {
		end = totalCount
	}

	return Result{Page: filtered[start:end:end], TotalCount: totalCount, TotalPages: totalPages}
}

// filter returns a new slice with every product that passes all active
// predicates, preserving input order.
func filter(products []Product, spec FilterSpec) []Product {
	minPrice, maxPrice := spec.priceBounds()
	search := strings.ToLower(strings.TrimSpace(spec.Search))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if spec.Category != "" && spec.Category != CategoryAll && p.Category != spec.Category {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		if p.Price < minPrice || p.Price > maxPrice {
			continue
		}
		if spec.Rating > 0 && p.Rating < spec.Rating {
			continue
		}
		if spec.InStock && p.Stock <= 0 {
			continue
		}
		if spec.OnSale && !p.OnSale() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// matchesSearch reports a case-insensitive substring match against name,
// description or category. search must already be lowercased.
func matchesSearch(p Product, search string) bool {
	return strings.Contains(strings.ToLower(p.Name), search) ||
		strings.Contains(strings.ToLower(p.Description), search) ||
		strings.Contains(strings.ToLower(p.Category), search)
}

// sortProducts orders the slice in place by the given sort key. Equal keys
// keep their relative input order. SortLatest and unknown keys leave the
// upstream order (newest first) untouched.
func sortProducts(products []Product, sortBy string) {
	switch sortBy {
	case SortPriceLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price < products[j].Price
		})
	case SortPriceHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price > products[j].Price
		})
	case SortName:
		c := collate.New(language.English)
		sort.SliceStable(products, func(i, j int) bool {
			return c.CompareString(products[i].Name, products[j].Name) < 0
		})
	case SortRating:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Rating > products[j].Rating
		})
	}
}
