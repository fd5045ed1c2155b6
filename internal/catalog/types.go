package catalog

import "math"

// Sort orders accepted by FilterSpec.SortBy. An unrecognized value behaves
// like SortLatest.
const (
	SortLatest    = "latest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortName      = "name"
	SortRating    = "rating"
)

// CategoryAll matches every category.
const CategoryAll = "all"

// Product is one record of the upstream product feed. Fields the pipeline does
// not inspect travel through untouched.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Category      string  `json:"category,omitempty"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"originalPrice,omitempty"`
	Stock         int     `json:"stock"`
	Rating        float64 `json:"rating,omitempty"`
	Image         string  `json:"image,omitempty"`
}

// OnSale reports whether the product carries a discount: an original price is
// present and strictly greater than the current price. This is the single
// sale predicate; discount display must derive from it.
func (p Product) OnSale() bool {
	return p.OriginalPrice > 0 && p.OriginalPrice > p.Price
}

// DiscountPercent returns the discount as a whole percentage, 0 when the
// product is not on sale.
func (p Product) DiscountPercent() int {
	if !p.OnSale() {
		return 0
	}
	return int(math.Round((p.OriginalPrice - p.Price) / p.OriginalPrice * 100))
}

// FilterSpec drives one catalog query. The zero value means: first page,
// no filtering, input order. Limit must be >= 1 for a non-empty page.
type FilterSpec struct {
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Search     string    `json:"search,omitempty"`
	Category   string    `json:"category,omitempty"`
	SortBy     string    `json:"sortBy,omitempty"`
	PriceRange []float64 `json:"priceRange,omitempty"`
	Rating     float64   `json:"rating,omitempty"`
	InStock    bool      `json:"inStock,omitempty"`
	OnSale     bool      `json:"onSale,omitempty"`
}

// priceBounds returns the inclusive [min, max] price window. A malformed range
// (wrong length, min > max, NaN) fails open to an unbounded window because the
// values originate from user-editable form fields.
func (s FilterSpec) priceBounds() (float64, float64) {
	if len(s.PriceRange) != 2 {
		return 0, math.Inf(1)
	}
	min, max := s.PriceRange[0], s.PriceRange[1]
	if math.IsNaN(min) || math.IsNaN(max) || min > max {
		return 0, math.Inf(1)
	}
	return min, max
}

// Result is the visible page of one catalog query plus derived counts.
type Result struct {
	Page       []Product `json:"products"`
	TotalCount int       `json:"totalCount"`
	TotalPages int       `json:"totalPages"`
}
