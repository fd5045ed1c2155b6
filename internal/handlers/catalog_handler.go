package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-storefront-api/internal/catalog"
)

const defaultPageSize = 12

// RegisterCatalogRoutes registers the product browsing routes.
func RegisterCatalogRoutes(r *gin.Engine, cfg HandlerConfig) {
	r.GET("/products", func(c *gin.Context) {
		ctx := c.Request.Context()

		products, err := cfg.Snapshot.Products(ctx)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "products_unavailable", "detail": err.Error()})
			return
		}

		spec := parseFilterSpec(c)
		res := catalog.Query(products, spec)

		cfg.Metrics.Count(ctx, "CatalogQueryServed", 1, map[string]string{"SortBy": spec.SortBy})

		c.JSON(http.StatusOK, gin.H{
			"products":   res.Page,
			"totalCount": res.TotalCount,
			"totalPages": res.TotalPages,
			"page":       spec.Page,
			"limit":      spec.Limit,
		})
	})

	r.GET("/products/:id", func(c *gin.Context) {
		products, err := cfg.Snapshot.Products(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "products_unavailable", "detail": err.Error()})
			return
		}

		id := c.Param("id")
		for _, p := range products {
			if p.ID == id {
				c.JSON(http.StatusOK, gin.H{
					"product":         p,
					"onSale":          p.OnSale(),
					"discountPercent": p.DiscountPercent(),
				})
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
	})
}

// parseFilterSpec builds a FilterSpec from query params. Every param is
// optional and malformed values fail open to their defaults; the params
// originate from user-editable controls.
func parseFilterSpec(c *gin.Context) catalog.FilterSpec {
	spec := catalog.FilterSpec{
		Page:     1,
		Limit:    defaultPageSize,
		Category: c.DefaultQuery("category", catalog.CategoryAll),
		Search:   c.Query("search"),
		SortBy:   c.DefaultQuery("sortBy", catalog.SortLatest),
	}

	if v, err := strconv.Atoi(c.Query("page")); err == nil && v >= 1 {
		spec.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v >= 1 {
		spec.Limit = v
	}
	if v, err := strconv.ParseFloat(c.Query("rating"), 64); err == nil && v > 0 {
		spec.Rating = v
	}

	minStr, maxStr := c.Query("minPrice"), c.Query("maxPrice")
	if minStr != "" || maxStr != "" {
		min, errMin := strconv.ParseFloat(minStr, 64)
		max, errMax := strconv.ParseFloat(maxStr, 64)
		if errMin == nil || errMax == nil {
			if errMin != nil {
				min = 0
			}
			if errMax != nil {
				max = maxUnbounded
			}
			spec.PriceRange = []float64{min, max}
		}
	}

	spec.InStock = c.Query("inStock") == "true"
	spec.OnSale = c.Query("onSale") == "true"

	return spec
}

// maxUnbounded stands in for "no upper price bound" when only a lower bound
// was supplied.
const maxUnbounded = 1e18
