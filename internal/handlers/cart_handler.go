package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/imrishuroy/go-storefront-api/internal/cart"
	"github.com/imrishuroy/go-storefront-api/internal/catalog"
	"github.com/imrishuroy/go-storefront-api/internal/validation"
)

// cartResponse is the JSON shape every cart endpoint responds with.
func cartResponse(c *cart.Cart) gin.H {
	return gin.H{
		"items":     c.Items(),
		"total":     c.Total(),
		"itemCount": c.ItemCount(),
	}
}

// RegisterCartRoutes registers the session cart routes. Cart ids are opaque
// session identifiers; POST /carts mints a fresh one.
func RegisterCartRoutes(r *gin.Engine, cfg HandlerConfig, cartStore *cart.Store, v *validatorv10.Validate) {
	r.POST("/carts", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"cartId": uuid.NewString()})
	})

	r.GET("/carts/:id", func(c *gin.Context) {
		ct, err := cartStore.Load(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart_load_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, cartResponse(ct))
	})

	r.POST("/carts/:id/items", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.AddItemRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		products, err := cfg.Snapshot.Products(ctx)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "products_unavailable", "detail": err.Error()})
			return
		}
		product, ok := findProduct(products, req.ProductID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
			return
		}
		// stock gate lives here, not in the aggregator
		if product.Stock <= 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "out_of_stock"})
			return
		}

		ct, err := cartStore.Load(ctx, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart_load_failed", "detail": err.Error()})
			return
		}
		ct.Add(product, req.Quantity)
		if err := cartStore.Save(ctx, c.Param("id"), ct); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart_save_failed", "detail": err.Error()})
			return
		}

		cfg.Metrics.Count(ctx, "CartItemAdded", float64(req.Quantity), nil)
		c.JSON(http.StatusOK, cartResponse(ct))
	})

	r.PUT("/carts/:id/items/:productID", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.SetQuantityRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		ct, err := cartStore.Load(ctx, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart_load_failed", "detail": err.Error()})
			return
		}
		if !ct.SetQuantity(c.Param("productID"), req.Quantity) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item_not_in_cart"})
			return
		}
		if err := cartStore.Save(ctx, c.Param("id"), ct); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart_save_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, cartResponse(ct))
	})

	r.DELETE("/carts/:id/items/:productID", func(c *gin.Context) {
		ctx := c.Request.Context()

		ct, err := cartStore.Load(ctx, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart_load_failed", "detail": err.Error()})
			return
		}
		ct.Remove(c.Param("productID"))
		if err := cartStore.Save(ctx, c.Param("id"), ct); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart_save_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, cartResponse(ct))
	})

	r.DELETE("/carts/:id", func(c *gin.Context) {
		if err := cartStore.Delete(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart_delete_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, cartResponse(cart.New()))
	})
}

func findProduct(products []catalog.Product, id string) (catalog.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return catalog.Product{}, false
}
