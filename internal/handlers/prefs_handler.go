package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-storefront-api/internal/prefs"
	"github.com/imrishuroy/go-storefront-api/internal/validation"
)

// RegisterPreferencesRoutes registers the appearance preferences routes.
func RegisterPreferencesRoutes(r *gin.Engine, prefsStore *prefs.Store, v *validatorv10.Validate) {
	r.GET("/preferences/:id", func(c *gin.Context) {
		p, err := prefsStore.Load(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "preferences_load_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, p)
	})

	r.PUT("/preferences/:id", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.PreferencesRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		// partial update over whatever is stored (or the defaults)
		p, err := prefsStore.Load(ctx, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "preferences_load_failed", "detail": err.Error()})
			return
		}
		if req.Theme != "" {
			p.Theme = req.Theme
		}
		if req.Language != "" {
			p.Language = req.Language
		}
		if req.FontSize != "" {
			p.FontSize = req.FontSize
		}

		if err := prefsStore.Save(ctx, c.Param("id"), p); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "preferences_save_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, p)
	})
}
