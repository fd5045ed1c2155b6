package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/imrishuroy/go-storefront-api/internal/aws"
	"github.com/imrishuroy/go-storefront-api/internal/cart"
	"github.com/imrishuroy/go-storefront-api/internal/checkout"
	"github.com/imrishuroy/go-storefront-api/internal/idempotency"
	"github.com/imrishuroy/go-storefront-api/internal/validation"
)

// RegisterCheckoutRoutes registers the checkout handoff route. Checkout
// processing itself happens downstream; this endpoint records the handoff and
// enqueues it, exactly once per Idempotency-Key.
func RegisterCheckoutRoutes(r *gin.Engine, cfg HandlerConfig, cartStore *cart.Store, v *validatorv10.Validate) {
	idempStore := idempotency.NewStore(cfg.DynamoDBClient, cfg.IdempotencyTable, cfg.TTLWindow)
	checkoutStore := checkout.NewStore(cfg.DynamoDBClient, cfg.CheckoutsTable)
	publisher := aws.NewPublisher(cfg.SQSClient, cfg.QueueURL)

	r.POST("/carts/:id/checkout", func(c *gin.Context) {
		ctx := c.Request.Context()
		cartID := c.Param("id")

		// Bind + validate request (amount must equal sum of item price*qty)
		var req validation.CheckoutRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		// Require idempotency key header
		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_idempotency_key"})
			return
		}

		// The server's cart is the source of truth; the client's claimed
		// amount must match it or the cart changed under them.
		ct, err := cartStore.Load(ctx, cartID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart_load_failed", "detail": err.Error()})
			return
		}
		if ct.Len() == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "cart_empty"})
			return
		}
		if int(math.Round(ct.Total()*100)) != int(math.Round(req.Amount*100)) {
			c.JSON(http.StatusConflict, gin.H{"error": "cart_changed", "total": ct.Total()})
			return
		}

		checkoutID := uuid.NewString()

		now := time.Now().UTC()
		idempItem := map[string]interface{}{
			"idempotency_key": idempKey,
			"status":          idempotency.StatusInProgress,
			"created_at":      now.Format(time.RFC3339),
			"updated_at":      now.Format(time.RFC3339),
			"checkout_id":     checkoutID,
		}

		chk := checkout.Checkout{
			CheckoutID: checkoutID,
			CartID:     cartID,
			Status:     checkout.StatusPending,
			Amount:     ct.Total(),
			Metadata:   req.Metadata,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		items := make([]checkout.Item, 0, ct.Len())
		for _, it := range ct.Items() {
			items = append(items, checkout.Item{
				ProductID: it.ProductID,
				Name:      it.Name,
				Price:     it.Price,
				Quantity:  it.Quantity,
			})
		}
		chk.Items = items

		// Attempt the transact write to create idempotency + checkout atomically
		err = checkoutStore.CreateWithIdempotencyTransaction(ctx, cfg.DynamoDBClient, cfg.IdempotencyTable, idempItem, chk, cfg.TTLWindow)
		if err != nil {
			// Transaction failed, most likely because the idempotency key
			// exists. Fetch the record and replay or report accordingly.
			rec, getErr := idempStore.Get(ctx, idempKey)
			if getErr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": getErr.Error()})
				return
			}
			if rec == nil {
				// Unexpected: transaction failed but no record found
				c.JSON(http.StatusInternalServerError, gin.H{"error": "transaction_failed_no_idempotency_record", "detail": err.Error()})
				return
			}
			switch rec.Status {
			case idempotency.StatusDone:
				// return stored response if present
				if rec.ResponseBody != "" {
					c.Data(rec.ResponseStatus, "application/json", []byte(rec.ResponseBody))
					return
				}
				c.JSON(http.StatusOK, gin.H{"checkout_id": rec.CheckoutID})
				return
			case idempotency.StatusInProgress:
				c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress", "checkout_id": rec.CheckoutID})
				return
			case idempotency.StatusFailed:
				// let client retry
				c.JSON(http.StatusInternalServerError, gin.H{"error": "previous_attempt_failed", "checkout_id": rec.CheckoutID})
				return
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
				return
			}
		}

		// Records created atomically; now enqueue the handoff. If SQS send
		// fails we mark idempotency FAILED so the client can retry.
		msgPayload := map[string]string{
			"checkout_id":     checkoutID,
			"cart_id":         cartID,
			"idempotency_key": idempKey,
		}
		payloadBytes, _ := json.Marshal(msgPayload)

		attrs := map[string]string{
			"idempotency_key": idempKey,
			"checkout_id":     checkoutID,
			"correlation_id":  c.GetHeader("X-Request-Id"),
		}

		if err := publisher.SendCheckoutMessage(ctx, string(payloadBytes), attrs); err != nil {
			_ = idempStore.MarkFailed(ctx, idempKey, fmt.Sprintf("sqs_send_failed: %v", err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed", "detail": err.Error()})
			return
		}

		// Store a minimal response in idempotency to return for duplicates
		responseBody, _ := json.Marshal(gin.H{"checkout_id": checkoutID, "status": checkout.StatusPending})
		_ = idempStore.MarkDone(ctx, idempKey, string(responseBody), http.StatusCreated)

		cfg.Metrics.Count(ctx, "CheckoutAccepted", 1, nil)

		c.Header("Location", fmt.Sprintf("/checkouts/%s", checkoutID))
		c.JSON(http.StatusCreated, gin.H{"checkout_id": checkoutID, "status": checkout.StatusPending})
	})

	r.GET("/checkouts/:id", func(c *gin.Context) {
		chk, err := checkoutStore.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout_fetch_failed", "detail": err.Error()})
			return
		}
		if chk == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "checkout_not_found"})
			return
		}
		c.JSON(http.StatusOK, chk)
	})
}
