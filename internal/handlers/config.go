package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-storefront-api/internal/aws"
	"github.com/imrishuroy/go-storefront-api/internal/cart"
	"github.com/imrishuroy/go-storefront-api/internal/catalog"
	"github.com/imrishuroy/go-storefront-api/internal/kv"
	"github.com/imrishuroy/go-storefront-api/internal/prefs"
	"github.com/imrishuroy/go-storefront-api/internal/validation"
)

// HandlerConfig groups dependencies for the storefront handlers.
type HandlerConfig struct {
	Snapshot         *catalog.SnapshotCache
	KV               kv.Store
	DynamoDBClient   aws.DynamoDBAPI
	SQSClient        aws.SQSAPI
	Metrics          *aws.Metrics
	IdempotencyTable string
	CheckoutsTable   string
	QueueURL         string
	TTLWindow        time.Duration
}

// RegisterRoutes wires every storefront route group onto the router.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	cartStore := cart.NewStore(cfg.KV)
	prefsStore := prefs.NewStore(cfg.KV)

	RegisterCatalogRoutes(r, cfg)
	RegisterCartRoutes(r, cfg, cartStore, v)
	RegisterPreferencesRoutes(r, prefsStore, v)
	RegisterCheckoutRoutes(r, cfg, cartStore, v)
}
