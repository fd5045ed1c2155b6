package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-storefront-api/internal/aws"
	"github.com/imrishuroy/go-storefront-api/internal/catalog"
	"github.com/imrishuroy/go-storefront-api/internal/handlers"
	"github.com/imrishuroy/go-storefront-api/internal/kv"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	productsURL := os.Getenv("PRODUCTS_API_URL")
	if productsURL == "" {
		log.Fatalf("PRODUCTS_API_URL is required")
	}

	snapshotTTL := 60 * time.Second
	if v := os.Getenv("SNAPSHOT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("invalid SNAPSHOT_TTL %q: %v", v, err)
		}
		snapshotTTL = d
	}

	// Session state (carts, preferences) lives behind the key-value port.
	// Without a table we fall back to process memory for local development.
	var sessions kv.Store
	if table := os.Getenv("SESSIONS_TABLE"); table != "" {
		sessions = kv.NewDynamoStore(clients.DynamoDB, table, 30*24*time.Hour)
	} else {
		log.Printf("SESSIONS_TABLE not set, using in-memory session store")
		sessions = kv.NewMemoryStore()
	}

	var metrics *aws.Metrics
	if ns := os.Getenv("METRICS_NAMESPACE"); ns != "" {
		metrics = aws.NewMetrics(clients.CloudWatch, ns)
	}

	cfg := handlers.HandlerConfig{
		Snapshot:         catalog.NewSnapshotCache(catalog.NewHTTPSource(productsURL), snapshotTTL),
		KV:               sessions,
		DynamoDBClient:   clients.DynamoDB,
		SQSClient:        clients.SQS,
		Metrics:          metrics,
		IdempotencyTable: os.Getenv("IDEMPOTENCY_TABLE"),
		CheckoutsTable:   os.Getenv("CHECKOUTS_TABLE"),
		QueueURL:         os.Getenv("CHECKOUT_QUEUE_URL"),
		TTLWindow:        48 * time.Hour,
	}

	r := setupRouter(cfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		// the adapter handles proxying; use adapter.ProxyWithContext for proper context propagation
		return adapter.ProxyWithContext(ctx, req)
	})
}
