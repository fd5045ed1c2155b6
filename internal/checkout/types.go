package checkout

import "time"

// Checkout statuses
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Item is one cart line captured into the checkout record.
type Item struct {
	ProductID string  `dynamodbav:"product_id" json:"productId"`
	Name      string  `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Price     float64 `dynamodbav:"price" json:"price"`
	Quantity  int     `dynamodbav:"quantity" json:"quantity"`
}

// Checkout represents the item stored in the checkouts DynamoDB table. It is
// the handoff boundary: downstream payment/fulfillment consume it, the
// storefront only creates it and tracks its status.
type Checkout struct {
	CheckoutID string                 `dynamodbav:"checkout_id"`       // PK
	CartID     string                 `dynamodbav:"cart_id,omitempty"` // originating session cart
	Status     string                 `dynamodbav:"status"`            // PENDING | PROCESSING | COMPLETED | FAILED
	Amount     float64                `dynamodbav:"amount"`
	Items      []Item                 `dynamodbav:"items,omitempty"`
	Metadata   map[string]interface{} `dynamodbav:"metadata,omitempty"`
	CreatedAt  time.Time              `dynamodbav:"created_at"`
	UpdatedAt  time.Time              `dynamodbav:"updated_at"`
	Attempts   int                    `dynamodbav:"attempts,omitempty"`
}
