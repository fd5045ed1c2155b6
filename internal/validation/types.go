package validation

// AddItemRequest is the payload for POST /carts/:id/items.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"` // must be >= 1
}

// SetQuantityRequest is the payload for PUT /carts/:id/items/:productID.
// Quantities below 1 never reach the cart; deletion is a separate endpoint.
type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// PreferencesRequest is the payload for PUT /preferences/:id. Omitted fields
// keep their stored (or default) values.
type PreferencesRequest struct {
	Theme    string `json:"theme" validate:"omitempty,oneof=light dark"`
	Language string `json:"language" validate:"omitempty,bcp47_language_tag"`
	FontSize string `json:"fontSize" validate:"omitempty,oneof=small medium large"`
}

// CheckoutItem is a single cart line as the client last rendered it.
type CheckoutItem struct {
	ProductID string  `json:"productId" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,min=1"` // must be >= 1
	Price     float64 `json:"price" validate:"required,gt=0"`     // price per unit
}

// CheckoutRequest is the payload for POST /carts/:id/checkout. Amount is the
// total the client claims; a struct-level rule checks it against the items.
type CheckoutRequest struct {
	Items    []CheckoutItem         `json:"items" validate:"required,min=1,dive"` // at least one item
	Amount   float64                `json:"amount" validate:"required,gt=0"`      // total amount client claims
	Metadata map[string]interface{} `json:"metadata,omitempty"`                   // optional free-form metadata
}
