package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/imrishuroy/go-storefront-api/internal/kv"
)

const keyPrefix = "cart:"

// Snapshot is the persisted shape of a cart.
type Snapshot struct {
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists carts as JSON snapshots through the key-value port, one key
// per session cart id.
type Store struct {
	kv      kv.Store
	nowFunc func() time.Time
}

// NewStore returns a Store over the given key-value port.
func NewStore(kvStore kv.Store) *Store {
	return &Store{
		kv:      kvStore,
		nowFunc: time.Now,
	}
}

// Load returns the cart for the session. A missing or corrupt key yields an
// empty cart, never an error: the documented default for cart state.
func (s *Store) Load(ctx context.Context, cartID string) (*Cart, error) {
	raw, ok, err := s.kv.Get(ctx, keyPrefix+cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", cartID, err)
	}
	if !ok {
		return New(), nil
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		log.Printf("corrupt cart snapshot for %s, resetting: %v", cartID, err)
		return New(), nil
	}
	return &Cart{items: snap.Items}, nil
}

// Save writes the cart's snapshot.
func (s *Store) Save(ctx context.Context, cartID string, c *Cart) error {
	snap := Snapshot{
		Items:     c.Items(),
		UpdatedAt: s.nowFunc().UTC(),
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal cart %s: %w", cartID, err)
	}
	if err := s.kv.Set(ctx, keyPrefix+cartID, string(raw)); err != nil {
		return fmt.Errorf("save cart %s: %w", cartID, err)
	}
	return nil
}

// Delete removes the persisted cart.
func (s *Store) Delete(ctx context.Context, cartID string) error {
	if err := s.kv.Remove(ctx, keyPrefix+cartID); err != nil {
		return fmt.Errorf("delete cart %s: %w", cartID, err)
	}
	return nil
}
