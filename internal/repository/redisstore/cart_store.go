package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mamadbah2/farmer-market/internal/domain/cart"
)

// CartTTL is how long an untouched cart survives.
const CartTTL = 7 * 24 * time.Hour

// CartStore keeps one JSON-encoded cart per user.
type CartStore struct {
	kv  KVStore
	ttl time.Duration
}

func NewCartStore(kv KVStore) *CartStore {
	return &CartStore{kv: kv, ttl: CartTTL}
}

func cartKey(userID string) string { return "cart:" + userID }

// Load returns the user's cart, or an empty cart when none is stored.
func (s *CartStore) Load(ctx context.Context, userID string) (*cart.Cart, error) {
	raw, err := s.kv.Get(ctx, cartKey(userID))
	if errors.Is(err, ErrCacheMiss) {
		return &cart.Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	c := &cart.Cart{}
	if err := json.Unmarshal([]byte(raw), c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return c, nil
}

// Save persists the cart and refreshes its TTL. An empty cart is deleted.
func (s *CartStore) Save(ctx context.Context, userID string, c *cart.Cart) error {
	if c == nil || c.Empty() {
		return s.Clear(ctx, userID)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, cartKey(userID), string(raw), s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *CartStore) Clear(ctx context.Context, userID string) error {
	if err := s.kv.Del(ctx, cartKey(userID)); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
