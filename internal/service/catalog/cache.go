package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/repository/redisstore"
)

const listingKey = "catalog:vegetables"

type cachedListing struct {
	StoredAt   time.Time          `json:"stored_at"`
	Vegetables []models.Vegetable `json:"vegetables"`
}

// Cache holds the full vegetable listing. Entries older than ttl by the
// injected clock are treated as misses even if the store still has them.
type Cache struct {
	kv  redisstore.KVStore
	ttl time.Duration
	now func() time.Time
}

func NewCache(kv redisstore.KVStore, ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{kv: kv, ttl: ttl, now: now}
}

// Get returns the cached listing and whether it was fresh.
func (c *Cache) Get(ctx context.Context) ([]models.Vegetable, bool, error) {
	raw, err := c.kv.Get(ctx, listingKey)
	if errors.Is(err, redisstore.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read catalog cache: %w", err)
	}

	var entry cachedListing
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false, fmt.Errorf("decode catalog cache: %w", err)
	}
	if c.now().Sub(entry.StoredAt) >= c.ttl {
		return nil, false, nil
	}
	return entry.Vegetables, true, nil
}

func (c *Cache) Set(ctx context.Context, vegetables []models.Vegetable) error {
	raw, err := json.Marshal(cachedListing{StoredAt: c.now(), Vegetables: vegetables})
	if err != nil {
		return fmt.Errorf("encode catalog cache: %w", err)
	}
	return c.kv.Set(ctx, listingKey, string(raw), c.ttl)
}

func (c *Cache) Invalidate(ctx context.Context) error {
	return c.kv.Del(ctx, listingKey)
}
