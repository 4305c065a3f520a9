package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domaincart "github.com/mamadbah2/farmer-market/internal/domain/cart"
	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/repository"
	"github.com/mamadbah2/farmer-market/internal/repository/redisstore"
)

type stubCatalog map[string]models.Vegetable

func (c stubCatalog) Get(_ context.Context, id string) (models.Vegetable, error) {
	v, ok := c[id]
	if !ok {
		return models.Vegetable{}, fmt.Errorf("find vegetable: %w", repository.ErrNotFound)
	}
	return v, nil
}

func newService(t *testing.T, catalog stubCatalog) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(catalog, redisstore.NewCartStore(redisstore.NewRedisKV(client)), nil)
}

func catalogFixture() stubCatalog {
	return stubCatalog{
		"a":    {ID: "a", SellerID: "s1", Name: "Item A", Price: 10, Quantity: 5, Unit: "kg"},
		"free": {ID: "free", SellerID: "s1", Name: "Curry leaves", Price: 0, Quantity: 3, Unit: "bunch"},
		"gift": {ID: "gift", SellerID: "s2", Name: "Mint", Price: 0, Quantity: 3, Unit: "bunch"},
		"gone": {ID: "gone", SellerID: "s2", Name: "Okra", Price: 30, Quantity: 0, Unit: "kg"},
	}
}

func TestCartScenario(t *testing.T) {
	svc := newService(t, catalogFixture())
	ctx := context.Background()

	v, err := svc.Add(ctx, "u1", "a", 3)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 3, v.Items[0].Quantity)
	assert.Equal(t, 30.0, v.Total)

	_, err = svc.Update(ctx, "u1", "a", 6)
	assert.ErrorIs(t, err, domaincart.ErrExceedsStock)

	v, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, v.Items[0].Quantity)

	v, err = svc.Update(ctx, "u1", "a", 0)
	require.NoError(t, err)
	assert.Empty(t, v.Items)
}

func TestAdd_ClampsToStock(t *testing.T) {
	svc := newService(t, catalogFixture())
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", "a", 4)
	require.NoError(t, err)
	v, err := svc.Add(ctx, "u1", "a", 4)
	require.NoError(t, err)
	assert.Equal(t, 5, v.Items[0].Quantity)
}

func TestAdd_FreeItemRules(t *testing.T) {
	svc := newService(t, catalogFixture())
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", "free", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "free", 1)
	require.NoError(t, err)

	_, err = svc.Add(ctx, "u1", "gift", 1)
	assert.ErrorIs(t, err, domaincart.ErrFreeItemConflict)
}

func TestAdd_Errors(t *testing.T) {
	svc := newService(t, catalogFixture())
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", "gone", 1)
	assert.ErrorIs(t, err, domaincart.ErrOutOfStock)

	_, err = svc.Add(ctx, "u1", "missing", 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Add(ctx, "", "a", 1)
	assert.ErrorIs(t, err, ErrUserRequired)

	_, err = svc.Update(ctx, "u1", "a", 2)
	assert.ErrorIs(t, err, domaincart.ErrItemNotInCart)
}

func TestRemoveAndClear(t *testing.T) {
	svc := newService(t, catalogFixture())
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", "a", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "free", 1)
	require.NoError(t, err)

	v, err := svc.Remove(ctx, "u1", "a")
	require.NoError(t, err)
	require.Len(t, v.Items, 1)

	require.NoError(t, svc.Clear(ctx, "u1"))
	v, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, v.Items)
}
