package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmer-market/internal/domain/models"
)

type fakeOrders struct {
	orders   []models.Order
	from, to time.Time
	err      error
}

func (f *fakeOrders) ListCreatedBetween(_ context.Context, from, to time.Time) ([]models.Order, error) {
	f.from, f.to = from, to
	return f.orders, f.err
}

type openCount int64

func (c openCount) CountActive(context.Context) (int64, error) { return int64(c), nil }

func TestAggregate_DayWindowInLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	orders := &fakeOrders{}
	svc := NewService(orders, openCount(0), loc, nil)

	// 20:00 UTC is already the next day in India.
	_, err = svc.Aggregate(context.Background(), time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 5, 1, 18, 30, 0, 0, time.UTC), orders.from)
	assert.Equal(t, time.Date(2026, 5, 2, 18, 30, 0, 0, time.UTC), orders.to)
}

func TestDailyDigest(t *testing.T) {
	orders := &fakeOrders{orders: []models.Order{
		{Status: models.OrderPending, Total: 110, Items: []models.OrderItem{
			{Name: "Tomato", Unit: "kg", Price: 40, Quantity: 2},
			{Name: "Okra", Unit: "kg", Price: 30, Quantity: 1},
		}},
		{Status: models.OrderDelivered, Total: 40, Items: []models.OrderItem{
			{Name: "tomato", Unit: "kg", Price: 40, Quantity: 1},
		}},
		{Status: models.OrderCancelled, Total: 99, Items: []models.OrderItem{
			{Name: "Mint", Unit: "bunch", Price: 99, Quantity: 1},
		}},
	}}
	svc := NewService(orders, openCount(3), time.UTC, nil)

	d, err := svc.Aggregate(context.Background(), time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, d.Orders)
	assert.Equal(t, 1, d.Cancelled)
	assert.Equal(t, 150.0, d.Revenue)
	require.Len(t, d.Items, 2)
	assert.Equal(t, "Tomato", d.Items[0].Name)
	assert.Equal(t, 3, d.Items[0].Quantity)
	assert.EqualValues(t, 3, d.OpenPreBookings)

	text := Format(d)
	assert.Contains(t, text, "Sales digest 2026-05-01")
	assert.Contains(t, text, "Orders: 2")
	assert.Contains(t, text, "- Tomato: 3 kg (120.00)")
	assert.Contains(t, text, "Open prebookings: 3")
}

func TestDailyDigest_NoOrders(t *testing.T) {
	svc := NewService(&fakeOrders{}, nil, nil, nil)

	text, err := svc.DailyDigest(context.Background(), time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, text, "No orders today.")
}

func TestDailyDigest_StoreError(t *testing.T) {
	svc := NewService(&fakeOrders{err: errors.New("boom")}, nil, nil, nil)

	_, err := svc.DailyDigest(context.Background(), time.Now())
	assert.Error(t, err)
}
