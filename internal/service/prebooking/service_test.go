package prebooking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/repository"
)

type memStore struct {
	byID map[string]models.PreBooking
}

func (m *memStore) Insert(_ context.Context, p models.PreBooking) error {
	m.byID[p.ID] = p
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (models.PreBooking, error) {
	p, ok := m.byID[id]
	if !ok {
		return models.PreBooking{}, fmt.Errorf("find prebooking: %w", repository.ErrNotFound)
	}
	return p, nil
}

func (m *memStore) FindActive(_ context.Context, userID, sellerID, nameKey string) (models.PreBooking, error) {
	for _, p := range m.byID {
		if p.UserID == userID && p.SellerID == sellerID && p.NameKey == nameKey && p.Status.Active() {
			return p, nil
		}
	}
	return models.PreBooking{}, repository.ErrNotFound
}

func (m *memStore) ListByUser(_ context.Context, userID string) ([]models.PreBooking, error) {
	var out []models.PreBooking
	for _, p := range m.byID {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) ListBySeller(_ context.Context, sellerID string) ([]models.PreBooking, error) {
	var out []models.PreBooking
	for _, p := range m.byID {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, from, to models.PreBookingStatus, now time.Time) error {
	p, ok := m.byID[id]
	if !ok || p.Status != from {
		return repository.ErrConditionFailed
	}
	p.Status, p.UpdatedAt = to, now
	m.byID[id] = p
	return nil
}

func (m *memStore) ExpirePendingBefore(_ context.Context, cutoff, now time.Time) (int64, error) {
	var n int64
	for id, p := range m.byID {
		if p.Status == models.PreBookingPending && p.CreatedAt.Before(cutoff) {
			p.Status, p.UpdatedAt = models.PreBookingExpired, now
			m.byID[id] = p
			n++
		}
	}
	return n, nil
}

type catalog map[string]models.Vegetable

func (c catalog) Get(_ context.Context, id string) (models.Vegetable, error) {
	v, ok := c[id]
	if !ok {
		return models.Vegetable{}, repository.ErrNotFound
	}
	return v, nil
}

type notifications struct {
	created []string
	updated []models.PreBookingStatus
}

func (n *notifications) PreBookingCreated(_ context.Context, p models.PreBooking) error {
	n.created = append(n.created, p.SellerID)
	return nil
}

func (n *notifications) PreBookingUpdated(_ context.Context, p models.PreBooking) error {
	n.updated = append(n.updated, p.Status)
	return nil
}

var baseNow = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func newService() (*Service, *memStore, *notifications) {
	store := &memStore{byID: map[string]models.PreBooking{}}
	notes := &notifications{}
	cat := catalog{"v1": {ID: "v1", SellerID: "S", Name: "Tomato", Unit: "kg"}}
	svc := NewService(store, cat, notes, nil)
	svc.now = func() time.Time { return baseNow }

	var n int
	svc.newID = func() string {
		n++
		return fmt.Sprintf("pb-%d", n)
	}
	return svc, store, notes
}

func TestCreate_DuplicateRejected(t *testing.T) {
	svc, _, notes := newService()
	ctx := context.Background()

	first, err := svc.Create(ctx, Request{UserID: "U", SellerID: "S", VegetableName: "Tomato", Quantity: 3, Unit: "kg"})
	require.NoError(t, err)
	assert.Equal(t, models.PreBookingPending, first.Status)
	assert.Equal(t, []string{"S"}, notes.created)

	_, err = svc.Create(ctx, Request{UserID: "U", SellerID: "S", VegetableName: "  tomato ", Quantity: 1, Unit: "kg"})
	assert.ErrorIs(t, err, ErrDuplicatePrebooking)

	_, err = svc.Create(ctx, Request{UserID: "U", SellerID: "S2", VegetableName: "Tomato", Quantity: 1, Unit: "kg"})
	assert.NoError(t, err)
}

func TestCreate_AllowedAfterTerminal(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	first, err := svc.Create(ctx, Request{UserID: "U", SellerID: "S", VegetableName: "Tomato", Quantity: 3})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, first.ID, "S", models.PreBookingRejected)
	require.NoError(t, err)

	_, err = svc.Create(ctx, Request{UserID: "U", SellerID: "S", VegetableName: "Tomato", Quantity: 3})
	assert.NoError(t, err)
}

func TestCreate_FromVegetableID(t *testing.T) {
	svc, _, _ := newService()

	p, err := svc.Create(context.Background(), Request{UserID: "U", VegetableID: "v1", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, "S", p.SellerID)
	assert.Equal(t, "Tomato", p.VegetableName)
	assert.Equal(t, "kg", p.Unit)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, Request{UserID: "U", SellerID: "S", VegetableName: "Tomato", Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidPreBooking)
	_, err = svc.Create(ctx, Request{UserID: "U", SellerID: "S", Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidPreBooking)
	_, err = svc.Create(ctx, Request{UserID: "S", SellerID: "S", VegetableName: "Tomato", Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidPreBooking)
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	svc, _, notes := newService()
	ctx := context.Background()

	p, err := svc.Create(ctx, Request{UserID: "U", SellerID: "S", VegetableName: "Tomato", Quantity: 3})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, p.ID, "S", models.PreBookingFulfilled)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, p.ID, "X", models.PreBookingAccepted)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.UpdateStatus(ctx, p.ID, "U", models.PreBookingAccepted)
	assert.ErrorIs(t, err, ErrNotOwner)

	for _, next := range []models.PreBookingStatus{models.PreBookingAccepted, models.PreBookingInProgress, models.PreBookingFulfilled} {
		got, err := svc.UpdateStatus(ctx, p.ID, "S", next)
		require.NoError(t, err)
		assert.Equal(t, next, got.Status)
	}
	assert.Len(t, notes.updated, 3)

	_, err = svc.UpdateStatus(ctx, p.ID, "S", models.PreBookingCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatus_BuyerCancels(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	p, err := svc.Create(ctx, Request{UserID: "U", SellerID: "S", VegetableName: "Tomato", Quantity: 3})
	require.NoError(t, err)

	got, err := svc.UpdateStatus(ctx, p.ID, "U", models.PreBookingCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.PreBookingCancelled, got.Status)
}

func TestExpireStale(t *testing.T) {
	svc, store, _ := newService()
	store.byID["old"] = models.PreBooking{ID: "old", Status: models.PreBookingPending, CreatedAt: baseNow.AddDate(0, 0, -20)}
	store.byID["fresh"] = models.PreBooking{ID: "fresh", Status: models.PreBookingPending, CreatedAt: baseNow.AddDate(0, 0, -2)}
	store.byID["accepted"] = models.PreBooking{ID: "accepted", Status: models.PreBookingAccepted, CreatedAt: baseNow.AddDate(0, 0, -30)}

	n, err := svc.ExpireStale(context.Background(), 14*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, models.PreBookingExpired, store.byID["old"].Status)
	assert.Equal(t, models.PreBookingPending, store.byID["fresh"].Status)
	assert.Equal(t, models.PreBookingAccepted, store.byID["accepted"].Status)
}
