package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/repository"
)

type memStore struct {
	byID map[string]models.User
}

func (m *memStore) Insert(_ context.Context, u models.User) error {
	for _, existing := range m.byID {
		if existing.Phone == u.Phone {
			return repository.ErrDuplicate
		}
	}
	m.byID[u.ID] = u
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memStore) FindByPhone(_ context.Context, phone string) (models.User, error) {
	for _, u := range m.byID {
		if u.Phone == phone {
			return u, nil
		}
	}
	return models.User{}, repository.ErrNotFound
}

func TestCreateAndFindByPhone(t *testing.T) {
	svc := NewService(&memStore{byID: map[string]models.User{}}, nil)
	ctx := context.Background()

	u, err := svc.Create(ctx, UserInput{Name: "Ravi", Phone: "+91 98765-43210", Role: models.RoleSeller})
	require.NoError(t, err)
	assert.Equal(t, "919876543210", u.Phone)

	found, err := svc.FindByPhone(ctx, "919876543210")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = svc.Create(ctx, UserInput{Name: "Other", Phone: "91 9876543210"})
	assert.ErrorIs(t, err, ErrPhoneTaken)
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(&memStore{byID: map[string]models.User{}}, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, UserInput{Name: "", Phone: "919876543210"})
	assert.ErrorIs(t, err, ErrInvalidUser)
	_, err = svc.Create(ctx, UserInput{Name: "A", Phone: "12"})
	assert.ErrorIs(t, err, ErrInvalidUser)
	_, err = svc.Create(ctx, UserInput{Name: "A", Phone: "919876543210", Role: "farmer"})
	assert.ErrorIs(t, err, ErrInvalidUser)

	u, err := svc.Create(ctx, UserInput{Name: "A", Phone: "919876543210"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleBuyer, u.Role)
}
