// Package users keeps the buyer and seller directory.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/repository"
)

var (
	ErrInvalidUser = errors.New("invalid user")
	ErrPhoneTaken  = errors.New("phone number already registered")
)

// Store persists users.
type Store interface {
	Insert(ctx context.Context, u models.User) error
	Get(ctx context.Context, id string) (models.User, error)
	FindByPhone(ctx context.Context, phone string) (models.User, error)
}

// UserInput carries the fields of a new user.
type UserInput struct {
	Name     string
	Phone    string
	Role     models.Role
	Location string
}

type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now, newID: uuid.NewString}
}

// Create registers a user. Phone numbers are stored digits only and are unique.
func (s *Service) Create(ctx context.Context, in UserInput) (models.User, error) {
	u := models.User{
		Name:     strings.TrimSpace(in.Name),
		Phone:    models.NormalizePhone(in.Phone),
		Role:     in.Role,
		Location: strings.TrimSpace(in.Location),
	}
	if u.Role == "" {
		u.Role = models.RoleBuyer
	}

	switch {
	case u.Name == "":
		return models.User{}, fmt.Errorf("%w: name is required", ErrInvalidUser)
	case len(u.Phone) < 8:
		return models.User{}, fmt.Errorf("%w: phone %q is too short", ErrInvalidUser, in.Phone)
	case u.Role != models.RoleBuyer && u.Role != models.RoleSeller && u.Role != models.RoleAdmin:
		return models.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidUser, u.Role)
	}

	u.ID = s.newID()
	u.CreatedAt = s.now().UTC()
	if err := s.store.Insert(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.User{}, fmt.Errorf("%w: %s", ErrPhoneTaken, u.Phone)
		}
		return models.User{}, err
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.User, error) {
	return s.store.Get(ctx, id)
}

// FindByPhone looks a user up by any formatting of their phone number.
func (s *Service) FindByPhone(ctx context.Context, phone string) (models.User, error) {
	normalized := models.NormalizePhone(phone)
	if normalized == "" {
		return models.User{}, fmt.Errorf("%w: empty phone", ErrInvalidUser)
	}
	return s.store.FindByPhone(ctx, normalized)
}
