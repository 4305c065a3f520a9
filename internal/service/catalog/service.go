// Package catalog manages produce listings and their stock.
package catalog

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
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidVegetable  = errors.New("invalid vegetable")
)

// Store persists vegetables.
type Store interface {
	List(ctx context.Context) ([]models.Vegetable, error)
	Get(ctx context.Context, id string) (models.Vegetable, error)
	Insert(ctx context.Context, v models.Vegetable) error
	Replace(ctx context.Context, v models.Vegetable) error
	Delete(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id string, delta int, now time.Time) error
}

// VegetableInput is the editable part of a listing.
type VegetableInput struct {
	SellerID    string
	Name        string
	Category    models.Category
	Price       float64
	Quantity    int
	Unit        string
	Location    string
	Description string
	ImageURL    string
}

// Service serves the catalogue through the listing cache.
type Service struct {
	store       Store
	cache       *Cache
	development bool
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
}

// NewService wires a catalogue service. cache may be nil to disable caching.
// In development mode a failing store is replaced by a fixed sample listing.
func NewService(store Store, cache *Cache, development bool, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		cache:       cache,
		development: development,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// List returns the listings matching filter.
func (s *Service) List(ctx context.Context, filter models.VegetableFilter) ([]models.Vegetable, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Vegetable, 0, len(all))
	for _, v := range all {
		if filter.Match(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *Service) all(ctx context.Context) ([]models.Vegetable, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("catalog cache read failed", zap.Error(err))
		}
		if ok {
			return cached, nil
		}
	}

	vegetables, err := s.store.List(ctx)
	if err != nil {
		if s.development {
			s.logger.Warn("vegetable store unavailable, serving sample listing", zap.Error(err))
			return sampleVegetables(s.now()), nil
		}
		return nil, fmt.Errorf("list vegetables: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, vegetables); err != nil {
			s.logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return vegetables, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.Vegetable, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in VegetableInput) (models.Vegetable, error) {
	if err := validate(in); err != nil {
		return models.Vegetable{}, err
	}

	now := s.now().UTC()
	v := models.Vegetable{ID: s.newID(), CreatedAt: now}
	apply(&v, in, now)
	if err := s.store.Insert(ctx, v); err != nil {
		return models.Vegetable{}, err
	}
	s.invalidate(ctx)
	return v, nil
}

func (s *Service) Update(ctx context.Context, id string, in VegetableInput) (models.Vegetable, error) {
	if err := validate(in); err != nil {
		return models.Vegetable{}, err
	}

	v, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Vegetable{}, err
	}
	apply(&v, in, s.now().UTC())
	if err := s.store.Replace(ctx, v); err != nil {
		return models.Vegetable{}, err
	}
	s.invalidate(ctx)
	return v, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// SetStock overwrites the declared stock of a listing.
func (s *Service) SetStock(ctx context.Context, id string, qty int) (models.Vegetable, error) {
	if qty < 0 {
		return models.Vegetable{}, fmt.Errorf("%w: quantity must not be negative", ErrInvalidVegetable)
	}
	v, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Vegetable{}, err
	}
	v.Quantity = qty
	v.UpdatedAt = s.now().UTC()
	if err := s.store.Replace(ctx, v); err != nil {
		return models.Vegetable{}, err
	}
	s.invalidate(ctx)
	return v, nil
}

// Reserve takes qty out of stock atomically, failing with ErrInsufficientStock.
func (s *Service) Reserve(ctx context.Context, id string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidVegetable)
	}
	if err := s.store.AdjustStock(ctx, id, -qty, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return fmt.Errorf("reserve %d of %s: %w", qty, id, ErrInsufficientStock)
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Release puts qty back into stock.
func (s *Service) Release(ctx context.Context, id string, qty int) error {
	if qty < 1 {
		return nil
	}
	if err := s.store.AdjustStock(ctx, id, qty, s.now().UTC()); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func validate(in VegetableInput) error {
	switch {
	case strings.TrimSpace(in.SellerID) == "":
		return fmt.Errorf("%w: seller_id is required", ErrInvalidVegetable)
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidVegetable)
	case in.Category != models.CategoryVegetable && in.Category != models.CategoryFruit:
		return fmt.Errorf("%w: unknown category %q", ErrInvalidVegetable, in.Category)
	case in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidVegetable)
	case in.Quantity < 0:
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidVegetable)
	case strings.TrimSpace(in.Unit) == "":
		return fmt.Errorf("%w: unit is required", ErrInvalidVegetable)
	}
	return nil
}

func apply(v *models.Vegetable, in VegetableInput, now time.Time) {
	v.SellerID = strings.TrimSpace(in.SellerID)
	v.Name = strings.TrimSpace(in.Name)
	v.Category = in.Category
	v.Price = in.Price
	v.Quantity = in.Quantity
	v.Unit = strings.TrimSpace(in.Unit)
	v.Location = in.Location
	v.Description = in.Description
	v.ImageURL = in.ImageURL
	v.UpdatedAt = now
}
