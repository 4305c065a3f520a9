// Package prebooking lets buyers reserve produce a seller does not have in stock yet.
package prebooking

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
	ErrDuplicatePrebooking = errors.New("an active prebooking already exists for this vegetable and seller")
	ErrInvalidPreBooking   = errors.New("invalid prebooking")
	ErrInvalidTransition   = errors.New("invalid prebooking status transition")
	ErrNotOwner            = errors.New("prebooking belongs to another user")
)

var transitions = map[models.PreBookingStatus][]models.PreBookingStatus{
	models.PreBookingPending:    {models.PreBookingAccepted, models.PreBookingRejected, models.PreBookingCancelled},
	models.PreBookingAccepted:   {models.PreBookingInProgress, models.PreBookingCancelled},
	models.PreBookingInProgress: {models.PreBookingFulfilled, models.PreBookingCancelled},
}

// Store persists prebookings.
type Store interface {
	Insert(ctx context.Context, p models.PreBooking) error
	Get(ctx context.Context, id string) (models.PreBooking, error)
	FindActive(ctx context.Context, userID, sellerID, nameKey string) (models.PreBooking, error)
	ListByUser(ctx context.Context, userID string) ([]models.PreBooking, error)
	ListBySeller(ctx context.Context, sellerID string) ([]models.PreBooking, error)
	UpdateStatus(ctx context.Context, id string, from, to models.PreBookingStatus, now time.Time) error
	ExpirePendingBefore(ctx context.Context, cutoff, now time.Time) (int64, error)
}

// Catalog resolves the listing a prebooking refers to.
type Catalog interface {
	Get(ctx context.Context, id string) (models.Vegetable, error)
}

// Notifier tells sellers and buyers about prebooking events.
type Notifier interface {
	PreBookingCreated(ctx context.Context, p models.PreBooking) error
	PreBookingUpdated(ctx context.Context, p models.PreBooking) error
}

// Request is a buyer's prebooking.
type Request struct {
	UserID        string
	SellerID      string
	VegetableID   string
	VegetableName string
	Quantity      int
	Unit          string
	DesiredDate   *time.Time
	Notes         string
}

type Service struct {
	store    Store
	catalog  Catalog
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewService(store Store, catalog Catalog, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		catalog:  catalog,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Create records a pending prebooking unless the same user already has an
// active one with the seller for a vegetable of the same name.
func (s *Service) Create(ctx context.Context, req Request) (models.PreBooking, error) {
	if req.VegetableID != "" && s.catalog != nil {
		v, err := s.catalog.Get(ctx, req.VegetableID)
		if err != nil {
			return models.PreBooking{}, fmt.Errorf("resolve vegetable %s: %w", req.VegetableID, err)
		}
		if req.SellerID == "" {
			req.SellerID = v.SellerID
		}
		if req.VegetableName == "" {
			req.VegetableName = v.Name
		}
		if req.Unit == "" {
			req.Unit = v.Unit
		}
	}

	p := models.PreBooking{
		UserID:        strings.TrimSpace(req.UserID),
		SellerID:      strings.TrimSpace(req.SellerID),
		VegetableID:   req.VegetableID,
		VegetableName: strings.TrimSpace(req.VegetableName),
		NameKey:       models.PreBookingNameKey(req.VegetableName),
		Quantity:      req.Quantity,
		Unit:          strings.TrimSpace(req.Unit),
		DesiredDate:   req.DesiredDate,
		Notes:         strings.TrimSpace(req.Notes),
		Status:        models.PreBookingPending,
	}
	if err := validate(p); err != nil {
		return models.PreBooking{}, err
	}

	existing, err := s.store.FindActive(ctx, p.UserID, p.SellerID, p.NameKey)
	switch {
	case err == nil:
		return models.PreBooking{}, fmt.Errorf("%w: %s is %s", ErrDuplicatePrebooking, existing.ID, existing.Status)
	case !errors.Is(err, repository.ErrNotFound):
		return models.PreBooking{}, err
	}

	now := s.now().UTC()
	p.ID = s.newID()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.store.Insert(ctx, p); err != nil {
		return models.PreBooking{}, err
	}

	s.logger.Info("prebooking created",
		zap.String("prebooking_id", p.ID),
		zap.String("user_id", p.UserID),
		zap.String("seller_id", p.SellerID),
		zap.String("vegetable", p.VegetableName))

	if s.notifier != nil {
		if err := s.notifier.PreBookingCreated(ctx, p); err != nil {
			s.logger.Warn("failed to notify seller of prebooking", zap.String("prebooking_id", p.ID), zap.Error(err))
		}
	}
	return p, nil
}

func validate(p models.PreBooking) error {
	switch {
	case p.UserID == "":
		return fmt.Errorf("%w: user_id is required", ErrInvalidPreBooking)
	case p.SellerID == "":
		return fmt.Errorf("%w: seller_id is required", ErrInvalidPreBooking)
	case p.NameKey == "":
		return fmt.Errorf("%w: vegetable_name is required", ErrInvalidPreBooking)
	case p.Quantity < 1:
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidPreBooking)
	case p.UserID == p.SellerID:
		return fmt.Errorf("%w: cannot prebook from yourself", ErrInvalidPreBooking)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (models.PreBooking, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.PreBooking, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) ListBySeller(ctx context.Context, sellerID string) ([]models.PreBooking, error) {
	return s.store.ListBySeller(ctx, sellerID)
}

// UpdateStatus moves a prebooking along its lifecycle on behalf of actorID.
// The seller drives every transition; the buyer may only cancel.
func (s *Service) UpdateStatus(ctx context.Context, id, actorID string, to models.PreBookingStatus) (models.PreBooking, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return models.PreBooking{}, err
	}

	isSeller := actorID == p.SellerID
	isBuyer := actorID == p.UserID && to == models.PreBookingCancelled
	if !isSeller && !isBuyer {
		return models.PreBooking{}, fmt.Errorf("%w: %s", ErrNotOwner, id)
	}
	if !allowed(p.Status, to) {
		return models.PreBooking{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, p.Status, to)
	}

	now := s.now().UTC()
	if err := s.store.UpdateStatus(ctx, id, p.Status, to, now); err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return models.PreBooking{}, fmt.Errorf("%w: prebooking %s changed concurrently", ErrInvalidTransition, id)
		}
		return models.PreBooking{}, err
	}
	p.Status = to
	p.UpdatedAt = now

	if s.notifier != nil && isSeller {
		if err := s.notifier.PreBookingUpdated(ctx, p); err != nil {
			s.logger.Warn("failed to notify buyer of prebooking update", zap.String("prebooking_id", id), zap.Error(err))
		}
	}
	return p, nil
}

// ExpireStale marks pending prebookings older than maxAge as expired.
func (s *Service) ExpireStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	now := s.now().UTC()
	n, err := s.store.ExpirePendingBefore(ctx, now.Add(-maxAge), now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired stale prebookings", zap.Int64("count", n))
	}
	return n, nil
}

func allowed(from, to models.PreBookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
