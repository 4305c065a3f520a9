// Package orders turns carts into per-seller orders and drives their status.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domaincart "github.com/mamadbah2/farmer-market/internal/domain/cart"
	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/repository"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidCheckout   = errors.New("invalid checkout request")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:   {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed: {models.OrderDelivered, models.OrderCancelled},
}

// Carts is the cart side of checkout.
type Carts interface {
	Load(ctx context.Context, userID string) (*domaincart.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// Stock reads listings and moves their stock.
type Stock interface {
	Get(ctx context.Context, id string) (models.Vegetable, error)
	Reserve(ctx context.Context, id string, qty int) error
	Release(ctx context.Context, id string, qty int) error
}

// Store persists orders.
type Store interface {
	Insert(ctx context.Context, o models.Order) error
	Get(ctx context.Context, id string) (models.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus, now time.Time) error
}

// Ledger mirrors orders to an external record.
type Ledger interface {
	RecordOrder(ctx context.Context, o models.Order) error
}

// Notifier tells sellers and buyers about order events.
type Notifier interface {
	OrderPlaced(ctx context.Context, o models.Order) error
	OrderUpdated(ctx context.Context, o models.Order) error
}

// CheckoutRequest carries the buyer's delivery details.
type CheckoutRequest struct {
	Method    models.CheckoutMethod
	BuyerName string
	Phone     string
	Address   string
	Notes     string
}

// Deps groups the collaborators of the service.
type Deps struct {
	Carts    Carts
	Stock    Stock
	Store    Store
	Ledger   Ledger
	Notifier Notifier
}

type Service struct {
	carts    Carts
	stock    Stock
	store    Store
	ledger   Ledger
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewService(deps Deps, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		carts:    deps.Carts,
		stock:    deps.Stock,
		store:    deps.Store,
		ledger:   deps.Ledger,
		notifier: deps.Notifier,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

type reservation struct {
	id  string
	qty int
}

// Checkout converts the user's cart into one pending order per seller.
// Stock is reserved line by line and given back if any later step fails.
func (s *Service) Checkout(ctx context.Context, userID string, req CheckoutRequest) ([]models.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidCheckout)
	}
	if req.Method == "" {
		req.Method = models.CheckoutOnline
	}
	if req.Method != models.CheckoutOnline && req.Method != models.CheckoutWhatsApp {
		return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidCheckout, req.Method)
	}

	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return nil, ErrEmptyCart
	}

	var reserved []reservation
	rollback := func() {
		for _, r := range reserved {
			if err := s.stock.Release(ctx, r.id, r.qty); err != nil {
				s.logger.Error("failed to release reserved stock", zap.String("vegetable_id", r.id), zap.Int("qty", r.qty), zap.Error(err))
			}
		}
	}

	priced := make(map[string]models.Vegetable, len(c.Items))
	for _, line := range c.Items {
		v, err := s.stock.Get(ctx, line.ID)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("checkout %s: %w", line.Name, err)
		}
		if err := s.stock.Reserve(ctx, line.ID, line.Quantity); err != nil {
			rollback()
			return nil, fmt.Errorf("checkout %s: %w", line.Name, err)
		}
		reserved = append(reserved, reservation{id: line.ID, qty: line.Quantity})
		priced[line.ID] = v
	}

	now := s.now().UTC()
	sellers, groups := c.BySeller()
	orders := make([]models.Order, 0, len(sellers))
	for _, sellerID := range sellers {
		order := models.Order{
			ID:        s.newID(),
			BuyerID:   userID,
			SellerID:  sellerID,
			BuyerName: strings.TrimSpace(req.BuyerName),
			Phone:     models.NormalizePhone(req.Phone),
			Address:   strings.TrimSpace(req.Address),
			Notes:     strings.TrimSpace(req.Notes),
			Method:    req.Method,
			Status:    models.OrderPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, line := range groups[sellerID] {
			v := priced[line.ID]
			item := models.OrderItem{VegetableID: v.ID, Name: v.Name, Price: v.Price, Quantity: line.Quantity, Unit: v.Unit}
			order.Items = append(order.Items, item)
			order.Total += item.Subtotal()
		}

		if err := s.store.Insert(ctx, order); err != nil {
			s.cancelPlaced(ctx, orders)
			rollback()
			return nil, fmt.Errorf("save order for seller %s: %w", sellerID, err)
		}
		orders = append(orders, order)
	}

	for _, order := range orders {
		if s.ledger != nil {
			if err := s.ledger.RecordOrder(ctx, order); err != nil {
				s.logger.Warn("failed to record order in ledger", zap.String("order_id", order.ID), zap.Error(err))
			}
		}
		if s.notifier != nil {
			if err := s.notifier.OrderPlaced(ctx, order); err != nil {
				s.logger.Warn("failed to notify seller", zap.String("order_id", order.ID), zap.String("seller_id", order.SellerID), zap.Error(err))
			}
		}
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		s.logger.Warn("failed to clear cart after checkout", zap.String("user_id", userID), zap.Error(err))
	}

	s.logger.Info("checkout completed",
		zap.String("user_id", userID),
		zap.String("method", string(req.Method)),
		zap.Int("orders", len(orders)))
	return orders, nil
}

func (s *Service) cancelPlaced(ctx context.Context, placed []models.Order) {
	now := s.now().UTC()
	for _, o := range placed {
		if err := s.store.UpdateStatus(ctx, o.ID, models.OrderPending, models.OrderCancelled, now); err != nil {
			s.logger.Error("failed to cancel partially placed order", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
}

func (s *Service) Get(ctx context.Context, id string) (models.Order, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	return s.store.ListByBuyer(ctx, buyerID)
}

func (s *Service) ListBySeller(ctx context.Context, sellerID string) ([]models.Order, error) {
	return s.store.ListBySeller(ctx, sellerID)
}

// UpdateStatus moves an order along its lifecycle. Cancelling returns the stock.
func (s *Service) UpdateStatus(ctx context.Context, id string, to models.OrderStatus) (models.Order, error) {
	order, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if !allowed(order.Status, to) {
		return models.Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, to)
	}

	now := s.now().UTC()
	if err := s.store.UpdateStatus(ctx, id, order.Status, to, now); err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return models.Order{}, fmt.Errorf("%w: order %s changed concurrently", ErrInvalidTransition, id)
		}
		return models.Order{}, err
	}
	order.Status = to
	order.UpdatedAt = now

	if to == models.OrderCancelled {
		for _, item := range order.Items {
			if err := s.stock.Release(ctx, item.VegetableID, item.Quantity); err != nil {
				s.logger.Error("failed to release stock of cancelled order",
					zap.String("order_id", id), zap.String("vegetable_id", item.VegetableID), zap.Error(err))
			}
		}
	}

	if s.notifier != nil {
		if err := s.notifier.OrderUpdated(ctx, order); err != nil {
			s.logger.Warn("failed to notify buyer", zap.String("order_id", id), zap.Error(err))
		}
	}
	return order, nil
}

func allowed(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
