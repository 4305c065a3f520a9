// Package cart keeps each buyer's cart server side and checks every change
// against the catalogue's current stock.
package cart

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	domaincart "github.com/mamadbah2/farmer-market/internal/domain/cart"
	"github.com/mamadbah2/farmer-market/internal/domain/models"
)

// ErrUserRequired is returned when no user id is given.
var ErrUserRequired = errors.New("user_id is required")

// Catalog is the read side of the catalogue the cart needs.
type Catalog interface {
	Get(ctx context.Context, id string) (models.Vegetable, error)
}

// Store persists carts.
type Store interface {
	Load(ctx context.Context, userID string) (*domaincart.Cart, error)
	Save(ctx context.Context, userID string, c *domaincart.Cart) error
	Clear(ctx context.Context, userID string) error
}

// View is a cart with its computed total.
type View struct {
	UserID string            `json:"user_id"`
	Items  []models.CartItem `json:"items"`
	Total  float64           `json:"total"`
}

// Service implements cart operations.
type Service struct {
	catalog Catalog
	store   Store
	logger  *zap.Logger
}

func NewService(catalog Catalog, store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, store: store, logger: logger}
}

func (s *Service) Get(ctx context.Context, userID string) (View, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return View{}, err
	}
	return view(userID, c), nil
}

// Add puts qty of a listing in the cart, clamped to its current stock.
func (s *Service) Add(ctx context.Context, userID, vegetableID string, qty int) (View, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return View{}, err
	}

	v, err := s.catalog.Get(ctx, vegetableID)
	if err != nil {
		return View{}, err
	}

	item := models.CartItem{
		ID:                v.ID,
		Name:              v.Name,
		Price:             v.Price,
		Unit:              v.Unit,
		SellerID:          v.SellerID,
		AvailableQuantity: v.Quantity,
	}
	if err := c.AddItem(item, qty); err != nil {
		return View{}, err
	}

	if err := s.store.Save(ctx, userID, c); err != nil {
		return View{}, err
	}
	s.logger.Debug("cart item added", zap.String("user_id", userID), zap.String("vegetable_id", vegetableID), zap.Int("qty", qty))
	return view(userID, c), nil
}

// Update sets a line's quantity after refreshing its stock snapshot.
func (s *Service) Update(ctx context.Context, userID, vegetableID string, qty int) (View, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return View{}, err
	}
	if _, ok := c.Line(vegetableID); !ok {
		return View{}, domaincart.ErrItemNotInCart
	}

	if qty > 0 {
		v, err := s.catalog.Get(ctx, vegetableID)
		if err != nil {
			return View{}, err
		}
		c.RefreshStock(vegetableID, v.Quantity)
	}

	if err := c.UpdateQuantity(vegetableID, qty); err != nil {
		return View{}, err
	}
	if err := s.store.Save(ctx, userID, c); err != nil {
		return View{}, err
	}
	return view(userID, c), nil
}

func (s *Service) Remove(ctx context.Context, userID, vegetableID string) (View, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return View{}, err
	}
	c.Remove(vegetableID)
	if err := s.store.Save(ctx, userID, c); err != nil {
		return View{}, err
	}
	return view(userID, c), nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.store.Clear(ctx, userID)
}

// Load exposes the raw cart for checkout.
func (s *Service) Load(ctx context.Context, userID string) (*domaincart.Cart, error) {
	return s.load(ctx, userID)
}

func (s *Service) load(ctx context.Context, userID string) (*domaincart.Cart, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.Load(ctx, userID)
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUserRequired
	}
	return nil
}

func view(userID string, c *domaincart.Cart) View {
	items := c.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return View{UserID: userID, Items: items, Total: c.Total()}
}
