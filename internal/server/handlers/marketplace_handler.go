package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/service/cart"
	"github.com/mamadbah2/farmer-market/internal/service/catalog"
	"github.com/mamadbah2/farmer-market/internal/service/orders"
	"github.com/mamadbah2/farmer-market/internal/service/prebooking"
	"github.com/mamadbah2/farmer-market/internal/service/users"
)

// UserService is the user directory used by the API.
type UserService interface {
	Create(ctx context.Context, in users.UserInput) (models.User, error)
	Get(ctx context.Context, id string) (models.User, error)
}

// CatalogService manages listings.
type CatalogService interface {
	List(ctx context.Context, filter models.VegetableFilter) ([]models.Vegetable, error)
	Get(ctx context.Context, id string) (models.Vegetable, error)
	Create(ctx context.Context, in catalog.VegetableInput) (models.Vegetable, error)
	Update(ctx context.Context, id string, in catalog.VegetableInput) (models.Vegetable, error)
	Delete(ctx context.Context, id string) error
}

// CartService manages server-held carts.
type CartService interface {
	Get(ctx context.Context, userID string) (cart.View, error)
	Add(ctx context.Context, userID, vegetableID string, qty int) (cart.View, error)
	Update(ctx context.Context, userID, vegetableID string, qty int) (cart.View, error)
	Remove(ctx context.Context, userID, vegetableID string) (cart.View, error)
	Clear(ctx context.Context, userID string) error
}

// OrderService places and tracks orders.
type OrderService interface {
	Checkout(ctx context.Context, userID string, req orders.CheckoutRequest) ([]models.Order, error)
	Get(ctx context.Context, id string) (models.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, to models.OrderStatus) (models.Order, error)
}

// PreBookingService manages prebookings.
type PreBookingService interface {
	Create(ctx context.Context, req prebooking.Request) (models.PreBooking, error)
	ListByUser(ctx context.Context, userID string) ([]models.PreBooking, error)
	ListBySeller(ctx context.Context, sellerID string) ([]models.PreBooking, error)
	UpdateStatus(ctx context.Context, id, actorID string, to models.PreBookingStatus) (models.PreBooking, error)
}

// MarketplaceServices groups the services behind the marketplace API.
type MarketplaceServices struct {
	Users       UserService
	Catalog     CatalogService
	Carts       CartService
	Orders      OrderService
	PreBookings PreBookingService
}

// MarketplaceHandler serves users, listings, carts, orders and prebookings.
type MarketplaceHandler struct {
	users       UserService
	catalog     CatalogService
	carts       CartService
	orders      OrderService
	prebookings PreBookingService
	logger      *zap.Logger
}

func NewMarketplaceHandler(svcs MarketplaceServices, logger *zap.Logger) *MarketplaceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarketplaceHandler{
		users:       svcs.Users,
		catalog:     svcs.Catalog,
		carts:       svcs.Carts,
		orders:      svcs.Orders,
		prebookings: svcs.PreBookings,
		logger:      logger,
	}
}

type userRequest struct {
	Name     string      `json:"name" binding:"required"`
	Phone    string      `json:"phone" binding:"required"`
	Role     models.Role `json:"role"`
	Location string      `json:"location"`
}

func (h *MarketplaceHandler) CreateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	u, err := h.users.Create(c.Request.Context(), users.UserInput{Name: req.Name, Phone: req.Phone, Role: req.Role, Location: req.Location})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, u)
}

func (h *MarketplaceHandler) GetUser(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, u)
}

type vegetableRequest struct {
	SellerID    string          `json:"seller_id"`
	Name        string          `json:"name"`
	Category    models.Category `json:"category"`
	Price       float64         `json:"price"`
	Quantity    int             `json:"quantity"`
	Unit        string          `json:"unit"`
	Location    string          `json:"location"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
}

func (r vegetableRequest) input() catalog.VegetableInput {
	return catalog.VegetableInput{
		SellerID:    r.SellerID,
		Name:        r.Name,
		Category:    r.Category,
		Price:       r.Price,
		Quantity:    r.Quantity,
		Unit:        r.Unit,
		Location:    r.Location,
		Description: r.Description,
		ImageURL:    r.ImageURL,
	}
}

func (h *MarketplaceHandler) ListVegetables(c *gin.Context) {
	filter := models.VegetableFilter{
		Category: models.Category(c.Query("category")),
		SellerID: c.Query("seller_id"),
		Search:   c.Query("search"),
	}
	list, err := h.catalog.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.Vegetable{}
	}
	respond(c, http.StatusOK, list)
}

func (h *MarketplaceHandler) GetVegetable(c *gin.Context) {
	v, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, v)
}

func (h *MarketplaceHandler) CreateVegetable(c *gin.Context) {
	var req vegetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	v, err := h.catalog.Create(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, v)
}

func (h *MarketplaceHandler) UpdateVegetable(c *gin.Context) {
	var req vegetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	v, err := h.catalog.Update(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, v)
}

func (h *MarketplaceHandler) DeleteVegetable(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

type cartItemRequest struct {
	VegetableID string `json:"vegetable_id"`
	Quantity    int    `json:"quantity"`
}

func (h *MarketplaceHandler) GetCart(c *gin.Context) {
	view, err := h.carts.Get(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *MarketplaceHandler) AddCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.VegetableID == "" {
		badRequest(c, "vegetable_id is required")
		return
	}
	view, err := h.carts.Add(c.Request.Context(), c.Param("user_id"), req.VegetableID, req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *MarketplaceHandler) UpdateCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	view, err := h.carts.Update(c.Request.Context(), c.Param("user_id"), c.Param("vegetable_id"), req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *MarketplaceHandler) RemoveCartItem(c *gin.Context) {
	view, err := h.carts.Remove(c.Request.Context(), c.Param("user_id"), c.Param("vegetable_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *MarketplaceHandler) ClearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), c.Param("user_id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

type checkoutRequest struct {
	UserID    string                `json:"user_id" binding:"required"`
	Method    models.CheckoutMethod `json:"method"`
	BuyerName string                `json:"buyer_name"`
	Phone     string                `json:"phone"`
	Address   string                `json:"address"`
	Notes     string                `json:"notes"`
}

func (h *MarketplaceHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	placed, err := h.orders.Checkout(c.Request.Context(), req.UserID, orders.CheckoutRequest{
		Method:    req.Method,
		BuyerName: req.BuyerName,
		Phone:     req.Phone,
		Address:   req.Address,
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, placed)
}

func (h *MarketplaceHandler) ListOrders(c *gin.Context) {
	var (
		list []models.Order
		err  error
	)
	switch {
	case c.Query("user_id") != "":
		list, err = h.orders.ListByBuyer(c.Request.Context(), c.Query("user_id"))
	case c.Query("seller_id") != "":
		list, err = h.orders.ListBySeller(c.Request.Context(), c.Query("seller_id"))
	default:
		badRequest(c, "user_id or seller_id is required")
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.Order{}
	}
	respond(c, http.StatusOK, list)
}

func (h *MarketplaceHandler) GetOrder(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, o)
}

type orderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func (h *MarketplaceHandler) UpdateOrderStatus(c *gin.Context) {
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, o)
}

type preBookingRequest struct {
	UserID        string     `json:"user_id"`
	SellerID      string     `json:"seller_id"`
	VegetableID   string     `json:"vegetable_id"`
	VegetableName string     `json:"vegetable_name"`
	Quantity      int        `json:"quantity"`
	Unit          string     `json:"unit"`
	DesiredDate   *time.Time `json:"desired_date"`
	Notes         string     `json:"notes"`
}

func (h *MarketplaceHandler) CreatePreBooking(c *gin.Context) {
	var req preBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := h.prebookings.Create(c.Request.Context(), prebooking.Request{
		UserID:        req.UserID,
		SellerID:      req.SellerID,
		VegetableID:   req.VegetableID,
		VegetableName: req.VegetableName,
		Quantity:      req.Quantity,
		Unit:          req.Unit,
		DesiredDate:   req.DesiredDate,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, p)
}

func (h *MarketplaceHandler) ListPreBookings(c *gin.Context) {
	var (
		list []models.PreBooking
		err  error
	)
	switch {
	case c.Query("user_id") != "":
		list, err = h.prebookings.ListByUser(c.Request.Context(), c.Query("user_id"))
	case c.Query("seller_id") != "":
		list, err = h.prebookings.ListBySeller(c.Request.Context(), c.Query("seller_id"))
	default:
		badRequest(c, "user_id or seller_id is required")
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.PreBooking{}
	}
	respond(c, http.StatusOK, list)
}

type preBookingStatusRequest struct {
	ActorID string                  `json:"actor_id" binding:"required"`
	Status  models.PreBookingStatus `json:"status" binding:"required"`
}

func (h *MarketplaceHandler) UpdatePreBookingStatus(c *gin.Context) {
	var req preBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := h.prebookings.UpdateStatus(c.Request.Context(), c.Param("id"), req.ActorID, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, p)
}
