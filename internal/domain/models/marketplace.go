package models

import (
	"strings"
	"time"
)

// Role distinguishes marketplace participants.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// User is a buyer, seller or admin of the marketplace.
type User struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Phone     string    `bson:"phone" json:"phone"`
	Role      Role      `bson:"role" json:"role"`
	Location  string    `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// NormalizePhone keeps only the digits of a phone number, the form WhatsApp uses.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Category groups vegetables and fruits.
type Category string

const (
	CategoryVegetable Category = "vegetable"
	CategoryFruit     Category = "fruit"
)

// Vegetable is a produce listing. Quantity is the seller-declared available stock.
type Vegetable struct {
	ID          string    `bson:"_id" json:"id"`
	SellerID    string    `bson:"seller_id" json:"seller_id"`
	Name        string    `bson:"name" json:"name"`
	Category    Category  `bson:"category" json:"category"`
	Price       float64   `bson:"price" json:"price"`
	Quantity    int       `bson:"quantity" json:"quantity"`
	Unit        string    `bson:"unit" json:"unit"`
	Location    string    `bson:"location,omitempty" json:"location,omitempty"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	ImageURL    string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// IsFree reports whether the listing is given away.
func (v Vegetable) IsFree() bool { return v.Price == 0 }

// VegetableFilter narrows a catalogue listing. Empty fields match everything.
type VegetableFilter struct {
	Category Category
	SellerID string
	Search   string
}

// Match reports whether v satisfies the filter.
func (f VegetableFilter) Match(v Vegetable) bool {
	if f.Category != "" && v.Category != f.Category {
		return false
	}
	if f.SellerID != "" && v.SellerID != f.SellerID {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(v.Name), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// CartItem is one cart line. AvailableQuantity snapshots the seller's stock.
type CartItem struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	Quantity          int     `json:"quantity"`
	Unit              string  `json:"unit"`
	SellerID          string  `json:"seller_id"`
	AvailableQuantity int     `json:"available_quantity"`
}

// CheckoutMethod is how the buyer completes an order.
type CheckoutMethod string

const (
	CheckoutOnline   CheckoutMethod = "online"
	CheckoutWhatsApp CheckoutMethod = "whatsapp"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderItem is a priced line frozen at checkout time.
type OrderItem struct {
	VegetableID string  `bson:"vegetable_id" json:"vegetable_id"`
	Name        string  `bson:"name" json:"name"`
	Price       float64 `bson:"price" json:"price"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Unit        string  `bson:"unit" json:"unit"`
}

// Subtotal is price times quantity.
func (i OrderItem) Subtotal() float64 { return i.Price * float64(i.Quantity) }

// Order groups the items bought from one seller.
type Order struct {
	ID        string         `bson:"_id" json:"id"`
	BuyerID   string         `bson:"buyer_id" json:"buyer_id"`
	SellerID  string         `bson:"seller_id" json:"seller_id"`
	BuyerName string         `bson:"buyer_name,omitempty" json:"buyer_name,omitempty"`
	Phone     string         `bson:"phone,omitempty" json:"phone,omitempty"`
	Address   string         `bson:"address,omitempty" json:"address,omitempty"`
	Notes     string         `bson:"notes,omitempty" json:"notes,omitempty"`
	Method    CheckoutMethod `bson:"method" json:"method"`
	Status    OrderStatus    `bson:"status" json:"status"`
	Items     []OrderItem    `bson:"items" json:"items"`
	Total     float64        `bson:"total" json:"total"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at" json:"updated_at"`
}

// PreBookingStatus is the lifecycle state of a prebooking.
type PreBookingStatus string

const (
	PreBookingPending    PreBookingStatus = "pending"
	PreBookingAccepted   PreBookingStatus = "accepted"
	PreBookingInProgress PreBookingStatus = "in_progress"
	PreBookingFulfilled  PreBookingStatus = "fulfilled"
	PreBookingRejected   PreBookingStatus = "rejected"
	PreBookingCancelled  PreBookingStatus = "cancelled"
	PreBookingExpired    PreBookingStatus = "expired"
)

// ActivePreBookingStatuses are the non-terminal states.
var ActivePreBookingStatuses = []PreBookingStatus{PreBookingPending, PreBookingAccepted, PreBookingInProgress}

// Active reports whether the status is non-terminal.
func (s PreBookingStatus) Active() bool {
	for _, a := range ActivePreBookingStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// PreBooking reserves an out-of-stock vegetable for later fulfilment.
type PreBooking struct {
	ID            string           `bson:"_id" json:"id"`
	UserID        string           `bson:"user_id" json:"user_id"`
	SellerID      string           `bson:"seller_id" json:"seller_id"`
	VegetableID   string           `bson:"vegetable_id,omitempty" json:"vegetable_id,omitempty"`
	VegetableName string           `bson:"vegetable_name" json:"vegetable_name"`
	NameKey       string           `bson:"name_key" json:"-"`
	Quantity      int              `bson:"quantity" json:"quantity"`
	Unit          string           `bson:"unit" json:"unit"`
	DesiredDate   *time.Time       `bson:"desired_date,omitempty" json:"desired_date,omitempty"`
	Notes         string           `bson:"notes,omitempty" json:"notes,omitempty"`
	Status        PreBookingStatus `bson:"status" json:"status"`
	CreatedAt     time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `bson:"updated_at" json:"updated_at"`
}

// PreBookingNameKey normalises a vegetable name for duplicate detection.
func PreBookingNameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
