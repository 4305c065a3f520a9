// Package cart enforces the quantity rules of a shopping cart before any of it is stored.
package cart

import (
	"errors"
	"fmt"

	"github.com/mamadbah2/farmer-market/internal/domain/models"
)

var (
	// ErrFreeItemConflict means a different free item already sits in the cart.
	ErrFreeItemConflict = errors.New("only one free item can be in the cart at a time")
	ErrExceedsStock     = errors.New("quantity exceeds available stock")
	ErrOutOfStock       = errors.New("item is out of stock")
	ErrItemNotInCart    = errors.New("item not in cart")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
)

// Cart is an ordered list of lines, one per listing id.
type Cart struct {
	Items []models.CartItem `json:"items"`
}

// AddItem merges qty of item into the cart, clamped to item.AvailableQuantity.
// The stock snapshot and price of an existing line are refreshed from item.
func (c *Cart) AddItem(item models.CartItem, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if item.AvailableQuantity <= 0 {
		return fmt.Errorf("%s: %w", item.Name, ErrOutOfStock)
	}
	if item.Price == 0 {
		if other, ok := c.freeItemOtherThan(item.Name); ok {
			return fmt.Errorf("%w: %s already in cart", ErrFreeItemConflict, other.Name)
		}
	}

	if i := c.indexOf(item.ID); i >= 0 {
		line := item
		line.Quantity = min(c.Items[i].Quantity+qty, item.AvailableQuantity)
		c.Items[i] = line
		return nil
	}

	line := item
	line.Quantity = min(qty, item.AvailableQuantity)
	c.Items = append(c.Items, line)
	return nil
}

// UpdateQuantity sets the quantity of a line. Zero removes it, negative values
// are ignored and anything above the stock snapshot is rejected unchanged.
func (c *Cart) UpdateQuantity(id string, qty int) error {
	i := c.indexOf(id)
	if i < 0 {
		return ErrItemNotInCart
	}

	switch {
	case qty == 0:
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return nil
	case qty < 1:
		return nil
	case qty > c.Items[i].AvailableQuantity:
		return fmt.Errorf("%s: only %d %s available: %w", c.Items[i].Name, c.Items[i].AvailableQuantity, c.Items[i].Unit, ErrExceedsStock)
	}

	c.Items[i].Quantity = qty
	return nil
}

// RefreshStock replaces the stock snapshot of a line. Quantities already in
// the cart are left alone; they are checked again at checkout.
func (c *Cart) RefreshStock(id string, available int) {
	if i := c.indexOf(id); i >= 0 {
		c.Items[i].AvailableQuantity = available
	}
}

// Remove drops a line if present.
func (c *Cart) Remove(id string) {
	if i := c.indexOf(id); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// Line returns the line for id.
func (c *Cart) Line(id string) (models.CartItem, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c.Items[i], true
	}
	return models.CartItem{}, false
}

// Total is the sum of price times quantity over all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool { return len(c.Items) == 0 }

// BySeller splits the lines per seller, keeping the cart order within each group.
func (c *Cart) BySeller() (sellers []string, groups map[string][]models.CartItem) {
	groups = make(map[string][]models.CartItem)
	for _, it := range c.Items {
		if _, seen := groups[it.SellerID]; !seen {
			sellers = append(sellers, it.SellerID)
		}
		groups[it.SellerID] = append(groups[it.SellerID], it)
	}
	return sellers, groups
}

func (c *Cart) indexOf(id string) int {
	for i, it := range c.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) freeItemOtherThan(name string) (models.CartItem, bool) {
	for _, it := range c.Items {
		if it.Price == 0 && it.Name != name {
			return it, true
		}
	}
	return models.CartItem{}, false
}
