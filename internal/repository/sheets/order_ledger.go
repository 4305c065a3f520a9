package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/mamadbah2/farmer-market/internal/domain/models"
)

// OrderLedger appends one spreadsheet row per order item.
type OrderLedger struct {
	repo       Repository
	orderRange string
}

func NewOrderLedger(repo Repository, orderRange string) *OrderLedger {
	return &OrderLedger{repo: repo, orderRange: orderRange}
}

// RecordOrder writes the items of o. Columns: date, order id, buyer, seller,
// vegetable, quantity, unit, price, subtotal, method.
func (l *OrderLedger) RecordOrder(ctx context.Context, o models.Order) error {
	if err := l.repo.AppendRows(ctx, l.orderRange, OrderRows(o)); err != nil {
		return fmt.Errorf("record order %s: %w", o.ID, err)
	}
	return nil
}

// LedgerHeader is the first row of an order ledger sheet.
var LedgerHeader = []interface{}{"Date", "Order", "Buyer", "Seller", "Item", "Quantity", "Unit", "Price", "Subtotal", "Method"}

// EnsureHeader writes LedgerHeader when the ledger sheet is still empty.
func (l *OrderLedger) EnsureHeader(ctx context.Context) error {
	rows, err := l.repo.ReadRange(ctx, l.orderRange)
	if err != nil {
		return fmt.Errorf("read order ledger: %w", err)
	}
	if len(rows) > 0 {
		return nil
	}
	if err := l.repo.AppendRows(ctx, l.orderRange, [][]interface{}{LedgerHeader}); err != nil {
		return fmt.Errorf("write order ledger header: %w", err)
	}
	return nil
}

// OrderRows flattens an order into ledger rows.
func OrderRows(o models.Order) [][]interface{} {
	rows := make([][]interface{}, 0, len(o.Items))
	date := o.CreatedAt.Format(time.DateOnly)
	for _, item := range o.Items {
		rows = append(rows, []interface{}{
			date,
			o.ID,
			o.BuyerName,
			o.SellerID,
			item.Name,
			item.Quantity,
			item.Unit,
			item.Price,
			item.Subtotal(),
			string(o.Method),
		})
	}
	return rows
}

// NopLedger drops every order. Used when Sheets is not configured.
type NopLedger struct{}

func (NopLedger) RecordOrder(context.Context, models.Order) error { return nil }
