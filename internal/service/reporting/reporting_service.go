package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmer-market/internal/domain/models"
)

const dateLayout = "2006-01-02"

// Orders lists orders placed in a time window.
type Orders interface {
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error)
}

// PreBookings counts prebookings that still need a seller's attention.
type PreBookings interface {
	CountActive(ctx context.Context) (int64, error)
}

// Digest is the aggregated view of one trading day.
type Digest struct {
	Day             time.Time
	Orders          int
	Cancelled       int
	Revenue         float64
	Items           []ItemTotal
	OpenPreBookings int64
}

// ItemTotal is the quantity sold of one vegetable.
type ItemTotal struct {
	Name     string
	Unit     string
	Quantity int
	Revenue  float64
}

// Service exposes lightweight analytics for WhatsApp summaries.
type Service struct {
	orders      Orders
	prebookings PreBookings
	loc         *time.Location
	logger      *zap.Logger
}

// NewService wires a new reporting service instance. Days are cut in loc.
func NewService(orders Orders, prebookings PreBookings, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{orders: orders, prebookings: prebookings, loc: loc, logger: logger}
}

// Aggregate collects the orders placed on day's calendar date.
func (s *Service) Aggregate(ctx context.Context, day time.Time) (Digest, error) {
	local := day.In(s.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)

	orders, err := s.orders.ListCreatedBetween(ctx, start.UTC(), end.UTC())
	if err != nil {
		return Digest{}, fmt.Errorf("load orders for %s: %w", start.Format(dateLayout), err)
	}

	d := Digest{Day: start}
	byName := map[string]*ItemTotal{}
	for _, o := range orders {
		if o.Status == models.OrderCancelled {
			d.Cancelled++
			continue
		}
		d.Orders++
		d.Revenue += o.Total
		for _, item := range o.Items {
			key := strings.ToLower(item.Name) + "|" + item.Unit
			t, ok := byName[key]
			if !ok {
				t = &ItemTotal{Name: item.Name, Unit: item.Unit}
				byName[key] = t
			}
			t.Quantity += item.Quantity
			t.Revenue += item.Subtotal()
		}
	}

	for _, t := range byName {
		d.Items = append(d.Items, *t)
	}
	sort.Slice(d.Items, func(i, j int) bool {
		if d.Items[i].Quantity != d.Items[j].Quantity {
			return d.Items[i].Quantity > d.Items[j].Quantity
		}
		return d.Items[i].Name < d.Items[j].Name
	})

	if s.prebookings != nil {
		open, err := s.prebookings.CountActive(ctx)
		if err != nil {
			s.logger.Warn("failed to count open prebookings", zap.Error(err))
		} else {
			d.OpenPreBookings = open
		}
	}

	return d, nil
}

// DailyDigest renders the day's sales as a WhatsApp friendly text.
func (s *Service) DailyDigest(ctx context.Context, day time.Time) (string, error) {
	d, err := s.Aggregate(ctx, day)
	if err != nil {
		return "", err
	}
	return Format(d), nil
}

// Format renders a Digest.
func Format(d Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sales digest %s\n", d.Day.Format(dateLayout))

	if d.Orders == 0 {
		b.WriteString("No orders today.")
	} else {
		fmt.Fprintf(&b, "Orders: %d\nRevenue: %.2f", d.Orders, d.Revenue)
		for _, t := range d.Items {
			fmt.Fprintf(&b, "\n- %s: %d %s (%.2f)", t.Name, t.Quantity, t.Unit, t.Revenue)
		}
	}
	if d.Cancelled > 0 {
		fmt.Fprintf(&b, "\nCancelled: %d", d.Cancelled)
	}
	fmt.Fprintf(&b, "\nOpen prebookings: %d", d.OpenPreBookings)
	return b.String()
}
