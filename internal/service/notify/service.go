// Package notify sends marketplace events to sellers and buyers over WhatsApp.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmer-market/internal/domain/models"
	client "github.com/mamadbah2/farmer-market/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// UserLookup resolves user ids to phone numbers.
type UserLookup interface {
	Get(ctx context.Context, id string) (models.User, error)
}

// Service formats and sends notifications. A nil client turns every call into a no-op.
type Service struct {
	client client.Client
	users  UserLookup
	logger *zap.Logger
}

func NewService(c client.Client, users UserLookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: c, users: users, logger: logger}
}

// OrderPlaced tells the seller about a new order.
func (s *Service) OrderPlaced(ctx context.Context, order models.Order) error {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s", shortID(order.ID))
	if order.BuyerName != "" {
		fmt.Fprintf(&b, " from %s", order.BuyerName)
	}
	b.WriteString("\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %s: %d %s x %.2f\n", item.Name, item.Quantity, item.Unit, item.Price)
	}
	fmt.Fprintf(&b, "Total: %.2f", order.Total)
	if order.Phone != "" {
		fmt.Fprintf(&b, "\nBuyer phone: %s", order.Phone)
	}
	if order.Address != "" {
		fmt.Fprintf(&b, "\nDeliver to: %s", order.Address)
	}
	if order.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s", order.Notes)
	}
	return s.sendTextToUser(ctx, order.SellerID, b.String())
}

// PreBookingCreated asks the seller to accept or reject a prebooking.
func (s *Service) PreBookingCreated(ctx context.Context, pb models.PreBooking) error {
	if s.client == nil {
		return nil
	}
	seller, err := s.users.Get(ctx, pb.SellerID)
	if err != nil {
		return fmt.Errorf("resolve seller %s: %w", pb.SellerID, err)
	}

	body := fmt.Sprintf("Prebooking request %s: %d %s of %s", shortID(pb.ID), pb.Quantity, pb.Unit, pb.VegetableName)
	if pb.DesiredDate != nil {
		body += fmt.Sprintf(" by %s", pb.DesiredDate.Format(time.DateOnly))
	}
	if pb.Notes != "" {
		body += "\nNotes: " + pb.Notes
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err = s.client.SendButtonMessage(ctx, client.SendButtonMessageRequest{
		To:     seller.Phone,
		Body:   body,
		Footer: "Reply 'help' for all commands",
		Buttons: []models.ReplyButton{
			{ID: models.ButtonID(models.CommandAccept, pb.ID), Title: "Accept"},
			{ID: models.ButtonID(models.CommandReject, pb.ID), Title: "Reject"},
		},
	})
	if err != nil {
		return fmt.Errorf("notify seller of prebooking: %w", err)
	}
	return nil
}

// PreBookingUpdated tells the buyer their prebooking changed status.
func (s *Service) PreBookingUpdated(ctx context.Context, pb models.PreBooking) error {
	text := fmt.Sprintf("Your prebooking for %s (%d %s) is now %s.", pb.VegetableName, pb.Quantity, pb.Unit, strings.ReplaceAll(string(pb.Status), "_", " "))
	return s.sendTextToUser(ctx, pb.UserID, text)
}

// OrderUpdated tells the buyer their order changed status.
func (s *Service) OrderUpdated(ctx context.Context, order models.Order) error {
	text := fmt.Sprintf("Your order %s is now %s.", shortID(order.ID), order.Status)
	return s.sendTextToUser(ctx, order.BuyerID, text)
}

// Text sends a plain message to a phone number.
func (s *Service) Text(ctx context.Context, to, body string) error {
	if s.client == nil {
		s.logger.Debug("whatsapp disabled, dropping message", zap.String("to", to))
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if _, err := s.client.SendTextMessage(ctx, client.SendTextMessageRequest{To: to, Body: body}); err != nil {
		return fmt.Errorf("send text to %s: %w", to, err)
	}
	return nil
}

func (s *Service) sendTextToUser(ctx context.Context, userID, body string) error {
	if s.client == nil {
		return nil
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve user %s: %w", userID, err)
	}
	return s.Text(ctx, u.Phone, body)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
