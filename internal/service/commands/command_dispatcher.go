package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/repository"
	"github.com/mamadbah2/farmer-market/internal/service/prebooking"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnknownSender means the phone number is not a registered seller.
var ErrUnknownSender = errors.New("sender is not a registered seller")

// NotRegisteredReply is sent back to phone numbers that are not sellers.
const NotRegisteredReply = "This number is not registered as a seller. Please sign up on the marketplace first."

var usage = map[models.CommandType]models.CommandUsage{
	models.CommandAccept: {
		Title:   "Accept prebooking",
		Message: "accept <prebooking id>",
	},
	models.CommandReject: {
		Title:   "Reject prebooking",
		Message: "reject <prebooking id>",
	},
	models.CommandProgress: {
		Title:   "Start preparing",
		Message: "progress <prebooking id>",
	},
	models.CommandFulfil: {
		Title:   "Mark fulfilled",
		Message: "fulfil <prebooking id>",
	},
	models.CommandStock: {
		Title:   "Update stock",
		Message: "stock <vegetable id> <quantity>, e.g. stock 3f2a 40",
	},
}

var helpOrder = []models.CommandType{
	models.CommandAccept, models.CommandReject, models.CommandProgress, models.CommandFulfil, models.CommandStock,
}

var commandTargets = map[models.CommandType]models.PreBookingStatus{
	models.CommandAccept:   models.PreBookingAccepted,
	models.CommandReject:   models.PreBookingRejected,
	models.CommandProgress: models.PreBookingInProgress,
	models.CommandFulfil:   models.PreBookingFulfilled,
}

// Sellers resolves a WhatsApp sender.
type Sellers interface {
	FindByPhone(ctx context.Context, phone string) (models.User, error)
}

// PreBookings moves prebookings on behalf of a seller.
type PreBookings interface {
	UpdateStatus(ctx context.Context, id, actorID string, to models.PreBookingStatus) (models.PreBooking, error)
}

// Stock reads and overwrites listing stock.
type Stock interface {
	Get(ctx context.Context, id string) (models.Vegetable, error)
	SetStock(ctx context.Context, id string, qty int) (models.Vegetable, error)
}

// Dispatcher executes parsed seller commands and returns the reply to send.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	sellers     Sellers
	prebookings PreBookings
	stock       Stock
	logger      *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(sellers Sellers, prebookings PreBookings, stock Stock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sellers:     sellers,
		prebookings: prebookings,
		stock:       stock,
		logger:      logger,
	}
}

// HandleCommand runs cmd for the seller behind sender. Mistakes the seller can
// fix are answered in the reply; only infrastructure failures return an error.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	seller, err := s.sellers.FindByPhone(ctx, sender)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotRegisteredReply, ErrUnknownSender
		}
		return "", fmt.Errorf("resolve sender: %w", err)
	}
	if seller.Role != models.RoleSeller && seller.Role != models.RoleAdmin {
		return NotRegisteredReply, ErrUnknownSender
	}

	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("seller_id", seller.ID), zap.Any("args", cmd.Args))

	var reply string
	switch cmd.Type {
	case models.CommandAccept, models.CommandReject, models.CommandProgress, models.CommandFulfil:
		reply, err = s.movePreBooking(ctx, seller, cmd)
	case models.CommandStock:
		reply, err = s.updateStock(ctx, seller, cmd)
	case models.CommandHelp:
		return helpText(), nil
	default:
		return "Unknown command.\n" + helpText(), nil
	}

	if msg, ok := userFacing(err, cmd.Type); ok {
		return msg, nil
	}
	return reply, err
}

func (s *Service) movePreBooking(ctx context.Context, seller models.User, cmd models.Command) (string, error) {
	if len(cmd.Args) != 1 {
		return "", ErrInvalidArguments
	}
	p, err := s.prebookings.UpdateStatus(ctx, cmd.Args[0], seller.ID, commandTargets[cmd.Type])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Prebooking for %d %s of %s is now %s.", p.Quantity, p.Unit, p.VegetableName, strings.ReplaceAll(string(p.Status), "_", " ")), nil
}

func (s *Service) updateStock(ctx context.Context, seller models.User, cmd models.Command) (string, error) {
	if len(cmd.Args) != 2 {
		return "", ErrInvalidArguments
	}
	qty, err := strconv.Atoi(cmd.Args[1])
	if err != nil || qty < 0 {
		return "", ErrInvalidArguments
	}

	v, err := s.stock.Get(ctx, cmd.Args[0])
	if err != nil {
		return "", err
	}
	if v.SellerID != seller.ID && seller.Role != models.RoleAdmin {
		return "", prebooking.ErrNotOwner
	}

	v, err = s.stock.SetStock(ctx, v.ID, qty)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Stock for %s set to %d %s.", v.Name, v.Quantity, v.Unit), nil
}

func userFacing(err error, cmd models.CommandType) (string, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, ErrInvalidArguments):
		u := usage[cmd]
		return fmt.Sprintf("%s\nUsage: %s", u.Title, u.Message), true
	case errors.Is(err, repository.ErrNotFound):
		return "Nothing found with that id.", true
	case errors.Is(err, prebooking.ErrNotOwner):
		return "That item belongs to another seller.", true
	case errors.Is(err, prebooking.ErrInvalidTransition):
		return "That change is not possible in the current status.", true
	}
	return "", false
}

func helpText() string {
	var b strings.Builder
	b.WriteString("Commands:")
	for _, t := range helpOrder {
		u := usage[t]
		fmt.Fprintf(&b, "\n- %s: %s", u.Title, u.Message)
	}
	return b.String()
}
