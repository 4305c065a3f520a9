package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domaincart "github.com/mamadbah2/farmer-market/internal/domain/cart"
	"github.com/mamadbah2/farmer-market/internal/domain/grid"
	"github.com/mamadbah2/farmer-market/internal/domain/models"
	"github.com/mamadbah2/farmer-market/internal/repository"
	"github.com/mamadbah2/farmer-market/internal/service/cart"
	"github.com/mamadbah2/farmer-market/internal/service/catalog"
	"github.com/mamadbah2/farmer-market/internal/service/farm"
	"github.com/mamadbah2/farmer-market/internal/service/orders"
	"github.com/mamadbah2/farmer-market/internal/service/prebooking"
	"github.com/mamadbah2/farmer-market/internal/service/users"
	"github.com/mamadbah2/farmer-market/internal/service/whatsapp"
)

var errorStatuses = []struct {
	status int
	errs   []error
}{
	{http.StatusNotFound, []error{repository.ErrNotFound, domaincart.ErrItemNotInCart}},
	{http.StatusConflict, []error{
		farm.ErrCellOccupied,
		prebooking.ErrDuplicatePrebooking,
		prebooking.ErrInvalidTransition,
		orders.ErrInvalidTransition,
		domaincart.ErrFreeItemConflict,
		users.ErrPhoneTaken,
		repository.ErrDuplicate,
	}},
	{http.StatusUnprocessableEntity, []error{domaincart.ErrExceedsStock, catalog.ErrInsufficientStock}},
	{http.StatusForbidden, []error{prebooking.ErrNotOwner}},
	{http.StatusBadRequest, []error{
		grid.ErrInvalidTier,
		grid.ErrEmptyLayout,
		grid.ErrInvalidDirection,
		grid.ErrBlockOutOfRange,
		grid.ErrCellOutOfRange,
		farm.ErrInvalidNodeType,
		farm.ErrInvalidStatus,
		farm.ErrInvalidCoordinates,
		farm.ErrInvalidCareAction,
		farm.ErrInvalidInput,
		catalog.ErrInvalidVegetable,
		domaincart.ErrInvalidQuantity,
		domaincart.ErrOutOfStock,
		cart.ErrUserRequired,
		orders.ErrEmptyCart,
		orders.ErrInvalidCheckout,
		prebooking.ErrInvalidPreBooking,
		users.ErrInvalidUser,
	}},
	{http.StatusBadGateway, []error{whatsapp.ErrMessagingDisabled}},
}

func statusFor(err error) int {
	for _, group := range errorStatuses {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.status
			}
		}
	}
	return http.StatusInternalServerError
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, models.APIResponse{Success: true, Data: data})
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		msg = "internal server error"
	}
	c.JSON(status, models.APIResponse{Success: false, Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Error: msg})
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		badRequest(c, name+" must be an integer")
		return 0, false
	}
	return v, true
}

func intQuery(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		badRequest(c, name+" must be an integer")
		return 0, false
	}
	return v, true
}
