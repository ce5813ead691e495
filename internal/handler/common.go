package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-pass-booking/internal/booking"
	"github.com/iliyamo/event-pass-booking/internal/model"
	"github.com/iliyamo/event-pass-booking/internal/payment"
	"github.com/iliyamo/event-pass-booking/internal/pricing"
	"github.com/iliyamo/event-pass-booking/internal/repository"
	"github.com/iliyamo/event-pass-booking/internal/validation"
)

// reqTimeout bounds every handler's database work.
const reqTimeout = 5 * time.Second

// reqContext derives a bounded context from the request.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), reqTimeout)
}

// getActor reconstructs the authenticated caller from the context keys set
// by the JWT middleware.  The zero Actor (empty UserID) means the request
// slipped past auth somehow and must be rejected.
func getActor(c echo.Context) model.Actor {
	var a model.Actor
	if v, ok := c.Get("user_id").(string); ok {
		a.UserID = v
	}
	if v, ok := c.Get("role").(string); ok {
		a.Role = model.ParseRole(v)
	}
	if v, ok := c.Get("zone_id").(string); ok {
		a.ZoneID = v
	}
	return a
}

// serviceError maps service and repository sentinels onto HTTP responses.
// Unrecognized errors become a 500 with a generic message so internals do
// not leak to clients.
func serviceError(c echo.Context, err error) error {
	var gw *payment.GatewayError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, repository.ErrForbidden), errors.Is(err, booking.ErrNotOwner), errors.Is(err, validation.ErrNotAllowed):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, booking.ErrInventoryExhausted):
		return c.JSON(http.StatusConflict, echo.Map{"error": "pass sold out"})
	case errors.Is(err, booking.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "operation not valid for booking state"})
	case errors.Is(err, booking.ErrPaymentVerification):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment verification failed"})
	case errors.Is(err, pricing.ErrPassInactive), errors.Is(err, pricing.ErrPassExpired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, pricing.ErrInvalidGroupSize):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group size"})
	case errors.Is(err, pricing.ErrUnauthorizedDiscount):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "discount not authorized"})
	case errors.Is(err, validation.ErrZoneMismatch):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "booking belongs to a different zone"})
	case errors.Is(err, validation.ErrStaffZoneMissing):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "staff account has no zone assigned"})
	case errors.Is(err, validation.ErrNotGroup):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not a group booking"})
	case errors.Is(err, validation.ErrInvalidMemberIndex):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "member index out of range"})
	case errors.Is(err, validation.ErrAlreadyEntered):
		return c.JSON(http.StatusConflict, echo.Map{"error": "member already entered"})
	case errors.As(err, &gw):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider error"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
