package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-pass-booking/internal/model"
	"github.com/iliyamo/event-pass-booking/internal/repository"
	"github.com/iliyamo/event-pass-booking/internal/validation"
)

// StaffHandler covers the counter workflows: cash-sale verification, the
// staff member's own sales and the discounts available to them.
type StaffHandler struct {
	Validator *validation.Validator
	Sales     *repository.StaffSaleRepo
	Discounts *repository.DiscountRepo
}

func NewStaffHandler(v *validation.Validator, s *repository.StaffSaleRepo, d *repository.DiscountRepo) *StaffHandler {
	if v == nil || s == nil || d == nil {
		panic("nil dependency passed to NewStaffHandler")
	}
	return &StaffHandler{Validator: v, Sales: s, Discounts: d}
}

type verifyBookingReq struct {
	PaymentMode string `json:"payment_mode"` // cash | upi
}

// VerifyBooking handles POST /v1/staff/verify-booking/:booking_id.  The
// staff member confirms an on-site sale: the booking is consumed and a
// commission record written.
func (h *StaffHandler) VerifyBooking(c echo.Context) error {
	var req verifyBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	mode := model.PaymentMode(strings.ToLower(req.PaymentMode))
	if mode == "" {
		mode = model.PayModeCash
	}
	if mode != model.PayModeCash && mode != model.PayModeUPI {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_mode must be cash or upi"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	sale, err := h.Validator.VerifyCashSale(ctx, c.Param("booking_id"), mode, getActor(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking verified", "sale": sale})
}

// ListSales handles GET /v1/staff/sales.
func (h *StaffHandler) ListSales(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	sales, err := h.Sales.ListByStaff(ctx, getActor(c).UserID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"sales": sales})
}

// ListActiveDiscounts handles GET /v1/staff/active-discounts: codes
// assigned to the calling staff member that are still usable.
func (h *StaffHandler) ListActiveDiscounts(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	discounts, err := h.Discounts.ListActiveForStaff(ctx, getActor(c).UserID, time.Now().UTC())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"discounts": discounts})
}
