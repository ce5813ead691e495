package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	q "github.com/iliyamo/event-pass-booking/internal/queue"
	queue_publisher "github.com/iliyamo/event-pass-booking/internal/service"
	"github.com/iliyamo/event-pass-booking/internal/validation"
)

// ValidationHandler exposes gate-side scanning.  Routes are restricted to
// staff and admin roles by middleware; zone scoping happens inside the
// validator so admins bypass it.
type ValidationHandler struct {
	Validator *validation.Validator
}

func NewValidationHandler(v *validation.Validator) *ValidationHandler {
	if v == nil {
		panic("nil validator passed to NewValidationHandler")
	}
	return &ValidationHandler{Validator: v}
}

type scanReq struct {
	QRCode string `json:"qr_code"`
}

// ValidateQR handles POST /v1/validate/validate-qr.  The QR payload is the
// booking identifier.
func (h *ValidationHandler) ValidateQR(c echo.Context) error {
	var req scanReq
	if err := c.Bind(&req); err != nil || req.QRCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr_code required"})
	}
	actor := getActor(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	res, err := h.Validator.ValidateScan(ctx, req.QRCode, actor)
	if err != nil {
		return serviceError(c, err)
	}

	if res.Valid && !res.IsGroup {
		h.publishValidated(res.BookingID, actor.ZoneID, actor.UserID, "")
	}
	return c.JSON(http.StatusOK, res)
}

// ValidateGroupEntry handles POST /v1/validate/validate-group-entry/:booking_id/:member_index.
func (h *ValidationHandler) ValidateGroupEntry(c echo.Context) error {
	idx, err := strconv.Atoi(c.Param("member_index"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "member_index must be an integer"})
	}
	actor := getActor(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	res, err := h.Validator.ValidateGroupEntry(ctx, c.Param("booking_id"), idx, actor)
	if err != nil {
		return serviceError(c, err)
	}

	member := ""
	if idx >= 0 && idx < len(res.GroupMembers) {
		member = res.GroupMembers[idx].Name
	}
	h.publishValidated(res.BookingID, actor.ZoneID, actor.UserID, member)
	return c.JSON(http.StatusOK, res)
}

func (h *ValidationHandler) publishValidated(bookingID, zoneID, by, member string) {
	publishAsync(func(pctx context.Context) error {
		return queue_publisher.PublishEntryValidated(pctx, q.EntryValidatedEvent{
			BookingID:   bookingID,
			ZoneID:      zoneID,
			ValidatedBy: by,
			MemberName:  member,
			ValidatedAt: time.Now().UTC().Format(time.RFC3339),
		})
	})
}
