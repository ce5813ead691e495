package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/event-pass-booking/internal/booking"
	"github.com/iliyamo/event-pass-booking/internal/model"
	q "github.com/iliyamo/event-pass-booking/internal/queue"
	"github.com/iliyamo/event-pass-booking/internal/repository"
	queue_publisher "github.com/iliyamo/event-pass-booking/internal/service"
)

// BookingHandler exposes the booking lifecycle over HTTP: create, cancel,
// verify payment and read.  Domain events go out after the state change
// committed; a publish failure is logged and never fails the request.
type BookingHandler struct {
	Manager  *booking.Manager
	Users    *repository.UserRepo
	Bookings *repository.BookingRepo
}

func NewBookingHandler(m *booking.Manager, u *repository.UserRepo, b *repository.BookingRepo) *BookingHandler {
	if m == nil || u == nil || b == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Manager: m, Users: u, Bookings: b}
}

type createBookingReq struct {
	GroupMembers    []model.GroupMember `json:"group_members"`
	DiscountApplied float64             `json:"discount_applied"`
}

type verifyPaymentReq struct {
	BookingID string `json:"booking_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// Create handles POST /v1/bookings/:pass_id.
func (h *BookingHandler) Create(c echo.Context) error {
	actor := getActor(c)
	if actor.UserID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, actor.UserID)
	if err != nil {
		return serviceError(c, err)
	}

	res, err := h.Manager.Create(ctx, booking.CreateRequest{
		UserID:        actor.UserID,
		UserName:      u.Name,
		UserEmail:     u.Email,
		PassID:        c.Param("pass_id"),
		GroupMembers:  req.GroupMembers,
		DiscountClaim: req.DiscountApplied,
	})
	if err != nil {
		return serviceError(c, err)
	}

	b := res.Booking
	publishAsync(func(pctx context.Context) error {
		return queue_publisher.PublishBookingCreated(pctx, q.BookingCreatedEvent{
			BookingID:       b.ID,
			UserID:          b.UserID,
			PassID:          b.PassID,
			ZoneID:          b.ZoneID,
			IsGroup:         b.IsGroup,
			MemberCount:     len(b.GroupMembers),
			AmountPaid:      b.AmountPaid,
			DiscountApplied: b.DiscountApplied,
			Status:          string(b.Status),
			CreatedAt:       b.CreatedAt.Format(time.RFC3339),
		})
	})

	return c.JSON(http.StatusCreated, res)
}

// Cancel handles PUT /v1/bookings/cancel/:booking_id.
func (h *BookingHandler) Cancel(c echo.Context) error {
	actor := getActor(c)
	if actor.UserID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	b, err := h.Manager.Cancel(ctx, c.Param("booking_id"), actor)
	if err != nil {
		return serviceError(c, err)
	}

	publishAsync(func(pctx context.Context) error {
		return queue_publisher.PublishBookingCancelled(pctx, q.BookingCancelledEvent{
			BookingID:    b.ID,
			UserID:       b.UserID,
			PassID:       b.PassID,
			RefundStatus: string(b.RefundStatus),
			RefundAmount: b.RefundAmount,
			RefundID:     b.RefundID,
			CancelledAt:  time.Now().UTC().Format(time.RFC3339),
		})
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message":       "booking cancelled",
		"refund_status": b.RefundStatus,
		"refund_amount": b.RefundAmount,
	})
}

// VerifyPayment handles POST /v1/bookings/verify-payment.
func (h *BookingHandler) VerifyPayment(c echo.Context) error {
	var req verifyPaymentReq
	if err := c.Bind(&req); err != nil || req.BookingID == "" || req.PaymentID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id and payment_id required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	b, err := h.Manager.VerifyPayment(ctx, req.BookingID, req.PaymentID, req.Signature)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "payment verified", "booking": b})
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	actor := getActor(c)
	if actor.UserID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	b, err := h.Manager.Get(ctx, c.Param("id"), actor)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// ListForUser handles GET /v1/bookings/user/:user_id.  Users may only list
// their own bookings; staff and admins may list anyone's.
func (h *BookingHandler) ListForUser(c echo.Context) error {
	actor := getActor(c)
	target := c.Param("user_id")
	if actor.UserID != target && actor.Role != model.RoleStaff && actor.Role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	list, err := h.Bookings.ListByUser(ctx, target)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// publishAsync fires a broker publish without holding up the response.
// The dial dominates publish latency, so this stays off the request path.
func publishAsync(fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.WithError(err).Warn("event publish failed")
		}
	}()
}
