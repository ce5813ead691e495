// Package booking orchestrates the booking lifecycle: creation with
// pricing, payment-order issuance, inventory reservation and QR issuance,
// plus cancellation with refund-or-not branching.  Multi-step mutations are
// ordered so the irrecoverable side effect (the external payment or refund
// call) happens before the recoverable local one; the conditional atomic
// inventory decrement is the authoritative concurrency guard.
package booking

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/event-pass-booking/internal/model"
	"github.com/iliyamo/event-pass-booking/internal/payment"
	"github.com/iliyamo/event-pass-booking/internal/pricing"
)

// Sentinel errors surfaced by the lifecycle manager.
var (
	// ErrInvalidState rejects operations not valid for the booking's
	// current status, e.g. cancelling a used booking.
	ErrInvalidState = errors.New("operation not valid for booking state")
	// ErrInventoryExhausted means the pass had fewer units left than the
	// booking needs.
	ErrInventoryExhausted = errors.New("insufficient pass inventory")
	// ErrPaymentVerification means the supplied payment signature did not
	// match the order.
	ErrPaymentVerification = errors.New("payment verification failed")
)

// PassStore is the slice of the persistence gateway the manager needs for
// passes.  ReserveQuantity must be a conditional atomic decrement: it
// returns false instead of ever letting available_quantity go negative.
type PassStore interface {
	GetByID(ctx context.Context, id string) (*model.Pass, error)
	ReserveQuantity(ctx context.Context, id string, qty int) (bool, error)
	RestoreQuantity(ctx context.Context, id string, qty int) error
}

// BookingStore is the slice of the persistence gateway for bookings.
type BookingStore interface {
	Insert(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	SetQRCode(ctx context.Context, id, qr string) error
	MarkPaid(ctx context.Context, id, paymentID string) error
	MarkCancelled(ctx context.Context, id string, refundStatus model.RefundStatus, refundAmount float64, refundID string) error
}

// Pricer computes the amount due and records discount usage.  Satisfied by
// *pricing.Engine.  Price must be side-effect free; RegisterUse is called
// only after the booking carrying the discount has been persisted, so an
// aborted creation never bumps a discount's usage counter.
type Pricer interface {
	Price(ctx context.Context, p *model.Pass, qty int, claim float64, userID string, now time.Time) (pricing.Quote, error)
	RegisterUse(ctx context.Context, discountID, userID string) error
}

// Manager ties the lifecycle together.  A nil gateway selects the
// no-online-payment variant: bookings activate immediately and cancel
// without refunds.  A nil encode func skips QR issuance entirely.
type Manager struct {
	passes   PassStore
	bookings BookingStore
	pricer   Pricer
	gateway  payment.Gateway
	encode   func(string) (string, error)
	now      func() time.Time
}

// NewManager wires a Manager from its collaborators.
func NewManager(passes PassStore, bookings BookingStore, pricer Pricer, gw payment.Gateway, encode func(string) (string, error)) *Manager {
	if passes == nil || bookings == nil || pricer == nil {
		panic("nil store passed to booking.NewManager")
	}
	return &Manager{
		passes:   passes,
		bookings: bookings,
		pricer:   pricer,
		gateway:  gw,
		encode:   encode,
		now:      time.Now,
	}
}

// CreateRequest carries everything needed to book a pass.
type CreateRequest struct {
	UserID        string
	UserName      string
	UserEmail     string
	PassID        string
	GroupMembers  []model.GroupMember
	DiscountClaim float64 // percentage the caller asserts; 0 means none
}

// CreateResult is returned to the caller so payment can be completed.
type CreateResult struct {
	Booking  *model.Booking `json:"booking"`
	OrderID  string         `json:"order_id,omitempty"`
	Amount   float64        `json:"amount"`
	Currency string         `json:"currency,omitempty"`
}

// Create runs the creation protocol:
//
//  1. load and validate the pass (active, unexpired, group-size bounds)
//  2. price the booking; a discount is selected but not yet registered
//  3. create a payment order; a failure here aborts with nothing persisted
//  4. reserve inventory with the conditional decrement, then persist the
//     booking; a failed insert restores the reserved units
//  5. register the discount usage; ordered after the insert so no failure
//     path leaves times_used pointing at a booking that does not exist
//  6. issue the QR artifact; failure is recorded but non-fatal
//
// The window between 3 and 4 can leave a paid-for order with no booking;
// that is a reconciliation concern logged for operators, not handled by a
// two-phase commit.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	p, err := m.passes.GetByID(ctx, req.PassID)
	if err != nil {
		return nil, err
	}

	isGroup := p.IsGroup()
	qty := 1
	if isGroup {
		qty = len(req.GroupMembers)
	} else if len(req.GroupMembers) > 0 {
		return nil, pricing.ErrInvalidGroupSize
	}

	now := m.now().UTC()
	quote, err := m.pricer.Price(ctx, p, qty, req.DiscountClaim, req.UserID, now)
	if err != nil {
		return nil, err
	}

	// Advisory early check; the conditional decrement below remains the
	// authoritative guard.
	if p.AvailableQuantity < qty {
		return nil, ErrInventoryExhausted
	}

	b := &model.Booking{
		UserID:          req.UserID,
		PassID:          p.ID,
		ZoneID:          p.ZoneID,
		IsGroup:         isGroup,
		GroupMembers:    req.GroupMembers,
		Status:          model.BookingActive,
		PaymentStatus:   model.PaymentPending,
		AmountPaid:      quote.Amount,
		DiscountApplied: quote.DiscountApplied,
		DiscountCode:    quote.DiscountCode,
		RefundStatus:    model.RefundNone,
		SoldBy:          "online",
		CreatedAt:       now,
	}

	var order payment.Order
	if m.gateway != nil {
		order, err = m.gateway.CreateOrder(ctx, req.UserName, req.UserEmail, p.Name, quote.Amount)
		if err != nil {
			return nil, &payment.GatewayError{Op: "create_order", Err: err}
		}
		b.Status = model.BookingPendingPayment
		b.OrderID = order.OrderID
	}

	ok, err := m.passes.ReserveQuantity(ctx, p.ID, qty)
	if err != nil {
		return nil, err
	}
	if !ok {
		if b.OrderID != "" {
			log.WithFields(log.Fields{"order_id": b.OrderID, "pass_id": p.ID}).
				Warn("payment order created but inventory ran out; order needs reconciliation")
		}
		return nil, ErrInventoryExhausted
	}

	if err := m.bookings.Insert(ctx, b); err != nil {
		if restoreErr := m.passes.RestoreQuantity(ctx, p.ID, qty); restoreErr != nil {
			log.WithError(restoreErr).WithField("pass_id", p.ID).
				Error("inventory restore after failed booking insert also failed")
		}
		return nil, err
	}

	if quote.DiscountID != "" {
		if regErr := m.pricer.RegisterUse(ctx, quote.DiscountID, req.UserID); regErr != nil {
			// The booking already exists with the discount applied; the
			// missed counter bump is an accounting followup, not a reason
			// to unwind the booking.
			log.WithError(regErr).WithFields(log.Fields{"booking_id": b.ID, "discount_id": quote.DiscountID}).
				Error("recording discount usage failed")
		}
	}

	if m.encode != nil {
		if artifact, qrErr := m.encode(b.ID); qrErr != nil {
			// Non-fatal: entry validation can look the booking up by ID.
			log.WithError(qrErr).WithField("booking_id", b.ID).Warn("qr artifact generation failed")
		} else if setErr := m.bookings.SetQRCode(ctx, b.ID, artifact); setErr != nil {
			log.WithError(setErr).WithField("booking_id", b.ID).Warn("storing qr artifact failed")
		} else {
			b.QRCode = artifact
		}
	}

	return &CreateResult{
		Booking:  b,
		OrderID:  b.OrderID,
		Amount:   quote.Amount,
		Currency: order.Currency,
	}, nil
}

// Cancel runs the cancellation protocol.  When a successful payment is on
// record, the refund call is ordered before any local mutation: a gateway
// failure leaves the booking active so the operation stays retryable.
func (m *Manager) Cancel(ctx context.Context, bookingID string, actor model.Actor) (*model.Booking, error) {
	b, err := m.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageBooking(b.UserID) {
		return nil, ErrNotOwner
	}
	if b.Status != model.BookingActive {
		return nil, ErrInvalidState
	}

	qty := b.Quantity()

	paid := b.PaymentStatus == model.PaymentPaid && b.PaymentID != "" && b.AmountPaid > 0
	if !paid || m.gateway == nil {
		if err := m.bookings.MarkCancelled(ctx, b.ID, model.RefundNone, 0, ""); err != nil {
			return nil, err
		}
		b.Status = model.BookingCancelled
		b.RefundStatus = model.RefundNone
		b.RefundAmount = 0
		if err := m.passes.RestoreQuantity(ctx, b.PassID, qty); err != nil {
			log.WithError(err).WithField("pass_id", b.PassID).Error("inventory restore on cancellation failed")
		}
		return b, nil
	}

	refund, err := m.gateway.CreateRefund(ctx, b.PaymentID, b.AmountPaid, "booking "+b.ID+" cancelled")
	if err != nil {
		// No mutation has happened: the booking stays active and the
		// caller may retry.
		return nil, &payment.GatewayError{Op: "create_refund", OrderID: b.OrderID, PaymentID: b.PaymentID, Err: err}
	}

	status := model.RefundProcessed
	if refund.Status != "processed" {
		status = model.RefundRequested
	}
	if err := m.bookings.MarkCancelled(ctx, b.ID, status, refund.Amount, refund.RefundID); err != nil {
		return nil, err
	}
	b.Status = model.BookingCancelled
	b.RefundStatus = status
	b.RefundAmount = refund.Amount
	b.RefundID = refund.RefundID
	if err := m.passes.RestoreQuantity(ctx, b.PassID, qty); err != nil {
		log.WithError(err).WithField("pass_id", b.PassID).Error("inventory restore on cancellation failed")
	}
	return b, nil
}

// ErrNotOwner rejects cancellation or reads by callers who neither own the
// booking nor hold the admin role.
var ErrNotOwner = errors.New("not authorized for this booking")

// VerifyPayment checks the checkout signature for a pending booking and,
// when valid, activates it and records the payment reference.
func (m *Manager) VerifyPayment(ctx context.Context, bookingID, paymentID, signature string) (*model.Booking, error) {
	b, err := m.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingPendingPayment || m.gateway == nil {
		return nil, ErrInvalidState
	}
	if !m.gateway.VerifySignature(paymentID, b.OrderID, signature) {
		return nil, ErrPaymentVerification
	}
	if err := m.bookings.MarkPaid(ctx, b.ID, paymentID); err != nil {
		return nil, err
	}
	b.Status = model.BookingActive
	b.PaymentStatus = model.PaymentPaid
	b.PaymentID = paymentID
	return b, nil
}

// Get loads a booking, enforcing that only the owner or staff/admin may
// read it.
func (m *Manager) Get(ctx context.Context, bookingID string, actor model.Actor) (*model.Booking, error) {
	b, err := m.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.UserID && actor.Role != model.RoleStaff && actor.Role != model.RoleAdmin {
		return nil, ErrNotOwner
	}
	return b, nil
}
