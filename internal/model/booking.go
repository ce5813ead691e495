package model

import "time"

// BookingStatus tracks the lifecycle state of a booking.  Transitions are
// one-directional: pending_payment|active → used, active → cancelled.
type BookingStatus string

const (
	BookingPendingPayment BookingStatus = "pending_payment"
	BookingActive         BookingStatus = "active"
	BookingUsed           BookingStatus = "used"
	BookingCancelled      BookingStatus = "cancelled"
)

// PaymentStatus tracks how (and whether) a booking was paid for.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentCash    PaymentStatus = "cash"
	PaymentFailed  PaymentStatus = "failed"
)

// RefundStatus tracks a cancellation's refund outcome.
type RefundStatus string

const (
	RefundNone      RefundStatus = "none"
	RefundRequested RefundStatus = "requested"
	RefundApproved  RefundStatus = "approved"
	RefundRejected  RefundStatus = "rejected"
	RefundProcessed RefundStatus = "processed"
)

// GroupMember is an individual entrant under a group booking.  Each member
// is redeemed independently at the gate; the booking becomes used only when
// every member has entered.
type GroupMember struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	EntryStatus bool   `json:"entry_status"`
}

// Booking is the central transactional record: a purchased instance of a
// pass.  It mirrors the `bookings` table; GroupMembers is a JSON column.
//
// Fields:
//  ID              – primary key identifier (UUID); also the QR payload.
//  UserID          – purchasing user.
//  PassID          – referenced pass (not owned).
//  ZoneID          – zone the booking belongs to; staff access is scoped by it.
//  IsGroup         – whether GroupMembers applies.
//  GroupMembers    – ordered entrant list, owned exclusively by the booking.
//  Status          – lifecycle state (see BookingStatus).
//  PaymentStatus   – payment state (see PaymentStatus).
//  OrderID         – payment-gateway order reference, set at creation.
//  PaymentID       – payment-gateway payment reference, set on verification.
//  AmountPaid      – amount fixed at creation; never recomputed.
//  DiscountApplied – discount percentage applied at creation (0 when none).
//  DiscountCode    – code of the discount used, kept for audit.
//  RefundStatus    – refund state after cancellation.
//  RefundAmount    – amount refunded (0 unless a refund was processed).
//  RefundID        – gateway refund reference.
//  QRCode          – base64 PNG whose payload is the booking ID.  May be
//                    empty when artifact generation failed; validation by
//                    looked-up identifier still works.
//  SoldBy          – "online" or the staff identifier for counter sales.
//  CreatedAt       – creation timestamp.
type Booking struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	PassID          string        `json:"pass_id"`
	ZoneID          string        `json:"zone_id"`
	IsGroup         bool          `json:"is_group"`
	GroupMembers    []GroupMember `json:"group_members,omitempty"`
	Status          BookingStatus `json:"status"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	OrderID         string        `json:"order_id,omitempty"`
	PaymentID       string        `json:"payment_id,omitempty"`
	AmountPaid      float64       `json:"amount_paid"`
	DiscountApplied float64       `json:"discount_applied,omitempty"`
	DiscountCode    string        `json:"discount_code,omitempty"`
	RefundStatus    RefundStatus  `json:"refund_status"`
	RefundAmount    float64       `json:"refund_amount"`
	RefundID        string        `json:"refund_id,omitempty"`
	QRCode          string        `json:"qr_code,omitempty"`
	SoldBy          string        `json:"sold_by,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Quantity returns the inventory consumed by the booking: the member count
// for group bookings (minimum 1), otherwise 1.
func (b *Booking) Quantity() int {
	if b.IsGroup && len(b.GroupMembers) > 0 {
		return len(b.GroupMembers)
	}
	return 1
}

// AllEntered reports whether every group member has been redeemed.  It is
// false for bookings without members.
func (b *Booking) AllEntered() bool {
	if len(b.GroupMembers) == 0 {
		return false
	}
	for _, m := range b.GroupMembers {
		if !m.EntryStatus {
			return false
		}
	}
	return true
}
