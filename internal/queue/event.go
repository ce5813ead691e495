// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names. Each event type gets its own durable queue on the default
// exchange.
const (
	BookingCreatedQueue   = "booking.created"
	BookingCancelledQueue = "booking.cancelled"
	EntryValidatedQueue   = "entry.validated"
)

// BookingCreatedEvent is published when a booking is created.  It carries
// enough information for downstream consumers to log, notify, or feed
// analytics without querying the primary database.
type BookingCreatedEvent struct {
	BookingID       string  `json:"booking_id"`
	UserID          string  `json:"user_id"`
	PassID          string  `json:"pass_id"`
	ZoneID          string  `json:"zone_id"`
	IsGroup         bool    `json:"is_group"`
	MemberCount     int     `json:"member_count"`
	AmountPaid      float64 `json:"amount_paid"`
	DiscountApplied float64 `json:"discount_applied"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at"`
}

// BookingCancelledEvent is published when a booking is cancelled, with the
// refund outcome when one was issued.
type BookingCancelledEvent struct {
	BookingID    string  `json:"booking_id"`
	UserID       string  `json:"user_id"`
	PassID       string  `json:"pass_id"`
	RefundStatus string  `json:"refund_status"`
	RefundAmount float64 `json:"refund_amount"`
	RefundID     string  `json:"refund_id,omitempty"`
	CancelledAt  string  `json:"cancelled_at"`
}

// EntryValidatedEvent is published on every successful gate validation,
// including individual group-member admissions.
type EntryValidatedEvent struct {
	BookingID   string `json:"booking_id"`
	ZoneID      string `json:"zone_id"`
	ValidatedBy string `json:"validated_by"`
	MemberName  string `json:"member_name,omitempty"`
	ValidatedAt string `json:"validated_at"`
}
