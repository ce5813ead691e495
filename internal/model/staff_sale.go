package model

import "time"

// PaymentMode enumerates how a staff-mediated sale was paid.
type PaymentMode string

const (
	PayModeCash PaymentMode = "cash"
	PayModeUPI  PaymentMode = "upi"
)

// StaffSale records a staff member manually verifying/redeeming a booking
// at the counter.  It is written once and never mutated.  Commission is
// computed by a settlement job, nil until settled.
type StaffSale struct {
	ID          string      `json:"id"`
	StaffID     string      `json:"staff_id"`
	BookingID   string      `json:"booking_id"`
	ZoneID      string      `json:"zone_id"`
	Amount      float64     `json:"amount"`
	PaymentMode PaymentMode `json:"payment_mode"`
	Commission  *float64    `json:"commission,omitempty"`
	SaleTime    time.Time   `json:"sale_time"`
}
