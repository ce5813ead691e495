package model

import "time"

// Discount is a percentage-off code with usage and eligibility constraints.
// It mirrors the `discounts` table; UsedBy is a JSON column.
//
// A discount is eligible for a booking when it is active, unexpired and
// either assigned to the purchasing user or scoped to the booking's zone.
// Expiry is checked at use time only; no background process deactivates
// expired codes.
//
// Fields:
//  ID         – primary key identifier (UUID).
//  Code       – unique code string.
//  Percentage – percentage reduction granted by the code.
//  MaxLimit   – absolute cap on the discount value (0 means uncapped).
//  AssignedTo – staff user the code is assigned to (empty when zone-scoped).
//  ZoneID     – zone the code is scoped to (empty when user-assigned).
//  Expiry     – the code cannot be applied after this instant.
//  IsActive   – soft-delete flag.
//  TimesUsed  – incremented atomically on every successful application.
//  UsedBy     – user identifiers that have applied the code.  Advisory by
//               default; consulted only when single-use policy is enabled.
//  CreatedAt  – creation timestamp.
type Discount struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Percentage float64   `json:"percentage"`
	MaxLimit   float64   `json:"max_limit,omitempty"`
	AssignedTo string    `json:"assigned_to,omitempty"`
	ZoneID     string    `json:"zone_id,omitempty"`
	Expiry     time.Time `json:"expiry"`
	IsActive   bool      `json:"is_active"`
	TimesUsed  int       `json:"times_used"`
	UsedBy     []string  `json:"used_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// UsedByUser reports whether the given user already applied the code.
func (d *Discount) UsedByUser(userID string) bool {
	for _, u := range d.UsedBy {
		if u == userID {
			return true
		}
	}
	return false
}
