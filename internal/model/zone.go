package model

import "time"

// Zone is a venue/tenant boundary.  Passes, bookings, discounts and staff
// all carry a zone_id; staff cannot act outside their assigned zone.
//
// Fields:
//  ID            – primary key identifier (UUID).
//  Name          – unique zone name.
//  Description   – optional free text.
//  IsActive      – soft-delete flag; deactivation keeps audit fields below.
//  CreatedBy     – admin who created the zone.
//  CreatedAt     – creation timestamp.
//  DeactivatedBy – admin who deactivated the zone (empty while active).
//  DeactivatedAt – when the zone was deactivated (nil while active).
//  ReactivatedBy – admin who last reactivated the zone.
//  ReactivatedAt – when the zone was last reactivated.
type Zone struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	DeactivatedBy string     `json:"deactivated_by,omitempty"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
	ReactivatedBy string     `json:"reactivated_by,omitempty"`
	ReactivatedAt *time.Time `json:"reactivated_at,omitempty"`
}
