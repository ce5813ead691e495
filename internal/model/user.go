package model

import "time"

// Role is the closed set of caller roles.  Authorization decisions go
// through the policy helpers below rather than ad hoc string comparisons.
type Role string

const (
	RoleUser  Role = "user"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

// ParseRole maps an arbitrary string onto the closed role set.  Unknown
// values collapse to RoleUser so a forged claim never gains privileges.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleStaff:
		return RoleStaff
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Actor is the authenticated caller as seen by the service layer: identity,
// role and (for staff) the assigned zone, all extracted from the bearer token.
type Actor struct {
	UserID string
	Role   Role
	ZoneID string
}

// CanValidateEntry reports whether the actor may process gate scans at all.
func (a Actor) CanValidateEntry() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}

// CanAccessZone reports whether the actor may act on resources of the given
// zone.  Admins bypass zone scoping; staff are confined to their own zone.
func (a Actor) CanAccessZone(zoneID string) bool {
	if a.Role == RoleAdmin {
		return true
	}
	return a.ZoneID != "" && a.ZoneID == zoneID
}

// CanManageBooking reports whether the actor may cancel the given booking:
// its owner or an admin.
func (a Actor) CanManageBooking(ownerID string) bool {
	return a.Role == RoleAdmin || a.UserID == ownerID
}

// User represents an application user as stored in the `users` table.
//
// Fields:
//  ID           – primary key identifier (UUID).
//  Name         – display name.
//  Email        – unique email address.
//  Phone        – contact number, used for OTP delivery.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of user, staff, admin.
//  ZoneID       – assigned zone for staff; optional hint for users.
//  OTPVerified  – whether the phone number has been confirmed.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	ZoneID       string    `json:"zone_id,omitempty"`
	OTPVerified  bool      `json:"otp_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token value is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    string     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
