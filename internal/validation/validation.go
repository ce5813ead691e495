// Package validation implements gate-side checks: QR scans, per-member
// group entry, and staff cash-sale verification.  Scans are idempotent at
// the storage level; a booking only transitions to used once.
package validation

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/event-pass-booking/internal/booking"
	"github.com/iliyamo/event-pass-booking/internal/model"
)

// Sentinel errors for gate operations.
var (
	ErrNotAllowed         = errors.New("caller may not validate entries")
	ErrStaffZoneMissing   = errors.New("staff account has no zone assigned")
	ErrZoneMismatch       = errors.New("booking belongs to a different zone")
	ErrNotGroup           = errors.New("booking is not a group booking")
	ErrInvalidMemberIndex = errors.New("group member index out of range")
	ErrAlreadyEntered     = errors.New("group member already entered")
)

// BookingStore is the slice of the persistence gateway the validator needs.
type BookingStore interface {
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	MarkUsed(ctx context.Context, id string) error
	MarkCashSold(ctx context.Context, id, staffID string) error
	// MarkMemberEntered flips one member's entry flag with a conditional
	// per-index update; entered is false when another terminal admitted
	// the member first, used reports the all-entered transition.
	MarkMemberEntered(ctx context.Context, id string, index int) (entered, used bool, err error)
}

// SaleStore records verified cash sales.
type SaleStore interface {
	Create(ctx context.Context, s *model.StaffSale) error
}

// Validator runs the gate-side state machine.
type Validator struct {
	bookings BookingStore
	sales    SaleStore
}

// NewValidator wires a Validator.
func NewValidator(bookings BookingStore, sales SaleStore) *Validator {
	return &Validator{bookings: bookings, sales: sales}
}

// ScanResult is what the gate terminal renders after a scan.  Invalid
// scans are a normal outcome, not an error: Message carries the reason.
type ScanResult struct {
	Valid            bool                `json:"valid"`
	IsGroup          bool                `json:"is_group"`
	Message          string              `json:"message"`
	BookingID        string              `json:"booking_id,omitempty"`
	AvailableEntries int                 `json:"available_entries,omitempty"`
	GroupMembers     []model.GroupMember `json:"group_members,omitempty"`
}

func (v *Validator) authorize(b *model.Booking, actor model.Actor) error {
	if !actor.CanValidateEntry() {
		return ErrNotAllowed
	}
	if actor.Role == model.RoleStaff {
		if actor.ZoneID == "" {
			return ErrStaffZoneMissing
		}
		if actor.ZoneID != b.ZoneID {
			return ErrZoneMismatch
		}
	}
	return nil
}

// ValidateScan handles a QR scan at the gate.  For a non-group booking a
// valid scan immediately consumes the pass.  For a group booking the
// roster comes back so the operator can admit members one by one.
func (v *Validator) ValidateScan(ctx context.Context, bookingID string, actor model.Actor) (*ScanResult, error) {
	b, err := v.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := v.authorize(b, actor); err != nil {
		return nil, err
	}

	if b.Status != model.BookingActive {
		return &ScanResult{
			Valid:     false,
			IsGroup:   b.IsGroup,
			BookingID: b.ID,
			Message:   fmt.Sprintf("pass is %s", b.Status),
		}, nil
	}

	if b.IsGroup {
		remaining := 0
		for _, m := range b.GroupMembers {
			if !m.EntryStatus {
				remaining++
			}
		}
		return &ScanResult{
			Valid:            true,
			IsGroup:          true,
			BookingID:        b.ID,
			Message:          "group pass valid, admit members individually",
			AvailableEntries: remaining,
			GroupMembers:     b.GroupMembers,
		}, nil
	}

	if err := v.bookings.MarkUsed(ctx, b.ID); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"booking_id": b.ID, "validated_by": actor.UserID}).Info("entry validated")
	return &ScanResult{
		Valid:     true,
		BookingID: b.ID,
		Message:   "entry granted",
	}, nil
}

// ValidateGroupEntry admits a single member of a group booking.  The
// booking flips to used only when every member has entered.
func (v *Validator) ValidateGroupEntry(ctx context.Context, bookingID string, memberIndex int, actor model.Actor) (*ScanResult, error) {
	b, err := v.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := v.authorize(b, actor); err != nil {
		return nil, err
	}
	if !b.IsGroup {
		return nil, ErrNotGroup
	}
	if b.Status != model.BookingActive {
		return nil, booking.ErrInvalidState
	}
	if memberIndex < 0 || memberIndex >= len(b.GroupMembers) {
		return nil, ErrInvalidMemberIndex
	}
	if b.GroupMembers[memberIndex].EntryStatus {
		return nil, ErrAlreadyEntered
	}

	// The conditional per-index update in the store is the authoritative
	// guard; the in-memory check above only gives the fast answer.
	entered, used, err := v.bookings.MarkMemberEntered(ctx, b.ID, memberIndex)
	if err != nil {
		return nil, err
	}
	if !entered {
		return nil, ErrAlreadyEntered
	}
	b.GroupMembers[memberIndex].EntryStatus = true
	if used {
		b.Status = model.BookingUsed
	}

	remaining := 0
	for _, m := range b.GroupMembers {
		if !m.EntryStatus {
			remaining++
		}
	}
	log.WithFields(log.Fields{
		"booking_id":   b.ID,
		"member":       b.GroupMembers[memberIndex].Name,
		"validated_by": actor.UserID,
	}).Info("group member admitted")
	return &ScanResult{
		Valid:            true,
		IsGroup:          true,
		BookingID:        b.ID,
		Message:          fmt.Sprintf("%s admitted", b.GroupMembers[memberIndex].Name),
		AvailableEntries: remaining,
		GroupMembers:     b.GroupMembers,
	}, nil
}

// VerifyCashSale lets a staff member confirm an on-site cash sale: the
// booking is consumed and a commission record is written against the
// staff account.
func (v *Validator) VerifyCashSale(ctx context.Context, bookingID string, mode model.PaymentMode, actor model.Actor) (*model.StaffSale, error) {
	if actor.Role != model.RoleStaff {
		return nil, ErrNotAllowed
	}
	b, err := v.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := v.authorize(b, actor); err != nil {
		return nil, err
	}
	if b.Status != model.BookingActive {
		return nil, booking.ErrInvalidState
	}

	if err := v.bookings.MarkCashSold(ctx, b.ID, actor.UserID); err != nil {
		return nil, err
	}
	sale := &model.StaffSale{
		StaffID:     actor.UserID,
		BookingID:   b.ID,
		ZoneID:      b.ZoneID,
		Amount:      b.AmountPaid,
		PaymentMode: mode,
	}
	if err := v.sales.Create(ctx, sale); err != nil {
		// The entry is already consumed; the missing commission row is an
		// accounting followup, not a reason to fail the gate.
		log.WithError(err).WithField("booking_id", b.ID).Error("recording staff sale failed")
	}
	return sale, nil
}
