package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-pass-booking/internal/booking"
	"github.com/iliyamo/event-pass-booking/internal/model"
)

type fakeStore struct {
	bookings map[string]*model.Booking
	sales    []model.StaffSale

	// beforeMark, when set, runs once after the validator's read but
	// before the store-side flip, standing in for a second terminal
	// working the same booking.
	beforeMark func()
}

func newFakeStore(bs ...*model.Booking) *fakeStore {
	f := &fakeStore{bookings: make(map[string]*model.Booking)}
	for _, b := range bs {
		f.bookings[b.ID] = b
	}
	return f
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*model.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, errors.New("booking not found")
	}
	cp := *b
	cp.GroupMembers = append([]model.GroupMember(nil), b.GroupMembers...)
	return &cp, nil
}

func (f *fakeStore) MarkUsed(_ context.Context, id string) error {
	f.bookings[id].Status = model.BookingUsed
	return nil
}

func (f *fakeStore) MarkCashSold(_ context.Context, id, staffID string) error {
	b := f.bookings[id]
	b.Status = model.BookingUsed
	b.PaymentStatus = model.PaymentCash
	b.SoldBy = staffID
	return nil
}

func (f *fakeStore) MarkMemberEntered(_ context.Context, id string, index int) (bool, bool, error) {
	if f.beforeMark != nil {
		hook := f.beforeMark
		f.beforeMark = nil
		hook()
	}
	b := f.bookings[id]
	if b.Status != model.BookingActive || b.GroupMembers[index].EntryStatus {
		return false, false, nil
	}
	b.GroupMembers[index].EntryStatus = true
	for _, m := range b.GroupMembers {
		if !m.EntryStatus {
			return true, false, nil
		}
	}
	b.Status = model.BookingUsed
	return true, true, nil
}

func (f *fakeStore) Create(_ context.Context, s *model.StaffSale) error {
	f.sales = append(f.sales, *s)
	return nil
}

func staffActor() model.Actor {
	return model.Actor{UserID: "staff-1", Role: model.RoleStaff, ZoneID: "zone-1"}
}

func activeBooking() *model.Booking {
	return &model.Booking{
		ID: "bk-1", UserID: "u1", PassID: "pass-1", ZoneID: "zone-1",
		Status: model.BookingActive, AmountPaid: 500,
	}
}

func groupBooking() *model.Booking {
	b := activeBooking()
	b.IsGroup = true
	b.GroupMembers = []model.GroupMember{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	return b
}

func TestScanConsumesSinglePass(t *testing.T) {
	store := newFakeStore(activeBooking())
	v := NewValidator(store, store)

	res, err := v.ValidateScan(context.Background(), "bk-1", staffActor())
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, model.BookingUsed, store.bookings["bk-1"].Status)

	// Second scan of the same pass is refused, not an error.
	res, err = v.ValidateScan(context.Background(), "bk-1", staffActor())
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Equal(t, "pass is used", res.Message)
}

func TestScanNonActiveStates(t *testing.T) {
	for _, status := range []model.BookingStatus{model.BookingPendingPayment, model.BookingCancelled} {
		b := activeBooking()
		b.Status = status
		store := newFakeStore(b)
		v := NewValidator(store, store)

		res, err := v.ValidateScan(context.Background(), "bk-1", staffActor())
		require.NoError(t, err)
		require.False(t, res.Valid)
		// The state is untouched by the failed scan.
		require.Equal(t, status, store.bookings["bk-1"].Status)
	}
}

func TestScanZoneScoping(t *testing.T) {
	store := newFakeStore(activeBooking())
	v := NewValidator(store, store)

	other := staffActor()
	other.ZoneID = "zone-2"
	_, err := v.ValidateScan(context.Background(), "bk-1", other)
	require.ErrorIs(t, err, ErrZoneMismatch)

	unassigned := staffActor()
	unassigned.ZoneID = ""
	_, err = v.ValidateScan(context.Background(), "bk-1", unassigned)
	require.ErrorIs(t, err, ErrStaffZoneMissing)

	// Admins bypass zone scoping entirely.
	admin := model.Actor{UserID: "admin-1", Role: model.RoleAdmin}
	res, err := v.ValidateScan(context.Background(), "bk-1", admin)
	require.NoError(t, err)
	require.True(t, res.Valid)
}

func TestScanUserRoleRejected(t *testing.T) {
	store := newFakeStore(activeBooking())
	v := NewValidator(store, store)

	_, err := v.ValidateScan(context.Background(), "bk-1", model.Actor{UserID: "u1", Role: model.RoleUser})
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestScanGroupReturnsRosterWithoutConsuming(t *testing.T) {
	store := newFakeStore(groupBooking())
	v := NewValidator(store, store)

	res, err := v.ValidateScan(context.Background(), "bk-1", staffActor())
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.True(t, res.IsGroup)
	require.Equal(t, 3, res.AvailableEntries)
	require.Len(t, res.GroupMembers, 3)
	require.Equal(t, model.BookingActive, store.bookings["bk-1"].Status)
}

func TestGroupEntryAdmitsMembersIndividually(t *testing.T) {
	store := newFakeStore(groupBooking())
	v := NewValidator(store, store)
	actor := staffActor()

	res, err := v.ValidateGroupEntry(context.Background(), "bk-1", 0, actor)
	require.NoError(t, err)
	require.Equal(t, 2, res.AvailableEntries)
	require.Equal(t, model.BookingActive, store.bookings["bk-1"].Status)

	// Same member twice is a conflict.
	_, err = v.ValidateGroupEntry(context.Background(), "bk-1", 0, actor)
	require.ErrorIs(t, err, ErrAlreadyEntered)

	_, err = v.ValidateGroupEntry(context.Background(), "bk-1", 1, actor)
	require.NoError(t, err)

	// Final member flips the booking to used.
	res, err = v.ValidateGroupEntry(context.Background(), "bk-1", 2, actor)
	require.NoError(t, err)
	require.Equal(t, 0, res.AvailableEntries)
	require.Equal(t, model.BookingUsed, store.bookings["bk-1"].Status)

	// And nothing more can enter.
	_, err = v.ValidateGroupEntry(context.Background(), "bk-1", 0, actor)
	require.ErrorIs(t, err, booking.ErrInvalidState)
}

func TestGroupEntryPreservesConcurrentAdmission(t *testing.T) {
	b := groupBooking()
	b.GroupMembers = b.GroupMembers[:2]
	store := newFakeStore(b)
	v := NewValidator(store, store)

	// Another terminal admits member 1 between this terminal's read and
	// its write.  The per-index flip must not overwrite that admission,
	// and the all-entered transition must come from the stored roster.
	store.beforeMark = func() {
		store.bookings["bk-1"].GroupMembers[1].EntryStatus = true
	}
	_, err := v.ValidateGroupEntry(context.Background(), "bk-1", 0, staffActor())
	require.NoError(t, err)

	stored := store.bookings["bk-1"]
	require.True(t, stored.GroupMembers[0].EntryStatus)
	require.True(t, stored.GroupMembers[1].EntryStatus)
	require.Equal(t, model.BookingUsed, stored.Status)
}

func TestGroupEntryLosesRaceOnSameMember(t *testing.T) {
	store := newFakeStore(groupBooking())
	v := NewValidator(store, store)

	// The other terminal wins the same member; the stale read passed the
	// in-memory check, so the store-side guard has to refuse the flip.
	store.beforeMark = func() {
		store.bookings["bk-1"].GroupMembers[0].EntryStatus = true
	}
	_, err := v.ValidateGroupEntry(context.Background(), "bk-1", 0, staffActor())
	require.ErrorIs(t, err, ErrAlreadyEntered)
	require.Equal(t, model.BookingActive, store.bookings["bk-1"].Status)
}

func TestGroupEntryIndexOutOfRange(t *testing.T) {
	store := newFakeStore(groupBooking())
	v := NewValidator(store, store)

	_, err := v.ValidateGroupEntry(context.Background(), "bk-1", 3, staffActor())
	require.ErrorIs(t, err, ErrInvalidMemberIndex)
	_, err = v.ValidateGroupEntry(context.Background(), "bk-1", -1, staffActor())
	require.ErrorIs(t, err, ErrInvalidMemberIndex)
}

func TestGroupEntryOnNonGroupBooking(t *testing.T) {
	store := newFakeStore(activeBooking())
	v := NewValidator(store, store)

	_, err := v.ValidateGroupEntry(context.Background(), "bk-1", 0, staffActor())
	require.ErrorIs(t, err, ErrNotGroup)
}

func TestVerifyCashSale(t *testing.T) {
	store := newFakeStore(activeBooking())
	v := NewValidator(store, store)

	sale, err := v.VerifyCashSale(context.Background(), "bk-1", model.PayModeCash, staffActor())
	require.NoError(t, err)
	require.Equal(t, "staff-1", sale.StaffID)
	require.Equal(t, 500.0, sale.Amount)
	require.Equal(t, model.PayModeCash, sale.PaymentMode)
	require.Equal(t, model.BookingUsed, store.bookings["bk-1"].Status)
	require.Equal(t, model.PaymentCash, store.bookings["bk-1"].PaymentStatus)
	require.Equal(t, "staff-1", store.bookings["bk-1"].SoldBy)
	require.Len(t, store.sales, 1)
}

func TestVerifyCashSaleStaffOnly(t *testing.T) {
	store := newFakeStore(activeBooking())
	v := NewValidator(store, store)

	_, err := v.VerifyCashSale(context.Background(), "bk-1", model.PayModeCash,
		model.Actor{UserID: "admin-1", Role: model.RoleAdmin})
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestVerifyCashSaleConsumedBookingRejected(t *testing.T) {
	b := activeBooking()
	b.Status = model.BookingUsed
	store := newFakeStore(b)
	v := NewValidator(store, store)

	_, err := v.VerifyCashSale(context.Background(), "bk-1", model.PayModeUPI, staffActor())
	require.ErrorIs(t, err, booking.ErrInvalidState)
}
