package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-pass-booking/internal/model"
	"github.com/iliyamo/event-pass-booking/internal/payment"
	"github.com/iliyamo/event-pass-booking/internal/pricing"
)

// ----- fakes -----

type fakePasses struct {
	pass      *model.Pass
	available int
}

func (f *fakePasses) GetByID(_ context.Context, id string) (*model.Pass, error) {
	if f.pass == nil || f.pass.ID != id {
		return nil, errors.New("pass not found")
	}
	cp := *f.pass
	cp.AvailableQuantity = f.available
	return &cp, nil
}

func (f *fakePasses) ReserveQuantity(_ context.Context, _ string, qty int) (bool, error) {
	if f.available < qty {
		return false, nil
	}
	f.available -= qty
	return true, nil
}

func (f *fakePasses) RestoreQuantity(_ context.Context, _ string, qty int) error {
	f.available += qty
	return nil
}

type fakeBookings struct {
	stored    map[string]*model.Booking
	nextID    int
	insertErr error
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{stored: make(map[string]*model.Booking)}
}

func (f *fakeBookings) Insert(_ context.Context, b *model.Booking) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.nextID++
	b.ID = "bk-" + string(rune('0'+f.nextID))
	cp := *b
	f.stored[b.ID] = &cp
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (*model.Booking, error) {
	b, ok := f.stored[id]
	if !ok {
		return nil, errors.New("booking not found")
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) SetQRCode(_ context.Context, id, qr string) error {
	f.stored[id].QRCode = qr
	return nil
}

func (f *fakeBookings) MarkPaid(_ context.Context, id, paymentID string) error {
	b := f.stored[id]
	b.Status = model.BookingActive
	b.PaymentStatus = model.PaymentPaid
	b.PaymentID = paymentID
	return nil
}

func (f *fakeBookings) MarkCancelled(_ context.Context, id string, rs model.RefundStatus, amount float64, refundID string) error {
	b := f.stored[id]
	b.Status = model.BookingCancelled
	b.RefundStatus = rs
	b.RefundAmount = amount
	b.RefundID = refundID
	return nil
}

type flatPricer struct{}

func (flatPricer) Price(_ context.Context, p *model.Pass, qty int, _ float64, _ string, _ time.Time) (pricing.Quote, error) {
	return pricing.Quote{Amount: p.Price * float64(qty)}, nil
}

func (flatPricer) RegisterUse(_ context.Context, _, _ string) error { return nil }

// discountPricer quotes a fixed discount and records registrations, for
// asserting that usage is only counted once a booking actually exists.
type discountPricer struct {
	registered []string
}

func (d *discountPricer) Price(_ context.Context, p *model.Pass, qty int, claim float64, _ string, _ time.Time) (pricing.Quote, error) {
	amount := p.Price * float64(qty)
	return pricing.Quote{
		Amount:          amount - amount*claim/100,
		DiscountApplied: claim,
		DiscountCode:    "SAVE10",
		DiscountID:      "d1",
	}, nil
}

func (d *discountPricer) RegisterUse(_ context.Context, id, userID string) error {
	d.registered = append(d.registered, id+":"+userID)
	return nil
}

type fakeGateway struct {
	orderErr   error
	refundErr  error
	refunds    int
	lastAmount float64
}

func (g *fakeGateway) CreateOrder(_ context.Context, _, _, _ string, amount float64) (payment.Order, error) {
	if g.orderErr != nil {
		return payment.Order{}, g.orderErr
	}
	return payment.Order{OrderID: "order_1", Amount: amount, Currency: "INR"}, nil
}

func (g *fakeGateway) VerifySignature(_, _, signature string) bool {
	return signature == "good"
}

func (g *fakeGateway) CreateRefund(_ context.Context, _ string, amount float64, _ string) (payment.Refund, error) {
	if g.refundErr != nil {
		return payment.Refund{}, g.refundErr
	}
	g.refunds++
	g.lastAmount = amount
	return payment.Refund{RefundID: "rfnd_1", Status: "processed", Amount: amount}, nil
}

func testPass(available int) *model.Pass {
	return &model.Pass{
		ID:          "pass-1",
		ZoneID:      "zone-1",
		Name:        "Day Pass",
		Price:       500,
		GroupSize:   1,
		IsActive:    true,
		ValidityEnd: time.Now().Add(24 * time.Hour),
	}
}

func encodeOK(s string) (string, error) { return "qr:" + s, nil }

// ----- tests -----

func TestCreateWithGatewayPendingPayment(t *testing.T) {
	passes := &fakePasses{pass: testPass(10), available: 10}
	bookings := newFakeBookings()
	m := NewManager(passes, bookings, flatPricer{}, &fakeGateway{}, encodeOK)

	res, err := m.Create(context.Background(), CreateRequest{UserID: "u1", PassID: "pass-1"})
	require.NoError(t, err)
	require.Equal(t, model.BookingPendingPayment, res.Booking.Status)
	require.Equal(t, "order_1", res.OrderID)
	require.Equal(t, 500.0, res.Amount)
	require.Equal(t, 9, passes.available)
	require.Equal(t, "qr:"+res.Booking.ID, res.Booking.QRCode)
}

func TestCreateWithoutGatewayActivatesDirectly(t *testing.T) {
	passes := &fakePasses{pass: testPass(5), available: 5}
	m := NewManager(passes, newFakeBookings(), flatPricer{}, nil, encodeOK)

	res, err := m.Create(context.Background(), CreateRequest{UserID: "u1", PassID: "pass-1"})
	require.NoError(t, err)
	require.Equal(t, model.BookingActive, res.Booking.Status)
	require.Empty(t, res.OrderID)
}

func TestCreateGroupReservesMemberCount(t *testing.T) {
	p := testPass(10)
	p.GroupSize = 4
	p.Type = model.PassGroup
	passes := &fakePasses{pass: p, available: 10}
	m := NewManager(passes, newFakeBookings(), flatPricer{}, nil, encodeOK)

	members := []model.GroupMember{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	res, err := m.Create(context.Background(), CreateRequest{UserID: "u1", PassID: "pass-1", GroupMembers: members})
	require.NoError(t, err)
	require.True(t, res.Booking.IsGroup)
	require.Equal(t, 1500.0, res.Amount)
	require.Equal(t, 7, passes.available)
}

func TestCreateMembersOnNonGroupPassRejected(t *testing.T) {
	passes := &fakePasses{pass: testPass(5), available: 5}
	m := NewManager(passes, newFakeBookings(), flatPricer{}, nil, encodeOK)

	_, err := m.Create(context.Background(), CreateRequest{
		UserID: "u1", PassID: "pass-1",
		GroupMembers: []model.GroupMember{{Name: "A"}},
	})
	require.ErrorIs(t, err, pricing.ErrInvalidGroupSize)
}

func TestCreateInventoryExhausted(t *testing.T) {
	passes := &fakePasses{pass: testPass(0), available: 0}
	m := NewManager(passes, newFakeBookings(), flatPricer{}, nil, encodeOK)

	_, err := m.Create(context.Background(), CreateRequest{UserID: "u1", PassID: "pass-1"})
	require.ErrorIs(t, err, ErrInventoryExhausted)
}

func TestCreateGatewayFailureAbortsBeforeReservation(t *testing.T) {
	passes := &fakePasses{pass: testPass(5), available: 5}
	bookings := newFakeBookings()
	gw := &fakeGateway{orderErr: errors.New("provider down")}
	m := NewManager(passes, bookings, flatPricer{}, gw, encodeOK)

	_, err := m.Create(context.Background(), CreateRequest{UserID: "u1", PassID: "pass-1"})
	var gerr *payment.GatewayError
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, "create_order", gerr.Op)
	require.Equal(t, 5, passes.available)
	require.Empty(t, bookings.stored)
}

func TestCreateInsertFailureRestoresInventory(t *testing.T) {
	passes := &fakePasses{pass: testPass(5), available: 5}
	bookings := newFakeBookings()
	bookings.insertErr = errors.New("db down")
	m := NewManager(passes, bookings, flatPricer{}, nil, encodeOK)

	_, err := m.Create(context.Background(), CreateRequest{UserID: "u1", PassID: "pass-1"})
	require.Error(t, err)
	require.Equal(t, 5, passes.available)
}

func TestCreateRegistersDiscountAfterInsert(t *testing.T) {
	passes := &fakePasses{pass: testPass(5), available: 5}
	bookings := newFakeBookings()
	pricer := &discountPricer{}
	m := NewManager(passes, bookings, pricer, nil, encodeOK)

	res, err := m.Create(context.Background(), CreateRequest{UserID: "u1", PassID: "pass-1", DiscountClaim: 10})
	require.NoError(t, err)
	require.Equal(t, 450.0, res.Amount)
	require.Equal(t, "SAVE10", res.Booking.DiscountCode)
	require.Equal(t, []string{"d1:u1"}, pricer.registered)
}

func TestCreateAbortedPathsRegisterNoDiscount(t *testing.T) {
	// Gateway refuses the order.
	passes := &fakePasses{pass: testPass(5), available: 5}
	pricer := &discountPricer{}
	gw := &fakeGateway{orderErr: errors.New("provider down")}
	m := NewManager(passes, newFakeBookings(), pricer, gw, encodeOK)
	_, err := m.Create(context.Background(), CreateRequest{UserID: "u1", PassID: "pass-1", DiscountClaim: 10})
	require.Error(t, err)
	require.Empty(t, pricer.registered)

	// Inventory runs out.
	passes = &fakePasses{pass: testPass(5), available: 0}
	pricer = &discountPricer{}
	m = NewManager(passes, newFakeBookings(), pricer, nil, encodeOK)
	_, err = m.Create(context.Background(), CreateRequest{UserID: "u1", PassID: "pass-1", DiscountClaim: 10})
	require.ErrorIs(t, err, ErrInventoryExhausted)
	require.Empty(t, pricer.registered)

	// The insert itself fails.
	passes = &fakePasses{pass: testPass(5), available: 5}
	bookings := newFakeBookings()
	bookings.insertErr = errors.New("db down")
	pricer = &discountPricer{}
	m = NewManager(passes, bookings, pricer, nil, encodeOK)
	_, err = m.Create(context.Background(), CreateRequest{UserID: "u1", PassID: "pass-1", DiscountClaim: 10})
	require.Error(t, err)
	require.Empty(t, pricer.registered)
}

func TestCreateQRFailureIsNonFatal(t *testing.T) {
	passes := &fakePasses{pass: testPass(5), available: 5}
	m := NewManager(passes, newFakeBookings(), flatPricer{}, nil,
		func(string) (string, error) { return "", errors.New("encoder broken") })

	res, err := m.Create(context.Background(), CreateRequest{UserID: "u1", PassID: "pass-1"})
	require.NoError(t, err)
	require.Empty(t, res.Booking.QRCode)
}

func TestCancelUnpaidNoRefund(t *testing.T) {
	passes := &fakePasses{pass: testPass(5), available: 5}
	bookings := newFakeBookings()
	m := NewManager(passes, bookings, flatPricer{}, nil, encodeOK)

	res, err := m.Create(context.Background(), CreateRequest{UserID: "u1", PassID: "pass-1"})
	require.NoError(t, err)
	require.Equal(t, 4, passes.available)

	b, err := m.Cancel(context.Background(), res.Booking.ID, model.Actor{UserID: "u1", Role: model.RoleUser})
	require.NoError(t, err)
	require.Equal(t, model.BookingCancelled, b.Status)
	require.Equal(t, model.RefundNone, b.RefundStatus)
	require.Equal(t, 5, passes.available)
}

func TestCancelPaidRefundsBeforeMutation(t *testing.T) {
	passes := &fakePasses{pass: testPass(5), available: 4}
	bookings := newFakeBookings()
	gw := &fakeGateway{}
	m := NewManager(passes, bookings, flatPricer{}, gw, encodeOK)

	bookings.stored["bk-paid"] = &model.Booking{
		ID: "bk-paid", UserID: "u1", PassID: "pass-1",
		Status: model.BookingActive, PaymentStatus: model.PaymentPaid,
		PaymentID: "pay_1", AmountPaid: 500,
	}

	b, err := m.Cancel(context.Background(), "bk-paid", model.Actor{UserID: "u1", Role: model.RoleUser})
	require.NoError(t, err)
	require.Equal(t, 1, gw.refunds)
	require.Equal(t, 500.0, gw.lastAmount)
	require.Equal(t, model.RefundProcessed, b.RefundStatus)
	require.Equal(t, "rfnd_1", b.RefundID)
	require.Equal(t, 5, passes.available)
}

func TestCancelRefundFailureLeavesBookingActive(t *testing.T) {
	passes := &fakePasses{pass: testPass(5), available: 4}
	bookings := newFakeBookings()
	gw := &fakeGateway{refundErr: errors.New("provider down")}
	m := NewManager(passes, bookings, flatPricer{}, gw, encodeOK)

	bookings.stored["bk-paid"] = &model.Booking{
		ID: "bk-paid", UserID: "u1", PassID: "pass-1",
		Status: model.BookingActive, PaymentStatus: model.PaymentPaid,
		PaymentID: "pay_1", AmountPaid: 500,
	}

	_, err := m.Cancel(context.Background(), "bk-paid", model.Actor{UserID: "u1", Role: model.RoleUser})
	var gerr *payment.GatewayError
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, model.BookingActive, bookings.stored["bk-paid"].Status)
	require.Equal(t, 4, passes.available)
}

func TestCancelWrongOwnerForbidden(t *testing.T) {
	passes := &fakePasses{pass: testPass(5), available: 5}
	bookings := newFakeBookings()
	m := NewManager(passes, bookings, flatPricer{}, nil, encodeOK)

	res, err := m.Create(context.Background(), CreateRequest{UserID: "u1", PassID: "pass-1"})
	require.NoError(t, err)

	_, err = m.Cancel(context.Background(), res.Booking.ID, model.Actor{UserID: "u2", Role: model.RoleUser})
	require.ErrorIs(t, err, ErrNotOwner)

	// Admins may cancel anyone's booking.
	_, err = m.Cancel(context.Background(), res.Booking.ID, model.Actor{UserID: "u2", Role: model.RoleAdmin})
	require.NoError(t, err)
}

func TestCancelNonActiveInvalidState(t *testing.T) {
	passes := &fakePasses{pass: testPass(5), available: 5}
	bookings := newFakeBookings()
	m := NewManager(passes, bookings, flatPricer{}, nil, encodeOK)

	bookings.stored["bk-used"] = &model.Booking{
		ID: "bk-used", UserID: "u1", PassID: "pass-1", Status: model.BookingUsed,
	}
	_, err := m.Cancel(context.Background(), "bk-used", model.Actor{UserID: "u1", Role: model.RoleUser})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestVerifyPayment(t *testing.T) {
	passes := &fakePasses{pass: testPass(5), available: 5}
	bookings := newFakeBookings()
	m := NewManager(passes, bookings, flatPricer{}, &fakeGateway{}, encodeOK)

	res, err := m.Create(context.Background(), CreateRequest{UserID: "u1", PassID: "pass-1"})
	require.NoError(t, err)
	require.Equal(t, model.BookingPendingPayment, res.Booking.Status)

	_, err = m.VerifyPayment(context.Background(), res.Booking.ID, "pay_1", "bad")
	require.ErrorIs(t, err, ErrPaymentVerification)

	b, err := m.VerifyPayment(context.Background(), res.Booking.ID, "pay_1", "good")
	require.NoError(t, err)
	require.Equal(t, model.BookingActive, b.Status)
	require.Equal(t, model.PaymentPaid, b.PaymentStatus)

	// Second verification hits a booking that is no longer pending.
	_, err = m.VerifyPayment(context.Background(), res.Booking.ID, "pay_1", "good")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestGetOwnershipChecks(t *testing.T) {
	passes := &fakePasses{pass: testPass(5), available: 5}
	bookings := newFakeBookings()
	m := NewManager(passes, bookings, flatPricer{}, nil, encodeOK)

	res, err := m.Create(context.Background(), CreateRequest{UserID: "u1", PassID: "pass-1"})
	require.NoError(t, err)

	_, err = m.Get(context.Background(), res.Booking.ID, model.Actor{UserID: "u1", Role: model.RoleUser})
	require.NoError(t, err)
	_, err = m.Get(context.Background(), res.Booking.ID, model.Actor{UserID: "u2", Role: model.RoleStaff})
	require.NoError(t, err)
	_, err = m.Get(context.Background(), res.Booking.ID, model.Actor{UserID: "u2", Role: model.RoleUser})
	require.ErrorIs(t, err, ErrNotOwner)
}
