package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-pass-booking/internal/model"
)

// BookingRepo provides persistence for bookings.  Group members and the QR
// artifact live inside the booking row (JSON and LONGTEXT columns); the
// booking owns both exclusively.  Status changes issue conditional updates
// (`... WHERE status = 'active'`) so that replays and concurrent scans
// cannot move a booking twice.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, user_id, pass_id, zone_id, is_group, group_members, status,
	payment_status, order_id, payment_id, amount_paid, discount_applied, discount_code,
	refund_status, refund_amount, refund_id, qr_code, sold_by, created_at`

// Insert persists a new booking, assigning a UUID when absent.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	members, err := json.Marshal(b.GroupMembers)
	if err != nil {
		return err
	}
	const q = `INSERT INTO bookings (` + bookingColumns + `) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err = r.db.ExecContext(ctx, q,
		b.ID, b.UserID, b.PassID, b.ZoneID, b.IsGroup, members, string(b.Status),
		string(b.PaymentStatus), b.OrderID, b.PaymentID, b.AmountPaid, b.DiscountApplied, b.DiscountCode,
		string(b.RefundStatus), b.RefundAmount, b.RefundID, b.QRCode, b.SoldBy, b.CreatedAt)
	return err
}

// GetByID returns a booking or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return b, err
}

// SetQRCode attaches the generated QR artifact to a booking.  Artifact
// generation failure is non-fatal upstream, so a missing call is tolerated.
func (r *BookingRepo) SetQRCode(ctx context.Context, id, qr string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE bookings SET qr_code = ? WHERE id = ?", qr, id)
	return err
}

// MarkPaid records a verified payment and activates a pending booking.  The
// conditional WHERE keeps the transition one-directional: only a booking
// still awaiting payment can become active.
func (r *BookingRepo) MarkPaid(ctx context.Context, id, paymentID string) error {
	const q = `UPDATE bookings SET status = 'active', payment_status = 'paid', payment_id = ?
			   WHERE id = ? AND status = 'pending_payment'`
	res, err := r.db.ExecContext(ctx, q, paymentID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// MarkUsed transitions an active booking to used.  Returns ErrNotFound when
// the booking is absent or no longer active, which makes a second scan of
// the same QR a no-op at the storage level.
func (r *BookingRepo) MarkUsed(ctx context.Context, id string) error {
	const q = `UPDATE bookings SET status = 'used' WHERE id = ? AND status = 'active'`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// MarkCashSold consumes an active booking as a counter sale: the staff
// member who verified it goes on record and the payment mode is cash.
func (r *BookingRepo) MarkCashSold(ctx context.Context, id, staffID string) error {
	const q = `UPDATE bookings SET status = 'used', payment_status = 'cash', sold_by = ?
			   WHERE id = ? AND status = 'active'`
	res, err := r.db.ExecContext(ctx, q, staffID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// MarkCancelled finalises a cancellation with its refund outcome.  The
// caller has already ordered the refund gateway call before this mutation;
// the conditional WHERE guards against cancelling twice.
func (r *BookingRepo) MarkCancelled(ctx context.Context, id string, refundStatus model.RefundStatus, refundAmount float64, refundID string) error {
	const q = `UPDATE bookings SET status = 'cancelled', refund_status = ?, refund_amount = ?, refund_id = ?
			   WHERE id = ? AND status = 'active'`
	res, err := r.db.ExecContext(ctx, q, string(refundStatus), refundAmount, refundID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// MarkMemberEntered flips a single member's entry_status in place with a
// per-index JSON update.  The JSON_EXTRACT guard makes the flip
// conditional, like ReserveQuantity: entered is false when the member was
// already admitted (or the booking is no longer active), and concurrent
// admissions of different members never clobber each other's flags.  When
// the flip leaves no member unentered the booking moves to used; used
// reports that transition, derived from the stored row rather than any
// roster the caller read earlier.
func (r *BookingRepo) MarkMemberEntered(ctx context.Context, id string, index int) (entered, used bool, err error) {
	path := fmt.Sprintf("$[%d].entry_status", index)
	const flipQ = `UPDATE bookings
	               SET group_members = JSON_SET(group_members, ?, TRUE)
	               WHERE id = ? AND status = 'active'
	                 AND JSON_EXTRACT(group_members, ?) = FALSE`
	res, err := r.db.ExecContext(ctx, flipQ, path, id, path)
	if err != nil {
		return false, false, err
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return false, false, err
	}

	const useQ = `UPDATE bookings SET status = 'used'
	              WHERE id = ? AND status = 'active'
	                AND NOT JSON_CONTAINS(group_members, '{"entry_status": false}')`
	res, err = r.db.ExecContext(ctx, useQ, id)
	if err != nil {
		return true, false, err
	}
	n, err = res.RowsAffected()
	return true, n > 0, err
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, userID)
}

// BookingFilter narrows admin booking listings.  Zero values mean "any".
type BookingFilter struct {
	ZoneID    string
	Status    string
	GroupOnly bool
}

// ListFiltered returns bookings matching the filter, newest first.
func (r *BookingRepo) ListFiltered(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := []interface{}{}
	if f.ZoneID != "" {
		q += ` AND zone_id = ?`
		args = append(args, f.ZoneID)
	}
	if f.Status != "" {
		q += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.GroupOnly {
		q += ` AND is_group = 1`
	}
	q += ` ORDER BY created_at DESC`
	return r.list(ctx, q, args...)
}

// BookingStats aggregates booking volume for the admin dashboard.
type BookingStats struct {
	TotalBookings   int     `json:"total_bookings"`
	TotalRevenue    float64 `json:"total_revenue"`
	TotalAttendance int     `json:"total_attendance"`
	OnlineBookings  int     `json:"online_bookings"`
	OfflineBookings int     `json:"offline_bookings"`
}

// Stats computes totals for bookings created inside [start, end].
func (r *BookingRepo) Stats(ctx context.Context, start, end time.Time) (BookingStats, error) {
	const q = `SELECT COUNT(*),
					  COALESCE(SUM(amount_paid), 0),
					  COALESCE(SUM(status = 'used'), 0),
					  COALESCE(SUM(sold_by = 'online'), 0),
					  COALESCE(SUM(sold_by <> 'online'), 0)
			   FROM bookings WHERE created_at BETWEEN ? AND ?`
	var s BookingStats
	err := r.db.QueryRowContext(ctx, q, start, end).Scan(
		&s.TotalBookings, &s.TotalRevenue, &s.TotalAttendance, &s.OnlineBookings, &s.OfflineBookings)
	return s, err
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBooking(s rowScanner) (*model.Booking, error) {
	var (
		b                              model.Booking
		members                        []byte
		status, payStatus, refStatus   string
		orderID, paymentID, refundID   sql.NullString
		discountCode, qr, soldBy       sql.NullString
	)
	err := s.Scan(&b.ID, &b.UserID, &b.PassID, &b.ZoneID, &b.IsGroup, &members, &status,
		&payStatus, &orderID, &paymentID, &b.AmountPaid, &b.DiscountApplied, &discountCode,
		&refStatus, &b.RefundAmount, &refundID, &qr, &soldBy, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	b.PaymentStatus = model.PaymentStatus(payStatus)
	b.RefundStatus = model.RefundStatus(refStatus)
	b.OrderID = orderID.String
	b.PaymentID = paymentID.String
	b.RefundID = refundID.String
	b.DiscountCode = discountCode.String
	b.QRCode = qr.String
	b.SoldBy = soldBy.String
	if len(members) > 0 {
		if err := json.Unmarshal(members, &b.GroupMembers); err != nil {
			return nil, err
		}
	}
	return &b, nil
}
