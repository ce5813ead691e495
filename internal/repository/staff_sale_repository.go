package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-pass-booking/internal/model"
)

// StaffSaleRepo persists counter-sale records.  A staff sale is written
// once when a staff member verifies a booking and never mutated afterwards.
type StaffSaleRepo struct {
	db *sql.DB
}

// NewStaffSaleRepo returns a new StaffSaleRepo bound to the given database.
func NewStaffSaleRepo(db *sql.DB) *StaffSaleRepo { return &StaffSaleRepo{db: db} }

// Create inserts a staff sale, assigning a UUID when absent.
func (r *StaffSaleRepo) Create(ctx context.Context, s *model.StaffSale) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.SaleTime.IsZero() {
		s.SaleTime = time.Now().UTC()
	}
	const q = `INSERT INTO staff_sales (id, staff_id, booking_id, zone_id, amount, payment_mode, commission, sale_time)
			   VALUES (?,?,?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.StaffID, s.BookingID, s.ZoneID, s.Amount, string(s.PaymentMode), s.Commission, s.SaleTime)
	return err
}

// ListByStaff returns a staff member's own sales, newest first.
func (r *StaffSaleRepo) ListByStaff(ctx context.Context, staffID string) ([]model.StaffSale, error) {
	const q = `SELECT id, staff_id, booking_id, zone_id, amount, payment_mode, commission, sale_time
			   FROM staff_sales WHERE staff_id = ? ORDER BY sale_time DESC`
	rows, err := r.db.QueryContext(ctx, q, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.StaffSale, 0)
	for rows.Next() {
		var (
			s          model.StaffSale
			mode       string
			commission sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &s.StaffID, &s.BookingID, &s.ZoneID, &s.Amount, &mode, &commission, &s.SaleTime); err != nil {
			return nil, err
		}
		s.PaymentMode = model.PaymentMode(mode)
		if commission.Valid {
			c := commission.Float64
			s.Commission = &c
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// StaffSalesRow is one line of the admin staff-sales report: per-staff
// totals over the requested window, joined against bookings for amounts.
type StaffSalesRow struct {
	StaffID     string  `json:"staff_id"`
	StaffName   string  `json:"staff_name"`
	TotalSales  int     `json:"total_sales"`
	TotalAmount float64 `json:"total_amount"`
}

// Report aggregates staff sales between start and end (inclusive).  Zero
// time bounds widen the window to everything.
func (r *StaffSaleRepo) Report(ctx context.Context, start, end time.Time) ([]StaffSalesRow, error) {
	q := `SELECT ss.staff_id, COALESCE(u.name, ''), COUNT(*), COALESCE(SUM(b.amount_paid), 0)
		  FROM staff_sales ss
		  JOIN bookings b ON b.id = ss.booking_id
		  LEFT JOIN users u ON u.id = ss.staff_id
		  WHERE 1=1`
	args := []interface{}{}
	if !start.IsZero() {
		q += ` AND ss.sale_time >= ?`
		args = append(args, start)
	}
	if !end.IsZero() {
		q += ` AND ss.sale_time <= ?`
		args = append(args, end)
	}
	q += ` GROUP BY ss.staff_id, u.name ORDER BY COUNT(*) DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]StaffSalesRow, 0)
	for rows.Next() {
		var row StaffSalesRow
		if err := rows.Scan(&row.StaffID, &row.StaffName, &row.TotalSales, &row.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
