package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/iliyamo/event-pass-booking/internal/model"
)

// DiscountRepo provides persistence for discount codes.  The used_by set is
// a JSON column mutated only through RegisterUse, which bumps times_used in
// the same atomic statement so concurrent applications never lose updates.
type DiscountRepo struct {
	db *sql.DB
}

// NewDiscountRepo returns a new DiscountRepo bound to the given database.
func NewDiscountRepo(db *sql.DB) *DiscountRepo { return &DiscountRepo{db: db} }

const discountColumns = `id, code, percentage, max_limit, assigned_to, zone_id, expiry,
	is_active, times_used, used_by, created_at`

// Create inserts a new discount.  Duplicate codes surface as ErrConflict
// (backed by the unique index on code).
func (r *DiscountRepo) Create(ctx context.Context, d *model.Discount) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO discounts (` + discountColumns + `) VALUES (?,?,?,?,?,?,?,?,?,JSON_ARRAY(),?)`
	_, err := r.db.ExecContext(ctx, q,
		d.ID, d.Code, d.Percentage, d.MaxLimit, nullable(d.AssignedTo), nullable(d.ZoneID),
		d.Expiry, d.IsActive, d.TimesUsed, d.CreatedAt)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 { // duplicate key
		return ErrConflict
	}
	return err
}

// FindEligible locates an active, unexpired discount usable by the given
// user in the given zone: either assigned to the user directly or scoped to
// the zone.  When several match, the highest percentage wins.  Returns
// (nil, nil) when no discount qualifies.
func (r *DiscountRepo) FindEligible(ctx context.Context, userID, zoneID string, now time.Time) (*model.Discount, error) {
	const q = `SELECT ` + discountColumns + ` FROM discounts
			   WHERE (assigned_to = ? OR zone_id = ?) AND is_active = 1 AND expiry > ?
			   ORDER BY percentage DESC LIMIT 1`
	d, err := scanDiscount(r.db.QueryRowContext(ctx, q, userID, zoneID, now))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

// GetByID returns a discount or ErrNotFound.
func (r *DiscountRepo) GetByID(ctx context.Context, id string) (*model.Discount, error) {
	const q = `SELECT ` + discountColumns + ` FROM discounts WHERE id = ?`
	d, err := scanDiscount(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return d, err
}

// RegisterUse increments times_used and adds the user to used_by in one
// atomic statement.  The JSON_CONTAINS guard keeps used_by a set: a repeat
// user is counted in times_used but not appended twice.
func (r *DiscountRepo) RegisterUse(ctx context.Context, id, userID string) error {
	const q = `UPDATE discounts
			   SET times_used = times_used + 1,
				   used_by = IF(JSON_CONTAINS(used_by, JSON_QUOTE(?)),
								used_by,
								JSON_ARRAY_APPEND(used_by, '$', ?))
			   WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, userID, userID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListActiveForStaff returns the unexpired active discounts assigned to a
// staff member, for the counter UI.
func (r *DiscountRepo) ListActiveForStaff(ctx context.Context, staffID string, now time.Time) ([]model.Discount, error) {
	const q = `SELECT ` + discountColumns + ` FROM discounts
			   WHERE assigned_to = ? AND is_active = 1 AND expiry > ?
			   ORDER BY created_at DESC`
	return r.list(ctx, q, staffID, now)
}

// ListFiltered returns discounts for the admin view, optionally scoped to a
// zone.
func (r *DiscountRepo) ListFiltered(ctx context.Context, zoneID string) ([]model.Discount, error) {
	q := `SELECT ` + discountColumns + ` FROM discounts`
	args := []interface{}{}
	if zoneID != "" {
		q += ` WHERE zone_id = ?`
		args = append(args, zoneID)
	}
	q += ` ORDER BY created_at DESC`
	return r.list(ctx, q, args...)
}

func (r *DiscountRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Discount, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Discount, 0)
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func scanDiscount(s rowScanner) (*model.Discount, error) {
	var (
		d          model.Discount
		maxLimit   sql.NullFloat64
		assignedTo sql.NullString
		zoneID     sql.NullString
		usedBy     []byte
	)
	err := s.Scan(&d.ID, &d.Code, &d.Percentage, &maxLimit, &assignedTo, &zoneID, &d.Expiry,
		&d.IsActive, &d.TimesUsed, &usedBy, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.MaxLimit = maxLimit.Float64
	d.AssignedTo = assignedTo.String
	d.ZoneID = zoneID.String
	if len(usedBy) > 0 {
		if err := json.Unmarshal(usedBy, &d.UsedBy); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

// nullable converts an empty string into a SQL NULL so scoping columns stay
// truly optional.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
