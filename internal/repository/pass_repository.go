package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-pass-booking/internal/model"
)

// PassRepo provides CRUD and inventory operations for passes.  Pricing
// rules are stored as a JSON column; all timestamps are UTC.  Inventory is
// only ever changed through ReserveQuantity and RestoreQuantity so the
// available_quantity counter can never go negative.
type PassRepo struct {
	db *sql.DB
}

// NewPassRepo returns a new PassRepo bound to the given database.
func NewPassRepo(db *sql.DB) *PassRepo { return &PassRepo{db: db} }

const passColumns = `id, zone_id, name, type, price, validity_start, validity_end,
	group_size, available_quantity, pricing_rules, description, is_active, created_by, created_at`

// Create inserts a new pass and assigns it a fresh UUID.  The generated ID
// is populated on the passed model.
func (r *PassRepo) Create(ctx context.Context, p *model.Pass) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	rules, err := json.Marshal(p.PricingRules)
	if err != nil {
		return err
	}
	const q = `INSERT INTO passes (` + passColumns + `) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err = r.db.ExecContext(ctx, q,
		p.ID, p.ZoneID, p.Name, string(p.Type), p.Price, p.ValidityStart, p.ValidityEnd,
		p.GroupSize, p.AvailableQuantity, rules, p.Description, p.IsActive, p.CreatedBy, p.CreatedAt)
	return err
}

// GetByID returns a single pass or ErrNotFound.
func (r *PassRepo) GetByID(ctx context.Context, id string) (*model.Pass, error) {
	const q = `SELECT ` + passColumns + ` FROM passes WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// ListActive returns all active passes, optionally restricted to a zone.
// Newest passes come first.
func (r *PassRepo) ListActive(ctx context.Context, zoneID string) ([]model.Pass, error) {
	q := `SELECT ` + passColumns + ` FROM passes WHERE is_active = 1`
	args := []interface{}{}
	if zoneID != "" {
		q += ` AND zone_id = ?`
		args = append(args, zoneID)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Pass, 0)
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// PassUpdate carries the optional fields of a pass update.  Nil fields are
// left untouched; documents are never silently defaulted.
type PassUpdate struct {
	Name         *string
	Price        *float64
	ValidityEnd  *time.Time
	Quantity     *int
	PricingRules *[]model.PricingRule
	IsActive     *bool
	Description  *string
}

// Update applies a field-set update and returns ErrNotFound when the pass
// does not exist.  An empty update is a no-op.
func (r *PassRepo) Update(ctx context.Context, id string, u PassUpdate) error {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *u.Price)
	}
	if u.ValidityEnd != nil {
		sets = append(sets, "validity_end = ?")
		args = append(args, *u.ValidityEnd)
	}
	if u.Quantity != nil {
		sets = append(sets, "available_quantity = ?")
		args = append(args, *u.Quantity)
	}
	if u.PricingRules != nil {
		rules, err := json.Marshal(*u.PricingRules)
		if err != nil {
			return err
		}
		sets = append(sets, "pricing_rules = ?")
		args = append(args, rules)
	}
	if u.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *u.IsActive)
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *u.Description)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.db.ExecContext(ctx, "UPDATE passes SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Deactivate soft-deletes a pass so existing bookings keep a valid reference.
func (r *PassRepo) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE passes SET is_active = 0 WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ReserveQuantity atomically consumes qty units of inventory.  The WHERE
// clause is the authoritative guard: two concurrent bookings racing for the
// last unit cannot both match, so available_quantity never goes negative.
// It returns false when inventory was insufficient and ErrNotFound when the
// pass does not exist at all.
func (r *PassRepo) ReserveQuantity(ctx context.Context, id string, qty int) (bool, error) {
	const q = `UPDATE passes SET available_quantity = available_quantity - ?
			   WHERE id = ? AND available_quantity >= ?`
	res, err := r.db.ExecContext(ctx, q, qty, id, qty)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	var exists int
	if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM passes WHERE id = ?", id).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return false, ErrNotFound
		}
		return false, err
	}
	return false, nil
}

// RestoreQuantity returns qty units of inventory after a cancellation.  A
// plain atomic increment, always safe to apply concurrently.
func (r *PassRepo) RestoreQuantity(ctx context.Context, id string, qty int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE passes SET available_quantity = available_quantity + ? WHERE id = ?", qty, id)
	return err
}

// DeleteIfUnreferenced removes a pass only when no non-cancelled booking
// still references it; otherwise ErrConflict.  Soft deactivation is the
// normal path, hard delete exists for passes created by mistake.
func (r *PassRepo) DeleteIfUnreferenced(ctx context.Context, id string) error {
	var n int
	const cnt = `SELECT COUNT(*) FROM bookings WHERE pass_id = ? AND status IN ('active','pending_payment','used')`
	if err := r.db.QueryRowContext(ctx, cnt, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM passes WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CountActiveByZone reports how many active passes a zone still has.  Used
// to block zone deletion while passes depend on it.
func (r *PassRepo) CountActiveByZone(ctx context.Context, zoneID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM passes WHERE zone_id = ? AND is_active = 1", zoneID).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PassRepo) scanOne(row *sql.Row) (*model.Pass, error) {
	p, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *PassRepo) scanRow(s rowScanner) (*model.Pass, error) {
	var (
		p      model.Pass
		typ    string
		rules  []byte
		desc   sql.NullString
		gsize  sql.NullInt64
	)
	err := s.Scan(&p.ID, &p.ZoneID, &p.Name, &typ, &p.Price, &p.ValidityStart, &p.ValidityEnd,
		&gsize, &p.AvailableQuantity, &rules, &desc, &p.IsActive, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Type = model.PassType(typ)
	if gsize.Valid {
		p.GroupSize = int(gsize.Int64)
	}
	if desc.Valid {
		p.Description = desc.String
	}
	if len(rules) > 0 {
		if err := json.Unmarshal(rules, &p.PricingRules); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// requireRow maps a zero-rows-affected result to ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
