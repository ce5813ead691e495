package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/iliyamo/event-pass-booking/internal/model"
)

// ZoneRepo provides persistence for zones.  Zones are soft-deactivated with
// audit fields; hard deletion is blocked while active passes reference the
// zone.
type ZoneRepo struct {
	db *sql.DB
}

// NewZoneRepo returns a new ZoneRepo bound to the given database.
func NewZoneRepo(db *sql.DB) *ZoneRepo { return &ZoneRepo{db: db} }

const zoneColumns = `id, name, description, is_active, created_by, created_at,
	deactivated_by, deactivated_at, reactivated_by, reactivated_at`

// Create inserts a new zone.  Duplicate names surface as ErrConflict.
func (r *ZoneRepo) Create(ctx context.Context, z *model.Zone) error {
	if z.ID == "" {
		z.ID = uuid.NewString()
	}
	if z.CreatedAt.IsZero() {
		z.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO zones (id, name, description, is_active, created_by, created_at)
			   VALUES (?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, q, z.ID, z.Name, z.Description, z.IsActive, z.CreatedBy, z.CreatedAt)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 { // duplicate name
		return ErrConflict
	}
	return err
}

// GetByID returns a zone or ErrNotFound.
func (r *ZoneRepo) GetByID(ctx context.Context, id string) (*model.Zone, error) {
	const q = `SELECT ` + zoneColumns + ` FROM zones WHERE id = ?`
	z, err := scanZone(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return z, err
}

// List returns all zones, newest first.
func (r *ZoneRepo) List(ctx context.Context) ([]model.Zone, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+zoneColumns+` FROM zones ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Zone, 0)
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *z)
	}
	return out, rows.Err()
}

// Update changes name and/or description.  Duplicate names surface as
// ErrConflict, absent zones as ErrNotFound.
func (r *ZoneRepo) Update(ctx context.Context, id, name, description string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE zones SET name = ?, description = ? WHERE id = ?", name, description, id)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	// RowsAffected is 0 both for a missing zone and an unchanged row, so
	// confirm existence before reporting not found.
	if n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM zones WHERE id = ?", id).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

// Deactivate soft-deletes a zone and records who did it.
func (r *ZoneRepo) Deactivate(ctx context.Context, id, byUser string) error {
	const q = `UPDATE zones SET is_active = 0, deactivated_by = ?, deactivated_at = ?
			   WHERE id = ? AND is_active = 1`
	res, err := r.db.ExecContext(ctx, q, byUser, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Reactivate re-enables a deactivated zone and records who did it.
func (r *ZoneRepo) Reactivate(ctx context.Context, id, byUser string) error {
	const q = `UPDATE zones SET is_active = 1, reactivated_by = ?, reactivated_at = ?
			   WHERE id = ? AND is_active = 0`
	res, err := r.db.ExecContext(ctx, q, byUser, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a zone, refusing with ErrConflict while it still has
// active passes.
func (r *ZoneRepo) Delete(ctx context.Context, id string) error {
	var n int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM passes WHERE zone_id = ? AND is_active = 1", id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM zones WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func scanZone(s rowScanner) (*model.Zone, error) {
	var (
		z                      model.Zone
		desc, deactBy, reactBy sql.NullString
		deactAt, reactAt       sql.NullTime
	)
	err := s.Scan(&z.ID, &z.Name, &desc, &z.IsActive, &z.CreatedBy, &z.CreatedAt,
		&deactBy, &deactAt, &reactBy, &reactAt)
	if err != nil {
		return nil, err
	}
	z.Description = desc.String
	z.DeactivatedBy = deactBy.String
	z.ReactivatedBy = reactBy.String
	if deactAt.Valid {
		t := deactAt.Time
		z.DeactivatedAt = &t
	}
	if reactAt.Valid {
		t := reactAt.Time
		z.ReactivatedAt = &t
	}
	return &z, nil
}
