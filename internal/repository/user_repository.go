package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/iliyamo/event-pass-booking/internal/model"
	"github.com/iliyamo/event-pass-booking/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ErrEmailExists is returned when registration hits the unique email index.
var ErrEmailExists = errors.New("email already exists")

const userColumns = `id, name, email, phone, password_hash, role, zone_id, otp_verified, created_at, updated_at`

// Create hashes the password and inserts the user, returning its new ID.
// Staff users carry the zone they are assigned to.
func (r *UserRepo) Create(ctx context.Context, name, email, phone, password string, role model.Role, zoneID string, cost int) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, name, email, phone, password_hash, role, zone_id, otp_verified, created_at, updated_at) VALUES (?,?,?,?,?,?,?,0,?,?)",
		id, name, email, phone, hash, string(role), nullable(zoneID), now, now)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return "", ErrEmailExists
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", email))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return u, err
}

// ListByRole pages through users of one role, for the admin listings.
func (r *UserRepo) ListByRole(ctx context.Context, role model.Role, offset, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE role = ? ORDER BY created_at DESC LIMIT ? OFFSET ?",
		string(role), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// ExistsStaff reports whether the given id belongs to a staff user.  Used
// when validating discount assignment.
func (r *UserRepo) ExistsStaff(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE id = ? AND role = 'staff' LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// SetOTPVerified marks the user's phone as confirmed.
func (r *UserRepo) SetOTPVerified(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET otp_verified = 1 WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u      model.User
		role   string
		phone  sql.NullString
		zoneID sql.NullString
	)
	err := s.Scan(&u.ID, &u.Name, &u.Email, &phone, &u.PasswordHash, &role, &zoneID,
		&u.OTPVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = model.ParseRole(role)
	u.Phone = phone.String
	u.ZoneID = zoneID.String
	return &u, nil
}
