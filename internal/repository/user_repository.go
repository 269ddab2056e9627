package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// UserRepo persists accounts in the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, phone, first_name, last_name, password_hash, is_staff, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }, u *model.User) error {
	var phone sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &phone, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.IsStaff, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	u.Phone = nil
	if phone.Valid {
		p := phone.String
		u.Phone = &p
	}
	return nil
}

// NormalizeEmail lower-cases and trims an address the way it is stored.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// uniqueErr maps a duplicate key error to the sentinel for the column.
func uniqueErr(err error) error {
	if strings.Contains(duplicateKey(err), "phone") {
		return ErrPhoneExists
	}
	return ErrEmailExists
}

// Create inserts u (with an already hashed password) and fills its ID and
// timestamps.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, phone, first_name, last_name, password_hash, is_staff, is_active) VALUES (?,?,?,?,?,?,?)",
		u.Email, u.Phone, u.FirstName, u.LastName, u.PasswordHash, u.IsStaff, u.IsActive)
	if err != nil {
		if isDuplicate(err) {
			return uniqueErr(err)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = *got
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) get(ctx context.Context, q string, arg interface{}) (*model.User, error) {
	var u model.User
	if err := scanUser(r.DB.QueryRowContext(ctx, q, arg), &u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns all users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateProfile writes the profile fields (names, phone) of u.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET first_name=?, last_name=?, phone=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		u.FirstName, u.LastName, u.Phone, u.ID)
	if err != nil {
		if isDuplicate(err) {
			return uniqueErr(err)
		}
		return err
	}
	got, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	*u = *got
	return nil
}

// Delete removes a user together with their refresh tokens. Users that
// still hold reservations cannot be deleted.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		if isReferenced(err) {
			return ErrInUse
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
