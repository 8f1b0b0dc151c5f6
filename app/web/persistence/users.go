package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cabwad/hris/app/web/enums"
)

// User is an account allowed to use the HR backend
type User struct {
	ID           int64    `db:"id" json:"id"`
	Username     string   `db:"username" json:"username"`
	Email        string   `db:"email" json:"email"`
	FirstName    string   `db:"first_name" json:"first_name"`
	LastName     string   `db:"last_name" json:"last_name"`
	Birthdate    string   `db:"birthdate" json:"birthdate"` // YYYY-MM-DD
	IsActive     bool     `db:"is_active" json:"is_active"`
	IsStaff      bool     `db:"is_staff" json:"is_staff"`
	IsAdmin      bool     `db:"is_admin" json:"is_admin"`
	IsSuperuser  bool     `db:"is_superuser" json:"is_superuser"`
	PasswordHash string   `db:"password_hash" json:"-"`
	DateJoined   UnixTime `db:"date_joined" json:"date_joined"`
}

// Role returns human readable role of the user
func (u User) Role() string {
	switch {
	case u.IsSuperuser:
		return "Super Admin"
	case u.IsAdmin:
		return "Admin"
	default:
		return "Staff"
	}
}

// IsPrivileged reports whether the user may use admin-only endpoints
func (u User) IsPrivileged() bool {
	return u.IsAdmin || u.IsSuperuser
}

// UserFilter selects users for ListUsers
type UserFilter struct {
	Active   *bool
	UserType enums.UserType // zero value means any type
	Page
}

const userColumns = `id, username, email, first_name, last_name, birthdate, is_active, is_staff, is_admin,
	is_superuser, password_hash, date_joined`

// CreateUser inserts a new user, username and email must be unique
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	found, err := s.exists(ctx, s.db, "SELECT COUNT(*) FROM users WHERE username = ? OR email = ?", u.Username, u.Email)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("user %q (%s): %w", u.Username, u.Email, ErrAlreadyExists)
	}

	if u.DateJoined.IsZero() {
		u.DateJoined = Now()
	}
	res, err := s.db.NamedExecContext(ctx, `INSERT INTO users
		(username, email, first_name, last_name, birthdate, is_active, is_staff, is_admin, is_superuser, password_hash, date_joined)
		VALUES (:username, :email, :first_name, :last_name, :birthdate, :is_active, :is_staff, :is_admin, :is_superuser,
		:password_hash, :date_joined)`, u)
	if err != nil {
		return fmt.Errorf("failed to insert user %q: %w", u.Username, err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	return nil
}

// GetUser returns user by id
func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByUsername returns user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return s.getUser(ctx, "username = ?", username)
}

// GetUserByEmail returns user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, "email = ?", email)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ListUsers returns users matching the filter ordered by last and first name, with total count
func (s *Store) ListUsers(ctx context.Context, f UserFilter) (users []User, total int, err error) {
	conds, args := []string{"1=1"}, []any{}
	if f.Active != nil {
		conds = append(conds, "is_active = ?")
		args = append(args, *f.Active)
	}
	switch f.UserType {
	case enums.UserTypeSuperadmin:
		conds = append(conds, "is_superuser = ?")
		args = append(args, true)
	case enums.UserTypeAdmin:
		conds = append(conds, "is_admin = ? AND is_superuser = ?")
		args = append(args, true, false)
	case enums.UserTypeStaff:
		conds = append(conds, "is_admin = ? AND is_superuser = ?")
		args = append(args, false, false)
	}
	where := strings.Join(conds, " AND ")

	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	users = []User{}
	query := "SELECT " + userColumns + " FROM users WHERE " + where + " ORDER BY last_name, first_name" + f.clause()
	if err := s.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// UpdatePassword replaces password hash of the user
func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password for user %d: %w", id, err)
	}
	return mustAffect(res, fmt.Sprintf("user %d", id))
}

// SetUserActive activates or deactivates the user
func (s *Store) SetUserActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET is_active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return mustAffect(res, fmt.Sprintf("user %d", id))
}

// DeleteUser removes the user
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return mustAffect(res, fmt.Sprintf("user %d", id))
}

// BlacklistToken marks token id as revoked until its expiration
func (s *Store) BlacklistToken(ctx context.Context, jti string, expiresAt time.Time) error {
	blacklisted, err := s.IsTokenBlacklisted(ctx, jti)
	if err != nil {
		return err
	}
	if blacklisted {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "INSERT INTO token_blacklist (jti, expires_at) VALUES (?, ?)",
		jti, expiresAt.Unix()); err != nil {
		return fmt.Errorf("failed to blacklist token %s: %w", jti, err)
	}
	return nil
}

// IsTokenBlacklisted checks if token id was revoked
func (s *Store) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	return s.exists(ctx, s.db, "SELECT COUNT(*) FROM token_blacklist WHERE jti = ?", jti)
}

// PurgeExpiredTokens removes blacklist entries for tokens expired before the given time
func (s *Store) PurgeExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM token_blacklist WHERE expires_at < ?", before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge token blacklist: %w", err)
	}
	return res.RowsAffected()
}

func mustAffect(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows for %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
