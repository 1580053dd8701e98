package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/liveshop-app/liveshop-server/internal/utils"
)

// User mirrors the 'users' table.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID. A duplicate email surfaces as
// ErrEmailExists via the unique constraint, not a pre-check.
func (r *UserRepo) Create(ctx context.Context, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, is_verified) VALUES (?,?,0)",
		email, hash)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,is_verified,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,is_verified,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// ExistsByID reports whether a user row exists.
func (r *UserRepo) ExistsByID(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE id=? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
