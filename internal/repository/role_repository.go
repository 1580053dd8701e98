package repository

import (
	"context"
	"database/sql"
	"time"
)

// Role mirrors the 'roles' table: the global catalog of platform-level
// permission tags (BUYER, SELLER), seeded at setup.
type Role struct {
	ID        uint64
	Name      string
	CreatedAt time.Time
}

type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// GetByName fetches a role from the catalog.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (Role, error) {
	var role Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,created_at FROM roles WHERE name=? LIMIT 1",
		name).Scan(&role.ID, &role.Name, &role.CreatedAt)
	return role, notFoundAs(err)
}

// List returns the full role catalog.
func (r *RoleRepo) List(ctx context.Context) ([]Role, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id,name,created_at FROM roles ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}
