package repository

import (
	"context"
	"database/sql"
	"time"
)

// UserRole mirrors the 'user_roles' table. A row is a request for a
// platform role; it grants capability only once ActivatedAt is set.
// ActivatedBy records which reviewer approved it. The transition is
// one-way: there is no deactivation path.
type UserRole struct {
	ID          uint64
	UserID      uint64
	RoleID      uint64
	RoleName    string // joined from roles; empty when not selected
	ActivatedBy *uint64
	ActivatedAt *time.Time
	CreatedAt   time.Time
}

type UserRoleRepo struct{ DB *sql.DB }

func NewUserRoleRepo(db *sql.DB) *UserRoleRepo { return &UserRoleRepo{DB: db} }

// Request inserts a pending role request. The unique (user_id, role_id)
// constraint makes a repeated request an ErrConflict regardless of whether
// the earlier row is pending or already activated.
func (r *UserRoleRepo) Request(ctx context.Context, userID, roleID uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role_id) VALUES (?,?)",
		userID, roleID)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Activate stamps activated_at and records the reviewer. Guarded so a row
// is only activated once; activating an already-activated or missing row
// returns ErrNotFound.
func (r *UserRoleRepo) Activate(ctx context.Context, id, activatedBy uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE user_roles SET activated_by=?, activated_at=NOW() WHERE id=? AND activated_at IS NULL",
		activatedBy, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// HasActiveRole reports whether the user holds an activated role with the
// given name. Pending requests do not count.
func (r *UserRoleRepo) HasActiveRole(ctx context.Context, userID uint64, roleName string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM user_roles ur
		 JOIN roles r ON ur.role_id = r.id
		 WHERE ur.user_id=? AND r.name=? AND ur.activated_at IS NOT NULL LIMIT 1`,
		userID, roleName).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByUser returns all of the user's role rows (pending and activated)
// with the role name joined in, newest first.
func (r *UserRoleRepo) ListByUser(ctx context.Context, userID uint64) ([]UserRole, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT ur.id, ur.user_id, ur.role_id, r.name, ur.activated_by, ur.activated_at, ur.created_at
		 FROM user_roles ur
		 JOIN roles r ON ur.role_id = r.id
		 WHERE ur.user_id=?
		 ORDER BY ur.created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUserRoles(rows)
}

// GetByUserAndRoleName returns the user's row for a role name, pending or
// activated.
func (r *UserRoleRepo) GetByUserAndRoleName(ctx context.Context, userID uint64, roleName string) (UserRole, error) {
	var ur UserRole
	var activatedBy sql.NullInt64
	var activatedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		`SELECT ur.id, ur.user_id, ur.role_id, r.name, ur.activated_by, ur.activated_at, ur.created_at
		 FROM user_roles ur
		 JOIN roles r ON ur.role_id = r.id
		 WHERE ur.user_id=? AND r.name=? LIMIT 1`,
		userID, roleName).Scan(&ur.ID, &ur.UserID, &ur.RoleID, &ur.RoleName, &activatedBy, &activatedAt, &ur.CreatedAt)
	if err != nil {
		return UserRole{}, notFoundAs(err)
	}
	if activatedBy.Valid {
		v := uint64(activatedBy.Int64)
		ur.ActivatedBy = &v
	}
	if activatedAt.Valid {
		t := activatedAt.Time
		ur.ActivatedAt = &t
	}
	return ur, nil
}

// ListPending returns the admin review queue: all requested-state rows,
// newest first.
func (r *UserRoleRepo) ListPending(ctx context.Context) ([]UserRole, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT ur.id, ur.user_id, ur.role_id, r.name, ur.activated_by, ur.activated_at, ur.created_at
		 FROM user_roles ur
		 JOIN roles r ON ur.role_id = r.id
		 WHERE ur.activated_at IS NULL
		 ORDER BY ur.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUserRoles(rows)
}

func scanUserRoles(rows *sql.Rows) ([]UserRole, error) {
	var out []UserRole
	for rows.Next() {
		var ur UserRole
		var activatedBy sql.NullInt64
		var activatedAt sql.NullTime
		if err := rows.Scan(&ur.ID, &ur.UserID, &ur.RoleID, &ur.RoleName, &activatedBy, &activatedAt, &ur.CreatedAt); err != nil {
			return nil, err
		}
		if activatedBy.Valid {
			v := uint64(activatedBy.Int64)
			ur.ActivatedBy = &v
		}
		if activatedAt.Valid {
			t := activatedAt.Time
			ur.ActivatedAt = &t
		}
		out = append(out, ur)
	}
	return out, rows.Err()
}
