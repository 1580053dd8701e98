package repository

import (
	"context"
	"database/sql"
	"time"
)

// Shop-scoped role names, distinct from the platform role catalog.
const (
	ShopRoleOwner  = "shop-owner"
	ShopRoleVendor = "vendor"
)

// UserShopRole mirrors the 'user_shop_roles' table: the join of a user and
// a shop with either the owner or vendor role.
type UserShopRole struct {
	ID        uint64
	UserID    uint64
	ShopID    uint64
	Role      string
	CreatedAt time.Time
}

// VendorListing is a vendor row joined with the vendor's email for
// display in rosters.
type VendorListing struct {
	UserShopRole
	Email string
}

type UserShopRoleRepo struct{ DB *sql.DB }

func NewUserShopRoleRepo(db *sql.DB) *UserShopRoleRepo { return &UserShopRoleRepo{DB: db} }

// Assign grants a role in a shop. The unique (user_id, shop_id, role)
// constraint is the conflict signal for a duplicate assignment; there is
// no pre-check to race against.
func (r *UserShopRoleRepo) Assign(ctx context.Context, userID, shopID uint64, role string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_shop_roles (user_id, shop_id, role) VALUES (?,?,?)",
		userID, shopID, role)
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

// Remove deletes a role row. The boolean reports whether a row was
// actually removed.
func (r *UserShopRoleRepo) Remove(ctx context.Context, userID, shopID uint64, role string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM user_shop_roles WHERE user_id=? AND shop_id=? AND role=?",
		userID, shopID, role)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsShopOwner is true iff a row with role exactly 'shop-owner' exists for
// the (user, shop) pair.
func (r *UserShopRoleRepo) IsShopOwner(ctx context.Context, userID, shopID uint64) (bool, error) {
	return r.exists(ctx,
		"SELECT 1 FROM user_shop_roles WHERE user_id=? AND shop_id=? AND role=? LIMIT 1",
		userID, shopID, ShopRoleOwner)
}

// HasShopAccess is true iff any role row exists for the (user, shop) pair,
// i.e. owner or vendor.
func (r *UserShopRoleRepo) HasShopAccess(ctx context.Context, userID, shopID uint64) (bool, error) {
	return r.exists(ctx,
		"SELECT 1 FROM user_shop_roles WHERE user_id=? AND shop_id=? LIMIT 1",
		userID, shopID)
}

// ListVendors returns all vendor rows for a shop with the vendor's email.
func (r *UserShopRoleRepo) ListVendors(ctx context.Context, shopID uint64) ([]VendorListing, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT usr.id, usr.user_id, usr.shop_id, usr.role, usr.created_at, u.email
		 FROM user_shop_roles usr
		 JOIN users u ON u.id = usr.user_id
		 WHERE usr.shop_id=? AND usr.role=?
		 ORDER BY usr.created_at`,
		shopID, ShopRoleVendor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []VendorListing
	for rows.Next() {
		var v VendorListing
		if err := rows.Scan(&v.ID, &v.UserID, &v.ShopID, &v.Role, &v.CreatedAt, &v.Email); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *UserShopRoleRepo) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
