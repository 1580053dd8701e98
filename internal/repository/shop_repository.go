package repository

import (
	"context"
	"database/sql"
	"time"
)

// Shop mirrors the 'shops' table. Every shop has exactly one owner; the
// owner additionally holds a 'shop-owner' row in user_shop_roles, written
// in the same transaction as the shop itself.
type Shop struct {
	ID          uint64
	OwnerID     uint64
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ShopWithRole is a shop joined with the caller's role in it, as returned
// by ListByUser.
type ShopWithRole struct {
	Shop
	Role string
}

type ShopRepo struct{ DB *sql.DB }

func NewShopRepo(db *sql.DB) *ShopRepo { return &ShopRepo{DB: db} }

const shopColumns = "id,owner_id,name,description,created_at,updated_at"

// CreateWithOwner inserts the shop and its owner role row in one
// transaction so a failure between the two statements cannot leave an
// orphaned shop without an owner.
func (r *ShopRepo) CreateWithOwner(ctx context.Context, ownerID uint64, name string, description *string) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO shops (owner_id, name, description) VALUES (?,?,?)",
		ownerID, name, description)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO user_shop_roles (user_id, shop_id, role) VALUES (?,?,'shop-owner')",
		ownerID, uint64(id)); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a shop by id.
func (r *ShopRepo) GetByID(ctx context.Context, id uint64) (Shop, error) {
	var s Shop
	var desc sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+shopColumns+" FROM shops WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.OwnerID, &s.Name, &desc, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Shop{}, notFoundAs(err)
	}
	if desc.Valid {
		d := desc.String
		s.Description = &d
	}
	return s, nil
}

// ListByUser returns every shop the user has a role in (owner or vendor),
// with that role attached, newest first.
func (r *ShopRepo) ListByUser(ctx context.Context, userID uint64) ([]ShopWithRole, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT s.id, s.owner_id, s.name, s.description, s.created_at, s.updated_at, usr.role
		 FROM shops s
		 JOIN user_shop_roles usr ON usr.shop_id = s.id
		 WHERE usr.user_id=?
		 ORDER BY s.created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ShopWithRole
	for rows.Next() {
		var s ShopWithRole
		var desc sql.NullString
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &desc, &s.CreatedAt, &s.UpdatedAt, &s.Role); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			s.Description = &d
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update applies a partial update. Nil fields are left untouched;
// updated_at is re-stamped server-side. Returns ErrNotFound when the shop
// does not exist.
func (r *ShopRepo) Update(ctx context.Context, id uint64, name *string, description *string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE shops SET
		   name = COALESCE(?, name),
		   description = COALESCE(?, description),
		   updated_at = NOW()
		 WHERE id=?`,
		name, description, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "no such shop" from "values unchanged".
		exists, err := r.ExistsByID(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// Delete removes a shop. The boolean reflects whether a row was actually
// deleted, not merely the absence of an error.
func (r *ShopRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM shops WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ExistsByID reports whether a shop row exists.
func (r *ShopRepo) ExistsByID(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM shops WHERE id=? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
