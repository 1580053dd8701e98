package repository

import (
	"context"
	"database/sql"
	"time"
)

// Product mirrors the 'products' table. Price is stored as DECIMAL(10,2)
// and carried as a string to avoid float rounding on money.
type Product struct {
	ID          uint64
	ShopID      uint64
	Name        string
	Description *string
	Price       *string
	ImageURL    *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

const productColumns = "id,shop_id,name,description,price,image_url,is_active,created_at,updated_at"

// Create inserts a product under a shop and returns its ID. New products
// start active.
func (r *ProductRepo) Create(ctx context.Context, shopID uint64, name string, description, price, imageURL *string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO products (shop_id, name, description, price, image_url, is_active) VALUES (?,?,?,?,?,1)",
		shopID, name, description, price, imageURL)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a product by id.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (Product, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id=? LIMIT 1", id)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, notFoundAs(err)
	}
	return p, nil
}

// ListByShop returns a shop's products, newest first. With activeOnly set,
// inactive products are filtered out.
func (r *ProductRepo) ListByShop(ctx context.Context, shopID uint64, activeOnly bool) ([]Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE shop_id=?"
	if activeOnly {
		query += " AND is_active=1"
	}
	query += " ORDER BY created_at DESC"
	rows, err := r.DB.QueryContext(ctx, query, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update applies a partial update; nil fields keep their stored value and
// updated_at is re-stamped. isActive uses a pointer so false is a real
// update, not an omission.
func (r *ProductRepo) Update(ctx context.Context, id uint64, name, description, price, imageURL *string, isActive *bool) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE products SET
		   name = COALESCE(?, name),
		   description = COALESCE(?, description),
		   price = COALESCE(?, price),
		   image_url = COALESCE(?, image_url),
		   is_active = COALESCE(?, is_active),
		   updated_at = NOW()
		 WHERE id=?`,
		name, description, price, imageURL, isActive, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM products WHERE id=? LIMIT 1", id).Scan(&one); err == sql.ErrNoRows {
			return ErrNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a product; the boolean reports whether a row was deleted.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// scanProduct works for both *sql.Row and *sql.Rows.
func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	var desc, price, imageURL sql.NullString
	err := row.Scan(&p.ID, &p.ShopID, &p.Name, &desc, &price, &imageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if desc.Valid {
		v := desc.String
		p.Description = &v
	}
	if price.Valid {
		v := price.String
		p.Price = &v
	}
	if imageURL.Valid {
		v := imageURL.String
		p.ImageURL = &v
	}
	return p, nil
}
