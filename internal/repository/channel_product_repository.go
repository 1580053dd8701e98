package repository

import (
	"context"
	"database/sql"
	"time"
)

// ChannelProduct mirrors the 'channel_products' table: a product showcased
// in a channel.
type ChannelProduct struct {
	ID        uint64
	ChannelID uint64
	ProductID uint64
	CreatedAt time.Time
}

// ShowcasedProduct is an active product associated with a channel, joined
// with the name of the shop selling it.
type ShowcasedProduct struct {
	Product
	ShopName string
}

type ChannelProductRepo struct{ DB *sql.DB }

func NewChannelProductRepo(db *sql.DB) *ChannelProductRepo { return &ChannelProductRepo{DB: db} }

// Associate showcases a product in a channel. The unique
// (channel_id, product_id) constraint turns a duplicate association into
// ErrConflict.
func (r *ChannelProductRepo) Associate(ctx context.Context, channelID, productID uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO channel_products (channel_id, product_id) VALUES (?,?)",
		channelID, productID)
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

// Remove drops the association; the boolean reports whether a row was
// actually removed.
func (r *ChannelProductRepo) Remove(ctx context.Context, channelID, productID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM channel_products WHERE channel_id=? AND product_id=?",
		channelID, productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByChannel returns the active products showcased in a channel with
// their shop names, newest product first.
func (r *ChannelProductRepo) ListByChannel(ctx context.Context, channelID uint64) ([]ShowcasedProduct, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT p.id, p.shop_id, p.name, p.description, p.price, p.image_url, p.is_active, p.created_at, p.updated_at, s.name
		 FROM channel_products cp
		 JOIN products p ON p.id = cp.product_id
		 JOIN shops s ON s.id = p.shop_id
		 WHERE cp.channel_id=? AND p.is_active=1
		 ORDER BY p.created_at DESC`,
		channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ShowcasedProduct
	for rows.Next() {
		var sp ShowcasedProduct
		var desc, price, imageURL sql.NullString
		if err := rows.Scan(&sp.ID, &sp.ShopID, &sp.Name, &desc, &price, &imageURL, &sp.IsActive, &sp.CreatedAt, &sp.UpdatedAt, &sp.ShopName); err != nil {
			return nil, err
		}
		if desc.Valid {
			v := desc.String
			sp.Description = &v
		}
		if price.Valid {
			v := price.String
			sp.Price = &v
		}
		if imageURL.Valid {
			v := imageURL.String
			sp.ImageURL = &v
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}
