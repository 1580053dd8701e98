package repository

import (
	"context"
	"database/sql"
	"time"
)

// Channel participant roles.
const (
	ParticipantRoleHost   = "host"
	ParticipantRoleViewer = "viewer"
	ParticipantRoleVendor = "vendor"
)

// ChannelParticipant mirrors the 'channel_participants' table. A row is a
// membership interval: open while LeftAt is nil, departed once stamped.
// The invariant is at most one open row per (channel, user).
type ChannelParticipant struct {
	ID        uint64
	ChannelID uint64
	UserID    uint64
	Role      string
	JoinedAt  time.Time
	LeftAt    *time.Time
}

// ParticipantListing is an open membership row joined with the user's
// email for roster display.
type ParticipantListing struct {
	ChannelParticipant
	Email string
}

type ChannelParticipantRepo struct{ DB *sql.DB }

func NewChannelParticipantRepo(db *sql.DB) *ChannelParticipantRepo {
	return &ChannelParticipantRepo{DB: db}
}

// Join opens a membership row for the user. The insert is conditional on
// no open row existing for the pair, evaluated atomically inside the
// statement: two concurrent joins cannot both pass the guard the way a
// separate pre-check could. Zero rows affected means an open row already
// exists and surfaces as ErrConflict.
func (r *ChannelParticipantRepo) Join(ctx context.Context, channelID, userID uint64, role string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO channel_participants (channel_id, user_id, role)
		 SELECT ?, ?, ?
		 FROM dual
		 WHERE NOT EXISTS (
		   SELECT 1 FROM channel_participants
		   WHERE channel_id=? AND user_id=? AND left_at IS NULL
		 )`,
		channelID, userID, role, channelID, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrConflict
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Leave stamps left_at on the user's open row. Returns false when no open
// row exists: leaving twice is a no-op, not an error.
func (r *ChannelParticipantRepo) Leave(ctx context.Context, channelID, userID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE channel_participants SET left_at=NOW() WHERE channel_id=? AND user_id=? AND left_at IS NULL",
		channelID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CloseAllTx departs every open participant of a channel within the
// caller's transaction. Used by ChannelRepo.End so the channel row and its
// memberships transition together.
func (r *ChannelParticipantRepo) CloseAllTx(ctx context.Context, tx *sql.Tx, channelID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE channel_participants SET left_at=NOW() WHERE channel_id=? AND left_at IS NULL",
		channelID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListActive returns the open-membership roster for a channel, joined with
// user emails, in join order.
func (r *ChannelParticipantRepo) ListActive(ctx context.Context, channelID uint64) ([]ParticipantListing, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT cp.id, cp.channel_id, cp.user_id, cp.role, cp.joined_at, u.email
		 FROM channel_participants cp
		 JOIN users u ON u.id = cp.user_id
		 WHERE cp.channel_id=? AND cp.left_at IS NULL
		 ORDER BY cp.joined_at`,
		channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ParticipantListing
	for rows.Next() {
		var p ParticipantListing
		if err := rows.Scan(&p.ID, &p.ChannelID, &p.UserID, &p.Role, &p.JoinedAt, &p.Email); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountActive returns the number of open rows for a channel.
func (r *ChannelParticipantRepo) CountActive(ctx context.Context, channelID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM channel_participants WHERE channel_id=? AND left_at IS NULL",
		channelID).Scan(&n)
	return n, err
}

// IsActiveParticipant reports whether the user currently holds an open row
// in the channel.
func (r *ChannelParticipantRepo) IsActiveParticipant(ctx context.Context, channelID, userID uint64) (bool, error) {
	return r.exists(ctx,
		"SELECT 1 FROM channel_participants WHERE channel_id=? AND user_id=? AND left_at IS NULL LIMIT 1",
		channelID, userID)
}

// HasEverParticipated ignores interval state: any row, open or departed,
// counts.
func (r *ChannelParticipantRepo) HasEverParticipated(ctx context.Context, channelID, userID uint64) (bool, error) {
	return r.exists(ctx,
		"SELECT 1 FROM channel_participants WHERE channel_id=? AND user_id=? LIMIT 1",
		channelID, userID)
}

// RoleOf returns the user's role on their open row, or ErrNotFound when
// the user is not currently in the channel.
func (r *ChannelParticipantRepo) RoleOf(ctx context.Context, channelID, userID uint64) (string, error) {
	var role string
	err := r.DB.QueryRowContext(ctx,
		"SELECT role FROM channel_participants WHERE channel_id=? AND user_id=? AND left_at IS NULL LIMIT 1",
		channelID, userID).Scan(&role)
	if err != nil {
		return "", notFoundAs(err)
	}
	return role, nil
}

func (r *ChannelParticipantRepo) exists(ctx context.Context, query string, args ...any) (bool, error) {
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
