package repository

import (
	"context"
	"database/sql"
	"time"
)

// Channel lifecycle states.
const (
	ChannelStatusActive = "active"
	ChannelStatusEnded  = "ended"
)

// Channel mirrors the 'channels' table: a live session owned by a host,
// created active and ended exactly once.
type Channel struct {
	ID              uint64
	Name            string
	HostID          uint64
	Status          string
	MaxParticipants uint32
	IsPrivate       bool
	CreatedAt       time.Time
	EndedAt         *time.Time
}

type ChannelRepo struct{ DB *sql.DB }

func NewChannelRepo(db *sql.DB) *ChannelRepo { return &ChannelRepo{DB: db} }

const channelColumns = "id,name,host_id,status,max_participants,is_private,created_at,ended_at"

// Create inserts an active channel and returns its ID.
func (r *ChannelRepo) Create(ctx context.Context, name string, hostID uint64, maxParticipants uint32, isPrivate bool) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO channels (name, host_id, status, max_participants, is_private) VALUES (?,?,?,?,?)",
		name, hostID, ChannelStatusActive, maxParticipants, isPrivate)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a channel by id.
func (r *ChannelRepo) GetByID(ctx context.Context, id uint64) (Channel, error) {
	var ch Channel
	var endedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+channelColumns+" FROM channels WHERE id=? LIMIT 1",
		id).Scan(&ch.ID, &ch.Name, &ch.HostID, &ch.Status, &ch.MaxParticipants, &ch.IsPrivate, &ch.CreatedAt, &endedAt)
	if err != nil {
		return Channel{}, notFoundAs(err)
	}
	if endedAt.Valid {
		t := endedAt.Time
		ch.EndedAt = &t
	}
	return ch, nil
}

// ListActive returns all channels still in the active state, newest first.
func (r *ChannelRepo) ListActive(ctx context.Context) ([]Channel, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+channelColumns+" FROM channels WHERE status=? ORDER BY created_at DESC",
		ChannelStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Channel
	for rows.Next() {
		var ch Channel
		var endedAt sql.NullTime
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.HostID, &ch.Status, &ch.MaxParticipants, &ch.IsPrivate, &ch.CreatedAt, &endedAt); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			t := endedAt.Time
			ch.EndedAt = &t
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// End transitions the channel to ended and closes every open participant
// row in the same transaction, so no active membership can survive an
// ended channel. Returns the number of participants departed. Ending a
// channel that is not in the active state returns ErrConflict.
func (r *ChannelRepo) End(ctx context.Context, participants *ChannelParticipantRepo, channelID uint64) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE channels SET status=?, ended_at=NOW() WHERE id=? AND status=?",
		ChannelStatusEnded, channelID, ChannelStatusActive)
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
	departed, err := participants.CloseAllTx(ctx, tx, channelID)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return departed, nil
}
