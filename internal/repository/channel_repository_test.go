package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestEnd_ClosesChannelAndParticipantsTogether(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	channels := NewChannelRepo(db)
	participants := NewChannelParticipantRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE channels SET status=\?, ended_at=NOW\(\)`).
		WithArgs(ChannelStatusEnded, uint64(7), ChannelStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE channel_participants SET left_at=NOW\(\)`).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	departed, err := channels.End(context.Background(), participants, 7)
	if err != nil {
		t.Fatalf("End error: %v", err)
	}
	if departed != 3 {
		t.Fatalf("want 3 departed, got %d", departed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnd_AlreadyEnded_Conflict(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	channels := NewChannelRepo(db)
	participants := NewChannelParticipantRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE channels SET status=\?, ended_at=NOW\(\)`).
		WithArgs(ChannelStatusEnded, uint64(7), ChannelStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := channels.End(context.Background(), participants, 7)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnd_ParticipantCloseFails_RollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	channels := NewChannelRepo(db)
	participants := NewChannelParticipantRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE channels SET status=\?, ended_at=NOW\(\)`).
		WithArgs(ChannelStatusEnded, uint64(7), ChannelStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE channel_participants SET left_at=NOW\(\)`).
		WithArgs(uint64(7)).
		WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	_, err := channels.End(context.Background(), participants, 7)
	if err == nil {
		t.Fatal("want error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
