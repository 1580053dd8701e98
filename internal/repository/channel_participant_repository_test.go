package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestJoin_OpensRow(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewChannelParticipantRepo(db)

	mock.ExpectExec(`INSERT INTO channel_participants`).
		WithArgs(uint64(7), uint64(3), ParticipantRoleViewer, uint64(7), uint64(3)).
		WillReturnResult(sqlmock.NewResult(11, 1))

	id, err := repo.Join(context.Background(), 7, 3, ParticipantRoleViewer)
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}
	if id != 11 {
		t.Fatalf("want id 11, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestJoin_OpenRowExists_Conflict(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewChannelParticipantRepo(db)

	// The guard inside the statement matched an open row: zero rows written.
	mock.ExpectExec(`INSERT INTO channel_participants`).
		WithArgs(uint64(7), uint64(3), ParticipantRoleViewer, uint64(7), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Join(context.Background(), 7, 3, ParticipantRoleViewer)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestLeave_StampsOpenRow(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewChannelParticipantRepo(db)

	mock.ExpectExec(`UPDATE channel_participants SET left_at=NOW\(\)`).
		WithArgs(uint64(7), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := repo.Leave(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("Leave error: %v", err)
	}
	if !changed {
		t.Fatal("want changed=true")
	}
}

func TestLeave_NoOpenRow_NoOp(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewChannelParticipantRepo(db)

	mock.ExpectExec(`UPDATE channel_participants SET left_at=NOW\(\)`).
		WithArgs(uint64(7), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.Leave(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("Leave error: %v", err)
	}
	if changed {
		t.Fatal("leaving twice must be a no-op, not an error")
	}
}

func TestCountActive(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewChannelParticipantRepo(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM channel_participants`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.CountActive(context.Background(), 7)
	if err != nil {
		t.Fatalf("CountActive error: %v", err)
	}
	if n != 4 {
		t.Fatalf("want 4, got %d", n)
	}
}

func TestIsActiveParticipant_DepartedRowDoesNotCount(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewChannelParticipantRepo(db)

	// Only an open row counts; the departed history is ignored.
	mock.ExpectQuery(`SELECT 1 FROM channel_participants WHERE channel_id=\? AND user_id=\? AND left_at IS NULL`).
		WithArgs(uint64(7), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	ok, err := repo.IsActiveParticipant(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("IsActiveParticipant error: %v", err)
	}
	if ok {
		t.Fatal("user who left must not be an active participant")
	}
}

func TestHasEverParticipated_DepartedRowCounts(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewChannelParticipantRepo(db)

	mock.ExpectQuery(`SELECT 1 FROM channel_participants WHERE channel_id=\? AND user_id=\? LIMIT 1`).
		WithArgs(uint64(7), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	ok, err := repo.HasEverParticipated(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("HasEverParticipated error: %v", err)
	}
	if !ok {
		t.Fatal("a departed row still counts as past participation")
	}
}

func TestRoleOf_NotAParticipant(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewChannelParticipantRepo(db)

	mock.ExpectQuery(`SELECT role FROM channel_participants`).
		WithArgs(uint64(7), uint64(3)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.RoleOf(context.Background(), 7, 3)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
