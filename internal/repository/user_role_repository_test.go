package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestRequest_DuplicateIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewUserRoleRepo(db)

	mock.ExpectExec(`INSERT INTO user_roles`).
		WithArgs(uint64(3), uint64(2)).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '3-2' for key 'ux_user_roles'"))

	_, err := repo.Request(context.Background(), 3, 2)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestActivate_PendingRow(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewUserRoleRepo(db)

	mock.ExpectExec(`UPDATE user_roles SET activated_by=\?, activated_at=NOW\(\)`).
		WithArgs(uint64(1), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Activate(context.Background(), 42, 1); err != nil {
		t.Fatalf("Activate error: %v", err)
	}
}

func TestActivate_AlreadyActive_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewUserRoleRepo(db)

	// The guarded UPDATE only matches pending rows.
	mock.ExpectExec(`UPDATE user_roles SET activated_by=\?, activated_at=NOW\(\)`).
		WithArgs(uint64(1), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Activate(context.Background(), 42, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGetByUserAndRoleName(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewUserRoleRepo(db)

	requested := time.Now()
	mock.ExpectQuery(`FROM user_roles ur\s+JOIN roles r ON ur.role_id = r.id\s+WHERE ur.user_id=\? AND r.name=\?`).
		WithArgs(uint64(3), "SELLER").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "role_id", "name", "activated_by", "activated_at", "created_at"}).
			AddRow(42, 3, 2, "SELLER", nil, nil, requested))

	ur, err := repo.GetByUserAndRoleName(context.Background(), 3, "SELLER")
	if err != nil {
		t.Fatalf("GetByUserAndRoleName error: %v", err)
	}
	if ur.ID != 42 || ur.RoleName != "SELLER" {
		t.Fatalf("unexpected row: %+v", ur)
	}
	if ur.ActivatedAt != nil {
		t.Fatal("pending row must have nil ActivatedAt")
	}
}

func TestGetByUserAndRoleName_NoRow(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewUserRoleRepo(db)

	mock.ExpectQuery(`FROM user_roles ur`).
		WithArgs(uint64(3), "SELLER").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUserAndRoleName(context.Background(), 3, "SELLER")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListByUser_MixedStates(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewUserRoleRepo(db)

	newer := time.Now()
	older := newer.Add(-time.Hour)
	activatedAt := newer.Add(-30 * time.Minute)
	mock.ExpectQuery(`WHERE ur.user_id=\?\s+ORDER BY ur.created_at DESC`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "role_id", "name", "activated_by", "activated_at", "created_at"}).
			AddRow(8, 3, 2, "SELLER", nil, nil, newer).
			AddRow(7, 3, 1, "BUYER", int64(1), activatedAt, older))

	items, err := repo.ListByUser(context.Background(), 3)
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 rows, got %d", len(items))
	}
	if items[0].RoleName != "SELLER" || items[0].ActivatedAt != nil {
		t.Fatalf("unexpected first row: %+v", items[0])
	}
	if items[1].ActivatedBy == nil || *items[1].ActivatedBy != 1 || items[1].ActivatedAt == nil {
		t.Fatalf("unexpected second row: %+v", items[1])
	}
}

func TestHasActiveRole_PendingDoesNotCount(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewUserRoleRepo(db)

	mock.ExpectQuery(`SELECT 1 FROM user_roles`).
		WithArgs(uint64(3), "SELLER").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	ok, err := repo.HasActiveRole(context.Background(), 3, "SELLER")
	if err != nil {
		t.Fatalf("HasActiveRole error: %v", err)
	}
	if ok {
		t.Fatal("pending request must not grant the capability")
	}
}
