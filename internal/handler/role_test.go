package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/liveshop-app/liveshop-server/internal/repository"
)

func userRow(id int64, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "is_verified", "created_at", "updated_at"}).
		AddRow(id, email, "x", true, now, now)
}

func TestActivate_NonReviewerForbidden(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	h := NewRoleHandler(testCfg(), repository.NewRoleRepo(db), repository.NewUserRoleRepo(db), repository.NewUserRepo(db))

	mock.ExpectQuery(`SELECT id,email,password_hash,is_verified,created_at,updated_at FROM users WHERE id=\?`).
		WithArgs(uint64(3)).
		WillReturnRows(userRow(3, "bob@example.com"))

	rec := doJSON(t, h.Activate, http.MethodPost, "/v1/roles/42/activate", "", asUser(3, "id", "42"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("want 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestActivate_ReviewerActivatesPending(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	h := NewRoleHandler(testCfg(), repository.NewRoleRepo(db), repository.NewUserRoleRepo(db), repository.NewUserRepo(db))

	mock.ExpectQuery(`SELECT id,email,password_hash,is_verified,created_at,updated_at FROM users WHERE id=\?`).
		WithArgs(uint64(1)).
		WillReturnRows(userRow(1, "admin@example.com"))
	mock.ExpectExec(`UPDATE user_roles SET activated_by=\?, activated_at=NOW\(\)`).
		WithArgs(uint64(1), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(t, h.Activate, http.MethodPost, "/v1/roles/42/activate", "", asUser(1, "id", "42"))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestActivate_AlreadyActiveIs404(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	h := NewRoleHandler(testCfg(), repository.NewRoleRepo(db), repository.NewUserRoleRepo(db), repository.NewUserRepo(db))

	mock.ExpectQuery(`SELECT id,email,password_hash,is_verified,created_at,updated_at FROM users WHERE id=\?`).
		WithArgs(uint64(1)).
		WillReturnRows(userRow(1, "admin@example.com"))
	mock.ExpectExec(`UPDATE user_roles SET activated_by=\?, activated_at=NOW\(\)`).
		WithArgs(uint64(1), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := doJSON(t, h.Activate, http.MethodPost, "/v1/roles/42/activate", "", asUser(1, "id", "42"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCatalog_ListsSeededRoles(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	h := NewRoleHandler(testCfg(), repository.NewRoleRepo(db), repository.NewUserRoleRepo(db), repository.NewUserRepo(db))

	now := time.Now()
	mock.ExpectQuery(`SELECT id,name,created_at FROM roles ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).
			AddRow(1, "BUYER", now).
			AddRow(2, "SELLER", now))

	rec := doJSON(t, h.Catalog, http.MethodGet, "/v1/roles", "", asUser(3))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"BUYER"`) || !strings.Contains(rec.Body.String(), `"SELLER"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRequest_SecondRequestConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	h := NewRoleHandler(testCfg(), repository.NewRoleRepo(db), repository.NewUserRoleRepo(db), repository.NewUserRepo(db))

	mock.ExpectQuery(`SELECT id,name,created_at FROM roles WHERE name=\?`).
		WithArgs("SELLER").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).AddRow(2, "SELLER", time.Now()))
	mock.ExpectExec(`INSERT INTO user_roles`).
		WithArgs(uint64(3), uint64(2)).
		WillReturnError(sqlErrDuplicate())

	rec := doJSON(t, h.Request, http.MethodPost, "/v1/roles/request", `{"role":"seller"}`, asUser(3))
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "already requested") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
