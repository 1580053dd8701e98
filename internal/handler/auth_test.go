package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/liveshop-app/liveshop-server/internal/config"
	"github.com/liveshop-app/liveshop-server/internal/repository"
	"github.com/liveshop-app/liveshop-server/internal/utils"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testCfg() config.Config {
	return config.Config{
		Env: "test", JWTSecret: "test-secret",
		AccessTTLMin: 15, RefreshTTLDays: 30, BcryptCost: 4,
		AdminEmails: []string{"admin@example.com"},
	}
}

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock := newMockDB(t)
	return NewAuthHandler(testCfg(), repository.NewUserRepo(db), repository.NewTokenRepo(db)), mock, db
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string, setup func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func sqlErrDuplicate() error {
	return errors.New("Error 1062 (23000): Duplicate entry")
}

func TestRegister_Success(t *testing.T) {
	h, mock, db := newAuthHandler(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("alice@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(uint64(9), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := doJSON(t, h.Register, http.MethodPost, "/v1/auth/register",
		`{"email":"alice@example.com","password":"hunter22"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"access"`) {
		t.Fatalf("response missing tokens: %s", rec.Body.String())
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h, mock, db := newAuthHandler(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("alice@example.com", sqlmock.AnyArg()).
		WillReturnError(sqlErrDuplicate())

	rec := doJSON(t, h.Register, http.MethodPost, "/v1/auth/register",
		`{"email":"alice@example.com","password":"hunter22"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegister_RejectsBadInput(t *testing.T) {
	h, _, db := newAuthHandler(t)
	defer db.Close()

	rec := doJSON(t, h.Register, http.MethodPost, "/v1/auth/register",
		`{"email":"not-an-email","password":"hunter22"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for bad email, got %d", rec.Code)
	}

	rec = doJSON(t, h.Register, http.MethodPost, "/v1/auth/register",
		`{"email":"alice@example.com","password":"abc"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for short password, got %d", rec.Code)
	}
}

func TestLogoutAll_RevokesEverySession(t *testing.T) {
	h, mock, db := newAuthHandler(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at=NOW\(\) WHERE user_id=\? AND revoked_at IS NULL`).
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	rec := doJSON(t, h.LogoutAll, http.MethodPost, "/v1/auth/logout-all", "", asUser(9))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("want 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h, mock, db := newAuthHandler(t)
	defer db.Close()

	hash, err := utils.HashPassword("correct-horse", 4)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	now := time.Now()
	mock.ExpectQuery(`SELECT id,email,password_hash,is_verified,created_at,updated_at FROM users`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "is_verified", "created_at", "updated_at"}).
			AddRow(9, "alice@example.com", hash, true, now, now))

	rec := doJSON(t, h.Login, http.MethodPost, "/v1/auth/login",
		`{"email":"alice@example.com","password":"wrong"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLogin_UnknownEmailSameResponse(t *testing.T) {
	h, mock, db := newAuthHandler(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id,email,password_hash,is_verified,created_at,updated_at FROM users`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	rec := doJSON(t, h.Login, http.MethodPost, "/v1/auth/login",
		`{"email":"ghost@example.com","password":"whatever"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid credentials") {
		t.Fatalf("unknown email must look like a bad password: %s", rec.Body.String())
	}
}
