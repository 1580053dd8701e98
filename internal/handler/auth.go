package handler

import (
	"database/sql"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/liveshop-app/liveshop-server/internal/config"
	"github.com/liveshop-app/liveshop-server/internal/repository"
	"github.com/liveshop-app/liveshop-server/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID         uint64 `json:"id"`
	Email      string `json:"email"`
	IsVerified bool   `json:"is_verified"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Register creates a user and returns tokens immediately. A duplicate
// email is a 409, reported by the storage constraint rather than a lookup.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
	}
	if len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	resp, err := h.issueTokens(c, uid, userPart{ID: uid, Email: req.Email})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a new token pair. Unknown email
// and bad password produce the same response on purpose.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	resp, err := h.issueTokens(c, u.ID, userPart{ID: u.ID, Email: u.Email, IsVerified: u.IsVerified})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh validates a refresh token by hash, revokes it and issues a new
// pair (rotation).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	resp, err := h.issueTokens(c, userID, userPart{ID: u.ID, Email: u.Email, IsVerified: u.IsVerified})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the supplied refresh token; the session cannot be
// refreshed afterwards.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every active refresh token the caller holds, ending
// all of their sessions at once. The current access token stays valid
// until it expires.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me re-resolves the bearer's user id to a live row on every call, so a
// deleted account stops resolving immediately.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":          u.ID,
		"email":       u.Email,
		"is_verified": u.IsVerified,
		"created_at":  u.CreatedAt,
	})
}

func (h *AuthHandler) issueTokens(c echo.Context, uid uint64, user userPart) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Tokens.StoreRefresh(ctx, uid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    user,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}
