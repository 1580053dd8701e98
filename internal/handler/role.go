package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/liveshop-app/liveshop-server/internal/config"
	"github.com/liveshop-app/liveshop-server/internal/repository"
)

// RoleHandler serves platform role requests and their activation. Role
// grants are one-way: once activated a role stays active.
type RoleHandler struct {
	Cfg       config.Config
	Roles     *repository.RoleRepo
	UserRoles *repository.UserRoleRepo
	Users     *repository.UserRepo
}

func NewRoleHandler(cfg config.Config, roles *repository.RoleRepo, userRoles *repository.UserRoleRepo, users *repository.UserRepo) *RoleHandler {
	if roles == nil || userRoles == nil || users == nil {
		panic("nil repository passed to NewRoleHandler")
	}
	return &RoleHandler{Cfg: cfg, Roles: roles, UserRoles: userRoles, Users: users}
}

type userRoleResp struct {
	ID          uint64     `json:"id"`
	RoleID      uint64     `json:"role_id"`
	Role        string     `json:"role"`
	UserID      uint64     `json:"user_id"`
	ActivatedBy *uint64    `json:"activated_by"`
	ActivatedAt *time.Time `json:"activated_at"`
	RequestedAt time.Time  `json:"requested_at"`
	Active      bool       `json:"active"`
}

func toUserRoleResp(ur repository.UserRole) userRoleResp {
	return userRoleResp{
		ID: ur.ID, RoleID: ur.RoleID, Role: ur.RoleName, UserID: ur.UserID,
		ActivatedBy: ur.ActivatedBy, ActivatedAt: ur.ActivatedAt,
		RequestedAt: ur.CreatedAt, Active: ur.ActivatedAt != nil,
	}
}

// Catalog handles GET /v1/roles: the requestable platform roles.
func (h *RoleHandler) Catalog(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	roles, err := h.Roles.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	type roleResp struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}
	out := make([]roleResp, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleResp{ID: r.ID, Name: r.Name})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Request handles POST /v1/roles/request {role}. The row is created
// pending; a second request for the same role is a 409 via the unique
// (user, role) constraint.
func (h *RoleHandler) Request(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Role) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	role, err := h.Roles.GetByName(ctx, strings.ToUpper(strings.TrimSpace(body.Role)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown role"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	id, err := h.UserRoles.Request(ctx, uid, role.ID)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "role already requested"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "request failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":     id,
		"role":   role.Name,
		"status": "pending",
	})
}

// Mine handles GET /v1/roles/mine: the caller's role rows, pending and
// active alike.
func (h *RoleHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.UserRoles.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]userRoleResp, 0, len(items))
	for _, ur := range items {
		out = append(out, toUserRoleResp(ur))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Activate handles POST /v1/roles/:id/activate. Reviewer only. Activating
// an already-active request is a 404: the guarded UPDATE matches only
// pending rows.
func (h *RoleHandler) Activate(c echo.Context) error {
	uid, ok := h.requireReviewer(c)
	if !ok {
		return nil // response already written
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.UserRoles.Activate(ctx, id, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no pending role request with that id"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "activate failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": "active"})
}

// Pending handles GET /v1/roles/pending: the reviewer queue, newest first.
func (h *RoleHandler) Pending(c echo.Context) error {
	if _, ok := h.requireReviewer(c); !ok {
		return nil // response already written
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.UserRoles.ListPending(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]userRoleResp, 0, len(items))
	for _, ur := range items {
		out = append(out, toUserRoleResp(ur))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// requireReviewer resolves the caller to a live user row and checks the
// email against the configured reviewer list. On failure the HTTP response
// is already written and ok is false.
func (h *RoleHandler) requireReviewer(c echo.Context) (uint64, bool) {
	uid, err := getUserID(c)
	if err != nil {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		return 0, false
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		return 0, false
	}
	if !h.Cfg.IsAdmin(u.Email) {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "reviewer access required"})
		return 0, false
	}
	return uid, true
}
