package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/liveshop-app/liveshop-server/internal/repository"
)

// ShopHandler bundles the repositories behind the shop and vendor
// endpoints.
type ShopHandler struct {
	Shops     *repository.ShopRepo
	ShopRoles *repository.UserShopRoleRepo
	Users     *repository.UserRepo
}

func NewShopHandler(shops *repository.ShopRepo, shopRoles *repository.UserShopRoleRepo, users *repository.UserRepo) *ShopHandler {
	if shops == nil || shopRoles == nil || users == nil {
		panic("nil repository passed to NewShopHandler")
	}
	return &ShopHandler{Shops: shops, ShopRoles: shopRoles, Users: users}
}

type shopResp struct {
	ID          uint64    `json:"id"`
	OwnerID     uint64    `json:"owner_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Role        string    `json:"role,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toShopResp(s repository.Shop, role string) shopResp {
	return shopResp{
		ID: s.ID, OwnerID: s.OwnerID, Name: s.Name, Description: s.Description,
		Role: role, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

// Create handles POST /v1/shops. The shop row and the creator's
// 'shop-owner' role row are written in one transaction.
func (h *ShopHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" || len(name) > 255 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must be 1-255 characters"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Shops.CreateWithOwner(ctx, uid, name, body.Description)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create shop"})
	}
	shop, err := h.Shops.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load shop"})
	}
	return c.JSON(http.StatusCreated, toShopResp(shop, repository.ShopRoleOwner))
}

// List handles GET /v1/shops: every shop the caller has a role in, with
// that role attached.
func (h *ShopHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Shops.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]shopResp, 0, len(items))
	for _, s := range items {
		out = append(out, toShopResp(s.Shop, s.Role))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Get handles GET /v1/shops/:id. Reading shop details requires access
// (owner or vendor).
func (h *ShopHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	shop, err := h.Shops.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := requireShopAccess(ctx, h.ShopRoles, uid, id); err != nil {
		if errors.Is(err, errNotEntitled) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have access to this shop"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toShopResp(shop, ""))
}

// Update handles PATCH /v1/shops/:id. Owner only.
func (h *ShopHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name != nil {
		n := strings.TrimSpace(*body.Name)
		if n == "" || len(n) > 255 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must be 1-255 characters"})
		}
		body.Name = &n
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := requireShopOwner(ctx, h.ShopRoles, uid, id); err != nil {
		if errors.Is(err, errNotEntitled) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only shop owners can perform this action"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := h.Shops.Update(ctx, id, body.Name, body.Description); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	shop, err := h.Shops.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load shop"})
	}
	return c.JSON(http.StatusOK, toShopResp(shop, ""))
}

// Delete handles DELETE /v1/shops/:id. Owner only.
func (h *ShopHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := requireShopOwner(ctx, h.ShopRoles, uid, id); err != nil {
		if errors.Is(err, errNotEntitled) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only shop owners can perform this action"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	deleted, err := h.Shops.Delete(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
